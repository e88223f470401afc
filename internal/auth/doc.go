// Package auth issues and validates the bearer tokens accepted by the
// monitor API.
//
// Tokens are HS256 JWTs signed with api.jwt_secret. They carry no roles;
// any valid token grants read access to the API and the live stream.
package auth
