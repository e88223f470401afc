package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is used when GenerateToken is given a non-positive TTL.
const DefaultTTL = 24 * time.Hour

// ErrTokenInvalid is returned for tokens that fail signature, expiry or
// claim checks.
var ErrTokenInvalid = errors.New("invalid token")

// Claims are the JWT claims carried by API tokens.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken signs a token for subject (a dashboard or client name).
//
// Parameters:
//   - subject: Who the token is issued to, logged with each request
//   - secret: HMAC key, the configured api.jwt_secret
//   - ttl: Lifetime; DefaultTTL when zero or negative
//
// Returns:
//   - string: Signed compact JWT
//   - error: If subject or secret is empty, or signing fails
func GenerateToken(subject, secret string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("generating token: subject is required")
	}
	if secret == "" {
		return "", fmt.Errorf("generating token: secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a token and returns its claims. Only HS256 is
// accepted and the subject must be set.
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return claims, nil
}
