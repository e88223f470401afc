// Package api provides the HTTP API and live WebSocket stream of the
// KNXnet/IP monitor.
//
// Endpoints (all under /api/v1):
//
//	GET  /health               component health, never authenticated
//	GET  /stats                per-service counters since start
//	GET  /captures             stored datagrams, newest first
//	GET  /captures/summary     stored counts by service type and status
//	GET  /captures/{id}        one stored datagram, decoded
//	POST /decode               decode a hex frame without storing it
//	GET  /ws                   live stream of the frames and stats channels
//
// When api.jwt_secret is set every endpoint except /health requires an
// HS256 bearer token; the WebSocket accepts it as the token query parameter.
//
// The server follows the same lifecycle as the infrastructure clients:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
