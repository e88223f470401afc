package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthTimeout bounds the checks run by /health.
const healthTimeout = 3 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(withRequestID, s.observe, s.cors, limitBody)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)

			r.Get("/stats", s.handleStats)
			r.Post("/decode", s.handleDecode)

			r.Route("/captures", func(r chi.Router) {
				r.Get("/", s.handleListCaptures)
				r.Get("/summary", s.handleCaptureSummary)
				r.Get("/{id}", s.handleGetCapture)
			})

			if s.dir != nil {
				r.Get("/groups", s.handleListGroups)
				r.Get("/devices", s.handleListDevices)
			}

			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// handleHealth reports each registered component. Any failing component
// turns the response into 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	components := make(map[string]string, len(s.health))
	status, code := "ok", http.StatusOK
	for name, hc := range s.health {
		if err := hc.HealthCheck(ctx); err != nil {
			components[name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":     status,
		"version":    s.version,
		"components": components,
		"ws_clients": s.hub.ClientCount(),
		"ws_dropped": s.hub.Dropped(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Snapshot())
}
