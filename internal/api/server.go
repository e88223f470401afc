package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/p0l0/xknx/internal/capture"
	"github.com/p0l0/xknx/internal/dpt"
	"github.com/p0l0/xknx/internal/infrastructure/config"
	"github.com/p0l0/xknx/internal/infrastructure/logging"
	"github.com/p0l0/xknx/internal/monitor"
)

// shutdownGrace bounds how long Close waits for in-flight requests.
const shutdownGrace = 10 * time.Second

// StatsSource provides live counters. *monitor.Stats implements it.
type StatsSource interface {
	Snapshot() monitor.Snapshot
}

// AddressDirectory lists addresses seen on the bus.
// *capture.AddressRecorder implements it.
type AddressDirectory interface {
	Groups(ctx context.Context, limit int) ([]capture.GroupAddressInfo, error)
	Devices(ctx context.Context, limit int) ([]capture.DeviceInfo, error)
}

// HealthChecker is a component reported by /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps wires the server. Logger, Captures and Stats are required.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Logger   *logging.Logger
	Captures capture.Repository
	Stats    StatsSource

	// Health lists optional components by name, e.g. "database", "mqtt".
	Health map[string]HealthChecker

	// Hub, if set, is used instead of a server-owned hub so the monitor
	// pipeline can broadcast into it.
	Hub *Hub

	// GroupTypes, if set, decodes group values in stored captures.
	GroupTypes dpt.Resolver

	// Addresses, if set, serves /groups and /devices.
	Addresses AddressDirectory

	Version string
}

// Server is the HTTP API server.
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	logger   *logging.Logger
	captures capture.Repository
	stats    StatsSource
	health   map[string]HealthChecker
	version  string
	types    dpt.Resolver
	dir      AddressDirectory

	hub         *Hub
	externalHub bool

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc
}

// New validates deps. Nothing listens until Start.
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Logger == nil:
		return nil, errors.New("api: Deps.Logger is nil")
	case deps.Captures == nil:
		return nil, errors.New("api: Deps.Captures is nil")
	case deps.Stats == nil:
		return nil, errors.New("api: Deps.Stats is nil")
	}

	s := &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		logger:   deps.Logger,
		captures: deps.Captures,
		stats:    deps.Stats,
		health:   deps.Health,
		version:  deps.Version,
		types:    deps.GroupTypes,
		dir:      deps.Addresses,
		hub:      deps.Hub,
	}
	if s.hub != nil {
		s.externalHub = true
	} else {
		s.hub = NewHub(deps.WS, deps.Logger)
	}
	return s, nil
}

// Hub returns the WebSocket hub the server broadcasts through.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the router. Useful for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start binds the listener and serves in a background goroutine.
//
// Parameters:
//   - ctx: Parent context for the hub; the listener stops on Close
//
// Returns:
//   - error: If the address cannot be bound
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return fmt.Errorf("api server already started")
	}

	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	if !s.externalHub {
		go s.hub.Run(runCtx)
	}

	s.listener = ln
	t := s.cfg.Timeouts
	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       secs(t.Read),
		ReadHeaderTimeout: secs(t.Read),
		WriteTimeout:      secs(t.Write),
		IdleTimeout:       secs(t.Idle),
	}

	s.logger.Info("API server starting", "address", ln.Addr().String(), "auth", s.cfg.JWTSecret != "")

	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("serve failed", "error", err)
		}
	}(s.server)

	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close stops the hub it owns and shuts the listener down, waiting up to
// shutdownGrace for in-flight requests. Calling it before Start is a no-op.
func (s *Server) Close() error {
	s.mu.Lock()
	srv := s.server
	cancel := s.cancel
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if cancel != nil {
		cancel()
	}

	ctx, done := context.WithTimeout(context.Background(), shutdownGrace)
	defer done()

	s.logger.Info("API server stopping")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	return nil
}

func secs(n int) time.Duration { return time.Duration(n) * time.Second }

// HealthCheck fails before Start.
func (s *Server) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return errors.New("api: server not started")
	}
	return nil
}
