// Package api provides the HTTP REST API server for OpsDeck Core.
//
// It exposes authentication, user management, settings, and the role-gated
// operational areas (incidents, datasets, tickets, assistant) to dashboard
// frontends.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/opsdeck/opsdeck-core/internal/audit"
	"github.com/opsdeck/opsdeck-core/internal/auth"
	"github.com/opsdeck/opsdeck-core/internal/infrastructure/config"
	"github.com/opsdeck/opsdeck-core/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.ServerConfig
	Security  config.SecurityConfig
	Assistant config.AssistantConfig
	Logger    *logging.Logger
	Auth      *auth.Service
	Sessions  *auth.Registry
	Audit     audit.Repository // optional; nil disables the audit trail
	Version   string
}

// Server is the HTTP API server for OpsDeck Core.
//
// It manages the HTTP listener, routes, and middleware. The server is created
// with New() and started with Start().
type Server struct {
	cfg       config.ServerConfig
	secCfg    config.SecurityConfig
	assistant config.AssistantConfig
	logger    *logging.Logger
	auth      *auth.Service
	sessions  *auth.Registry
	audit     audit.Repository
	version   string
	server    *http.Server
	cancel    context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("auth service is required")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session registry is required")
	}

	return &Server{
		cfg:       deps.Config,
		secCfg:    deps.Security,
		assistant: deps.Assistant,
		logger:    deps.Logger,
		auth:      deps.Auth,
		sessions:  deps.Sessions,
		audit:     deps.Audit,
		version:   deps.Version,
	}, nil
}

// sessionTTL returns the configured session lifetime.
func (s *Server) sessionTTL() time.Duration {
	return time.Duration(s.secCfg.SessionTTL) * time.Minute
}

// Start begins listening for HTTP connections.
//
// It builds the router, starts the session sweeper, and launches the HTTP
// listener in a background goroutine. The server is stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.sessions.RunSweeper(srvCtx, time.Minute)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server started", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
