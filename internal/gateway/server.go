// Package gateway serves the webhooks that drive a warm transfer: the
// Twilio voice and conference callbacks and the OpenAI call webhook.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/soyeahso/warmline/internal/config"
	"github.com/soyeahso/warmline/internal/hooks"
	"github.com/soyeahso/warmline/internal/logging"
	"github.com/soyeahso/warmline/internal/store"
	"github.com/soyeahso/warmline/internal/transfer"
	"github.com/soyeahso/warmline/internal/version"
)

// maxWebhookBody caps the size of any webhook body read into memory.
const maxWebhookBody = 1 << 20

// Server is the warmline HTTP server.
type Server struct {
	cfg      config.Config
	log      *logging.Logger
	transfer *transfer.Service
	version  string

	// Hook manager (optional, nil if not configured)
	hooks *hooks.Manager

	// Call journal (optional, nil when journaling is disabled)
	journal store.Journal

	now func() time.Time

	mu         sync.Mutex
	startedAt  time.Time
	httpServer *http.Server
	addr       string
}

// ServerOption configures the gateway server.
type ServerOption func(*Server)

// WithHooks sets the hook manager for gateway lifecycle events.
func WithHooks(hm *hooks.Manager) ServerOption {
	return func(s *Server) {
		s.hooks = hm
	}
}

// WithJournal exposes recent call events on the status endpoint.
func WithJournal(j store.Journal) ServerOption {
	return func(s *Server) {
		s.journal = j
	}
}

// WithClock overrides the clock used to check webhook timestamps.
func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) {
		s.now = now
	}
}

// New creates a new gateway server in front of a transfer service.
func New(cfg config.Config, svc *transfer.Service, log *logging.Logger, opts ...ServerOption) *Server {
	s := &Server{
		cfg:      cfg,
		log:      log.Sub("gateway"),
		transfer: svc,
		version:  version.Version,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.GatewayConfig) string {
	switch cfg.Bind {
	case "loopback":
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	case "lan", "auto":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return fmt.Sprintf("%s:%d", host, cfg.Port)
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerHTTPRoutes(mux)
	return withMiddleware(mux, s.log)
}

// Start begins listening for webhooks. It blocks until the context is
// cancelled or an error occurs. On shutdown the HTTP server drains first,
// then live calls are closed.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg.Gateway)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.mu.Lock()
	s.httpServer = srv
	s.addr = ln.Addr().String()
	s.startedAt = s.now()
	s.mu.Unlock()

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Gateway.Bind).
		Str("publicDomain", s.cfg.Gateway.PublicDomain).
		Msg("gateway server ready")

	if s.hooks != nil {
		s.hooks.Emit(ctx, hooks.Payload{Event: hooks.EventGatewayStart, Detail: ln.Addr().String()})
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.log.Info().Msg("shutting down gateway server")
		if s.hooks != nil {
			s.hooks.Emit(context.Background(), hooks.Payload{Event: hooks.EventGatewayStop})
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn().Err(err).Msg("http shutdown incomplete")
		}
		if err := s.transfer.Shutdown(shutdownCtx); err != nil {
			s.log.Warn().Err(err).Msg("calls still active at shutdown")
		}
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-stopped
	return nil
}

// Addr returns the server's bound address, or empty string if not started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Server) uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startedAt.IsZero() {
		return 0
	}
	return s.now().Sub(s.startedAt)
}
