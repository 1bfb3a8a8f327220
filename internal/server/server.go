// Package server runs the HTTP listener and shuts down registered
// components in order once the run context ends.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// ShutdownFunc stops a component. It must respect ctx.
type ShutdownFunc func(ctx context.Context) error

// Config holds listener settings.
type Config struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type component struct {
	name string
	fn   ShutdownFunc
}

// Server wraps http.Server with ordered component shutdown.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger

	mu         sync.Mutex
	components []component
}

// New creates a Server for handler.
func New(handler http.Handler, cfg Config, logger *slog.Logger) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 2 * cfg.WriteTimeout
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
	}
}

// OnShutdown registers a component to stop after the HTTP server has
// drained. Components stop in reverse registration order.
func (s *Server) OnShutdown(name string, fn ShutdownFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.components = append(s.components, component{name: name, fn: fn})
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutdown requested", "cause", context.Cause(ctx))
	}

	return s.shutdown()
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.httpServer.SetKeepAlivesEnabled(false)

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http: %w", err))
	}
	s.logger.Info("http server stopped")

	s.mu.Lock()
	components := append([]component(nil), s.components...)
	s.mu.Unlock()

	for i := len(components) - 1; i >= 0; i-- {
		c := components[i]
		if err := c.fn(ctx); err != nil {
			s.logger.Error("component shutdown failed", "name", c.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
			continue
		}
		s.logger.Info("component stopped", "name", c.name)
	}

	return errors.Join(errs...)
}
