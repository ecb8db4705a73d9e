// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/tomtom215/liftsync/internal/api"
	"github.com/tomtom215/liftsync/internal/config"
	"github.com/tomtom215/liftsync/internal/logging"
	"github.com/tomtom215/liftsync/internal/subscription"
	ws "github.com/tomtom215/liftsync/internal/websocket"
)

// Repository is the full Repository Facade the server exposes: observations
// for streams and reads, writes for mutations. *store.Store implements it.
type Repository interface {
	subscription.Repository
	api.Writer
}

// Server is a restartable Sync Server. Each Start builds a fresh
// multiplexer, stream registry and HTTP server; Stop tears all of them down.
type Server struct {
	cfg     config.ServerConfig
	repo    Repository
	version string

	mu  sync.Mutex
	run *instance
}

// instance is one listening period between Start and Stop.
type instance struct {
	http     *http.Server
	listener net.Listener
	mux      *subscription.Multiplexer
	registry *ws.Registry

	// done is closed when Serve returns; err holds its error, if any.
	done chan struct{}
	err  error
}

// New creates a stopped Server.
func New(cfg config.ServerConfig, repo Repository, version string) *Server {
	return &Server{cfg: cfg, repo: repo, version: version}
}

// Start binds host:port and begins serving. It returns once the listener is
// open, so a nil error means the port is accepting connections. Port 0 picks
// a free port; see Addr. Start on a running server is a no-op.
func (s *Server) Start(port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run != nil {
		select {
		case <-s.run.done:
			// Serve failed on its own; allow a fresh start.
			ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
			_ = s.teardown(ctx, s.run)
			cancel()
			s.run = nil
		default:
			return nil
		}
	}

	if port < 0 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	mux := subscription.New(s.repo)
	registry := ws.NewRegistry()
	handler := api.NewHandler(api.Deps{
		Mux:      mux,
		Store:    s.repo,
		Registry: registry,
		Config:   s.cfg,
		Version:  s.version,
	})
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(s.cfg)))

	run := &instance{
		http: &http.Server{
			Handler:           router.SetupChi(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		listener: ln,
		mux:      mux,
		registry: registry,
		done:     make(chan struct{}),
	}
	go func() {
		defer close(run.done)
		if err := run.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			run.err = err
			logging.Error().Err(err).Str("component", "server").Msg("sync server stopped unexpectedly")
		}
	}()

	s.run = run
	logging.Info().Str("component", "server").Str("addr", ln.Addr().String()).Msg("sync server listening")
	return nil
}

// Addr returns the bound address, or "" when stopped.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return ""
	}
	return s.run.listener.Addr().String()
}

// Port returns the bound port, or 0 when stopped.
func (s *Server) Port() int {
	addr := s.Addr()
	if addr == "" {
		return 0
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	n, _ := strconv.Atoi(port)
	return n
}

// Running reports whether the server is listening.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return false
	}
	select {
	case <-s.run.done:
		return false
	default:
		return true
	}
}

// Done returns a channel closed when the current listening period ends,
// whether by Stop or by a serve failure. It is nil when stopped.
func (s *Server) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return nil
	}
	return s.run.done
}

// Err returns the serve error of the current listening period, if it failed.
func (s *Server) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return nil
	}
	select {
	case <-s.run.done:
		return s.run.err
	default:
		return nil
	}
}

// Stop cancels every stream, waits for all of them to exit, then shuts the
// HTTP server down and releases the port. Stop on a stopped server is a
// no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run := s.run
	if run == nil {
		return nil
	}
	s.run = nil
	err := s.teardown(ctx, run)
	logging.Info().Str("component", "server").Msg("sync server stopped")
	return err
}

// shutdownTimeout bounds the cleanup Start does after a serve failure.
func (s *Server) shutdownTimeout() time.Duration {
	if s.cfg.ShutdownTimeout > 0 {
		return s.cfg.ShutdownTimeout
	}
	return 10 * time.Second
}

func (s *Server) teardown(ctx context.Context, run *instance) error {
	var errs []error
	if err := run.registry.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("streams: %w", err))
	}
	run.mux.Close()
	if err := run.http.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		_ = run.http.Close()
	}

	select {
	case <-run.done:
	case <-ctx.Done():
		errs = append(errs, ctx.Err())
	}
	return errors.Join(errs...)
}
