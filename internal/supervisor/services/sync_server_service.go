// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package services

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// SyncServer matches the *server.Server lifecycle.
//
// Start returns once the port accepts connections. Done is closed when the
// current listening period ends on its own, with Err holding the cause.
type SyncServer interface {
	Start(port int) error
	Stop(ctx context.Context) error
	Addr() string
	Done() <-chan struct{}
	Err() error
}

// SyncServerHooks observe the service from outside the supervisor.
// Both are optional and called from the service goroutine.
type SyncServerHooks struct {
	// OnListening runs after every successful start, restarts included.
	OnListening func(addr string)
	// OnExit runs when a listening period ends for a reason other than the
	// service being stopped.
	OnExit func(err error)
}

// SyncServerService keeps the Sync Server listening on a fixed port.
//
//  1. Start(port); a bind failure is returned so suture retries with backoff
//  2. Wait for the context or for the server to fail on its own
//  3. Stop within shutdownTimeout, which releases the port
type SyncServerService struct {
	server          SyncServer
	port            int
	shutdownTimeout time.Duration
	hooks           SyncServerHooks
	name            string
}

// NewSyncServerService creates the supervised wrapper for server on port.
func NewSyncServerService(server SyncServer, port int, shutdownTimeout time.Duration, hooks SyncServerHooks) *SyncServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &SyncServerService{
		server:          server,
		port:            port,
		shutdownTimeout: shutdownTimeout,
		hooks:           hooks,
		name:            fmt.Sprintf("sync-server:%d", port),
	}
}

// Serve implements suture.Service.
func (s *SyncServerService) Serve(ctx context.Context) error {
	if err := s.server.Start(s.port); err != nil {
		s.exited(err)
		return fmt.Errorf("sync server start failed: %w", err)
	}
	if s.hooks.OnListening != nil {
		s.hooks.OnListening(s.server.Addr())
	}

	select {
	case <-ctx.Done():
		stopCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Stop(stopCtx); err != nil {
			return fmt.Errorf("sync server stop failed: %w", err)
		}
		return ctx.Err()

	case <-s.server.Done():
		err := s.server.Err()
		if err == nil {
			err = errors.New("sync server stopped unexpectedly")
		}
		stopCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		_ = s.server.Stop(stopCtx)
		s.exited(err)
		return fmt.Errorf("sync server exited: %w", err)
	}
}

func (s *SyncServerService) exited(err error) {
	if s.hooks.OnExit != nil {
		s.hooks.OnExit(err)
	}
}

// Port is the port the service binds.
func (s *SyncServerService) Port() int {
	return s.port
}

// String implements fmt.Stringer for suture's logs.
func (s *SyncServerService) String() string {
	return s.name
}
