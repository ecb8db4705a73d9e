// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package websocket

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/tomtom215/liftsync/internal/logging"
	"github.com/tomtom215/liftsync/internal/metrics"
	"github.com/tomtom215/liftsync/internal/models"
)

// ErrRegistryClosed is returned by Serve once Shutdown has begun.
var ErrRegistryClosed = errors.New("stream registry is shut down")

// ShutdownReason identifies why the registry is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonStopped is the normal path: the server was told to stop.
	ShutdownReasonStopped ShutdownReason = "stopped"

	// ShutdownReasonDeadline indicates handles were still running when the
	// shutdown context expired.
	ShutdownReasonDeadline ShutdownReason = "deadline"
)

// Registry tracks every running Handle of one server instance so they can
// be cancelled together and waited for.
type Registry struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	handles map[uint64]*Handle
	closed  bool
}

// NewRegistry creates an open registry.
func NewRegistry() *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		ctx:     ctx,
		cancel:  cancel,
		handles: make(map[uint64]*Handle),
	}
}

// Serve runs h until it stops or the registry shuts down, whichever comes
// first. parent is normally the request context.
func (r *Registry) Serve(parent context.Context, h *Handle) (Cause, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", ErrRegistryClosed
	}
	r.handles[h.id] = h
	r.wg.Add(1)
	count := len(r.handles)
	r.mu.Unlock()

	metrics.TrackStreamConnection(true)
	logging.Info().
		Str("component", "stream").
		Uint64("handle", h.id).
		Str("query", h.Query().Key()).
		Int("total_streams", count).
		Msg("stream opened")

	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(r.ctx, cancel)

	cause := h.Run(ctx)

	stop()
	cancel()

	r.mu.Lock()
	delete(r.handles, h.id)
	count = len(r.handles)
	r.mu.Unlock()
	r.wg.Done()

	metrics.TrackStreamConnection(false)
	metrics.StreamDisconnects.WithLabelValues(string(cause)).Inc()
	logging.Info().
		Str("component", "stream").
		Uint64("handle", h.id).
		Str("cause", string(cause)).
		Dur("duration", time.Since(h.started)).
		Int("total_streams", count).
		Msg("stream closed")

	return cause, nil
}

// Closed reports whether Shutdown has begun.
func (r *Registry) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Count returns the number of running handles.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Queries returns the query of every running handle, ordered by handle id.
func (r *Registry) Queries() []models.LogicalQuery {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]uint64, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]models.LogicalQuery, len(ids))
	for i, id := range ids {
		out[i] = r.handles[id].Query()
	}
	return out
}

// Shutdown refuses new handles, cancels the running ones and waits for all
// of them to return. It returns ctx.Err() when ctx ends first. Safe to call
// more than once.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	count := len(r.handles)
	r.mu.Unlock()

	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	reason := ShutdownReasonStopped
	var err error
	select {
	case <-done:
	case <-ctx.Done():
		reason = ShutdownReasonDeadline
		err = ctx.Err()
	}

	logging.Info().
		Str("component", "stream-registry").
		Str("reason", string(reason)).
		Int("streams_closed", count).
		Msg("stream registry stopped")
	return err
}
