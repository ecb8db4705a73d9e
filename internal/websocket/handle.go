// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package websocket

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/liftsync/internal/config"
	"github.com/tomtom215/liftsync/internal/logging"
	"github.com/tomtom215/liftsync/internal/metrics"
	"github.com/tomtom215/liftsync/internal/models"
)

// Cause records why a handle stopped.
type Cause string

const (
	CauseClient      Cause = "client"
	CauseWriteError  Cause = "write_error"
	CauseSourceEnded Cause = "source_ended"
	CauseShutdown    Cause = "shutdown"
)

// Source is the snapshot feed a handle pushes. *subscription.Subscription
// implements it.
type Source interface {
	Query() models.LogicalQuery
	C() <-chan models.Snapshot
	Close()
}

// HandleConfig bounds keepalive, writes and push rate for one connection.
type HandleConfig struct {
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
	PushRate       float64
	PushBurst      int
}

// HandleConfigFrom copies the stream settings out of the server config.
func HandleConfigFrom(cfg config.ServerConfig) HandleConfig {
	return HandleConfig{
		PingPeriod:     cfg.PingPeriod,
		PongWait:       cfg.PongWait,
		WriteWait:      cfg.WriteWait,
		MaxMessageSize: cfg.MaxMessageSize,
		PushRate:       cfg.PushRate,
		PushBurst:      cfg.PushBurst,
	}
}

// handleIDCounter generates unique, monotonically increasing handle ids.
var handleIDCounter atomic.Uint64

// Handle binds one upgraded connection to one subscription. It owns both:
// when Run returns, the subscription is closed and the connection is gone.
type Handle struct {
	id      uint64
	conn    *websocket.Conn
	src     Source
	cfg     HandleConfig
	limiter *rate.Limiter
	started time.Time
}

// NewHandle wraps an upgraded connection. Run must be called exactly once.
func NewHandle(conn *websocket.Conn, src Source, cfg HandleConfig) *Handle {
	limit := rate.Inf
	if cfg.PushRate > 0 {
		limit = rate.Limit(cfg.PushRate)
	}
	burst := cfg.PushBurst
	if burst < 1 {
		burst = 1
	}
	return &Handle{
		id:      handleIDCounter.Add(1),
		conn:    conn,
		src:     src,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, burst),
		started: time.Now(),
	}
}

// ID returns the handle's unique identifier.
func (h *Handle) ID() uint64 {
	return h.id
}

// Query returns the query this handle streams.
func (h *Handle) Query() models.LogicalQuery {
	return h.src.Query()
}

// Run pushes snapshots until ctx ends, the peer goes away, a write fails or
// the source ends. It waits for the read side to exit before returning.
func (h *Handle) Run(ctx context.Context) Cause {
	readDone := make(chan struct{})
	go h.readPump(readDone)

	cause := h.writePump(ctx, readDone)

	h.src.Close()
	_ = h.conn.Close() // unblocks readPump
	<-readDone
	return cause
}

// readPump discards inbound messages; it exists to process control frames
// and notice when the peer disappears.
func (h *Handle) readPump(done chan<- struct{}) {
	defer close(done)

	if h.cfg.MaxMessageSize > 0 {
		h.conn.SetReadLimit(h.cfg.MaxMessageSize)
	}
	if err := h.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait)); err != nil {
		return
	}
	h.conn.SetPongHandler(func(string) error {
		return h.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		if _, _, err := h.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logging.Debug().Str("component", "stream").Uint64("handle", h.id).Err(err).Msg("stream read ended")
			}
			return
		}
	}
}

func (h *Handle) writePump(ctx context.Context, readDone <-chan struct{}) Cause {
	ping := time.NewTicker(h.cfg.PingPeriod)
	defer ping.Stop()

	var (
		pending  *models.Snapshot
		throttle <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			h.writeClose(websocket.CloseGoingAway, "server stopping")
			return CauseShutdown

		case <-readDone:
			return CauseClient

		case snap, ok := <-h.src.C():
			if !ok {
				h.writeClose(websocket.CloseGoingAway, "source ended")
				return CauseSourceEnded
			}
			pending = &snap

		case <-throttle:
			throttle = nil

		case <-ping.C:
			if err := h.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.cfg.WriteWait)); err != nil {
				return CauseWriteError
			}
		}

		if pending == nil || throttle != nil {
			continue
		}
		r := h.limiter.Reserve()
		if d := r.Delay(); d > 0 {
			r.Cancel()
			throttle = time.After(d)
			continue
		}
		if err := h.writeSnapshot(*pending); err != nil {
			logging.Debug().Str("component", "stream").Uint64("handle", h.id).Err(err).Msg("snapshot write failed")
			return CauseWriteError
		}
		pending = nil
	}
}

func (h *Handle) writeSnapshot(s models.Snapshot) error {
	b, err := json.Marshal(models.NewSnapshotFrame(s))
	if err != nil {
		return err
	}
	if err := h.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait)); err != nil {
		return err
	}
	if err := h.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return err
	}
	metrics.StreamSnapshotsPushed.WithLabelValues(s.Query.Name).Inc()
	return nil
}

func (h *Handle) writeClose(code int, text string) {
	err := h.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(h.cfg.WriteWait))
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		logging.Debug().Str("component", "stream").Uint64("handle", h.id).Err(err).Msg("close frame not sent")
	}
}
