// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomtom215/liftsync/internal/fanout"
	"github.com/tomtom215/liftsync/internal/metrics"
	"github.com/tomtom215/liftsync/internal/models"
)

// maxFrameSize bounds one inbound snapshot frame.
const maxFrameSize = 32 << 20

// Status is the connection state reported with every Update.
type Status int

const (
	// StatusConnecting means the stream is being dialed or retried.
	StatusConnecting Status = iota
	// StatusConnected means the stream is up and Snapshot is current.
	StatusConnected
	// StatusDisconnected means the reconnect budget is spent, or the server
	// rejected the query. In the first case probing continues in the
	// background and a later Connected update may still arrive.
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Update is one state change of an observation. Snapshot is the last
// snapshot received on any connection attempt, nil until the first one, and
// must be treated as read-only since observers of a query share it.
type Update struct {
	Status   Status
	Snapshot *models.Snapshot
	Err      error
}

// connection is the shared stream of one query key.
type connection struct {
	key    string
	query  models.LogicalQuery
	hub    *fanout.Hub[Update]
	cancel context.CancelFunc
	refs   int
}

func (conn *connection) ended() bool {
	select {
	case <-conn.hub.Done():
		return true
	default:
		return false
	}
}

// Observation is one observer of a query. Updates are latest-wins: a slow
// reader skips intermediate values but always sees the newest.
type Observation struct {
	c    *Client
	conn *connection
	sub  *fanout.Subscriber[Update]
	stop func() bool
	once sync.Once
}

// Observe joins the stream of q, dialing it when this is the first observer.
// The observation is closed when ctx is done or Close is called.
func (c *Client) Observe(ctx context.Context, q models.LogicalQuery) (*Observation, error) {
	op := "observe " + q.Name
	if q.Name == "" {
		return nil, &models.SyncError{Op: op, Err: models.ErrBadRequest, Detail: "query name is required"}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, &models.SyncError{Op: op, Err: models.ErrConnectFailure, Detail: ErrClosed.Error()}
	}
	key := q.Key()
	conn, ok := c.conns[key]
	if !ok || conn.ended() {
		conn = c.open(q)
		c.conns[key] = conn
	}
	conn.refs++
	sub := conn.hub.Subscribe()
	c.mu.Unlock()

	o := &Observation{c: c, conn: conn, sub: sub}
	o.stop = context.AfterFunc(ctx, o.Close)
	return o, nil
}

// Query returns the observed query.
func (o *Observation) Query() models.LogicalQuery {
	return o.conn.query
}

// Updates yields state changes. It is closed by Close, by the Client
// closing, or after a terminal Disconnected update.
func (o *Observation) Updates() <-chan Update {
	return o.sub.C()
}

// Close detaches the observer. The last observer of a query tears the
// stream down. Idempotent.
func (o *Observation) Close() {
	o.once.Do(func() {
		o.stop()
		o.sub.Close()
		o.c.release(o.conn)
	})
}

// open starts the stream goroutine for q. Must be called with c.mu held
// and the client open.
func (c *Client) open(q models.LogicalQuery) *connection {
	ctx, cancel := context.WithCancel(c.ctx)
	conn := &connection{
		key:    q.Key(),
		query:  q,
		hub:    fanout.New[Update](),
		cancel: cancel,
	}
	conn.hub.Publish(Update{Status: StatusConnecting})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer conn.hub.Close()
		defer cancel()
		c.run(ctx, conn)
	}()
	return conn
}

func (c *Client) release(conn *connection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn.refs--
	if conn.refs > 0 {
		return
	}
	conn.cancel()
	if c.conns[conn.key] == conn {
		delete(c.conns, conn.key)
	}
}

// run keeps the stream of conn alive until ctx ends or the server rejects
// the query.
func (c *Client) run(ctx context.Context, conn *connection) {
	log := c.log.With().Str("query", conn.key).Logger()
	op := "observe " + conn.query.Name

	var last *models.Snapshot
	failures := 0
	for {
		received, err := c.stream(ctx, conn, &last, log)
		if ctx.Err() != nil {
			return
		}
		if received {
			failures = 0
		}
		failures++

		if errors.Is(err, models.ErrBadRequest) || errors.Is(err, models.ErrNotFound) {
			log.Warn().Err(err).Msg("stream rejected by server")
			conn.hub.Publish(Update{Status: StatusDisconnected, Snapshot: last, Err: syncError(op, err, failures)})
			return
		}
		if !c.cfg.RetryOnConnectionFailure {
			log.Debug().Err(err).Msg("stream lost, retry disabled")
			conn.hub.Publish(Update{Status: StatusDisconnected, Snapshot: last, Err: syncError(op, err, failures)})
			return
		}

		metrics.ClientReconnects.WithLabelValues(conn.query.Name).Inc()
		wait := c.backoff(failures)
		if failures >= c.cfg.MaxReconnectAttempts {
			if c.cfg.BackoffMax > 0 {
				wait = c.cfg.BackoffMax
			}
			if failures == c.cfg.MaxReconnectAttempts {
				log.Warn().Err(err).Int("attempts", failures).Msg("stream disconnected, probing")
			}
			conn.hub.Publish(Update{Status: StatusDisconnected, Snapshot: last, Err: syncError(op, err, failures)})
		} else {
			log.Debug().Err(err).Int("attempt", failures).Dur("backoff", wait).Msg("stream lost, reconnecting")
			conn.hub.Publish(Update{Status: StatusConnecting, Snapshot: last, Err: syncError(op, err, failures)})
		}

		if sleep(ctx, wait) != nil {
			return
		}
	}
}

// stream runs one websocket connection until it fails. received reports
// whether at least one snapshot arrived.
func (c *Client) stream(ctx context.Context, conn *connection, last **models.Snapshot, log zerolog.Logger) (received bool, err error) {
	ws, resp, err := c.dialer.DialContext(ctx, c.streamURL(conn.query), nil)
	if err != nil {
		if resp != nil {
			return false, rejection(resp)
		}
		return false, classifyTransport(err)
	}
	log.Debug().Msg("stream connected")

	timeout := c.cfg.SocketTimeout
	writeWait := c.cfg.RequestTimeout
	extend := func() {
		if timeout > 0 {
			_ = ws.SetReadDeadline(time.Now().Add(timeout))
		}
	}
	ws.SetReadLimit(maxFrameSize)
	extend()
	ws.SetPongHandler(func(string) error {
		extend()
		return nil
	})
	ws.SetPingHandler(func(data string) error {
		extend()
		err := ws.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
		var netErr net.Error
		if errors.Is(err, websocket.ErrCloseSent) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil
		}
		return err
	})

	var wg sync.WaitGroup
	done := make(chan struct{})
	defer func() {
		close(done)
		wg.Wait()
		_ = ws.Close()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		var tick <-chan time.Time
		if timeout > 0 {
			ticker := time.NewTicker(timeout / 2)
			defer ticker.Stop()
			tick = ticker.C
		}
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
				_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
				_ = ws.Close()
				return
			case <-tick:
				if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					_ = ws.Close()
					return
				}
			}
		}
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return received, ctx.Err()
			}
			return received, classifyStream(err)
		}
		extend()

		var frame models.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			return received, fmt.Errorf("%w: decode frame: %v", models.ErrProtocol, err)
		}
		if frame.Type != models.FrameTypeSnapshot || frame.Query.Name != conn.query.Name {
			return received, fmt.Errorf("%w: unexpected %q frame for %s", models.ErrProtocol, frame.Type, frame.Query.Name)
		}

		snap := frame.Snapshot
		*last = &snap
		received = true
		conn.hub.Publish(Update{Status: StatusConnected, Snapshot: &snap})
	}
}

// rejection maps a failed handshake response onto the taxonomy.
func rejection(resp *http.Response) error {
	var env models.RawAPIResponse
	code, msg := "", http.StatusText(resp.StatusCode)
	if resp.Body != nil && json.NewDecoder(resp.Body).Decode(&env) == nil && env.Error != nil {
		code, msg = env.Error.Code, env.Error.Message
	}
	sentinel := models.ErrorFromStatus(resp.StatusCode, code)
	if sentinel == nil {
		sentinel = models.ErrProtocol
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}

// classifyStream maps a read error on an open stream onto the taxonomy.
func classifyStream(err error) error {
	var netErr net.Error
	switch {
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: no frame within socket timeout", models.ErrTimeout)
	case websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure):
		return fmt.Errorf("%w: server closed stream: %v", models.ErrConnectFailure, err)
	case errors.Is(err, websocket.ErrReadLimit):
		return fmt.Errorf("%w: %v", models.ErrProtocol, err)
	default:
		return fmt.Errorf("%w: %v", models.ErrConnectFailure, err)
	}
}
