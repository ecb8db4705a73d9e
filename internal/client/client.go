// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomtom215/liftsync/internal/config"
	"github.com/tomtom215/liftsync/internal/logging"
	"github.com/tomtom215/liftsync/internal/models"
)

// ErrClosed is returned by calls on a closed Client.
var ErrClosed = errors.New("client closed")

// Client talks to one remote Sync Server.
//
// It is safe for concurrent use. Observations for distinct queries share
// the HTTP transport but each has its own websocket and delivery order.
type Client struct {
	cfg     config.ClientConfig
	base    *url.URL
	http    *http.Client
	dialer  *websocket.Dialer
	breaker *circuitBreaker
	log     zerolog.Logger
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	conns  map[string]*connection
	closed bool
}

// New creates a Client for cfg.BaseURL. Logging follows cfg.EnableLogging.
func New(cfg config.ClientConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Host == "" || (base.Scheme != "http" && base.Scheme != "https") {
		return nil, fmt.Errorf("%w: base url %q must be http(s)://host[:port]", models.ErrBadRequest, cfg.BaseURL)
	}

	log := zerolog.Nop()
	if cfg.EnableLogging {
		log = logging.WithComponent("client").With().Str("server", base.Host).Logger()
	}

	netDialer := &net.Dialer{Timeout: cfg.ConnectTimeout, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         netDialer.DialContext,
		MaxIdleConns:        16,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		cfg:  cfg,
		base: base,
		http: &http.Client{Transport: transport},
		dialer: &websocket.Dialer{
			NetDialContext:   netDialer.DialContext,
			HandshakeTimeout: cfg.ConnectTimeout,
		},
		breaker: newCircuitBreaker(base.Host, log),
		log:     log,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		conns:   make(map[string]*connection),
	}, nil
}

// BaseURL returns the server address the client was created for.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Close tears down every observation and waits for their goroutines.
// Open Observation channels are closed. Idempotent.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	c.http.CloseIdleConnections()
}

// endpoint builds an absolute URL under the server base.
func (c *Client) endpoint(path string, query url.Values) *url.URL {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return &u
}

// streamURL is the websocket address of q.
func (c *Client) streamURL(q models.LogicalQuery) string {
	u := c.endpoint("/api/ws/"+url.PathEscape(q.Name), q.Values())
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	return u.String()
}

// do sends one request and decodes the envelope. Transport failures map to
// ErrConnectFailure or ErrTimeout, error envelopes through
// models.ErrorFromStatus.
func (c *Client) do(ctx context.Context, method string, u *url.URL, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: encode body: %v", models.ErrBadRequest, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrBadRequest, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	var env models.RawAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("%w: HTTP %d", models.ErrorFromStatus(resp.StatusCode, ""), resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: decode response: %v", models.ErrProtocol, err)
	}

	if resp.StatusCode >= 400 || !env.Success {
		code, msg := "", http.StatusText(resp.StatusCode)
		if env.Error != nil {
			code, msg = env.Error.Code, env.Error.Message
		}
		sentinel := models.ErrorFromStatus(resp.StatusCode, code)
		if sentinel == nil {
			sentinel = models.ErrProtocol
		}
		return nil, fmt.Errorf("%w: %s", sentinel, msg)
	}
	return env.Data, nil
}

// classifyTransport maps a transport error onto the taxonomy.
func classifyTransport(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", models.ErrTimeout, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %v", models.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %v", models.ErrConnectFailure, err)
	}
}

// backoff returns the wait before retry number attempt (1-based), growing
// by the configured multiplier and capped at BackoffMax.
func (c *Client) backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	mult := c.cfg.BackoffMultiplier
	if mult < 1 {
		mult = 1
	}
	wait := float64(c.cfg.BackoffInitial) * math.Pow(mult, float64(attempt-1))
	if ceiling := float64(c.cfg.BackoffMax); ceiling > 0 && wait > ceiling {
		wait = ceiling
	}
	return time.Duration(wait)
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
