// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/liftsync/internal/models"
)

// Health calls GET /health with HealthTimeout. It bypasses the circuit
// breaker so a probe always reaches the network.
func (c *Client) Health(ctx context.Context) (models.HealthStatus, error) {
	var hs models.HealthStatus
	if err := c.get(ctx, c.cfg.HealthTimeout, "/health", nil, &hs); err != nil {
		return hs, syncError("health", err, 1)
	}
	return hs, nil
}

// CheckHealth reports whether the server answered its health check.
func (c *Client) CheckHealth(ctx context.Context) bool {
	hs, err := c.Health(ctx)
	if err != nil {
		c.log.Debug().Err(err).Msg("health check failed")
		return false
	}
	return hs.Status == "ok"
}

// Info returns the service name, version and route catalog.
func (c *Client) Info(ctx context.Context) (models.ServiceInfo, error) {
	var info models.ServiceInfo
	if err := c.get(ctx, c.cfg.RequestTimeout, "/", nil, &info); err != nil {
		return info, syncError("info", err, 1)
	}
	return info, nil
}

// Read fetches the current snapshot of q once, without a stream.
// A single-entity query that matches nothing fails with ErrNotFound.
func (c *Client) Read(ctx context.Context, q models.LogicalQuery) (models.Snapshot, error) {
	var snap models.Snapshot
	op := "read " + q.Name
	if q.Name == "" {
		return snap, &models.SyncError{Op: op, Err: models.ErrBadRequest, Detail: "query name is required"}
	}
	if err := c.get(ctx, c.cfg.RequestTimeout, "/api/rest/"+url.PathEscape(q.Name), q.Values(), &snap); err != nil {
		return snap, syncError(op, err, 1)
	}
	return snap, nil
}

func (c *Client) get(ctx context.Context, timeout time.Duration, path string, query url.Values, dst any) error {
	if c.isClosed() {
		return fmt.Errorf("%w: %v", models.ErrConnectFailure, ErrClosed)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	data, err := c.do(ctx, http.MethodGet, c.endpoint(path, query), nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: decode %s: %v", models.ErrProtocol, path, err)
	}
	return nil
}
