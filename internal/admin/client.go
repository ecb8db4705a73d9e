// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package admin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/liftsync/internal/lifecycle"
	"github.com/tomtom215/liftsync/internal/models"
)

// Client drives a daemon's control plane.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a control plane client. timeout bounds each request and
// must outlast the daemon's lifecycle start timeout for TurnOn.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: admin url %q must be http(s)://host[:port]", models.ErrBadRequest, baseURL)
	}
	return &Client{base: u.String(), http: &http.Client{Timeout: timeout}}, nil
}

// TurnOn asks the daemon to start syncing on port. A zero port uses the
// daemon's default.
func (c *Client) TurnOn(ctx context.Context, port int) (lifecycle.Status, error) {
	path := PathOn
	if port != 0 {
		path += "?port=" + strconv.Itoa(port)
	}
	return c.call(ctx, http.MethodPost, path)
}

// TurnOff asks the daemon to stop syncing.
func (c *Client) TurnOff(ctx context.Context) (lifecycle.Status, error) {
	return c.call(ctx, http.MethodPost, PathOff)
}

// Status fetches the current lifecycle status.
func (c *Client) Status(ctx context.Context) (lifecycle.Status, error) {
	return c.call(ctx, http.MethodGet, PathStatus)
}

func (c *Client) call(ctx context.Context, method, path string) (lifecycle.Status, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, http.NoBody)
	if err != nil {
		return lifecycle.Status{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return lifecycle.Status{}, fmt.Errorf("%w: %v", models.ErrConnectFailure, err)
	}
	defer resp.Body.Close()

	var env struct {
		Success bool             `json:"success"`
		Data    lifecycle.Status `json:"data"`
		Error   *models.APIError `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return lifecycle.Status{}, fmt.Errorf("%w: decode %s %s: %v", models.ErrProtocol, method, path, err)
	}

	if resp.StatusCode >= 400 || !env.Success {
		code, message := "", resp.Status
		var status lifecycle.Status
		if env.Error != nil {
			code, message = env.Error.Code, env.Error.Message
			status = statusFromDetails(env.Error.Details)
		}
		sentinel := models.ErrorFromStatus(resp.StatusCode, code)
		if sentinel == nil {
			sentinel = models.ErrProtocol
		}
		return status, fmt.Errorf("%w: %s", sentinel, message)
	}
	return env.Data, nil
}

// statusFromDetails recovers the status attached to an error response.
func statusFromDetails(details map[string]any) lifecycle.Status {
	var st lifecycle.Status
	raw, ok := details["status"]
	if !ok {
		return st
	}
	body, err := json.Marshal(raw)
	if err != nil {
		return st
	}
	_ = json.Unmarshal(body, &st)
	return st
}
