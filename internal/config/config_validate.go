// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateClient(); err != nil {
		return err
	}
	if err := c.validateLifecycle(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateAdmin(); err != nil {
		return err
	}
	return c.validateLogging()
}

func validPort(p int) bool {
	return p >= 0 && p <= 65535
}

func (c *Config) validateServer() error {
	s := c.Server
	if !validPort(s.Port) {
		return fmt.Errorf("SERVER_PORT must be between 0 and 65535, got %d", s.Port)
	}
	if s.ShutdownTimeout <= 0 {
		return fmt.Errorf("SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if s.PingPeriod <= 0 || s.WriteWait <= 0 {
		return fmt.Errorf("SERVER_PING_PERIOD and SERVER_WRITE_WAIT must be positive")
	}
	if s.PongWait <= s.PingPeriod {
		return fmt.Errorf("SERVER_PONG_WAIT (%v) must exceed SERVER_PING_PERIOD (%v)", s.PongWait, s.PingPeriod)
	}
	if s.MaxMessageSize <= 0 {
		return fmt.Errorf("SERVER_MAX_MESSAGE_SIZE must be positive")
	}
	if s.PushRate <= 0 || s.PushBurst < 1 {
		return fmt.Errorf("SERVER_PUSH_RATE must be positive and SERVER_PUSH_BURST at least 1")
	}
	if !s.RateLimitDisabled && (s.RateLimitReqs < 1 || s.RateLimitWindow <= 0) {
		return fmt.Errorf("RATE_LIMIT_REQS must be at least 1 and RATE_LIMIT_WINDOW positive")
	}
	return nil
}

func (c *Config) validateClient() error {
	cl := c.Client
	if cl.BaseURL != "" {
		u, err := url.Parse(cl.BaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("CLIENT_BASE_URL must be an http(s) URL with a host, got %q", cl.BaseURL)
		}
	}
	if cl.ConnectTimeout <= 0 || cl.RequestTimeout <= 0 || cl.SocketTimeout <= 0 || cl.HealthTimeout <= 0 {
		return fmt.Errorf("client timeouts must be positive")
	}
	if cl.MaxRetryAttempts < 1 {
		return fmt.Errorf("CLIENT_MAX_RETRY_ATTEMPTS must be at least 1, got %d", cl.MaxRetryAttempts)
	}
	if cl.BackoffInitial <= 0 || cl.BackoffMax < cl.BackoffInitial {
		return fmt.Errorf("client backoff must satisfy 0 < initial <= max")
	}
	if cl.BackoffMultiplier < 1 {
		return fmt.Errorf("CLIENT_BACKOFF_MULTIPLIER must be at least 1, got %v", cl.BackoffMultiplier)
	}
	if cl.MaxReconnectAttempts < 1 {
		return fmt.Errorf("CLIENT_MAX_RECONNECTS must be at least 1, got %d", cl.MaxReconnectAttempts)
	}
	return nil
}

func (c *Config) validateLifecycle() error {
	l := c.Lifecycle
	if l.StatePath == "" {
		return fmt.Errorf("LIFECYCLE_STATE_PATH is required")
	}
	if l.StartTimeout <= 0 || l.StopTimeout <= 0 {
		return fmt.Errorf("lifecycle start/stop timeouts must be positive")
	}
	if l.FailureThreshold <= 0 || l.FailureBackoff <= 0 {
		return fmt.Errorf("supervisor failure threshold and backoff must be positive")
	}
	return nil
}

func (c *Config) validateStore() error {
	switch strings.ToLower(c.Store.Driver) {
	case "badger", "sqlite":
	default:
		return fmt.Errorf("STORE_DRIVER must be badger or sqlite, got %q", c.Store.Driver)
	}
	if c.Store.Path == "" && !c.Store.InMemory {
		return fmt.Errorf("STORE_PATH is required unless STORE_IN_MEMORY=true")
	}
	return nil
}

func (c *Config) validateAdmin() error {
	if c.Admin.Enabled && !validPort(c.Admin.Port) {
		return fmt.Errorf("ADMIN_PORT must be between 0 and 65535, got %d", c.Admin.Port)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled", "off":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a known level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
