// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package config

import "time"

// Config is the root configuration for the daemon and the CLI.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Client    ClientConfig    `koanf:"client"`
	Lifecycle LifecycleConfig `koanf:"lifecycle"`
	Store     StoreConfig     `koanf:"store"`
	Admin     AdminConfig     `koanf:"admin"`
	Discovery DiscoveryConfig `koanf:"discovery"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds Sync Server settings.
type ServerConfig struct {
	// Host is the bind address. Empty or 0.0.0.0 listens on all interfaces.
	Host string `koanf:"host"`

	// Port is used when the lifecycle manager has no persisted port yet.
	Port int `koanf:"port"`

	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Websocket keepalive and write bounds for stream handles.
	PingPeriod     time.Duration `koanf:"ping_period"`
	PongWait       time.Duration `koanf:"pong_wait"`
	WriteWait      time.Duration `koanf:"write_wait"`
	MaxMessageSize int64         `koanf:"max_message_size"`

	// PushRate caps snapshot frames per second per stream; PushBurst is the bucket size.
	// Snapshots that arrive faster are coalesced (latest wins).
	PushRate  float64 `koanf:"push_rate"`
	PushBurst int     `koanf:"push_burst"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// ClientConfig holds Sync Client settings.
type ClientConfig struct {
	// BaseURL is the remote server, e.g. http://192.168.1.20:8080.
	BaseURL string `koanf:"base_url"`

	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	SocketTimeout  time.Duration `koanf:"socket_timeout"`
	HealthTimeout  time.Duration `koanf:"health_timeout"`

	EnableLogging bool `koanf:"enable_logging"`

	RetryOnConnectionFailure bool `koanf:"retry_on_connection_failure"`
	MaxRetryAttempts         int  `koanf:"max_retry_attempts"`

	BackoffInitial    time.Duration `koanf:"backoff_initial"`
	BackoffMax        time.Duration `koanf:"backoff_max"`
	BackoffMultiplier float64       `koanf:"backoff_multiplier"`

	// MaxReconnectAttempts bounds stream reconnects before an observation
	// reports disconnected. It keeps probing at BackoffMax afterwards.
	MaxReconnectAttempts int `koanf:"max_reconnect_attempts"`
}

// LifecycleConfig holds Lifecycle Manager settings.
type LifecycleConfig struct {
	// StatePath is the badger directory holding the persisted enabled flag.
	StatePath string `koanf:"state_path"`

	StartTimeout time.Duration `koanf:"start_timeout"`
	StopTimeout  time.Duration `koanf:"stop_timeout"`

	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
}

// StoreConfig selects the Repository Facade backend.
type StoreConfig struct {
	// Driver is badger or sqlite.
	Driver   string `koanf:"driver"`
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// AdminConfig holds the loopback control plane settings.
type AdminConfig struct {
	Enabled bool   `koanf:"enabled"`
	Host    string `koanf:"host"`
	Port    int    `koanf:"port"`
}

// DiscoveryConfig holds mDNS advertisement settings.
type DiscoveryConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Instance string        `koanf:"instance"`
	Service  string        `koanf:"service"`
	Domain   string        `koanf:"domain"`
	TTL      time.Duration `koanf:"ttl"`
}

// LoggingConfig mirrors logging.Config for file/env loading.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
