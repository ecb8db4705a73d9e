// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"liftsync.yaml",
	"liftsync.yml",
	"/etc/liftsync/config.yaml",
	"/etc/liftsync/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultServerPort is the well-known Sync Server port.
const DefaultServerPort = 8080

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              DefaultServerPort,
			ShutdownTimeout:   10 * time.Second,
			PingPeriod:        15 * time.Second,
			PongWait:          40 * time.Second,
			WriteWait:         10 * time.Second,
			MaxMessageSize:    512 * 1024,
			PushRate:          20,
			PushBurst:         5,
			CORSOrigins:       []string{},
			RateLimitReqs:     600,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Client: ClientConfig{
			BaseURL:                  fmt.Sprintf("http://127.0.0.1:%d", DefaultServerPort),
			ConnectTimeout:           30 * time.Second,
			RequestTimeout:           15 * time.Second,
			SocketTimeout:            15 * time.Second,
			HealthTimeout:            3 * time.Second,
			EnableLogging:            false,
			RetryOnConnectionFailure: true,
			MaxRetryAttempts:         3,
			BackoffInitial:           500 * time.Millisecond,
			BackoffMax:               30 * time.Second,
			BackoffMultiplier:        2.0,
			MaxReconnectAttempts:     8,
		},
		Lifecycle: LifecycleConfig{
			StatePath:        "/data/liftsync/state",
			StartTimeout:     10 * time.Second,
			StopTimeout:      10 * time.Second,
			FailureThreshold: 5,
			FailureBackoff:   15 * time.Second,
		},
		Store: StoreConfig{
			Driver: "badger",
			Path:   "/data/liftsync/store",
		},
		Admin: AdminConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8079,
		},
		Discovery: DiscoveryConfig{
			Enabled:  false,
			Instance: "liftsync",
			Service:  "_liftsync._tcp",
			Domain:   "local.",
			TTL:      2 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Default returns the built-in configuration without reading files or env.
func Default() *Config {
	return defaultConfig()
}

// Load reads configuration from defaults, the first config file found and
// the environment, in increasing priority.
func Load() (*Config, error) {
	return LoadFile(FindConfigFile())
}

// LoadFile is Load with an explicit file path. An empty path skips the file layer.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// SERVER_PORT -> server.port, LOG_LEVEL -> logging.level, ...
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// FindConfigFile returns CONFIG_PATH if it exists, else the first existing
// default path, else "".
func FindConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		s, ok := val.(string)
		if !ok {
			continue
		}

		parts := []string{}
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	// Sync Server
	"server_host":             "server.host",
	"server_port":             "server.port",
	"server_shutdown_timeout": "server.shutdown_timeout",
	"server_ping_period":      "server.ping_period",
	"server_pong_wait":        "server.pong_wait",
	"server_write_wait":       "server.write_wait",
	"server_max_message_size": "server.max_message_size",
	"server_push_rate":        "server.push_rate",
	"server_push_burst":       "server.push_burst",
	"cors_origins":            "server.cors_origins",
	"rate_limit_reqs":         "server.rate_limit_reqs",
	"rate_limit_window":       "server.rate_limit_window",
	"disable_rate_limit":      "server.rate_limit_disabled",

	// Sync Client
	"client_base_url":           "client.base_url",
	"client_connect_timeout":    "client.connect_timeout",
	"client_request_timeout":    "client.request_timeout",
	"client_socket_timeout":     "client.socket_timeout",
	"client_health_timeout":     "client.health_timeout",
	"client_enable_logging":     "client.enable_logging",
	"client_retry":              "client.retry_on_connection_failure",
	"client_max_retry_attempts": "client.max_retry_attempts",
	"client_backoff_initial":    "client.backoff_initial",
	"client_backoff_max":        "client.backoff_max",
	"client_backoff_multiplier": "client.backoff_multiplier",
	"client_max_reconnects":     "client.max_reconnect_attempts",

	// Lifecycle Manager and supervision
	"lifecycle_state_path":         "lifecycle.state_path",
	"lifecycle_start_timeout":      "lifecycle.start_timeout",
	"lifecycle_stop_timeout":       "lifecycle.stop_timeout",
	"supervisor_failure_threshold": "lifecycle.failure_threshold",
	"supervisor_failure_backoff":   "lifecycle.failure_backoff",

	// Store, control plane, discovery
	"store_driver":       "store.driver",
	"store_path":         "store.path",
	"store_in_memory":    "store.in_memory",
	"admin_enabled":      "admin.enabled",
	"admin_host":         "admin.host",
	"admin_port":         "admin.port",
	"discovery_enabled":  "discovery.enabled",
	"discovery_instance": "discovery.instance",
	"discovery_service":  "discovery.service",
	"discovery_domain":   "discovery.domain",
	"discovery_ttl":      "discovery.ttl",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps known environment variables to koanf paths and drops
// everything else so unrelated variables never leak into the config.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

// WatchConfigFile calls callback whenever the file at path changes.
// Callers reload with LoadFile and guard their own config pointer.
func WatchConfigFile(path string, callback func()) error {
	return file.Provider(path).Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
