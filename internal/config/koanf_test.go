// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != DefaultServerPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultServerPort)
	}
	if cfg.Server.PingPeriod != 15*time.Second {
		t.Errorf("Server.PingPeriod = %v, want 15s", cfg.Server.PingPeriod)
	}
	if cfg.Client.ConnectTimeout != 30*time.Second {
		t.Errorf("Client.ConnectTimeout = %v, want 30s", cfg.Client.ConnectTimeout)
	}
	if cfg.Client.RequestTimeout != 15*time.Second || cfg.Client.SocketTimeout != 15*time.Second {
		t.Errorf("Client request/socket timeouts = %v/%v, want 15s", cfg.Client.RequestTimeout, cfg.Client.SocketTimeout)
	}
	if cfg.Client.EnableLogging {
		t.Error("Client.EnableLogging should be false by default")
	}
	if !cfg.Client.RetryOnConnectionFailure {
		t.Error("Client.RetryOnConnectionFailure should be true by default")
	}
	if cfg.Client.MaxRetryAttempts != 3 {
		t.Errorf("Client.MaxRetryAttempts = %d, want 3", cfg.Client.MaxRetryAttempts)
	}
	if cfg.Store.Driver != "badger" {
		t.Errorf("Store.Driver = %q, want badger", cfg.Store.Driver)
	}
	if cfg.Discovery.Enabled {
		t.Error("Discovery.Enabled should be false by default")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want info/json", cfg.Logging)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"SERVER_PORT", "server.port"},
		{"SERVER_PUSH_RATE", "server.push_rate"},
		{"CORS_ORIGINS", "server.cors_origins"},
		{"DISABLE_RATE_LIMIT", "server.rate_limit_disabled"},

		{"CLIENT_BASE_URL", "client.base_url"},
		{"CLIENT_RETRY", "client.retry_on_connection_failure"},
		{"CLIENT_MAX_RECONNECTS", "client.max_reconnect_attempts"},

		{"LIFECYCLE_STATE_PATH", "lifecycle.state_path"},
		{"SUPERVISOR_FAILURE_BACKOFF", "lifecycle.failure_backoff"},

		{"STORE_DRIVER", "store.driver"},
		{"ADMIN_PORT", "admin.port"},
		{"DISCOVERY_ENABLED", "discovery.enabled"},

		{"LOG_LEVEL", "logging.level"},
		{"log_format", "logging.format"},

		// Unknown (should return empty)
		{"RANDOM_VAR", ""},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := envTransformFunc(tt.input)
			if result != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestFindConfigFile verifies config file discovery
func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	t.Run("no config file exists", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "")
		if got := FindConfigFile(); got != "" {
			t.Errorf("FindConfigFile() = %q, want empty string", got)
		}
	})

	t.Run("liftsync.yaml exists", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "")
		if err := os.WriteFile("liftsync.yaml", []byte("server: {}\n"), 0o600); err != nil {
			t.Fatalf("Failed to create config file: %v", err)
		}
		defer os.Remove("liftsync.yaml")

		if got := FindConfigFile(); got != "liftsync.yaml" {
			t.Errorf("FindConfigFile() = %q, want liftsync.yaml", got)
		}
	})

	t.Run("CONFIG_PATH takes precedence", func(t *testing.T) {
		custom := filepath.Join(tmpDir, "custom.yaml")
		if err := os.WriteFile(custom, []byte("server: {}\n"), 0o600); err != nil {
			t.Fatalf("Failed to create config file: %v", err)
		}
		t.Setenv(ConfigPathEnvVar, custom)

		if got := FindConfigFile(); got != custom {
			t.Errorf("FindConfigFile() = %q, want %q", got, custom)
		}
	})

	t.Run("CONFIG_PATH with non-existent file", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "/non/existent/liftsync.yaml")
		if got := FindConfigFile(); got != "" {
			t.Errorf("FindConfigFile() = %q, want empty string", got)
		}
	})
}

func TestLoadFile_EnvVars(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CLIENT_REQUEST_TIMEOUT", "5s")
	t.Setenv("CLIENT_BACKOFF_MULTIPLIER", "1.5")
	t.Setenv("STORE_IN_MEMORY", "true")
	t.Setenv("CORS_ORIGINS", "http://a.local, http://b.local,")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Client.RequestTimeout != 5*time.Second {
		t.Errorf("Client.RequestTimeout = %v, want 5s", cfg.Client.RequestTimeout)
	}
	if cfg.Client.BackoffMultiplier != 1.5 {
		t.Errorf("Client.BackoffMultiplier = %v, want 1.5", cfg.Client.BackoffMultiplier)
	}
	if !cfg.Store.InMemory {
		t.Error("Store.InMemory should be true")
	}
	if got := strings.Join(cfg.Server.CORSOrigins, "|"); got != "http://a.local|http://b.local" {
		t.Errorf("Server.CORSOrigins = %q", got)
	}

	// Defaults survive for unset values
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 (default)", cfg.Server.Host)
	}
}

func TestLoadFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "liftsync.yaml")
	content := `
server:
  port: 7000
  push_rate: 5
client:
  base_url: http://192.168.1.20:7000
  max_retry_attempts: 5
store:
  driver: sqlite
  path: /tmp/liftsync.db
discovery:
  enabled: true
  ttl: 30s
logging:
  format: console
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 7000 || cfg.Server.PushRate != 5 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Client.BaseURL != "http://192.168.1.20:7000" || cfg.Client.MaxRetryAttempts != 5 {
		t.Errorf("Client = %+v", cfg.Client)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.Path != "/tmp/liftsync.db" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if !cfg.Discovery.Enabled || cfg.Discovery.TTL != 30*time.Second {
		t.Errorf("Discovery = %+v", cfg.Discovery)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Logging.Format = %q, want console", cfg.Logging.Format)
	}
	// Not in the file, so the default remains
	if cfg.Client.ConnectTimeout != 30*time.Second {
		t.Errorf("Client.ConnectTimeout = %v, want 30s", cfg.Client.ConnectTimeout)
	}
}

func TestLoadFile_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "liftsync.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 7000\n"), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv("SERVER_PORT", "7100")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Server.Port != 7100 {
		t.Errorf("Server.Port = %d, want 7100", cfg.Server.Port)
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"port zero allowed", func(c *Config) { c.Server.Port = 0 }, ""},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "SERVER_PORT"},
		{"pong shorter than ping", func(c *Config) { c.Server.PongWait = time.Second }, "SERVER_PONG_WAIT"},
		{"push burst zero", func(c *Config) { c.Server.PushBurst = 0 }, "SERVER_PUSH_RATE"},
		{"rate limit disabled skips check", func(c *Config) {
			c.Server.RateLimitDisabled = true
			c.Server.RateLimitReqs = 0
		}, ""},
		{"bad base url", func(c *Config) { c.Client.BaseURL = "ftp://host" }, "CLIENT_BASE_URL"},
		{"no retry attempts", func(c *Config) { c.Client.MaxRetryAttempts = 0 }, "CLIENT_MAX_RETRY_ATTEMPTS"},
		{"multiplier below one", func(c *Config) { c.Client.BackoffMultiplier = 0.5 }, "CLIENT_BACKOFF_MULTIPLIER"},
		{"backoff max below initial", func(c *Config) { c.Client.BackoffMax = time.Millisecond }, "backoff"},
		{"empty state path", func(c *Config) { c.Lifecycle.StatePath = "" }, "LIFECYCLE_STATE_PATH"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "postgres" }, "STORE_DRIVER"},
		{"in-memory without path", func(c *Config) {
			c.Store.Path = ""
			c.Store.InMemory = true
		}, ""},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
