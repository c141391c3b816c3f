// Package config defines the runtime configuration: logging, metrics and
// health endpoints, NATS connectivity, and scheduler tuning. Configuration
// loads from a JSON file with environment variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/TTCRadio/gnuradio/errors"
)

// Config is the complete runtime configuration.
type Config struct {
	Version   string          `json:"version,omitempty"`
	Logging   LoggingConfig   `json:"logging,omitempty"`
	Metrics   MetricsConfig   `json:"metrics,omitempty"`
	Health    HealthConfig    `json:"health,omitempty"`
	NATS      NATSConfig      `json:"nats,omitempty"`
	Scheduler SchedulerConfig `json:"scheduler,omitempty"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level  string `json:"level,omitempty"`  // "debug", "info", "warn", "error"
	Format string `json:"format,omitempty"` // "text", "json"
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port,omitempty"`
	Path    string `json:"path,omitempty"`
}

// HealthConfig controls the health endpoint.
type HealthConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port,omitempty"`
	Path    string `json:"path,omitempty"`
}

// NATSConfig defines the message-bridge connection settings.
type NATSConfig struct {
	URLs          []string      `json:"urls,omitempty"`
	MaxReconnects int           `json:"max_reconnects,omitempty"`
	ReconnectWait time.Duration `json:"reconnect_wait,omitempty"`
	Username      string        `json:"username,omitempty"`
	Password      string        `json:"password,omitempty"`
	Token         string        `json:"token,omitempty"`
}

// SchedulerConfig tunes graph execution.
type SchedulerConfig struct {
	DefaultBufferItems int           `json:"default_buffer_items,omitempty"`
	MaxCascade         int           `json:"max_cascade,omitempty"`
	BackoffInitial     time.Duration `json:"backoff_initial,omitempty"`
	BackoffMax         time.Duration `json:"backoff_max,omitempty"`
}

// Default returns the configuration used when no file or overrides are
// present.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Enabled: false, Port: 9090, Path: "/metrics"},
		Health:  HealthConfig{Enabled: false, Port: 8081, Path: "/healthz"},
	}
}

// Load reads the configuration file at path (optional, "" skips it), applies
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapConstruction(err, "config", "Load", "file read")
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapConstruction(err, "config", "Load", "file parsing")
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values are usable.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.WrapConstruction(
			fmt.Errorf("log level %q: %w", c.Logging.Level, errors.ErrInvalidConfig),
			"Config", "Validate", "logging validation")
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return errors.WrapConstruction(
			fmt.Errorf("log format %q: %w", c.Logging.Format, errors.ErrInvalidConfig),
			"Config", "Validate", "logging validation")
	}

	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return errors.WrapConstruction(
			fmt.Errorf("metrics port %d: %w", c.Metrics.Port, errors.ErrInvalidConfig),
			"Config", "Validate", "metrics validation")
	}
	if c.Health.Enabled && (c.Health.Port <= 0 || c.Health.Port > 65535) {
		return errors.WrapConstruction(
			fmt.Errorf("health port %d: %w", c.Health.Port, errors.ErrInvalidConfig),
			"Config", "Validate", "health validation")
	}

	if c.Scheduler.DefaultBufferItems < 0 || c.Scheduler.MaxCascade < 0 {
		return errors.WrapConstruction(
			fmt.Errorf("scheduler tuning: %w", errors.ErrInvalidConfig),
			"Config", "Validate", "scheduler validation")
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}

	data, err := json.Marshal(c)
	if err != nil {
		copied := *c
		return &copied
	}
	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		copied := *c
		return &copied
	}
	return &clone
}
