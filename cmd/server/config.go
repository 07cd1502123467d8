// Package main provides the SlateDeck server CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Warehouse WarehouseConfig `yaml:"warehouse"`
	Checker   CheckerConfig   `yaml:"checker"`
	Events    EventsConfig    `yaml:"events"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Verbose   bool            `yaml:"-"` // set via CLI flag
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	Address      string    `yaml:"address"`       // HTTP listen address (default: :8080)
	ServiceToken string    `yaml:"service_token"` // Static bearer token; empty disables auth
	TLS          TLSConfig `yaml:"tls"`
}

// TLSConfig contains TLS settings for the HTTP server.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// DatabaseConfig contains metadata store settings.
type DatabaseConfig struct {
	Path string `yaml:"path"` // SQLite database path
}

// WarehouseConfig contains the ClickHouse query warehouse settings.
type WarehouseConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addresses    []string      `yaml:"addresses"`
	Database     string        `yaml:"database"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	Compression  bool          `yaml:"compression"`
}

// CheckerConfig contains alert checker settings.
type CheckerConfig struct {
	Concurrency          int           `yaml:"concurrency"`
	WebhookTimeout       time.Duration `yaml:"webhook_timeout"`
	WebhookRatePerSecond float64       `yaml:"webhook_rate_per_second"`
}

// EventsConfig contains the optional Kafka trigger event stream.
type EventsConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// MetricsConfig contains the Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"` // default :9090
}

// LoggingConfig contains log settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/slatedeck.db"
	}
	if c.Warehouse.QueryTimeout == 0 {
		c.Warehouse.QueryTimeout = 30 * time.Second
	}
	if c.Checker.Concurrency == 0 {
		c.Checker.Concurrency = 1
	}
	if c.Checker.WebhookTimeout == 0 {
		c.Checker.WebhookTimeout = 15 * time.Second
	}
	if c.Events.Topic == "" {
		c.Events.Topic = "slatedeck.alert-triggers"
	}
	if c.Events.WriteTimeout == 0 {
		c.Events.WriteTimeout = 10 * time.Second
	}
	if c.Metrics.Address == "" {
		c.Metrics.Address = ":9090"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertFile == "" {
			return fmt.Errorf("server.tls.cert_file is required when TLS is enabled")
		}
		if c.Server.TLS.KeyFile == "" {
			return fmt.Errorf("server.tls.key_file is required when TLS is enabled")
		}
	}
	if c.Warehouse.Enabled && len(c.Warehouse.Addresses) == 0 {
		return fmt.Errorf("warehouse.addresses is required when the warehouse is enabled")
	}
	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return fmt.Errorf("events.brokers is required when the event stream is enabled")
	}
	if c.Checker.Concurrency < 0 {
		return fmt.Errorf("checker.concurrency must not be negative")
	}
	if c.Checker.WebhookRatePerSecond < 0 {
		return fmt.Errorf("checker.webhook_rate_per_second must not be negative")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	return nil
}
