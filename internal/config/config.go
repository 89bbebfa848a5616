// Package config provides server configuration loaded from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const logPrefix = "config:LoadConfig"

// Config holds methodbus server configuration.
type Config struct {
	// NATS transport
	NATSURL  string `envconfig:"NATS_URL" default:"nats://127.0.0.1:4222"`
	NATSName string `envconfig:"SERVICE_NAME" default:"methodbus"`

	// Subject layout
	SubjectPrefix      string `envconfig:"METHODBUS_SUBJECT_PREFIX" default:"methodbus"`
	QueueGroup         string `envconfig:"METHODBUS_QUEUE_GROUP" default:"methodbus"`
	ChangeEventSubject string `envconfig:"METHODBUS_CHANGE_EVENT_SUBJECT"`

	// Timeouts
	RequestTimeout time.Duration `envconfig:"METHODBUS_REQUEST_TIMEOUT" default:"25s"`

	// Manifest
	ManifestFile string `envconfig:"METHODBUS_MANIFEST_FILE"`

	// Audit database (empty = audit disabled)
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"false"`

	// HTTP transport (METHODBUS_HTTP_ADDR preferred, e.g. "0.0.0.0:8080")
	HTTPAddr string `envconfig:"METHODBUS_HTTP_ADDR"`
	HTTPPort int    `envconfig:"HTTP_PORT" default:"8080"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListenAddr returns the HTTP listen address, preferring HTTPAddr over
// the bare port.
func (c *Config) ListenAddr() string {
	if c.HTTPAddr != "" {
		return c.HTTPAddr
	}
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// AuditEnabled reports whether invocation auditing is configured.
func (c *Config) AuditEnabled() bool {
	return c.DatabaseURL != ""
}

// ValidateForServe checks required config when running the bus server.
func (c *Config) ValidateForServe() error {
	if c.NATSURL == "" {
		return fmt.Errorf("%s - NATS_URL is required for serve", logPrefix)
	}
	if c.SubjectPrefix == "" {
		return fmt.Errorf("%s - METHODBUS_SUBJECT_PREFIX must not be empty", logPrefix)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s - METHODBUS_REQUEST_TIMEOUT must be positive", logPrefix)
	}
	return nil
}

// ValidateForDB checks required config when running DB-dependent commands (migrate).
func (c *Config) ValidateForDB() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s - DATABASE_URL is required", logPrefix)
	}
	return nil
}
