package config

import (
	"time"

	redisclient "notesync/internal/infra/redis"
	"notesync/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Remote   RemoteConfig       `yaml:"remote"`
	Monitor  MonitorConfig      `yaml:"monitor"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Database postgres.Config    `yaml:"database"`
}

// ServerConfig holds health/metrics HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// RemoteConfig holds settings for the remote notes API.
type RemoteConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Token      string        `yaml:"token"`
	Timeout    time.Duration `yaml:"timeout"`     // per-attempt timeout
	MaxRetries int           `yaml:"max_retries"` // total attempts, including the first
	BaseDelay  time.Duration `yaml:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
}

// MonitorConfig holds availability probe settings.
type MonitorConfig struct {
	Interval time.Duration `yaml:"interval"`
	Warmup   time.Duration `yaml:"warmup"`
}
