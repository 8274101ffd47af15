// Package config provides centralized configuration management for the
// importer. It loads configuration from environment variables with sensible
// defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Database DatabaseConfig
	Import   ImportConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ImportConfig holds file import processing settings.
type ImportConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 100MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"104857600"`

	// ChunkSize is the number of accepted rows flushed per database batch (default: 100)
	ChunkSize int `env:"IMPORT_CHUNK_SIZE" default:"100"`

	// MaxConcurrent is the maximum number of files imported in parallel (default: 4)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"4"`

	// MaxErrorsInline caps how many row errors an import result reports inline (default: 10)
	MaxErrorsInline int `env:"IMPORT_MAX_ERRORS_INLINE" default:"10"`

	// Timeout is the maximum duration for a single file import (default: 10m)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"10m"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// String renders the configuration for startup logging. The database URL
// is masked; it may carry credentials.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Database:{URL:MASKED MaxConns:%d MinConns:%d} Import:{MaxFileSize:%d ChunkSize:%d MaxConcurrent:%d MaxErrorsInline:%d Timeout:%s} Logging:{Level:%s Format:%s}}",
		c.Database.MaxConns, c.Database.MinConns,
		c.Import.MaxFileSize, c.Import.ChunkSize, c.Import.MaxConcurrent,
		c.Import.MaxErrorsInline, c.Import.Timeout,
		c.Logging.Level, c.Logging.Format)
}
