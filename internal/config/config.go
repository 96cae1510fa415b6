// Package config provides centralized configuration management for the importer.
// Process settings are loaded from environment variables with sensible defaults and
// validated on startup to fail fast on misconfiguration. Per-import settings
// (connection, remote paths, file patterns, CSV dialect) are resolved at run time
// through a Scoped provider.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all process configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Import   ImportConfig
	Archive  ArchiveConfig
}

// ServerConfig holds settings for the read-only HTTP endpoints (health, metrics, run logs).
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// TrustedProxies lists CIDRs whose X-Real-IP / X-Forwarded-For headers are
	// honored (default: none)
	TrustedProxies []string `env:"SERVER_TRUSTED_PROXIES"`

	// APIKeys, when set, are required in the X-API-Key header on /api routes
	APIKeys []string `env:"SERVER_API_KEYS"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// ImportConfig holds settings shared by every import run.
type ImportConfig struct {
	// VarDir is the application var directory; files are staged under
	// <VarDir>/logistic/<kind code>/ (default: var)
	VarDir string `env:"IMPORT_VAR_DIR" default:"var"`

	// Kinds restricts which registered import kinds are run (default: all)
	Kinds []string `env:"IMPORT_KINDS"`

	// KindsFile is an optional YAML file declaring additional import kinds
	KindsFile string `env:"IMPORT_KINDS_FILE"`

	// Interval between scheduled runs; 0 runs every kind once and exits (default: 0s)
	Interval time.Duration `env:"IMPORT_INTERVAL" default:"0s"`

	// ConnectTimeout bounds opening the remote session (default: 30s)
	ConnectTimeout time.Duration `env:"IMPORT_CONNECT_TIMEOUT" default:"30s"`

	// DownloadTimeout bounds each individual file download (default: 5m)
	DownloadTimeout time.Duration `env:"IMPORT_DOWNLOAD_TIMEOUT" default:"5m"`
}

// ArchiveConfig holds settings for copying imported files to object storage.
type ArchiveConfig struct {
	// Enabled turns archiving on (default: false)
	Enabled bool `env:"ARCHIVE_ENABLED" default:"false"`

	// Endpoint is the MinIO/S3 endpoint, host:port or URL
	Endpoint string `env:"ARCHIVE_ENDPOINT"`

	// AccessKeyID for the object store
	AccessKeyID string `env:"ARCHIVE_ACCESS_KEY_ID"`

	// SecretAccessKey for the object store
	SecretAccessKey string `env:"ARCHIVE_SECRET_ACCESS_KEY"`

	// Bucket receives archived files (default: logistic-archive)
	Bucket string `env:"ARCHIVE_BUCKET" default:"logistic-archive"`

	// Region of the bucket (default: us-east-1)
	Region string `env:"ARCHIVE_REGION" default:"us-east-1"`

	// UseSSL enables TLS to the endpoint (default: true)
	UseSSL bool `env:"ARCHIVE_USE_SSL" default:"true"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
