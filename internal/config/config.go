// Package config provides centralized configuration management for the importer.
// Settings come from environment variables with defaults and are validated on
// startup so a misconfigured run fails before any row is read.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout covers the whole import run for a synchronous request (default: 10m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"10m"`

	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for running imports on shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds sink connection settings.
type DatabaseConfig struct {
	// Driver selects the sink: "postgres" (pgx pool), "pq" (lib/pq) or
	// "sqlite3" (default: postgres)
	Driver string `env:"DATABASE_DRIVER" default:"postgres"`

	// URL is the connection string or sqlite file path (required).
	// Supports both DATABASE_URL and DB_URL env vars.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	MaxConns int `env:"DATABASE_MAX_CONNS" default:"4"`
	MinConns int `env:"DATABASE_MIN_CONNS" default:"1"`

	MaxConnLifetime time.Duration `env:"DATABASE_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DATABASE_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ImportConfig holds import run settings.
type ImportConfig struct {
	// MaxFileSize caps uploaded request bodies in bytes (default: 100MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"104857600"`

	// MaxConcurrent is the number of runs allowed against one sink (default: 1)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"1"`

	// MaxWait is how long a request waits for a free run slot (default: 30s)
	MaxWait time.Duration `env:"IMPORT_MAX_WAIT" default:"30s"`

	// Timeout wraps a whole run; rows are not cancelled individually (default: 10m)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"10m"`

	DefaultFormat string `env:"IMPORT_DEFAULT_FORMAT" default:"csv"`
	DefaultTarget string `env:"IMPORT_DEFAULT_TARGET" default:"product"`

	// Groups are the validation groups used when a caller names none (default: import)
	Groups []string `env:"IMPORT_GROUPS" default:"import"`

	// TimeZone is used for timestamps without an explicit offset (default: UTC)
	TimeZone string `env:"IMPORT_TIME_ZONE" default:"UTC"`
}

// SecurityConfig holds HTTP access settings.
type SecurityConfig struct {
	// RequireAPIKey enables X-API-Key checks on /api routes (default: false)
	RequireAPIKey bool `env:"SECURITY_REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys.
	APIKeys []string `env:"SECURITY_API_KEYS"`

	// TrustedProxies lists CIDRs whose X-Real-IP and X-Forwarded-For headers are honored.
	TrustedProxies []string `env:"SECURITY_TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: json)
	Format string `env:"LOG_FORMAT" default:"json"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// Location resolves TimeZone, falling back to UTC for an empty name.
func (c *ImportConfig) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.TimeZone)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
