// Package config provides centralized configuration management for the server.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Session  SessionConfig
	Access   AccessConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Locale   LocaleConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds each request, resource calls included (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`
}

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StoreConfig selects and tunes the record backend.
type StoreConfig struct {
	// Driver is memory, sqlite or postgres (default: memory)
	Driver string `env:"STORE_DRIVER" default:"memory"`

	// URL is the PostgreSQL connection string or the SQLite file path.
	// Supports both DATABASE_URL and DB_URL env vars.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns / MinConns size the Postgres pool.
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// AutoMigrate applies pending migrations on open (default: true)
	AutoMigrate bool `env:"STORE_AUTO_MIGRATE" default:"true"`

	// Seed loads demo records into empty tables (default: false)
	Seed bool `env:"STORE_SEED" default:"false"`
}

// SessionConfig controls per-browser table state.
type SessionConfig struct {
	CookieName string `env:"SESSION_COOKIE" default:"crudtables_session"`

	// IdleTimeout expires sessions without requests (default: 30m)
	IdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" default:"30m"`

	// JanitorInterval is how often expired sessions are swept (default: 5m)
	JanitorInterval time.Duration `env:"SESSION_JANITOR_INTERVAL" default:"5m"`

	// Secure marks the cookie HTTPS-only (default: false)
	Secure bool `env:"SESSION_SECURE" default:"false"`
}

// AccessConfig holds the capability grants.
type AccessConfig struct {
	// Granted is the capability set of anonymous requests (default: create,update,delete)
	Granted []string `env:"ACCESS_GRANTED" default:"create,update,delete"`

	// KeyGrants maps API keys to capabilities: "key=create|update, other=update".
	// A request authenticated with a listed key gets that key's set.
	KeyGrants []string `env:"ACCESS_KEY_GRANTS"`
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the limit per client IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey rejects requests without a valid X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// LocaleConfig holds locale settings.
type LocaleConfig struct {
	// Language is the BCP 47 tag used to collate string columns (default: en)
	Language string `env:"LOCALE_LANGUAGE" default:"en"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
