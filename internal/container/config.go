// Package container provides dependency injection and lifecycle management
// for the escrow portal reconciliation server.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Portal backend configuration
	Portal PortalConfig

	// Reference cache configuration
	Cache CacheConfig

	// Scheduled report configuration
	Reports ReportsConfig

	// Workbook export configuration
	Export ExportConfig

	// Server configuration
	Server ServerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file, or ":memory:"
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration
}

// PortalConfig holds backend client settings.
type PortalConfig struct {
	// BaseURL of the portal backend
	BaseURL string

	// APIToken is sent as a bearer token
	APIToken string

	// Timeout for one backend request
	Timeout time.Duration

	// PageSize requested per list page; 0 uses the backend default
	PageSize int

	// MaxPages bounds pagination per list call
	MaxPages int

	// MaxRetries for unavailable-backend failures
	MaxRetries int
}

// CacheConfig holds reference cache settings.
type CacheConfig struct {
	// Backend is "memory" or "redis"
	Backend string

	// RedisURL is required for the redis backend
	RedisURL string

	// TTL is how long an entry stays fresh
	TTL time.Duration

	// MaxEntries bounds the memory backend
	MaxEntries int

	// SweepInterval for expired memory entries
	SweepInterval time.Duration
}

// ReportsConfig holds scheduled report settings.
type ReportsConfig struct {
	Enabled         bool
	Interval        time.Duration
	Timeout         time.Duration
	IncludeArchived bool

	// Retain is the number of reports kept; 0 keeps all
	Retain int
}

// ExportConfig holds workbook export settings.
type ExportConfig struct {
	SheetTitle string
	Currency   string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind to
	Host string

	// Port to listen on
	Port int

	// ReadTimeout for HTTP server
	ReadTimeout time.Duration

	// WriteTimeout for HTTP server
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
// Portal.BaseURL has no default and must be set.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/portal.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Portal: PortalConfig{
			Timeout:    15 * time.Second,
			PageSize:   100,
			MaxPages:   50,
			MaxRetries: 3,
		},
		Cache: CacheConfig{
			Backend:       CacheMemory,
			TTL:           5 * time.Minute,
			MaxEntries:    64,
			SweepInterval: time.Minute,
		},
		Reports: ReportsConfig{
			Interval: time.Hour,
			Timeout:  2 * time.Minute,
			Retain:   500,
		},
		Export: ExportConfig{
			SheetTitle: "Reconciliation",
			Currency:   "USD",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Cache backends
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Portal.BaseURL == "" {
		return fmt.Errorf("portal.base_url is required")
	}

	switch c.Cache.Backend {
	case CacheMemory:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}

	if c.Reports.Enabled && c.Reports.Interval <= 0 {
		return fmt.Errorf("reports.interval must be positive when reports are enabled")
	}

	return nil
}
