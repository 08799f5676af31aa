package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/escrow-portal/pkg/utils"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Portal   PortalConfig   `mapstructure:"portal"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Reports  ReportsConfig  `mapstructure:"reports"`
	Export   ExportConfig   `mapstructure:"export"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// PortalConfig holds the escrow portal backend settings
type PortalConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIToken   string        `mapstructure:"api_token"`
	Timeout    time.Duration `mapstructure:"timeout"`
	PageSize   int           `mapstructure:"page_size"`
	MaxPages   int           `mapstructure:"max_pages"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// CacheConfig holds reference cache settings
type CacheConfig struct {
	Backend       string        `mapstructure:"backend"` // memory or redis
	RedisURL      string        `mapstructure:"redis_url"`
	TTL           time.Duration `mapstructure:"ttl"`
	MaxEntries    int           `mapstructure:"max_entries"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// ReportsConfig holds scheduled report settings
type ReportsConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Interval        time.Duration `mapstructure:"interval"`
	Timeout         time.Duration `mapstructure:"timeout"`
	IncludeArchived bool          `mapstructure:"include_archived"`
	Retain          int           `mapstructure:"retain"`
}

// ExportConfig holds workbook export settings
type ExportConfig struct {
	SheetTitle string `mapstructure:"sheet_title"`
	Currency   string `mapstructure:"currency"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables. Variables
// in envFiles are loaded into the environment first; missing env files are
// skipped. An empty configPath uses defaults and environment only.
func Load(configPath string, envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := gotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.path", "data/portal.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("portal.timeout", 15*time.Second)
	v.SetDefault("portal.page_size", 100)
	v.SetDefault("portal.max_pages", 50)
	v.SetDefault("portal.max_retries", 3)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.max_entries", 64)
	v.SetDefault("cache.sweep_interval", time.Minute)

	v.SetDefault("reports.enabled", false)
	v.SetDefault("reports.interval", time.Hour)
	v.SetDefault("reports.timeout", 2*time.Minute)
	v.SetDefault("reports.include_archived", false)
	v.SetDefault("reports.retain", 500)

	v.SetDefault("export.sheet_title", "Reconciliation")
	v.SetDefault("export.currency", "USD")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds the unprefixed variables deployments already set
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string][]string{
		"portal.base_url":  {"PORTAL_BASE_URL", "BACKEND_URL"},
		"portal.api_token": {"PORTAL_API_TOKEN", "BACKEND_API_TOKEN"},
		"cache.redis_url":  {"PORTAL_CACHE_REDIS_URL", "REDIS_URL"},
		"database.path":    {"PORTAL_DATABASE_PATH", "DATABASE_PATH"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Portal.BaseURL == "" {
		return fmt.Errorf("portal.base_url is required")
	}
	if err := utils.ValidateBaseURL(c.Portal.BaseURL); err != nil {
		return fmt.Errorf("portal.base_url: %w", err)
	}

	if err := utils.ValidateOneOf("cache.backend", c.Cache.Backend, "memory", "redis"); err != nil {
		return err
	}
	if c.Cache.Backend == "redis" {
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required for the redis backend")
		}
		if err := utils.ValidateRedisURL(c.Cache.RedisURL); err != nil {
			return fmt.Errorf("cache.redis_url: %w", err)
		}
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}

	if c.Reports.Enabled && c.Reports.Interval <= 0 {
		return fmt.Errorf("reports.interval must be positive when reports are enabled")
	}

	if err := utils.ValidateOneOf("logger.format", c.Logger.Format, "json", "console"); err != nil {
		return err
	}

	return nil
}
