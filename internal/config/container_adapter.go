package config

import (
	"github.com/garyjia/escrow-portal/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Portal: container.PortalConfig{
			BaseURL:    c.Portal.BaseURL,
			APIToken:   c.Portal.APIToken,
			Timeout:    c.Portal.Timeout,
			PageSize:   c.Portal.PageSize,
			MaxPages:   c.Portal.MaxPages,
			MaxRetries: c.Portal.MaxRetries,
		},
		Cache: container.CacheConfig{
			Backend:       c.Cache.Backend,
			RedisURL:      c.Cache.RedisURL,
			TTL:           c.Cache.TTL,
			MaxEntries:    c.Cache.MaxEntries,
			SweepInterval: c.Cache.SweepInterval,
		},
		Reports: container.ReportsConfig{
			Enabled:         c.Reports.Enabled,
			Interval:        c.Reports.Interval,
			Timeout:         c.Reports.Timeout,
			IncludeArchived: c.Reports.IncludeArchived,
			Retain:          c.Reports.Retain,
		},
		Export: container.ExportConfig{
			SheetTitle: c.Export.SheetTitle,
			Currency:   c.Export.Currency,
		},
		Server: container.ServerConfig{
			Host:            c.Server.Host,
			Port:            c.Server.Port,
			ReadTimeout:     c.Server.ReadTimeout,
			WriteTimeout:    c.Server.WriteTimeout,
			ShutdownTimeout: c.Server.ShutdownTimeout,
		},
	}
}
