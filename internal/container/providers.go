package container

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/escrow-portal/internal/application/dispatcher"
	"github.com/garyjia/escrow-portal/internal/application/port"
	"github.com/garyjia/escrow-portal/internal/application/service"
	"github.com/garyjia/escrow-portal/internal/domain/event"
	"github.com/garyjia/escrow-portal/internal/domain/status"
	"github.com/garyjia/escrow-portal/internal/infrastructure/cache"
	"github.com/garyjia/escrow-portal/internal/infrastructure/export"
	"github.com/garyjia/escrow-portal/internal/infrastructure/external/portal"
	"github.com/garyjia/escrow-portal/internal/infrastructure/persistence/repository"
	"github.com/garyjia/escrow-portal/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/escrow-portal/internal/worker"
	"github.com/garyjia/escrow-portal/pkg/database"
	"github.com/garyjia/escrow-portal/pkg/utils"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
	Applied        int
}

// SqlDB returns the underlying connection pool
func (b *DatabaseBundle) SqlDB() *sql.DB {
	return b.DB.DB
}

// CacheBundle holds the reference cache and its backend-specific hooks.
// Sweeper is set for the memory backend, Pinger and Closer for redis.
type CacheBundle struct {
	Cache   port.ReferenceCache
	Sweeper worker.Sweeper
	Pinger  func(ctx context.Context) error
	Closer  func() error
}

// ProvideDatabase opens the database and applies the embedded migrations.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	applied, err := database.NewMigrator(db, logger).RunMigrations(database.Migrations())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
		Applied:        applied,
	}, nil
}

// ProvideReportRepository creates the report history repository.
func ProvideReportRepository(sqlDB *sql.DB, logger *zap.Logger) (port.ReportRepository, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return repository.NewReportRepository(sqlDB, logger), nil
}

// ProvideBackend creates the portal backend client.
func ProvideBackend(cfg *PortalConfig, logger *zap.Logger) (port.PortalBackend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("portal config is required")
	}

	client, err := portal.NewClient(portal.Config{
		BaseURL:    cfg.BaseURL,
		APIToken:   cfg.APIToken,
		Timeout:    cfg.Timeout,
		PageSize:   cfg.PageSize,
		MaxPages:   cfg.MaxPages,
		MaxRetries: cfg.MaxRetries,
	}, logger.Named("portal"))
	if err != nil {
		return nil, fmt.Errorf("failed to create portal client: %w", err)
	}
	return client, nil
}

// ProvideCache creates the reference cache for the configured backend.
func ProvideCache(cfg *CacheConfig, logger *zap.Logger) (*CacheBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cache config is required")
	}

	switch cfg.Backend {
	case CacheMemory, "":
		mem := cache.NewMemoryCache(cfg.MaxEntries, cfg.TTL)
		return &CacheBundle{Cache: mem, Sweeper: mem}, nil
	case CacheRedis:
		rc, err := cache.NewRedisCache(cfg.RedisURL, cfg.TTL, logger.Named("cache"))
		if err != nil {
			return nil, err
		}
		return &CacheBundle{Cache: rc, Pinger: rc.Ping, Closer: rc.Close}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (*dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return dispatcher.New(dispatcher.WithLogger(utils.NewLoggerAdapter(logger.Named("events")))), nil
}

// ServiceDeps contains dependencies for creating services.
type ServiceDeps struct {
	Backend    port.PortalBackend
	Cache      port.ReferenceCache
	Reports    port.ReportRepository
	TxManager  port.TransactionManager
	Dispatcher *dispatcher.Dispatcher
	Retain     int
	Logger     *zap.Logger
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Dashboard      service.DashboardService
	Reconciliation service.ReconciliationService
	Directory      service.DirectoryService
	Reports        service.ReportService
	Guard          service.GuardService
}

// ProvideServices creates all application services.
// Directory invalidations are subscribed so the list is re-warmed.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Backend == nil {
		return nil, fmt.Errorf("portal backend is required")
	}
	if deps.Cache == nil {
		return nil, fmt.Errorf("reference cache is required")
	}
	if deps.Reports == nil || deps.TxManager == nil {
		return nil, fmt.Errorf("report repository and transaction manager are required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}

	logger := utils.NewLoggerAdapter(deps.Logger)
	normalizer := status.NewNormalizer()
	dashboard := service.NewDashboardService(normalizer)
	directory := service.NewDirectoryService(deps.Backend, deps.Cache, deps.Dispatcher, logger)

	deps.Dispatcher.Subscribe(event.TypeReferenceInvalidated, "directory.rewarm", directory.HandleInvalidated)

	return &ServiceBundle{
		Dashboard:      dashboard,
		Reconciliation: service.NewReconciliationService(deps.Backend, dashboard, deps.Dispatcher, logger),
		Directory:      directory,
		Reports:        service.NewReportService(deps.Reports, deps.TxManager, deps.Dispatcher, deps.Retain, logger),
		Guard:          service.NewGuardService(deps.Backend, normalizer, logger),
	}, nil
}

// ProvideExporter creates the workbook exporter.
func ProvideExporter(cfg *ExportConfig, logger *zap.Logger) *export.WorkbookWriter {
	return export.NewWorkbookWriter(export.Options{
		SheetTitle: cfg.SheetTitle,
		Currency:   cfg.Currency,
	}, logger.Named("export"))
}

// WorkerDeps contains dependencies for creating workers.
type WorkerDeps struct {
	Services  *ServiceBundle
	Cache     *CacheBundle
	ReportCfg *ReportsConfig
	CacheCfg  *CacheConfig
	Logger    *zap.Logger
}

// ProvideWorkers creates the background workers. The report recorder runs
// only when scheduled reports are enabled; the janitor only for caches
// that need sweeping.
func ProvideWorkers(deps *WorkerDeps) (*worker.Manager, error) {
	if deps == nil || deps.Services == nil {
		return nil, fmt.Errorf("worker dependencies are required")
	}

	manager := worker.NewManager(deps.Logger)

	if deps.ReportCfg != nil && deps.ReportCfg.Enabled {
		manager.Register(worker.NewReportRecorder(
			deps.Services.Reconciliation,
			deps.Services.Reports,
			service.ViewOptions{IncludeArchived: deps.ReportCfg.IncludeArchived},
			deps.ReportCfg.Interval,
			deps.ReportCfg.Timeout,
			deps.Logger.Named("reports"),
		))
	}

	if deps.Cache != nil && deps.Cache.Sweeper != nil && deps.CacheCfg != nil && deps.CacheCfg.SweepInterval > 0 {
		manager.Register(worker.NewCacheJanitor(deps.Cache.Sweeper, deps.CacheCfg.SweepInterval, deps.Logger.Named("cache")))
	}

	return manager, nil
}
