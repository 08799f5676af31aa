package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/escrow-portal/internal/application/dispatcher"
	"github.com/garyjia/escrow-portal/internal/application/port"
	"github.com/garyjia/escrow-portal/internal/infrastructure/export"
	httpapi "github.com/garyjia/escrow-portal/internal/interfaces/http"
	"github.com/garyjia/escrow-portal/internal/worker"
	"github.com/garyjia/escrow-portal/pkg/database"
	"github.com/garyjia/escrow-portal/pkg/utils"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	db      *DatabaseBundle
	reports port.ReportRepository

	// Infrastructure - External
	backend port.PortalBackend
	cache   *CacheBundle

	// Application
	dispatcher *dispatcher.Dispatcher
	services   *ServiceBundle
	exporter   *export.WorkbookWriter

	// Workers
	workers *worker.Manager

	// Lifecycle
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components and begins processing.
// Components are initialized in dependency order:
// 1. Database, migrations and the report repository
// 2. Portal backend client and reference cache
// 3. Event dispatcher
// 4. Application services and exporter
// 5. Workers
//
// A failed step releases whatever the earlier steps opened.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	steps := []struct {
		name string
		fn   func() error
	}{
		{"database", c.initDatabase},
		{"external clients", c.initExternal},
		{"dispatcher", c.initDispatcher},
		{"services", c.initServices},
		{"workers", c.initWorkers},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			c.teardown()
			return fmt.Errorf("failed to initialize %s: %w", step.name, err)
		}
		c.logger.Info("Component initialized", zap.String("component", step.name))
	}

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")
	errs := c.teardown()

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// teardown releases components in reverse initialization order
func (c *Container) teardown() []error {
	var errs []error

	if c.cancel != nil {
		c.cancel()
	}

	if c.workers != nil {
		c.workers.StopAll()
		c.workers = nil
		c.logger.Info("Workers stopped")
	}

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		}
		c.dispatcher = nil
	}

	if c.cache != nil && c.cache.Closer != nil {
		if err := c.cache.Closer(); err != nil {
			c.logger.Error("Failed to close cache", zap.Error(err))
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	c.cache = nil

	if c.db != nil {
		if err := c.db.DB.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
		c.db = nil
	}

	return errs
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}
	record := func(name string, err error) {
		if err != nil {
			status.Components[name] = ComponentHealth{Healthy: false, Message: err.Error()}
			status.Overall = false
			return
		}
		status.Components[name] = ComponentHealth{Healthy: true}
	}

	if c.db != nil {
		record("database", c.db.DB.Health(ctx))
	} else {
		record("database", fmt.Errorf("not initialized"))
	}

	switch {
	case c.cache == nil:
		record("cache", fmt.Errorf("not initialized"))
	case c.cache.Pinger != nil:
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		record("cache", c.cache.Pinger(pingCtx))
		cancel()
	default:
		record("cache", nil)
	}

	if c.workers != nil {
		status.Components["workers"] = ComponentHealth{
			Healthy: true,
			Message: fmt.Sprintf("worker count: %d", c.workers.Count()),
		}
	} else {
		record("workers", fmt.Errorf("not initialized"))
	}

	return status
}

// HealthCheck reports the first unhealthy component as an error
func (c *Container) HealthCheck(ctx context.Context) error {
	status := c.Health(ctx)
	if status.Overall {
		return nil
	}
	for name, comp := range status.Components {
		if !comp.Healthy {
			return fmt.Errorf("%s: %s", name, comp.Message)
		}
	}
	return fmt.Errorf("unhealthy")
}

func (c *Container) initDatabase() error {
	bundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.db = bundle
	c.logger.Info("Migrations applied", zap.Int("count", bundle.Applied))

	reports, err := ProvideReportRepository(bundle.SqlDB(), c.logger)
	if err != nil {
		return err
	}
	c.reports = reports
	return nil
}

func (c *Container) initExternal() error {
	backend, err := ProvideBackend(&c.config.Portal, c.logger)
	if err != nil {
		return err
	}
	c.backend = backend

	cacheBundle, err := ProvideCache(&c.config.Cache, c.logger)
	if err != nil {
		return err
	}
	c.cache = cacheBundle
	return nil
}

func (c *Container) initDispatcher() error {
	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = disp
	return nil
}

func (c *Container) initServices() error {
	services, err := ProvideServices(&ServiceDeps{
		Backend:    c.backend,
		Cache:      c.cache.Cache,
		Reports:    c.reports,
		TxManager:  c.db.TransactionMgr,
		Dispatcher: c.dispatcher,
		Retain:     c.config.Reports.Retain,
		Logger:     c.logger.Named("service"),
	})
	if err != nil {
		return err
	}
	c.services = services
	c.exporter = ProvideExporter(&c.config.Export, c.logger)
	return nil
}

func (c *Container) initWorkers() error {
	workers, err := ProvideWorkers(&WorkerDeps{
		Services:  c.services,
		Cache:     c.cache,
		ReportCfg: &c.config.Reports,
		CacheCfg:  &c.config.Cache,
		Logger:    c.logger.Named("worker"),
	})
	if err != nil {
		return err
	}

	if err := workers.StartAll(c.ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	c.workers = workers
	return nil
}

// HTTPServices returns the services the HTTP API exposes.
func (c *Container) HTTPServices() httpapi.Services {
	return httpapi.Services{
		Dashboard:      c.services.Dashboard,
		Reconciliation: c.services.Reconciliation,
		Directory:      c.services.Directory,
		Reports:        c.services.Reports,
		Guard:          c.services.Guard,
		Exporter:       c.exporter,
		Health:         c.HealthCheck,
	}
}

// HTTPServerConfig returns the HTTP server settings.
func (c *Container) HTTPServerConfig() httpapi.ServerConfig {
	return httpapi.ServerConfig{
		Host:            c.config.Server.Host,
		Port:            c.config.Server.Port,
		ReadTimeout:     c.config.Server.ReadTimeout,
		WriteTimeout:    c.config.Server.WriteTimeout,
		ShutdownTimeout: c.config.Server.ShutdownTimeout,
	}
}

// NewHTTPServer builds the HTTP server over the container's services.
func (c *Container) NewHTTPServer() *httpapi.Server {
	return httpapi.NewServer(c.HTTPServerConfig(), c.HTTPServices(), utils.NewLoggerAdapter(c.logger.Named("http")))
}

// Getters for accessing container components

// Database returns the database handle.
func (c *Container) Database() *database.DB {
	if c.db == nil {
		return nil
	}
	return c.db.DB
}

// Backend returns the portal backend client.
func (c *Container) Backend() port.PortalBackend {
	return c.backend
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() *dispatcher.Dispatcher {
	return c.dispatcher
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Workers returns the worker manager.
func (c *Container) Workers() *worker.Manager {
	return c.workers
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}
