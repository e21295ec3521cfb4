// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/pos-engine/internal/adapters/db"
	redis_a "github.com/ammerola/pos-engine/internal/adapters/redis_adapter"
	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/services"
	"github.com/ammerola/pos-engine/internal/handlers"
	"github.com/ammerola/pos-engine/internal/handlers/middleware"
	"github.com/ammerola/pos-engine/internal/pkg/config"
	"github.com/ammerola/pos-engine/internal/pkg/logger"
	"github.com/ammerola/pos-engine/internal/workers"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	bootLogger := logger.SetupLogger("debug", "json")

	bootLogger.Info("starting pos engine api",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	cfg, err := config.Load(bootLogger.Logger)
	if err != nil {
		bootLogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	appLogger := logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	defer appLogger.Close()
	slogger := appLogger.Logger
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if cfg.AWS.SecretName != "" {
		sm, err := config.NewAWSSecretsManager(ctx, cfg.AWS.Region, cfg.AWS.SecretName, slogger)
		if err != nil {
			slogger.Error("failed to create secrets manager", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := config.ApplySecrets(ctx, cfg, sm); err != nil {
			slogger.Error("failed to apply secrets", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if cfg.Database.AutoMigrate {
		if err := runMigrations(ctx, cfg, slogger); err != nil {
			slogger.Error("failed to run migrations", slog.String("error", err.Error()))
			if cfg.IsProduction() {
				os.Exit(1)
			}
		}
	}

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	server := setupHTTPServer(ctx, cfg, deps, slogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server",
			slog.String("address", cfg.ServerAddress()),
			slog.Bool("tls", cfg.Server.TLSEnabled),
		)

		if cfg.Server.TLSEnabled {
			serverErrors <- server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received",
			slog.String("signal", sig.String()),
		)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	database       *db.Database
	redisClient    *redis.Client
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector
	unsubscribe    []func()

	inventoryHandler *handlers.InventoryHandler
	cartHandler      *handlers.CartHandler
	salesHandler     *handlers.SalesHandler
	settingsHandler  *handlers.SettingsHandler
	exportHandler    *handlers.ExportHandler
	importHandler    *handlers.ImportHandler
	dashboardHandler *handlers.DashboardHandler
	healthHandler    *handlers.HealthHandler
}

func (d *dependencies) cleanup() {
	for _, unsubscribe := range d.unsubscribe {
		unsubscribe()
	}
	if d.asynqInspector != nil {
		d.asynqInspector.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.database != nil {
		d.database.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	logger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	database, err := db.NewDatabase(ctx, databaseConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database

	reportDB, err := db.OpenSQL(cfg.DatabaseURL())
	if err != nil {
		deps.cleanup()
		return nil, fmt.Errorf("failed to open reporting connection: %w", err)
	}

	logger.Info("connecting to Redis", slog.String("addr", cfg.RedisAddr()))

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		PoolTimeout:  cfg.Redis.PoolTimeout,
	})
	deps.redisClient = redisClient

	if err := redisClient.Ping(ctx).Err(); err != nil {
		reportDB.Close()
		deps.cleanup()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, logger)

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}
	deps.asynqClient = asynq.NewClient(asynqRedisOpt)
	deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)
	queue := workers.NewQueue(deps.asynqClient, cfg.Asynq.RetryMax, logger)

	// Repositories
	products := db.NewProductRepository(database, logger)
	uow := db.NewUnitOfWork(database, logger)
	sales := db.NewSaleRepository(database, logger)
	settingsRepo := db.NewSettingsRepository(database, logger)
	reports := db.NewSalesReportRepository(reportDB, logger)
	jobs := db.NewJobRepository(database, logger)

	// Services
	bus := services.NewEventBus(logger)

	inventory := services.NewInventoryService(products, uow, cache, bus, services.InventoryConfig{
		CacheTTL:          cfg.POS.ProductCacheTTL,
		LowStockThreshold: cfg.POS.LowStockThreshold,
	}, logger)

	settings := services.NewSettingsService(settingsRepo, domain.AppSettings{
		Language: cfg.POS.Language,
		Currency: cfg.POS.Currency,
	}, logger)

	checkout := services.NewCoordinator(products, uow, bus, services.CheckoutConfig{
		TaxRate: cfg.POS.TaxRate,
	}, logger)

	carts := services.NewCartSessionService(cache, inventory, checkout, settings, cfg.POS.CartTTL, logger)
	salesService := services.NewSalesService(sales, settings, cfg.POS.HistoryLimit, logger)
	dashboard := services.NewDashboardService(inventory, reports, settings, cache, services.DashboardConfig{
		CacheTTL: cfg.POS.ProductCacheTTL,
	}, logger)

	// Event subscriptions
	dispatcher := workers.NewDispatcher(queue, workers.DispatcherConfig{
		AutoPrint:         cfg.POS.AutoPrint,
		LowStockThreshold: cfg.POS.LowStockThreshold,
	}, logger)
	deps.unsubscribe = append(deps.unsubscribe,
		dispatcher.Register(bus),
		bus.Subscribe(domain.EventInventoryChanged, inventory.HandleInventoryChanged),
		bus.Subscribe(domain.EventInventoryChanged, dashboard.Invalidate),
		bus.Subscribe(domain.EventSaleCompleted, dashboard.Invalidate),
		func() { reportDB.Close() },
	)

	// Catalog caches may predate migrations or a seeder run.
	cacheManager := redis_a.NewCacheManager(cache, logger)
	if err := cacheManager.InvalidateCatalog(ctx); err != nil {
		logger.Warn("failed to invalidate catalog cache", slog.String("error", err.Error()))
	}
	if err := cacheManager.Warmup(ctx, services.CacheKeyProductList, cfg.POS.ProductCacheTTL, func(ctx context.Context) (interface{}, error) {
		return products.LoadProducts(ctx)
	}); err != nil {
		logger.Warn("failed to warm product cache", slog.String("error", err.Error()))
	}

	// Handlers
	lang := cfg.POS.Language
	deps.inventoryHandler = handlers.NewInventoryHandler(inventory, lang, logger)
	deps.cartHandler = handlers.NewCartHandler(carts, lang, logger)
	deps.salesHandler = handlers.NewSalesHandler(salesService, queue, lang, logger)
	deps.settingsHandler = handlers.NewSettingsHandler(settings, lang, logger)
	deps.exportHandler = handlers.NewExportHandler(inventory, salesService, queue, lang, logger)
	deps.importHandler = handlers.NewImportHandler(jobs, queue, handlers.ImportConfig{
		UploadDir:    cfg.FileProcessing.UploadDir(),
		ExcelMaxSize: int64(cfg.FileProcessing.ExcelMaxSizeMB) << 20,
		PDFMaxSize:   int64(cfg.FileProcessing.PDFMaxSizeMB) << 20,
	}, logger)
	deps.dashboardHandler = handlers.NewDashboardHandler(dashboard, lang, logger)
	deps.healthHandler = handlers.NewHealthHandler(database, redisClient, deps.asynqInspector, cfg, logger).
		WithCatalog(inventory)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func databaseConfig(cfg *config.Config) *db.Config {
	return &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		ApplicationName:    cfg.App.Name + "-api",
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}
}

func setupHTTPServer(ctx context.Context, cfg *config.Config, deps *dependencies, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	registerRoutes(mux, deps)

	mws := []func(http.Handler) http.Handler{
		middleware.Recovery(logger),
		middleware.RequestID(cfg.Security.RequestIDHeader),
		middleware.Logger(logger),
		middleware.CORS(cfg.Security.AllowedOrigins),
	}
	if cfg.Security.SecureHeaders {
		mws = append(mws, middleware.SecureHeaders)
	}
	if cfg.Security.RateLimitRequests > 0 {
		mws = append(mws, middleware.RateLimit(ctx, cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration))
	}
	mws = append(mws, middleware.Compression)
	if cfg.Server.RequestTimeout > 0 {
		mws = append(mws, middleware.Timeout(cfg.Server.RequestTimeout))
	}

	return &http.Server{
		Addr:           cfg.ServerAddress(),
		Handler:        middleware.Chain(mux, mws...),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

func registerRoutes(mux *http.ServeMux, deps *dependencies) {
	apiV1 := "/api/v1"

	mux.HandleFunc("GET /health", deps.healthHandler.Health)
	mux.HandleFunc("GET /ready", deps.healthHandler.Readiness)

	// Products
	mux.HandleFunc("GET "+apiV1+"/products", deps.inventoryHandler.ListProducts)
	mux.HandleFunc("POST "+apiV1+"/products", deps.inventoryHandler.CreateProduct)
	mux.HandleFunc("GET "+apiV1+"/products/low-stock", deps.inventoryHandler.LowStock)
	mux.HandleFunc("GET "+apiV1+"/products/{id}", deps.inventoryHandler.GetProduct)
	mux.HandleFunc("PUT "+apiV1+"/products/{id}", deps.inventoryHandler.UpdateProduct)
	mux.HandleFunc("DELETE "+apiV1+"/products/{id}", deps.inventoryHandler.DeleteProduct)
	mux.HandleFunc("POST "+apiV1+"/products/{id}/stock", deps.inventoryHandler.AdjustStock)

	// Carts
	mux.HandleFunc("POST "+apiV1+"/carts", deps.cartHandler.CreateCart)
	mux.HandleFunc("GET "+apiV1+"/carts/{id}", deps.cartHandler.GetCart)
	mux.HandleFunc("DELETE "+apiV1+"/carts/{id}", deps.cartHandler.ClearCart)
	mux.HandleFunc("POST "+apiV1+"/carts/{id}/lines", deps.cartHandler.AddLine)
	mux.HandleFunc("DELETE "+apiV1+"/carts/{id}/lines/{pid}", deps.cartHandler.RemoveLine)
	mux.HandleFunc("POST "+apiV1+"/carts/{id}/finalize", deps.cartHandler.Finalize)

	// Sales
	mux.HandleFunc("GET "+apiV1+"/sales", deps.salesHandler.History)
	mux.HandleFunc("GET "+apiV1+"/sales/{id}", deps.salesHandler.GetSale)
	mux.HandleFunc("GET "+apiV1+"/sales/{id}/invoice", deps.salesHandler.Invoice)
	mux.HandleFunc("POST "+apiV1+"/sales/{id}/invoice/print", deps.salesHandler.PrintInvoice)

	// Settings
	mux.HandleFunc("GET "+apiV1+"/settings", deps.settingsHandler.GetSettings)
	mux.HandleFunc("PUT "+apiV1+"/settings", deps.settingsHandler.UpdateSettings)

	// Export
	mux.HandleFunc("GET "+apiV1+"/export/products.xlsx", deps.exportHandler.ExportProducts)
	mux.HandleFunc("GET "+apiV1+"/export/sales.xlsx", deps.exportHandler.ExportSales)
	mux.HandleFunc("POST "+apiV1+"/export/{kind}", deps.exportHandler.QueueExport)

	// Import
	mux.HandleFunc("POST "+apiV1+"/import/excel", deps.importHandler.ImportExcel)
	mux.HandleFunc("POST "+apiV1+"/import/pdf", deps.importHandler.ImportPDF)
	mux.HandleFunc("GET "+apiV1+"/import/status/{id}", deps.importHandler.ImportStatus)

	mux.HandleFunc("GET "+apiV1+"/dashboard", deps.dashboardHandler.GetDashboard)
}

func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("running database migrations")

	return db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
		DatabaseURL: cfg.DatabaseURL(),
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}, logger, 3)
}
