// cmd/worker/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/pos-engine/internal/adapters/db"
	"github.com/ammerola/pos-engine/internal/adapters/printer"
	redis_a "github.com/ammerola/pos-engine/internal/adapters/redis_adapter"
	"github.com/ammerola/pos-engine/internal/adapters/storage"
	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/services"
	"github.com/ammerola/pos-engine/internal/pkg/config"
	"github.com/ammerola/pos-engine/internal/pkg/logger"
	"github.com/ammerola/pos-engine/internal/workers"
)

func main() {
	bootLogger := logger.SetupLogger("info", "json")

	cfg, err := config.Load(bootLogger.Logger)
	if err != nil {
		bootLogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	appLogger := logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	defer appLogger.Close()
	slogger := appLogger.Logger
	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("redis_addr", cfg.Asynq.RedisAddr))

	ctx := context.Background()

	if cfg.AWS.SecretName != "" {
		sm, err := config.NewAWSSecretsManager(ctx, cfg.AWS.Region, cfg.AWS.SecretName, slogger)
		if err == nil {
			err = config.ApplySecrets(ctx, cfg, sm)
		}
		if err != nil {
			slogger.Error("failed to apply secrets", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	database, err := initDatabase(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	reportDB, err := db.OpenSQL(cfg.DatabaseURL())
	if err != nil {
		slogger.Error("failed to open reporting connection", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer reportDB.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolSize:     cfg.Redis.PoolSize,
	})
	defer redisClient.Close()
	cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, slogger)

	fileStorage, err := storage.New(ctx, cfg.AWS, filepath.Join(cfg.POS.InvoiceDir, "archive"), slogger)
	if err != nil {
		slogger.Error("failed to initialize file storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()
	queue := workers.NewQueue(asynqClient, cfg.Asynq.RetryMax, slogger)

	// Repositories and services
	products := db.NewProductRepository(database, slogger)
	uow := db.NewUnitOfWork(database, slogger)
	jobs := db.NewJobRepository(database, slogger)

	bus := services.NewEventBus(slogger)
	inventory := services.NewInventoryService(products, uow, cache, bus, services.InventoryConfig{
		CacheTTL:          cfg.POS.ProductCacheTTL,
		LowStockThreshold: cfg.POS.LowStockThreshold,
	}, slogger)
	settings := services.NewSettingsService(db.NewSettingsRepository(database, slogger), domain.AppSettings{
		Language: cfg.POS.Language,
		Currency: cfg.POS.Currency,
	}, slogger)
	salesService := services.NewSalesService(db.NewSaleRepository(database, slogger), settings, cfg.POS.HistoryLimit, slogger)
	dashboard := services.NewDashboardService(inventory, db.NewSalesReportRepository(reportDB, slogger), settings, cache, services.DashboardConfig{
		CacheTTL: cfg.POS.ProductCacheTTL,
	}, slogger)

	// Imports change the catalog from this process.
	dispatcher := workers.NewDispatcher(queue, workers.DispatcherConfig{
		LowStockThreshold: cfg.POS.LowStockThreshold,
	}, slogger)
	defer dispatcher.Register(bus)()
	defer bus.Subscribe(domain.EventInventoryChanged, dashboard.Invalidate)()

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.Asynq.Concurrency,
		Queues:          cfg.Asynq.Queues,
		StrictPriority:  cfg.Asynq.StrictPriority,
		ErrorHandler:    asynq.ErrorHandlerFunc(handleError),
		RetryDelayFunc:  exponentialBackoff,
		ShutdownTimeout: cfg.Asynq.ShutdownTimeout,
		HealthCheckFunc: healthCheck,
		Logger:          newAsynqLogger(slogger),
	})

	mux := asynq.NewServeMux()
	mux.Use(taskContext(slogger))

	invoiceProcessor := workers.NewInvoiceProcessor(
		salesService,
		printer.NewLinePrinter(printer.ParseCommand(cfg.POS.PrintCommand, cfg.FileProcessing.TempDir), slogger),
		fileStorage,
		cfg.POS.InvoiceDir,
		slogger,
	)
	mux.HandleFunc(workers.TypeInvoicePrint, invoiceProcessor.PrintInvoice)
	mux.HandleFunc(workers.TypeInvoiceArchive, invoiceProcessor.ArchiveInvoice)

	notificationProcessor := workers.NewNotificationProcessor(inventory, cfg.Notification, slogger)
	mux.HandleFunc(workers.TypeLowStockAlert, notificationProcessor.SendLowStockAlert)

	exportProcessor := workers.NewExportProcessor(inventory, salesService, fileStorage, slogger)
	mux.HandleFunc(workers.TypeExport, exportProcessor.Export)

	excelProcessor := workers.NewExcelProcessor(inventory, jobs, slogger)
	mux.HandleFunc(workers.TypeImportExcel, excelProcessor.ImportExcel)

	pdfProcessor := workers.NewPDFProcessor(inventory, jobs, slogger)
	mux.HandleFunc(workers.TypeImportPDF, pdfProcessor.ImportPDF)

	cleanupProcessor := workers.NewCleanupProcessor(jobs, workers.CleanupConfig{
		UploadDir: cfg.FileProcessing.UploadDir(),
	}, slogger)
	mux.HandleFunc(workers.TypeCleanupTempFiles, cleanupProcessor.CleanupTempFiles)
	mux.HandleFunc(workers.TypeCleanupOldJobs, cleanupProcessor.CleanupOldJobs)

	analyticsProcessor := workers.NewAnalyticsProcessor(dashboard, slogger)
	mux.HandleFunc(workers.TypeRefreshAnalytics, analyticsProcessor.RefreshAnalytics)

	scheduler, err := newScheduler(redisOpt, cfg, slogger)
	if err != nil {
		slogger.Error("failed to register periodic tasks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(mux); err != nil {
			slogger.Error("failed to run worker server", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	if err := scheduler.Start(); err != nil {
		slogger.Error("failed to start scheduler", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger.Info("worker started successfully",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues))

	sig := <-shutdown
	slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

	scheduler.Shutdown()
	srv.Shutdown()
	slogger.Info("worker shutdown complete")
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*db.Database, error) {
	dbConfig := &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		ApplicationName:    cfg.App.Name + "-worker",
		MaxConnections:     10, // Fewer connections for worker
		MinConnections:     2,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}

	return db.NewDatabase(ctx, dbConfig, logger)
}

// newScheduler registers the periodic housekeeping tasks.
func newScheduler(redisOpt asynq.RedisClientOpt, cfg *config.Config, logger *slog.Logger) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger:   newAsynqLogger(logger),
		Location: time.UTC,
		EnqueueErrorHandler: func(task *asynq.Task, _ []asynq.Option, err error) {
			logger.Error("failed to enqueue periodic task",
				slog.String("type", task.Type()),
				slog.String("error", err.Error()))
		},
	})

	interval := cfg.FileProcessing.CleanupInterval
	if interval <= 0 {
		interval = time.Hour
	}

	periodic := []struct {
		spec     string
		taskType string
	}{
		{fmt.Sprintf("@every %s", interval), workers.TypeCleanupTempFiles},
		{"@daily", workers.TypeCleanupOldJobs},
		{"@every 15m", workers.TypeRefreshAnalytics},
	}
	for _, p := range periodic {
		if _, err := scheduler.Register(p.spec, asynq.NewTask(p.taskType, nil), workers.TaskOptions(p.taskType, cfg.Asynq.RetryMax)...); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", p.taskType, err)
		}
	}
	return scheduler, nil
}

// taskContext tags every task's context with its id for log enrichment.
func taskContext(l *slog.Logger) asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			if id, ok := asynq.GetTaskID(ctx); ok {
				ctx = logger.WithTaskID(ctx, id)
			}
			start := time.Now()
			err := next.ProcessTask(ctx, t)
			l.DebugContext(ctx, "task processed",
				slog.String("type", t.Type()),
				slog.Duration("duration", time.Since(start)),
				slog.Bool("ok", err == nil))
			return err
		})
	}
}

func handleError(ctx context.Context, task *asynq.Task, err error) {
	level := slog.LevelError
	if errors.Is(err, asynq.SkipRetry) {
		level = slog.LevelWarn
	}
	slog.Log(ctx, level, "task processing failed",
		slog.String("type", task.Type()),
		slog.String("payload", string(task.Payload())),
		slog.String("error", err.Error()))
}

func exponentialBackoff(n int, e error, t *asynq.Task) time.Duration {
	baseDelay := time.Second
	maxDelay := 10 * time.Minute
	delay := baseDelay * time.Duration(1<<uint(n))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

func healthCheck(err error) {
	if err != nil {
		slog.Error("worker health check failed", slog.String("error", err.Error()))
	}
}

// asynqLogger adapts slog for Asynq
type asynqLogger struct {
	logger *slog.Logger
}

func newAsynqLogger(logger *slog.Logger) *asynqLogger {
	return &asynqLogger{
		logger: logger.With(slog.String("component", "asynq")),
	}
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
