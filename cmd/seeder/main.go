// cmd/seeder/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/ammerola/pos-engine/internal/adapters/db"
	"github.com/ammerola/pos-engine/internal/adapters/pricelist"
	redis_a "github.com/ammerola/pos-engine/internal/adapters/redis_adapter"
	"github.com/ammerola/pos-engine/internal/adapters/spreadsheet"
	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/services"
	"github.com/ammerola/pos-engine/internal/pkg/config"
	"github.com/ammerola/pos-engine/internal/pkg/logger"
)

// demoCatalog is loaded when no -file is given.
var demoCatalog = []struct {
	id    string
	name  string
	price string
	stock int
}{
	{"C-100", "Espresso", "2.50", 200},
	{"C-101", "Cappuccino", "3.80", 150},
	{"C-102", "Latte", "4.10", 150},
	{"C-103", "Flat white", "3.90", 120},
	{"T-200", "Green tea", "2.20", 80},
	{"T-201", "Chai latte", "3.60", 60},
	{"P-300", "Croissant", "1.90", 40},
	{"P-301", "Pain au chocolat", "2.10", 35},
	{"P-302", "Blueberry muffin", "2.75", 24},
	{"B-400", "House blend 250g", "8.50", 18},
	{"B-401", "Single origin 250g", "11.00", 4},
	{"M-500", "Travel mug", "14.90", 2},
}

func main() {
	var (
		file     = flag.String("file", "", "XLSX or PDF price list to import instead of the demo catalog")
		logLevel = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun   = flag.Bool("dry-run", false, "Parse and print the catalog without writing it")
		migrate  = flag.Bool("migrate", true, "Apply database migrations before seeding")
	)
	flag.Parse()

	appLogger := logger.SetupLogger(*logLevel, "json")
	defer appLogger.Close()
	slogger := appLogger.Logger

	catalog, err := loadCatalog(*file, slogger)
	if err != nil {
		slogger.Error("failed to read catalog", slog.String("file", *file), slog.String("error", err.Error()))
		os.Exit(1)
	}

	for _, msg := range catalog.Errors {
		fmt.Printf("WARNING: %s\n", msg)
	}

	if *dryRun {
		printCatalog(catalog)
		fmt.Println("\n[DRY RUN] No changes were made to the database")
		return
	}

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	if *migrate {
		err := db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
			DatabaseURL: cfg.DatabaseURL(),
			TableName:   "schema_migrations",
			SchemaName:  "public",
		}, slogger, 3)
		if err != nil {
			slogger.Error("failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:              cfg.Database.Host,
		Port:              cfg.Database.Port,
		User:              cfg.Database.User,
		Password:          cfg.Database.Password,
		Database:          cfg.Database.Name,
		SSLMode:           cfg.Database.SSLMode,
		ApplicationName:   cfg.App.Name + "-seeder",
		MaxConnections:    4,
		MinConnections:    1,
		MaxConnLifetime:   cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:   cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod: cfg.Database.HealthCheckPeriod,
		ConnectTimeout:    cfg.Database.ConnectTimeout,
	}, slogger)
	if err != nil {
		slogger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, slogger)

	inventory := services.NewInventoryService(
		db.NewProductRepository(database, slogger),
		db.NewUnitOfWork(database, slogger),
		cache,
		services.NewEventBus(slogger),
		services.InventoryConfig{
			CacheTTL:          cfg.POS.ProductCacheTTL,
			LowStockThreshold: cfg.POS.LowStockThreshold,
		},
		slogger,
	)

	result, err := inventory.Upsert(ctx, catalog.Products)
	if err != nil {
		slogger.Error("failed to save catalog", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// The API may be serving a cached product list from before the import.
	if err := redis_a.NewCacheManager(cache, slogger).InvalidateCatalog(ctx); err != nil {
		slogger.Warn("failed to invalidate catalog cache", slog.String("error", err.Error()))
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SEED SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Rows read:        %d\n", catalog.RowsRead)
	fmt.Printf("Products created: %d\n", result.Created)
	fmt.Printf("Products updated: %d\n", result.Updated)
	if n := len(catalog.Errors) + len(result.Errors); n > 0 {
		fmt.Printf("Rows skipped:     %d\n", n)
		for _, msg := range result.Errors {
			fmt.Printf("  - %s\n", msg)
		}
	}

	slogger.Info("seed completed",
		slog.String("source", sourceName(*file)),
		slog.Int("created", result.Created),
		slog.Int("updated", result.Updated),
		slog.Int("skipped", len(catalog.Errors)+len(result.Errors)))
}

// loadCatalog reads the file named by path, picking the parser from its extension.
func loadCatalog(path string, logger *slog.Logger) (*domain.ParsedCatalog, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case "":
		if path != "" {
			return nil, fmt.Errorf("cannot tell the format of %q", path)
		}
		return demo(), nil
	case ".xlsx":
		return spreadsheet.ReadProducts(path)
	case ".pdf":
		return pricelist.NewReader(logger).ReadFile(path)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

func demo() *domain.ParsedCatalog {
	catalog := &domain.ParsedCatalog{RowsRead: len(demoCatalog)}
	for _, row := range demoCatalog {
		catalog.Products = append(catalog.Products, domain.Product{
			ProductID: row.id,
			Name:      row.name,
			Price:     decimal.RequireFromString(row.price),
			Stock:     row.stock,
		})
	}
	return catalog
}

func printCatalog(catalog *domain.ParsedCatalog) {
	fmt.Printf("%-12s %-28s %10s %6s\n", "ID", "NAME", "PRICE", "STOCK")
	for _, p := range catalog.Products {
		fmt.Printf("%-12s %-28s %10s %6d\n", p.ProductID, p.Name, p.Price.StringFixed(2), p.Stock)
	}
	fmt.Printf("\n%d products, %d rows skipped\n", len(catalog.Products), len(catalog.Errors))
}

func sourceName(path string) string {
	if path == "" {
		return "demo"
	}
	return filepath.Base(path)
}
