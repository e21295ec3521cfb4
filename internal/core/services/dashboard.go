// internal/core/services/dashboard.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/ports"
	"github.com/ammerola/pos-engine/internal/pkg/locale"
)

// DashboardConfig tunes the dashboard aggregate.
type DashboardConfig struct {
	CacheTTL    time.Duration
	TopProducts int
	Days        int
	Clock       Clock
}

// DashboardService builds the store overview from the catalog and the sales log.
type DashboardService struct {
	inventory ports.InventoryService
	reports   ports.SalesReportRepository
	settings  ports.SettingsService
	cache     ports.CacheRepository
	cfg       DashboardConfig
	logger    *slog.Logger
}

var _ ports.DashboardService = (*DashboardService)(nil)

// NewDashboardService creates a dashboard service. settings and cache may be nil.
func NewDashboardService(
	inventory ports.InventoryService,
	reports ports.SalesReportRepository,
	settings ports.SettingsService,
	cache ports.CacheRepository,
	cfg DashboardConfig,
	logger *slog.Logger,
) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultProductCacheTTL
	}
	if cfg.TopProducts <= 0 {
		cfg.TopProducts = 5
	}
	if cfg.Days <= 0 {
		cfg.Days = 7
	}
	return &DashboardService{
		inventory: inventory,
		reports:   reports,
		settings:  settings,
		cache:     cache,
		cfg:       cfg,
		logger:    logger.With(slog.String("service", "dashboard")),
	}
}

// Summary returns the cached overview, computing it on a miss.
func (s *DashboardService) Summary(ctx context.Context) (*ports.Dashboard, error) {
	if s.cache != nil {
		var cached ports.Dashboard
		err := s.cache.Get(ctx, CacheKeyDashboard, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, ports.ErrCacheMiss) {
			s.logger.WarnContext(ctx, "dashboard cache unavailable",
				slog.String("error", err.Error()))
		}
	}
	return s.Refresh(ctx)
}

// Refresh recomputes the overview and stores it in the cache.
func (s *DashboardService) Refresh(ctx context.Context) (*ports.Dashboard, error) {
	d, err := s.build(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetWithTTL(ctx, CacheKeyDashboard, d, s.cfg.CacheTTL); err != nil {
			s.logger.WarnContext(ctx, "failed to cache dashboard",
				slog.String("error", err.Error()))
		}
	}
	return d, nil
}

// Invalidate drops the cached overview. It is subscribed to sale and
// inventory events.
func (s *DashboardService) Invalidate(ctx context.Context, _ domain.Event) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, CacheKeyDashboard); err != nil {
		return fmt.Errorf("failed to invalidate dashboard: %w", err)
	}
	return nil
}

func (s *DashboardService) build(ctx context.Context) (*ports.Dashboard, error) {
	now := s.cfg.Clock.now().UTC()
	today := now.Truncate(24 * time.Hour)

	products, err := s.inventory.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	low, err := s.inventory.LowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load low stock: %w", err)
	}

	total, err := s.reports.Summary(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to summarize sales: %w", err)
	}
	daily, err := s.reports.Summary(ctx, today, today.Add(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to summarize today's sales: %w", err)
	}
	top, err := s.reports.TopProducts(ctx, s.cfg.TopProducts)
	if err != nil {
		return nil, fmt.Errorf("failed to rank products: %w", err)
	}
	trend, err := s.reports.DailyRevenue(ctx, today.AddDate(0, 0, -(s.cfg.Days-1)), time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to load daily revenue: %w", err)
	}

	units := 0
	value := decimal.Zero
	for _, p := range products {
		units += p.Stock
		value = value.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Stock))))
	}

	d := &ports.Dashboard{
		ProductCount: len(products),
		UnitsInStock: units,
		StockValue:   value.StringFixed(2),
		LowStock:     low,
		SaleCount:    total.SaleCount,
		ItemsSold:    total.ItemCount,
		Revenue:      total.Revenue.StringFixed(2),
		RevenueToday: daily.Revenue.StringFixed(2),
		TopProducts:  top,
		DailyRevenue: trend,
		GeneratedAt:  now,
	}

	cur := locale.LookupCurrency(s.currency(ctx))
	d.Display = map[string]string{
		"stock_value":   cur.Format(value),
		"revenue":       cur.Format(total.Revenue),
		"revenue_today": cur.Format(daily.Revenue),
	}
	return d, nil
}

func (s *DashboardService) currency(ctx context.Context) string {
	if s.settings == nil {
		return locale.DefaultCurrency
	}
	prefs, err := s.settings.Get(ctx)
	if err != nil {
		return locale.DefaultCurrency
	}
	return prefs.Currency
}
