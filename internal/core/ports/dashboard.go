// internal/core/ports/dashboard.go
package ports

import (
	"context"
	"time"

	"github.com/ammerola/pos-engine/internal/core/domain"
)

// DashboardService serves the cached store overview.
type DashboardService interface {
	Summary(ctx context.Context) (*Dashboard, error)
	// Refresh recomputes the overview and replaces the cached copy.
	Refresh(ctx context.Context) (*Dashboard, error)
}

// Dashboard is the store overview shown on the landing screen.
type Dashboard struct {
	ProductCount int               `json:"product_count"`
	UnitsInStock int               `json:"units_in_stock"`
	StockValue   string            `json:"stock_value"`
	LowStock     []domain.Product  `json:"low_stock"`
	SaleCount    int64             `json:"sale_count"`
	ItemsSold    int64             `json:"items_sold"`
	Revenue      string            `json:"revenue"`
	RevenueToday string            `json:"revenue_today"`
	TopProducts  []ProductSales    `json:"top_products"`
	DailyRevenue []DailyRevenue    `json:"daily_revenue"`
	Display      map[string]string `json:"display,omitempty"`
	GeneratedAt  time.Time         `json:"generated_at"`
}
