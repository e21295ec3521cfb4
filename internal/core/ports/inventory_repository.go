// internal/core/ports/inventory_repository.go
package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ammerola/pos-engine/internal/core/domain"
)

// ProductRepository is the persistence port for the product catalog.
type ProductRepository interface {
	// LoadProducts returns every product ordered by product id.
	LoadProducts(ctx context.Context) ([]domain.Product, error)
	// FindByID returns nil, nil when the product does not exist.
	FindByID(ctx context.Context, productID string) (*domain.Product, error)
	Insert(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, productID string) error
	// AdjustStock applies delta and returns the new stock. It refuses to
	// take stock below zero with *domain.InsufficientStockError.
	AdjustStock(ctx context.Context, productID string, delta int) (int, error)
	LowStock(ctx context.Context, threshold int) ([]domain.Product, error)
}

// SaleRepository is the append-only sales log.
type SaleRepository interface {
	NextSaleID(ctx context.Context) (int64, error)
	AppendSaleRecord(ctx context.Context, record *domain.SaleRecord) error
	// FindByID returns nil, nil when the sale does not exist.
	FindByID(ctx context.Context, saleID int64) (*domain.SaleRecord, error)
	// ListSaleRecords returns sales newest first; limit <= 0 means no limit.
	ListSaleRecords(ctx context.Context, limit int) ([]domain.SaleRecord, error)
}

// SettingsRepository stores operator preferences as key/value pairs.
type SettingsRepository interface {
	Get(ctx context.Context, key, defaultValue string) (string, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
}

// SalesReportRepository serves aggregate queries over the sales log.
type SalesReportRepository interface {
	Summary(ctx context.Context, from, to time.Time) (*SalesSummary, error)
	DailyRevenue(ctx context.Context, from, to time.Time) ([]DailyRevenue, error)
	TopProducts(ctx context.Context, limit int) ([]ProductSales, error)
}

// SalesSummary aggregates sales over a period.
type SalesSummary struct {
	SaleCount int64           `json:"sale_count"`
	ItemCount int64           `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// DailyRevenue is revenue for one calendar day (UTC).
type DailyRevenue struct {
	Day       time.Time       `json:"day"`
	SaleCount int64           `json:"sale_count"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// ProductSales is units and revenue sold for one product.
type ProductSales struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Units     int64           `json:"units"`
	Revenue   decimal.Decimal `json:"revenue"`
}
