// internal/core/ports/checkout_service.go
package ports

import (
	"context"

	"github.com/ammerola/pos-engine/internal/core/domain"
)

// Checkout finalizes carts into sales.
type Checkout interface {
	Finalize(ctx context.Context, cart *domain.Cart) (*domain.SaleRecord, error)
}

// CartService manages session carts.
type CartService interface {
	Create(ctx context.Context) (*CartView, error)
	Get(ctx context.Context, sessionID string) (*CartView, error)
	AddLine(ctx context.Context, sessionID, productID string, quantity int) (*CartView, error)
	RemoveLine(ctx context.Context, sessionID, productID string) (*CartView, error)
	Clear(ctx context.Context, sessionID string) (*CartView, error)
	Finalize(ctx context.Context, sessionID string) (*domain.SaleRecord, error)
}

// CartView is the display form of a session cart.
type CartView struct {
	SessionID string            `json:"session_id"`
	Lines     []CartLineView    `json:"lines"`
	ItemCount int               `json:"item_count"`
	Subtotal  string            `json:"subtotal"`
	Display   map[string]string `json:"display,omitempty"`
}

// CartLineView is one cart line with its computed total.
type CartLineView struct {
	domain.CartLine
	LineTotal string `json:"line_total"`
}

// SalesService reads the sales log.
type SalesService interface {
	History(ctx context.Context, limit int) (*SalesHistory, error)
	Get(ctx context.Context, saleID int64) (*domain.SaleRecord, error)
	Invoice(ctx context.Context, saleID int64, settings domain.AppSettings) (string, error)
}

// SalesHistory is a list of sales with its revenue summary.
type SalesHistory struct {
	Sales   []domain.SaleRecord `json:"sales"`
	Count   int                 `json:"count"`
	Revenue string              `json:"revenue"`
	Summary string              `json:"summary"`
}

// SettingsService reads and writes operator preferences.
type SettingsService interface {
	Get(ctx context.Context) (domain.AppSettings, error)
	Update(ctx context.Context, language, currency string) (domain.AppSettings, error)
}
