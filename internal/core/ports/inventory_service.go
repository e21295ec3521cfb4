// internal/core/ports/inventory_service.go
package ports

import (
	"context"

	"github.com/ammerola/pos-engine/internal/core/domain"
)

// InventoryService is the inventory store used by handlers, workers and the cart.
type InventoryService interface {
	Add(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Get(ctx context.Context, productID string) (*domain.Product, bool, error)
	List(ctx context.Context) ([]domain.Product, error)
	AdjustStock(ctx context.Context, productID string, delta int) (*domain.Product, error)
	Delete(ctx context.Context, productID string) error
	Snapshot(ctx context.Context) (domain.Snapshot, error)
	Upsert(ctx context.Context, products []domain.Product) (*UpsertResult, error)
	LowStock(ctx context.Context) ([]domain.Product, error)
}

// UpsertResult counts the outcome of a bulk import.
type UpsertResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Errors  []string `json:"errors,omitempty"`
}
