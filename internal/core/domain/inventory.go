// internal/core/domain/inventory.go
package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry owned by the inventory store.
type Product struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Validate checks the product invariants: a non-blank id and name,
// price >= 0 and stock >= 0.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.ProductID) == "" {
		return &InvalidProductError{Field: "product_id", Reason: "is required"}
	}
	if strings.TrimSpace(p.Name) == "" {
		return &InvalidProductError{Field: "name", Reason: "is required"}
	}
	if p.Price.IsNegative() {
		return &InvalidProductError{Field: "price", Reason: "must be non-negative"}
	}
	if p.Stock < 0 {
		return &InvalidProductError{Field: "stock", Reason: "must be non-negative"}
	}
	return nil
}

// PrepareForStorage normalizes fields before persisting.
func (p *Product) PrepareForStorage() {
	p.ProductID = strings.TrimSpace(p.ProductID)
	p.Name = strings.TrimSpace(p.Name)

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

// IsLowStock reports whether stock is under the given threshold.
func (p *Product) IsLowStock(threshold int) bool {
	return p.Stock < threshold
}

// Snapshot is a read-only copy of the catalog taken at one point in time.
type Snapshot struct {
	products map[string]Product
	takenAt  time.Time
}

// NewSnapshot copies the given products into a snapshot.
func NewSnapshot(products []Product, takenAt time.Time) Snapshot {
	m := make(map[string]Product, len(products))
	for _, p := range products {
		m[p.ProductID] = p
	}
	return Snapshot{products: m, takenAt: takenAt}
}

// Lookup returns the product and whether it was present when the snapshot was taken.
func (s Snapshot) Lookup(productID string) (Product, bool) {
	p, ok := s.products[productID]
	return p, ok
}

// Len returns the number of products in the snapshot.
func (s Snapshot) Len() int { return len(s.products) }

// TakenAt returns the instant the snapshot was read.
func (s Snapshot) TakenAt() time.Time { return s.takenAt }

// Products returns the snapshot contents ordered by product id.
func (s Snapshot) Products() []Product {
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
