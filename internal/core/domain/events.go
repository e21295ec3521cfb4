// internal/core/domain/events.go
package domain

import "time"

// EventType identifies an engine event.
type EventType string

const (
	EventSaleCompleted    EventType = "sale.completed"
	EventInventoryChanged EventType = "inventory.changed"
)

// Event is implemented by every typed engine event.
type Event interface {
	Type() EventType
	OccurredAt() time.Time
}

// SaleCompleted is published after a sale has been committed.
type SaleCompleted struct {
	Sale SaleRecord
	At   time.Time
}

func (e SaleCompleted) Type() EventType       { return EventSaleCompleted }
func (e SaleCompleted) OccurredAt() time.Time { return e.At }

// StockChange records one product's stock movement.
type StockChange struct {
	ProductID string `json:"product_id"`
	Delta     int    `json:"delta"`
	Stock     int    `json:"stock"`
}

// InventoryChangeReason says what caused an inventory change.
type InventoryChangeReason string

const (
	ReasonProductAdded   InventoryChangeReason = "product_added"
	ReasonProductUpdated InventoryChangeReason = "product_updated"
	ReasonProductDeleted InventoryChangeReason = "product_deleted"
	ReasonStockAdjusted  InventoryChangeReason = "stock_adjusted"
	ReasonSale           InventoryChangeReason = "sale"
)

// InventoryChanged is published whenever the catalog or stock levels change.
type InventoryChanged struct {
	Reason  InventoryChangeReason
	Changes []StockChange
	At      time.Time
}

func (e InventoryChanged) Type() EventType       { return EventInventoryChanged }
func (e InventoryChanged) OccurredAt() time.Time { return e.At }
