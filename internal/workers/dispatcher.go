// internal/workers/dispatcher.go
package workers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/ports"
)

// DispatcherConfig decides which follow-up tasks a committed sale triggers.
type DispatcherConfig struct {
	AutoPrint         bool
	LowStockThreshold int
}

// Dispatcher turns engine events into background tasks. It runs in the API
// process, subscribed to the event bus.
type Dispatcher struct {
	queue  ports.TaskQueue
	cfg    DispatcherConfig
	logger *slog.Logger
}

func NewDispatcher(queue ports.TaskQueue, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		queue:  queue,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "dispatcher")),
	}
}

// Register subscribes the dispatcher and returns a func that unsubscribes it.
func (d *Dispatcher) Register(bus ports.EventSubscriber) func() {
	unsubSale := bus.Subscribe(domain.EventSaleCompleted, d.HandleSaleCompleted)
	unsubStock := bus.Subscribe(domain.EventInventoryChanged, d.HandleInventoryChanged)
	return func() {
		unsubSale()
		unsubStock()
	}
}

// HandleSaleCompleted archives every sale's invoice and prints it when auto print is on.
func (d *Dispatcher) HandleSaleCompleted(ctx context.Context, event domain.Event) error {
	sale, ok := event.(domain.SaleCompleted)
	if !ok {
		return nil
	}
	payload := InvoicePayload{SaleID: sale.Sale.SaleID}

	types := []string{TypeInvoiceArchive}
	if d.cfg.AutoPrint {
		types = append(types, TypeInvoicePrint)
	}

	var errs []error
	for _, taskType := range types {
		id, err := d.queue.Enqueue(ctx, taskType, payload)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		d.logger.InfoContext(ctx, "queued invoice task",
			slog.String("type", taskType),
			slog.Int64("sale_id", sale.Sale.SaleID),
			slog.String("task_id", id))
	}
	return errors.Join(errs...)
}

// HandleInventoryChanged queues one low-stock alert for the products an
// event took under the threshold. Sales and stock adjustments alert only
// when they cross it; edits and new products alert whenever they are low.
func (d *Dispatcher) HandleInventoryChanged(ctx context.Context, event domain.Event) error {
	changed, ok := event.(domain.InventoryChanged)
	if !ok || d.cfg.LowStockThreshold <= 0 {
		return nil
	}

	var low []domain.StockChange
	for _, c := range changed.Changes {
		if d.isNewlyLow(changed.Reason, c) {
			low = append(low, c)
		}
	}
	if len(low) == 0 {
		return nil
	}

	id, err := d.queue.Enqueue(ctx, TypeLowStockAlert, LowStockPayload{
		Threshold: d.cfg.LowStockThreshold,
		Changes:   low,
	})
	if err != nil {
		return err
	}

	d.logger.InfoContext(ctx, "queued low stock alert",
		slog.Int("products", len(low)),
		slog.String("task_id", id))
	return nil
}

func (d *Dispatcher) isNewlyLow(reason domain.InventoryChangeReason, c domain.StockChange) bool {
	threshold := d.cfg.LowStockThreshold
	switch {
	case reason == domain.ReasonProductDeleted:
		return false
	case c.Stock >= threshold:
		return false
	case reason == domain.ReasonProductAdded, reason == domain.ReasonProductUpdated:
		return true
	default:
		return c.Stock-c.Delta >= threshold
	}
}
