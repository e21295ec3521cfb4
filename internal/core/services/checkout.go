// internal/core/services/checkout.go
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/ports"
)

// CheckoutConfig is the explicit configuration of the transaction coordinator.
type CheckoutConfig struct {
	TaxRate decimal.Decimal
	Clock   Clock
}

// Coordinator turns a cart into a committed sale. Finalize runs in two
// phases: revalidation against a fresh snapshot, then a single atomic
// commit of all stock decrements plus the sale log append.
type Coordinator struct {
	products ports.ProductRepository
	uow      ports.UnitOfWork
	events   ports.EventPublisher
	cfg      CheckoutConfig
	logger   *slog.Logger
}

var _ ports.Checkout = (*Coordinator)(nil)

// NewCoordinator creates a transaction coordinator. events may be nil.
func NewCoordinator(
	products ports.ProductRepository,
	uow ports.UnitOfWork,
	events ports.EventPublisher,
	cfg CheckoutConfig,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		products: products,
		uow:      uow,
		events:   events,
		cfg:      cfg,
		logger:   logger.With(slog.String("service", "checkout")),
	}
}

// TaxRate returns the configured rate.
func (c *Coordinator) TaxRate() decimal.Decimal { return c.cfg.TaxRate }

// Finalize validates cart against current stock and commits it. On any
// error the store and the cart are left exactly as they were. On success
// the cart is cleared.
func (c *Coordinator) Finalize(ctx context.Context, cart *domain.Cart) (*domain.SaleRecord, error) {
	if cart == nil || cart.IsEmpty() {
		return nil, &domain.EmptyCartError{}
	}

	lines := cart.Lines()

	products, err := c.products.LoadProducts(ctx)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "load inventory snapshot", Err: err}
	}
	snapshot := domain.NewSnapshot(products, c.cfg.Clock.now())

	if err := revalidate(lines, snapshot); err != nil {
		c.logger.InfoContext(ctx, "cart failed revalidation", slog.String("error", err.Error()))
		return nil, err
	}

	saleLines := domain.FreezeLines(lines)
	totals := domain.ComputeTotals(saleLines, c.cfg.TaxRate)

	record, changes, err := c.commit(ctx, saleLines, totals)
	if err != nil {
		var stockErr *domain.InsufficientStockError
		var missingErr *domain.ProductNotFoundError
		if errors.As(err, &stockErr) || errors.As(err, &missingErr) {
			return nil, err
		}
		c.logger.ErrorContext(ctx, "sale commit rolled back", slog.String("error", err.Error()))
		return nil, &domain.PersistenceError{Op: "commit sale", Err: err}
	}

	cart.Clear()

	c.logger.InfoContext(ctx, "sale completed",
		slog.Int64("sale_id", record.SaleID),
		slog.Int("lines", len(record.Items)),
		slog.String("total", record.Total.String()))

	c.publish(ctx, record, changes)
	return record, nil
}

// revalidate checks every line against the fresh snapshot.
func revalidate(lines []domain.CartLine, snapshot domain.Snapshot) error {
	for _, line := range lines {
		product, ok := snapshot.Lookup(line.ProductID)
		if !ok {
			return &domain.ProductNotFoundError{ProductID: line.ProductID}
		}
		if line.Quantity > product.Stock {
			return &domain.InsufficientStockError{
				ProductID: line.ProductID,
				Name:      product.Name,
				Available: product.Stock,
				Requested: line.Quantity,
			}
		}
	}
	return nil
}

func (c *Coordinator) commit(ctx context.Context, lines []domain.SaleLine, totals domain.Totals) (*domain.SaleRecord, []domain.StockChange, error) {
	var record *domain.SaleRecord
	var changes []domain.StockChange

	err := WithinTx(ctx, c.uow, func(ctx context.Context, tx ports.Tx) error {
		for _, line := range lines {
			stock, err := tx.Products().AdjustStock(ctx, line.ProductID, -line.Quantity)
			if err != nil {
				return err
			}
			changes = append(changes, domain.StockChange{ProductID: line.ProductID, Delta: -line.Quantity, Stock: stock})
		}

		saleID, err := tx.Sales().NextSaleID(ctx)
		if err != nil {
			return err
		}

		r := &domain.SaleRecord{
			SaleID:    saleID,
			Timestamp: c.cfg.Clock.now().UTC().Truncate(time.Second),
			Subtotal:  totals.Subtotal,
			Tax:       totals.Tax,
			Total:     totals.Total,
			Items:     lines,
		}
		if err := tx.Sales().AppendSaleRecord(ctx, r); err != nil {
			return err
		}
		record = r
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return record, changes, nil
}

func (c *Coordinator) publish(ctx context.Context, record *domain.SaleRecord, changes []domain.StockChange) {
	if c.events == nil {
		return
	}

	c.events.Publish(ctx, domain.SaleCompleted{Sale: *record, At: record.Timestamp})
	c.events.Publish(ctx, domain.InventoryChanged{
		Reason:  domain.ReasonSale,
		Changes: changes,
		At:      record.Timestamp,
	})
}
