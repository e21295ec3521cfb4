// internal/core/services/inventory.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/ports"
)

// InventoryConfig tunes the inventory store.
type InventoryConfig struct {
	CacheTTL          time.Duration
	LowStockThreshold int
	Clock             Clock
}

// InventoryService is the inventory store: catalog CRUD plus guarded stock mutation.
type InventoryService struct {
	repo   ports.ProductRepository
	uow    ports.UnitOfWork
	cache  ports.CacheRepository
	events ports.EventPublisher
	cfg    InventoryConfig
	logger *slog.Logger
}

// Statically assert that *InventoryService implements the InventoryService interface.
var _ ports.InventoryService = (*InventoryService)(nil)

// NewInventoryService creates a new inventory service. cache and events may be nil.
func NewInventoryService(
	repo ports.ProductRepository,
	uow ports.UnitOfWork,
	cache ports.CacheRepository,
	events ports.EventPublisher,
	cfg InventoryConfig,
	logger *slog.Logger,
) *InventoryService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultProductCacheTTL
	}
	if cfg.LowStockThreshold <= 0 {
		cfg.LowStockThreshold = DefaultLowStock
	}
	return &InventoryService{
		repo:   repo,
		uow:    uow,
		cache:  cache,
		events: events,
		cfg:    cfg,
		logger: logger.With(slog.String("service", "inventory")),
	}
}

// Add inserts a new product. It fails with *domain.DuplicateProductError if the id exists.
func (s *InventoryService) Add(ctx context.Context, product *domain.Product) error {
	product.PrepareForStorage()
	if err := product.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := s.repo.Insert(ctx, product); err != nil {
		return fmt.Errorf("failed to add product: %w", err)
	}

	s.logger.InfoContext(ctx, "added product",
		slog.String("product_id", product.ProductID),
		slog.Int("stock", product.Stock))

	s.changed(ctx, domain.ReasonProductAdded, domain.StockChange{
		ProductID: product.ProductID, Delta: product.Stock, Stock: product.Stock,
	})
	return nil
}

// Update replaces name, price and stock of an existing product.
func (s *InventoryService) Update(ctx context.Context, product *domain.Product) error {
	product.PrepareForStorage()
	if err := product.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	s.logger.InfoContext(ctx, "updated product", slog.String("product_id", product.ProductID))

	s.changed(ctx, domain.ReasonProductUpdated, domain.StockChange{
		ProductID: product.ProductID, Stock: product.Stock,
	})
	return nil
}

// Get returns the product and whether it exists.
func (s *InventoryService) Get(ctx context.Context, productID string) (*domain.Product, bool, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get product: %w", err)
	}
	return product, product != nil, nil
}

// List returns every product ordered by product id, served from cache when available.
func (s *InventoryService) List(ctx context.Context) ([]domain.Product, error) {
	if s.cache == nil {
		return s.load(ctx)
	}

	var products []domain.Product
	err := s.cache.GetOrSet(ctx, CacheKeyProductList, &products, func() (interface{}, error) {
		return s.load(ctx)
	}, s.cfg.CacheTTL)
	if err != nil {
		s.logger.WarnContext(ctx, "product cache unavailable, reading store",
			slog.String("error", err.Error()))
		return s.load(ctx)
	}
	return products, nil
}

// AdjustStock applies a signed stock change inside a transaction.
func (s *InventoryService) AdjustStock(ctx context.Context, productID string, delta int) (*domain.Product, error) {
	var updated *domain.Product

	err := WithinTx(ctx, s.uow, func(ctx context.Context, tx ports.Tx) error {
		product, err := tx.Products().FindByID(ctx, productID)
		if err != nil {
			return fmt.Errorf("failed to load product: %w", err)
		}
		if product == nil {
			return &domain.ProductNotFoundError{ProductID: productID}
		}
		if product.Stock+delta < 0 {
			return &domain.InsufficientStockError{
				ProductID: productID,
				Name:      product.Name,
				Available: product.Stock,
				Requested: -delta,
			}
		}

		stock, err := tx.Products().AdjustStock(ctx, productID, delta)
		if err != nil {
			return err
		}
		product.Stock = stock
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "adjusted stock",
		slog.String("product_id", productID),
		slog.Int("delta", delta),
		slog.Int("stock", updated.Stock))

	s.changed(ctx, domain.ReasonStockAdjusted, domain.StockChange{
		ProductID: productID, Delta: delta, Stock: updated.Stock,
	})
	return updated, nil
}

// Delete removes a product from the catalog.
func (s *InventoryService) Delete(ctx context.Context, productID string) error {
	if err := s.repo.Delete(ctx, productID); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.InfoContext(ctx, "deleted product", slog.String("product_id", productID))
	s.changed(ctx, domain.ReasonProductDeleted, domain.StockChange{ProductID: productID})
	return nil
}

// Snapshot reads the whole catalog straight from the store, bypassing the cache.
func (s *InventoryService) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	products, err := s.load(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return domain.NewSnapshot(products, s.cfg.Clock.now()), nil
}

// LowStock returns products under the configured threshold.
func (s *InventoryService) LowStock(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.LowStock(ctx, s.cfg.LowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}
	return products, nil
}

// Upsert adds new products and updates existing ones in a single transaction.
// Invalid rows are skipped and reported.
func (s *InventoryService) Upsert(ctx context.Context, products []domain.Product) (*ports.UpsertResult, error) {
	result := &ports.UpsertResult{}
	if len(products) == 0 {
		return result, nil
	}

	var changes []domain.StockChange
	err := WithinTx(ctx, s.uow, func(ctx context.Context, tx ports.Tx) error {
		for i := range products {
			p := products[i]
			p.PrepareForStorage()
			if err := p.Validate(); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
				continue
			}

			existing, err := tx.Products().FindByID(ctx, p.ProductID)
			if err != nil {
				return fmt.Errorf("failed to load product %s: %w", p.ProductID, err)
			}

			if existing == nil {
				if err := tx.Products().Insert(ctx, &p); err != nil {
					return fmt.Errorf("failed to insert product %s: %w", p.ProductID, err)
				}
				result.Created++
				changes = append(changes, domain.StockChange{ProductID: p.ProductID, Delta: p.Stock, Stock: p.Stock})
				continue
			}

			p.CreatedAt = existing.CreatedAt
			if err := tx.Products().Update(ctx, &p); err != nil {
				return fmt.Errorf("failed to update product %s: %w", p.ProductID, err)
			}
			result.Updated++
			changes = append(changes, domain.StockChange{
				ProductID: p.ProductID, Delta: p.Stock - existing.Stock, Stock: p.Stock,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "upserted products",
		slog.Int("created", result.Created),
		slog.Int("updated", result.Updated),
		slog.Int("rejected", len(result.Errors)))

	if len(changes) > 0 {
		s.changed(ctx, domain.ReasonProductUpdated, changes...)
	}
	return result, nil
}

// InvalidateCache drops the cached product list.
func (s *InventoryService) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, CacheKeyProductList); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate product cache",
			slog.String("error", err.Error()))
	}
}

// HandleInventoryChanged invalidates the product cache for changes made
// outside this service, such as a committed sale.
func (s *InventoryService) HandleInventoryChanged(ctx context.Context, event domain.Event) error {
	changed, ok := event.(domain.InventoryChanged)
	if !ok || changed.Reason != domain.ReasonSale {
		return nil
	}
	s.InvalidateCache(ctx)
	return nil
}

func (s *InventoryService) load(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.LoadProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	return products, nil
}

func (s *InventoryService) changed(ctx context.Context, reason domain.InventoryChangeReason, changes ...domain.StockChange) {
	s.InvalidateCache(ctx)
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, domain.InventoryChanged{
		Reason:  reason,
		Changes: changes,
		At:      s.cfg.Clock.now(),
	})
}
