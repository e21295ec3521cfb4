// internal/adapters/db/product_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/ports"
)

var productColumns = []string{"product_id", "name", "price", "stock", "created_at", "updated_at"}

// ProductRepository implements ports.ProductRepository on PostgreSQL.
type ProductRepository struct {
	q      querier
	logger *slog.Logger
}

var _ ports.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository creates a product repository bound to the pool.
func NewProductRepository(db *Database, logger *slog.Logger) *ProductRepository {
	return newProductRepository(db.Pool(), logger)
}

func newProductRepository(q querier, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		q:      q,
		logger: logger.With(slog.String("repository", "products")),
	}
}

// LoadProducts returns the whole catalog ordered by product id.
func (r *ProductRepository) LoadProducts(ctx context.Context) ([]domain.Product, error) {
	return r.selectProducts(ctx, psql.Select(productColumns...).From("products").OrderBy("product_id"))
}

// FindByID returns nil, nil when the product does not exist.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (*domain.Product, error) {
	query, args, err := psql.Select(productColumns...).
		From("products").
		Where(squirrel.Eq{"product_id": productID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	product, err := scanProduct(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return product, nil
}

// Insert adds a product, mapping a primary key conflict to *domain.DuplicateProductError.
func (r *ProductRepository) Insert(ctx context.Context, product *domain.Product) error {
	query, args, err := psql.Insert("products").
		Columns(productColumns...).
		Values(product.ProductID, product.Name, product.Price, product.Stock, product.CreatedAt, product.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		switch pgErrorCode(err) {
		case pgUniqueViolation:
			return &domain.DuplicateProductError{ProductID: product.ProductID}
		case pgCheckViolation:
			return &domain.InvalidProductError{Field: "product", Reason: "violates catalog constraints"}
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}

	r.logger.DebugContext(ctx, "product inserted", slog.String("product_id", product.ProductID))
	return nil
}

// Update overwrites name, price and stock of an existing product.
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	query, args, err := psql.Update("products").
		Set("name", product.Name).
		Set("price", product.Price).
		Set("stock", product.Stock).
		Set("updated_at", product.UpdatedAt).
		Where(squirrel.Eq{"product_id": product.ProductID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.ProductNotFoundError{ProductID: product.ProductID}
	}
	return nil
}

// Delete removes a product. Past sales keep their own copy of its details.
func (r *ProductRepository) Delete(ctx context.Context, productID string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM products WHERE product_id = $1`, productID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.ProductNotFoundError{ProductID: productID}
	}
	return nil
}

// AdjustStock applies delta with a guarded update so stock never goes
// negative, even under concurrent sales.
func (r *ProductRepository) AdjustStock(ctx context.Context, productID string, delta int) (int, error) {
	const query = `
		UPDATE products
		SET stock = stock + $2, updated_at = now()
		WHERE product_id = $1 AND stock + $2 >= 0
		RETURNING stock`

	var stock int
	err := r.q.QueryRow(ctx, query, productID, delta).Scan(&stock)
	if err == nil {
		return stock, nil
	}
	if !isNoRows(err) {
		return 0, fmt.Errorf("failed to adjust stock: %w", err)
	}

	current, findErr := r.FindByID(ctx, productID)
	if findErr != nil {
		return 0, findErr
	}
	if current == nil {
		return 0, &domain.ProductNotFoundError{ProductID: productID}
	}
	return 0, &domain.InsufficientStockError{
		ProductID: productID,
		Name:      current.Name,
		Available: current.Stock,
		Requested: -delta,
	}
}

// LowStock lists products whose stock is under threshold.
func (r *ProductRepository) LowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	return r.selectProducts(ctx, psql.Select(productColumns...).
		From("products").
		Where(squirrel.Lt{"stock": threshold}).
		OrderBy("product_id"))
}

func (r *ProductRepository) selectProducts(ctx context.Context, qb squirrel.SelectBuilder) ([]domain.Product, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ProductID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
