// internal/adapters/db/sales_report.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/ammerola/pos-engine/internal/core/ports"
)

// SalesReportRepository runs aggregate queries over the sales log through
// database/sql, so reporting can use a separate, read-only connection.
type SalesReportRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ ports.SalesReportRepository = (*SalesReportRepository)(nil)

func NewSalesReportRepository(db *sql.DB, logger *slog.Logger) *SalesReportRepository {
	return &SalesReportRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "sales_report")),
	}
}

// Summary aggregates sales completed in [from, to). Zero bounds are open.
func (r *SalesReportRepository) Summary(ctx context.Context, from, to time.Time) (*ports.SalesSummary, error) {
	qb := psql.Select(
		"COUNT(*)",
		"COALESCE(SUM(item_count), 0)",
		"COALESCE(SUM(subtotal), 0)",
		"COALESCE(SUM(tax), 0)",
		"COALESCE(SUM(total), 0)",
	).From("sales_log")
	qb = withinPeriod(qb, from, to)

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var s ports.SalesSummary
	err = r.db.QueryRowContext(ctx, query, args...).
		Scan(&s.SaleCount, &s.ItemCount, &s.Subtotal, &s.Tax, &s.Revenue)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize sales: %w", err)
	}
	return &s, nil
}

// DailyRevenue groups sales by UTC calendar day, oldest first.
func (r *SalesReportRepository) DailyRevenue(ctx context.Context, from, to time.Time) ([]ports.DailyRevenue, error) {
	qb := psql.Select(
		"date_trunc('day', completed_at AT TIME ZONE 'UTC') AS day",
		"COUNT(*)",
		"COALESCE(SUM(total), 0)",
	).From("sales_log").
		GroupBy("day").
		OrderBy("day")
	qb = withinPeriod(qb, from, to)

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily revenue: %w", err)
	}
	defer rows.Close()

	out := []ports.DailyRevenue{}
	for rows.Next() {
		var d ports.DailyRevenue
		if err := rows.Scan(&d.Day, &d.SaleCount, &d.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan daily revenue: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// TopProducts ranks products by units sold across all sales.
func (r *SalesReportRepository) TopProducts(ctx context.Context, limit int) ([]ports.ProductSales, error) {
	if limit <= 0 {
		limit = 10
	}

	query, args, err := psql.Select(
		"item->>'product_id' AS product_id",
		"MAX(item->>'name')",
		"SUM((item->>'quantity')::bigint) AS units",
		"SUM((item->>'line_total')::numeric)",
	).From("sales_log, jsonb_array_elements(items) AS item").
		GroupBy("product_id").
		OrderBy("units DESC", "product_id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	defer rows.Close()

	out := []ports.ProductSales{}
	for rows.Next() {
		var p ports.ProductSales
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Units, &p.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan product sales: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func withinPeriod(qb squirrel.SelectBuilder, from, to time.Time) squirrel.SelectBuilder {
	if !from.IsZero() {
		qb = qb.Where(squirrel.GtOrEq{"completed_at": from})
	}
	if !to.IsZero() {
		qb = qb.Where(squirrel.Lt{"completed_at": to})
	}
	return qb
}
