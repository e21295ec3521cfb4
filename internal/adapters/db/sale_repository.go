// internal/adapters/db/sale_repository.go
package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/ports"
)

// saleIDLock serializes id assignment between concurrent sale commits.
// The advisory lock is released when the enclosing transaction ends.
const saleIDLock int64 = 0x706f735f73616c65

var saleColumns = []string{"sale_id", "completed_at", "subtotal", "tax", "total", "items"}

// SaleRepository is the append-only sales log on PostgreSQL.
type SaleRepository struct {
	q      querier
	logger *slog.Logger
}

var _ ports.SaleRepository = (*SaleRepository)(nil)

// NewSaleRepository creates a sale repository bound to the pool.
func NewSaleRepository(db *Database, logger *slog.Logger) *SaleRepository {
	return newSaleRepository(db.Pool(), logger)
}

func newSaleRepository(q querier, logger *slog.Logger) *SaleRepository {
	return &SaleRepository{
		q:      q,
		logger: logger.With(slog.String("repository", "sales")),
	}
}

// NextSaleID returns the next sequential id. Called inside a transaction
// it holds an advisory lock until commit, so ids have no gaps or repeats.
func (r *SaleRepository) NextSaleID(ctx context.Context) (int64, error) {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, saleIDLock); err != nil {
		return 0, fmt.Errorf("failed to lock sale ids: %w", err)
	}

	var next int64
	if err := r.q.QueryRow(ctx, `SELECT COALESCE(MAX(sale_id), 0) + 1 FROM sales_log`).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to assign sale id: %w", err)
	}
	return next, nil
}

// AppendSaleRecord writes one sale. Line items are stored as JSONB.
func (r *SaleRepository) AppendSaleRecord(ctx context.Context, record *domain.SaleRecord) error {
	items, err := json.Marshal(record.Items)
	if err != nil {
		return fmt.Errorf("failed to encode sale items: %w", err)
	}

	query, args, err := psql.Insert("sales_log").
		Columns("sale_id", "completed_at", "subtotal", "tax", "total", "item_count", "items").
		Values(record.SaleID, record.Timestamp, record.Subtotal, record.Tax, record.Total, record.ItemCount(), items).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to append sale %d: %w", record.SaleID, err)
	}

	r.logger.DebugContext(ctx, "sale appended", slog.Int64("sale_id", record.SaleID))
	return nil
}

// FindByID returns nil, nil when the sale does not exist.
func (r *SaleRepository) FindByID(ctx context.Context, saleID int64) (*domain.SaleRecord, error) {
	query, args, err := psql.Select(saleColumns...).
		From("sales_log").
		Where(squirrel.Eq{"sale_id": saleID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	record, err := scanSale(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find sale: %w", err)
	}
	return record, nil
}

// ListSaleRecords returns sales newest first. limit <= 0 returns all of them.
func (r *SaleRepository) ListSaleRecords(ctx context.Context, limit int) ([]domain.SaleRecord, error) {
	qb := psql.Select(saleColumns...).
		From("sales_log").
		OrderBy("completed_at DESC", "sale_id DESC")
	if limit > 0 {
		qb = qb.Limit(uint64(limit))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	records := []domain.SaleRecord{}
	for rows.Next() {
		record, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sales: %w", err)
	}
	return records, nil
}

func scanSale(row pgx.Row) (*domain.SaleRecord, error) {
	var (
		record domain.SaleRecord
		items  []byte
	)
	if err := row.Scan(&record.SaleID, &record.Timestamp, &record.Subtotal, &record.Tax, &record.Total, &items); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &record.Items); err != nil {
		return nil, fmt.Errorf("failed to decode sale items: %w", err)
	}
	record.Timestamp = record.Timestamp.UTC()
	return &record, nil
}
