// internal/adapters/db/unit_of_work.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/ammerola/pos-engine/internal/core/ports"
)

// UnitOfWork begins pgx transactions that expose transaction-bound repositories.
type UnitOfWork struct {
	db     *Database
	logger *slog.Logger
}

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

func NewUnitOfWork(db *Database, logger *slog.Logger) *UnitOfWork {
	return &UnitOfWork{db: db, logger: logger}
}

// Begin opens a read-committed transaction. Stock updates are guarded
// row-by-row, so a stronger isolation level is not needed.
func (u *UnitOfWork) Begin(ctx context.Context) (ports.Tx, error) {
	tx, err := u.db.Pool().BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &pgTx{
		tx:       tx,
		products: newProductRepository(tx, u.logger),
		sales:    newSaleRepository(tx, u.logger),
	}, nil
}

type pgTx struct {
	tx       pgx.Tx
	products *ProductRepository
	sales    *SaleRepository
}

func (t *pgTx) Products() ports.ProductRepository { return t.products }

func (t *pgTx) Sales() ports.SaleRepository { return t.sales }

func (t *pgTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}
