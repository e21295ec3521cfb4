// internal/core/services/tx.go
package services

import (
	"context"
	"fmt"

	"github.com/ammerola/pos-engine/internal/core/ports"
)

// WithinTx runs fn inside a transaction from uow. The transaction is rolled
// back when fn returns an error or panics; a panic is re-raised after rollback.
func WithinTx(ctx context.Context, uow ports.UnitOfWork, fn func(ctx context.Context, tx ports.Tx) error) error {
	tx, err := uow.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx failed: %w, rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
