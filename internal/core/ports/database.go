// internal/core/ports/database.go
package ports

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Database is the connection pool as seen by health checks and test setup.
type Database interface {
	Pool() *pgxpool.Pool
	Close()
	Ping(ctx context.Context) error
	Health(ctx context.Context) map[string]interface{}
}

// UnitOfWork starts transactions spanning product and sale repositories.
type UnitOfWork interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is an open transaction. Repositories returned by Products and Sales
// operate inside it. Rollback after Commit is a no-op.
type Tx interface {
	Products() ProductRepository
	Sales() SaleRepository
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
