// internal/core/ports/storage.go
package ports

import (
	"context"
	"io"
	"time"

	"github.com/ammerola/pos-engine/internal/core/domain"
)

// FileStorage keeps archived invoices and spreadsheet exports.
type FileStorage interface {
	// Upload stores data under key and returns its location.
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// JobRepository persists import job status for polling clients.
type JobRepository interface {
	Create(ctx context.Context, job *domain.ImportJob) error
	// Get returns nil, nil when the job does not exist.
	Get(ctx context.Context, id string) (*domain.ImportJob, error)
	UpdateStatus(ctx context.Context, id string, status domain.JobStatus, errMsg string) error
	Complete(ctx context.Context, id string, status domain.JobStatus, stats *domain.ImportStats) error
	DeleteFinishedBefore(ctx context.Context, before time.Time) (int64, error)
}
