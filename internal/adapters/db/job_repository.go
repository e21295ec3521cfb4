// internal/adapters/db/job_repository.go
package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/ports"
)

// JobRepository stores import job status in the import_jobs table.
type JobRepository struct {
	q      querier
	logger *slog.Logger
}

var _ ports.JobRepository = (*JobRepository)(nil)

func NewJobRepository(db *Database, logger *slog.Logger) *JobRepository {
	return &JobRepository{
		q:      db.Pool(),
		logger: logger.With(slog.String("repository", "import_jobs")),
	}
}

func (r *JobRepository) Create(ctx context.Context, job *domain.ImportJob) error {
	query, args, err := psql.Insert("import_jobs").
		Columns("id", "kind", "file_name", "status", "created_at", "updated_at").
		Values(job.ID, job.Kind, job.FileName, job.Status, job.CreatedAt, job.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (r *JobRepository) Get(ctx context.Context, id string) (*domain.ImportJob, error) {
	query, args, err := psql.Select(
		"id::text", "kind", "file_name", "status", "COALESCE(error, '')", "result",
		"created_at", "updated_at", "completed_at",
	).From("import_jobs").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var (
		job    domain.ImportJob
		result []byte
	)
	err = r.q.QueryRow(ctx, query, args...).Scan(
		&job.ID, &job.Kind, &job.FileName, &job.Status, &job.Error, &result,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		if isNoRows(err) || pgErrorCode(err) == pgInvalidText {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	if len(result) > 0 {
		job.Result = &domain.ImportStats{}
		if err := json.Unmarshal(result, job.Result); err != nil {
			return nil, fmt.Errorf("failed to decode job result: %w", err)
		}
	}
	return &job, nil
}

func (r *JobRepository) UpdateStatus(ctx context.Context, id string, status domain.JobStatus, errMsg string) error {
	const query = `
		UPDATE import_jobs
		SET status = $2, error = NULLIF($3, ''), updated_at = now()
		WHERE id = $1`

	if _, err := r.q.Exec(ctx, query, id, status, errMsg); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}

func (r *JobRepository) Complete(ctx context.Context, id string, status domain.JobStatus, stats *domain.ImportStats) error {
	result, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode job result: %w", err)
	}

	const query = `
		UPDATE import_jobs
		SET status = $2, result = $3, completed_at = now(), updated_at = now()
		WHERE id = $1`

	if _, err := r.q.Exec(ctx, query, id, status, result); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	r.logger.DebugContext(ctx, "job completed",
		slog.String("job_id", id),
		slog.String("status", string(status)))
	return nil
}

// DeleteFinishedBefore removes jobs that completed before the cutoff.
func (r *JobRepository) DeleteFinishedBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM import_jobs WHERE completed_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}
