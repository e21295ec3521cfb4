// internal/workers/import_job.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/ports"
)

type parseFunc func(path string) (*domain.ParsedCatalog, error)

// catalogImport runs one import job: parse the upload, upsert the products
// and record the outcome on the job. The upload is removed on every path.
type catalogImport struct {
	inventory ports.InventoryService
	jobs      ports.JobRepository
	logger    *slog.Logger
}

func (c *catalogImport) run(ctx context.Context, t *asynq.Task, parse parseFunc) error {
	start := time.Now()

	var payload ImportPayload
	if err := decode(t, &payload); err != nil {
		return err
	}
	defer c.removeUpload(ctx, payload.FilePath)

	log := c.logger.With(slog.String("job_id", payload.JobID))
	log.InfoContext(ctx, "processing catalog import", slog.String("file_path", payload.FilePath))

	c.setStatus(ctx, payload.JobID, domain.JobProcessing, "")

	parsed, err := parse(payload.FilePath)
	if err != nil {
		c.setStatus(ctx, payload.JobID, domain.JobFailed, err.Error())
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	result, err := c.inventory.Upsert(ctx, parsed.Products)
	if err != nil {
		msg := fmt.Sprintf("failed to save products: %v", err)
		c.setStatus(ctx, payload.JobID, domain.JobFailed, msg)
		return fmt.Errorf("%s: %w", msg, asynq.SkipRetry)
	}

	stats := &domain.ImportStats{
		RowsRead:       parsed.RowsRead,
		Created:        result.Created,
		Updated:        result.Updated,
		Errors:         append(append([]string{}, parsed.Errors...), result.Errors...),
		ProcessingTime: time.Since(start).String(),
	}
	status := domain.JobCompleted
	if len(stats.Errors) > 0 {
		status = domain.JobCompletedWithErrors
	}
	if err := c.jobs.Complete(ctx, payload.JobID, status, stats); err != nil {
		log.WarnContext(ctx, "failed to record import result", slog.String("error", err.Error()))
	}

	log.InfoContext(ctx, "catalog import completed",
		slog.String("status", string(status)),
		slog.Int("rows_read", stats.RowsRead),
		slog.Int("created", stats.Created),
		slog.Int("updated", stats.Updated),
		slog.Int("errors", len(stats.Errors)))
	return nil
}

func (c *catalogImport) setStatus(ctx context.Context, jobID string, status domain.JobStatus, errMsg string) {
	if err := c.jobs.UpdateStatus(ctx, jobID, status, errMsg); err != nil {
		c.logger.WarnContext(ctx, "failed to update job status",
			slog.String("job_id", jobID),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
	}
}

func (c *catalogImport) removeUpload(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		c.logger.WarnContext(ctx, "failed to remove upload",
			slog.String("file_path", path),
			slog.String("error", err.Error()))
	}
}
