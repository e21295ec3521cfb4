// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/pos-engine/internal/core/ports"
)

// CleanupConfig sets how long uploads and finished job records are kept.
type CleanupConfig struct {
	UploadDir    string
	MaxFileAge   time.Duration
	JobRetention time.Duration
}

// CleanupProcessor handles cleanup tasks
type CleanupProcessor struct {
	jobs   ports.JobRepository
	config CleanupConfig
	now    func() time.Time
	logger *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor
func NewCleanupProcessor(jobs ports.JobRepository, cfg CleanupConfig, logger *slog.Logger) *CleanupProcessor {
	if cfg.MaxFileAge <= 0 {
		cfg.MaxFileAge = 24 * time.Hour
	}
	if cfg.JobRetention <= 0 {
		cfg.JobRetention = 30 * 24 * time.Hour
	}
	return &CleanupProcessor{
		jobs:   jobs,
		config: cfg,
		now:    time.Now,
		logger: logger.With(slog.String("processor", "cleanup")),
	}
}

// CleanupOldJobs deletes finished import jobs past the retention period.
func (p *CleanupProcessor) CleanupOldJobs(ctx context.Context, _ *asynq.Task) error {
	p.logger.InfoContext(ctx, "cleaning up old import jobs")

	deleted, err := p.jobs.DeleteFinishedBefore(ctx, p.now().Add(-p.config.JobRetention))
	if err != nil {
		return fmt.Errorf("failed to cleanup import jobs: %w", err)
	}

	p.logger.InfoContext(ctx, "old import jobs cleaned up",
		slog.Int64("rows_deleted", deleted))
	return nil
}

// CleanupTempFiles removes uploads older than MaxFileAge. Imports that never
// ran leave their upload behind.
func (p *CleanupProcessor) CleanupTempFiles(ctx context.Context, _ *asynq.Task) error {
	p.logger.InfoContext(ctx, "cleaning up temp files")

	cutoff := p.now().Add(-p.config.MaxFileAge)
	var deletedCount int
	err := filepath.WalkDir(p.config.UploadDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().After(cutoff) {
			return nil
		}

		if err := os.Remove(path); err != nil {
			p.logger.WarnContext(ctx, "failed to delete temp file",
				slog.String("file", path),
				slog.String("error", err.Error()))
			return nil
		}
		deletedCount++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk temp directory: %w", err)
	}

	p.logger.InfoContext(ctx, "temp files cleaned up",
		slog.Int("files_deleted", deletedCount))
	return nil
}
