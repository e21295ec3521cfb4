// internal/workers/tasks.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/ports"
)

const (
	TypeInvoicePrint     = "invoice:print"
	TypeInvoiceArchive   = "invoice:archive"
	TypeLowStockAlert    = "stock:low_alert"
	TypeExport           = "sales:export"
	TypeImportExcel      = "catalog:import_excel"
	TypeImportPDF        = "catalog:import_pdf"
	TypeCleanupTempFiles = "cleanup:temp_files"
	TypeCleanupOldJobs   = "cleanup:old_jobs"
	TypeRefreshAnalytics = "analytics:refresh"
)

// Queue names, matching ASYNQ_QUEUES.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// InvoicePayload names the sale to print or archive. Empty language and
// currency use the stored operator preferences.
type InvoicePayload struct {
	SaleID   int64  `json:"sale_id"`
	Language string `json:"language,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// LowStockPayload lists the stock movements that took products under the threshold.
type LowStockPayload struct {
	Threshold int                  `json:"threshold"`
	Changes   []domain.StockChange `json:"changes"`
}

// Export kinds.
const (
	ExportSales    = "sales"
	ExportProducts = "products"
)

// ExportPayload selects what to export. Limit applies to sales only.
type ExportPayload struct {
	Kind  string `json:"kind"`
	Limit int    `json:"limit,omitempty"`
}

// ImportPayload points at an uploaded catalog file and its job record.
type ImportPayload struct {
	JobID    string `json:"job_id"`
	FilePath string `json:"file_path"`
}

// QueueFor routes a task type to its queue.
func QueueFor(taskType string) string {
	switch {
	case strings.HasPrefix(taskType, "invoice:"):
		return QueueCritical
	case strings.HasPrefix(taskType, "cleanup:"), taskType == TypeRefreshAnalytics:
		return QueueLow
	default:
		return QueueDefault
	}
}

// TaskOptions returns the enqueue options for a task type. Imports run once:
// the upload is removed after the first attempt.
func TaskOptions(taskType string, maxRetry int) []asynq.Option {
	if taskType == TypeImportExcel || taskType == TypeImportPDF {
		maxRetry = 0
	}
	return []asynq.Option{
		asynq.Queue(QueueFor(taskType)),
		asynq.MaxRetry(maxRetry),
		asynq.Retention(24 * time.Hour),
	}
}

// NewTask encodes payload as JSON into an asynq task.
func NewTask(taskType string, payload any) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", taskType, err)
	}
	return asynq.NewTask(taskType, b), nil
}

// decode unmarshals a task payload. A malformed payload is never retried.
func decode(t *asynq.Task, dest any) error {
	if err := json.Unmarshal(t.Payload(), dest); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	return nil
}

// Queue enqueues tasks on asynq.
type Queue struct {
	client   *asynq.Client
	maxRetry int
	logger   *slog.Logger
}

var _ ports.TaskQueue = (*Queue)(nil)

func NewQueue(client *asynq.Client, maxRetry int, logger *slog.Logger) *Queue {
	return &Queue{
		client:   client,
		maxRetry: maxRetry,
		logger:   logger.With(slog.String("component", "queue")),
	}
}

// Enqueue submits a task and returns its asynq id.
func (q *Queue) Enqueue(ctx context.Context, taskType string, payload any) (string, error) {
	task, err := NewTask(taskType, payload)
	if err != nil {
		return "", err
	}

	info, err := q.client.EnqueueContext(ctx, task, TaskOptions(taskType, q.maxRetry)...)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue %s: %w", taskType, err)
	}

	q.logger.DebugContext(ctx, "task enqueued",
		slog.String("type", taskType),
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue))

	return info.ID, nil
}
