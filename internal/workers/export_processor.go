// internal/workers/export_processor.go
package workers

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/pos-engine/internal/adapters/spreadsheet"
	"github.com/ammerola/pos-engine/internal/adapters/storage"
	"github.com/ammerola/pos-engine/internal/core/ports"
)

// ExportProcessor writes XLSX exports of the catalog or the sales log to file storage.
type ExportProcessor struct {
	inventory ports.InventoryService
	sales     ports.SalesService
	storage   ports.FileStorage
	now       func() time.Time
	logger    *slog.Logger
}

func NewExportProcessor(
	inventory ports.InventoryService,
	sales ports.SalesService,
	fileStorage ports.FileStorage,
	logger *slog.Logger,
) *ExportProcessor {
	return &ExportProcessor{
		inventory: inventory,
		sales:     sales,
		storage:   fileStorage,
		now:       time.Now,
		logger:    logger.With(slog.String("processor", "export")),
	}
}

// Export builds the workbook for the requested kind and uploads it under exports/.
func (p *ExportProcessor) Export(ctx context.Context, t *asynq.Task) error {
	var payload ExportPayload
	if err := decode(t, &payload); err != nil {
		return err
	}
	if payload.Kind == "" {
		payload.Kind = ExportSales
	}

	var buf bytes.Buffer
	rows := 0
	switch payload.Kind {
	case ExportSales:
		history, err := p.sales.History(ctx, payload.Limit)
		if err != nil {
			return fmt.Errorf("failed to load sales: %w", err)
		}
		if err := spreadsheet.WriteSales(&buf, history.Sales); err != nil {
			return err
		}
		rows = history.Count
	case ExportProducts:
		products, err := p.inventory.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to load products: %w", err)
		}
		if err := spreadsheet.WriteProducts(&buf, products); err != nil {
			return err
		}
		rows = len(products)
	default:
		return fmt.Errorf("unknown export kind %q: %w", payload.Kind, asynq.SkipRetry)
	}

	key := storage.ExportKey(payload.Kind, p.now())
	location, err := p.storage.Upload(ctx, key, &buf, spreadsheet.ContentType)
	if err != nil {
		return fmt.Errorf("failed to upload export: %w", err)
	}

	p.logger.InfoContext(ctx, "export completed",
		slog.String("kind", payload.Kind),
		slog.Int("rows", rows),
		slog.String("key", key),
		slog.String("location", location))
	return nil
}
