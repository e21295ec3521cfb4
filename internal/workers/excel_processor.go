// internal/workers/excel_processor.go
package workers

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/pos-engine/internal/adapters/spreadsheet"
	"github.com/ammerola/pos-engine/internal/core/ports"
)

// ExcelProcessor imports catalogs uploaded as XLSX workbooks.
type ExcelProcessor struct {
	catalogImport
}

// NewExcelProcessor creates a new Excel processor
func NewExcelProcessor(inventory ports.InventoryService, jobs ports.JobRepository, logger *slog.Logger) *ExcelProcessor {
	return &ExcelProcessor{catalogImport{
		inventory: inventory,
		jobs:      jobs,
		logger:    logger.With(slog.String("processor", "excel")),
	}}
}

// ImportExcel reads the first sheet (Product ID, Name, Price, Stock) and
// upserts its products.
func (p *ExcelProcessor) ImportExcel(ctx context.Context, t *asynq.Task) error {
	return p.run(ctx, t, spreadsheet.ReadProducts)
}
