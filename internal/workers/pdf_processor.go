// internal/workers/pdf_processor.go
package workers

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/pos-engine/internal/adapters/pricelist"
	"github.com/ammerola/pos-engine/internal/core/ports"
)

// PDFProcessor imports catalogs from supplier price list PDFs.
type PDFProcessor struct {
	catalogImport
	reader *pricelist.Reader
}

// NewPDFProcessor creates a new PDF processor
func NewPDFProcessor(inventory ports.InventoryService, jobs ports.JobRepository, logger *slog.Logger) *PDFProcessor {
	logger = logger.With(slog.String("processor", "pdf"))
	return &PDFProcessor{
		catalogImport: catalogImport{
			inventory: inventory,
			jobs:      jobs,
			logger:    logger,
		},
		reader: pricelist.NewReader(logger),
	}
}

// ImportPDF extracts the price list rows and upserts their products.
func (p *PDFProcessor) ImportPDF(ctx context.Context, t *asynq.Task) error {
	return p.run(ctx, t, p.reader.ReadFile)
}
