// internal/workers/invoice_processor.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/ammerola/pos-engine/internal/adapters/printer"
	"github.com/ammerola/pos-engine/internal/adapters/storage"
	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/ports"
	"github.com/ammerola/pos-engine/internal/core/services"
	"github.com/ammerola/pos-engine/internal/pkg/logger"
)

// InvoiceProcessor prints and archives invoices of committed sales.
type InvoiceProcessor struct {
	sales      ports.SalesService
	printer    ports.InvoicePrinter
	storage    ports.FileStorage
	invoiceDir string
	logger     *slog.Logger
}

// NewInvoiceProcessor creates the processor. An empty invoiceDir skips the
// local copy written next to the archived one.
func NewInvoiceProcessor(
	sales ports.SalesService,
	invoicePrinter ports.InvoicePrinter,
	fileStorage ports.FileStorage,
	invoiceDir string,
	logger *slog.Logger,
) *InvoiceProcessor {
	return &InvoiceProcessor{
		sales:      sales,
		printer:    invoicePrinter,
		storage:    fileStorage,
		invoiceDir: invoiceDir,
		logger:     logger.With(slog.String("processor", "invoice")),
	}
}

// PrintInvoice renders the sale's invoice and sends it to the printer.
func (p *InvoiceProcessor) PrintInvoice(ctx context.Context, t *asynq.Task) error {
	var payload InvoicePayload
	if err := decode(t, &payload); err != nil {
		return err
	}
	ctx = logger.WithSaleID(ctx, payload.SaleID)

	text, err := p.render(ctx, payload)
	if err != nil {
		return err
	}

	if err := p.printer.Print(ctx, text); err != nil {
		if errors.Is(err, printer.ErrPrinterUnavailable) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to print invoice: %w", err)
	}

	p.logger.InfoContext(ctx, "invoice printed")
	return nil
}

// ArchiveInvoice uploads the rendered invoice to file storage and keeps a
// copy in the invoice directory.
func (p *InvoiceProcessor) ArchiveInvoice(ctx context.Context, t *asynq.Task) error {
	var payload InvoicePayload
	if err := decode(t, &payload); err != nil {
		return err
	}
	ctx = logger.WithSaleID(ctx, payload.SaleID)

	record, err := p.sales.Get(ctx, payload.SaleID)
	if err != nil {
		return notFoundIsFinal(err)
	}
	text, err := p.render(ctx, payload)
	if err != nil {
		return err
	}

	key := storage.InvoiceKey(record.SaleID, record.Timestamp)
	location, err := p.storage.Upload(ctx, key, strings.NewReader(text), "text/plain; charset=utf-8")
	if err != nil {
		return fmt.Errorf("failed to archive invoice: %w", err)
	}

	if p.invoiceDir != "" {
		path, err := printer.Save(p.invoiceDir, record.SaleID, text)
		if err != nil {
			p.logger.WarnContext(ctx, "failed to save local invoice copy",
				slog.String("error", err.Error()))
		} else {
			p.logger.DebugContext(ctx, "invoice saved", slog.String("path", path))
		}
	}

	p.logger.InfoContext(ctx, "invoice archived",
		slog.String("key", key),
		slog.String("location", location))
	return nil
}

func (p *InvoiceProcessor) render(ctx context.Context, payload InvoicePayload) (string, error) {
	text, err := p.sales.Invoice(ctx, payload.SaleID, domain.AppSettings{
		Language: payload.Language,
		Currency: payload.Currency,
	})
	if err != nil {
		return "", notFoundIsFinal(err)
	}
	return text, nil
}

func notFoundIsFinal(err error) error {
	if errors.Is(err, services.ErrSaleNotFound) {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return fmt.Errorf("failed to load sale: %w", err)
}
