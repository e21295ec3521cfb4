// internal/adapters/storage/keys.go
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ammerola/pos-engine/internal/core/ports"
	"github.com/ammerola/pos-engine/internal/pkg/config"
)

// InvoiceKey is where the invoice for a sale is archived.
func InvoiceKey(saleID int64, completedAt time.Time) string {
	t := completedAt.UTC()
	return fmt.Sprintf("invoices/%04d/%02d/sale-%d.txt", t.Year(), int(t.Month()), saleID)
}

// ExportKey names a generated spreadsheet export.
func ExportKey(kind string, at time.Time) string {
	return fmt.Sprintf("exports/%s-%s.xlsx", kind, at.UTC().Format("20060102-150405"))
}

const (
	kindInvoice = "invoice"
	kindExport  = "export"
	kindOther   = "other"
)

func objectKind(key string) string {
	switch {
	case strings.HasPrefix(key, "invoices/"):
		return kindInvoice
	case strings.HasPrefix(key, "exports/"):
		return kindExport
	default:
		return kindOther
	}
}

// New returns S3 storage when invoice archiving is enabled, otherwise
// local storage rooted at localDir.
func New(ctx context.Context, cfg config.AWSConfig, localDir string, logger *slog.Logger) (ports.FileStorage, error) {
	if !cfg.ArchiveInvoices {
		return NewLocalStorage(localDir, logger), nil
	}
	return NewS3Storage(ctx, &S3Config{
		Region:          cfg.Region,
		Bucket:          cfg.S3Bucket,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		Endpoint:        cfg.S3Endpoint,
		UsePathStyle:    cfg.UsePathStyle,
	}, logger)
}
