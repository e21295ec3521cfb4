// internal/core/services/invoice.go
package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/pkg/locale"
)

const (
	invoiceWidth     = 72
	invoiceIDWidth   = 10
	invoiceNameWidth = 26
	invoiceLabelCol  = 56
	invoiceValueCol  = 16
)

// FormattingConfig supplies labels and money formatting to RenderInvoice.
type FormattingConfig struct {
	Language string
	Currency locale.Currency
	Catalog  *locale.Catalog
}

// NewFormattingConfig builds a config from operator settings using the
// built-in catalog.
func NewFormattingConfig(settings domain.AppSettings) FormattingConfig {
	return FormattingConfig{
		Language: locale.NormalizeLanguage(settings.Language),
		Currency: locale.LookupCurrency(settings.Currency),
		Catalog:  locale.Default(),
	}
}

func (f FormattingConfig) t(key string) string {
	catalog := f.Catalog
	if catalog == nil {
		catalog = locale.Default()
	}
	return catalog.Translate(f.Language, key, nil)
}

// RenderInvoice lays out a committed sale as fixed-width plain text. It has
// no side effects and returns identical output for identical input.
func RenderInvoice(record *domain.SaleRecord, cfg FormattingConfig) string {
	rule := func(ch string) string { return strings.Repeat(ch, invoiceWidth) }

	lines := []string{
		center(cfg.t("invoice.header"), invoiceWidth),
		rule("="),
		fmt.Sprintf("%s %d", cfg.t("invoice.sale_number"), record.SaleID),
		fmt.Sprintf("%s %s", cfg.t("invoice.completed"), record.Timestamp.UTC().Format("2006-01-02 15:04:05")),
		rule("="),
		fmt.Sprintf("%-10s%-26s%5s%16s%15s",
			cfg.t("invoice.column.id"),
			cfg.t("invoice.column.product"),
			cfg.t("invoice.column.qty"),
			cfg.t("invoice.column.price"),
			cfg.t("invoice.column.total")),
		rule("-"),
	}

	cur := cfg.currency()
	for _, item := range record.Items {
		lines = append(lines, fmt.Sprintf("%-10s%-26s%5d%16s%15s",
			truncate(item.ProductID, invoiceIDWidth),
			truncate(item.Name, invoiceNameWidth),
			item.Quantity,
			cur.Format(item.UnitPrice),
			cur.Format(item.LineTotal)))
	}

	lines = append(lines, rule("-"))
	lines = append(lines, summaryRow(cfg.t("invoice.subtotal"), cur.Format(record.Subtotal)))
	if !record.Tax.IsZero() {
		lines = append(lines, summaryRow(cfg.t("invoice.tax"), cur.Format(record.Tax)))
	}
	lines = append(lines, summaryRow(cfg.t("invoice.total"), cur.Format(record.Total)))
	lines = append(lines, rule("="))
	lines = append(lines, cfg.t("invoice.footer"))

	return strings.Join(lines, "\n")
}

func (f FormattingConfig) currency() locale.Currency {
	if f.Currency.Code == "" {
		return locale.LookupCurrency(locale.DefaultCurrency)
	}
	return f.Currency
}

func summaryRow(label, value string) string {
	return fmt.Sprintf("%*s%*s", invoiceLabelCol, label, invoiceValueCol, value)
}

// truncate shortens s to width runes, ending in "..." when cut.
func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

func center(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}
