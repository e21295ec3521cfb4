// internal/core/services/invoice_test.go
package services_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/services"
)

func saleLine(id, name, price string, qty int) domain.SaleLine {
	p := decimal.RequireFromString(price)
	return domain.SaleLine{
		ProductID: id,
		Name:      name,
		UnitPrice: p,
		Quantity:  qty,
		LineTotal: p.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func saleRecord(taxRate string, lines ...domain.SaleLine) *domain.SaleRecord {
	totals := domain.ComputeTotals(lines, decimal.RequireFromString(taxRate))
	return &domain.SaleRecord{
		SaleID:    17,
		Timestamp: fixedNow,
		Subtotal:  totals.Subtotal,
		Tax:       totals.Tax,
		Total:     totals.Total,
		Items:     lines,
	}
}

func english() services.FormattingConfig {
	return services.NewFormattingConfig(domain.AppSettings{Language: "en", Currency: "USD"})
}

func TestRenderInvoice_EmptySale(t *testing.T) {
	out := services.RenderInvoice(saleRecord("0"), english())
	lines := strings.Split(out, "\n")

	require.Len(t, lines, 12)
	assert.Equal(t, "POS System Invoice", strings.TrimSpace(lines[0]))
	assert.Equal(t, "Sale # 17", lines[2])
	assert.Equal(t, "Completed: 2026-05-04 10:30:15", lines[3])
	assert.Contains(t, lines[8], "Subtotal:")
	assert.True(t, strings.HasSuffix(lines[8], "$0.00"))
	assert.Contains(t, lines[9], "Balance Due:")
	assert.True(t, strings.HasSuffix(lines[9], "$0.00"))
	assert.Equal(t, "Thank you for shopping with us!", lines[11])
	assert.Equal(t, strings.Repeat("-", 72), lines[6])
	assert.Equal(t, strings.Repeat("-", 72), lines[7])
	assert.NotContains(t, out, "Tax:")
}

func TestRenderInvoice_Lines(t *testing.T) {
	record := saleRecord("0.15",
		saleLine("P1", "Coffee", "2.50", 6),
		saleLine("P2", "Mug", "1234.99", 1),
	)

	out := services.RenderInvoice(record, english())
	lines := strings.Split(out, "\n")

	require.Len(t, lines, 15)
	assert.Equal(t, "P1        Coffee                        6           $2.50         $15.00", lines[7])
	assert.Equal(t, "P2        Mug                           1       $1,234.99      $1,234.99", lines[8])
	for _, l := range lines[1:12] {
		assert.LessOrEqual(t, utf8.RuneCountInString(l), 72, l)
	}
	assert.True(t, strings.HasSuffix(lines[10], "$1,249.99"))
	assert.Contains(t, lines[11], "Tax:")
	assert.True(t, strings.HasSuffix(lines[11], "$187.50"), lines[11])
	assert.True(t, strings.HasSuffix(lines[12], "$1,437.49"), lines[12])
}

func TestRenderInvoice_Deterministic(t *testing.T) {
	record := saleRecord("0.08", saleLine("P1", "Coffee", "2.50", 3))

	first := services.RenderInvoice(record, english())
	second := services.RenderInvoice(record, english())

	assert.Equal(t, first, second)
}

func TestRenderInvoice_TruncatesLongNames(t *testing.T) {
	tests := []struct {
		name     string
		product  string
		expected string
	}{
		{name: "fits", product: "Exactly twenty-six chars!!", expected: "Exactly twenty-six chars!!"},
		{name: "truncated", product: "Single origin Ethiopian Yirgacheffe", expected: "Single origin Ethiopian..."},
		{name: "multibyte", product: "Café au lait très spécial en grains", expected: "Café au lait très spéci..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := services.RenderInvoice(saleRecord("0", saleLine("P1", tt.product, "1.00", 1)), english())
			row := strings.Split(out, "\n")[7]
			assert.Contains(t, row, tt.expected)
		})
	}
}

func TestRenderInvoice_LongProductIDKeepsColumns(t *testing.T) {
	record := saleRecord("0",
		saleLine("SKU-ETH-YIRGA-250", "Ethiopian beans", "11.00", 2),
		saleLine("P2", "Mug", "9.99", 1),
	)

	lines := strings.Split(services.RenderInvoice(record, english()), "\n")

	assert.Equal(t, "SKU-ETH...Ethiopian beans               2          $11.00         $22.00", lines[7])
	assert.Equal(t, "P2        Mug                           1           $9.99          $9.99", lines[8])
	assert.Equal(t, utf8.RuneCountInString(lines[8]), utf8.RuneCountInString(lines[7]))
}

func TestRenderInvoice_Localized(t *testing.T) {
	cfg := services.NewFormattingConfig(domain.AppSettings{Language: "es", Currency: "EUR"})
	out := services.RenderInvoice(saleRecord("0.10", saleLine("P1", "Café", "2.50", 2)), cfg)

	assert.Contains(t, out, "Factura del sistema POS")
	assert.Contains(t, out, "Venta # 17")
	assert.Contains(t, out, "Impuesto:")
	assert.Contains(t, out, "5.50 €")
	assert.Contains(t, out, "¡Gracias por su compra!")
}

func TestRenderInvoice_UnknownSettingsFallBack(t *testing.T) {
	cfg := services.NewFormattingConfig(domain.AppSettings{Language: "xx", Currency: "ZZZ"})
	out := services.RenderInvoice(saleRecord("0", saleLine("P1", "Coffee", "2.50", 1)), cfg)

	assert.Contains(t, out, "POS System Invoice")
	assert.Contains(t, out, "$2.50")
}
