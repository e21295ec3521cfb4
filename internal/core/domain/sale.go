// internal/core/domain/sale.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleLine is the frozen copy of a cart line stored with a sale.
type SaleLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// SaleRecord is the immutable ledger entry for a committed sale.
type SaleRecord struct {
	SaleID    int64           `json:"sale_id"`
	Timestamp time.Time       `json:"timestamp"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
	Items     []SaleLine      `json:"items"`
}

// Totals holds the money figures computed for a sale.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals sums line totals and applies taxRate to the subtotal.
// No rounding is applied; presentation rounds.
func ComputeTotals(lines []SaleLine, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal)
	}
	tax := subtotal.Mul(taxRate)
	return Totals{Subtotal: subtotal, Tax: tax, Total: subtotal.Add(tax)}
}

// FreezeLines converts cart lines into sale lines.
func FreezeLines(lines []CartLine) []SaleLine {
	out := make([]SaleLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, SaleLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			LineTotal: l.LineTotal(),
		})
	}
	return out
}

// ItemCount returns the number of units sold.
func (s *SaleRecord) ItemCount() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

// IsBalanced reports whether Subtotal = sum(line totals) and Total = Subtotal + Tax.
func (s *SaleRecord) IsBalanced() bool {
	sum := decimal.Zero
	for _, it := range s.Items {
		sum = sum.Add(it.LineTotal)
	}
	return sum.Equal(s.Subtotal) && s.Subtotal.Add(s.Tax).Equal(s.Total)
}
