// internal/adapters/memory/reports.go
package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ammerola/pos-engine/internal/core/ports"
)

var _ ports.SalesReportRepository = (*Store)(nil)

// Summary aggregates sales completed in [from, to). Zero bounds are open.
func (s *Store) Summary(ctx context.Context, from, to time.Time) (*ports.SalesSummary, error) {
	if err := s.failure("Summary"); err != nil {
		return nil, err
	}
	out := &ports.SalesSummary{Subtotal: decimal.Zero, Tax: decimal.Zero, Revenue: decimal.Zero}
	for _, rec := range s.live().st.sales {
		if !inPeriod(rec.Timestamp, from, to) {
			continue
		}
		out.SaleCount++
		out.ItemCount += int64(rec.ItemCount())
		out.Subtotal = out.Subtotal.Add(rec.Subtotal)
		out.Tax = out.Tax.Add(rec.Tax)
		out.Revenue = out.Revenue.Add(rec.Total)
	}
	return out, nil
}

// DailyRevenue groups sales by UTC calendar day, oldest first.
func (s *Store) DailyRevenue(ctx context.Context, from, to time.Time) ([]ports.DailyRevenue, error) {
	if err := s.failure("DailyRevenue"); err != nil {
		return nil, err
	}
	byDay := map[time.Time]*ports.DailyRevenue{}
	for _, rec := range s.live().st.sales {
		if !inPeriod(rec.Timestamp, from, to) {
			continue
		}
		day := rec.Timestamp.UTC().Truncate(24 * time.Hour)
		d, ok := byDay[day]
		if !ok {
			d = &ports.DailyRevenue{Day: day, Revenue: decimal.Zero}
			byDay[day] = d
		}
		d.SaleCount++
		d.Revenue = d.Revenue.Add(rec.Total)
	}

	out := make([]ports.DailyRevenue, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

// TopProducts ranks products by units sold, ties broken by product id.
func (s *Store) TopProducts(ctx context.Context, limit int) ([]ports.ProductSales, error) {
	if err := s.failure("TopProducts"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	byID := map[string]*ports.ProductSales{}
	for _, rec := range s.live().st.sales {
		for _, line := range rec.Items {
			p, ok := byID[line.ProductID]
			if !ok {
				p = &ports.ProductSales{ProductID: line.ProductID, Name: line.Name, Revenue: decimal.Zero}
				byID[line.ProductID] = p
			}
			p.Units += int64(line.Quantity)
			p.Revenue = p.Revenue.Add(line.LineTotal)
		}
	}

	out := make([]ports.ProductSales, 0, len(byID))
	for _, p := range byID {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Units != out[j].Units {
			return out[i].Units > out[j].Units
		}
		return out[i].ProductID < out[j].ProductID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func inPeriod(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}
