// test/benchmarks/checkout_bench_test.go
package benchmarks

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ammerola/pos-engine/internal/adapters/memory"
	"github.com/ammerola/pos-engine/internal/adapters/pricelist"
	"github.com/ammerola/pos-engine/internal/adapters/spreadsheet"
	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/services"
	"github.com/ammerola/pos-engine/test/helpers"
)

func BenchmarkInventoryOperations(b *testing.B) {
	store := memory.NewStore()
	store.Seed(helpers.CreateTestProducts(500)...)
	bus := services.NewEventBus(helpers.TestLogger())
	inventory := services.NewInventoryService(store, store, nil, bus, services.InventoryConfig{LowStockThreshold: 5}, helpers.TestLogger())
	ctx := context.Background()

	b.Run("Get", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _, _ = inventory.Get(ctx, fmt.Sprintf("P%03d", i%500+1))
		}
	})

	b.Run("List", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = inventory.List(ctx)
		}
	})

	b.Run("AdjustStock", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = inventory.AdjustStock(ctx, fmt.Sprintf("P%03d", i%500+1), 1)
		}
	})

	b.Run("Upsert", func(b *testing.B) {
		batch := helpers.CreateTestProducts(100)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = inventory.Upsert(ctx, batch)
		}
	})
}

func BenchmarkFinalize(b *testing.B) {
	store := memory.NewStore()
	products := helpers.CreateTestProducts(10)
	for i := range products {
		products[i].Stock = 1 << 30
	}
	store.Seed(products...)

	bus := services.NewEventBus(helpers.TestLogger())
	inventory := services.NewInventoryService(store, store, nil, bus, services.InventoryConfig{}, helpers.TestLogger())
	checkout := services.NewCoordinator(store, store, bus, services.CheckoutConfig{
		TaxRate: decimal.RequireFromString("0.08"),
	}, helpers.TestLogger())
	ctx := context.Background()

	snapshot, err := inventory.Snapshot(ctx)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cart := domain.NewCart()
		for j := 0; j < 5; j++ {
			if err := cart.AddLine(fmt.Sprintf("P%03d", j+1), 2, snapshot); err != nil {
				b.Fatal(err)
			}
		}
		if _, err := checkout.Finalize(ctx, cart); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRenderInvoice(b *testing.B) {
	record := &domain.SaleRecord{SaleID: 42, Subtotal: decimal.Zero, Tax: decimal.Zero, Total: decimal.Zero}
	for i := 0; i < 20; i++ {
		price := decimal.NewFromInt(int64(i + 1)).Add(decimal.RequireFromString("0.99"))
		record.Items = append(record.Items, domain.SaleLine{
			ProductID: fmt.Sprintf("P%03d", i),
			Name:      fmt.Sprintf("Product number %d", i),
			UnitPrice: price,
			Quantity:  3,
			LineTotal: price.Mul(decimal.NewFromInt(3)),
		})
		record.Subtotal = record.Subtotal.Add(price.Mul(decimal.NewFromInt(3)))
	}
	record.Total = record.Subtotal

	for _, lang := range []string{"en", "fr", "ar"} {
		cfg := services.NewFormattingConfig(domain.AppSettings{Language: lang, Currency: "EUR"})
		b.Run(lang, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = services.RenderInvoice(record, cfg)
			}
		})
	}
}

func BenchmarkPriceListParsing(b *testing.B) {
	lines := []string{"SKU   DESCRIPTION          QTY   PRICE"}
	for i := 0; i < 500; i++ {
		lines = append(lines, fmt.Sprintf("B-%d House blend %dg   %d   $%d.50", i, 250+i, i%40, 5+i%30))
	}
	lines = append(lines, "TOTAL")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = pricelist.ParseLines(lines)
	}
}

func BenchmarkSpreadsheetExport(b *testing.B) {
	products := helpers.CreateTestProducts(1000)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		if err := spreadsheet.WriteProducts(&buf, products); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCartLookup(b *testing.B) {
	store := memory.NewStore()
	store.Seed(helpers.CreateTestProducts(200)...)
	inventory := services.NewInventoryService(store, store, nil, services.NewEventBus(helpers.TestLogger()), services.InventoryConfig{}, helpers.TestLogger())
	snapshot, err := inventory.Snapshot(context.Background())
	if err != nil {
		b.Fatal(err)
	}

	cart := domain.NewCart()
	for i := 0; i < 50; i++ {
		_ = cart.AddLine(fmt.Sprintf("P%03d", i+1), 1, snapshot)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = cart.Line(fmt.Sprintf("P%03d", i%50+1))
		_ = cart.Subtotal()
	}
}
