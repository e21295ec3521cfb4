// internal/adapters/memory/store_test.go
package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/pos-engine/internal/adapters/memory"
	"github.com/ammerola/pos-engine/internal/core/domain"
)

func seeded() *memory.Store {
	store := memory.NewStore()
	store.Seed(
		domain.Product{ProductID: "B2", Name: "Bagel", Price: decimal.RequireFromString("1.25"), Stock: 3},
		domain.Product{ProductID: "A1", Name: "Apple", Price: decimal.RequireFromString("0.50"), Stock: 10},
	)
	return store
}

func sale(id int64, at time.Time) *domain.SaleRecord {
	return &domain.SaleRecord{
		SaleID:    id,
		Timestamp: at,
		Items:     []domain.SaleLine{{ProductID: "A1", Name: "Apple", UnitPrice: decimal.RequireFromString("0.50"), Quantity: 1, LineTotal: decimal.RequireFromString("0.50")}},
		Subtotal:  decimal.RequireFromString("0.50"),
		Tax:       decimal.Zero,
		Total:     decimal.RequireFromString("0.50"),
	}
}

func TestStore_ProductsSortedByID(t *testing.T) {
	products, err := seeded().LoadProducts(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "A1", products[0].ProductID)
	assert.Equal(t, "B2", products[1].ProductID)
}

func TestStore_AdjustStock(t *testing.T) {
	tests := []struct {
		name      string
		productID string
		delta     int
		wantStock int
		wantErr   interface{}
	}{
		{name: "decrement", productID: "B2", delta: -2, wantStock: 1},
		{name: "restock", productID: "B2", delta: 5, wantStock: 8},
		{name: "to_zero", productID: "B2", delta: -3, wantStock: 0},
		{name: "oversell", productID: "B2", delta: -4, wantErr: &domain.InsufficientStockError{}},
		{name: "unknown", productID: "Z9", delta: -1, wantErr: &domain.ProductNotFoundError{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := seeded()

			stock, err := store.AdjustStock(ctx, tt.productID, tt.delta)

			if tt.wantErr != nil {
				require.Error(t, err)
				switch tt.wantErr.(type) {
				case *domain.InsufficientStockError:
					var e *domain.InsufficientStockError
					require.ErrorAs(t, err, &e)
					assert.Equal(t, 3, e.Available)
					assert.Equal(t, 4, e.Requested)
				case *domain.ProductNotFoundError:
					var e *domain.ProductNotFoundError
					require.ErrorAs(t, err, &e)
				}
				p, _ := store.FindByID(ctx, "B2")
				assert.Equal(t, 3, p.Stock)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStock, stock)
			p, err := store.FindByID(ctx, tt.productID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStock, p.Stock)
		})
	}
}

func TestStore_TransactionIsolation(t *testing.T) {
	ctx := context.Background()
	store := seeded()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.Products().AdjustStock(ctx, "A1", -4)
	require.NoError(t, err)
	require.NoError(t, tx.Sales().AppendSaleRecord(ctx, sale(1, time.Now())))

	live, err := store.FindByID(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, 10, live.Stock, "uncommitted writes must not be visible")

	require.NoError(t, tx.Rollback(ctx))

	live, _ = store.FindByID(ctx, "A1")
	assert.Equal(t, 10, live.Stock)
	sales, _ := store.ListSaleRecords(ctx, 0)
	assert.Empty(t, sales)
}

func TestStore_CommitPublishesState(t *testing.T) {
	ctx := context.Background()
	store := seeded()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	next, err := tx.Sales().NextSaleID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)
	_, err = tx.Products().AdjustStock(ctx, "A1", -1)
	require.NoError(t, err)
	require.NoError(t, tx.Sales().AppendSaleRecord(ctx, sale(next, time.Now())))
	require.NoError(t, tx.Commit(ctx))

	assert.ErrorIs(t, tx.Commit(ctx), memory.ErrTxClosed)
	assert.NoError(t, tx.Rollback(ctx))

	record, err := store.SaleByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Len(t, record.Items, 1)

	next, err = store.NextSaleID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), next)
}

func TestStore_FailOn(t *testing.T) {
	ctx := context.Background()
	store := seeded()
	boom := errors.New("disk full")

	store.FailOn("LoadProducts", boom)
	_, err := store.LoadProducts(ctx)
	assert.ErrorIs(t, err, boom)

	store.FailOn("LoadProducts", nil)
	_, err = store.LoadProducts(ctx)
	assert.NoError(t, err)

	store.FailOn("Commit", boom)
	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, tx.Commit(ctx), boom)
	require.NoError(t, tx.Rollback(ctx))

	store.FailOn("Begin", boom)
	_, err = store.Begin(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestStore_SalesViewOrdering(t *testing.T) {
	ctx := context.Background()
	store := seeded()
	base := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.AppendSaleRecord(ctx, sale(1, base)))
	require.NoError(t, store.AppendSaleRecord(ctx, sale(2, base.Add(time.Minute))))
	require.NoError(t, store.AppendSaleRecord(ctx, sale(3, base.Add(time.Minute))))

	records, err := store.Sales().ListSaleRecords(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{records[0].SaleID, records[1].SaleID, records[2].SaleID})

	limited, err := store.Sales().ListSaleRecords(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	missing, err := store.Sales().FindByID(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_SerializedTransactions(t *testing.T) {
	ctx := context.Background()
	store := seeded()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := store.Begin(ctx)
			if !assert.NoError(t, err) {
				return
			}
			id, _ := tx.Sales().NextSaleID(ctx)
			_ = tx.Sales().AppendSaleRecord(ctx, sale(id, time.Now()))
			assert.NoError(t, tx.Commit(ctx))
		}()
	}
	wg.Wait()

	next, err := store.NextSaleID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(9), next)
}

func TestStore_Settings(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	v, err := store.Get(ctx, domain.SettingLanguage, "en")
	require.NoError(t, err)
	assert.Equal(t, "en", v)

	require.NoError(t, store.Set(ctx, domain.SettingLanguage, "fr"))
	v, _ = store.Get(ctx, domain.SettingLanguage, "en")
	assert.Equal(t, "fr", v)

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{domain.SettingLanguage: "fr"}, all)
}
