package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/pos-engine/internal/core/domain"
)

func testSnapshot() domain.Snapshot {
	return domain.NewSnapshot([]domain.Product{
		{ProductID: "P1", Name: "Espresso Beans", Price: decimal.RequireFromString("2.50"), Stock: 10},
		{ProductID: "P2", Name: "Milk Frother", Price: decimal.RequireFromString("9.99"), Stock: 3},
	}, time.Now())
}

func TestCart_AddLine_AccumulatesAndRejectsOverStock(t *testing.T) {
	cart := domain.NewCart()
	snap := testSnapshot()

	require.NoError(t, cart.AddLine("P1", 3, snap))
	line, ok := cart.Line("P1")
	require.True(t, ok)
	assert.True(t, line.LineTotal().Equal(decimal.RequireFromString("7.50")))

	require.NoError(t, cart.AddLine("P1", 3, snap))
	line, _ = cart.Line("P1")
	assert.Equal(t, 6, line.Quantity)
	assert.True(t, line.LineTotal().Equal(decimal.RequireFromString("15.00")))
	assert.Equal(t, 1, cart.Len())

	err := cart.AddLine("P1", 5, snap)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "P1", stockErr.ProductID)
	assert.Equal(t, 10, stockErr.Available)
	assert.Equal(t, 11, stockErr.Requested)

	line, _ = cart.Line("P1")
	assert.Equal(t, 6, line.Quantity)
}

func TestCart_AddLine_Validation(t *testing.T) {
	tests := []struct {
		name      string
		productID string
		quantity  int
		sentinel  error
	}{
		{name: "zero_quantity", productID: "P1", quantity: 0, sentinel: domain.ErrInvalidQuantity},
		{name: "negative_quantity", productID: "P1", quantity: -2, sentinel: domain.ErrInvalidQuantity},
		{name: "unknown_product", productID: "P9", quantity: 1, sentinel: domain.ErrProductNotFound},
		{name: "exceeds_stock_first_add", productID: "P2", quantity: 4, sentinel: domain.ErrInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := domain.NewCart()
			err := cart.AddLine(tt.productID, tt.quantity, testSnapshot())
			assert.ErrorIs(t, err, tt.sentinel)
			assert.True(t, cart.IsEmpty())
		})
	}
}

func TestCart_AddLine_RefreshesSnapshotFields(t *testing.T) {
	cart := domain.NewCart()
	require.NoError(t, cart.AddLine("P1", 1, testSnapshot()))

	repriced := domain.NewSnapshot([]domain.Product{
		{ProductID: "P1", Name: "Espresso Beans 1kg", Price: decimal.RequireFromString("3.00"), Stock: 10},
	}, time.Now())
	require.NoError(t, cart.AddLine("P1", 1, repriced))

	line, _ := cart.Line("P1")
	assert.Equal(t, "Espresso Beans 1kg", line.Name)
	assert.True(t, line.UnitPrice.Equal(decimal.RequireFromString("3.00")))
	assert.True(t, cart.Subtotal().Equal(decimal.RequireFromString("6.00")))
}

func TestCart_RemoveLineAndClear(t *testing.T) {
	cart := domain.NewCart()
	snap := testSnapshot()
	require.NoError(t, cart.AddLine("P1", 2, snap))
	require.NoError(t, cart.AddLine("P2", 1, snap))

	assert.Equal(t, 3, cart.ItemCount())
	assert.True(t, cart.Subtotal().Equal(decimal.RequireFromString("14.99")))

	require.NoError(t, cart.RemoveLine("P1"))
	assert.ErrorIs(t, cart.RemoveLine("P1"), domain.ErrLineNotFound)
	assert.Equal(t, []string{"P2"}, lineIDs(cart))

	cart.Clear()
	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.Subtotal().IsZero())

	cart.Clear()
	assert.True(t, cart.IsEmpty())
	assert.Empty(t, cart.Lines())
}

func TestCart_LinesKeepInsertionOrder(t *testing.T) {
	cart := domain.NewCart()
	snap := testSnapshot()
	require.NoError(t, cart.AddLine("P2", 1, snap))
	require.NoError(t, cart.AddLine("P1", 1, snap))
	require.NoError(t, cart.AddLine("P2", 1, snap))

	assert.Equal(t, []string{"P2", "P1"}, lineIDs(cart))
}

func TestCart_JSONRestoresLines(t *testing.T) {
	cart := domain.NewCart()
	snap := testSnapshot()
	require.NoError(t, cart.AddLine("P2", 2, snap))
	require.NoError(t, cart.AddLine("P1", 4, snap))

	data, err := json.Marshal(cart)
	require.NoError(t, err)

	restored := domain.NewCart()
	require.NoError(t, json.Unmarshal(data, restored))
	require.Len(t, restored.Lines(), 2)
	for i, want := range cart.Lines() {
		got := restored.Lines()[i]
		assert.Equal(t, want.ProductID, got.ProductID)
		assert.Equal(t, want.Quantity, got.Quantity)
		assert.True(t, want.UnitPrice.Equal(got.UnitPrice))
	}
	assert.True(t, cart.Subtotal().Equal(restored.Subtotal()))
}

func TestComputeTotals_DecimalExact(t *testing.T) {
	cart := domain.NewCart()
	snap := testSnapshot()
	require.NoError(t, cart.AddLine("P1", 6, snap))
	require.NoError(t, cart.AddLine("P2", 1, snap))

	lines := domain.FreezeLines(cart.Lines())
	totals := domain.ComputeTotals(lines, decimal.RequireFromString("0.15"))

	assert.Equal(t, "24.99", totals.Subtotal.String())
	assert.Equal(t, "3.7485", totals.Tax.String())
	assert.Equal(t, "28.7385", totals.Total.String())

	record := domain.SaleRecord{Subtotal: totals.Subtotal, Tax: totals.Tax, Total: totals.Total, Items: lines}
	assert.True(t, record.IsBalanced())
	assert.Equal(t, 7, record.ItemCount())
}

func lineIDs(c *domain.Cart) []string {
	ids := []string{}
	for _, l := range c.Lines() {
		ids = append(ids, l.ProductID)
	}
	return ids
}
