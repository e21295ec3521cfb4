// internal/core/domain/cart.go
package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CartLine is one product entry in a cart. Name and UnitPrice are captured
// from the snapshot the line was last validated against.
type CartLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// LineTotal returns UnitPrice x Quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the in-progress order for one session. It holds at most one line
// per product and keeps lines in the order they were first added.
type Cart struct {
	order []string
	lines map[string]*CartLine
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{lines: make(map[string]*CartLine)}
}

// AddLine adds quantity units of productID, validating the cumulative
// quantity against the snapshot. On error the cart is left unchanged.
func (c *Cart) AddLine(productID string, quantity int, snapshot Snapshot) error {
	if quantity <= 0 {
		return &InvalidQuantityError{Quantity: quantity}
	}

	product, ok := snapshot.Lookup(productID)
	if !ok {
		return &ProductNotFoundError{ProductID: productID}
	}

	requested := quantity
	existing, exists := c.lines[productID]
	if exists {
		requested += existing.Quantity
	}

	if requested > product.Stock {
		return &InsufficientStockError{
			ProductID: productID,
			Name:      product.Name,
			Available: product.Stock,
			Requested: requested,
		}
	}

	if !exists {
		c.ensure()
		existing = &CartLine{ProductID: productID}
		c.lines[productID] = existing
		c.order = append(c.order, productID)
	}
	existing.Name = product.Name
	existing.UnitPrice = product.Price
	existing.Quantity = requested
	return nil
}

// RemoveLine drops the line for productID.
func (c *Cart) RemoveLine(productID string) error {
	if _, ok := c.lines[productID]; !ok {
		return &LineNotFoundError{ProductID: productID}
	}
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Clear empties the cart. Calling it on an empty cart does nothing.
func (c *Cart) Clear() {
	if len(c.order) == 0 {
		return
	}
	c.order = nil
	c.lines = make(map[string]*CartLine)
}

// Line returns a copy of the line for productID.
func (c *Cart) Line(productID string) (CartLine, bool) {
	l, ok := c.lines[productID]
	if !ok {
		return CartLine{}, false
	}
	return *l, true
}

// Lines returns copies of all lines in insertion order.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

// Len returns the number of distinct products in the cart.
func (c *Cart) Len() int { return len(c.order) }

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool { return len(c.order) == 0 }

// ItemCount returns the total number of units across lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Subtotal is the sum of line totals; zero for an empty cart.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, id := range c.order {
		total = total.Add(c.lines[id].LineTotal())
	}
	return total
}

func (c *Cart) ensure() {
	if c.lines == nil {
		c.lines = make(map[string]*CartLine)
	}
}

// MarshalJSON encodes the cart as its ordered lines so sessions can be stored.
func (c *Cart) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Lines []CartLine `json:"lines"`
	}{Lines: c.Lines()})
}

// UnmarshalJSON restores a cart from MarshalJSON output.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var raw struct {
		Lines []CartLine `json:"lines"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.order = nil
	c.lines = make(map[string]*CartLine, len(raw.Lines))
	for i := range raw.Lines {
		line := raw.Lines[i]
		if _, dup := c.lines[line.ProductID]; dup {
			continue
		}
		c.lines[line.ProductID] = &line
		c.order = append(c.order, line.ProductID)
	}
	return nil
}
