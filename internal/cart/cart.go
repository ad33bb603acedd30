// Package cart owns the ordered collection of sale line items:
// merge-on-add, quantity and price edits, and exact decimal totals.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/Danokray/Tablecrm/internal/domain/ident"
	"github.com/Danokray/Tablecrm/internal/domain/order"
)

// LineItem is one cart position. Uniqueness key is ProductID.
type LineItem struct {
	ProductID ident.ID
	Name      string
	Article   string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// Subtotal returns quantity times unit price, exact.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

// Cart is the ordered sequence of line items, insertion order
// preserved for display. Not safe for concurrent use; it is owned by
// the single composition loop.
type Cart struct {
	items []LineItem
}

// New creates an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add puts a candidate into the cart. When a line with the same
// product id already exists its quantity is incremented by qty, not
// replaced; otherwise a new line is appended. A non-positive qty
// counts as one. The candidate's own price is used when present,
// otherwise zero.
func (c *Cart) Add(p order.Product, qty decimal.Decimal) {
	if qty.Sign() <= 0 {
		qty = decimal.NewFromInt(1)
	}
	for i := range c.items {
		if c.items[i].ProductID.Equal(p.ID) {
			c.items[i].Quantity = c.items[i].Quantity.Add(qty)
			return
		}
	}
	c.items = append(c.items, LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		Article:   p.Article,
		Quantity:  qty,
		UnitPrice: p.Price,
	})
}

// Remove deletes the line at position i. Out-of-range indices are a
// no-op; callers only pass indices from the currently rendered list.
func (c *Cart) Remove(i int) {
	if i < 0 || i >= len(c.items) {
		return
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
}

// SetQuantity updates only the quantity of the line at i in place.
// Non-positive quantities are accepted here; the increment/decrement
// affordances are responsible for turning a would-be zero into a
// removal.
func (c *Cart) SetQuantity(i int, qty decimal.Decimal) {
	if i < 0 || i >= len(c.items) {
		return
	}
	c.items[i].Quantity = qty
}

// Replace swaps the entire line at i, used when a price edit and a
// quantity change must commit together.
func (c *Cart) Replace(i int, item LineItem) {
	if i < 0 || i >= len(c.items) {
		return
	}
	c.items[i] = item
}

// Increment raises the quantity of line i by one.
func (c *Cart) Increment(i int) {
	if i < 0 || i >= len(c.items) {
		return
	}
	c.items[i].Quantity = c.items[i].Quantity.Add(decimal.NewFromInt(1))
}

// Decrement lowers the quantity of line i by one; driving it to zero
// or below removes the line instead.
func (c *Cart) Decrement(i int) {
	if i < 0 || i >= len(c.items) {
		return
	}
	next := c.items[i].Quantity.Sub(decimal.NewFromInt(1))
	if next.Sign() <= 0 {
		c.Remove(i)
		return
	}
	c.items[i].Quantity = next
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of lines.
func (c *Cart) Len() int { return len(c.items) }

// Clear empties the cart.
func (c *Cart) Clear() { c.items = nil }

// Total returns the exact decimal sum of all subtotals, with no
// intermediate rounding.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// FormatAmount renders an amount with no decimal places when it is
// mathematically integral, otherwise with exactly two.
func FormatAmount(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return d.Truncate(0).String()
	}
	return d.StringFixed(2)
}
