package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jmflorece/tindahan-pos/pkg/db/models"
)

// Item is one line in a cart. UnitPrice is snapshotted at add time so later
// catalog edits do not move an in-progress total.
type Item struct {
	ProductID uuid.UUID       `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// LineTotal returns unit price times quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// cart holds the ordered working set for one terminal. Not safe for
// concurrent use on its own; the Manager serializes access.
type cart struct {
	items []Item
}

func (c *cart) add(product *models.Product, qty int) {
	for idx := range c.items {
		if c.items[idx].ProductID == product.ID {
			c.items[idx].Quantity += qty
			return
		}
	}
	c.items = append(c.items, Item{
		ProductID: product.ID,
		SKU:       product.SKU,
		Name:      product.Name,
		UnitPrice: product.Price,
		Quantity:  qty,
	})
}

// adjust applies a signed delta to the line's quantity. Hitting zero or below
// removes the line; insertion order of the remaining lines is preserved.
func (c *cart) adjust(productID uuid.UUID, delta int) bool {
	for idx := range c.items {
		if c.items[idx].ProductID != productID {
			continue
		}
		next := c.items[idx].Quantity + delta
		if next <= 0 {
			c.items = append(c.items[:idx], c.items[idx+1:]...)
		} else {
			c.items[idx].Quantity = next
		}
		return true
	}
	return false
}

func (c *cart) remove(productID uuid.UUID) bool {
	for idx := range c.items {
		if c.items[idx].ProductID == productID {
			c.items = append(c.items[:idx], c.items[idx+1:]...)
			return true
		}
	}
	return false
}

func (c *cart) clear() {
	c.items = nil
}

// total recomputes from the lines on every call rather than tracking a
// running figure that could drift.
func (c *cart) total() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

func (c *cart) snapshot() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}
