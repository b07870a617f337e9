package entity

import (
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidItem = errors.New("invalid cart item")

// MaxQuantity caps a single line. Adds past it saturate.
const MaxQuantity = 99

func capQuantity(q int) int {
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

type CartItem struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image"`
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i CartItem) Validate() error {
	if i.ID <= 0 || i.Quantity < 1 || i.Quantity > MaxQuantity || i.Price.IsNegative() {
		return ErrInvalidItem
	}
	return nil
}

// Cart is an ordered list of line items with at most one entry per product id.
// Methods never mutate the receiver; they return the updated cart.
type Cart []CartItem

// MarshalJSON encodes an empty cart as [] so the backend never sees null.
func (c Cart) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]CartItem(c))
}

func (c Cart) IsEmpty() bool { return len(c) == 0 }

func (c Cart) Find(productID int64) (CartItem, bool) {
	for _, it := range c {
		if it.ID == productID {
			return it, true
		}
	}
	return CartItem{}, false
}

// Add appends the item or, if the product is already present, bumps its quantity.
func (c Cart) Add(item CartItem) Cart {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	item.Quantity = capQuantity(item.Quantity)
	out := c.Clone()
	for i := range out {
		if out[i].ID == item.ID {
			out[i].Quantity = capQuantity(capQuantity(out[i].Quantity) + item.Quantity)
			return out
		}
	}
	return append(out, item)
}

// UpdateQuantity applies delta to the product's quantity; a result <= 0 removes it.
func (c Cart) UpdateQuantity(productID int64, delta int) Cart {
	out := c.Clone()
	for i := range out {
		if out[i].ID != productID {
			continue
		}
		q := capQuantity(out[i].Quantity)
		if delta <= -q {
			return out.Remove(productID)
		}
		out[i].Quantity = capQuantity(q + min(delta, MaxQuantity))
		return out
	}
	return out
}

func (c Cart) Remove(productID int64) Cart {
	out := make(Cart, 0, len(c))
	for _, it := range c {
		if it.ID != productID {
			out = append(out, it)
		}
	}
	return out
}

func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// Count is the number of units across all lines.
func (c Cart) Count() int {
	n := 0
	for _, it := range c {
		n += it.Quantity
	}
	return n
}

func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// Normalize repairs carts read from storage written by other clients:
// lines with quantity <= 0 are dropped, duplicate product ids are merged
// into the first occurrence and quantities are capped at MaxQuantity.
func (c Cart) Normalize() Cart {
	out := make(Cart, 0, len(c))
	seen := make(map[int64]int, len(c))
	for _, it := range c {
		if it.Quantity <= 0 {
			continue
		}
		it.Quantity = capQuantity(it.Quantity)
		if idx, ok := seen[it.ID]; ok {
			out[idx].Quantity = capQuantity(out[idx].Quantity + it.Quantity)
			continue
		}
		seen[it.ID] = len(out)
		out = append(out, it)
	}
	return out
}

func (c Cart) Equal(other Cart) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		a, b := c[i], other[i]
		if a.ID != b.ID || a.Name != b.Name || a.Quantity != b.Quantity ||
			a.Image != b.Image || !a.Price.Equal(b.Price) {
			return false
		}
	}
	return true
}
