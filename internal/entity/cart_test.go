package entity

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id int64, price int64, qty int) CartItem {
	return CartItem{ID: id, Name: "item", Price: decimal.NewFromInt(price), Quantity: qty}
}

func TestCart_AddMergesSameProduct(t *testing.T) {
	c := Cart{}.Add(item(1, 100, 1)).Add(item(2, 50, 2)).Add(item(1, 100, 1))

	require.Len(t, c, 2)
	got, ok := c.Find(1)
	require.True(t, ok)
	assert.Equal(t, 2, got.Quantity)
	assert.Equal(t, int64(1), c[0].ID, "insertion order is kept")
}

func TestCart_AddDefaultsQuantityToOne(t *testing.T) {
	c := Cart{}.Add(CartItem{ID: 7, Price: decimal.NewFromInt(3)})
	assert.Equal(t, 1, c[0].Quantity)
}

func TestCart_UpdateQuantityToZeroRemoves(t *testing.T) {
	base := Cart{item(1, 100, 2), item(2, 10, 1)}

	for _, delta := range []int{-2, -3, -100} {
		c := base.UpdateQuantity(1, delta)
		_, ok := c.Find(1)
		assert.False(t, ok, "delta %d", delta)
		assert.Len(t, c, 1)
	}

	c := base.UpdateQuantity(1, -1)
	got, _ := c.Find(1)
	assert.Equal(t, 1, got.Quantity)
	assert.Equal(t, 2, base[0].Quantity, "receiver is not mutated")
}

func TestCart_UpdateQuantityUnknownProduct(t *testing.T) {
	base := Cart{item(1, 100, 2)}
	assert.True(t, base.Equal(base.UpdateQuantity(9, 1)))
}

func TestCart_Subtotal(t *testing.T) {
	c := Cart{item(1, 100, 2), {ID: 2, Price: decimal.RequireFromString("9.99"), Quantity: 3}}
	assert.Equal(t, "229.97", c.Subtotal().StringFixed(2))
	assert.Equal(t, 5, c.Count())
}

func TestCart_Normalize(t *testing.T) {
	c := Cart{item(1, 100, 1), item(2, 10, 0), item(1, 100, 2), item(3, 5, -1)}.Normalize()
	require.Len(t, c, 1)
	assert.Equal(t, 3, c[0].Quantity)
}

func TestCart_MarshalNilAsArray(t *testing.T) {
	var c Cart
	b, err := json.Marshal(map[string]any{"cart": c})
	require.NoError(t, err)
	assert.JSONEq(t, `{"cart":[]}`, string(b))
}

func TestCartItem_JSONNumbers(t *testing.T) {
	b, err := json.Marshal(item(1, 100, 2))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"item","price":100,"quantity":2,"image":""}`, string(b))

	var back CartItem
	require.NoError(t, json.Unmarshal([]byte(`{"id":4,"name":"Tea","price":12.5,"quantity":1}`), &back))
	assert.True(t, back.Price.Equal(decimal.RequireFromString("12.5")))
}

func TestCartItem_Validate(t *testing.T) {
	assert.NoError(t, item(1, 0, 1).Validate())
	assert.ErrorIs(t, item(0, 1, 1).Validate(), ErrInvalidItem)
	assert.ErrorIs(t, item(1, 1, 0).Validate(), ErrInvalidItem)
	assert.ErrorIs(t, item(1, -1, 1).Validate(), ErrInvalidItem)
	assert.NoError(t, item(1, 1, MaxQuantity).Validate())
	assert.ErrorIs(t, item(1, 1, MaxQuantity+1).Validate(), ErrInvalidItem)
}

func TestCart_QuantitySaturates(t *testing.T) {
	base := Cart{item(1, 100, 1)}

	c := base.Add(item(1, 100, math.MaxInt))
	require.Len(t, c, 1)
	assert.Equal(t, MaxQuantity, c[0].Quantity)
	assert.NoError(t, c[0].Validate())

	c = base.Add(item(2, 10, math.MaxInt))
	assert.Equal(t, MaxQuantity, c[1].Quantity)

	c = base.UpdateQuantity(1, math.MaxInt)
	assert.Equal(t, MaxQuantity, c[0].Quantity)

	assert.True(t, base.UpdateQuantity(1, math.MinInt).IsEmpty())

	c = Cart{item(1, 1, math.MaxInt), item(1, 1, math.MaxInt)}.Normalize()
	require.Len(t, c, 1)
	assert.Equal(t, MaxQuantity, c[0].Quantity)
}
