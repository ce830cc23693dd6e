package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func cartTotalsConsistent(t *testing.T, c *Cart) {
	t.Helper()

	var qty int
	var cost int64
	for _, item := range c.Items {
		assert.Equal(t, int64(item.Qty)*item.UnitPrice, item.Subtotal)
		qty += item.Qty
		cost += item.Subtotal
	}
	assert.Equal(t, qty, c.TotalQty)
	assert.Equal(t, cost, c.TotalCost)
}

func TestCartAddItem(t *testing.T) {
	cart := &Cart{}
	phone := &Product{ID: 1, Title: "Phone", ProductCode: "P-1", Price: 50000}

	cart.AddItem(phone)
	cart.AddItem(phone)

	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Qty)
	assert.Equal(t, int64(100000), cart.Items[0].Subtotal)
	assert.Equal(t, 2, cart.TotalQty)
	assert.Equal(t, int64(100000), cart.TotalCost)
	cartTotalsConsistent(t, cart)
}

func TestCartReduceByOne(t *testing.T) {
	cart := &Cart{}
	phone := &Product{ID: 1, Title: "Phone", ProductCode: "P-1", Price: 50000}
	charger := &Product{ID: 2, Title: "Charger", ProductCode: "P-2", Price: 8000}

	cart.AddItem(phone)
	cart.AddItem(phone)
	cart.AddItem(charger)

	ok := cart.ReduceByOne(phone.ID)
	assert.True(t, ok)
	assert.Equal(t, 2, cart.TotalQty)
	assert.Equal(t, int64(58000), cart.TotalCost)
	cartTotalsConsistent(t, cart)

	// reducing a single-quantity line drops it entirely
	ok = cart.ReduceByOne(phone.ID)
	assert.True(t, ok)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, charger.ID, cart.Items[0].ProductID)
	cartTotalsConsistent(t, cart)

	ok = cart.ReduceByOne(999)
	assert.False(t, ok)
}

func TestCartRemoveItem(t *testing.T) {
	cart := &Cart{}
	phone := &Product{ID: 1, Title: "Phone", ProductCode: "P-1", Price: 50000}
	charger := &Product{ID: 2, Title: "Charger", ProductCode: "P-2", Price: 8000}

	cart.AddItem(phone)
	cart.AddItem(phone)
	cart.AddItem(phone)
	cart.AddItem(charger)

	ok := cart.RemoveItem(phone.ID)
	assert.True(t, ok)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.TotalQty)
	assert.Equal(t, int64(8000), cart.TotalCost)
	cartTotalsConsistent(t, cart)

	ok = cart.RemoveItem(phone.ID)
	assert.False(t, ok)
}

func TestCartEmpty(t *testing.T) {
	cart := &Cart{}
	cart.AddItem(&Product{ID: 1, Price: 50000})
	cart.AddItem(&Product{ID: 2, Price: 8000})

	cart.Empty()

	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalQty)
	assert.Zero(t, cart.TotalCost)
}

func TestCartMixedSequence(t *testing.T) {
	cart := &Cart{}
	a := &Product{ID: 1, Price: 50000}
	b := &Product{ID: 2, Price: 12500}
	c := &Product{ID: 3, Price: 999}

	cart.AddItem(a)
	cart.AddItem(b)
	cart.AddItem(a)
	cart.AddItem(c)
	cart.AddItem(b)
	cart.ReduceByOne(a.ID)
	cart.AddItem(c)
	cart.RemoveItem(b.ID)

	// a x1, c x2
	assert.Equal(t, 3, cart.TotalQty)
	assert.Equal(t, int64(50000+2*999), cart.TotalCost)
	cartTotalsConsistent(t, cart)
}
