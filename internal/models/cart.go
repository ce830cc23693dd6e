package models

import "time"

// Cart is the single active cart for a user. Totals are recomputed from the
// line items after every mutation, so totalQty == sum(qty) and
// totalCost == sum(subtotal) always hold.
type Cart struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	TotalQty  int       `db:"total_qty" json:"total_qty"`
	TotalCost int64     `db:"total_cost" json:"total_cost"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	Items []CartItem `db:"-" json:"items"`
}

// CartItem is one line in a cart. Subtotal is always qty * unit price.
type CartItem struct {
	ID          int64  `db:"id" json:"id"`
	CartID      int64  `db:"cart_id" json:"cart_id"`
	ProductID   int64  `db:"product_id" json:"product_id"`
	Title       string `db:"title" json:"title"`
	ProductCode string `db:"product_code" json:"product_code"`
	Qty         int    `db:"qty" json:"qty"`
	UnitPrice   int64  `db:"unit_price" json:"unit_price"`
	Subtotal    int64  `db:"subtotal" json:"subtotal"`
}

// AddItem increments the quantity of an existing line for the product, or
// appends a new line with qty 1.
func (c *Cart) AddItem(p *Product) {
	for i := range c.Items {
		if c.Items[i].ProductID == p.ID {
			c.Items[i].Qty++
			c.Items[i].Subtotal = int64(c.Items[i].Qty) * c.Items[i].UnitPrice
			c.recalcTotals()
			return
		}
	}
	c.Items = append(c.Items, CartItem{
		CartID:      c.ID,
		ProductID:   p.ID,
		Title:       p.Title,
		ProductCode: p.ProductCode,
		Qty:         1,
		UnitPrice:   p.Price,
		Subtotal:    p.Price,
	})
	c.recalcTotals()
}

// ReduceByOne decrements the quantity of the line for productID, dropping
// the line entirely when it reaches zero. Returns false when the product is
// not in the cart.
func (c *Cart) ReduceByOne(productID int64) bool {
	for i := range c.Items {
		if c.Items[i].ProductID != productID {
			continue
		}
		c.Items[i].Qty--
		if c.Items[i].Qty <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			c.Items[i].Subtotal = int64(c.Items[i].Qty) * c.Items[i].UnitPrice
		}
		c.recalcTotals()
		return true
	}
	return false
}

// RemoveItem drops the whole line for productID. Returns false when the
// product is not in the cart.
func (c *Cart) RemoveItem(productID int64) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.recalcTotals()
			return true
		}
	}
	return false
}

// Empty removes all lines and zeroes the totals.
func (c *Cart) Empty() {
	c.Items = nil
	c.recalcTotals()
}

func (c *Cart) recalcTotals() {
	var qty int
	var cost int64
	for i := range c.Items {
		qty += c.Items[i].Qty
		cost += c.Items[i].Subtotal
	}
	c.TotalQty = qty
	c.TotalCost = cost
}
