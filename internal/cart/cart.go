// Package cart holds the cart state manager and its persistence.
// A Cart is a plain value: totals are always derived from the items,
// never stored alongside them.
package cart

import "gemimarket/internal/models"

// Cart maps products to quantities. Each productId appears at most once.
type Cart struct {
	items []models.CartItem
}

// New returns a cart pre-filled with the given items. Lines with a
// quantity below one are dropped.
func New(items []models.CartItem) *Cart {
	c := &Cart{}
	for _, item := range items {
		c.Add(models.Product{
			ID:       item.ProductID,
			Name:     item.Name,
			Price:    item.Price,
			ImageURL: item.ImageURL,
		}, item.Quantity)
	}
	return c
}

// Add puts qty units of product into the cart, merging with an existing
// line for the same product. Non-positive quantities are ignored.
func (c *Cart) Add(product models.Product, qty int) {
	if qty <= 0 {
		return
	}
	for i := range c.items {
		if c.items[i].ProductID == product.ID {
			c.items[i].Quantity += qty
			return
		}
	}
	c.items = append(c.items, models.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  qty,
		ImageURL:  product.ImageURL,
	})
}

// Remove deletes the line for productID, if present.
func (c *Cart) Remove(productID int) {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// SetQuantity replaces the quantity for productID. A quantity of zero
// or less removes the line.
func (c *Cart) SetQuantity(productID, qty int) {
	if qty <= 0 {
		c.Remove(productID)
		return
	}
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Quantity = qty
			return
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the current lines.
func (c *Cart) Items() []models.CartItem {
	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// TotalItems returns the summed quantity over all lines.
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

// TotalPrice returns the summed price*quantity over all lines.
func (c *Cart) TotalPrice() int64 {
	var total int64
	for _, item := range c.items {
		total += item.Price * int64(item.Quantity)
	}
	return total
}
