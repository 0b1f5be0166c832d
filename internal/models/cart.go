package models

import "time"

// CartItem is a single product line in a cart. Price is the unit price
// snapshot taken when the item was first added; the order flow recomputes
// against the live product price, so this snapshot is display-only.
type CartItem struct {
	ID        string  `json:"-" gorm:"primaryKey;type:varchar(36)"`
	CartID    string  `json:"-" gorm:"index;type:varchar(36)"`
	ProductID string  `json:"product_id" gorm:"type:varchar(36)"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Cart is the per-user pre-checkout selection. One cart per user at most;
// created lazily on first add and deleted outright on successful checkout.
// At most one CartItem per distinct product.
type Cart struct {
	ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string     `json:"user_id" gorm:"uniqueIndex;type:varchar(36)"`
	Items     []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// FindItem returns a pointer to the line for productID, or nil.
func (c *Cart) FindItem(productID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// TotalItems returns the summed quantity across all lines.
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// TotalPrice returns the summed snapshot price across all lines.
func (c *Cart) TotalPrice() float64 {
	total := 0.0
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// CartView is the response shape for GetCart. A missing cart renders as an
// empty view, never as an error.
type CartView struct {
	Items      []CartItem `json:"items"`
	TotalItems int        `json:"total_items"`
	TotalPrice float64    `json:"total_price"`
}

// View converts the cart into its response shape.
func (c *Cart) View() CartView {
	items := c.Items
	if items == nil {
		items = []CartItem{}
	}
	return CartView{
		Items:      items,
		TotalItems: c.TotalItems(),
		TotalPrice: c.TotalPrice(),
	}
}

// EmptyCartView is returned when the user has no cart.
func EmptyCartView() CartView {
	return CartView{Items: []CartItem{}}
}
