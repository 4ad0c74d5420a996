package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem carries the price captured when the product was added.
type CartItem struct {
	ProductID  int64           `json:"product_id"`
	PriceAtAdd decimal.Decimal `json:"price_at_add"`
	AddedAt    time.Time       `json:"added_at"`
}

type Cart struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (c *Cart) ProductIDs() []int64 {
	ids := make([]int64, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// Product is the published catalog view used to snapshot order items.
type Product struct {
	ID      int64
	Title   string
	Author  string
	Price   decimal.Decimal
	FileRef string
}

type Contact struct {
	Email    string
	FullName string
}
