package pricing

import (
	"errors"
	"fmt"

	"github.com/fjod/go_cart/digital-store/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart     = errors.New("cart is empty, nothing to checkout")
	ErrNegativePrice = errors.New("cart item has a negative price")
)

// Subtotal sums the prices locked at add-to-cart time. Live catalog prices
// are never consulted.
func Subtotal(items []domain.CartItem) (decimal.Decimal, error) {
	if len(items) == 0 {
		return decimal.Zero, ErrEmptyCart
	}

	subtotal := decimal.Zero
	for _, item := range items {
		if item.PriceAtAdd.IsNegative() {
			return decimal.Zero, fmt.Errorf("product %d: %w", item.ProductID, ErrNegativePrice)
		}
		subtotal = subtotal.Add(item.PriceAtAdd)
	}
	return subtotal, nil
}
