package service

import (
	"context"
	"errors"
	"fmt"

	d "github.com/fjod/go_cart/digital-store/domain"
	r "github.com/fjod/go_cart/digital-store/internal/repository"
)

// buildOrderItems snapshots each product's title, author and file at
// purchase time. The price is the one locked when the item was added.
func (s *CheckoutServiceImpl) buildOrderItems(ctx context.Context, cartItems []d.CartItem) ([]d.OrderItem, error) {
	items := make([]d.OrderItem, 0, len(cartItems))

	// TODO: fetch all products with one ANY($1) query instead of one per item
	for _, item := range cartItems {
		product, err := s.repo.GetPublishedProduct(ctx, item.ProductID)
		if errors.Is(err, r.ErrProductNotFound) {
			return nil, invalid(fmt.Errorf("%w: product %d", ErrProductUnavailable, item.ProductID))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get product %d: %w", item.ProductID, err)
		}

		productID := product.ID
		items = append(items, d.OrderItem{
			ProductID: &productID,
			Title:     product.Title,
			Author:    product.Author,
			Price:     item.PriceAtAdd,
			FileRef:   product.FileRef,
		})
	}
	return items, nil
}
