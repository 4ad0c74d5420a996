package service

import (
	"context"
	"errors"
	"fmt"

	d "github.com/fjod/go_cart/digital-store/domain"
	r "github.com/fjod/go_cart/digital-store/internal/repository"
	"github.com/fjod/go_cart/digital-store/pkg/logger"
)

var (
	ErrAlreadyInCart = errors.New("product is already in the cart")
	ErrInvalidID     = errors.New("invalid id")
)

type CartService interface {
	AddItem(ctx context.Context, userID, productID int64) (*d.Cart, error)
	GetCart(ctx context.Context, userID int64) (*d.Cart, error)
}

type CartServiceImpl struct {
	repo r.RepoInterface
}

func NewCartService(repo r.RepoInterface) *CartServiceImpl {
	return &CartServiceImpl{repo: repo}
}

// AddItem locks the product's current price into the user's cart.
func (s *CartServiceImpl) AddItem(ctx context.Context, userID, productID int64) (*d.Cart, error) {
	if productID <= 0 {
		return nil, invalid(fmt.Errorf("%w: product_id must be positive", ErrInvalidID))
	}

	product, err := s.repo.GetPublishedProduct(ctx, productID)
	if errors.Is(err, r.ErrProductNotFound) {
		return nil, invalid(fmt.Errorf("%w: product %d", ErrProductUnavailable, productID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	cart, err := s.repo.AddCartItem(ctx, userID, product)
	if errors.Is(err, r.ErrDuplicateCartItem) {
		return nil, invalid(ErrAlreadyInCart)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	logger.FromContext(ctx).Debug().
		Int64("user_id", userID).
		Int64("product_id", productID).
		Str("price", d.FormatMoney(product.Price)).
		Msg("item added to cart")
	return cart, nil
}

// GetCart returns the user's cart. A user without a cart gets an empty one.
func (s *CartServiceImpl) GetCart(ctx context.Context, userID int64) (*d.Cart, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if errors.Is(err, r.ErrCartNotFound) {
		return &d.Cart{UserID: userID, Items: []d.CartItem{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return cart, nil
}
