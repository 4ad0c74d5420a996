package cache

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// PaymentURLCache remembers the hosted payment page minted for an order so
// a retry does not register the order with the processor again.
type PaymentURLCache interface {
	Get(ctx context.Context, orderID uuid.UUID) (string, error)
	Set(ctx context.Context, orderID uuid.UUID, url string) error
	Delete(ctx context.Context, orderID uuid.UUID) error
}

var ErrCacheMiss = errors.New("cache miss")
