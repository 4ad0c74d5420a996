package service

import (
	"errors"
	"fmt"

	"github.com/fjod/go_cart/digital-store/domain"
	"github.com/fjod/go_cart/digital-store/internal/pricing"
)

var (
	ErrEmptyCart          = pricing.ErrEmptyCart
	ErrInvalidOrderTotal  = errors.New("order total must be greater than zero")
	ErrProductUnavailable = errors.New("product is no longer available")
	ErrCartChanged        = errors.New("cart changed during checkout, please review it and retry")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderNotPayable    = errors.New("order is not awaiting payment")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
)

// ValidationError is a client error that must not be retried as is.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(err error) error {
	return &ValidationError{Err: err}
}

// OrderCreatedPaymentInitFailedError means the order is committed but no
// payment URL could be produced. The caller should retry only the payment
// step.
type OrderCreatedPaymentInitFailedError struct {
	Order *domain.Order
	Err   error
}

func (e *OrderCreatedPaymentInitFailedError) Error() string {
	return fmt.Sprintf("order %s created but payment initialization failed: %v", e.Order.ID, e.Err)
}

func (e *OrderCreatedPaymentInitFailedError) Unwrap() error {
	return e.Err
}
