package gateway

import (
	"errors"
	"fmt"
)

// ErrPaymentInitialization is matched by every failure of CreatePayment.
var ErrPaymentInitialization = errors.New("payment initialization failed")

var (
	errInvalidAmount = errors.New("amount must be positive")
	errEmptyToken    = errors.New("processor returned an empty token")
	errEmptyOrderID  = errors.New("processor returned an empty order id")
)

// InitError records which step of the choreography failed.
type InitError struct {
	Step string
	Err  error
	// RemoteOrderID is set when the order was registered before the failure.
	RemoteOrderID string
}

func (e *InitError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPaymentInitialization, e.Step, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

func (e *InitError) Is(target error) bool {
	return target == ErrPaymentInitialization
}

// StatusError is a non-2xx answer from the processor.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}
