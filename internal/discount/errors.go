package discount

import (
	"errors"
	"fmt"
)

// ErrRejected is wrapped by every validation failure so callers can tell a
// rejected code apart from a storage error.
var ErrRejected = errors.New("discount code rejected")

var (
	ErrCodeNotFound        = rejection("discount code not found")
	ErrCodeInactive        = rejection("discount code is not active")
	ErrCodeNotStarted      = rejection("discount code is not valid yet")
	ErrCodeExpired         = rejection("discount code has expired")
	ErrUsageLimitReached   = rejection("discount code usage limit reached")
	ErrPerUserLimitReached = rejection("you have already used this discount code the maximum number of times")
	ErrMinPurchaseNotMet   = rejection("order subtotal is below the minimum purchase for this discount code")
)

func rejection(msg string) error {
	return fmt.Errorf("%w: %s", ErrRejected, msg)
}
