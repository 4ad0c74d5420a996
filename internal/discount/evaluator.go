package discount

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go_cart/digital-store/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by a Store when no code matches.
var ErrNotFound = errors.New("discount code does not exist")

// Store is the read side of discount persistence.
type Store interface {
	GetDiscountByCode(ctx context.Context, code string) (*domain.DiscountCode, error)
	CountDiscountUsages(ctx context.Context, discountID uuid.UUID, userID int64) (int, error)
}

type Evaluator struct {
	store Store
	now   func() time.Time
}

func NewEvaluator(store Store) *Evaluator {
	return &Evaluator{store: store, now: time.Now}
}

// WithClock replaces the evaluator's time source.
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	e.now = now
	return e
}

// NormalizeCode trims whitespace and upper-cases a user supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks the code against the subtotal and the user's history.
// The returned code is not mutated; recording usage belongs to checkout.
func (e *Evaluator) Validate(ctx context.Context, code string, userID int64, subtotal decimal.Decimal) (*domain.DiscountCode, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, ErrCodeNotFound
	}

	dc, err := e.store.GetDiscountByCode(ctx, normalized)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load discount code: %w", err)
	}

	if !dc.IsActive {
		return nil, ErrCodeInactive
	}

	now := e.now()
	if dc.StartsAt != nil && now.Before(*dc.StartsAt) {
		return nil, ErrCodeNotStarted
	}
	if dc.ExpiresAt != nil && now.After(*dc.ExpiresAt) {
		return nil, ErrCodeExpired
	}

	if dc.UsageLimit != nil && dc.UsageCount >= *dc.UsageLimit {
		return nil, ErrUsageLimitReached
	}

	if dc.PerUserLimit != nil {
		used, err := e.store.CountDiscountUsages(ctx, dc.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("count discount usages: %w", err)
		}
		if used >= *dc.PerUserLimit {
			return nil, ErrPerUserLimitReached
		}
	}

	if dc.MinPurchase != nil && subtotal.LessThan(*dc.MinPurchase) {
		return nil, fmt.Errorf("%w (minimum %s)", ErrMinPurchaseNotMet, domain.FormatMoney(*dc.MinPurchase))
	}

	return dc, nil
}

// CalculateDiscount returns the amount to subtract from subtotal. The result
// never exceeds subtotal and is never negative.
func CalculateDiscount(subtotal decimal.Decimal, discountType domain.DiscountType, value decimal.Decimal, maxDiscount *decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch discountType {
	case domain.DiscountTypePercentage:
		amount = subtotal.Mul(value).Div(decimal.NewFromInt(100))
		if maxDiscount != nil && amount.GreaterThan(*maxDiscount) {
			amount = *maxDiscount
		}
	case domain.DiscountTypeFixedAmount:
		amount = value
	default:
		return decimal.Zero
	}

	amount = decimal.Min(amount, subtotal)
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount.Round(2)
}
