package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/digital-store/domain"
	"github.com/fjod/go_cart/digital-store/internal/discount"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (r *Repository) GetDiscountByCode(ctx context.Context, code string) (*domain.DiscountCode, error) {
	var (
		dc           domain.DiscountCode
		maxDiscount  decimal.NullDecimal
		minPurchase  decimal.NullDecimal
		usageLimit   sql.NullInt32
		perUserLimit sql.NullInt32
		startsAt     sql.NullTime
		expiresAt    sql.NullTime
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT id, code, type, value, max_discount, min_purchase, usage_limit, per_user_limit,
		        starts_at, expires_at, is_active, usage_count
		 FROM discount_codes WHERE code = UPPER($1)`, code,
	).Scan(&dc.ID, &dc.Code, &dc.Type, &dc.Value, &maxDiscount, &minPurchase, &usageLimit, &perUserLimit,
		&startsAt, &expiresAt, &dc.IsActive, &dc.UsageCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, discount.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query discount code: %w", err)
	}

	if maxDiscount.Valid {
		dc.MaxDiscount = &maxDiscount.Decimal
	}
	if minPurchase.Valid {
		dc.MinPurchase = &minPurchase.Decimal
	}
	if usageLimit.Valid {
		v := int(usageLimit.Int32)
		dc.UsageLimit = &v
	}
	if perUserLimit.Valid {
		v := int(perUserLimit.Int32)
		dc.PerUserLimit = &v
	}
	if startsAt.Valid {
		dc.StartsAt = &startsAt.Time
	}
	if expiresAt.Valid {
		dc.ExpiresAt = &expiresAt.Time
	}
	return &dc, nil
}

// CountDiscountUsages counts redemption rows rather than trusting a cached
// counter.
func (r *Repository) CountDiscountUsages(ctx context.Context, discountID uuid.UUID, userID int64) (int, error) {
	return countUsages(ctx, r.db, discountID, userID)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func countUsages(ctx context.Context, q queryRower, discountID uuid.UUID, userID int64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM discount_usages WHERE discount_code_id = $1 AND user_id = $2`,
		discountID, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count discount usages: %w", err)
	}
	return n, nil
}
