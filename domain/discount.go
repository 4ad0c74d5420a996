package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "PERCENTAGE"
	DiscountTypeFixedAmount DiscountType = "FIXED_AMOUNT"
)

type DiscountCode struct {
	ID           uuid.UUID
	Code         string
	Type         DiscountType
	Value        decimal.Decimal
	MaxDiscount  *decimal.Decimal
	MinPurchase  *decimal.Decimal
	UsageLimit   *int
	PerUserLimit *int
	StartsAt     *time.Time
	ExpiresAt    *time.Time
	IsActive     bool
	UsageCount   int
}
