package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is a denormalized copy of the product at purchase time.
type OrderItem struct {
	ID        int64           `json:"id"`
	ProductID *int64          `json:"product_id,omitempty"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Price     decimal.Decimal `json:"price"`
	FileRef   string          `json:"file_ref"`
}

type Order struct {
	ID               uuid.UUID       `json:"id"`
	UserID           int64           `json:"user_id"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	Total            decimal.Decimal `json:"total"`
	DiscountCodeID   *uuid.UUID      `json:"discount_code_id,omitempty"`
	DiscountCodeUsed *string         `json:"discount_code_used,omitempty"`
	Status           OrderStatus     `json:"status"`
	Items            []OrderItem     `json:"items"`
	CreatedAt        time.Time       `json:"created_at"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
}

type Payment struct {
	ID                    uuid.UUID       `json:"id"`
	OrderID               uuid.UUID       `json:"order_id"`
	Status                PaymentStatus   `json:"status"`
	Amount                decimal.Decimal `json:"amount"`
	ExternalTransactionID *string         `json:"external_transaction_id,omitempty"`
	ExternalOrderID       *string         `json:"external_order_id,omitempty"`
	Method                *PaymentMethod  `json:"payment_method,omitempty"`
	WebhookReceived       bool            `json:"webhook_received"`
	WebhookData           []byte          `json:"-"`
	FailureReason         *string         `json:"failure_reason,omitempty"`
	PaidAt                *time.Time      `json:"paid_at,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
}

// OrderPlacement groups everything written by the checkout transaction.
type OrderPlacement struct {
	Order          *Order
	Payment        *Payment
	Discount       *DiscountCode
	CartProductIDs []int64
}
