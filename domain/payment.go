package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodMobileWallet PaymentMethod = "MOBILE_WALLET"
	PaymentMethodCash         PaymentMethod = "CASH"
)

// PaymentMethodFromSource classifies the processor's free-text source type.
func PaymentMethodFromSource(sourceType string) PaymentMethod {
	s := strings.ToLower(sourceType)
	switch {
	case strings.Contains(s, "card"):
		return PaymentMethodCard
	case strings.Contains(s, "wallet"):
		return PaymentMethodMobileWallet
	default:
		return PaymentMethodCash
	}
}

// PaymentResult is the outcome of a verified webhook, applied atomically
// to the order and its payment.
type PaymentResult struct {
	OrderID       uuid.UUID
	Success       bool
	TransactionID string
	RemoteOrderID string
	Method        PaymentMethod
	FailureReason string
	RawPayload    []byte
	ProcessedAt   time.Time
}

type WebhookAckStatus string

const (
	WebhookProcessed WebhookAckStatus = "processed"
	WebhookDuplicate WebhookAckStatus = "duplicate"
	WebhookIgnored   WebhookAckStatus = "ignored"
)

type WebhookAck struct {
	Received bool             `json:"received"`
	Status   WebhookAckStatus `json:"status"`
}
