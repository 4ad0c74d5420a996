package service

import (
	"context"
	"time"

	"github.com/fjod/go_cart/digital-store/internal/gateway"
	"github.com/google/uuid"
)

type PaymentGateway interface {
	CreatePayment(ctx context.Context, req gateway.PaymentRequest) (*gateway.PaymentSession, error)
}

type Notifier interface {
	NotifyPaymentSucceeded(ctx context.Context, orderID uuid.UUID) error
}

type GatewayHandler struct {
	client  PaymentGateway
	timeout time.Duration
}

func NewGatewayHandler(client PaymentGateway, timeout time.Duration) *GatewayHandler {
	return &GatewayHandler{
		client:  client,
		timeout: timeout,
	}
}

type NotifierHandler struct {
	notifier Notifier
	timeout  time.Duration
}

func NewNotifierHandler(notifier Notifier, timeout time.Duration) *NotifierHandler {
	return &NotifierHandler{
		notifier: notifier,
		timeout:  timeout,
	}
}
