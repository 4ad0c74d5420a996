package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "digital_store"

var (
	CheckoutOrders = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_orders_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})

	PaymentWebhooks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_webhooks_total",
		Help:      "Payment webhook deliveries by outcome.",
	}, []string{"outcome"})

	GatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "payment_gateway_request_duration_seconds",
		Help:      "Latency of payment processor calls by step.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"step", "result"})

	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "receipt_notification_failures_total",
		Help:      "Receipt jobs that could not be enqueued.",
	})
)

// Checkout outcomes.
const (
	OutcomeCreated           = "created"
	OutcomeValidationFailed  = "validation_failed"
	OutcomePaymentInitFailed = "payment_init_failed"
	OutcomeError             = "error"
)

// Webhook outcomes.
const (
	WebhookPaid             = "paid"
	WebhookFailed           = "failed"
	WebhookDuplicate        = "duplicate"
	WebhookUnknownOrder     = "unknown_order"
	WebhookInvalidSignature = "invalid_signature"
	WebhookError            = "error"
)
