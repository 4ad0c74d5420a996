package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	d "github.com/fjod/go_cart/digital-store/domain"
	"github.com/fjod/go_cart/digital-store/internal/cache"
	"github.com/fjod/go_cart/digital-store/internal/metrics"
	r "github.com/fjod/go_cart/digital-store/internal/repository"
	"github.com/fjod/go_cart/digital-store/internal/webhook"
	"github.com/fjod/go_cart/digital-store/pkg/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

const defaultFailureReason = "payment failed"

type SignatureVerifier interface {
	Verify(tx webhook.Transaction, received string) bool
}

// PaymentReconciler applies verified processor callbacks to orders exactly
// once.
type PaymentReconciler struct {
	repo     r.RepoInterface
	verifier SignatureVerifier
	notifier *NotifierHandler
	urls     cache.PaymentURLCache
	now      func() time.Time
}

func NewPaymentReconciler(
	repo r.RepoInterface,
	verifier SignatureVerifier,
	notifier *NotifierHandler,
	urls cache.PaymentURLCache,
) *PaymentReconciler {
	return &PaymentReconciler{
		repo:     repo,
		verifier: verifier,
		notifier: notifier,
		urls:     urls,
		now:      time.Now,
	}
}

// HandleWebhook verifies and applies one callback. Any error other than
// ErrInvalidSignature means nothing was committed and the processor may
// redeliver.
func (p *PaymentReconciler) HandleWebhook(ctx context.Context, event *webhook.Event, receivedHMAC string) (*d.WebhookAck, error) {
	ctx, span := tracer.Start(ctx, "PaymentReconciler.HandleWebhook")
	defer span.End()

	log := logger.FromContext(ctx).With().
		Int64("transaction_id", event.Obj.ID).
		Logger()

	if !p.verifier.Verify(event.Obj, receivedHMAC) {
		metrics.PaymentWebhooks.WithLabelValues(metrics.WebhookInvalidSignature).Inc()
		log.Warn().Msg("rejected webhook with invalid signature")
		return nil, ErrInvalidSignature
	}

	orderID, err := event.MerchantOrderID()
	if err != nil {
		metrics.PaymentWebhooks.WithLabelValues(metrics.WebhookUnknownOrder).Inc()
		log.Warn().Err(err).Msg("webhook without a usable merchant order id")
		return ignored(), nil
	}
	span.SetAttributes(attribute.String("order.id", orderID.String()))
	log = log.With().Str("order_id", orderID.String()).Logger()

	ack, err := p.reconcile(ctx, &log, event, orderID)
	if err != nil {
		metrics.PaymentWebhooks.WithLabelValues(metrics.WebhookError).Inc()
		span.RecordError(err)
		return nil, err
	}
	return ack, nil
}

func (p *PaymentReconciler) reconcile(ctx context.Context, log *zerolog.Logger, event *webhook.Event, orderID uuid.UUID) (*d.WebhookAck, error) {
	payment, err := p.repo.GetPaymentByOrderID(ctx, orderID)
	if errors.Is(err, r.ErrPaymentNotFound) {
		metrics.PaymentWebhooks.WithLabelValues(metrics.WebhookUnknownOrder).Inc()
		log.Warn().Msg("webhook for unknown order")
		return ignored(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if payment.WebhookReceived {
		metrics.PaymentWebhooks.WithLabelValues(metrics.WebhookDuplicate).Inc()
		log.Info().Msg("duplicate webhook ignored")
		return duplicate(), nil
	}

	tx := event.Obj
	if tx.Pending && !tx.Success {
		log.Info().Msg("pending transaction acknowledged, awaiting final callback")
		return ignored(), nil
	}

	result := &d.PaymentResult{
		OrderID:     orderID,
		Success:     tx.Success,
		Method:      d.PaymentMethodFromSource(tx.SourceData.Type),
		RawPayload:  event.Raw(),
		ProcessedAt: p.now().UTC(),
	}
	if tx.ID != 0 {
		result.TransactionID = strconv.FormatInt(tx.ID, 10)
	}
	if tx.Order != nil && tx.Order.ID != 0 {
		result.RemoteOrderID = strconv.FormatInt(tx.Order.ID, 10)
	}

	expected := d.ToMinorUnits(payment.Amount)
	switch {
	case result.Success && tx.AmountCents != expected:
		result.Success = false
		result.FailureReason = fmt.Sprintf("amount mismatch: expected %s, got %s",
			d.FormatMoney(payment.Amount), d.FormatMoney(d.FromMinorUnits(tx.AmountCents)))
		log.Error().Int64("expected_cents", expected).Int64("amount_cents", tx.AmountCents).Msg("paid amount does not match order total")
	case !result.Success:
		result.FailureReason = tx.Data.Message
		if result.FailureReason == "" {
			result.FailureReason = defaultFailureReason
		}
	}

	err = p.repo.ApplyPaymentResult(ctx, result)
	switch {
	case errors.Is(err, r.ErrWebhookAlreadyProcessed):
		metrics.PaymentWebhooks.WithLabelValues(metrics.WebhookDuplicate).Inc()
		log.Info().Msg("webhook already applied by a concurrent delivery")
		return duplicate(), nil
	case errors.Is(err, r.ErrOrderNotPending):
		metrics.PaymentWebhooks.WithLabelValues(metrics.WebhookDuplicate).Inc()
		log.Warn().Msg("webhook for an order that is no longer pending")
		return ignored(), nil
	case err != nil:
		return nil, fmt.Errorf("failed to apply payment result: %w", err)
	}

	if !result.Success {
		metrics.PaymentWebhooks.WithLabelValues(metrics.WebhookFailed).Inc()
		log.Info().Str("reason", result.FailureReason).Msg("payment failed")
		return processed(), nil
	}

	metrics.PaymentWebhooks.WithLabelValues(metrics.WebhookPaid).Inc()
	log.Info().Str("transaction_id", result.TransactionID).Msg("order paid")
	p.afterPaid(ctx, log, orderID)
	return processed(), nil
}

// afterPaid runs the best-effort follow ups of a successful payment. Their
// failures are logged and never change the acknowledgement.
func (p *PaymentReconciler) afterPaid(ctx context.Context, log *zerolog.Logger, orderID uuid.UUID) {
	if p.notifier != nil {
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.notifier.timeout)
		err := p.notifier.notifier.NotifyPaymentSucceeded(notifyCtx, orderID)
		cancel()
		if err != nil {
			metrics.NotificationFailures.Inc()
			log.Error().Err(err).Msg("failed to enqueue receipt")
		}
	}
	if p.urls != nil {
		if err := p.urls.Delete(ctx, orderID); err != nil {
			log.Warn().Err(err).Msg("failed to evict payment url")
		}
	}
}

func processed() *d.WebhookAck {
	return &d.WebhookAck{Received: true, Status: d.WebhookProcessed}
}

func duplicate() *d.WebhookAck {
	return &d.WebhookAck{Received: true, Status: d.WebhookDuplicate}
}

func ignored() *d.WebhookAck {
	return &d.WebhookAck{Received: true, Status: d.WebhookIgnored}
}
