package service

import (
	"context"
	"errors"
	"fmt"

	d "github.com/fjod/go_cart/digital-store/domain"
	"github.com/fjod/go_cart/digital-store/internal/cache"
	"github.com/fjod/go_cart/digital-store/internal/gateway"
	r "github.com/fjod/go_cart/digital-store/internal/repository"
	"github.com/fjod/go_cart/digital-store/pkg/logger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// initPayment runs the processor choreography for a committed order. A
// processor order registered by an earlier attempt is reused and a newly
// registered one is stored on the payment. Every error it returns matches
// gateway.ErrPaymentInitialization.
func (s *CheckoutServiceImpl) initPayment(ctx context.Context, order *d.Order, remoteOrderID string) (string, error) {
	contact, err := s.repo.GetContact(ctx, order.UserID)
	if err != nil {
		return "", fmt.Errorf("%w: failed to load buyer contact: %w", gateway.ErrPaymentInitialization, err)
	}

	paymentCtx, cancel := context.WithTimeout(ctx, s.gateway.timeout)
	defer cancel()
	session, err := s.gateway.client.CreatePayment(paymentCtx, gateway.PaymentRequest{
		OrderID:       order.ID,
		Amount:        order.Total,
		Email:         contact.Email,
		FullName:      contact.FullName,
		RemoteOrderID: remoteOrderID,
	})
	var initErr *gateway.InitError
	switch {
	case err == nil:
		s.rememberRemoteOrder(ctx, order.ID, remoteOrderID, session.RemoteOrderID)
	case errors.As(err, &initErr):
		s.rememberRemoteOrder(ctx, order.ID, remoteOrderID, initErr.RemoteOrderID)
	}
	if err != nil {
		if !errors.Is(err, gateway.ErrPaymentInitialization) {
			err = fmt.Errorf("%w: %w", gateway.ErrPaymentInitialization, err)
		}
		return "", err
	}

	if s.urls != nil {
		if cacheErr := s.urls.Set(ctx, order.ID, session.URL); cacheErr != nil {
			logger.FromContext(ctx).Warn().Err(cacheErr).
				Str("order_id", order.ID.String()).
				Msg("failed to cache payment url")
		}
	}
	return session.URL, nil
}

func (s *CheckoutServiceImpl) rememberRemoteOrder(ctx context.Context, orderID uuid.UUID, known, registered string) {
	if registered == "" || registered == known {
		return
	}
	if err := s.repo.SetExternalOrderID(ctx, orderID, registered); err != nil {
		logger.FromContext(ctx).Error().Err(err).
			Str("order_id", orderID.String()).
			Str("remote_order_id", registered).
			Msg("failed to store processor order id")
	}
}

// RetryPayment re-issues the payment URL for a pending order owned by the
// user. A URL minted earlier is reused while it is still valid, and
// concurrent retries for the same order share one processor round trip.
func (s *CheckoutServiceImpl) RetryPayment(ctx context.Context, userID int64, orderID uuid.UUID) (*d.CheckoutResult, error) {
	ctx, span := tracer.Start(ctx, "CheckoutService.RetryPayment")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user.id", userID),
		attribute.String("order.id", orderID.String()),
	)

	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, invalid(ErrOrderNotPayable)
	}

	payment, err := s.repo.GetPaymentByOrderID(ctx, orderID)
	if errors.Is(err, r.ErrPaymentNotFound) {
		return nil, invalid(ErrOrderNotPayable)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if payment.WebhookReceived || payment.Status != d.PaymentStatusPending {
		return nil, invalid(ErrOrderNotPayable)
	}

	if s.urls != nil {
		url, cacheErr := s.urls.Get(ctx, orderID)
		if cacheErr == nil {
			return &d.CheckoutResult{Order: order, PaymentURL: url}, nil
		}
		if !errors.Is(cacheErr, cache.ErrCacheMiss) {
			logger.FromContext(ctx).Warn().Err(cacheErr).
				Str("order_id", orderID.String()).
				Msg("payment url cache lookup failed")
		}
	}

	var remoteOrderID string
	if payment.ExternalOrderID != nil {
		remoteOrderID = *payment.ExternalOrderID
	}

	// The call is shared by every waiting retry, so it must outlive the
	// request that happened to start it.
	v, err, _ := s.inflight.Do(orderID.String(), func() (any, error) {
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.gateway.timeout)
		defer cancel()
		return s.initPayment(sharedCtx, order, remoteOrderID)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &d.CheckoutResult{Order: order, PaymentURL: v.(string)}, nil
}

// GetOrder returns the order if it belongs to the user. Orders of other
// users are reported as not found.
func (s *CheckoutServiceImpl) GetOrder(ctx context.Context, userID int64, orderID uuid.UUID) (*d.Order, error) {
	return s.ownedOrder(ctx, userID, orderID)
}

func (s *CheckoutServiceImpl) ListOrders(ctx context.Context, userID int64) ([]*d.Order, error) {
	orders, err := s.repo.ListOrders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *CheckoutServiceImpl) ownedOrder(ctx context.Context, userID int64, orderID uuid.UUID) (*d.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if errors.Is(err, r.ErrOrderNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
