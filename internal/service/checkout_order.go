package service

import (
	"context"
	"errors"
	"fmt"

	d "github.com/fjod/go_cart/digital-store/domain"
	"github.com/fjod/go_cart/digital-store/internal/discount"
	"github.com/fjod/go_cart/digital-store/internal/metrics"
	"github.com/fjod/go_cart/digital-store/internal/pricing"
	r "github.com/fjod/go_cart/digital-store/internal/repository"
	"github.com/fjod/go_cart/digital-store/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// CreateOrder turns the user's cart into a pending order and returns the
// hosted payment page for it. When the order is committed but the
// processor cannot be reached, the error is an
// *OrderCreatedPaymentInitFailedError carrying the order.
func (s *CheckoutServiceImpl) CreateOrder(ctx context.Context, request *d.CheckoutRequest) (*d.CheckoutResult, error) {
	ctx, span := tracer.Start(ctx, "CheckoutService.CreateOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", request.UserID))

	result, err := s.createOrder(ctx, request)
	metrics.CheckoutOrders.WithLabelValues(checkoutOutcome(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

func (s *CheckoutServiceImpl) createOrder(ctx context.Context, request *d.CheckoutRequest) (*d.CheckoutResult, error) {
	log := logger.FromContext(ctx)

	cart, err := s.repo.GetCart(ctx, request.UserID)
	if errors.Is(err, r.ErrCartNotFound) {
		return nil, invalid(ErrEmptyCart)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	subtotal, err := pricing.Subtotal(cart.Items)
	if err != nil {
		return nil, invalid(err)
	}

	var code *d.DiscountCode
	discountAmount := decimal.Zero
	if normalized := discount.NormalizeCode(request.DiscountCode); normalized != "" {
		code, err = s.discounts.Validate(ctx, normalized, request.UserID, subtotal)
		if errors.Is(err, discount.ErrRejected) {
			return nil, invalid(err)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to validate discount code: %w", err)
		}
		discountAmount = discount.CalculateDiscount(subtotal, code.Type, code.Value, code.MaxDiscount)
	}

	total := subtotal.Sub(discountAmount)
	if !total.IsPositive() {
		return nil, invalid(ErrInvalidOrderTotal)
	}

	items, err := s.buildOrderItems(ctx, cart.Items)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order := &d.Order{
		ID:             uuid.New(),
		UserID:         request.UserID,
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		Total:          total,
		Status:         d.OrderStatusPending,
		Items:          items,
		CreatedAt:      now,
	}
	if code != nil {
		order.DiscountCodeID = &code.ID
		order.DiscountCodeUsed = &code.Code
	}
	payment := &d.Payment{
		ID:        uuid.New(),
		OrderID:   order.ID,
		Status:    d.PaymentStatusPending,
		Amount:    total,
		CreatedAt: now,
	}

	err = s.repo.PlaceOrder(ctx, &d.OrderPlacement{
		Order:          order,
		Payment:        payment,
		Discount:       code,
		CartProductIDs: cart.ProductIDs(),
	})
	if err != nil {
		return nil, placeOrderError(err)
	}

	log.Info().
		Str("order_id", order.ID.String()).
		Int64("user_id", order.UserID).
		Str("total", d.FormatMoney(order.Total)).
		Int("items", len(order.Items)).
		Msg("order created")

	url, err := s.initPayment(ctx, order, "")
	if err != nil {
		log.Error().Err(err).Str("order_id", order.ID.String()).Msg("payment initialization failed")
		return nil, &OrderCreatedPaymentInitFailedError{Order: order, Err: err}
	}

	return &d.CheckoutResult{Order: order, PaymentURL: url}, nil
}

func placeOrderError(err error) error {
	switch {
	case errors.Is(err, r.ErrCartEmpty):
		return invalid(ErrEmptyCart)
	case errors.Is(err, r.ErrCartChanged):
		return invalid(ErrCartChanged)
	case errors.Is(err, r.ErrDiscountExhausted):
		return invalid(discount.ErrUsageLimitReached)
	case errors.Is(err, r.ErrDiscountPerUserLimit):
		return invalid(discount.ErrPerUserLimitReached)
	case errors.Is(err, r.ErrConstraintViolation):
		return invalid(ErrInvalidOrderTotal)
	default:
		return fmt.Errorf("failed to place order: %w", err)
	}
}

func checkoutOutcome(err error) string {
	var validation *ValidationError
	var initFailed *OrderCreatedPaymentInitFailedError
	switch {
	case err == nil:
		return metrics.OutcomeCreated
	case errors.As(err, &validation):
		return metrics.OutcomeValidationFailed
	case errors.As(err, &initFailed):
		return metrics.OutcomePaymentInitFailed
	default:
		return metrics.OutcomeError
	}
}
