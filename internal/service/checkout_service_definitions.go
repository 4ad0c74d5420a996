package service

import (
	"context"
	"time"

	d "github.com/fjod/go_cart/digital-store/domain"
	"github.com/fjod/go_cart/digital-store/internal/cache"
	"github.com/fjod/go_cart/digital-store/internal/discount"
	r "github.com/fjod/go_cart/digital-store/internal/repository"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("digital-store/service")

type CheckoutService interface {
	CreateOrder(ctx context.Context, request *d.CheckoutRequest) (*d.CheckoutResult, error)
	RetryPayment(ctx context.Context, userID int64, orderID uuid.UUID) (*d.CheckoutResult, error)
	GetOrder(ctx context.Context, userID int64, orderID uuid.UUID) (*d.Order, error)
	ListOrders(ctx context.Context, userID int64) ([]*d.Order, error)
}

type CheckoutServiceImpl struct {
	repo      r.RepoInterface
	discounts *discount.Evaluator
	gateway   *GatewayHandler
	urls      cache.PaymentURLCache
	inflight  singleflight.Group
	now       func() time.Time
}

func NewCheckoutService(
	repo r.RepoInterface,
	gateway *GatewayHandler,
	urls cache.PaymentURLCache,
) *CheckoutServiceImpl {
	return &CheckoutServiceImpl{
		repo:      repo,
		discounts: discount.NewEvaluator(repo),
		gateway:   gateway,
		urls:      urls,
		now:       time.Now,
	}
}
