package http

import (
	"context"
	"time"

	d "github.com/fjod/go_cart/digital-store/domain"
	"github.com/fjod/go_cart/digital-store/internal/webhook"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MockCheckoutService implements service.CheckoutService for testing
type MockCheckoutService struct {
	Result *d.CheckoutResult
	Order  *d.Order
	Orders []*d.Order
	Err    error

	LastRequest *d.CheckoutRequest
	LastUserID  int64
	LastOrderID uuid.UUID
}

func (m *MockCheckoutService) CreateOrder(_ context.Context, request *d.CheckoutRequest) (*d.CheckoutResult, error) {
	m.LastRequest = request
	return m.Result, m.Err
}

func (m *MockCheckoutService) RetryPayment(_ context.Context, userID int64, orderID uuid.UUID) (*d.CheckoutResult, error) {
	m.LastUserID, m.LastOrderID = userID, orderID
	return m.Result, m.Err
}

func (m *MockCheckoutService) GetOrder(_ context.Context, userID int64, orderID uuid.UUID) (*d.Order, error) {
	m.LastUserID, m.LastOrderID = userID, orderID
	return m.Order, m.Err
}

func (m *MockCheckoutService) ListOrders(_ context.Context, userID int64) ([]*d.Order, error) {
	m.LastUserID = userID
	return m.Orders, m.Err
}

// MockCartService implements service.CartService for testing
type MockCartService struct {
	Cart *d.Cart
	Err  error

	LastUserID    int64
	LastProductID int64
}

func (m *MockCartService) AddItem(_ context.Context, userID, productID int64) (*d.Cart, error) {
	m.LastUserID, m.LastProductID = userID, productID
	return m.Cart, m.Err
}

func (m *MockCartService) GetCart(_ context.Context, userID int64) (*d.Cart, error) {
	m.LastUserID = userID
	return m.Cart, m.Err
}

// MockReconciler implements WebhookReconciler for testing
type MockReconciler struct {
	Ack  *d.WebhookAck
	Err  error
	HMAC string
	Body []byte
}

func (m *MockReconciler) HandleWebhook(_ context.Context, event *webhook.Event, receivedHMAC string) (*d.WebhookAck, error) {
	m.HMAC = receivedHMAC
	m.Body = event.Raw()
	return m.Ack, m.Err
}

func newTestRouter(checkout *MockCheckoutService, cart *MockCartService, rec *MockReconciler) *testRouter {
	h := Handlers{
		Checkout: NewCheckoutHandler(checkout, 5*time.Second),
		Orders:   NewOrdersHandler(checkout, 5*time.Second),
		Cart:     NewCartHandler(cart, 5*time.Second),
		Webhook:  NewWebhookHandler(rec, 1<<20),
	}
	return &testRouter{handler: NewRouter(h, zerolog.Nop(), 5*time.Second)}
}
