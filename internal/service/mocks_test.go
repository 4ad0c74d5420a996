package service

import (
	"context"
	"sync"
	"time"

	d "github.com/fjod/go_cart/digital-store/domain"
	"github.com/fjod/go_cart/digital-store/internal/cache"
	"github.com/fjod/go_cart/digital-store/internal/discount"
	"github.com/fjod/go_cart/digital-store/internal/gateway"
	r "github.com/fjod/go_cart/digital-store/internal/repository"
	"github.com/google/uuid"
)

// MockRepository implements r.RepoInterface for testing
type MockRepository struct {
	mu sync.Mutex

	Cart     *d.Cart
	CartErr  error
	Products map[int64]*d.Product
	Contacts map[int64]*d.Contact

	Discounts map[string]*d.DiscountCode
	Usages    int
	UsagesErr error

	PlaceErr   error
	Placements []*d.OrderPlacement

	Orders   map[uuid.UUID]*d.Order
	Payments map[uuid.UUID]*d.Payment
	GetErr   error

	ApplyErr error
	Applied  []*d.PaymentResult
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		Products:  map[int64]*d.Product{},
		Contacts:  map[int64]*d.Contact{},
		Discounts: map[string]*d.DiscountCode{},
		Orders:    map[uuid.UUID]*d.Order{},
		Payments:  map[uuid.UUID]*d.Payment{},
	}
}

func (m *MockRepository) Close() error {
	return nil
}

func (m *MockRepository) RunMigrations(*r.Credentials) error {
	return nil
}

func (m *MockRepository) GetCart(_ context.Context, _ int64) (*d.Cart, error) {
	if m.CartErr != nil {
		return nil, m.CartErr
	}
	if m.Cart == nil {
		return nil, r.ErrCartNotFound
	}
	return m.Cart, nil
}

func (m *MockRepository) AddCartItem(_ context.Context, userID int64, product *d.Product) (*d.Cart, error) {
	if m.Cart == nil {
		m.Cart = &d.Cart{ID: 1, UserID: userID}
	}
	for _, item := range m.Cart.Items {
		if item.ProductID == product.ID {
			return nil, r.ErrDuplicateCartItem
		}
	}
	m.Cart.Items = append(m.Cart.Items, d.CartItem{
		ProductID:  product.ID,
		PriceAtAdd: product.Price,
		AddedAt:    time.Now(),
	})
	return m.Cart, nil
}

func (m *MockRepository) GetPublishedProduct(_ context.Context, productID int64) (*d.Product, error) {
	p, ok := m.Products[productID]
	if !ok {
		return nil, r.ErrProductNotFound
	}
	return p, nil
}

func (m *MockRepository) GetContact(_ context.Context, userID int64) (*d.Contact, error) {
	c, ok := m.Contacts[userID]
	if !ok {
		return nil, r.ErrUserNotFound
	}
	return c, nil
}

func (m *MockRepository) GetDiscountByCode(_ context.Context, code string) (*d.DiscountCode, error) {
	dc, ok := m.Discounts[code]
	if !ok {
		return nil, discount.ErrNotFound
	}
	return dc, nil
}

func (m *MockRepository) CountDiscountUsages(_ context.Context, _ uuid.UUID, _ int64) (int, error) {
	return m.Usages, m.UsagesErr
}

func (m *MockRepository) PlaceOrder(_ context.Context, placement *d.OrderPlacement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PlaceErr != nil {
		return m.PlaceErr
	}
	m.Placements = append(m.Placements, placement)
	m.Orders[placement.Order.ID] = placement.Order
	m.Payments[placement.Order.ID] = placement.Payment
	m.Cart = nil
	return nil
}

func (m *MockRepository) GetOrder(_ context.Context, orderID uuid.UUID) (*d.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	o, ok := m.Orders[orderID]
	if !ok {
		return nil, r.ErrOrderNotFound
	}
	return o, nil
}

func (m *MockRepository) ListOrders(_ context.Context, userID int64) ([]*d.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []*d.Order
	for _, o := range m.Orders {
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (m *MockRepository) GetPaymentByOrderID(_ context.Context, orderID uuid.UUID) (*d.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	p, ok := m.Payments[orderID]
	if !ok {
		return nil, r.ErrPaymentNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *MockRepository) SetExternalOrderID(_ context.Context, orderID uuid.UUID, remoteOrderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Payments[orderID]
	if !ok {
		return r.ErrPaymentNotFound
	}
	if p.ExternalOrderID == nil && !p.WebhookReceived {
		p.ExternalOrderID = &remoteOrderID
	}
	return nil
}

// ApplyPaymentResult mirrors the conditional updates of the real repository.
func (m *MockRepository) ApplyPaymentResult(_ context.Context, result *d.PaymentResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ApplyErr != nil {
		return m.ApplyErr
	}
	p, ok := m.Payments[result.OrderID]
	if !ok || p.WebhookReceived {
		return r.ErrWebhookAlreadyProcessed
	}
	o := m.Orders[result.OrderID]
	if o.Status != d.OrderStatusPending {
		return r.ErrOrderNotPending
	}
	p.WebhookReceived = true
	p.WebhookData = result.RawPayload
	if result.Success {
		p.Status = d.PaymentStatusCompleted
		o.Status = d.OrderStatusPaid
		paidAt := result.ProcessedAt
		o.PaidAt = &paidAt
		p.PaidAt = &paidAt
	} else {
		p.Status = d.PaymentStatusFailed
		o.Status = d.OrderStatusFailed
		reason := result.FailureReason
		p.FailureReason = &reason
	}
	m.Applied = append(m.Applied, result)
	return nil
}

// MockGateway implements PaymentGateway for testing
type MockGateway struct {
	mu       sync.Mutex
	Err      error
	Delay    time.Duration
	Calls    int
	Requests []gateway.PaymentRequest
}

func (m *MockGateway) CreatePayment(ctx context.Context, req gateway.PaymentRequest) (*gateway.PaymentSession, error) {
	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}
	if err := ctx.Err(); err != nil {
		return nil, &gateway.InitError{Step: "authenticate", Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return &gateway.PaymentSession{
		RemoteOrderID: "217503754",
		PaymentToken:  "token-" + req.OrderID.String(),
		URL:           "https://pay.example/iframes/1?payment_token=token-" + req.OrderID.String(),
	}, nil
}

func (m *MockGateway) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// MockNotifier implements Notifier for testing
type MockNotifier struct {
	Err      error
	Notified []uuid.UUID
}

func (m *MockNotifier) NotifyPaymentSucceeded(_ context.Context, orderID uuid.UUID) error {
	m.Notified = append(m.Notified, orderID)
	return m.Err
}

// MockURLCache implements cache.PaymentURLCache for testing
type MockURLCache struct {
	mu      sync.Mutex
	URLs    map[uuid.UUID]string
	Deleted []uuid.UUID
}

func NewMockURLCache() *MockURLCache {
	return &MockURLCache{URLs: map[uuid.UUID]string{}}
}

func (m *MockURLCache) Get(_ context.Context, orderID uuid.UUID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	url, ok := m.URLs[orderID]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return url, nil
}

func (m *MockURLCache) Set(_ context.Context, orderID uuid.UUID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.URLs[orderID] = url
	return nil
}

func (m *MockURLCache) Delete(_ context.Context, orderID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.URLs, orderID)
	m.Deleted = append(m.Deleted, orderID)
	return nil
}

// newTestCheckoutService creates a fully wired CheckoutService for testing
func newTestCheckoutService(repo *MockRepository, gw *MockGateway, urls *MockURLCache) *CheckoutServiceImpl {
	svc := NewCheckoutService(repo, NewGatewayHandler(gw, 5*time.Second), urls)
	if urls == nil {
		svc.urls = nil
	}
	return svc
}
