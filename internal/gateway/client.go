package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_cart/digital-store/domain"
	"github.com/fjod/go_cart/digital-store/internal/metrics"
	"github.com/fjod/go_cart/digital-store/pkg/circuitbreaker"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	stepAuthenticate  = "authenticate"
	stepRegisterOrder = "register_order"
	stepPaymentKey    = "payment_key"

	maxErrorBody = 512
)

type Config struct {
	// BaseURL is the processor API root, e.g. https://accept.paymob.com/api.
	BaseURL string
	// IframeBaseURL prefixes the hosted payment page URL.
	IframeBaseURL string
	APIKey        string
	IntegrationID int64
	IframeID      string
	Currency      string
	KeyExpiration time.Duration
	Timeout       time.Duration
}

type PaymentRequest struct {
	OrderID  uuid.UUID
	Amount   decimal.Decimal
	Email    string
	FullName string
	// RemoteOrderID is the processor order registered by an earlier
	// attempt. When set, registration is skipped because the processor
	// rejects a repeated merchant order id.
	RemoteOrderID string
}

type PaymentSession struct {
	RemoteOrderID string
	PaymentToken  string
	URL           string
}

// Client drives the authenticate, register order and payment key
// choreography against the processor.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewClient creates a processor client. A nil httpClient gets a traced
// client bounded by cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if cfg.KeyExpiration == 0 {
		cfg.KeyExpiration = time.Hour
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.IframeBaseURL = strings.TrimRight(cfg.IframeBaseURL, "/")

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		breaker: circuitbreaker.New[[]byte](circuitbreaker.DefaultSettings("payment-gateway")),
	}
}

// CreatePayment registers the order with the processor and returns the
// hosted payment page URL. Any failure is an *InitError. One raised after
// registration carries the processor order id for the next attempt.
func (c *Client) CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentSession, error) {
	amountCents := domain.ToMinorUnits(req.Amount)
	if amountCents <= 0 {
		return nil, &InitError{Step: stepRegisterOrder, Err: errInvalidAmount}
	}

	token, err := c.authenticate(ctx)
	if err != nil {
		return nil, &InitError{Step: stepAuthenticate, Err: err}
	}

	var remoteOrderID int64
	if req.RemoteOrderID != "" {
		remoteOrderID, err = strconv.ParseInt(req.RemoteOrderID, 10, 64)
		if err != nil {
			return nil, &InitError{Step: stepRegisterOrder, Err: fmt.Errorf("invalid remote order id %q: %w", req.RemoteOrderID, err)}
		}
	} else {
		remoteOrderID, err = c.registerOrder(ctx, token, amountCents, req.OrderID)
		if err != nil {
			return nil, &InitError{Step: stepRegisterOrder, Err: err}
		}
	}

	billing := NewBillingData(req.FullName, req.Email)
	paymentToken, err := c.mintPaymentKey(ctx, token, remoteOrderID, amountCents, billing)
	if err != nil {
		return nil, &InitError{
			Step:          stepPaymentKey,
			Err:           err,
			RemoteOrderID: strconv.FormatInt(remoteOrderID, 10),
		}
	}

	return &PaymentSession{
		RemoteOrderID: strconv.FormatInt(remoteOrderID, 10),
		PaymentToken:  paymentToken,
		URL:           c.PaymentURL(paymentToken),
	}, nil
}

// PaymentURL builds the hosted page URL for a payment token.
func (c *Client) PaymentURL(paymentToken string) string {
	return fmt.Sprintf("%s/iframes/%s?payment_token=%s", c.cfg.IframeBaseURL, c.cfg.IframeID, paymentToken)
}

func (c *Client) authenticate(ctx context.Context) (string, error) {
	var resp authResponse
	if err := c.post(ctx, stepAuthenticate, "/auth/tokens", authRequest{APIKey: c.cfg.APIKey}, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errEmptyToken
	}
	return resp.Token, nil
}

func (c *Client) registerOrder(ctx context.Context, token string, amountCents int64, orderID uuid.UUID) (int64, error) {
	body := registerOrderRequest{
		AuthToken:       token,
		DeliveryNeeded:  false,
		AmountCents:     amountCents,
		Currency:        c.cfg.Currency,
		MerchantOrderID: orderID.String(),
		Items:           []any{},
	}
	var resp registerOrderResponse
	if err := c.post(ctx, stepRegisterOrder, "/ecommerce/orders", body, &resp); err != nil {
		return 0, err
	}
	if resp.ID == 0 {
		return 0, errEmptyOrderID
	}
	return resp.ID, nil
}

func (c *Client) mintPaymentKey(ctx context.Context, token string, remoteOrderID, amountCents int64, billing BillingData) (string, error) {
	body := paymentKeyRequest{
		AuthToken:     token,
		AmountCents:   amountCents,
		Expiration:    int64(c.cfg.KeyExpiration / time.Second),
		OrderID:       remoteOrderID,
		BillingData:   billing,
		Currency:      c.cfg.Currency,
		IntegrationID: c.cfg.IntegrationID,
	}
	var resp paymentKeyResponse
	if err := c.post(ctx, stepPaymentKey, "/acceptance/payment_keys", body, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errEmptyToken
	}
	return resp.Token, nil
}

func (c *Client) post(ctx context.Context, step, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, path, payload)
	})
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.GatewayRequestDuration.WithLabelValues(step, result).Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, path string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
