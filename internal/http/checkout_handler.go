package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	d "github.com/fjod/go_cart/digital-store/domain"
	"github.com/fjod/go_cart/digital-store/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CheckoutHandler struct {
	service service.CheckoutService
	timeout time.Duration
}

func NewCheckoutHandler(svc service.CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		timeout: timeout,
	}
}

type CheckoutRequestDTO struct {
	DiscountCode string `json:"discount_code"`
}

type CheckoutResponseDTO struct {
	Order      OrderResponseDTO `json:"order"`
	PaymentURL string           `json:"payment_url"`
}

type PaymentInitFailedResponseDTO struct {
	ErrorResponse
	Order OrderResponseDTO `json:"order"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, r, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	// An empty body means checkout without a discount code.
	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result, err := h.service.CreateOrder(ctx, &d.CheckoutRequest{
		UserID:       userID,
		DiscountCode: req.DiscountCode,
	})
	var initFailed *service.OrderCreatedPaymentInitFailedError
	if errors.As(err, &initFailed) {
		respondJSON(w, r, http.StatusBadGateway, PaymentInitFailedResponseDTO{
			ErrorResponse: ErrorResponse{
				Error:   "order created but payment could not be initialized",
				Code:    "payment_init_failed",
				Details: "retry with POST /api/v1/orders/" + initFailed.Order.ID.String() + "/payment",
			},
			Order: convertOrder(initFailed.Order),
		})
		return
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, CheckoutResponseDTO{
		Order:      convertOrder(result.Order),
		PaymentURL: result.PaymentURL,
	})
}

// POST /api/v1/orders/{order_id}/payment
func (h *CheckoutHandler) RetryPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, r, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	result, err := h.service.RetryPayment(ctx, userID, orderID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, CheckoutResponseDTO{
		Order:      convertOrder(result.Order),
		PaymentURL: result.PaymentURL,
	})
}
