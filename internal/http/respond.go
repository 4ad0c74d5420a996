package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/digital-store/internal/discount"
	"github.com/fjod/go_cart/digital-store/internal/gateway"
	"github.com/fjod/go_cart/digital-store/internal/service"
	"github.com/fjod/go_cart/digital-store/pkg/logger"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, r, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError converts service errors to HTTP status codes.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *service.ValidationError
	switch {
	case errors.As(err, &validation):
		status, code := validationStatus(validation)
		respondError(w, r, status, code, validation.Error())
	case errors.Is(err, service.ErrOrderNotFound):
		respondError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, gateway.ErrPaymentInitialization):
		logger.FromContext(r.Context()).Error().Err(err).Msg("payment gateway failed")
		respondError(w, r, http.StatusBadGateway, "payment_init_failed", "payment provider is unavailable, please retry")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		logger.FromContext(r.Context()).Error().Err(err).Msg("request failed")
		respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func validationStatus(err *service.ValidationError) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidID):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, service.ErrAlreadyInCart):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, service.ErrOrderNotPayable):
		return http.StatusConflict, "order_not_payable"
	case errors.Is(err, service.ErrCartChanged):
		return http.StatusUnprocessableEntity, "cart_changed"
	case errors.Is(err, service.ErrEmptyCart):
		return http.StatusUnprocessableEntity, "empty_cart"
	case errors.Is(err, service.ErrInvalidOrderTotal):
		return http.StatusUnprocessableEntity, "invalid_total"
	case errors.Is(err, service.ErrProductUnavailable):
		return http.StatusUnprocessableEntity, "product_unavailable"
	case errors.Is(err, discount.ErrRejected):
		return http.StatusUnprocessableEntity, "discount_rejected"
	default:
		return http.StatusUnprocessableEntity, "validation_failed"
	}
}
