package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	d "github.com/fjod/go_cart/digital-store/domain"
	"github.com/fjod/go_cart/digital-store/internal/metrics"
	"github.com/fjod/go_cart/digital-store/internal/service"
	"github.com/fjod/go_cart/digital-store/internal/webhook"
	"github.com/fjod/go_cart/digital-store/pkg/logger"
)

type WebhookReconciler interface {
	HandleWebhook(ctx context.Context, event *webhook.Event, receivedHMAC string) (*d.WebhookAck, error)
}

type WebhookHandler struct {
	reconciler  WebhookReconciler
	maxBodySize int64
}

func NewWebhookHandler(reconciler WebhookReconciler, maxBodySize int64) *WebhookHandler {
	return &WebhookHandler{
		reconciler:  reconciler,
		maxBodySize: maxBodySize,
	}
}

// POST /api/v1/payments/webhook?hmac=...
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "unreadable body")
		return
	}

	event, err := webhook.ParseEvent(body)
	if err != nil {
		metrics.PaymentWebhooks.WithLabelValues(metrics.WebhookInvalidSignature).Inc()
		log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("undecodable webhook body")
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	ack, err := h.reconciler.HandleWebhook(r.Context(), event, r.URL.Query().Get("hmac"))
	if errors.Is(err, service.ErrInvalidSignature) {
		log.Warn().Str("remote_addr", r.RemoteAddr).Msg("webhook signature rejected")
		respondError(w, r, http.StatusUnauthorized, "invalid_signature", err.Error())
		return
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, ack)
}
