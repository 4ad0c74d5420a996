package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_cart/digital-store/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Handlers struct {
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Cart     *CartHandler
	Webhook  *WebhookHandler
}

func NewRouter(h Handlers, log zerolog.Logger, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(logger.Middleware(log))
	r.Use(AccessLogMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Signed by the processor, not by a user.
		r.Post("/payments/webhook", h.Webhook.Handle)

		r.Group(func(r chi.Router) {
			r.Use(MockAuthMiddleware)

			r.Post("/checkout", h.Checkout.CreateOrder)
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.Orders.ListOrders)
				r.Get("/{order_id}", h.Orders.GetOrder)
				r.Post("/{order_id}/payment", h.Checkout.RetryPayment)
			})
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Post("/items", h.Cart.AddItem)
			})
		})
	})

	return otelhttp.NewHandler(r, "digital-store")
}
