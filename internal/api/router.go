// Package api exposes checkout, order tracking and the catalog over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxCheckoutBodyBytes = 1 << 20

// NewRouter mounts h behind the common middleware. A zero requestTimeout
// disables the per-request deadline.
func NewRouter(h *Handler, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(recoverer)
	r.Use(cors)
	if requestTimeout > 0 {
		r.Use(middleware.Timeout(requestTimeout))
	}

	checkout := r.With(middleware.RequestSize(maxCheckoutBodyBytes))
	checkout.Post("/orders", h.CreateOrder)
	checkout.Post("/functions/v1/create-order", h.CreateOrder)
	r.Get("/orders", h.ListOrders)
	r.Get("/orders/{orderNumber}", h.TrackOrder)

	r.Get("/products", h.ListProducts)
	r.Get("/products/{id}", h.GetProduct)

	r.Get("/health", h.HealthCheck)

	return r
}
