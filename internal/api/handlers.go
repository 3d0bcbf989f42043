package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/safar/go-storefront/internal/auth"
	"github.com/safar/go-storefront/internal/checkout"
	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// OrderPlacer is the checkout service as the HTTP layer sees it.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req checkout.Request, userID *uuid.UUID) (*checkout.Result, error)
}

type Handler struct {
	db       *sql.DB
	orders   OrderPlacer
	resolver auth.Resolver
}

// NewHandler builds the handler set. resolver may be nil, in which case every
// checkout is a guest checkout and order history is unavailable.
func NewHandler(db *sql.DB, orders OrderPlacer, resolver auth.Resolver) *Handler {
	return &Handler{db: db, orders: orders, resolver: resolver}
}

type createOrderResponse struct {
	Success     bool   `json:"success"`
	OrderNumber string `json:"orderNumber"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req checkout.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID := auth.UserFromRequest(r.Context(), h.resolver, r)

	result, err := h.orders.PlaceOrder(r.Context(), req, userID)
	if err != nil {
		var cerr *checkout.Error
		if errors.As(err, &cerr) {
			respondError(w, cerr.Status, cerr.Message)
			return
		}
		slog.Error("Checkout returned an untyped error", "err", err)
		respondError(w, http.StatusInternalServerError, checkout.MsgUnexpected)
		return
	}

	respondJSON(w, http.StatusOK, createOrderResponse{Success: true, OrderNumber: result.OrderNumber})
}

// TrackOrder shows an order to whoever knows both its number and the email it
// was placed with. A wrong email is indistinguishable from a wrong number.
func (h *Handler) TrackOrder(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "orderNumber")
	email := strings.TrimSpace(r.URL.Query().Get("email"))

	order, err := store.GetOrderByNumber(r.Context(), h.db, orderNumber)
	if err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "Order not found")
			return
		}
		slog.Error("Failed to load order", "order_number", orderNumber, "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to load order")
		return
	}

	if email == "" || !strings.EqualFold(order.Email, email) {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	token, err := auth.BearerToken(r)
	if err != nil || h.resolver == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	userID, err := h.resolver.ResolveUser(r.Context(), token)
	if err != nil {
		slog.Debug("Rejected order history request", "err", err)
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	cursor := r.URL.Query().Get("cursor")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}

	page, err := store.ListOrdersCursor(r.Context(), h.db, userID, cursor, limit)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCursor) {
			respondError(w, http.StatusBadRequest, "Invalid cursor")
			return
		}
		slog.Error("Failed to list orders", "user_id", userID, "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}

	respondJSON(w, http.StatusOK, page)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	result, err := store.ListProducts(r.Context(), h.db, page, pageSize)
	if err != nil {
		slog.Error("Failed to list products", "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to list products")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := store.GetProduct(r.Context(), h.db, id)
	if err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "Product not found")
			return
		}
		slog.Error("Failed to load product", "product_id", id, "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to load product")
		return
	}

	if !product.IsActive {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		slog.Warn("Health check failed", "err", err)
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
