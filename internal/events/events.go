// Package events publishes order lifecycle events for downstream consumers
// such as fulfilment and notification services.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/safar/go-storefront/internal/models"
	"github.com/shopspring/decimal"
)

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, event OrderPlaced) error
	Close() error
}

type OrderPlaced struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      *uuid.UUID      `json:"user_id,omitempty"`
	Email       string          `json:"email"`
	Total       decimal.Decimal `json:"total"`
	Items       []PlacedItem    `json:"items"`
	PlacedAt    time.Time       `json:"placed_at"`
}

type PlacedItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

func NewOrderPlaced(order *models.Order) OrderPlaced {
	items := make([]PlacedItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, PlacedItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	return OrderPlaced{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Email:       order.Email,
		Total:       order.Total,
		Items:       items,
		PlacedAt:    order.CreatedAt,
	}
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(context.Context, OrderPlaced) error { return nil }

func (NopPublisher) Close() error { return nil }
