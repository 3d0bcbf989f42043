// Package checkout turns a storefront checkout request into a persisted,
// server-priced order.
package checkout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/events"
	"github.com/safar/go-storefront/internal/models"
	"github.com/safar/go-storefront/internal/pricing"
	"github.com/safar/go-storefront/internal/store"
	"github.com/shopspring/decimal"
)

const maxOrderNumberAttempts = 5

// Stored lengths for free-text customer fields, in runes.
const (
	maxNameLen          = 100
	maxEmailLen         = 255
	maxPhoneLen         = 30
	maxAddressLen       = 500
	maxCityLen          = 100
	maxZipLen           = 20
	maxPickupNameLen    = 200
	maxPickupAddressLen = 500
)

type Result struct {
	OrderID     uuid.UUID
	OrderNumber string
	Total       decimal.Decimal
}

type Service struct {
	db             *sql.DB
	rules          pricing.Rules
	publisher      events.Publisher
	newOrderNumber func(time.Time) string
	now            func() time.Time
}

type Option func(*Service)

// WithOrderNumbers replaces the order number generator.
func WithOrderNumbers(gen func(time.Time) string) Option {
	return func(s *Service) { s.newOrderNumber = gen }
}

func NewService(db *sql.DB, rules pricing.Rules, publisher events.Publisher, opts ...Option) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	s := &Service{
		db:             db,
		rules:          rules,
		publisher:      publisher,
		newOrderNumber: GenerateOrderNumber,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateOrderNumber returns ORD-YYYYMMDD-XXXXXX with six random hex digits.
func GenerateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), suffix)
}

// PlaceOrder validates req, reprices it from the catalog and, in a single
// transaction, stores the order and its items and takes the stock. userID is
// nil for guest checkout. Every returned error is an *Error.
//
// Identical requests are not deduplicated; each call creates a new order.
func (s *Service) PlaceOrder(ctx context.Context, req Request, userID *uuid.UUID) (*Result, error) {
	if verr := req.Validate(); verr != nil {
		return nil, verr
	}

	items := req.pricingItems()
	productIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}

	var order *models.Order
	err := database.WithRetry(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		products, err := store.LockProducts(ctx, tx, productIDs)
		if err != nil {
			return internalError(MsgValidateProducts, err)
		}

		quote, err := pricing.PriceOrder(products, items, req.PromoCode, req.DeliveryMethod, req.PaymentMethod, s.rules)
		if err != nil {
			var itemErr *pricing.ItemError
			if errors.As(err, &itemErr) {
				return rejected(itemErr.Error(), err)
			}
			return internalError(MsgUnexpected, err)
		}

		o := newOrder(req, quote, userID)
		if err := s.insertOrder(ctx, tx, o); err != nil {
			return internalError(MsgCreateOrder, err)
		}

		lines := orderItems(req, quote)
		if err := store.InsertOrderItems(ctx, tx, o.ID, lines); err != nil {
			return internalError(MsgCreateOrderItems, err)
		}

		for i, line := range quote.Lines {
			err := store.DecrementStock(ctx, tx, line.Product.ID, line.Quantity)
			if errors.Is(err, database.ErrInsufficientStock) {
				return rejected(msgInsufficientStock+items[i].Name, err)
			}
			if err != nil {
				return internalError(MsgUpdateStock, err)
			}
		}

		o.Items = lines
		order = o
		return nil
	})
	if err != nil {
		return nil, s.fail(err)
	}

	slog.Info("Order placed",
		"order_number", order.OrderNumber,
		"total", order.Total.StringFixed(2),
		"items", len(order.Items),
		"guest", order.UserID == nil)

	if err := s.publisher.PublishOrderPlaced(ctx, events.NewOrderPlaced(order)); err != nil {
		slog.Error("Failed to publish order placed", "order_number", order.OrderNumber, "err", err)
	}

	return &Result{OrderID: order.ID, OrderNumber: order.OrderNumber, Total: order.Total}, nil
}

func (s *Service) fail(err error) *Error {
	var cerr *Error
	if !errors.As(err, &cerr) {
		cerr = internalError(MsgUnexpected, err)
	}

	if cerr.Internal() {
		slog.Error("Checkout failed", "reason", cerr.Message, "err", err)
	} else {
		slog.Info("Checkout rejected", "reason", cerr.Message)
	}
	return cerr
}

func (s *Service) insertOrder(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		order.OrderNumber = s.newOrderNumber(s.now())

		err := store.InsertOrder(ctx, tx, order)
		if !errors.Is(err, database.ErrDuplicateOrderNumber) {
			return err
		}
		slog.Warn("Order number collision", "order_number", order.OrderNumber, "attempt", attempt+1)
	}
	return fmt.Errorf("after %d attempts: %w", maxOrderNumberAttempts, database.ErrDuplicateOrderNumber)
}

func newOrder(req Request, quote *pricing.Quote, userID *uuid.UUID) *models.Order {
	c := req.CustomerInfo
	order := &models.Order{
		UserID:             userID,
		FirstName:          truncate(c.FirstName, maxNameLen),
		LastName:           truncate(c.LastName, maxNameLen),
		Email:              truncate(c.Email, maxEmailLen),
		Phone:              truncate(c.Phone, maxPhoneLen),
		DeliveryMethod:     req.DeliveryMethod,
		Address:            optional(c.Address, maxAddressLen),
		City:               optional(c.City, maxCityLen),
		ZipCode:            optional(c.ZipCode, maxZipLen),
		PickupPointName:    optional(req.PickupPointName, maxPickupNameLen),
		PickupPointAddress: optional(req.PickupPointAddress, maxPickupAddressLen),
		PaymentMethod:      req.PaymentMethod,
		Subtotal:           quote.Subtotal,
		DiscountAmount:     quote.DiscountAmount,
		ShippingCost:       quote.ShippingCost,
		CODFee:             quote.CODFee,
		Tax:                quote.Tax,
		Total:              quote.Total,
		Status:             models.OrderStatusPending,
	}
	if quote.PromoCode != "" {
		code := quote.PromoCode
		order.PromoCode = &code
	}
	return order
}

// orderItems snapshots the catalog name and image; the client image is only
// used when the product has none.
func orderItems(req Request, quote *pricing.Quote) []models.OrderItem {
	lines := make([]models.OrderItem, 0, len(quote.Lines))
	for i, line := range quote.Lines {
		image := line.Product.ImageURL
		if image == "" {
			image = req.Items[i].Image
		}
		lines = append(lines, models.OrderItem{
			ProductID:    line.Product.ID,
			ProductName:  line.Product.Name,
			ProductImage: image,
			Quantity:     line.Quantity,
			Price:        line.Product.Price,
			Addons:       models.Addons(line.Addons),
		})
	}
	return lines
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func optional(s string, max int) *string {
	s = truncate(s, max)
	if s == "" {
		return nil
	}
	return &s
}
