package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	ImageURL      string          `json:"image_url,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

type DeliveryMethod string

const (
	DeliveryPickup DeliveryMethod = "pickup"
	DeliveryHome   DeliveryMethod = "home"
)

func (d DeliveryMethod) Valid() bool {
	return d == DeliveryPickup || d == DeliveryHome
}

type PaymentMethod string

const (
	PaymentCard PaymentMethod = "card"
	PaymentCOD  PaymentMethod = "cod"
	PaymentBank PaymentMethod = "bank"
)

func (p PaymentMethod) Valid() bool {
	return p == PaymentCard || p == PaymentCOD || p == PaymentBank
}

type Order struct {
	ID                 uuid.UUID       `json:"id"`
	OrderNumber        string          `json:"order_number"`
	UserID             *uuid.UUID      `json:"user_id,omitempty"`
	FirstName          string          `json:"first_name"`
	LastName           string          `json:"last_name"`
	Email              string          `json:"email"`
	Phone              string          `json:"phone"`
	DeliveryMethod     DeliveryMethod  `json:"delivery_method"`
	Address            *string         `json:"address,omitempty"`
	City               *string         `json:"city,omitempty"`
	ZipCode            *string         `json:"zip_code,omitempty"`
	PickupPointName    *string         `json:"pickup_point_name,omitempty"`
	PickupPointAddress *string         `json:"pickup_point_address,omitempty"`
	PaymentMethod      PaymentMethod   `json:"payment_method"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	ShippingCost       decimal.Decimal `json:"shipping_cost"`
	CODFee             decimal.Decimal `json:"cod_fee"`
	Tax                decimal.Decimal `json:"tax"`
	Total              decimal.Decimal `json:"total"`
	PromoCode          *string         `json:"promo_code,omitempty"`
	Status             string          `json:"status"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	Items              []OrderItem     `json:"items,omitempty"`
}

// OrderItem snapshots the product name and image at order time; Price is the
// catalog unit price, never the client's.
type OrderItem struct {
	ID           uuid.UUID       `json:"id"`
	OrderID      uuid.UUID       `json:"order_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image,omitempty"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Addons       Addons          `json:"addons"`
	CreatedAt    time.Time       `json:"created_at"`
}

type Addon struct {
	ID    string          `json:"id"`
	Label string          `json:"label"`
	Price decimal.Decimal `json:"price"`
}

// Addons is stored as a JSONB array. Value returns a string because lib/pq
// would encode []byte as bytea.
type Addons []Addon

func (a Addons) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]Addon(a))
	if err != nil {
		return nil, fmt.Errorf("marshal addons: %w", err)
	}
	return string(data), nil
}

func (a *Addons) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*a = Addons{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan addons: unsupported type %T", src)
	}

	var out []Addon
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("scan addons: %w", err)
	}
	*a = out
	return nil
}

const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)
