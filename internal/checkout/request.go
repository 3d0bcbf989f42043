package checkout

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/safar/go-storefront/internal/models"
	"github.com/safar/go-storefront/internal/pricing"
)

const (
	minQuantity = 1
	maxQuantity = 100
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Request is the checkout payload posted by the storefront. Client prices
// are not part of it; anything the client sends for them is ignored.
type Request struct {
	Items              []ItemRequest         `json:"items"`
	PromoCode          string                `json:"promoCode,omitempty"`
	DeliveryMethod     models.DeliveryMethod `json:"deliveryMethod"`
	PaymentMethod      models.PaymentMethod  `json:"paymentMethod"`
	CustomerInfo       CustomerInfo          `json:"customerInfo"`
	PickupPointName    string                `json:"pickupPointName,omitempty"`
	PickupPointAddress string                `json:"pickupPointAddress,omitempty"`
}

type ItemRequest struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Image    string         `json:"image,omitempty"`
	Quantity float64        `json:"quantity"`
	Addons   []models.Addon `json:"addons,omitempty"`
}

// UnmarshalJSON keeps a wrongly typed delivery or payment method as an
// invalid method instead of failing the whole body.
func (r *Request) UnmarshalJSON(data []byte) error {
	type plain Request
	aux := struct {
		*plain
		DeliveryMethod json.RawMessage `json:"deliveryMethod"`
		PaymentMethod  json.RawMessage `json:"paymentMethod"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.DeliveryMethod = models.DeliveryMethod(looseString(aux.DeliveryMethod))
	r.PaymentMethod = models.PaymentMethod(looseString(aux.PaymentMethod))
	return nil
}

// UnmarshalJSON decodes a quantity that is not a JSON number as NaN, which
// Validate rejects against the item's name.
func (i *ItemRequest) UnmarshalJSON(data []byte) error {
	type plain ItemRequest
	aux := struct {
		*plain
		Quantity json.RawMessage `json:"quantity"`
	}{plain: (*plain)(i)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	i.Quantity = looseNumber(aux.Quantity)
	return nil
}

func looseString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func looseNumber(raw json.RawMessage) float64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return math.NaN()
	}
	return f
}

type CustomerInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	ZipCode   string `json:"zipCode,omitempty"`
}

// Validate runs the checks that need no catalog data, stopping at the first failure.
func (r *Request) Validate() *Error {
	c := r.CustomerInfo
	if len(r.Items) == 0 || blank(c.FirstName) || blank(c.LastName) || blank(c.Email) || blank(c.Phone) {
		return badRequest(MsgMissingFields)
	}

	if !emailPattern.MatchString(strings.TrimSpace(c.Email)) {
		return badRequest(MsgInvalidEmail)
	}

	if !r.DeliveryMethod.Valid() {
		return badRequest(MsgInvalidDelivery)
	}

	switch r.DeliveryMethod {
	case models.DeliveryPickup:
		if blank(r.PickupPointName) {
			return badRequest(MsgPickupRequired)
		}
	case models.DeliveryHome:
		if blank(c.Address) || blank(c.City) || blank(c.ZipCode) {
			return badRequest(MsgAddressRequired)
		}
	}

	if !r.PaymentMethod.Valid() {
		return badRequest(MsgInvalidPayment)
	}

	for _, item := range r.Items {
		q := item.Quantity
		if math.IsNaN(q) || q != math.Trunc(q) || q < minQuantity || q > maxQuantity {
			return badRequest(msgInvalidQuantity + item.Name)
		}
	}

	return nil
}

// pricingItems converts validated items. An id that is not a UUID cannot
// match any product and is left as uuid.Nil, which pricing reports as not found.
func (r *Request) pricingItems() []pricing.Item {
	items := make([]pricing.Item, 0, len(r.Items))
	for _, item := range r.Items {
		id, err := uuid.Parse(strings.TrimSpace(item.ID))
		if err != nil {
			id = uuid.Nil
		}
		items = append(items, pricing.Item{
			ProductID: id,
			Name:      item.Name,
			Quantity:  int(item.Quantity),
			Addons:    item.Addons,
		})
	}
	return items
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
