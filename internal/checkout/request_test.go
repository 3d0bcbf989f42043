package checkout

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/safar/go-storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() Request {
	return Request{
		Items: []ItemRequest{
			{ID: uuid.NewString(), Name: "Mug", Quantity: 2},
		},
		DeliveryMethod:  models.DeliveryPickup,
		PaymentMethod:   models.PaymentCard,
		PickupPointName: "Central Station Locker",
		CustomerInfo: CustomerInfo{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@example.com",
			Phone:     "+15550100",
		},
	}
}

func TestValidateAcceptsValidRequest(t *testing.T) {
	req := validRequest()
	assert.Nil(t, req.Validate())

	req.DeliveryMethod = models.DeliveryHome
	req.PickupPointName = ""
	req.CustomerInfo.Address = "1 Analytical Way"
	req.CustomerInfo.City = "London"
	req.CustomerInfo.ZipCode = "N1"
	assert.Nil(t, req.Validate())
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		want   string
	}{
		{"no items", func(r *Request) { r.Items = nil }, MsgMissingFields},
		{"empty items", func(r *Request) { r.Items = []ItemRequest{} }, MsgMissingFields},
		{"no first name", func(r *Request) { r.CustomerInfo.FirstName = "" }, MsgMissingFields},
		{"blank last name", func(r *Request) { r.CustomerInfo.LastName = "   " }, MsgMissingFields},
		{"no email", func(r *Request) { r.CustomerInfo.Email = "" }, MsgMissingFields},
		{"no phone", func(r *Request) { r.CustomerInfo.Phone = "" }, MsgMissingFields},
		{"email without at", func(r *Request) { r.CustomerInfo.Email = "ada.example.com" }, MsgInvalidEmail},
		{"email without tld", func(r *Request) { r.CustomerInfo.Email = "ada@example" }, MsgInvalidEmail},
		{"email with space", func(r *Request) { r.CustomerInfo.Email = "ada lovelace@example.com" }, MsgInvalidEmail},
		{"unknown delivery", func(r *Request) { r.DeliveryMethod = "drone" }, MsgInvalidDelivery},
		{"missing delivery", func(r *Request) { r.DeliveryMethod = "" }, MsgInvalidDelivery},
		{"pickup without point", func(r *Request) { r.PickupPointName = " " }, MsgPickupRequired},
		{"home without address", func(r *Request) {
			r.DeliveryMethod = models.DeliveryHome
			r.CustomerInfo.City = "London"
			r.CustomerInfo.ZipCode = "N1"
		}, MsgAddressRequired},
		{"home without zip", func(r *Request) {
			r.DeliveryMethod = models.DeliveryHome
			r.CustomerInfo.Address = "1 Analytical Way"
			r.CustomerInfo.City = "London"
		}, MsgAddressRequired},
		{"unknown payment", func(r *Request) { r.PaymentMethod = "crypto" }, MsgInvalidPayment},
		{"zero quantity", func(r *Request) { r.Items[0].Quantity = 0 }, "Invalid quantity for Mug"},
		{"fractional quantity", func(r *Request) { r.Items[0].Quantity = 1.5 }, "Invalid quantity for Mug"},
		{"too many", func(r *Request) { r.Items[0].Quantity = 101 }, "Invalid quantity for Mug"},
		{"negative", func(r *Request) { r.Items[0].Quantity = -1 }, "Invalid quantity for Mug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := req.Validate()
			require.NotNil(t, err)
			assert.Equal(t, http.StatusBadRequest, err.Status)
			assert.Equal(t, tt.want, err.Message)
		})
	}
}

func TestValidateNamesOffendingItem(t *testing.T) {
	req := validRequest()
	req.Items = append(req.Items,
		ItemRequest{ID: uuid.NewString(), Name: "Lamp", Quantity: 100},
		ItemRequest{ID: uuid.NewString(), Name: "Chair", Quantity: 0.5},
	)

	err := req.Validate()
	require.NotNil(t, err)
	assert.Equal(t, "Invalid quantity for Chair", err.Message)
}

func TestValidateOrderIsFailFast(t *testing.T) {
	req := validRequest()
	req.CustomerInfo.Email = "nope"
	req.DeliveryMethod = "drone"
	req.Items[0].Quantity = 0

	err := req.Validate()
	require.NotNil(t, err)
	assert.Equal(t, MsgInvalidEmail, err.Message)
}

const decodedBody = `{
	"items": [{"id": "5f0c1f7e-3c1b-4bb5-9d0e-2a4d8a1f6c11", "name": "Widget", "quantity": %s, "price": 0.01}],
	"deliveryMethod": %s,
	"paymentMethod": %s,
	"pickupPointName": "Central Station Locker",
	"customerInfo": {"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com", "phone": "+15550100"}
}`

func decodeRequest(t *testing.T, quantity, delivery, payment string) Request {
	t.Helper()
	var req Request
	require.NoError(t, json.Unmarshal([]byte(fmt.Sprintf(decodedBody, quantity, delivery, payment)), &req))
	return req
}

func TestDecodeKeepsWellTypedFields(t *testing.T) {
	req := decodeRequest(t, "3", `"pickup"`, `"card"`)

	require.Len(t, req.Items, 1)
	assert.Equal(t, "Widget", req.Items[0].Name)
	assert.Equal(t, float64(3), req.Items[0].Quantity)
	assert.Equal(t, models.DeliveryPickup, req.DeliveryMethod)
	assert.Equal(t, models.PaymentCard, req.PaymentMethod)
	assert.Equal(t, "ada@example.com", req.CustomerInfo.Email)
	assert.Nil(t, req.Validate())
}

func TestDecodeWronglyTypedFieldsFailValidation(t *testing.T) {
	tests := []struct {
		name                        string
		quantity, delivery, payment string
		want                        string
	}{
		{"quantity as string", `"2"`, `"pickup"`, `"card"`, "Invalid quantity for Widget"},
		{"quantity as bool", `true`, `"pickup"`, `"card"`, "Invalid quantity for Widget"},
		{"quantity as null", `null`, `"pickup"`, `"card"`, "Invalid quantity for Widget"},
		{"quantity as object", `{"n": 2}`, `"pickup"`, `"card"`, "Invalid quantity for Widget"},
		{"quantity out of range", `1e400`, `"pickup"`, `"card"`, "Invalid quantity for Widget"},
		{"delivery as number", `2`, `1`, `"card"`, MsgInvalidDelivery},
		{"delivery as array", `2`, `["pickup"]`, `"card"`, MsgInvalidDelivery},
		{"payment as object", `2`, `"pickup"`, `{}`, MsgInvalidPayment},
		{"payment as bool", `2`, `"pickup"`, `false`, MsgInvalidPayment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := decodeRequest(t, tt.quantity, tt.delivery, tt.payment)

			err := req.Validate()
			require.NotNil(t, err)
			assert.Equal(t, http.StatusBadRequest, err.Status)
			assert.Equal(t, tt.want, err.Message)
		})
	}
}

func TestDecodeStillRejectsMalformedJSON(t *testing.T) {
	var req Request
	assert.Error(t, json.Unmarshal([]byte(`{"items": "nope"}`), &req))
	assert.Error(t, json.Unmarshal([]byte(`{"items": [`), &req))
}

func TestPricingItemsToleratesBadIDs(t *testing.T) {
	req := validRequest()
	req.Items = append(req.Items, ItemRequest{ID: "not-a-uuid", Name: "Ghost", Quantity: 1})

	items := req.pricingItems()
	require.Len(t, items, 2)
	assert.NotEqual(t, uuid.Nil, items[0].ProductID)
	assert.Equal(t, uuid.Nil, items[1].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("  abc ", 5))
	assert.Equal(t, "héll", truncate("héllo", 4))
	assert.Nil(t, optional("   ", 10))
	assert.Equal(t, "Lon", *optional("London", 3))
}

func TestGenerateOrderNumber(t *testing.T) {
	now := mustDate(t, "2026-10-16T23:30:00Z")

	a := GenerateOrderNumber(now)
	b := GenerateOrderNumber(now)

	assert.Regexp(t, `^ORD-20261016-[0-9A-F]{6}$`, a)
	assert.NotEqual(t, a, b)
}

func TestErrorUnwrap(t *testing.T) {
	cause := assert.AnError
	err := internalError(MsgCreateOrder, cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, err.Internal())
	assert.Equal(t, "Failed to create order: "+cause.Error(), err.Error())
	assert.False(t, badRequest(MsgMissingFields).Internal())
}
