package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/safar/go-storefront/internal/checkout"
	"github.com/safar/go-storefront/internal/models"
	"github.com/safar/go-storefront/internal/pricing"
	"github.com/safar/go-storefront/internal/store"
	"github.com/safar/go-storefront/internal/testutil"
	"github.com/shopspring/decimal"
)

func TestCheckoutThenTrack(t *testing.T) {
	db := testutil.NewPostgres(t)
	ctx := context.Background()

	mug, err := store.CreateProduct(ctx, db, store.NewProduct{Name: "Mug", Price: decimal.RequireFromString("10.00"), Stock: 10})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	userID := uuid.New()
	resolver := fakeResolver{users: map[string]uuid.UUID{"good-token": userID}}
	svc := checkout.NewService(db, pricing.DefaultRules(), nil)
	router := NewRouter(NewHandler(db, svc, resolver), 0)

	body := `{
		"items": [{"id": "` + mug.ID.String() + `", "name": "Mug", "quantity": 3}],
		"deliveryMethod": "home",
		"paymentMethod": "cod",
		"customerInfo": {"firstName": "Ada", "lastName": "Lovelace", "email": "Ada@Example.com", "phone": "+15550100",
			"address": "12 Analytical Row", "city": "London", "zipCode": "N1 9GU"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/functions/v1/create-order", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Success     bool   `json:"success"`
		OrderNumber string `json:"orderNumber"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("Decode response: %v", err)
	}
	if !created.Success || created.OrderNumber == "" {
		t.Fatalf("Unexpected response: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/"+created.OrderNumber+"?email=ada@example.com", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Track order: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var tracked models.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &tracked); err != nil {
		t.Fatalf("Decode order: %v", err)
	}
	// 30.00 + 5.00 home shipping + 2.40 tax + 2.00 cod
	if !tracked.Total.Equal(decimal.RequireFromString("39.40")) {
		t.Errorf("Expected total 39.40, got %s", tracked.Total)
	}
	if len(tracked.Items) != 1 || tracked.Items[0].Quantity != 3 {
		t.Errorf("Unexpected items: %+v", tracked.Items)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/"+created.OrderNumber+"?email=eve@example.com", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Wrong email: expected 404, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("List orders: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var history struct {
		Items   []models.Order `json:"items"`
		HasMore bool           `json:"has_more"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("Decode history: %v", err)
	}
	if len(history.Items) != 1 || history.Items[0].OrderNumber != created.OrderNumber {
		t.Errorf("Unexpected history: %+v", history.Items)
	}
}

func TestCheckoutIgnoresClientPrices(t *testing.T) {
	db := testutil.NewPostgres(t)
	ctx := context.Background()

	vase, err := store.CreateProduct(ctx, db, store.NewProduct{Name: "Vase", Price: decimal.RequireFromString("24.50"), Stock: 5})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	router := NewRouter(NewHandler(db, checkout.NewService(db, pricing.DefaultRules(), nil), nil), 0)

	body := `{
		"items": [{"id": "` + vase.ID.String() + `", "name": "Vase", "quantity": 2, "price": 0.01,
			"addons": [{"id": "gift-wrap", "label": "Free wrap", "price": 0}]}],
		"subtotal": 0.01,
		"total": 0.01,
		"deliveryMethod": "pickup",
		"paymentMethod": "card",
		"pickupPointName": "Central Station Locker",
		"customerInfo": {"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com", "phone": "+15550100"}
	}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		OrderNumber string `json:"orderNumber"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("Decode response: %v", err)
	}

	order, err := store.GetOrderByNumber(ctx, db, created.OrderNumber)
	if err != nil {
		t.Fatalf("Load order: %v", err)
	}
	if len(order.Items) != 1 {
		t.Fatalf("Expected one item, got %+v", order.Items)
	}
	if !order.Items[0].Price.Equal(decimal.RequireFromString("24.50")) {
		t.Errorf("Expected stored catalog price 24.50, got %s", order.Items[0].Price)
	}
	addons := order.Items[0].Addons
	if len(addons) != 1 || addons[0].Label != "Gift wrapping" || !addons[0].Price.Equal(decimal.RequireFromString("2.50")) {
		t.Errorf("Expected the catalog gift wrap, got %+v", addons)
	}
	// (24.50 + 2.50) x 2
	if !order.Subtotal.Equal(decimal.RequireFromString("54.00")) {
		t.Errorf("Expected subtotal 54.00, got %s", order.Subtotal)
	}
}

func TestCatalogRoutes(t *testing.T) {
	db := testutil.NewPostgres(t)
	ctx := context.Background()

	lamp, err := store.CreateProduct(ctx, db, store.NewProduct{Name: "Lamp", Price: decimal.RequireFromString("20.00"), Stock: 3})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}
	retired, err := store.CreateProduct(ctx, db, store.NewProduct{Name: "Stool", Price: decimal.RequireFromString("5.00"), Inactive: true})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	router := NewRouter(NewHandler(db, &fakePlacer{}, nil), 0)

	tests := []struct {
		path string
		want int
	}{
		{"/products", http.StatusOK},
		{"/products/" + lamp.ID.String(), http.StatusOK},
		{"/products/" + retired.ID.String(), http.StatusNotFound},
		{"/products/" + uuid.NewString(), http.StatusNotFound},
		{"/health", http.StatusOK},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("GET %s: expected %d, got %d", tt.path, tt.want, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))

	var page struct {
		Items []models.Product `json:"items"`
		Total int64            `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("Decode products: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].ID != lamp.ID {
		t.Errorf("Expected only the active lamp, got %+v", page)
	}
}
