// Package pricing computes the authoritative charge for a checkout from
// catalog data. Nothing here performs I/O.
package pricing

import (
	"errors"

	"github.com/google/uuid"
	"github.com/safar/go-storefront/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownProduct    = errors.New("product not found")
	ErrProductInactive   = errors.New("product is no longer available")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUnknownAddon      = errors.New("unknown add-on")
)

// ItemError rejects one submitted line. Error returns the customer-facing message.
type ItemError struct {
	Name string
	Err  error
}

func (e *ItemError) Error() string {
	switch e.Err {
	case ErrUnknownProduct:
		return "Product not found: " + e.Name
	case ErrProductInactive:
		return "Product is no longer available: " + e.Name
	case ErrInsufficientStock:
		return "Insufficient stock for " + e.Name
	case ErrUnknownAddon:
		return "Invalid add-on for " + e.Name
	}
	return e.Err.Error() + ": " + e.Name
}

func (e *ItemError) Unwrap() error { return e.Err }

type ShippingRate struct {
	Cost     decimal.Decimal
	FreeFrom decimal.Decimal
}

type Rules struct {
	Promos   PromoTable
	Addons   AddonCatalog
	Shipping map[models.DeliveryMethod]ShippingRate
	CODFee   decimal.Decimal
	TaxRate  decimal.Decimal
}

func DefaultRules() Rules {
	return Rules{
		Promos: DefaultPromoTable(),
		Addons: DefaultAddonCatalog(),
		Shipping: map[models.DeliveryMethod]ShippingRate{
			models.DeliveryPickup: {Cost: decimal.RequireFromString("2.00"), FreeFrom: decimal.NewFromInt(50)},
			models.DeliveryHome:   {Cost: decimal.RequireFromString("5.00"), FreeFrom: decimal.NewFromInt(100)},
		},
		CODFee:  decimal.RequireFromString("2.00"),
		TaxRate: decimal.RequireFromString("0.08"),
	}
}

// Item is a cart line as submitted by the client. Name is only used for
// error messages.
type Item struct {
	ProductID uuid.UUID
	Name      string
	Quantity  int
	Addons    []models.Addon
}

type Line struct {
	Product   models.Product
	Quantity  int
	Addons    []models.Addon
	LineTotal decimal.Decimal
}

type Quote struct {
	Lines          []Line
	Subtotal       decimal.Decimal
	PromoCode      string
	DiscountAmount decimal.Decimal
	FinalPrice     decimal.Decimal
	ShippingCost   decimal.Decimal
	CODFee         decimal.Decimal
	Tax            decimal.Decimal
	Total          decimal.Decimal
}

// PriceOrder revalidates every item against products and prices the order.
// Quantities are assumed to be already range checked. Stock is checked against
// the running total per product, so split lines cannot oversell.
func PriceOrder(
	products map[uuid.UUID]models.Product,
	items []Item,
	promoCode string,
	delivery models.DeliveryMethod,
	payment models.PaymentMethod,
	rules Rules,
) (*Quote, error) {
	quote := &Quote{Lines: make([]Line, 0, len(items))}
	requested := make(map[uuid.UUID]int, len(items))

	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, &ItemError{Name: item.Name, Err: ErrUnknownProduct}
		}
		if !product.IsActive {
			return nil, &ItemError{Name: item.Name, Err: ErrProductInactive}
		}
		requested[item.ProductID] += item.Quantity
		if product.StockQuantity < requested[item.ProductID] {
			return nil, &ItemError{Name: item.Name, Err: ErrInsufficientStock}
		}

		addons, err := rules.Addons.Resolve(item.Addons)
		if err != nil {
			return nil, &ItemError{Name: item.Name, Err: err}
		}

		unit := product.Price
		for _, a := range addons {
			unit = unit.Add(a.Price)
		}
		lineTotal := unit.Mul(decimal.NewFromInt(int64(item.Quantity)))

		quote.Lines = append(quote.Lines, Line{
			Product:   product,
			Quantity:  item.Quantity,
			Addons:    addons,
			LineTotal: lineTotal,
		})
		quote.Subtotal = quote.Subtotal.Add(lineTotal)
	}
	quote.Subtotal = round(quote.Subtotal)

	if code, percent, ok := rules.Promos.Lookup(promoCode); ok {
		quote.PromoCode = code
		quote.DiscountAmount = round(quote.Subtotal.Mul(percent).Div(decimal.NewFromInt(100)))
	}
	quote.FinalPrice = quote.Subtotal.Sub(quote.DiscountAmount)

	quote.ShippingCost = rules.shipping(delivery, quote.FinalPrice)
	if payment == models.PaymentCOD {
		quote.CODFee = rules.CODFee
	}
	quote.Tax = round(quote.FinalPrice.Mul(rules.TaxRate))
	quote.Total = quote.FinalPrice.Add(quote.ShippingCost).Add(quote.Tax).Add(quote.CODFee)

	return quote, nil
}

func (r Rules) shipping(delivery models.DeliveryMethod, finalPrice decimal.Decimal) decimal.Decimal {
	rate, ok := r.Shipping[delivery]
	if !ok || finalPrice.GreaterThanOrEqual(rate.FreeFrom) {
		return decimal.Zero
	}
	return rate.Cost
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
