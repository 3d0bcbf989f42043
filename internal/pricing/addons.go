package pricing

import (
	"github.com/safar/go-storefront/internal/models"
	"github.com/shopspring/decimal"
)

// AddonCatalog is the server-side source of add-on labels and prices.
type AddonCatalog map[string]models.Addon

func DefaultAddonCatalog() AddonCatalog {
	return AddonCatalog{
		"warranty":      {ID: "warranty", Label: "Extended warranty", Price: decimal.RequireFromString("9.99")},
		"gift-wrap":     {ID: "gift-wrap", Label: "Gift wrapping", Price: decimal.RequireFromString("2.50")},
		"surprise-gift": {ID: "surprise-gift", Label: "Surprise gift", Price: decimal.Zero},
	}
}

// Resolve replaces client-submitted add-ons with catalog entries by id.
// Client labels and prices are discarded.
func (c AddonCatalog) Resolve(submitted []models.Addon) ([]models.Addon, error) {
	if len(submitted) == 0 {
		return nil, nil
	}

	resolved := make([]models.Addon, 0, len(submitted))
	for _, a := range submitted {
		entry, ok := c[a.ID]
		if !ok {
			return nil, ErrUnknownAddon
		}
		resolved = append(resolved, entry)
	}
	return resolved, nil
}
