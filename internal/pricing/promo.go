package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PromoTable maps normalized (upper-case, trimmed) codes to a percentage discount.
type PromoTable map[string]decimal.Decimal

func DefaultPromoTable() PromoTable {
	return PromoTable{
		"SAVE10":    decimal.NewFromInt(10),
		"SAVE20":    decimal.NewFromInt(20),
		"WELCOME15": decimal.NewFromInt(15),
	}
}

// ParsePromoTable reads "CODE:percent,CODE:percent". Percentages must lie in (0, 100].
func ParsePromoTable(raw string) (PromoTable, error) {
	table := PromoTable{}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		code, pct, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("promo entry %q: want CODE:percent", entry)
		}

		percent, err := decimal.NewFromString(strings.TrimSpace(pct))
		if err != nil {
			return nil, fmt.Errorf("promo entry %q: %w", entry, err)
		}
		if !percent.IsPositive() || percent.GreaterThan(decimal.NewFromInt(100)) {
			return nil, fmt.Errorf("promo entry %q: percent out of range", entry)
		}

		table[normalizeCode(code)] = percent
	}
	return table, nil
}

// Lookup matches code case-insensitively. It returns the canonical code and
// its percentage, or ok=false for empty and unknown codes.
func (t PromoTable) Lookup(code string) (string, decimal.Decimal, bool) {
	normalized := normalizeCode(code)
	if normalized == "" {
		return "", decimal.Zero, false
	}
	percent, ok := t[normalized]
	if !ok {
		return "", decimal.Zero, false
	}
	return normalized, percent, true
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
