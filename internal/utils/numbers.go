package utils

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// ToDecimal coerces a JSON value (number or string, possibly with thousands
// separators) into a decimal. Unparsable input falls back to zero.
func ToDecimal(v any) decimal.Decimal {
	switch n := v.(type) {
	case nil:
		return decimal.Zero
	case float64:
		return decimal.NewFromFloat(n)
	case int:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		cleaned := strings.TrimSpace(strings.ReplaceAll(n, ",", ""))
		if cleaned == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}
