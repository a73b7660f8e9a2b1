package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Keys of the reply that decode into numbers. Models often quote them as
// "£1,250,000" or "6.5%".
var (
	floatKeys = map[string]bool{
		"asking_price": true,
		"reduction_to_achieve_target_profit_percentage_gdv": true,
		"total_area_m2":                true,
		"total_area_sqft":              true,
		"gdv":                          true,
		"avg_price_per_sqft":           true,
		"avg_price_per_sqm":            true,
		"area_m2":                      true,
		"area_sqft":                    true,
		"price_per_unit":               true,
		"rental_value":                 true,
		"price_per_sqft":               true,
		"price_per_sqm":                true,
		"build_cost_per_sqft":          true,
		"build_cost_per_sqm":           true,
		"total_build_cost":             true,
		"professional_fees_percentage": true,
		"contingency_percentage":       true,
		"finance_costs_percentage":     true,
		"target_profit_margin":         true,
		"loan_amount":                  true,
		"loan_to_value":                true,
		"loan_to_cost":                 true,
		"interest_rate":                true,
		"equity_required":              true,
	}
	intKeys = map[string]bool{
		"confidence":                        true,
		"units":                             true,
		"total_units":                       true,
		"number_of_floors":                  true,
		"total_development_duration_months": true,
		"construction_period_months":        true,
		"planning_timeframe_months":         true,
		"sales_period_months":               true,
	}
)

var currencyStripper = strings.NewReplacer(
	"£", "", "$", "", "€", "",
	"GBP", "", "USD", "", "EUR", "",
	",", "", "%", "", " ", "",
)

// cleanNumbers rewrites quoted numeric fields as JSON numbers. Values that
// still do not parse become null rather than failing the whole reply.
func cleanNumbers(raw string) (string, error) {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return "", err
	}
	cleaned, err := json.Marshal(cleanValue(doc))
	if err != nil {
		return "", fmt.Errorf("failed to encode cleaned JSON: %w", err)
	}
	return string(cleaned), nil
}

func cleanValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for key, field := range v {
			switch {
			case floatKeys[key]:
				v[key] = toNumber(field, false)
			case intKeys[key]:
				v[key] = toNumber(field, true)
			default:
				v[key] = cleanValue(field)
			}
		}
		return v
	case []any:
		for i := range v {
			v[i] = cleanValue(v[i])
		}
		return v
	default:
		return v
	}
}

func toNumber(v any, integer bool) any {
	var n float64
	switch v := v.(type) {
	case nil:
		return nil
	case float64:
		n = v
	case string:
		parsed, ok := parseAmount(v)
		if !ok {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	if integer {
		return math.Round(n)
	}
	return n
}

// parseAmount reads "£1,250,000", "1.2m", "450k" or "6.5%"
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(currencyStripper.Replace(strings.ToUpper(s)))
	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "BN"):
		multiplier, s = 1e9, strings.TrimSuffix(s, "BN")
	case strings.HasSuffix(s, "M"):
		multiplier, s = 1e6, strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "K"):
		multiplier, s = 1e3, strings.TrimSuffix(s, "K")
	}
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n * multiplier, true
}
