package appraisal

import "math"

func f64(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

// ratio divides with an explicit zero check; nil means undefined.
func ratio(num, den float64) *float64 {
	if den == 0 {
		return nil
	}
	return f64(num / den)
}

// positive reports whether v is known and greater than zero
func positive(v *float64) bool {
	return v != nil && *v > 0
}

// value reads an optional figure as zero when unknown. Only the funding
// workings schedule uses this; everywhere else unknown stays unknown.
func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func monthsOr(v *int, fallback int) int {
	if v != nil && *v > 0 {
		return *v
	}
	return fallback
}
