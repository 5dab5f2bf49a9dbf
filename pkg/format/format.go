// Package format holds the pure formatting helpers for broadcast messages.
package format

import (
	"fmt"
	"strconv"
)

// ScaledCurrency renders a raw decimal string as a dollar amount with a K/M/B
// suffix. Non-numeric input is returned unchanged.
func ScaledCurrency(raw string) string {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	return USD(value)
}

// USD renders a dollar amount with a K/M/B suffix. Each tier is closed at its
// lower bound: exactly 1e9 takes the "B" branch.
func USD(value float64) string {
	switch {
	case value >= 1_000_000_000:
		return fmt.Sprintf("$%.2fB", value/1_000_000_000)
	case value >= 1_000_000:
		return fmt.Sprintf("$%.2fM", value/1_000_000)
	case value >= 1_000:
		return fmt.Sprintf("$%.2fK", value/1_000)
	default:
		return fmt.Sprintf("$%.2f", value)
	}
}

// ChangePercent returns the relative change between two values in percent.
// A zero previous value means "no change", never a division by zero.
func ChangePercent(current, previous float64) float64 {
	if previous == 0 {
		return 0.0
	}
	return (current - previous) / previous * 100
}

// ChangeText maps a change percentage to its direction glyph and the
// parenthesized percent text. When no previous value is known the neutral
// refresh glyph is returned with no text at all; an exact zero change still
// renders an explicit "(0.00%)".
func ChangeText(percent float64, known bool) (glyph, text string) {
	if !known {
		return "🔄", ""
	}

	switch {
	case percent > 0:
		return "📈", fmt.Sprintf(" (+%.2f%%)", percent)
	case percent < 0:
		return "📉", fmt.Sprintf(" (%.2f%%)", percent)
	default:
		return "➡️", " (0.00%)"
	}
}

// ListingProgress returns how far the raw FDV is toward a listing target, in
// percent. A non-positive target disables the computation.
func ListingProgress(fdv, target float64) float64 {
	if target <= 0 {
		return 0.0
	}
	return fdv / target * 100
}
