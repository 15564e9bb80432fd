// Package amount converts order amounts between user-entered text and numbers.
package amount

import (
	"math"
	"strconv"
	"strings"
)

// Parse accepts a decimal written with either a comma or a dot as the
// fractional separator. Only the first comma is rewritten, so inputs such as
// "1,234,56" are rejected. The boolean is false for empty, malformed or
// non-finite input. Parse does not reject zero or negative values.
func Parse(text string) (float64, bool) {
	normalized := strings.Replace(strings.TrimSpace(text), ",", ".", 1)
	if normalized == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Format renders v with exactly two decimals and no grouping.
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
