package formatting

import "strconv"

// Percent renders a 0..1 fraction as a percentage with the given number of
// decimals: Percent(0.87, 1) is "87.0%".
func Percent(fraction float64, decimals int) string {
	return Decimal(fraction*100, decimals) + "%"
}

// Decimal renders f with exactly the given number of decimals.
// Negative decimals are clamped to zero.
func Decimal(f float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return strconv.FormatFloat(f, 'f', decimals, 64)
}
