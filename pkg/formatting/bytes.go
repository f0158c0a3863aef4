// Package formatting provides human-readable formatting and parsing for byte
// sizes, percentages and fixed-precision numbers.
package formatting

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders n in base-1024 units: FormatBytes(1<<20, 0) is "1 MB".
func FormatBytes(n int64, decimals int) string {
	if n == 0 {
		return "0 B"
	}

	size := float64(n)
	exp := 0
	for math.Abs(size) >= 1024 && exp < len(sizeUnits)-1 {
		size /= 1024
		exp++
	}

	return Decimal(size, decimals) + " " + sizeUnits[exp]
}

// ParseBytes reads sizes such as "1MB", "512 kb" or "2048" into a byte count.
// A bare number is bytes.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)

	num, unit := s, ""
	if i := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	}); i >= 0 {
		num, unit = s[:i], strings.ToUpper(strings.TrimSpace(s[i:]))
	}

	if num == "" {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}

	exp := 0
	if unit != "" {
		if exp = slices.Index(sizeUnits, unit); exp < 0 {
			return 0, fmt.Errorf("unknown byte size unit: %q", unit)
		}
	}

	return int64(value * math.Pow(1024, float64(exp))), nil
}
