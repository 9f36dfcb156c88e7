package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatCurrency renders a dollar amount with a B/M/K suffix for large values.
func FormatCurrency(value float64) string {
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

// FormatPercent renders a signed percentage to two decimals, e.g. "+3.14%".
func FormatPercent(value float64) string {
	return fmt.Sprintf("%+.2f%%", value)
}

// GroupInt renders an integer with comma thousands separators.
func GroupInt(value int64) string {
	s := strconv.FormatInt(value, 10)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}
