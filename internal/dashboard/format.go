package dashboard

import (
	"fmt"
	"strings"

	"niftydash/internal/domain"
)

// Placeholder is shown for null or absent cell values.
const Placeholder = "-"

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	start := len(s) % 3
	if start > 0 {
		b.WriteString(s[:start])
	}
	for i := start; i < len(s); i += 3 {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatNumber fixes v to two decimal places.
func FormatNumber(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// FormatCell renders a cell value: numbers with two decimals, null or
// absent as the placeholder, anything else verbatim.
func FormatCell(v domain.Value, present bool) string {
	if !present || v.IsNull() {
		return Placeholder
	}
	if f, ok := v.Float(); ok {
		return FormatNumber(f)
	}
	return v.Text()
}

// FormatChange formats a fractional change as "+X.XX%" or "-X.XX%".
func FormatChange(c float64) string {
	return fmt.Sprintf("%+.2f%%", c*100)
}

// PadOrTrunc pads s with spaces or cuts it to exactly width runes.
func PadOrTrunc(s string, width int) string {
	r := []rune(s)
	n := len(r)
	if n >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-n)
}
