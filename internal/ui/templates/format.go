package templates

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrency renders an amount in pounds with "." between thousands and
// "," before the pence: FormatCurrency(12345.678, 2) is "£12.345,68".
func FormatCurrency(amount decimal.Decimal, places int32) string {
	s := amount.StringFixed(places)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	out := "£" + groupThousands(whole)
	if frac != "" {
		out += "," + frac
	}
	if negative {
		out = "-" + out
	}
	return out
}

// FormatInt formats a count with "." thousands separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	return groupThousands(strconv.Itoa(n))
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var parts []string
	for len(digits) > 3 {
		parts = append([]string{digits[len(digits)-3:]}, parts...)
		digits = digits[:len(digits)-3]
	}
	parts = append([]string{digits}, parts...)
	return strings.Join(parts, ".")
}
