// Package core provides money parsing and formatting utilities.
//
// Amounts are carried as decimal.Decimal end to end so sums over many
// transactions never pick up floating-point drift.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount parses a user-entered amount into a strictly positive decimal.
//
// It accepts a dot or a single comma as decimal separator and ignores
// surrounding whitespace. Signs, exponents and non-positive values are
// rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("40000")   -> 40000, nil
//	ParseAmount("12,5")    -> 12.5, nil
//	ParseAmount("-3")      -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// Percent returns part/whole*100, or 0 when whole is not positive.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// FormatRupiah renders an amount the Indonesian way: "Rp 1.234.567" with a
// comma before up to two fraction digits.
func FormatRupiah(d decimal.Decimal) string {
	return "Rp " + FormatAmount(d)
}

// FormatAmount groups thousands with '.' and uses ',' as decimal separator.
func FormatAmount(d decimal.Decimal) string {
	d = d.Round(2)
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	frac = strings.TrimRight(frac, "0")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	return b.String()
}
