// Package money provides fixed-precision helpers for peso amounts.
//
// Amounts are decimal.Decimal values kept at two decimal places. Rounding is
// half away from zero, which is what the receipt printer and the tax office
// both expect.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places an amount is rounded to.
const Scale = 2

var (
	// Zero is the zero amount.
	Zero = decimal.Zero
	// Cent is the smallest representable amount.
	Cent    = decimal.New(1, -Scale)
	hundred = decimal.NewFromInt(100)
)

// Parse reads a decimal string such as "200" or "12.50".
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Zero, fmt.Errorf("money: invalid amount %q: %w", s, err)
	}
	return d, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromCents converts an integer number of cents.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -Scale)
}

// Cents returns the amount in whole cents after rounding.
func Cents(d decimal.Decimal) int64 {
	return Round(d).Shift(Scale).IntPart()
}

// Round rounds to two decimal places, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Percent returns pct percent of base, rounded.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return Round(base.Mul(pct).Div(hundred))
}

// Format renders an amount with exactly two decimals, e.g. "184.00".
func Format(d decimal.Decimal) string {
	return Round(d).StringFixed(Scale)
}

// FormatWithSymbol renders an amount prefixed by a currency symbol.
func FormatWithSymbol(symbol string, d decimal.Decimal) string {
	if symbol == "" {
		return Format(d)
	}
	return symbol + " " + Format(d)
}

// ParseList parses a comma separated list of amounts, skipping blanks.
func ParseList(csv string) ([]decimal.Decimal, error) {
	var out []decimal.Decimal
	for _, part := range strings.Split(csv, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		d, err := Parse(part)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
