// Package money converts user-entered amounts into integer cents.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxCents caps any single amount at $1,000,000.
const MaxCents int64 = 100_000_000

var (
	ErrEmpty    = errors.New("amount is required")
	ErrNotValid = errors.New("amount must be a number")
	ErrTooLow   = errors.New("amount is below the minimum")
	ErrTooHigh  = errors.New("amount exceeds the maximum")
)

var hundred = decimal.NewFromInt(100)

// ParsePrice parses a dollar amount such as "149.99" or "$1,250" and returns
// round(p*100) in cents. Amounts below floorCents are rejected.
func ParsePrice(raw string, floorCents int64) (int64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, ErrEmpty
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrNotValid
	}
	return ToCents(d, floorCents)
}

// ToCents rounds d*100 half away from zero and checks the bounds.
func ToCents(d decimal.Decimal, floorCents int64) (int64, error) {
	cents := d.Mul(hundred).Round(0)
	if cents.LessThan(decimal.NewFromInt(floorCents)) {
		return 0, fmt.Errorf("%w of %s", ErrTooLow, FormatCents(floorCents))
	}
	if cents.GreaterThan(decimal.NewFromInt(MaxCents)) {
		return 0, ErrTooHigh
	}
	return cents.IntPart(), nil
}

// FormatCents renders cents as a plain decimal string, e.g. 12345 -> "123.45".
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
