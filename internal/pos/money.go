package pos

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Bounds on operator-entered numbers. Anything past them is refused before it
// reaches arithmetic, where a huge exponent would make rounding run for hours.
const (
	maxInputLen    = 32
	maxFractionDig = 8
)

var maxInputValue = decimal.New(1, 12)

// InRange reports whether d is small enough to be a price, quantity, rate or
// payment: at most 10^12 in magnitude with at most eight decimal places.
func InRange(d decimal.Decimal) bool {
	// Exponent first: comparing rescales both sides to a common exponent.
	exp := d.Exponent()
	if exp < -maxFractionDig || exp > 12 {
		return false
	}
	return d.Abs().LessThanOrEqual(maxInputValue)
}

// parseInput parses plain decimal notation only. Exponents are rejected, as
// are values outside InRange.
func parseInput(text string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(text)
	if s == "" || len(s) > maxInputLen || strings.ContainsAny(s, "eE") {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !InRange(d) {
		return decimal.Zero, false
	}
	return d, true
}

// Round2 rounds to two decimal places, half away from zero.
// Every total, conversion and surcharge goes through it before it is stored or shown.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ParseQuantity converts operator input into a line quantity.
// Blank, malformed, out-of-range or negative input yields zero instead of an
// error; the cashier screen relies on this to let a field be cleared mid-edit.
func ParseQuantity(text string) decimal.Decimal {
	q, ok := parseInput(text)
	if !ok || q.IsNegative() {
		return decimal.Zero
	}
	return q
}

// ParseAmount parses a price, percentage or tendered amount strictly.
// field names the input in the returned ValidationError.
func ParseAmount(field, text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return decimal.Zero, invalid(ErrInvalidNumber, field, "%s is required", field)
	}
	d, ok := parseInput(s)
	if !ok {
		return decimal.Zero, invalid(ErrInvalidNumber, field, "%s %q is not a valid number", field, text)
	}
	return d, nil
}

// percentOf returns amount * percent / 100, unrounded.
func percentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(hundred)
}

// FormatMoney renders an amount with exactly two decimals.
func FormatMoney(d decimal.Decimal) string {
	return Round2(d).StringFixed(2)
}
