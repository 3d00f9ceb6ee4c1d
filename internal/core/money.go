// Package core provides money parsing and handling utilities.
//
// Amounts are kept as arbitrary precision decimals. A Money value read from
// storage may be invalid (non-numeric or negative text); it then keeps its
// original text so that rewriting the store is lossless, and it counts as
// zero in every sum.
package core

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a non-negative decimal amount.
type Money struct {
	value decimal.Decimal
	raw   string
	valid bool
}

// Zero is the valid zero amount.
var Zero = Money{value: decimal.Zero, valid: true}

// NewMoney wraps a decimal. Negative values yield an invalid Money.
func NewMoney(d decimal.Decimal) Money {
	if d.IsNegative() {
		return Money{raw: d.String()}
	}
	return Money{value: d, valid: true}
}

// MustMoney parses s or panics. Intended for tests and constants.
func MustMoney(s string) Money {
	m, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return m
}

const (
	// maxFractionDigits bounds the scale of an amount.
	maxFractionDigits = 8
	// maxIntegerDigits bounds the magnitude: amounts are below 10^15.
	maxIntegerDigits = 15
	// maxAmountLen allows for grouping commas and padding zeros.
	maxAmountLen = 40
)

var (
	maxAmount = decimal.New(1, maxIntegerDigits)

	// thousandsGrouped matches 1,500 and 12,345,678.90.
	thousandsGrouped = regexp.MustCompile(`^[1-9]\d{0,2}(,\d{3})+(\.\d+)?$`)
)

// ParseAmount parses a user supplied amount.
//
// Commas in groups of three are thousands separators (1,500 or
// 1,234.50); any other lone comma is a decimal separator (12,34). The
// result must be non-negative, below 10^15 and have at most 8 fractional
// digits, otherwise ErrInvalidAmount is returned.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("1,500") -> 1500, nil
//	ParseAmount("0")     -> 0, nil
//	ParseAmount("-1")    -> ErrInvalidAmount
//	ParseAmount("1e20")  -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxAmountLen {
		return Money{}, ErrInvalidAmount
	}
	normalized := s
	switch {
	case thousandsGrouped.MatchString(normalized):
		normalized = strings.ReplaceAll(normalized, ",", "")
	case strings.Contains(normalized, ",") && !strings.Contains(normalized, "."):
		normalized = strings.ReplaceAll(normalized, ",", ".")
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if !inRange(d) {
		return Money{}, ErrInvalidAmount
	}
	return Money{value: d, raw: s, valid: true}, nil
}

// inRange checks the exponent before comparing values, since comparing
// rescales both operands to a common exponent.
func inRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp < -maxFractionDigits || exp > maxIntegerDigits {
		return false
	}
	return !d.IsNegative() && d.LessThan(maxAmount)
}

// ParseMoney parses a stored amount leniently. Anything ParseAmount rejects
// becomes an invalid Money that remembers s.
func ParseMoney(s string) Money {
	m, err := ParseAmount(s)
	if err != nil {
		return Money{raw: s}
	}
	return m
}

// Valid reports whether the amount is a usable non-negative number.
func (m Money) Valid() bool {
	return m.valid
}

// Decimal returns the numeric value; invalid amounts are zero.
func (m Money) Decimal() decimal.Decimal {
	if !m.valid {
		return decimal.Zero
	}
	return m.value
}

// Add returns m+o. Invalid operands count as zero.
func (m Money) Add(o Money) Money {
	return Money{value: m.Decimal().Add(o.Decimal()), valid: true}
}

// IsZero reports whether the effective value is zero.
func (m Money) IsZero() bool {
	return m.Decimal().IsZero()
}

// Equal compares effective values.
func (m Money) Equal(o Money) bool {
	return m.Decimal().Equal(o.Decimal())
}

// Float64 is for display surfaces (charts, sheets, PDF).
func (m Money) Float64() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// String returns the stored text when there is one, so that values
// round-trip through files unchanged.
func (m Money) String() string {
	if m.raw != "" {
		return m.raw
	}
	if !m.valid {
		return ""
	}
	return m.value.String()
}

// Format renders the effective value with two decimals.
func (m Money) Format() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON emits the effective value as a JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a number or a string.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = ParseMoney(s)
		return nil
	}
	*m = ParseMoney(string(data))
	return nil
}
