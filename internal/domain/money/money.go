// Package money holds the integer-cents representation used for every
// monetary value in the admin backend.
package money

import (
	"github.com/shopspring/decimal"
)

// Cents is an amount in the smallest currency unit.
type Cents int64

var hundred = decimal.NewFromInt(100)

// FromRand converts a Rand-denominated amount to cents, rounding half away
// from zero: round(value * 100).
func FromRand(v decimal.Decimal) Cents {
	return Cents(v.Mul(hundred).Round(0).IntPart())
}

// Rand converts cents back to a Rand amount for display.
func (c Cents) Rand() decimal.Decimal {
	return decimal.NewFromInt(int64(c)).Div(hundred)
}

// Decimal returns the amount in cents as a decimal.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(c))
}

// String formats the amount with two decimal places, e.g. "125.50".
func (c Cents) String() string {
	return c.Rand().StringFixed(2)
}

// Max returns the larger of a and b.
func Max(a, b Cents) Cents {
	if a > b {
		return a
	}
	return b
}

// Min returns the smaller of a and b.
func Min(a, b Cents) Cents {
	if a < b {
		return a
	}
	return b
}
