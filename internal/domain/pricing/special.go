// Package pricing computes sale prices for specials and bulk price updates.
// All functions are pure and operate on integer cents.
package pricing

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/beauty-admin/internal/domain/money"
)

// DiscountType enumerates the ways a special changes a price.
type DiscountType string

const (
	// DiscountPercent takes a percentage off the base price.
	DiscountPercent DiscountType = "percent"
	// DiscountAmountOff subtracts a fixed number of cents from the base price.
	DiscountAmountOff DiscountType = "amount_off"
	// DiscountFixedPrice replaces the base price with the given cents value.
	DiscountFixedPrice DiscountType = "fixed_price"
)

// ErrInvalidDiscount is returned for unknown discount types or negative values.
var ErrInvalidDiscount = errors.New("invalid discount")

var hundred = decimal.NewFromInt(100)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	switch t {
	case DiscountPercent, DiscountAmountOff, DiscountFixedPrice:
		return true
	default:
		return false
	}
}

// CalcSpecialPrice returns the price of an item after applying a special.
//
// For DiscountPercent the value is a percentage; for DiscountAmountOff and
// DiscountFixedPrice it is an amount in cents. Results never go below zero:
// percent and amount_off results are clamped, a negative fixed price is
// rejected.
func CalcSpecialPrice(base money.Cents, t DiscountType, value decimal.Decimal) (money.Cents, error) {
	if value.IsNegative() {
		return 0, errors.Wrapf(ErrInvalidDiscount, "negative %s value %s", t, value)
	}

	switch t {
	case DiscountPercent:
		factor := decimal.NewFromInt(1).Sub(value.Div(hundred))
		price := base.Decimal().Mul(factor).Round(0)
		return clampZero(money.Cents(price.IntPart())), nil
	case DiscountAmountOff:
		off := money.Cents(value.Round(0).IntPart())
		return clampZero(base - off), nil
	case DiscountFixedPrice:
		return money.Cents(value.Round(0).IntPart()), nil
	default:
		return 0, errors.Wrapf(ErrInvalidDiscount, "unsupported discount type %q", t)
	}
}

func clampZero(c money.Cents) money.Cents {
	if c < 0 {
		return 0
	}
	return c
}
