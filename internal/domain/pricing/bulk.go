package pricing

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/beauty-admin/internal/domain/money"
)

// Adjustment enumerates bulk price update strategies.
type Adjustment string

const (
	// AdjustPercent scales the price by (1 + value/100).
	AdjustPercent Adjustment = "percent"
	// AdjustIncrease adds a Rand amount.
	AdjustIncrease Adjustment = "increase"
	// AdjustDecrease subtracts a Rand amount.
	AdjustDecrease Adjustment = "decrease"
	// AdjustSet replaces the price with a Rand amount.
	AdjustSet Adjustment = "set"
)

// MinPrice is the smallest price a bulk update may produce.
const MinPrice money.Cents = 1

// ErrInvalidAdjustment is returned for unknown adjustment types.
var ErrInvalidAdjustment = errors.New("invalid price adjustment")

// Valid reports whether a is a known adjustment type.
func (a Adjustment) Valid() bool {
	switch a {
	case AdjustPercent, AdjustIncrease, AdjustDecrease, AdjustSet:
		return true
	default:
		return false
	}
}

// AdjustPrice computes the new price for a bulk update. The value is a
// percentage for AdjustPercent and a Rand amount otherwise. The result is
// never below MinPrice.
func AdjustPrice(old money.Cents, a Adjustment, value decimal.Decimal) (money.Cents, error) {
	var price money.Cents
	switch a {
	case AdjustPercent:
		factor := decimal.NewFromInt(1).Add(value.Div(hundred))
		price = money.Cents(old.Decimal().Mul(factor).Round(0).IntPart())
	case AdjustIncrease:
		price = old + money.FromRand(value)
	case AdjustDecrease:
		price = old - money.FromRand(value)
	case AdjustSet:
		price = money.FromRand(value)
	default:
		return 0, errors.Wrapf(ErrInvalidAdjustment, "unsupported adjustment %q", a)
	}
	return money.Max(price, MinPrice), nil
}
