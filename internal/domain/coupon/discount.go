package coupon

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/beauty-admin/internal/domain/money"
)

var hundred = decimal.NewFromInt(100)

// Apply calculates the discount a coupon grants on the given lines.
//
// The minimum order is checked against the full subtotal, while the
// discount itself is computed only against lines whose product is not
// excluded. The result never exceeds the discountable subtotal.
func Apply(c *Coupon, items []Item) (Discount, error) {
	subtotal, discountable := calcSubtotals(c, items)
	if subtotal < c.MinOrder {
		return Discount{}, ErrMinOrderNotMet
	}

	var amount money.Cents
	switch c.Type {
	case TypePercentage:
		amount = applyPercentage(c, discountable)
	case TypeFixed:
		amount = money.Cents(c.Value.Round(0).IntPart())
	default:
		return Discount{}, errors.Errorf("unsupported coupon type: %q", c.Type)
	}

	amount = money.Min(floorAtZero(amount), discountable)

	return Discount{
		Amount:       amount,
		Subtotal:     subtotal,
		Discountable: discountable,
		Description:  c.Description,
	}, nil
}

func applyPercentage(c *Coupon, discountable money.Cents) money.Cents {
	amount := money.Cents(discountable.Decimal().Mul(c.Value).Div(hundred).Round(0).IntPart())
	if c.MaxDiscount > 0 {
		amount = money.Min(amount, c.MaxDiscount)
	}
	return amount
}

// calcSubtotals returns the full subtotal and the subtotal of lines the
// coupon may discount.
func calcSubtotals(c *Coupon, items []Item) (subtotal, discountable money.Cents) {
	for _, item := range items {
		line := item.Total()
		subtotal += line
		if !c.Excludes(item.ProductID) {
			discountable += line
		}
	}
	return subtotal, discountable
}

// floorAtZero clamps negative values to zero.
func floorAtZero(c money.Cents) money.Cents {
	if c < 0 {
		return 0
	}
	return c
}
