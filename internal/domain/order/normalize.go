package order

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/beauty-admin/internal/domain/money"
)

// NormalizeAmount converts a stored amount to cents. Records written by
// different channels carry either an integer cents field or a Rand value;
// the cents field wins when both are present.
func NormalizeAmount(cents *int64, rand *decimal.Decimal) money.Cents {
	switch {
	case cents != nil:
		return money.Cents(*cents)
	case rand != nil:
		return money.FromRand(*rand)
	default:
		return 0
	}
}

// DecodeLineItems decodes the stored JSON array of order lines into
// canonical line items.
func DecodeLineItems(raw []byte) ([]LineItem, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	d := jx.DecodeBytes(raw)
	if d.Next() == jx.Null {
		return nil, nil
	}
	var items []LineItem
	if err := d.Arr(func(d *jx.Decoder) error {
		item, err := decodeLineItem(d)
		if err != nil {
			return err
		}
		items = append(items, item)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode line items")
	}
	return items, nil
}

func decodeLineItem(d *jx.Decoder) (LineItem, error) {
	var (
		item                   LineItem
		priceCents, totalCents *int64
		price, total           *decimal.Decimal
	)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "product_id", "id":
			item.ProductID, err = optString(d)
		case "variant_index":
			if d.Next() == jx.Null {
				return d.Null()
			}
			var v int
			if v, err = d.Int(); err == nil {
				item.VariantIndex = &v
			}
		case "name", "product_name":
			item.Name, err = optString(d)
		case "quantity", "qty":
			item.Quantity, err = d.Int()
		case "price_cents", "unit_price_cents":
			priceCents, err = optInt64(d)
		case "total_cents", "line_total_cents":
			totalCents, err = optInt64(d)
		case "price", "unit_price":
			price, err = optDecimal(d)
		case "total", "line_total":
			total, err = optDecimal(d)
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode field %q", key)
		}
		return nil
	}); err != nil {
		return LineItem{}, err
	}

	item.UnitPrice = NormalizeAmount(priceCents, price)
	item.Total = NormalizeAmount(totalCents, total)
	switch {
	case item.Total == 0 && item.UnitPrice != 0:
		item.Total = item.UnitPrice * money.Cents(item.Quantity)
	case item.UnitPrice == 0 && item.Total != 0 && item.Quantity > 0:
		item.UnitPrice = item.Total / money.Cents(item.Quantity)
	}
	return item, nil
}

// EncodeLineItems encodes line items in the canonical cents shape.
func EncodeLineItems(e *jx.Encoder, items []LineItem) {
	e.ArrStart()
	for _, item := range items {
		item.Encode(e)
	}
	e.ArrEnd()
}

// Encode encodes LineItem as json.
func (li LineItem) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("product_id")
	e.Str(li.ProductID)
	if li.VariantIndex != nil {
		e.FieldStart("variant_index")
		e.Int(*li.VariantIndex)
	}
	e.FieldStart("name")
	e.Str(li.Name)
	e.FieldStart("quantity")
	e.Int(li.Quantity)
	e.FieldStart("price_cents")
	e.Int64(int64(li.UnitPrice))
	e.FieldStart("total_cents")
	e.Int64(int64(li.Total))
	e.ObjEnd()
}

func optInt64(d *jx.Decoder) (*int64, error) {
	switch d.Next() {
	case jx.Null:
		return nil, d.Null()
	case jx.Number:
		// Some writers stored cents as 1250.0.
		v, err := optDecimal(d)
		if err != nil || v == nil {
			return nil, err
		}
		n := v.Round(0).IntPart()
		return &n, nil
	default:
		return nil, errors.Errorf("unexpected json type %q for cents", d.Next())
	}
}

func optDecimal(d *jx.Decoder) (*decimal.Decimal, error) {
	var s string
	switch d.Next() {
	case jx.Null:
		return nil, d.Null()
	case jx.String:
		v, err := d.Str()
		if err != nil {
			return nil, err
		}
		s = v
	case jx.Number:
		v, err := d.Num()
		if err != nil {
			return nil, err
		}
		s = v.String()
	default:
		return nil, errors.Errorf("unexpected json type %q for amount", d.Next())
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return nil, errors.Wrapf(err, "parse amount %q", s)
	}
	return &v, nil
}
