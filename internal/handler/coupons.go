package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/beauty-admin/internal/domain/coupon"
	"github.com/xenking/beauty-admin/internal/domain/money"
	"github.com/xenking/beauty-admin/internal/domain/validation"
)

func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) {
	listings, err := h.Coupons.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range listings {
			l := &listings[i]
			e.ObjStart()
			encodeCouponFields(e, &l.Coupon)
			e.FieldStart("applicable")
			e.Bool(l.Unavailable == nil)
			if l.Unavailable != nil {
				e.FieldStart("unavailable_reason")
				e.Str(l.Unavailable.Error())
			}
			e.ObjEnd()
		}
		e.ArrEnd()
	})
}

func (h *Handler) saveCoupon(w http.ResponseWriter, r *http.Request) {
	c := coupon.Coupon{IsActive: true}
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		return decodeCouponField(d, key, &c)
	}); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Coupons.Save(r.Context(), &c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		encodeCouponFields(e, &c)
		e.ObjEnd()
	})
}

func (h *Handler) deactivateCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.Coupons.Deactivate(r.Context(), r.PathValue("code")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// previewCoupon applies a coupon to cart lines and returns the discount.
// A successful preview counts as a use of the coupon.
func (h *Handler) previewCoupon(w http.ResponseWriter, r *http.Request) {
	var items []coupon.Item
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		if key != "items" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			var item coupon.Item
			if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				var err error
				switch string(key) {
				case "product_id":
					item.ProductID, err = d.Str()
				case "price_cents", "unit_price_cents":
					item.UnitPrice, err = decodeCents(d)
				case "quantity":
					item.Quantity, err = d.Int()
				default:
					err = d.Skip()
				}
				return err
			}); err != nil {
				return err
			}
			items = append(items, item)
			return nil
		})
	}); err != nil {
		writeError(w, r, err)
		return
	}
	if len(items) == 0 {
		writeError(w, r, validation.Errorf("items", "at least one item required"))
		return
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			writeError(w, r, validation.Errorf("items.quantity", "must be positive"))
			return
		}
		if item.UnitPrice < 0 {
			writeError(w, r, validation.Errorf("items.price_cents", "must not be negative"))
			return
		}
	}

	discount, err := h.CouponValidator.Validate(r.Context(), r.PathValue("code"), items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("currency")
		e.Str(h.currency)
		encodeCents(e, "subtotal_cents", discount.Subtotal)
		encodeCents(e, "discountable_cents", discount.Discountable)
		encodeCents(e, "discount_cents", discount.Amount)
		encodeCents(e, "total_cents", discount.Subtotal-discount.Amount)
		e.FieldStart("description")
		e.Str(discount.Description)
		e.ObjEnd()
	})
}

func decodeCouponField(d *jx.Decoder, key string, c *coupon.Coupon) error {
	var err error
	switch key {
	case "code":
		c.Code, err = d.Str()
	case "type":
		var s string
		s, err = d.Str()
		c.Type = coupon.Type(s)
	case "value":
		c.Value, err = decodeDecimal(d)
	case "min_order_cents":
		c.MinOrder, err = decodeCents(d)
	case "max_discount_cents":
		var v *money.Cents
		v, err = decodeOptCents(d)
		if v != nil {
			c.MaxDiscount = *v
		}
	case "max_uses":
		c.MaxUses, err = d.Int()
	case "excluded_product_ids":
		c.ExcludedProductIDs, err = decodeStrings(d)
	case "valid_from":
		c.ValidFrom, err = decodeOptTime(d)
	case "valid_until":
		c.ValidUntil, err = decodeOptTime(d)
	case "is_active":
		c.IsActive, err = d.Bool()
	case "description":
		c.Description, err = d.Str()
	default:
		err = d.Skip()
	}
	return err
}

func encodeCouponFields(e *jx.Encoder, c *coupon.Coupon) {
	e.FieldStart("code")
	e.Str(c.Code)
	e.FieldStart("type")
	e.Str(string(c.Type))
	e.FieldStart("value")
	encodeDecimal(e, c.Value)
	encodeCents(e, "min_order_cents", c.MinOrder)
	if c.MaxDiscount > 0 {
		encodeCents(e, "max_discount_cents", c.MaxDiscount)
	}
	e.FieldStart("max_uses")
	e.Int(c.MaxUses)
	e.FieldStart("used_count")
	e.Int(c.UsedCount)
	e.FieldStart("excluded_product_ids")
	encodeStrings(e, c.ExcludedProductIDs)
	encodeOptTime(e, "valid_from", c.ValidFrom)
	encodeOptTime(e, "valid_until", c.ValidUntil)
	e.FieldStart("is_active")
	e.Bool(c.IsActive)
	e.FieldStart("description")
	e.Str(c.Description)
}
