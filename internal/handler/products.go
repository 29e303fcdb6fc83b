package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/beauty-admin/internal/domain/pricing"
	"github.com/xenking/beauty-admin/internal/domain/product"
	"github.com/xenking/beauty-admin/internal/domain/validation"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	h.writeProducts(w, r, product.Kind(r.URL.Query().Get("kind")))
}

func (h *Handler) listBundles(w http.ResponseWriter, r *http.Request) {
	h.writeProducts(w, r, product.KindBundle)
}

func (h *Handler) listCourses(w http.ResponseWriter, r *http.Request) {
	h.writeProducts(w, r, product.KindCourse)
}

func (h *Handler) writeProducts(w http.ResponseWriter, r *http.Request, kind product.Kind) {
	listings, err := h.Products.List(r.Context(), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range listings {
			h.encodeListing(e, &listings[i])
		}
		e.ArrEnd()
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	l, err := h.Products.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeListing(e, l)
	})
}

func (h *Handler) saveProduct(w http.ResponseWriter, r *http.Request) {
	var p product.Product
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		return decodeProductField(d, key, &p)
	}); err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := h.Products.Save(r.Context(), &p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		h.encodeProductFields(e, saved)
		e.ObjEnd()
	})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	action, err := h.Products.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(id)
		e.FieldStart("action")
		e.Str(string(action))
		e.ObjEnd()
	})
}

func (h *Handler) bulkPriceUpdate(w http.ResponseWriter, r *http.Request) {
	var (
		u        product.BulkUpdate
		hasValue bool
	)
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "product_ids":
			u.ProductIDs, err = decodeStrings(d)
		case "adjustment", "type":
			var s string
			s, err = d.Str()
			u.Adjustment = pricing.Adjustment(s)
		case "value":
			u.Value, err = decodeDecimal(d)
			hasValue = true
		case "apply":
			u.Apply, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		writeError(w, r, err)
		return
	}
	if !hasValue {
		writeError(w, r, validation.Errorf("value", "required"))
		return
	}
	changes, err := h.Products.BulkPriceUpdate(r.Context(), u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("applied")
		e.Bool(u.Apply)
		e.FieldStart("changes")
		e.ArrStart()
		for _, c := range changes {
			e.ObjStart()
			e.FieldStart("product_id")
			e.Str(c.ProductID)
			e.FieldStart("name")
			e.Str(c.Name)
			encodeCents(e, "old_price_cents", c.OldPrice)
			encodeCents(e, "new_price_cents", c.NewPrice)
			e.ObjEnd()
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

func decodeProductField(d *jx.Decoder, key string, p *product.Product) error {
	var err error
	switch key {
	case "id":
		p.ID, err = d.Str()
	case "kind":
		var s string
		s, err = d.Str()
		p.Kind = product.Kind(s)
	case "name":
		p.Name, err = d.Str()
	case "slug":
		p.Slug, err = d.Str()
	case "description":
		p.Description, err = d.Str()
	case "price_cents":
		p.Price, err = decodeCents(d)
	case "compare_at_price_cents":
		p.CompareAtPrice, err = decodeOptCents(d)
	case "cost_price_cents":
		p.CostPrice, err = decodeCents(d)
	case "stock_qty":
		p.StockQty, err = d.Int()
	case "images":
		p.Images, err = decodeStrings(d)
	case "status":
		var s string
		s, err = d.Str()
		p.Status = product.Status(s)
	case "bundle_product_ids":
		p.BundleProductIDs, err = decodeStrings(d)
	case "variants":
		p.Variants = []product.Variant{}
		err = d.Arr(func(d *jx.Decoder) error {
			var v product.Variant
			if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				var err error
				switch string(key) {
				case "name":
					v.Name, err = d.Str()
				case "sku":
					v.SKU, err = d.Str()
				case "stock_qty":
					v.StockQty, err = d.Int()
				case "price_cents":
					v.Price, err = decodeOptCents(d)
				default:
					err = d.Skip()
				}
				return err
			}); err != nil {
				return err
			}
			p.Variants = append(p.Variants, v)
			return nil
		})
	default:
		err = d.Skip()
	}
	return err
}

func (h *Handler) encodeListing(e *jx.Encoder, l *product.Listing) {
	e.ObjStart()
	h.encodeProductFields(e, &l.Product)
	encodeCents(e, "sale_price_cents", l.SalePrice)
	if l.SpecialID != "" {
		e.FieldStart("special_id")
		e.Str(l.SpecialID)
	}
	e.ObjEnd()
}

func (h *Handler) encodeProductFields(e *jx.Encoder, p *product.Product) {
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("kind")
	e.Str(string(p.Kind))
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("slug")
	e.Str(p.Slug)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("currency")
	e.Str(h.currency)
	encodeCents(e, "price_cents", p.Price)
	if p.CompareAtPrice != nil {
		encodeCents(e, "compare_at_price_cents", *p.CompareAtPrice)
	}
	encodeCents(e, "cost_price_cents", p.CostPrice)
	e.FieldStart("stock_qty")
	e.Int(p.StockQty)
	e.FieldStart("variants")
	e.ArrStart()
	for _, v := range p.Variants {
		e.ObjStart()
		e.FieldStart("name")
		e.Str(v.Name)
		e.FieldStart("sku")
		e.Str(v.SKU)
		e.FieldStart("stock_qty")
		e.Int(v.StockQty)
		if v.Price != nil {
			encodeCents(e, "price_cents", *v.Price)
		}
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("images")
	encodeStrings(e, p.Images)
	e.FieldStart("status")
	e.Str(string(p.Status))
	if p.Kind == product.KindBundle {
		e.FieldStart("bundle_product_ids")
		encodeStrings(e, p.BundleProductIDs)
	}
	e.FieldStart("created_at")
	encodeTime(e, p.CreatedAt)
	e.FieldStart("updated_at")
	encodeTime(e, p.UpdatedAt)
}
