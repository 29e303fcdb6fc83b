package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/beauty-admin/internal/domain/pricing"
	"github.com/xenking/beauty-admin/internal/domain/special"
)

func (h *Handler) listSpecials(w http.ResponseWriter, r *http.Request) {
	listings, err := h.Specials.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range listings {
			encodeSpecial(e, &listings[i])
		}
		e.ArrEnd()
	})
}

func (h *Handler) createSpecial(w http.ResponseWriter, r *http.Request) {
	var sp special.Special
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			sp.Name, err = d.Str()
		case "scope":
			var s string
			s, err = d.Str()
			sp.Scope = special.Scope(s)
		case "target_ids":
			sp.TargetIDs, err = decodeStrings(d)
		case "discount_type":
			var s string
			s, err = d.Str()
			sp.DiscountType = pricing.DiscountType(s)
		case "discount_value":
			sp.DiscountValue, err = decodeDecimal(d)
		case "starts_at":
			sp.StartsAt, err = decodeTime(d)
		case "ends_at":
			sp.EndsAt, err = decodeTime(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		writeError(w, r, err)
		return
	}
	l, err := h.Specials.Create(r.Context(), &sp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeSpecial(e, l)
	})
}

func encodeSpecial(e *jx.Encoder, l *special.Listing) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(l.ID)
	e.FieldStart("name")
	e.Str(l.Name)
	e.FieldStart("scope")
	e.Str(string(l.Scope))
	e.FieldStart("target_ids")
	encodeStrings(e, l.TargetIDs)
	e.FieldStart("discount_type")
	e.Str(string(l.DiscountType))
	e.FieldStart("discount_value")
	encodeDecimal(e, l.DiscountValue)
	e.FieldStart("starts_at")
	encodeTime(e, l.StartsAt)
	e.FieldStart("ends_at")
	encodeTime(e, l.EndsAt)
	e.FieldStart("status")
	e.Str(string(l.Status))
	e.FieldStart("created_at")
	encodeTime(e, l.CreatedAt)
	e.ObjEnd()
}
