package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"

	"github.com/xenking/beauty-admin/internal/domain/stock"
	"github.com/xenking/beauty-admin/internal/domain/validation"
)

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var a stock.Adjustment
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "product_id":
			a.ProductID, err = d.Str()
		case "variant_index":
			a.VariantIndex, err = decodeOptInt(d)
		case "delta":
			a.Delta, err = d.Int()
		case "reason":
			var s string
			s, err = d.Str()
			a.Reason = stock.Reason(s)
		case "order_id":
			a.OrderID, err = d.Str()
		case "unit_cost_cents":
			a.UnitCost, err = decodeOptCents(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		writeError(w, r, err)
		return
	}
	m, err := h.Stock.Adjust(r.Context(), a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeMovement(e, m)
	})
}

func (h *Handler) listStockMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := stock.Filter{ProductID: q.Get("product_id")}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, r, validation.Errorf("limit", "must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}
	movements, err := h.Stock.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range movements {
			encodeMovement(e, &movements[i])
		}
		e.ArrEnd()
	})
}

func encodeMovement(e *jx.Encoder, m *stock.Movement) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(m.ID)
	e.FieldStart("product_id")
	e.Str(m.ProductID)
	if m.VariantIndex != nil {
		e.FieldStart("variant_index")
		e.Int(*m.VariantIndex)
	}
	e.FieldStart("delta")
	e.Int(m.Delta)
	e.FieldStart("reason")
	e.Str(string(m.Reason))
	if m.OrderID != "" {
		e.FieldStart("order_id")
		e.Str(m.OrderID)
	}
	e.FieldStart("stock_after")
	e.Int(m.StockAfter)
	e.FieldStart("created_at")
	encodeTime(e, m.CreatedAt)
	e.ObjEnd()
}
