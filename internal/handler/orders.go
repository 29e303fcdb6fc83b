package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"

	"github.com/xenking/beauty-admin/internal/domain/order"
	"github.com/xenking/beauty-admin/internal/domain/validation"
)

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := order.Filter{Status: order.Status(q.Get("status"))}
	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, r, validation.Errorf("status", "unknown status %q", filter.Status))
		return
	}
	if v := q.Get("include_archived"); v != "" {
		archived, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, validation.Errorf("include_archived", "must be a boolean"))
			return
		}
		filter.IncludeArchived = archived
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, r, validation.Errorf("limit", "must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}
	from, to, err := h.parseRange(q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter.From, filter.To = from, to

	orders, err := h.Orders.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range orders {
			h.encodeOrder(e, &orders[i])
		}
		e.ArrEnd()
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	details, err := h.Orders.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeDetails(e, details)
	})
}

func (h *Handler) setOrderStatus(w http.ResponseWriter, r *http.Request) {
	var status order.Status
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		if key != "status" {
			return d.Skip()
		}
		s, err := d.Str()
		status = order.Status(s)
		return err
	}); err != nil {
		writeError(w, r, err)
		return
	}
	if status == "" {
		writeError(w, r, validation.Errorf("status", "required"))
		return
	}
	res, err := h.Orders.SetStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeStatusResult(w, res)
}

func (h *Handler) advanceOrder(w http.ResponseWriter, r *http.Request) {
	res, err := h.Orders.Advance(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeStatusResult(w, res)
}

func (h *Handler) archiveOrder(w http.ResponseWriter, r *http.Request) {
	var archived *bool
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		if key != "archived" {
			return d.Skip()
		}
		v, err := d.Bool()
		archived = &v
		return err
	}); err != nil {
		writeError(w, r, err)
		return
	}
	if archived == nil {
		writeError(w, r, validation.Errorf("archived", "required"))
		return
	}
	o, err := h.Orders.SetArchived(r.Context(), r.PathValue("id"), *archived)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeOrder(e, o)
	})
}

func (h *Handler) writeStatusResult(w http.ResponseWriter, res *order.StatusResult) {
	details := order.Describe(res.Order)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("order")
		h.encodeDetails(e, details)
		if res.Path != "" {
			e.FieldStart("path")
			e.Str(string(res.Path))
		}
		e.ObjEnd()
	})
}

func (h *Handler) encodeDetails(e *jx.Encoder, d *order.Details) {
	e.ObjStart()
	h.encodeOrderFields(e, d.Order)
	e.FieldStart("timeline")
	e.ArrStart()
	for _, entry := range d.Timeline {
		e.ObjStart()
		e.FieldStart("status")
		e.Str(string(entry.Status))
		e.FieldStart("state")
		e.Str(string(entry.State))
		encodeOptTime(e, "at", entry.At)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("next_step")
	if d.Next == nil {
		e.Null()
	} else {
		e.ObjStart()
		e.FieldStart("label")
		e.Str(d.Next.Label)
		e.FieldStart("status")
		e.Str(string(d.Next.Next))
		e.ObjEnd()
	}
	e.ObjEnd()
}

func (h *Handler) encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	h.encodeOrderFields(e, o)
	e.ObjEnd()
}

func (h *Handler) encodeOrderFields(e *jx.Encoder, o *order.Order) {
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("order_number")
	e.Str(o.Number)
	e.FieldStart("fulfillment_type")
	e.Str(string(o.FulfillmentType))
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("currency")
	e.Str(h.currency)
	encodeCents(e, "subtotal_cents", o.Subtotal)
	encodeCents(e, "shipping_cents", o.Shipping)
	encodeCents(e, "discount_cents", o.Discount)
	encodeCents(e, "total_cents", o.Total)

	m := o.Milestones
	encodeOptTime(e, "paid_at", m.PaidAt)
	encodeOptTime(e, "order_packed_at", m.PackedAt)
	encodeOptTime(e, "order_out_for_delivery_at", m.OutForDeliveryAt)
	encodeOptTime(e, "order_delivered_at", m.DeliveredAt)
	encodeOptTime(e, "order_collected_at", m.CollectedAt)
	encodeOptTime(e, "cancelled_at", m.CancelledAt)

	e.FieldStart("buyer")
	e.ObjStart()
	e.FieldStart("name")
	e.Str(o.Buyer.Name)
	e.FieldStart("email")
	e.Str(o.Buyer.Email)
	e.FieldStart("phone")
	e.Str(o.Buyer.Phone)
	e.ObjEnd()

	e.FieldStart("address")
	o.Address.Encode(e)
	e.FieldStart("address_line")
	e.Str(o.Address.Render())

	e.FieldStart("items")
	order.EncodeLineItems(e, o.Items)
	e.FieldStart("archived")
	e.Bool(o.Archived)
	e.FieldStart("created_at")
	encodeTime(e, o.CreatedAt)
	e.FieldStart("updated_at")
	encodeTime(e, o.UpdatedAt)
}
