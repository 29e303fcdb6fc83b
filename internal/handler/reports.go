package handler

import (
	"net/http"
	"slices"
	"time"

	"github.com/go-faster/jx"

	"github.com/xenking/beauty-admin/internal/domain/order"
	"github.com/xenking/beauty-admin/internal/domain/validation"
)

const dateLayout = "2006-01-02"

// salesReport defaults to the last 30 days ending today.
func (h *Handler) salesReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := h.parseRange(q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if to == nil {
		end := h.startOfDay(h.now()).AddDate(0, 0, 1)
		to = &end
	}
	if from == nil {
		start := to.AddDate(0, 0, -30)
		from = &start
	}

	s, err := h.Reports.Sales(r.Context(), *from, *to)
	if err != nil {
		writeError(w, r, err)
		return
	}

	statuses := make([]string, 0, len(s.OrdersByStatus))
	for st := range s.OrdersByStatus {
		statuses = append(statuses, string(st))
	}
	slices.Sort(statuses)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("from")
		encodeTime(e, s.From)
		e.FieldStart("to")
		encodeTime(e, s.To)
		e.FieldStart("currency")
		e.Str(h.currency)
		e.FieldStart("orders")
		e.Int(s.Orders)
		e.FieldStart("paid_orders")
		e.Int(s.PaidOrders)
		e.FieldStart("orders_by_status")
		e.ObjStart()
		for _, st := range statuses {
			e.FieldStart(st)
			e.Int(s.OrdersByStatus[order.Status(st)])
		}
		e.ObjEnd()
		encodeCents(e, "revenue_cents", s.Revenue)
		encodeCents(e, "discount_cents", s.Discounts)
		encodeCents(e, "average_order_value_cents", s.AverageOrderValue)
		e.FieldStart("revenue_by_fulfillment_cents")
		e.ObjStart()
		for _, f := range []order.FulfillmentType{order.FulfillmentDelivery, order.FulfillmentCollection} {
			encodeCents(e, string(f), s.RevenueByFulfillment[f])
		}
		e.ObjEnd()
		e.FieldStart("daily")
		e.ArrStart()
		for _, day := range s.Daily {
			e.ObjStart()
			e.FieldStart("date")
			e.Str(day.Day.Format(dateLayout))
			e.FieldStart("orders")
			e.Int(day.Orders)
			encodeCents(e, "revenue_cents", day.Revenue)
			e.ObjEnd()
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

// parseRange parses optional from/to query bounds. Each accepts RFC 3339 or
// a date; a date-only "to" includes that whole day.
func (h *Handler) parseRange(fromValue, toValue string) (from, to *time.Time, err error) {
	if fromValue != "" {
		t, err := h.parseBound(fromValue, false)
		if err != nil {
			return nil, nil, validation.Errorf("from", "%s", err)
		}
		from = &t
	}
	if toValue != "" {
		t, err := h.parseBound(toValue, true)
		if err != nil {
			return nil, nil, validation.Errorf("to", "%s", err)
		}
		to = &t
	}
	return from, to, nil
}

func (h *Handler) parseBound(v string, end bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, h.loc)
	if err != nil {
		return time.Time{}, validation.Errorf("", "expected RFC 3339 time or YYYY-MM-DD date")
	}
	if end {
		t = t.AddDate(0, 0, 1)
	}
	return t, nil
}

func (h *Handler) startOfDay(t time.Time) time.Time {
	t = t.In(h.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, h.loc)
}
