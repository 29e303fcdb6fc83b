// Package report computes sales figures from orders.
package report

import (
	"context"
	"sort"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/beauty-admin/internal/domain/money"
	"github.com/xenking/beauty-admin/internal/domain/order"
	"github.com/xenking/beauty-admin/internal/domain/validation"
)

// DailyRevenue is the revenue of one calendar day.
type DailyRevenue struct {
	Day     time.Time
	Orders  int
	Revenue money.Cents
}

// Summary is a sales report over a period.
type Summary struct {
	From                 time.Time
	To                   time.Time
	Orders               int
	OrdersByStatus       map[order.Status]int
	PaidOrders           int
	Revenue              money.Cents
	Discounts            money.Cents
	AverageOrderValue    money.Cents
	RevenueByFulfillment map[order.FulfillmentType]money.Cents
	Daily                []DailyRevenue
}

// Paid reports whether o has been paid and not cancelled, i.e. whether its
// total counts as revenue.
func Paid(o *order.Order) bool {
	if o.Status == order.StatusCancelled {
		return false
	}
	return order.StepStatus(order.Flow(o.FulfillmentType), o.Status, order.StatusPaid) == order.StepCompleted
}

// SalesSummary summarizes orders created in [from, to). Days are bucketed in
// the location of from.
func SalesSummary(orders []order.Order, from, to time.Time) Summary {
	s := Summary{
		From:                 from,
		To:                   to,
		OrdersByStatus:       make(map[order.Status]int),
		RevenueByFulfillment: make(map[order.FulfillmentType]money.Cents),
	}
	loc := from.Location()
	daily := make(map[time.Time]*DailyRevenue)

	for i := range orders {
		o := &orders[i]
		if o.CreatedAt.Before(from) || !o.CreatedAt.Before(to) {
			continue
		}
		s.Orders++
		s.OrdersByStatus[o.Status]++
		if !Paid(o) {
			continue
		}
		s.PaidOrders++
		s.Revenue += o.Total
		s.Discounts += o.Discount
		s.RevenueByFulfillment[o.FulfillmentType] += o.Total

		t := o.CreatedAt.In(loc)
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		d, ok := daily[day]
		if !ok {
			d = &DailyRevenue{Day: day}
			daily[day] = d
		}
		d.Orders++
		d.Revenue += o.Total
	}

	if s.PaidOrders > 0 {
		s.AverageOrderValue = money.Cents(int64(s.Revenue) / int64(s.PaidOrders))
	}
	s.Daily = make([]DailyRevenue, 0, len(daily))
	for _, d := range daily {
		s.Daily = append(s.Daily, *d)
	}
	sort.Slice(s.Daily, func(i, j int) bool { return s.Daily[i].Day.Before(s.Daily[j].Day) })
	return s
}

// Orders lists orders for reporting.
type Orders interface {
	List(ctx context.Context, filter order.Filter) ([]order.Order, error)
}

// Service builds reports from stored orders.
type Service struct {
	orders Orders
	loc    *time.Location
}

// NewService creates a report Service. Days are bucketed in loc.
func NewService(orders Orders, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{orders: orders, loc: loc}
}

// Sales returns the sales summary for [from, to).
func (s *Service) Sales(ctx context.Context, from, to time.Time) (*Summary, error) {
	if !to.After(from) {
		return nil, validation.Errorf("to", "must be after from")
	}
	from, to = from.In(s.loc), to.In(s.loc)
	orders, err := s.orders.List(ctx, order.Filter{From: &from, To: &to, IncludeArchived: true})
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	summary := SalesSummary(orders, from, to)
	return &summary, nil
}
