package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/beauty-admin/internal/domain/money"
)

// Sentinel errors for order lookups and status changes.
var (
	ErrNotFound          = errors.New("order not found")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrStatusConflict    = errors.New("order status changed concurrently")

	// ErrStatusUpdateFailed is part of the error returned when both the
	// primary and the fallback status writers fail.
	ErrStatusUpdateFailed = errors.New("primary and fallback status updates failed")
)

// Status is the fulfillment status of an order.
type Status string

const (
	StatusCreated        Status = "created"
	StatusUnpaid         Status = "unpaid"
	StatusPaid           Status = "paid"
	StatusPacked         Status = "packed"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCollected      Status = "collected"
	StatusCancelled      Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusUnpaid, StatusPaid, StatusPacked,
		StatusOutForDelivery, StatusDelivered, StatusCollected, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition can leave s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCollected || s == StatusCancelled
}

// FulfillmentType says whether an order is shipped or picked up.
type FulfillmentType string

const (
	FulfillmentDelivery   FulfillmentType = "delivery"
	FulfillmentCollection FulfillmentType = "collection"
)

// Valid reports whether f is a known fulfillment type.
func (f FulfillmentType) Valid() bool {
	return f == FulfillmentDelivery || f == FulfillmentCollection
}

// Milestones holds the time each workflow step was reached.
type Milestones struct {
	PaidAt           *time.Time
	PackedAt         *time.Time
	OutForDeliveryAt *time.Time
	DeliveredAt      *time.Time
	CollectedAt      *time.Time
	CancelledAt      *time.Time
}

// At returns the milestone timestamp recorded for status s.
func (m Milestones) At(s Status) *time.Time {
	switch s {
	case StatusPaid:
		return m.PaidAt
	case StatusPacked:
		return m.PackedAt
	case StatusOutForDelivery:
		return m.OutForDeliveryAt
	case StatusDelivered:
		return m.DeliveredAt
	case StatusCollected:
		return m.CollectedAt
	case StatusCancelled:
		return m.CancelledAt
	}
	return nil
}

// Buyer holds the customer contact details captured at checkout.
type Buyer struct {
	Name  string
	Email string
	Phone string
}

// Order represents a customer purchase as seen by the admin backend.
type Order struct {
	ID              string
	Number          string
	FulfillmentType FulfillmentType
	Status          Status
	Subtotal        money.Cents
	Shipping        money.Cents
	Discount        money.Cents
	Total           money.Cents
	Milestones      Milestones
	Buyer           Buyer
	Address         Address
	Items           []LineItem
	Archived        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// LineItem is one product, variant and quantity on an order.
type LineItem struct {
	ProductID    string
	VariantIndex *int
	Name         string
	Quantity     int
	UnitPrice    money.Cents
	Total        money.Cents
}

// Filter narrows an order listing.
type Filter struct {
	Status          Status
	IncludeArchived bool
	From            *time.Time
	To              *time.Time
	// Limit caps the number of orders returned, newest first.
	Limit int
}

// Repository defines persistence operations for orders.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Order, error)
	Get(ctx context.Context, id string) (*Order, error)
	SetArchived(ctx context.Context, id string, archived bool) error
}
