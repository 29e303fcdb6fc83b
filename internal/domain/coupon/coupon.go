package coupon

import (
	"context"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/beauty-admin/internal/domain/money"
)

// Type enumerates the supported coupon discount strategies.
type Type string

const (
	// TypePercentage takes a percentage off the discountable subtotal,
	// optionally capped by MaxDiscount.
	TypePercentage Type = "percentage"
	// TypeFixed takes a fixed number of cents off, capped at the
	// discountable subtotal.
	TypeFixed Type = "fixed"
)

// Valid reports whether t is a known coupon type.
func (t Type) Valid() bool {
	return t == TypePercentage || t == TypeFixed
}

var (
	// ErrInvalidCoupon is returned when a coupon code is not found.
	ErrInvalidCoupon = errors.New("invalid coupon code")
	// ErrCouponInactive is returned for coupons switched off by an admin.
	ErrCouponInactive = errors.New("coupon inactive")
	// ErrCouponExpired is returned when a coupon is outside its valid time window.
	ErrCouponExpired = errors.New("coupon expired")
	// ErrCouponUsageLimitReached is returned when a coupon has exhausted its allowed uses.
	ErrCouponUsageLimitReached = errors.New("coupon usage limit reached")
	// ErrMinOrderNotMet is returned when the order subtotal is below MinOrder.
	ErrMinOrderNotMet = errors.New("order below coupon minimum")
)

// Coupon is a code-based discount with eligibility and usage constraints.
type Coupon struct {
	Code string
	Type Type
	// Value is a percentage for TypePercentage and cents for TypeFixed.
	Value    decimal.Decimal
	MinOrder money.Cents
	// MaxDiscount caps percentage discounts. Zero means no cap.
	MaxDiscount        money.Cents
	MaxUses            int
	UsedCount          int
	ExcludedProductIDs []string
	ValidFrom          *time.Time
	ValidUntil         *time.Time
	IsActive           bool
	Description        string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Excludes reports whether the coupon never discounts the given product.
func (c *Coupon) Excludes(productID string) bool {
	return slices.Contains(c.ExcludedProductIDs, productID)
}

// Exhausted reports whether the coupon has used up its allowed uses.
func (c *Coupon) Exhausted() bool {
	return c.MaxUses > 0 && c.UsedCount >= c.MaxUses
}

// Applicable returns nil when the coupon may be offered at the given time.
func (c *Coupon) Applicable(now time.Time) error {
	if !c.IsActive {
		return ErrCouponInactive
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return ErrCouponExpired
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return ErrCouponExpired
	}
	if c.Exhausted() {
		return ErrCouponUsageLimitReached
	}
	return nil
}

// Discount holds the computed discount amount and a human-readable description.
type Discount struct {
	Amount       money.Cents
	Subtotal     money.Cents
	Discountable money.Cents
	Description  string
}

// Item represents an order line for discount calculation purposes.
type Item struct {
	ProductID string
	UnitPrice money.Cents
	Quantity  int
}

// Total returns the line total.
func (i Item) Total() money.Cents {
	return i.UnitPrice * money.Cents(i.Quantity)
}

// Repository provides lookup and mutation of coupons.
type Repository interface {
	List(ctx context.Context) ([]Coupon, error)
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	Save(ctx context.Context, c *Coupon) error
	Deactivate(ctx context.Context, code string) error
	IncrementUses(ctx context.Context, code string) error
}
