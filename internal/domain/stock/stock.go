// Package stock records inventory adjustments as an append-only ledger of
// movements applied atomically with the stock level they change.
package stock

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/beauty-admin/internal/domain/money"
)

// Sentinel errors for stock adjustments.
var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductNotFound   = errors.New("product not found")
	ErrVariantNotFound   = errors.New("variant not found")
)

// Reason is why stock changed.
type Reason string

const (
	ReasonRestock    Reason = "manual_restock"
	ReasonCorrection Reason = "manual_correction"
	ReasonDamage     Reason = "manual_damage"
	ReasonReturn     Reason = "manual_return"
	ReasonOrderSale  Reason = "order_sale"
)

// Valid reports whether r is a known reason.
func (r Reason) Valid() bool {
	switch r {
	case ReasonRestock, ReasonCorrection, ReasonDamage, ReasonReturn, ReasonOrderSale:
		return true
	}
	return false
}

// Movement is an immutable stock ledger entry.
type Movement struct {
	ID           string
	ProductID    string
	VariantIndex *int
	Delta        int
	Reason       Reason
	OrderID      string
	StockAfter   int
	CreatedAt    time.Time
}

// Adjustment is a request to change a product's or variant's stock level.
type Adjustment struct {
	ProductID    string
	VariantIndex *int
	Delta        int
	Reason       Reason
	OrderID      string
	// UnitCost updates the product cost price on restock when set.
	UnitCost *money.Cents
}

// ApplyOptions controls how the repository applies a movement.
type ApplyOptions struct {
	AllowNegative bool
	UnitCost      *money.Cents
}

// Filter narrows a movement listing.
type Filter struct {
	ProductID string
	Limit     int
}

// Repository persists movements together with the stock level change.
type Repository interface {
	// Apply locks the stock row, computes the new level with NewLevel, stores
	// it and inserts m in one transaction. It fills m.StockAfter.
	Apply(ctx context.Context, m *Movement, opts ApplyOptions) error
	// List returns movements newest first.
	List(ctx context.Context, filter Filter) ([]Movement, error)
}

// NewLevel returns the stock level after applying delta to current. A
// negative result is rejected unless allowNegative is set.
func NewLevel(current, delta int, allowNegative bool) (int, error) {
	next := current + delta
	if next < 0 && !allowNegative {
		return current, errors.Wrapf(ErrInsufficientStock, "%d in stock, adjustment %d", current, delta)
	}
	return next, nil
}

// Preview returns the level to display optimistically before the server
// confirms an adjustment.
func Preview(current, delta int) int {
	return current + delta
}
