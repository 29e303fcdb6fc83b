// Package special implements time-windowed price specials for products,
// bundles or the whole store.
package special

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/beauty-admin/internal/domain/money"
	"github.com/xenking/beauty-admin/internal/domain/pricing"
)

// Scope is what a special applies to.
type Scope string

const (
	ScopeProduct  Scope = "product"
	ScopeBundle   Scope = "bundle"
	ScopeSitewide Scope = "sitewide"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s == ScopeProduct || s == ScopeBundle || s == ScopeSitewide
}

// Status is derived from the special's window and the current time.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
)

// Special is a discount applied to a set of catalog items for a window of
// time. DiscountValue is a percentage for percent specials and cents for
// the other types.
type Special struct {
	ID            string
	Name          string
	Scope         Scope
	TargetIDs     []string
	DiscountType  pricing.DiscountType
	DiscountValue decimal.Decimal
	StartsAt      time.Time
	EndsAt        time.Time
	CreatedAt     time.Time
}

// Status returns the state of the special at now. The window is half open:
// a special ending at now has expired.
func (s *Special) Status(now time.Time) Status {
	switch {
	case now.Before(s.StartsAt):
		return StatusScheduled
	case !now.Before(s.EndsAt):
		return StatusExpired
	default:
		return StatusActive
	}
}

// Target identifies the catalog item a special is checked against.
type Target struct {
	ID     string
	Bundle bool
}

// Applies reports whether the special covers t, regardless of its window.
func (s *Special) Applies(t Target) bool {
	switch s.Scope {
	case ScopeSitewide:
		return true
	case ScopeBundle:
		if !t.Bundle {
			return false
		}
	case ScopeProduct:
		if t.Bundle {
			return false
		}
	default:
		return false
	}
	for _, id := range s.TargetIDs {
		if id == t.ID {
			return true
		}
	}
	return false
}

// BestPrice returns the lowest price for t among the specials active at now,
// and the special that produced it. It returns base and nil when no special
// applies.
func BestPrice(specials []Special, t Target, base money.Cents, now time.Time) (money.Cents, *Special) {
	best, by := base, (*Special)(nil)
	for i := range specials {
		s := &specials[i]
		if s.Status(now) != StatusActive || !s.Applies(t) {
			continue
		}
		price, err := pricing.CalcSpecialPrice(base, s.DiscountType, s.DiscountValue)
		if err != nil {
			continue
		}
		if price < best {
			best, by = price, s
		}
	}
	return best, by
}

// Repository defines persistence operations for specials.
type Repository interface {
	List(ctx context.Context) ([]Special, error)
	Create(ctx context.Context, s *Special) error
}
