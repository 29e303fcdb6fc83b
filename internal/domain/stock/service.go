package stock

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/beauty-admin/internal/domain/validation"
)

const defaultListLimit = 200

// Service applies stock adjustments.
type Service struct {
	repo          Repository
	allowNegative bool
	now           func() time.Time
}

// NewService creates a stock Service. allowNegative permits adjustments that
// take a stock level below zero.
func NewService(repo Repository, allowNegative bool) *Service {
	return &Service{repo: repo, allowNegative: allowNegative, now: time.Now}
}

// Adjust validates a and records it. The returned movement carries the
// stock level confirmed by the store.
func (s *Service) Adjust(ctx context.Context, a Adjustment) (*Movement, error) {
	if err := Validate(a); err != nil {
		return nil, err
	}

	m := &Movement{
		ID:           uuid.NewString(),
		ProductID:    a.ProductID,
		VariantIndex: a.VariantIndex,
		Delta:        a.Delta,
		Reason:       a.Reason,
		OrderID:      a.OrderID,
		CreatedAt:    s.now(),
	}
	opts := ApplyOptions{AllowNegative: s.allowNegative}
	if a.Reason == ReasonRestock {
		opts.UnitCost = a.UnitCost
	}
	if err := s.repo.Apply(ctx, m, opts); err != nil {
		if errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrVariantNotFound) {
			return nil, err
		}
		return nil, errors.Wrapf(err, "adjust stock of %s", a.ProductID)
	}
	return m, nil
}

// List returns movements matching filter, newest first.
func (s *Service) List(ctx context.Context, filter Filter) ([]Movement, error) {
	if filter.Limit <= 0 || filter.Limit > defaultListLimit {
		filter.Limit = defaultListLimit
	}
	movements, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "list stock movements")
	}
	return movements, nil
}

// Validate checks an adjustment before it reaches the store.
func Validate(a Adjustment) error {
	switch {
	case a.ProductID == "":
		return validation.Errorf("product_id", "required")
	case a.Delta == 0:
		return validation.Errorf("delta", "must not be zero")
	case !a.Reason.Valid():
		return validation.Errorf("reason", "unknown reason %q", a.Reason)
	case a.Reason == ReasonOrderSale && a.OrderID == "":
		return validation.Errorf("order_id", "required for order sales")
	case a.Reason == ReasonOrderSale && a.Delta > 0:
		return validation.Errorf("delta", "an order sale removes stock")
	case a.Reason == ReasonRestock && a.Delta < 0:
		return validation.Errorf("delta", "a restock adds stock")
	case a.VariantIndex != nil && *a.VariantIndex < 0:
		return validation.Errorf("variant_index", "cannot be negative")
	case a.UnitCost != nil && *a.UnitCost < 0:
		return validation.Errorf("unit_cost_cents", "cannot be negative")
	}
	return nil
}
