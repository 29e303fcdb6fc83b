package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/beauty-admin/internal/domain/validation"
)

// Listing pairs a coupon with whether it can currently be applied.
type Listing struct {
	Coupon
	// Unavailable is nil when the coupon is applicable, otherwise the reason.
	Unavailable error
}

// Service implements the admin operations on coupons.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a coupon Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns all coupons with their current applicability so that
// expired or exhausted coupons are never presented as usable.
func (s *Service) List(ctx context.Context) ([]Listing, error) {
	coupons, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list coupons")
	}

	now := s.now()
	out := make([]Listing, len(coupons))
	for i := range coupons {
		out[i] = Listing{Coupon: coupons[i], Unavailable: coupons[i].Applicable(now)}
	}
	return out, nil
}

// Save validates and upserts a coupon by code.
func (s *Service) Save(ctx context.Context, c *Coupon) error {
	c.Code = NormalizeCode(c.Code)
	if err := Validate(c); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return errors.Wrapf(err, "save coupon %s", c.Code)
	}
	return nil
}

// Deactivate switches a coupon off without deleting it.
func (s *Service) Deactivate(ctx context.Context, code string) error {
	if err := s.repo.Deactivate(ctx, NormalizeCode(code)); err != nil {
		return errors.Wrapf(err, "deactivate coupon %s", code)
	}
	return nil
}

// Validate checks a coupon before it is persisted. A max discount is only
// accepted on percentage coupons.
func Validate(c *Coupon) error {
	switch {
	case c.Code == "":
		return validation.Errorf("code", "required")
	case !c.Type.Valid():
		return validation.Errorf("type", "must be percentage or fixed")
	case !c.Value.IsPositive():
		return validation.Errorf("value", "must be greater than 0")
	case c.Type == TypePercentage && c.Value.GreaterThan(decimal.NewFromInt(100)):
		return validation.Errorf("value", "percentage cannot exceed 100")
	case c.Type == TypeFixed && !c.Value.IsInteger():
		return validation.Errorf("value", "fixed value must be whole cents")
	case c.MinOrder < 0:
		return validation.Errorf("min_order_cents", "cannot be negative")
	case c.MaxDiscount < 0:
		return validation.Errorf("max_discount_cents", "cannot be negative")
	case c.MaxDiscount > 0 && c.Type != TypePercentage:
		return validation.Errorf("max_discount_cents", "only allowed for percentage coupons")
	case c.MaxUses < 0:
		return validation.Errorf("max_uses", "cannot be negative")
	case c.UsedCount < 0:
		return validation.Errorf("used_count", "cannot be negative")
	case c.MaxUses > 0 && c.UsedCount > c.MaxUses:
		return validation.Errorf("used_count", "cannot exceed max_uses")
	case c.ValidFrom != nil && c.ValidUntil != nil && !c.ValidUntil.After(*c.ValidFrom):
		return validation.Errorf("valid_until", "must be after valid_from")
	}
	return nil
}
