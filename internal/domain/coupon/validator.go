package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/beauty-admin/internal/domain/validation"
)

// Validator prices a set of order lines with a coupon code and records the
// use.
type Validator interface {
	Validate(ctx context.Context, code string, items []Item) (*Discount, error)
}

// NormalizeCode returns the canonical upper-case form of a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// RepoValidator implements Validator on top of a Repository.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate applies the coupon to items and counts one use. Nothing is
// counted when the coupon is rejected. The repository increment re-checks
// the usage limit, so a coupon exhausted by a concurrent request still
// fails with ErrCouponUsageLimitReached.
func (v *RepoValidator) Validate(ctx context.Context, code string, items []Item) (*Discount, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrInvalidCoupon
	}
	if len(items) == 0 {
		return nil, validation.Errorf("items", "at least one item is required")
	}

	c, err := v.repo.FindByCode(ctx, code)
	switch {
	case errors.Is(err, ErrInvalidCoupon):
		return nil, ErrInvalidCoupon
	case err != nil:
		return nil, errors.Wrapf(err, "find coupon %s", code)
	}
	if err := c.Applicable(v.now()); err != nil {
		return nil, err
	}

	d, err := Apply(c, items)
	if err != nil {
		return nil, err
	}

	switch err := v.repo.IncrementUses(ctx, c.Code); {
	case errors.Is(err, ErrCouponUsageLimitReached):
		return nil, ErrCouponUsageLimitReached
	case err != nil:
		return nil, errors.Wrap(err, "increment coupon uses")
	}
	return &d, nil
}
