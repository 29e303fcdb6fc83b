package special

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/beauty-admin/internal/domain/pricing"
	"github.com/xenking/beauty-admin/internal/domain/validation"
)

// Listing is a special with its status at listing time.
type Listing struct {
	Special
	Status Status
}

// Service implements the admin operations on specials.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a special Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns all specials with their derived status.
func (s *Service) List(ctx context.Context) ([]Listing, error) {
	specials, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list specials")
	}
	now := s.now()
	out := make([]Listing, len(specials))
	for i := range specials {
		out[i] = Listing{Special: specials[i], Status: specials[i].Status(now)}
	}
	return out, nil
}

// Active returns the specials active right now.
func (s *Service) Active(ctx context.Context) ([]Special, error) {
	specials, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list specials")
	}
	now := s.now()
	active := specials[:0]
	for _, sp := range specials {
		if sp.Status(now) == StatusActive {
			active = append(active, sp)
		}
	}
	return active, nil
}

// Create validates and stores a new special.
func (s *Service) Create(ctx context.Context, sp *Special) (*Listing, error) {
	sp.Name = strings.TrimSpace(sp.Name)
	if sp.Scope == ScopeSitewide {
		sp.TargetIDs = nil
	}
	if err := Validate(sp); err != nil {
		return nil, err
	}
	sp.ID = uuid.NewString()
	sp.CreatedAt = s.now()
	if err := s.repo.Create(ctx, sp); err != nil {
		return nil, errors.Wrap(err, "create special")
	}
	return &Listing{Special: *sp, Status: sp.Status(s.now())}, nil
}

// Validate checks a special before it is persisted.
func Validate(sp *Special) error {
	switch {
	case sp.Name == "":
		return validation.Errorf("name", "required")
	case !sp.Scope.Valid():
		return validation.Errorf("scope", "must be product, bundle or sitewide")
	case sp.Scope != ScopeSitewide && len(sp.TargetIDs) == 0:
		return validation.Errorf("target_ids", "at least one target is required for %s specials", sp.Scope)
	case !sp.DiscountType.Valid():
		return validation.Errorf("discount_type", "must be percent, amount_off or fixed_price")
	case sp.DiscountValue.IsNegative():
		return validation.Errorf("discount_value", "cannot be negative")
	case sp.DiscountType != pricing.DiscountFixedPrice && sp.DiscountValue.IsZero():
		return validation.Errorf("discount_value", "must be greater than 0")
	case sp.DiscountType == pricing.DiscountPercent && sp.DiscountValue.GreaterThan(decimal.NewFromInt(100)):
		return validation.Errorf("discount_value", "percent cannot exceed 100")
	case sp.DiscountType != pricing.DiscountPercent && !sp.DiscountValue.IsInteger():
		return validation.Errorf("discount_value", "must be whole cents")
	case sp.StartsAt.IsZero() || sp.EndsAt.IsZero():
		return validation.Errorf("starts_at", "window start and end are required")
	case !sp.EndsAt.After(sp.StartsAt):
		return validation.Errorf("ends_at", "must be after starts_at")
	}
	return nil
}
