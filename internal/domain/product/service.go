package product

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/beauty-admin/internal/domain/money"
	"github.com/xenking/beauty-admin/internal/domain/pricing"
	"github.com/xenking/beauty-admin/internal/domain/special"
	"github.com/xenking/beauty-admin/internal/domain/validation"
)

// Specials provides the specials active right now.
type Specials interface {
	Active(ctx context.Context) ([]special.Special, error)
}

// Listing is a catalog item with its current sale price.
type Listing struct {
	Product
	// SalePrice equals Price when no special applies.
	SalePrice money.Cents
	SpecialID string
}

// BulkUpdate describes a bulk price change over a set of products.
type BulkUpdate struct {
	ProductIDs []string
	Adjustment pricing.Adjustment
	// Value is a percentage for percent adjustments, a Rand amount otherwise.
	Value decimal.Decimal
	// Apply persists the new prices; otherwise they are only previewed.
	Apply bool
}

// Service implements catalog management.
type Service struct {
	repo     Repository
	specials Specials
	now      func() time.Time
}

// NewService creates a product Service.
func NewService(repo Repository, specials Specials) *Service {
	return &Service{repo: repo, specials: specials, now: time.Now}
}

// List returns catalog items of the given kind, or all items when kind is
// empty, priced with the best active special.
func (s *Service) List(ctx context.Context, kind Kind) ([]Listing, error) {
	if kind != "" && !kind.Valid() {
		return nil, validation.Errorf("kind", "unknown kind %q", kind)
	}
	products, err := s.repo.List(ctx, kind)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	active, err := s.specials.Active(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "active specials")
	}
	now := s.now()
	out := make([]Listing, len(products))
	for i := range products {
		out[i] = price(products[i], active, now)
	}
	return out, nil
}

// Get returns a single catalog item priced with the best active special.
func (s *Service) Get(ctx context.Context, id string) (*Listing, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	active, err := s.specials.Active(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "active specials")
	}
	l := price(*p, active, s.now())
	return &l, nil
}

func price(p Product, active []special.Special, now time.Time) Listing {
	sale, by := special.BestPrice(active, special.Target{ID: p.ID, Bundle: p.Kind == KindBundle}, p.Price, now)
	l := Listing{Product: p, SalePrice: sale}
	if by != nil {
		l.SpecialID = by.ID
	}
	return l
}

// Save validates and upserts a catalog item. A missing id or slug is
// generated.
//
// Stock levels are only taken from p when the item is new. Updates keep the
// stored stock; use the stock service to change it.
func (s *Service) Save(ctx context.Context, p *Product) (*Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Kind == "" {
		p.Kind = KindProduct
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	} else {
		stored, err := s.repo.GetByID(ctx, p.ID)
		switch {
		case err == nil:
			p.KeepStock(stored)
		case !errors.Is(err, ErrNotFound):
			return nil, errors.Wrapf(err, "load product %s", p.ID)
		}
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, errors.Wrapf(err, "save product %s", p.ID)
	}
	return p, nil
}

// Delete removes a catalog item, or archives it when orders reference it.
func (s *Service) Delete(ctx context.Context, id string) (DeleteAction, error) {
	action, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", err
		}
		return "", errors.Wrapf(err, "delete product %s", id)
	}
	return action, nil
}

// BulkPriceUpdate computes new prices for the given products and persists
// them when u.Apply is set.
func (s *Service) BulkPriceUpdate(ctx context.Context, u BulkUpdate) ([]PriceChange, error) {
	switch {
	case len(u.ProductIDs) == 0:
		return nil, validation.Errorf("product_ids", "at least one product is required")
	case !u.Adjustment.Valid():
		return nil, validation.Errorf("adjustment", "must be percent, increase, decrease or set")
	case u.Adjustment != pricing.AdjustPercent && u.Value.IsNegative():
		return nil, validation.Errorf("value", "cannot be negative")
	}

	products, err := s.repo.GetByIDs(ctx, u.ProductIDs)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	changes := make([]PriceChange, 0, len(u.ProductIDs))
	for _, id := range u.ProductIDs {
		p, ok := byID[id]
		if !ok {
			return nil, errors.Wrapf(ErrNotFound, "product %s", id)
		}
		next, err := pricing.AdjustPrice(p.Price, u.Adjustment, u.Value)
		if err != nil {
			return nil, err
		}
		changes = append(changes, PriceChange{
			ProductID: p.ID,
			Name:      p.Name,
			OldPrice:  p.Price,
			NewPrice:  next,
		})
	}

	if u.Apply {
		if err := s.repo.UpdatePrices(ctx, changes); err != nil {
			return nil, errors.Wrap(err, "update prices")
		}
	}
	return changes, nil
}

// Validate checks a catalog item before it is persisted.
func Validate(p *Product) error {
	switch {
	case p.Name == "":
		return validation.Errorf("name", "required")
	case !p.Kind.Valid():
		return validation.Errorf("kind", "must be product, bundle or course")
	case !p.Status.Valid():
		return validation.Errorf("status", "must be draft, active or archived")
	case p.Price <= 0:
		return validation.Errorf("price_cents", "must be greater than 0")
	case p.CompareAtPrice != nil && *p.CompareAtPrice <= 0:
		return validation.Errorf("compare_at_price_cents", "must be greater than 0")
	case p.CostPrice < 0:
		return validation.Errorf("cost_price_cents", "cannot be negative")
	case len(p.Images) == 0:
		return validation.Errorf("images", "at least one image is required")
	case p.Kind == KindBundle && len(p.BundleProductIDs) == 0:
		return validation.Errorf("bundle_product_ids", "a bundle needs at least one product")
	case p.Kind != KindBundle && len(p.BundleProductIDs) > 0:
		return validation.Errorf("bundle_product_ids", "only bundles contain products")
	}
	for i, img := range p.Images {
		if strings.TrimSpace(img) == "" {
			return validation.Errorf("images", "image %d is empty", i)
		}
	}
	for i, v := range p.Variants {
		switch {
		case strings.TrimSpace(v.Name) == "":
			return validation.Errorf("variants", "variant %d needs a name", i)
		case v.Price != nil && *v.Price <= 0:
			return validation.Errorf("variants", "variant %d price must be greater than 0", i)
		}
	}
	return nil
}

// Slugify derives a URL slug from a name.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
