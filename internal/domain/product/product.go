package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/beauty-admin/internal/domain/money"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Kind distinguishes the catalog entity types sharing the products table.
type Kind string

const (
	KindProduct Kind = "product"
	KindBundle  Kind = "bundle"
	KindCourse  Kind = "course"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindProduct || k == KindBundle || k == KindCourse
}

// Status is the publication status of a catalog item.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusActive || s == StatusArchived
}

// Product represents a catalog item: a single product, a bundle of products
// or a course.
type Product struct {
	ID               string
	Kind             Kind
	Name             string
	Slug             string
	Description      string
	Price            money.Cents
	CompareAtPrice   *money.Cents
	CostPrice        money.Cents
	StockQty         int
	Variants         []Variant
	Images           []string
	Status           Status
	BundleProductIDs []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Variant is a purchasable option of a product with its own stock level.
type Variant struct {
	Name     string
	SKU      string
	StockQty int
	// Price overrides the product price when set.
	Price *money.Cents
}

// KeepStock copies stock levels from stored onto p. Stock is owned by the
// adjustment ledger, so edits never change it. Variants are matched by
// position; variants added by the edit start at zero.
func (p *Product) KeepStock(stored *Product) {
	p.StockQty = stored.StockQty
	for i := range p.Variants {
		if i < len(stored.Variants) {
			p.Variants[i].StockQty = stored.Variants[i].StockQty
		} else {
			p.Variants[i].StockQty = 0
		}
	}
}

// DeleteAction reports what a delete request did.
type DeleteAction string

const (
	ActionDeleted  DeleteAction = "deleted"
	ActionArchived DeleteAction = "archived"
)

// PriceChange is the old and new price of one product in a bulk update.
type PriceChange struct {
	ProductID string
	Name      string
	OldPrice  money.Cents
	NewPrice  money.Cents
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	List(ctx context.Context, kind Kind) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	// Save inserts p, or updates the stored item while keeping its stock
	// levels.
	Save(ctx context.Context, p *Product) error
	// Delete removes the product, or archives it when order lines still
	// reference it.
	Delete(ctx context.Context, id string) (DeleteAction, error)
	UpdatePrices(ctx context.Context, changes []PriceChange) error
}
