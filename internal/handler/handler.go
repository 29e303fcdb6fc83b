// Package handler implements the admin HTTP API on top of the domain
// services.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/xenking/beauty-admin/internal/domain/contact"
	"github.com/xenking/beauty-admin/internal/domain/coupon"
	"github.com/xenking/beauty-admin/internal/domain/order"
	"github.com/xenking/beauty-admin/internal/domain/product"
	"github.com/xenking/beauty-admin/internal/domain/report"
	"github.com/xenking/beauty-admin/internal/domain/special"
	"github.com/xenking/beauty-admin/internal/domain/stock"
)

// Orders is the order service used by the handler.
type Orders interface {
	List(ctx context.Context, filter order.Filter) ([]order.Order, error)
	Get(ctx context.Context, id string) (*order.Details, error)
	Advance(ctx context.Context, id string) (*order.StatusResult, error)
	SetStatus(ctx context.Context, id string, to order.Status) (*order.StatusResult, error)
	SetArchived(ctx context.Context, id string, archived bool) (*order.Order, error)
}

// Products is the catalog service used by the handler.
type Products interface {
	List(ctx context.Context, kind product.Kind) ([]product.Listing, error)
	Get(ctx context.Context, id string) (*product.Listing, error)
	Save(ctx context.Context, p *product.Product) (*product.Product, error)
	Delete(ctx context.Context, id string) (product.DeleteAction, error)
	BulkPriceUpdate(ctx context.Context, u product.BulkUpdate) ([]product.PriceChange, error)
}

// Stock is the stock adjustment service used by the handler.
type Stock interface {
	Adjust(ctx context.Context, a stock.Adjustment) (*stock.Movement, error)
	List(ctx context.Context, filter stock.Filter) ([]stock.Movement, error)
}

// Specials is the specials service used by the handler.
type Specials interface {
	List(ctx context.Context) ([]special.Listing, error)
	Create(ctx context.Context, s *special.Special) (*special.Listing, error)
}

// Coupons is the coupon admin service used by the handler.
type Coupons interface {
	List(ctx context.Context) ([]coupon.Listing, error)
	Save(ctx context.Context, c *coupon.Coupon) error
	Deactivate(ctx context.Context, code string) error
}

// Contacts is the address book service used by the handler.
type Contacts interface {
	List(ctx context.Context) ([]contact.Contact, error)
	Create(ctx context.Context, c *contact.Contact) (*contact.Contact, error)
	Delete(ctx context.Context, id string) error
}

// Reports builds sales reports.
type Reports interface {
	Sales(ctx context.Context, from, to time.Time) (*report.Summary, error)
}

// Services groups the domain services exposed over HTTP.
type Services struct {
	Orders          Orders
	Products        Products
	Stock           Stock
	Specials        Specials
	Coupons         Coupons
	CouponValidator coupon.Validator
	Contacts        Contacts
	Reports         Reports
}

// Config holds non-dependency configuration of the Handler.
type Config struct {
	// Currency is reported alongside money amounts, e.g. "ZAR".
	Currency string
	// Location is used for date-only report bounds.
	Location *time.Location
}

// Handler serves the admin API.
type Handler struct {
	Services

	currency string
	loc      *time.Location
	now      func() time.Time
}

// New creates a Handler.
func New(cfg Config, s Services) *Handler {
	if cfg.Currency == "" {
		cfg.Currency = "ZAR"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Handler{
		Services: s,
		currency: cfg.Currency,
		loc:      cfg.Location,
		now:      time.Now,
	}
}

// Register adds the API routes to mux under prefix, e.g. "/api".
func (h *Handler) Register(mux *http.ServeMux, prefix string) {
	route := func(method, path string, fn http.HandlerFunc) {
		mux.HandleFunc(method+" "+prefix+path, fn)
	}

	route(http.MethodGet, "/orders", h.listOrders)
	route(http.MethodGet, "/orders/{id}", h.getOrder)
	route(http.MethodPut, "/orders/{id}/status", h.setOrderStatus)
	route(http.MethodPost, "/orders/{id}/advance", h.advanceOrder)
	route(http.MethodPut, "/orders/{id}/archive", h.archiveOrder)

	route(http.MethodGet, "/products", h.listProducts)
	route(http.MethodGet, "/bundles", h.listBundles)
	route(http.MethodGet, "/courses", h.listCourses)
	route(http.MethodGet, "/products/{id}", h.getProduct)
	route(http.MethodPost, "/products", h.saveProduct)
	route(http.MethodDelete, "/products/{id}", h.deleteProduct)
	route(http.MethodPost, "/products/price-updates", h.bulkPriceUpdate)

	route(http.MethodPost, "/stock/adjustments", h.adjustStock)
	route(http.MethodGet, "/stock/movements", h.listStockMovements)

	route(http.MethodGet, "/specials", h.listSpecials)
	route(http.MethodPost, "/specials", h.createSpecial)

	route(http.MethodGet, "/coupons", h.listCoupons)
	route(http.MethodPost, "/coupons", h.saveCoupon)
	route(http.MethodPost, "/coupons/{code}/deactivate", h.deactivateCoupon)
	route(http.MethodPost, "/coupons/{code}/preview", h.previewCoupon)

	route(http.MethodGet, "/contacts", h.listContacts)
	route(http.MethodPost, "/contacts", h.createContact)
	route(http.MethodDelete, "/contacts/{id}", h.deleteContact)

	route(http.MethodGet, "/reports/sales", h.salesReport)
}
