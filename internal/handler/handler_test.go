package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/beauty-admin/internal/domain/contact"
	"github.com/xenking/beauty-admin/internal/domain/coupon"
	"github.com/xenking/beauty-admin/internal/domain/money"
	"github.com/xenking/beauty-admin/internal/domain/order"
	"github.com/xenking/beauty-admin/internal/domain/pricing"
	"github.com/xenking/beauty-admin/internal/domain/product"
	"github.com/xenking/beauty-admin/internal/domain/report"
	"github.com/xenking/beauty-admin/internal/domain/special"
	"github.com/xenking/beauty-admin/internal/domain/stock"
	"github.com/xenking/beauty-admin/internal/domain/validation"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeOrders struct {
	orders   map[string]*order.Order
	filter   order.Filter
	path     order.UpdatePath
	setErr   error
	archived *bool
}

func (f *fakeOrders) List(_ context.Context, filter order.Filter) ([]order.Order, error) {
	f.filter = filter
	var out []order.Order
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrders) Get(_ context.Context, id string) (*order.Details, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return order.Describe(o), nil
}

func (f *fakeOrders) Advance(ctx context.Context, id string) (*order.StatusResult, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	step, ok := order.NextStep(o.FulfillmentType, o.Status)
	if !ok {
		return nil, errors.Wrap(order.ErrIllegalTransition, "no step")
	}
	return f.SetStatus(ctx, id, step.Next)
}

func (f *fakeOrders) SetStatus(_ context.Context, id string, to order.Status) (*order.StatusResult, error) {
	if f.setErr != nil {
		return nil, f.setErr
	}
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	if !order.CanTransition(o.FulfillmentType, o.Status, to) {
		return nil, errors.Wrapf(order.ErrIllegalTransition, "%s to %s", o.Status, to)
	}
	o.Status = to
	return &order.StatusResult{Order: o, Path: f.path}, nil
}

func (f *fakeOrders) SetArchived(_ context.Context, id string, archived bool) (*order.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	f.archived = &archived
	o.Archived = archived
	return o, nil
}

type fakeProducts struct {
	kind    product.Kind
	bulk    product.BulkUpdate
	deleted product.DeleteAction
}

func (f *fakeProducts) List(_ context.Context, kind product.Kind) ([]product.Listing, error) {
	f.kind = kind
	return []product.Listing{{
		Product:   product.Product{ID: "p1", Kind: product.KindBundle, Name: "Glow Set", Price: 50000, Images: []string{"a.jpg"}},
		SalePrice: 40000,
		SpecialID: "s1",
	}}, nil
}

func (f *fakeProducts) Get(_ context.Context, id string) (*product.Listing, error) {
	return nil, product.ErrNotFound
}

func (f *fakeProducts) Save(_ context.Context, p *product.Product) (*product.Product, error) {
	if p.Price <= 0 {
		return nil, validation.Errorf("price_cents", "must be positive")
	}
	p.ID = "new"
	return p, nil
}

func (f *fakeProducts) Delete(context.Context, string) (product.DeleteAction, error) {
	return f.deleted, nil
}

func (f *fakeProducts) BulkPriceUpdate(_ context.Context, u product.BulkUpdate) ([]product.PriceChange, error) {
	f.bulk = u
	var out []product.PriceChange
	for _, id := range u.ProductIDs {
		next, err := pricing.AdjustPrice(10000, u.Adjustment, u.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, product.PriceChange{ProductID: id, OldPrice: 10000, NewPrice: next})
	}
	return out, nil
}

type fakeStock struct {
	level int
	got   stock.Adjustment
}

func (f *fakeStock) Adjust(_ context.Context, a stock.Adjustment) (*stock.Movement, error) {
	f.got = a
	if err := stock.Validate(a); err != nil {
		return nil, err
	}
	next, err := stock.NewLevel(f.level, a.Delta, false)
	if err != nil {
		return nil, err
	}
	f.level = next
	return &stock.Movement{ID: "m1", ProductID: a.ProductID, Delta: a.Delta, Reason: a.Reason, StockAfter: next, CreatedAt: testNow}, nil
}

func (f *fakeStock) List(context.Context, stock.Filter) ([]stock.Movement, error) {
	return nil, errors.New("connection reset")
}

type fakeSpecials struct{}

func (fakeSpecials) List(context.Context) ([]special.Listing, error) { return nil, nil }

func (fakeSpecials) Create(_ context.Context, s *special.Special) (*special.Listing, error) {
	if err := special.Validate(s); err != nil {
		return nil, err
	}
	s.ID = "sp1"
	return &special.Listing{Special: *s, Status: special.StatusScheduled}, nil
}

type fakeCoupons struct {
	saved *coupon.Coupon
}

func (f *fakeCoupons) List(context.Context) ([]coupon.Listing, error) {
	return []coupon.Listing{
		{Coupon: coupon.Coupon{Code: "GLOW10", Type: coupon.TypePercentage, Value: decimal.NewFromInt(10), IsActive: true}},
		{Coupon: coupon.Coupon{Code: "OLD", Type: coupon.TypeFixed, Value: decimal.NewFromInt(500)}, Unavailable: coupon.ErrCouponInactive},
	}, nil
}

func (f *fakeCoupons) Save(_ context.Context, c *coupon.Coupon) error {
	if err := coupon.Validate(c); err != nil {
		return err
	}
	f.saved = c
	return nil
}

func (f *fakeCoupons) Deactivate(_ context.Context, code string) error {
	if code != "GLOW10" {
		return coupon.ErrInvalidCoupon
	}
	return nil
}

type fakeValidator struct {
	coupon coupon.Coupon
}

func (f *fakeValidator) Validate(_ context.Context, code string, items []coupon.Item) (*coupon.Discount, error) {
	if code != f.coupon.Code {
		return nil, coupon.ErrInvalidCoupon
	}
	d, err := coupon.Apply(&f.coupon, items)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

type fakeContacts struct{}

func (fakeContacts) List(context.Context) ([]contact.Contact, error) { return nil, nil }

func (fakeContacts) Create(_ context.Context, c *contact.Contact) (*contact.Contact, error) {
	if err := contact.Validate(c); err != nil {
		return nil, err
	}
	c.ID = "c1"
	return c, nil
}

func (fakeContacts) Delete(_ context.Context, id string) error {
	return contact.ErrNotFound
}

type fakeReports struct {
	from, to time.Time
}

func (f *fakeReports) Sales(_ context.Context, from, to time.Time) (*report.Summary, error) {
	f.from, f.to = from, to
	return &report.Summary{
		From:                 from,
		To:                   to,
		Orders:               2,
		PaidOrders:           1,
		OrdersByStatus:       map[order.Status]int{order.StatusPaid: 1, order.StatusCancelled: 1},
		Revenue:              12500,
		AverageOrderValue:    12500,
		RevenueByFulfillment: map[order.FulfillmentType]money.Cents{order.FulfillmentDelivery: 12500},
	}, nil
}

type testEnv struct {
	orders   *fakeOrders
	products *fakeProducts
	stock    *fakeStock
	coupons  *fakeCoupons
	reports  *fakeReports
	server   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		orders: &fakeOrders{orders: map[string]*order.Order{
			"o1": {
				ID:              "o1",
				Number:          "BA-1001",
				FulfillmentType: order.FulfillmentCollection,
				Status:          order.StatusPaid,
				Total:           25000,
				Address:         order.NewFreeformAddress("12 Long St, Cape Town"),
				Items:           []order.LineItem{{ProductID: "p1", Name: "Serum", Quantity: 2, UnitPrice: 12500, Total: 25000}},
				CreatedAt:       testNow,
				UpdatedAt:       testNow,
			},
		}},
		products: &fakeProducts{deleted: product.ActionArchived},
		stock:    &fakeStock{level: 3},
		coupons:  &fakeCoupons{},
		reports:  &fakeReports{},
	}
	h := New(Config{Currency: "ZAR"}, Services{
		Orders:   env.orders,
		Products: env.products,
		Stock:    env.stock,
		Specials: fakeSpecials{},
		Coupons:  env.coupons,
		CouponValidator: &fakeValidator{coupon: coupon.Coupon{
			Code:               "GLOW10",
			Type:               coupon.TypePercentage,
			Value:              decimal.NewFromInt(10),
			MinOrder:           5000,
			ExcludedProductIDs: []string{"gift-card"},
			IsActive:           true,
		}},
		Contacts: fakeContacts{},
		Reports:  env.reports,
	})
	h.now = func() time.Time { return testNow }

	mux := http.NewServeMux()
	h.Register(mux, "/api")
	env.server = mux
	return env
}

func (env *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	env.server.ServeHTTP(w, req)
	return w
}

// field returns the raw JSON value at a dotted path of object keys.
func field(t *testing.T, body []byte, path string) string {
	t.Helper()
	raw := body
	for _, key := range strings.Split(path, ".") {
		var next []byte
		err := jx.DecodeBytes(raw).ObjBytes(func(d *jx.Decoder, k []byte) error {
			if string(k) != key {
				return d.Skip()
			}
			v, err := d.Raw()
			next = append([]byte(nil), v...)
			return err
		})
		require.NoError(t, err, "path %s", path)
		require.NotNil(t, next, "missing %s in %s", key, raw)
		raw = next
	}
	return string(raw)
}

func TestErrorResponses(t *testing.T) {
	env := newTestEnv(t)
	for _, tt := range []struct {
		name    string
		method  string
		path    string
		body    string
		status  int
		message string
	}{
		{"MalformedJSON", http.MethodPut, "/api/orders/o1/status", `{"status":`, http.StatusBadRequest, ""},
		{"EmptyBody", http.MethodPut, "/api/orders/o1/status", "", http.StatusBadRequest, ""},
		{"MissingStatus", http.MethodPut, "/api/orders/o1/status", `{}`, http.StatusUnprocessableEntity, `"status: required"`},
		{"OrderNotFound", http.MethodGet, "/api/orders/missing", "", http.StatusNotFound, `"order not found"`},
		{"IllegalTransition", http.MethodPut, "/api/orders/o1/status", `{"status":"delivered"}`, http.StatusConflict, ""},
		{"ProductNotFound", http.MethodGet, "/api/products/nope", "", http.StatusNotFound, `"product not found"`},
		{"UnknownOrderStatusFilter", http.MethodGet, "/api/orders?status=lost", "", http.StatusUnprocessableEntity, ""},
		{"BadOrderLimit", http.MethodGet, "/api/orders?limit=-1", "", http.StatusUnprocessableEntity, `"limit: must be a non-negative integer"`},
		{"Internal", http.MethodGet, "/api/stock/movements", "", http.StatusInternalServerError, `"internal error"`},
		{"ContactNotFound", http.MethodDelete, "/api/contacts/c9", "", http.StatusNotFound, ""},
		{"CouponNotFound", http.MethodPost, "/api/coupons/NOPE/deactivate", "", http.StatusNotFound, ""},
	} {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, strconv.Itoa(tt.status), field(t, w.Body.Bytes(), "code"))
			if tt.message != "" {
				assert.Equal(t, tt.message, field(t, w.Body.Bytes(), "message"))
			}
		})
	}
}

func TestOrders(t *testing.T) {
	t.Run("Get", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(http.MethodGet, "/api/orders/o1", "")
		require.Equal(t, http.StatusOK, w.Code)

		body := w.Body.Bytes()
		assert.Equal(t, `"paid"`, field(t, body, "status"))
		assert.Equal(t, `"12 Long St, Cape Town"`, field(t, body, "address_line"))
		assert.Equal(t, `"packed"`, field(t, body, "next_step.status"))
		assert.Equal(t, `"Mark as Packed"`, field(t, body, "next_step.label"))
		assert.Contains(t, field(t, body, "timeline"), `"status":"collected","state":"pending"`)
	})
	t.Run("AdvanceReportsPath", func(t *testing.T) {
		env := newTestEnv(t)
		env.orders.path = order.PathFallback

		w := env.do(http.MethodPost, "/api/orders/o1/advance", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, `"fallback"`, field(t, w.Body.Bytes(), "path"))
		assert.Equal(t, `"packed"`, field(t, w.Body.Bytes(), "order.status"))
		assert.Equal(t, `"collected"`, field(t, w.Body.Bytes(), "order.next_step.status"))
	})
	t.Run("AdvanceToTerminalHasNoNextStep", func(t *testing.T) {
		env := newTestEnv(t)
		env.orders.orders["o1"].Status = order.StatusPacked

		w := env.do(http.MethodPost, "/api/orders/o1/advance", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "null", field(t, w.Body.Bytes(), "order.next_step"))

		w = env.do(http.MethodPost, "/api/orders/o1/advance", "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})
	t.Run("StatusBothWritersFail", func(t *testing.T) {
		env := newTestEnv(t)
		failing := order.StatusWriterFunc(func(context.Context, order.Transition) error {
			return errors.New("dial tcp 10.0.0.5:5432: i/o timeout")
		})
		_, err := order.UpdateStatusWithFallback(context.Background(), failing, failing, order.Transition{OrderID: "o1"})
		require.Error(t, err)
		env.orders.setErr = errors.Wrap(err, "set order status")

		w := env.do(http.MethodPut, "/api/orders/o1/status", `{"status":"cancelled"}`)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, `"primary and fallback status updates failed"`, field(t, w.Body.Bytes(), "message"))
		assert.NotContains(t, w.Body.String(), "10.0.0.5")
	})
	t.Run("Archive", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(http.MethodPut, "/api/orders/o1/archive", `{"archived":true}`)
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, env.orders.archived)
		assert.True(t, *env.orders.archived)
		assert.Equal(t, "true", field(t, w.Body.Bytes(), "archived"))
		assert.Equal(t, `"paid"`, field(t, w.Body.Bytes(), "status"), "archiving never changes status")

		w = env.do(http.MethodPut, "/api/orders/o1/archive", `{"archive":true}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
	t.Run("ListFilter", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(http.MethodGet, "/api/orders?status=paid&include_archived=true&from=2026-03-01&to=2026-03-09&limit=20", "")
		require.Equal(t, http.StatusOK, w.Code)

		f := env.orders.filter
		assert.Equal(t, order.StatusPaid, f.Status)
		assert.Equal(t, 20, f.Limit)
		assert.True(t, f.IncludeArchived)
		require.NotNil(t, f.From)
		require.NotNil(t, f.To)
		assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *f.From)
		assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), *f.To)
	})
}

func TestProducts(t *testing.T) {
	t.Run("Bundles", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(http.MethodGet, "/api/bundles", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, product.KindBundle, env.products.kind)
		assert.Contains(t, w.Body.String(), `"sale_price_cents":40000`)
		assert.Contains(t, w.Body.String(), `"bundle_product_ids":[]`)
	})
	t.Run("KindQuery", func(t *testing.T) {
		env := newTestEnv(t)
		env.do(http.MethodGet, "/api/products?kind=course", "")
		assert.Equal(t, product.KindCourse, env.products.kind)
	})
	t.Run("DeleteReportsAction", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(http.MethodDelete, "/api/products/p1", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, `"archived"`, field(t, w.Body.Bytes(), "action"))
		assert.Equal(t, `"p1"`, field(t, w.Body.Bytes(), "id"))
	})
	t.Run("Save", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(http.MethodPost, "/api/products", `{
			"name": "Rose Toner",
			"price_cents": 18900,
			"images": ["toner.jpg"],
			"variants": [{"name": "200ml", "sku": "RT-200", "stock_qty": 4, "price_cents": null}]
		}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, `"new"`, field(t, w.Body.Bytes(), "id"))
		assert.Contains(t, field(t, w.Body.Bytes(), "variants"), `"sku":"RT-200"`)

		w = env.do(http.MethodPost, "/api/products", `{"name": "Free", "price_cents": 0}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
	t.Run("BulkPriceUpdate", func(t *testing.T) {
		env := newTestEnv(t)
		for _, tt := range []struct {
			body string
			want string
		}{
			{`{"product_ids":["a"],"adjustment":"percent","value":10}`, `"new_price_cents":11000`},
			{`{"product_ids":["a"],"adjustment":"decrease","value":"200"}`, `"new_price_cents":1`},
			{`{"product_ids":["a"],"adjustment":"set","value":12.345,"apply":true}`, `"new_price_cents":1235`},
		} {
			w := env.do(http.MethodPost, "/api/products/price-updates", tt.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), tt.want)
		}
		assert.True(t, env.products.bulk.Apply)

		w := env.do(http.MethodPost, "/api/products/price-updates", `{"product_ids":["a"],"adjustment":"percent"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		w = env.do(http.MethodPost, "/api/products/price-updates", `{"product_ids":["a"],"adjustment":"halve","value":1}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestAdjustStock(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/stock/adjustments",
		`{"product_id":"p1","delta":-2,"reason":"manual_damage","variant_index":null}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "1", field(t, w.Body.Bytes(), "stock_after"))
	assert.Nil(t, env.stock.got.VariantIndex)

	w = env.do(http.MethodPost, "/api/stock/adjustments", `{"product_id":"p1","delta":-5,"reason":"manual_damage"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 1, env.stock.level)

	w = env.do(http.MethodPost, "/api/stock/adjustments", `{"product_id":"p1","delta":0,"reason":"manual_restock"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(http.MethodPost, "/api/stock/adjustments",
		`{"product_id":"p1","delta":5,"reason":"manual_restock","unit_cost_cents":4200,"variant_index":1}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, env.stock.got.UnitCost)
	assert.Equal(t, money.Cents(4200), *env.stock.got.UnitCost)
	require.NotNil(t, env.stock.got.VariantIndex)
	assert.Equal(t, 1, *env.stock.got.VariantIndex)
}

func TestCoupons(t *testing.T) {
	t.Run("ListCarriesApplicability", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(http.MethodGet, "/api/coupons", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"GLOW10"`)
		assert.Contains(t, w.Body.String(), `"applicable":false,"unavailable_reason":"coupon inactive"`)
	})
	t.Run("PreviewSkipsExcludedLines", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(http.MethodPost, "/api/coupons/GLOW10/preview", `{"items":[
			{"product_id":"serum","price_cents":1000,"quantity":2},
			{"product_id":"gift-card","price_cents":5000,"quantity":1}
		]}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "200", field(t, w.Body.Bytes(), "discount_cents"))
		assert.Equal(t, "7000", field(t, w.Body.Bytes(), "subtotal_cents"))
		assert.Equal(t, "6800", field(t, w.Body.Bytes(), "total_cents"))
	})
	t.Run("PreviewBelowMinimum", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(http.MethodPost, "/api/coupons/GLOW10/preview", `{"items":[{"product_id":"serum","price_cents":1000,"quantity":1}]}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
	t.Run("PreviewValidation", func(t *testing.T) {
		env := newTestEnv(t)
		assert.Equal(t, http.StatusUnprocessableEntity, env.do(http.MethodPost, "/api/coupons/GLOW10/preview", `{"items":[]}`).Code)
		assert.Equal(t, http.StatusUnprocessableEntity, env.do(http.MethodPost, "/api/coupons/GLOW10/preview",
			`{"items":[{"product_id":"x","price_cents":100,"quantity":0}]}`).Code)
		assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/api/coupons/NOPE/preview",
			`{"items":[{"product_id":"x","price_cents":100,"quantity":1}]}`).Code)
	})
	t.Run("SaveRejectsMaxDiscountOnFixed", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(http.MethodPost, "/api/coupons", `{"code":"FLAT50","type":"fixed","value":5000,"max_discount_cents":1000}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

		w = env.do(http.MethodPost, "/api/coupons", `{"code":"SPRING","type":"percentage","value":"15","max_discount_cents":2500,"valid_until":"2026-04-01T00:00:00Z"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.NotNil(t, env.coupons.saved)
		assert.Equal(t, money.Cents(2500), env.coupons.saved.MaxDiscount)
		assert.True(t, env.coupons.saved.IsActive)
	})
	t.Run("Deactivate", func(t *testing.T) {
		env := newTestEnv(t)
		assert.Equal(t, http.StatusNoContent, env.do(http.MethodPost, "/api/coupons/GLOW10/deactivate", "").Code)
	})
}

func TestSpecialsAndContacts(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/specials", `{
		"name": "Autumn",
		"scope": "sitewide",
		"discount_type": "percent",
		"discount_value": 15,
		"starts_at": "2026-04-01T00:00:00Z",
		"ends_at": "2026-04-30T00:00:00Z"
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, `"scheduled"`, field(t, w.Body.Bytes(), "status"))
	assert.Equal(t, "15", field(t, w.Body.Bytes(), "discount_value"))

	w = env.do(http.MethodPost, "/api/specials", `{"name":"Bad","scope":"product","discount_type":"percent","discount_value":10,
		"starts_at":"2026-04-30T00:00:00Z","ends_at":"2026-04-01T00:00:00Z"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(http.MethodPost, "/api/contacts", `{"name":"Lerato","email":"lerato@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, `"c1"`, field(t, w.Body.Bytes(), "id"))

	w = env.do(http.MethodPost, "/api/contacts", `{"name":"No Channel"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSalesReport(t *testing.T) {
	t.Run("DateBounds", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(http.MethodGet, "/api/reports/sales?from=2026-03-01&to=2026-03-31", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), env.reports.from)
		assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), env.reports.to)
		body := w.Body.Bytes()
		assert.Equal(t, "12500", field(t, body, "revenue_cents"))
		assert.Equal(t, "1", field(t, body, "orders_by_status.cancelled"))
		assert.Equal(t, "0", field(t, body, "revenue_by_fulfillment_cents.collection"))
	})
	t.Run("DefaultWindow", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(http.MethodGet, "/api/reports/sales", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), env.reports.to)
		assert.Equal(t, time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC), env.reports.from)
	})
	t.Run("BadDate", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(http.MethodGet, "/api/reports/sales?from=yesterday", "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}
