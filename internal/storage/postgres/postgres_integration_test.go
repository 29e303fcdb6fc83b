//go:build integration

package postgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/beauty-admin/internal/domain/coupon"
	"github.com/xenking/beauty-admin/internal/domain/order"
	"github.com/xenking/beauty-admin/internal/domain/product"
	"github.com/xenking/beauty-admin/internal/domain/stock"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "admin",
				"POSTGRES_PASSWORD": "admin",
				"POSTGRES_DB":       "admin",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() { _ = pg.Terminate(context.Background()) }()

	host, err := pg.Host(ctx)
	if err != nil {
		log.Fatalf("host: %v", err)
	}
	port, err := pg.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("mapped port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://admin:admin@%s:%s/admin?sslmode=disable", host, port.Port())
	testPool, err = NewPool(ctx, dsn)
	if err != nil {
		log.Fatalf("pool: %v", err)
	}
	defer testPool.Close()

	if err := RunMigrations(ctx, testPool); err != nil {
		log.Fatalf("migrations: %v", err)
	}
	// Running twice must be harmless.
	if err := RunMigrations(ctx, testPool); err != nil {
		log.Fatalf("migrations again: %v", err)
	}

	return m.Run()
}

func insertProduct(t *testing.T, stockQty int, variants string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := testPool.Exec(context.Background(),
		`INSERT INTO products (id, name, slug, price_cents, stock_qty, variants, images, status)
		VALUES ($1, 'Test', $1, 1000, $2, $3, '{a.jpg}', 'active')`,
		id, stockQty, []byte(variants))
	require.NoError(t, err)
	return id
}

func countMovements(t *testing.T, productID string) int {
	t.Helper()
	var n int
	require.NoError(t, testPool.QueryRow(context.Background(),
		`SELECT count(*) FROM stock_movements WHERE product_id = $1`, productID).Scan(&n))
	return n
}

func TestStockRepository_Apply(t *testing.T) {
	ctx := context.Background()
	repo := NewStockRepository(testPool)
	products := NewProductRepository(testPool)

	t.Run("negative rejected atomically", func(t *testing.T) {
		id := insertProduct(t, 3, `[]`)
		m := &stock.Movement{ID: uuid.NewString(), ProductID: id, Delta: -5, Reason: stock.ReasonCorrection, CreatedAt: time.Now()}

		err := repo.Apply(ctx, m, stock.ApplyOptions{})
		require.ErrorIs(t, err, stock.ErrInsufficientStock)

		p, err := products.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 3, p.StockQty)
		assert.Zero(t, countMovements(t, id))
	})

	t.Run("negative allowed", func(t *testing.T) {
		id := insertProduct(t, 3, `[]`)
		m := &stock.Movement{ID: uuid.NewString(), ProductID: id, Delta: -5, Reason: stock.ReasonCorrection, CreatedAt: time.Now()}

		require.NoError(t, repo.Apply(ctx, m, stock.ApplyOptions{AllowNegative: true}))
		assert.Equal(t, -2, m.StockAfter)

		p, err := products.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, -2, p.StockQty)
		assert.Equal(t, 1, countMovements(t, id))
	})

	t.Run("variant stock", func(t *testing.T) {
		id := insertProduct(t, 0, `[{"name":"50ml","sku":"A","stock_qty":4},{"name":"100ml","sku":"B","stock_qty":1}]`)
		idx := 1
		m := &stock.Movement{ID: uuid.NewString(), ProductID: id, VariantIndex: &idx, Delta: 6, Reason: stock.ReasonRestock, CreatedAt: time.Now()}

		require.NoError(t, repo.Apply(ctx, m, stock.ApplyOptions{}))
		assert.Equal(t, 7, m.StockAfter)

		p, err := products.GetByID(ctx, id)
		require.NoError(t, err)
		require.Len(t, p.Variants, 2)
		assert.Equal(t, 4, p.Variants[0].StockQty)
		assert.Equal(t, 7, p.Variants[1].StockQty)

		movements, err := repo.List(ctx, stock.Filter{ProductID: id, Limit: 10})
		require.NoError(t, err)
		require.Len(t, movements, 1)
		require.NotNil(t, movements[0].VariantIndex)
		assert.Equal(t, 1, *movements[0].VariantIndex)

		missing := 5
		err = repo.Apply(ctx, &stock.Movement{ID: uuid.NewString(), ProductID: id, VariantIndex: &missing, Delta: 1, Reason: stock.ReasonReturn, CreatedAt: time.Now()}, stock.ApplyOptions{})
		require.ErrorIs(t, err, stock.ErrVariantNotFound)
	})

	t.Run("unknown product", func(t *testing.T) {
		err := repo.Apply(ctx, &stock.Movement{ID: uuid.NewString(), ProductID: "nope", Delta: 1, Reason: stock.ReasonReturn, CreatedAt: time.Now()}, stock.ApplyOptions{})
		require.ErrorIs(t, err, stock.ErrProductNotFound)
	})
}

func insertOrder(t *testing.T, status order.Status, items string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := testPool.Exec(context.Background(),
		`INSERT INTO orders (id, fulfillment_type, status, total, address, items)
		VALUES ($1, 'collection', $2, 149.95, '"12 Long St"', $3)`,
		id, string(status), []byte(items))
	require.NoError(t, err)
	return id
}

func TestOrderRepository_ReadNormalizes(t *testing.T) {
	ctx := context.Background()
	id := insertOrder(t, order.StatusPaid, `[{"id":"p1","qty":2,"price":"10.00"}]`)

	o, err := NewOrderRepository(testPool).Get(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 14995, o.Total)
	assert.Equal(t, "12 Long St", o.Address.Render())
	require.Len(t, o.Items, 1)
	assert.EqualValues(t, 1000, o.Items[0].UnitPrice)
	assert.EqualValues(t, 2000, o.Items[0].Total)

	_, err = NewOrderRepository(testPool).Get(ctx, "missing")
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestStatusWriters(t *testing.T) {
	ctx := context.Background()
	orders := NewOrderRepository(testPool)
	id := insertOrder(t, order.StatusPaid, `[]`)
	now := time.Now().UTC().Truncate(time.Microsecond)

	primary := NewTxStatusWriter(testPool)
	require.NoError(t, primary.WriteStatus(ctx, order.Transition{OrderID: id, From: order.StatusPaid, To: order.StatusPacked, At: now}))

	o, err := orders.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPacked, o.Status)
	require.NotNil(t, o.Milestones.PackedAt)
	assert.True(t, now.Equal(*o.Milestones.PackedAt))

	var history int
	require.NoError(t, testPool.QueryRow(ctx, `SELECT count(*) FROM order_status_history WHERE order_id = $1`, id).Scan(&history))
	assert.Equal(t, 1, history)

	err = primary.WriteStatus(ctx, order.Transition{OrderID: id, From: order.StatusPaid, To: order.StatusPacked, At: now})
	require.ErrorIs(t, err, order.ErrStatusConflict)

	err = primary.WriteStatus(ctx, order.Transition{OrderID: "missing", From: order.StatusPaid, To: order.StatusPacked, At: now})
	require.ErrorIs(t, err, order.ErrNotFound)

	direct := NewDirectStatusWriter(testPool)
	require.NoError(t, direct.WriteStatus(ctx, order.Transition{OrderID: id, From: order.StatusPacked, To: order.StatusCollected, At: now}))
	o, err = orders.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCollected, o.Status)

	// A stale expected status must not move the order backward.
	err = direct.WriteStatus(ctx, order.Transition{OrderID: id, From: order.StatusPaid, To: order.StatusPacked, At: now})
	require.ErrorIs(t, err, order.ErrStatusConflict)
	o, err = orders.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCollected, o.Status)

	err = direct.WriteStatus(ctx, order.Transition{OrderID: "missing", From: order.StatusPaid, To: order.StatusPacked, At: now})
	require.ErrorIs(t, err, order.ErrNotFound)

	require.NoError(t, testPool.QueryRow(ctx, `SELECT count(*) FROM order_status_history WHERE order_id = $1`, id).Scan(&history))
	assert.Equal(t, 1, history, "direct writes record no history")

	require.NoError(t, orders.SetArchived(ctx, id, true))
	listed, err := orders.List(ctx, order.Filter{})
	require.NoError(t, err)
	for _, l := range listed {
		assert.NotEqual(t, id, l.ID, "archived orders are hidden by default")
	}

	insertOrder(t, order.StatusPaid, `[]`)
	limited, err := orders.List(ctx, order.Filter{IncludeArchived: true, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestProductRepository_DeleteArchivesReferenced(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(testPool)

	referenced := insertProduct(t, 1, `[]`)
	insertOrder(t, order.StatusPaid, fmt.Sprintf(`[{"product_id":%q,"quantity":1,"price_cents":1000}]`, referenced))
	free := insertProduct(t, 1, `[]`)

	action, err := repo.Delete(ctx, referenced)
	require.NoError(t, err)
	assert.Equal(t, product.ActionArchived, action)
	p, err := repo.GetByID(ctx, referenced)
	require.NoError(t, err)
	assert.Equal(t, product.StatusArchived, p.Status)

	action, err = repo.Delete(ctx, free)
	require.NoError(t, err)
	assert.Equal(t, product.ActionDeleted, action)
	_, err = repo.GetByID(ctx, free)
	require.ErrorIs(t, err, product.ErrNotFound)

	_, err = repo.Delete(ctx, free)
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestProductRepository_SaveKeepsStock(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(testPool)

	id := insertProduct(t, 40, `[{"name":"50ml","sku":"A","stock_qty":12}]`)
	p, err := repo.GetByID(ctx, id)
	require.NoError(t, err)

	p.Price = 2500
	p.StockQty = 0
	p.Variants[0].StockQty = 0
	p.Variants = append(p.Variants, product.Variant{Name: "100ml", SKU: "B", StockQty: 9})
	require.NoError(t, repo.Save(ctx, p))

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 2500, got.Price)
	assert.Equal(t, 40, got.StockQty)
	require.Len(t, got.Variants, 2)
	assert.Equal(t, 12, got.Variants[0].StockQty)
	assert.Equal(t, 0, got.Variants[1].StockQty)

	fresh := &product.Product{
		ID: uuid.NewString(), Kind: product.KindProduct, Name: "Fresh", Slug: uuid.NewString(),
		Price: 1000, StockQty: 7, Images: []string{"a.jpg"}, Status: product.StatusDraft,
	}
	require.NoError(t, repo.Save(ctx, fresh))
	got, err = repo.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.StockQty)
}

func TestCouponRepository_SaveKeepsUsedCount(t *testing.T) {
	ctx := context.Background()
	repo := NewCouponRepository(testPool)

	c := &coupon.Coupon{Code: "KEEPUSES", Type: coupon.TypeFixed, Value: decimal.NewFromInt(500), MaxUses: 2, IsActive: true}
	require.NoError(t, repo.Save(ctx, c))
	require.NoError(t, repo.IncrementUses(ctx, "KEEPUSES"))
	require.NoError(t, repo.IncrementUses(ctx, "KEEPUSES"))

	edit := &coupon.Coupon{Code: "KEEPUSES", Type: coupon.TypeFixed, Value: decimal.NewFromInt(500), MaxUses: 2, IsActive: true, Description: "edited"}
	require.NoError(t, repo.Save(ctx, edit))
	assert.Equal(t, 2, edit.UsedCount)

	got, err := repo.FindByCode(ctx, "KEEPUSES")
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Description)
	assert.Equal(t, 2, got.UsedCount)
	assert.ErrorIs(t, got.Applicable(time.Now()), coupon.ErrCouponUsageLimitReached)
}

func TestCouponRepository_UsageGuard(t *testing.T) {
	ctx := context.Background()
	repo := NewCouponRepository(testPool)

	c := &coupon.Coupon{Code: "ONCE", Type: coupon.TypeFixed, Value: decimal.NewFromInt(500), MaxUses: 1, IsActive: true}
	require.NoError(t, repo.Save(ctx, c))

	require.NoError(t, repo.IncrementUses(ctx, "once"))
	err := repo.IncrementUses(ctx, "ONCE")
	require.True(t, errors.Is(err, coupon.ErrCouponUsageLimitReached))

	got, err := repo.FindByCode(ctx, "once")
	require.NoError(t, err)
	assert.Equal(t, 1, got.UsedCount)
	assert.True(t, decimal.NewFromInt(500).Equal(got.Value))

	require.NoError(t, repo.Deactivate(ctx, "once"))
	got, err = repo.FindByCode(ctx, "ONCE")
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestCouponRepository_InsertNewSkipsExisting(t *testing.T) {
	ctx := context.Background()
	repo := NewCouponRepository(testPool)

	existing := &coupon.Coupon{Code: "BULK0001", Type: coupon.TypeFixed, Value: decimal.NewFromInt(1000), IsActive: true, Description: "kept"}
	require.NoError(t, repo.Save(ctx, existing))

	tmpl := coupon.Coupon{Type: coupon.TypePercentage, Value: decimal.NewFromInt(10), MaxUses: 1, IsActive: true}
	batch := make([]coupon.Coupon, 0, 3)
	for _, code := range []string{"BULK0001", "BULK0002", "BULK0003"} {
		c := tmpl
		c.Code = code
		batch = append(batch, c)
	}

	n, err := repo.InsertNew(ctx, batch)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := repo.FindByCode(ctx, "BULK0001")
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Description)
	assert.Equal(t, coupon.TypeFixed, got.Type)

	got, err = repo.FindByCode(ctx, "BULK0003")
	require.NoError(t, err)
	assert.Equal(t, 1, got.MaxUses)
	assert.Zero(t, got.UsedCount)
}
