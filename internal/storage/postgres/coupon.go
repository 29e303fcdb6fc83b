package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/beauty-admin/internal/domain/coupon"
	"github.com/xenking/beauty-admin/internal/domain/money"
)

const couponColumns = `code, type, value, min_order_cents, max_discount_cents, max_uses, used_count,
	excluded_product_ids, valid_from, valid_until, is_active, description, created_at, updated_at`

const (
	listCouponsSQL = `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC, code`

	getCouponByCodeSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE code = UPPER($1)`

	upsertCouponSQL = `INSERT INTO coupons (code, type, value, min_order_cents, max_discount_cents,
		max_uses, used_count, excluded_product_ids, valid_from, valid_until, is_active, description)
		VALUES (UPPER($1), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (code) DO UPDATE SET
			type = EXCLUDED.type,
			value = EXCLUDED.value,
			min_order_cents = EXCLUDED.min_order_cents,
			max_discount_cents = EXCLUDED.max_discount_cents,
			max_uses = EXCLUDED.max_uses,
			excluded_product_ids = EXCLUDED.excluded_product_ids,
			valid_from = EXCLUDED.valid_from,
			valid_until = EXCLUDED.valid_until,
			is_active = EXCLUDED.is_active,
			description = EXCLUDED.description,
			updated_at = now()
		RETURNING used_count, created_at, updated_at`

	insertCouponSQL = `INSERT INTO coupons (code, type, value, min_order_cents, max_discount_cents,
		max_uses, used_count, excluded_product_ids, valid_from, valid_until, is_active, description)
		VALUES (UPPER($1), $2, $3, $4, $5, $6, 0, $7, $8, $9, $10, $11)
		ON CONFLICT (code) DO NOTHING`

	deactivateCouponSQL = `UPDATE coupons SET is_active = FALSE, updated_at = now() WHERE code = UPPER($1)`

	// The usage guard keeps used_count from passing max_uses under
	// concurrent redemptions.
	incrementCouponUsesSQL = `UPDATE coupons SET used_count = used_count + 1, updated_at = now()
		WHERE code = UPPER($1) AND (max_uses = 0 OR used_count < max_uses)`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// List returns every coupon, active or not.
func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// FindByCode looks up a coupon by its code (case-insensitive).
// Returns coupon.ErrInvalidCoupon when no coupon has that code.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrInvalidCoupon
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

// Save upserts c by code. UsedCount is only written for a new coupon; an
// existing coupon keeps its stored count, which is copied back onto c.
func (r *CouponRepository) Save(ctx context.Context, c *coupon.Coupon) error {
	err := r.pool.QueryRow(ctx, upsertCouponSQL,
		c.Code, string(c.Type), c.Value, int64(c.MinOrder), int64(c.MaxDiscount),
		c.MaxUses, c.UsedCount, nonNil(c.ExcludedProductIDs), c.ValidFrom, c.ValidUntil,
		c.IsActive, c.Description,
	).Scan(&c.UsedCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving coupon %q: %w", c.Code, err)
	}
	return nil
}

// InsertNew inserts coupons in one transaction, skipping codes that already
// exist. It returns the number of coupons inserted.
func (r *CouponRepository) InsertNew(ctx context.Context, coupons []coupon.Coupon) (int64, error) {
	var inserted int64
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i := range coupons {
			c := &coupons[i]
			batch.Queue(insertCouponSQL,
				c.Code, string(c.Type), c.Value, int64(c.MinOrder), int64(c.MaxDiscount),
				c.MaxUses, nonNil(c.ExcludedProductIDs), c.ValidFrom, c.ValidUntil,
				c.IsActive, c.Description,
			)
		}
		br := tx.SendBatch(ctx, batch)
		for range coupons {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return fmt.Errorf("inserting coupon: %w", err)
			}
			inserted += tag.RowsAffected()
		}
		return br.Close()
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// Deactivate switches a coupon off.
func (r *CouponRepository) Deactivate(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, deactivateCouponSQL, code)
	if err != nil {
		return fmt.Errorf("deactivating coupon %q: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrInvalidCoupon
	}
	return nil
}

// IncrementUses atomically increments the usage counter for the given coupon
// code. Returns coupon.ErrCouponUsageLimitReached when the coupon is used up.
func (r *CouponRepository) IncrementUses(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, incrementCouponUsesSQL, code)
	if err != nil {
		return fmt.Errorf("incrementing uses for coupon %q: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrCouponUsageLimitReached
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c                     coupon.Coupon
		typ                   string
		minOrder, maxDiscount int64
	)
	err := row.Scan(
		&c.Code, &typ, &c.Value, &minOrder, &maxDiscount, &c.MaxUses, &c.UsedCount,
		&c.ExcludedProductIDs, &c.ValidFrom, &c.ValidUntil, &c.IsActive, &c.Description,
		&c.CreatedAt, &c.UpdatedAt,
	)
	c.Type = coupon.Type(typ)
	c.MinOrder = money.Cents(minOrder)
	c.MaxDiscount = money.Cents(maxDiscount)
	return c, err
}
