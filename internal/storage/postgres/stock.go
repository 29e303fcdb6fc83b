package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/beauty-admin/internal/domain/stock"
)

const (
	lockStockSQL = `SELECT stock_qty, jsonb_array_length(variants),
		COALESCE((variants -> $2::int ->> 'stock_qty')::int, 0)
		FROM products WHERE id = $1 FOR UPDATE`

	setProductStockSQL = `UPDATE products SET stock_qty = $2, updated_at = now() WHERE id = $1`

	setVariantStockSQL = `UPDATE products
		SET variants = jsonb_set(variants, ARRAY[$2::text, 'stock_qty'], to_jsonb($3::int)), updated_at = now()
		WHERE id = $1`

	setCostPriceSQL = `UPDATE products SET cost_price_cents = $2 WHERE id = $1`

	insertMovementSQL = `INSERT INTO stock_movements
		(id, product_id, variant_index, delta, reason, order_id, stock_after, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)`

	listMovementsSQL = `SELECT id, product_id, variant_index, delta, reason, COALESCE(order_id, ''), stock_after, created_at
		FROM stock_movements
		WHERE ($1 = '' OR product_id = $1)
		ORDER BY created_at DESC, id
		LIMIT $2`
)

var _ stock.Repository = (*StockRepository)(nil)

// StockRepository implements stock.Repository backed by PostgreSQL.
type StockRepository struct {
	pool *pgxpool.Pool
}

// NewStockRepository returns a StockRepository that uses the given pool.
func NewStockRepository(pool *pgxpool.Pool) *StockRepository {
	return &StockRepository{pool: pool}
}

// Apply locks the product row, computes the new level and writes it with the
// movement in one transaction.
func (r *StockRepository) Apply(ctx context.Context, m *stock.Movement, opts stock.ApplyOptions) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		variant := -1
		if m.VariantIndex != nil {
			variant = *m.VariantIndex
		}

		var productQty, variants, variantQty int
		if err := tx.QueryRow(ctx, lockStockSQL, m.ProductID, variant).Scan(&productQty, &variants, &variantQty); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return stock.ErrProductNotFound
			}
			return fmt.Errorf("locking stock of %q: %w", m.ProductID, err)
		}

		current := productQty
		if m.VariantIndex != nil {
			if variant >= variants {
				return errors.Wrapf(stock.ErrVariantNotFound, "product %s has %d variants", m.ProductID, variants)
			}
			current = variantQty
		}

		next, err := stock.NewLevel(current, m.Delta, opts.AllowNegative)
		if err != nil {
			return err
		}

		if m.VariantIndex != nil {
			_, err = tx.Exec(ctx, setVariantStockSQL, m.ProductID, variant, next)
		} else {
			_, err = tx.Exec(ctx, setProductStockSQL, m.ProductID, next)
		}
		if err != nil {
			return fmt.Errorf("updating stock of %q: %w", m.ProductID, err)
		}

		if opts.UnitCost != nil {
			if _, err := tx.Exec(ctx, setCostPriceSQL, m.ProductID, int64(*opts.UnitCost)); err != nil {
				return fmt.Errorf("updating cost price of %q: %w", m.ProductID, err)
			}
		}

		if _, err := tx.Exec(ctx, insertMovementSQL,
			m.ID, m.ProductID, m.VariantIndex, m.Delta, string(m.Reason), m.OrderID, next, m.CreatedAt,
		); err != nil {
			return fmt.Errorf("inserting stock movement: %w", err)
		}
		m.StockAfter = next
		return nil
	})
}

// List returns movements newest first.
func (r *StockRepository) List(ctx context.Context, f stock.Filter) ([]stock.Movement, error) {
	rows, err := r.pool.Query(ctx, listMovementsSQL, f.ProductID, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("listing stock movements: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (stock.Movement, error) {
		var (
			m      stock.Movement
			reason string
		)
		err := row.Scan(&m.ID, &m.ProductID, &m.VariantIndex, &m.Delta, &reason, &m.OrderID, &m.StockAfter, &m.CreatedAt)
		m.Reason = stock.Reason(reason)
		return m, err
	})
}
