package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/beauty-admin/internal/domain/order"
)

const (
	insertStatusHistorySQL = `INSERT INTO order_status_history (order_id, from_status, to_status, changed_at)
		VALUES ($1, $2, $3, $4)`

	orderExistsSQL = `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`
)

// milestoneColumns maps a status to the column recording when it was
// reached. Column names are constants, never user input.
var milestoneColumns = map[order.Status]string{
	order.StatusPaid:           "paid_at",
	order.StatusPacked:         "order_packed_at",
	order.StatusOutForDelivery: "order_out_for_delivery_at",
	order.StatusDelivered:      "order_delivered_at",
	order.StatusCollected:      "order_collected_at",
	order.StatusCancelled:      "cancelled_at",
}

// statusUpdateSQL moves an order to `to` only while it is still in the
// expected status ($4), so neither writer can move an order backward.
func statusUpdateSQL(to order.Status) string {
	q := `UPDATE orders SET status = $2, updated_at = $3`
	if col, ok := milestoneColumns[to]; ok {
		q += `, ` + col + ` = COALESCE(` + col + `, $3)`
	}
	return q + ` WHERE id = $1 AND status = $4`
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// casMiss tells a stale expected status apart from a missing order after a
// compare-and-set update touched no rows.
func casMiss(ctx context.Context, q rowQuerier, orderID string) error {
	var exists bool
	if err := q.QueryRow(ctx, orderExistsSQL, orderID).Scan(&exists); err != nil {
		return fmt.Errorf("checking order %q: %w", orderID, err)
	}
	if !exists {
		return order.ErrNotFound
	}
	return order.ErrStatusConflict
}

var (
	_ order.StatusWriter = (*TxStatusWriter)(nil)
	_ order.StatusWriter = (*DirectStatusWriter)(nil)
)

// TxStatusWriter moves an order's status with a compare-and-set on the
// expected current status and records the change in order_status_history,
// in one transaction.
type TxStatusWriter struct {
	pool *pgxpool.Pool
}

// NewTxStatusWriter returns a TxStatusWriter that uses the given pool.
func NewTxStatusWriter(pool *pgxpool.Pool) *TxStatusWriter {
	return &TxStatusWriter{pool: pool}
}

// WriteStatus persists t. It returns order.ErrStatusConflict when the order
// is no longer in t.From.
func (w *TxStatusWriter) WriteStatus(ctx context.Context, t order.Transition) error {
	return inTx(ctx, w.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, statusUpdateSQL(t.To), t.OrderID, string(t.To), t.At, string(t.From))
		if err != nil {
			return fmt.Errorf("updating order %q status: %w", t.OrderID, err)
		}
		if tag.RowsAffected() == 0 {
			return casMiss(ctx, tx, t.OrderID)
		}
		if _, err := tx.Exec(ctx, insertStatusHistorySQL, t.OrderID, string(t.From), string(t.To), t.At); err != nil {
			return fmt.Errorf("recording order %q status history: %w", t.OrderID, err)
		}
		return nil
	})
}

// DirectStatusWriter sets an order's status with a single compare-and-set
// update and no history row.
type DirectStatusWriter struct {
	pool *pgxpool.Pool
}

// NewDirectStatusWriter returns a DirectStatusWriter that uses the given pool.
func NewDirectStatusWriter(pool *pgxpool.Pool) *DirectStatusWriter {
	return &DirectStatusWriter{pool: pool}
}

// WriteStatus persists t. Like TxStatusWriter it returns
// order.ErrStatusConflict when the order is no longer in t.From.
func (w *DirectStatusWriter) WriteStatus(ctx context.Context, t order.Transition) error {
	tag, err := w.pool.Exec(ctx, statusUpdateSQL(t.To), t.OrderID, string(t.To), t.At, string(t.From))
	if err != nil {
		return fmt.Errorf("updating order %q status directly: %w", t.OrderID, err)
	}
	if tag.RowsAffected() == 0 {
		return casMiss(ctx, w.pool, t.OrderID)
	}
	return nil
}
