package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/beauty-admin/internal/domain/order"
)

const orderColumns = `id, order_number, fulfillment_type, status,
	subtotal_cents, shipping_cents, discount_cents, total_cents,
	subtotal, shipping, discount, total,
	paid_at, order_packed_at, order_out_for_delivery_at, order_delivered_at, order_collected_at, cancelled_at,
	buyer_name, buyer_email, buyer_phone, address, items, archived, created_at, updated_at`

const (
	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	setOrderArchivedSQL = `UPDATE orders SET archived = $2, updated_at = now() WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// List returns orders matching f, newest first.
func (r *OrderRepository) List(ctx context.Context, f order.Filter) ([]order.Order, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(string(f.Status)))
	}
	if !f.IncludeArchived {
		where = append(where, "NOT archived")
	}
	if f.From != nil {
		where = append(where, "created_at >= "+arg(*f.From))
	}
	if f.To != nil {
		where = append(where, "created_at < "+arg(*f.To))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// Get returns a single order by its identifier.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// SetArchived sets the archive flag of an order.
func (r *OrderRepository) SetArchived(ctx context.Context, id string, archived bool) error {
	tag, err := r.pool.Exec(ctx, setOrderArchivedSQL, id, archived)
	if err != nil {
		return fmt.Errorf("archiving order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// scanOrder reads an order row and normalizes the legacy amount columns and
// the JSON documents into the domain shape.
func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o                                   order.Order
		fulfillment, status                 string
		subtotalCents, shippingCents        *int64
		discountCents, totalCents           *int64
		subtotal, shipping, discount, total *decimal.Decimal
		address, items                      []byte
	)
	if err := row.Scan(
		&o.ID, &o.Number, &fulfillment, &status,
		&subtotalCents, &shippingCents, &discountCents, &totalCents,
		&subtotal, &shipping, &discount, &total,
		&o.Milestones.PaidAt, &o.Milestones.PackedAt, &o.Milestones.OutForDeliveryAt,
		&o.Milestones.DeliveredAt, &o.Milestones.CollectedAt, &o.Milestones.CancelledAt,
		&o.Buyer.Name, &o.Buyer.Email, &o.Buyer.Phone, &address, &items,
		&o.Archived, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return o, err
	}

	o.FulfillmentType = order.FulfillmentType(fulfillment)
	o.Status = order.Status(status)
	o.Subtotal = order.NormalizeAmount(subtotalCents, subtotal)
	o.Shipping = order.NormalizeAmount(shippingCents, shipping)
	o.Discount = order.NormalizeAmount(discountCents, discount)
	o.Total = order.NormalizeAmount(totalCents, total)

	if len(address) > 0 {
		if err := o.Address.Decode(jx.DecodeBytes(address)); err != nil {
			return o, fmt.Errorf("order %q address: %w", o.ID, err)
		}
	}
	lines, err := order.DecodeLineItems(items)
	if err != nil {
		return o, fmt.Errorf("order %q items: %w", o.ID, err)
	}
	o.Items = lines
	return o, nil
}
