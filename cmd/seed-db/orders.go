package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/beauty-admin/internal/domain/order"
)

// Orders are written with raw SQL so that the seed covers both storage
// shapes: integer cents and the Rand amounts of older checkouts.
const insertOrderSQL = `INSERT INTO orders (id, order_number, fulfillment_type, status,
	subtotal_cents, shipping_cents, discount_cents, total_cents,
	subtotal, shipping, discount, total,
	paid_at, order_packed_at, buyer_name, buyer_email, buyer_phone, address, items, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	ON CONFLICT (id) DO NOTHING`

type seedOrder struct {
	id          string
	number      string
	fulfillment order.FulfillmentType
	status      order.Status
	cents       *[4]int64
	rand        *[4]decimal.Decimal
	paidAt      *time.Time
	packedAt    *time.Time
	buyer       [3]string
	address     []byte
	items       []byte
	createdAt   time.Time
}

func seedOrders(now time.Time) []seedOrder {
	at := func(days int) time.Time { return now.AddDate(0, 0, -days) }
	ptr := func(t time.Time) *time.Time { return &t }

	return []seedOrder{
		{
			id:          "ord-1001",
			number:      "BA-1001",
			fulfillment: order.FulfillmentDelivery,
			status:      order.StatusPaid,
			cents:       &[4]int64{43800, 9900, 0, 53700},
			paidAt:      ptr(at(1)),
			buyer:       [3]string{"Thandi Mokoena", "thandi@example.com", "+27821234567"},
			address:     []byte(`{"street":"12 Long St","area":"Gardens","city":"Cape Town","zone":"Western Cape","country":"ZA"}`),
			items: []byte(`[{"product_id":"prd-rose-serum","name":"Rosehip Glow Serum","quantity":1,"price_cents":34900,"total_cents":34900},` +
				`{"product_id":"prd-lip-balm","name":"Shea Lip Balm","quantity":1,"price_cents":8900,"total_cents":8900}]`),
			createdAt: at(1),
		},
		{
			id:          "ord-1002",
			number:      "BA-1002",
			fulfillment: order.FulfillmentCollection,
			status:      order.StatusPacked,
			rand: &[4]decimal.Decimal{
				decimal.RequireFromString("450.00"),
				decimal.Zero,
				decimal.RequireFromString("67.50"),
				decimal.RequireFromString("382.50"),
			},
			paidAt:   ptr(at(3)),
			packedAt: ptr(at(2)),
			buyer:    [3]string{"Anika Pillay", "anika@example.com", ""},
			items: []byte(`[{"id":"prd-clay-mask","product_name":"Kaolin Clay Mask","qty":2,"unit_price":225.00,` +
				`"variant_index":0,"line_total":"450.00"}]`),
			createdAt: at(3),
		},
		{
			id:          "ord-1003",
			number:      "BA-1003",
			fulfillment: order.FulfillmentDelivery,
			status:      order.StatusUnpaid,
			cents:       &[4]int64{59900, 9900, 0, 69800},
			buyer:       [3]string{"Lerato Dlamini", "lerato@example.com", "+27719876543"},
			address:     []byte(`"45 Jan Smuts Ave, Rosebank, Johannesburg"`),
			items:       []byte(`[{"product_id":"bnd-glow-kit","name":"Glow Starter Kit","quantity":1,"price_cents":59900}]`),
			createdAt:   at(0),
		},
	}
}

func insertOrders(ctx context.Context, pool *pgxpool.Pool, orders []seedOrder) error {
	slog.Info("seeding orders", slog.Int("count", len(orders)))

	batch := &pgx.Batch{}
	for _, o := range orders {
		var cents [4]*int64
		if o.cents != nil {
			for i := range o.cents {
				cents[i] = &o.cents[i]
			}
		}
		var rand [4]*decimal.Decimal
		if o.rand != nil {
			for i := range o.rand {
				rand[i] = &o.rand[i]
			}
		}
		var address any
		if o.address != nil {
			address = o.address
		}
		batch.Queue(insertOrderSQL,
			o.id, o.number, string(o.fulfillment), string(o.status),
			cents[0], cents[1], cents[2], cents[3],
			rand[0], rand[1], rand[2], rand[3],
			o.paidAt, o.packedAt, o.buyer[0], o.buyer[1], o.buyer[2], address, o.items, o.createdAt,
		)
	}

	br := pool.SendBatch(ctx, batch)
	for _, o := range orders {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return errors.Wrapf(err, "insert order %s", o.id)
		}
	}
	return br.Close()
}
