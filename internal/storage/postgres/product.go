package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/beauty-admin/internal/domain/money"
	"github.com/xenking/beauty-admin/internal/domain/product"
)

const productColumns = `id, kind, name, slug, description, price_cents, compare_at_price_cents,
	cost_price_cents, stock_qty, variants, images, status, bundle_product_ids, created_at, updated_at`

const (
	listProductsSQL = `SELECT ` + productColumns + ` FROM products
		WHERE ($1 = '' OR kind = $1) ORDER BY name, id`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	upsertProductSQL = `INSERT INTO products (id, kind, name, slug, description, price_cents,
		compare_at_price_cents, cost_price_cents, stock_qty, variants, images, status, bundle_product_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind,
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			description = EXCLUDED.description,
			price_cents = EXCLUDED.price_cents,
			compare_at_price_cents = EXCLUDED.compare_at_price_cents,
			cost_price_cents = EXCLUDED.cost_price_cents,
			stock_qty = products.stock_qty,
			variants = EXCLUDED.variants,
			images = EXCLUDED.images,
			status = EXCLUDED.status,
			bundle_product_ids = EXCLUDED.bundle_product_ids,
			updated_at = now()
		RETURNING created_at, updated_at`

	lockProductSQL = `SELECT id FROM products WHERE id = $1 FOR UPDATE`

	lockProductStockSQL = `SELECT stock_qty, variants FROM products WHERE id = $1 FOR UPDATE`

	// Legacy order lines reference the product under "id" instead of
	// "product_id".
	productReferencedSQL = `SELECT EXISTS (
		SELECT 1 FROM orders
		WHERE items @> jsonb_build_array(jsonb_build_object('product_id', $1::text))
		   OR items @> jsonb_build_array(jsonb_build_object('id', $1::text))
	) OR EXISTS (SELECT 1 FROM stock_movements WHERE product_id = $1)`

	archiveProductSQL = `UPDATE products SET status = 'archived', updated_at = now() WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	updateProductPriceSQL = `UPDATE products SET price_cents = $2, updated_at = now() WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns catalog items of kind, or every item when kind is empty.
func (r *ProductRepository) List(ctx context.Context, kind product.Kind) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL, string(kind))
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Save upserts p by id. An existing row keeps its stock levels: the row is
// locked and its stock copied onto p before the write, so adjustments that
// commit first are never undone.
func (r *ProductRepository) Save(ctx context.Context, p *product.Product) error {
	var compareAt *int64
	if p.CompareAtPrice != nil {
		v := int64(*p.CompareAtPrice)
		compareAt = &v
	}
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			stored   product.Product
			variants []byte
		)
		err := tx.QueryRow(ctx, lockProductStockSQL, p.ID).Scan(&stored.StockQty, &variants)
		switch {
		case err == nil:
			if stored.Variants, err = decodeVariants(variants); err != nil {
				return fmt.Errorf("product %q variants: %w", p.ID, err)
			}
			p.KeepStock(&stored)
		case !errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("locking product %q: %w", p.ID, err)
		}

		return tx.QueryRow(ctx, upsertProductSQL,
			p.ID, string(p.Kind), p.Name, p.Slug, p.Description, int64(p.Price),
			compareAt, int64(p.CostPrice), p.StockQty, encodeVariants(p.Variants),
			nonNil(p.Images), string(p.Status), nonNil(p.BundleProductIDs),
		).Scan(&p.CreatedAt, &p.UpdatedAt)
	})
	if err != nil {
		return fmt.Errorf("saving product %q: %w", p.ID, err)
	}
	return nil
}

// Delete removes the product, or archives it when orders or stock movements
// reference it. The check and the change happen under a row lock.
func (r *ProductRepository) Delete(ctx context.Context, id string) (product.DeleteAction, error) {
	var action product.DeleteAction
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked string
		if err := tx.QueryRow(ctx, lockProductSQL, id).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return product.ErrNotFound
			}
			return fmt.Errorf("locking product %q: %w", id, err)
		}

		var referenced bool
		if err := tx.QueryRow(ctx, productReferencedSQL, id).Scan(&referenced); err != nil {
			return fmt.Errorf("checking references to product %q: %w", id, err)
		}

		if referenced {
			if _, err := tx.Exec(ctx, archiveProductSQL, id); err != nil {
				return fmt.Errorf("archiving product %q: %w", id, err)
			}
			action = product.ActionArchived
			return nil
		}
		if _, err := tx.Exec(ctx, deleteProductSQL, id); err != nil {
			return fmt.Errorf("deleting product %q: %w", id, err)
		}
		action = product.ActionDeleted
		return nil
	})
	if err != nil {
		return "", err
	}
	return action, nil
}

// UpdatePrices applies a bulk price update in one transaction.
func (r *ProductRepository) UpdatePrices(ctx context.Context, changes []product.PriceChange) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, c := range changes {
			batch.Queue(updateProductPriceSQL, c.ProductID, int64(c.NewPrice))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("updating prices: %w", err)
		}
		return nil
	})
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p            product.Product
		kind, status string
		price, cost  int64
		compareAt    *int64
		variants     []byte
	)
	if err := row.Scan(
		&p.ID, &kind, &p.Name, &p.Slug, &p.Description, &price, &compareAt,
		&cost, &p.StockQty, &variants, &p.Images, &status, &p.BundleProductIDs,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return p, err
	}
	p.Kind = product.Kind(kind)
	p.Status = product.Status(status)
	p.Price = money.Cents(price)
	p.CostPrice = money.Cents(cost)
	if compareAt != nil {
		v := money.Cents(*compareAt)
		p.CompareAtPrice = &v
	}
	vs, err := decodeVariants(variants)
	if err != nil {
		return p, fmt.Errorf("product %q variants: %w", p.ID, err)
	}
	p.Variants = vs
	return p, nil
}

func encodeVariants(vs []product.Variant) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ArrStart()
	for _, v := range vs {
		e.ObjStart()
		e.FieldStart("name")
		e.Str(v.Name)
		e.FieldStart("sku")
		e.Str(v.SKU)
		e.FieldStart("stock_qty")
		e.Int(v.StockQty)
		if v.Price != nil {
			e.FieldStart("price_cents")
			e.Int64(int64(*v.Price))
		}
		e.ObjEnd()
	}
	e.ArrEnd()
	return append([]byte(nil), e.Bytes()...)
}

func decodeVariants(raw []byte) ([]product.Variant, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []product.Variant
	err := jx.DecodeBytes(raw).Arr(func(d *jx.Decoder) error {
		var v product.Variant
		if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
			var err error
			switch string(key) {
			case "name":
				v.Name, err = d.Str()
			case "sku":
				v.SKU, err = d.Str()
			case "stock_qty":
				v.StockQty, err = d.Int()
			case "price_cents":
				if d.Next() == jx.Null {
					return d.Null()
				}
				var c int64
				if c, err = d.Int64(); err == nil {
					p := money.Cents(c)
					v.Price = &p
				}
			default:
				return d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	return out, err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
