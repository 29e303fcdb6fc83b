package main

import (
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/beauty-admin/db"
	"github.com/xenking/beauty-admin/internal/domain/money"
	"github.com/xenking/beauty-admin/internal/domain/product"
)

// loadCatalog reads the catalog file at path, or the embedded demo catalog
// when path is empty.
func loadCatalog(path string) ([]product.Product, error) {
	if path == "" {
		return parseCatalog(db.SeedCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog file")
	}
	return parseCatalog(data)
}

// parseCatalog decodes {"products": [...]}.
func parseCatalog(data []byte) ([]product.Product, error) {
	var products []product.Product
	if err := jx.DecodeBytes(data).ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "products" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			p, err := decodeProduct(d)
			if err != nil {
				return err
			}
			products = append(products, p)
			return nil
		})
	}); err != nil {
		return nil, errors.Wrap(err, "parse catalog")
	}
	return products, nil
}

func decodeProduct(d *jx.Decoder) (product.Product, error) {
	var p product.Product
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			p.ID, err = d.Str()
		case "kind":
			var s string
			s, err = d.Str()
			p.Kind = product.Kind(s)
		case "name":
			p.Name, err = d.Str()
		case "slug":
			p.Slug, err = d.Str()
		case "description":
			p.Description, err = d.Str()
		case "price_cents":
			var v int64
			v, err = d.Int64()
			p.Price = money.Cents(v)
		case "compare_at_price_cents":
			var v int64
			if v, err = d.Int64(); err == nil {
				c := money.Cents(v)
				p.CompareAtPrice = &c
			}
		case "cost_price_cents":
			var v int64
			v, err = d.Int64()
			p.CostPrice = money.Cents(v)
		case "stock_qty":
			p.StockQty, err = d.Int()
		case "status":
			var s string
			s, err = d.Str()
			p.Status = product.Status(s)
		case "images":
			p.Images, err = decodeStrings(d)
		case "bundle_product_ids":
			p.BundleProductIDs, err = decodeStrings(d)
		case "variants":
			err = d.Arr(func(d *jx.Decoder) error {
				v, err := decodeVariant(d)
				if err != nil {
					return err
				}
				p.Variants = append(p.Variants, v)
				return nil
			})
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode %q", key)
		}
		return nil
	})
	return p, err
}

func decodeVariant(d *jx.Decoder) (product.Variant, error) {
	var v product.Variant
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "name":
			v.Name, err = d.Str()
		case "sku":
			v.SKU, err = d.Str()
		case "stock_qty":
			v.StockQty, err = d.Int()
		case "price_cents":
			var n int64
			if n, err = d.Int64(); err == nil {
				c := money.Cents(n)
				v.Price = &c
			}
		default:
			return d.Skip()
		}
		return err
	})
	return v, err
}

func decodeStrings(d *jx.Decoder) ([]string, error) {
	var out []string
	err := d.Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}
