// Command seed-db loads a demo catalog, specials, coupons, orders and an
// admin API key into the database.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/beauty-admin/internal/domain/auth"
	"github.com/xenking/beauty-admin/internal/domain/coupon"
	"github.com/xenking/beauty-admin/internal/domain/money"
	"github.com/xenking/beauty-admin/internal/domain/pricing"
	"github.com/xenking/beauty-admin/internal/domain/product"
	"github.com/xenking/beauty-admin/internal/domain/special"
	"github.com/xenking/beauty-admin/internal/storage/postgres"
)

func main() {
	var (
		databaseURL  string
		catalogFile  string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "", "path to catalog JSON file (default: embedded demo catalog)")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or ADMIN_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or ADMIN_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("ADMIN_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or ADMIN_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("ADMIN_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	now := time.Now().UTC()

	if err := seedProducts(ctx, postgres.NewProductRepository(pool), catalogFile); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedSpecials(ctx, postgres.NewSpecialRepository(pool), now); err != nil {
		return errors.Wrap(err, "seed specials")
	}
	if err := seedCoupons(ctx, postgres.NewCouponRepository(pool), now); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	if err := insertOrders(ctx, pool, seedOrders(now)); err != nil {
		return errors.Wrap(err, "seed orders")
	}
	if err := seedAPIKey(ctx, postgres.NewAPIKeyRepository(pool), apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedProducts(ctx context.Context, repo *postgres.ProductRepository, catalogFile string) error {
	slog.Info("loading catalog", slog.String("path", catalogFile))

	products, err := loadCatalog(catalogFile)
	if err != nil {
		return err
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for i := range products {
		p := &products[i]
		if err := product.Validate(p); err != nil {
			return errors.Wrapf(err, "product %s", p.ID)
		}
		if err := repo.Save(ctx, p); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedSpecials(ctx context.Context, repo *postgres.SpecialRepository, now time.Time) error {
	existing, err := repo.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		slog.Info("specials already present, skipping", slog.Int("count", len(existing)))
		return nil
	}

	specials := []special.Special{
		{
			ID:            "spc-serum-week",
			Name:          "Serum week",
			Scope:         special.ScopeProduct,
			TargetIDs:     []string{"prd-rose-serum"},
			DiscountType:  pricing.DiscountPercent,
			DiscountValue: decimal.NewFromInt(20),
			StartsAt:      now.AddDate(0, 0, -2),
			EndsAt:        now.AddDate(0, 0, 5),
		},
		{
			ID:            "spc-kit-launch",
			Name:          "Glow kit launch price",
			Scope:         special.ScopeBundle,
			TargetIDs:     []string{"bnd-glow-kit"},
			DiscountType:  pricing.DiscountFixedPrice,
			DiscountValue: decimal.NewFromInt(49900),
			StartsAt:      now.AddDate(0, 0, 7),
			EndsAt:        now.AddDate(0, 0, 14),
		},
	}

	for i := range specials {
		s := &specials[i]
		s.CreatedAt = now
		if err := repo.Create(ctx, s); err != nil {
			return errors.Wrapf(err, "create special %s", s.ID)
		}

		slog.Info("created special", slog.String("id", s.ID), slog.String("name", s.Name))
	}

	return nil
}

func seedCoupons(ctx context.Context, repo *postgres.CouponRepository, now time.Time) error {
	slog.Info("seeding coupons")

	until := now.AddDate(0, 3, 0)
	coupons := []coupon.Coupon{
		{
			Code:        "WELCOME15",
			Type:        coupon.TypePercentage,
			Value:       decimal.NewFromInt(15),
			MaxDiscount: money.Cents(15000),
			IsActive:    true,
			Description: "15% off your first order, up to R150",
		},
		{
			Code:               "GLOW50",
			Type:               coupon.TypeFixed,
			Value:              decimal.NewFromInt(5000),
			MinOrder:           money.Cents(30000),
			MaxUses:            100,
			ExcludedProductIDs: []string{"bnd-glow-kit"},
			ValidUntil:         &until,
			IsActive:           true,
			Description:        "R50 off orders over R300",
		},
	}

	for i := range coupons {
		c := &coupons[i]
		if err := coupon.Validate(c); err != nil {
			return errors.Wrapf(err, "coupon %s", c.Code)
		}
		if err := repo.Save(ctx, c); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.Code)
		}

		slog.Info("upserted coupon", slog.String("code", c.Code), slog.String("description", c.Description))
	}

	return nil
}

func seedAPIKey(ctx context.Context, repo *postgres.APIKeyRepository, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	info := &auth.APIKeyInfo{
		ID:      "default",
		KeyHash: auth.HashKeyHex([]byte(pepper), apiKey),
		Name:    "Default admin key",
		Scopes:  []string{"admin"},
	}
	if err := repo.Create(ctx, info); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", info.ID), slog.String("name", info.Name))

	return nil
}
