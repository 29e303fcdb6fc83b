// Command coupon-import bulk-imports single-use coupon codes from gzipped
// code lists. Codes issued in more than one list are rejected.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/beauty-admin/internal/domain/coupon"
	"github.com/xenking/beauty-admin/internal/domain/money"
	"github.com/xenking/beauty-admin/internal/storage/postgres"
)

func main() {
	var (
		dataDir     string
		databaseURL string
		couponType  string
		value       string
		minOrder    int64
		maxDiscount int64
		maxUses     int
		validDays   int
		description string
		opts        options
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.gz code lists")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&couponType, "type", string(coupon.TypePercentage), "coupon type: percentage or fixed")
	flag.StringVar(&value, "value", "10", "percent for percentage coupons, cents for fixed coupons")
	flag.Int64Var(&minOrder, "min-order-cents", 0, "minimum order subtotal in cents")
	flag.Int64Var(&maxDiscount, "max-discount-cents", 0, "discount cap in cents (percentage only, 0 = none)")
	flag.IntVar(&maxUses, "max-uses", 1, "uses per code (0 = unlimited)")
	flag.IntVar(&validDays, "valid-days", 90, "days the codes stay valid (0 = no expiry)")
	flag.StringVar(&description, "description", "", "description stored on every coupon")
	flag.UintVar(&opts.expectedCodes, "expected-codes", 5_000_000, "expected codes per file, sizes the bloom filters")
	flag.IntVar(&opts.batchSize, "batch-size", 1000, "coupons per insert transaction")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	v, err := decimal.NewFromString(value)
	if err != nil {
		slog.Error("invalid --value", slog.String("error", err.Error()))
		os.Exit(1)
	}
	opts.template = coupon.Coupon{
		Type:        coupon.Type(couponType),
		Value:       v,
		MinOrder:    money.Cents(minOrder),
		MaxDiscount: money.Cents(maxDiscount),
		MaxUses:     maxUses,
		IsActive:    true,
		Description: description,
	}
	if validDays > 0 {
		until := time.Now().AddDate(0, 0, validDays)
		opts.template.ValidUntil = &until
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL, opts); err != nil {
		slog.Error("coupon import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon import completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string, opts options) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil {
		return errors.Wrap(err, "list code files")
	}
	if len(files) == 0 {
		return errors.Errorf("no .gz files in %s", dataDir)
	}
	slices.Sort(files)

	// Validate the template before reading millions of lines.
	probe := opts.template
	probe.Code = "TEMPLATE"
	if err := coupon.Validate(&probe); err != nil {
		return errors.Wrap(err, "coupon template")
	}

	slog.Info("connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	stats, err := importFiles(ctx, files, postgres.NewCouponRepository(pool), opts)
	if err != nil {
		return err
	}
	slog.Info("import summary",
		slog.Int("files", len(files)),
		slog.Int64("read", stats.read.Load()),
		slog.Int64("invalid", stats.invalid.Load()),
		slog.Int("duplicates", stats.duplicates),
		slog.Int64("inserted", stats.inserted.Load()),
	)
	return nil
}
