package main

import (
	"bufio"
	"context"
	"log/slog"
	"math/bits"
	"os"
	"strings"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/beauty-admin/internal/domain/coupon"
)

const (
	bloomFPR      = 0.001
	progressEvery = 1_000_000
	minCodeLen    = 6
	maxCodeLen    = 32
)

// inserter stores coupons, skipping codes that already exist.
type inserter interface {
	InsertNew(ctx context.Context, coupons []coupon.Coupon) (int64, error)
}

type options struct {
	template      coupon.Coupon
	expectedCodes uint
	batchSize     int
}

type importStats struct {
	read       atomic.Int64
	invalid    atomic.Int64
	inserted   atomic.Int64
	duplicates int
}

// importFiles imports every valid code that appears in exactly one file.
func importFiles(ctx context.Context, files []string, store inserter, opts options) (*importStats, error) {
	if len(files) > bits.UintSize {
		return nil, errors.Errorf("at most %d files per import", bits.UintSize)
	}
	if opts.batchSize <= 0 {
		opts.batchSize = 1000
	}

	slog.Info("pass 1: building bloom filters", slog.Int("files", len(files)))
	filters, err := buildBloomFilters(ctx, files, opts.expectedCodes)
	if err != nil {
		return nil, errors.Wrap(err, "build bloom filters")
	}

	slog.Info("pass 2: finding codes shared between files")
	duplicates, err := findDuplicates(ctx, files, filters)
	if err != nil {
		return nil, errors.Wrap(err, "find duplicates")
	}
	slog.Info("duplicate codes rejected", slog.Int("count", len(duplicates)))

	slog.Info("pass 3: inserting coupons")
	stats := &importStats{duplicates: len(duplicates)}
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			return insertFile(gctx, i, f, duplicates, store, opts, stats)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "insert coupons")
	}
	return stats, nil
}

// normalizeCode uppercases a code and reports whether it is importable.
func normalizeCode(line string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(line))
	if len(code) < minCodeLen || len(code) > maxCodeLen {
		return "", false
	}
	for i := range len(code) {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') && c != '-' {
			return "", false
		}
	}
	return code, true
}

// buildBloomFilters creates one bloom filter per file, concurrently.
func buildBloomFilters(ctx context.Context, files []string, expected uint) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(expected, bloomFPR)
			var count uint64
			if err := streamGzFile(ctx, path, func(line string) error {
				code, ok := normalizeCode(line)
				if !ok {
					return nil
				}
				filter.AddString(code)
				count++
				if count%progressEvery == 0 {
					slog.Info("pass 1 progress", slog.Int("file", i+1), slog.Uint64("codes", count))
				}
				return nil
			}); err != nil {
				return errors.Wrapf(err, "build filter for file %d", i+1)
			}
			slog.Info("pass 1 complete", slog.Int("file", i+1), slog.Uint64("total_codes", count))
			filters[i] = filter
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// findDuplicates returns codes present in two or more files. A code that
// only hits another file's filter through a false positive is seen from one
// file alone, so it is not reported.
func findDuplicates(ctx context.Context, files []string, filters []*bloom.BloomFilter) (map[string]struct{}, error) {
	results := make([]map[string]uint, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			candidates := make(map[string]uint)
			fileBit := uint(1) << uint(i)
			if err := streamGzFile(ctx, path, func(line string) error {
				code, ok := normalizeCode(line)
				if !ok {
					return nil
				}
				for j, f := range filters {
					if j != i && f.TestString(code) {
						candidates[code] |= fileBit
						break
					}
				}
				return nil
			}); err != nil {
				return errors.Wrapf(err, "scan file %d for duplicates", i+1)
			}
			results[i] = candidates
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]uint)
	for _, r := range results {
		for code, mask := range r {
			merged[code] |= mask
		}
	}
	duplicates := make(map[string]struct{})
	for code, mask := range merged {
		if bits.OnesCount(mask) >= 2 {
			duplicates[code] = struct{}{}
		}
	}
	return duplicates, nil
}

func insertFile(
	ctx context.Context,
	idx int,
	path string,
	duplicates map[string]struct{},
	store inserter,
	opts options,
	stats *importStats,
) error {
	batch := make([]coupon.Coupon, 0, opts.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := store.InsertNew(ctx, batch)
		if err != nil {
			return err
		}
		stats.inserted.Add(n)
		batch = batch[:0]
		return nil
	}

	if err := streamGzFile(ctx, path, func(line string) error {
		stats.read.Add(1)
		code, ok := normalizeCode(line)
		if !ok {
			stats.invalid.Add(1)
			return nil
		}
		if _, dup := duplicates[code]; dup {
			return nil
		}
		c := opts.template
		c.Code = code
		batch = append(batch, c)
		if len(batch) < opts.batchSize {
			return nil
		}
		return flush()
	}); err != nil {
		return errors.Wrapf(err, "import file %d", idx+1)
	}
	if err := flush(); err != nil {
		return errors.Wrapf(err, "import file %d", idx+1)
	}
	slog.Info("pass 3 complete", slog.Int("file", idx+1))
	return nil
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}
