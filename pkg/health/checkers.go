package health

import (
	"context"
	"runtime"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
)

// Pinger is implemented by *pgxpool.Pool and *pgx.Conn.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RowQuerier is implemented by *pgxpool.Pool.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PingCheck returns a CheckFunc that reports unhealthy when p cannot be
// reached. Use it as a readiness check: a lost database should take the
// instance out of rotation without restarting it.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return errors.Wrap(err, "ping")
		}
		return nil
	}
}

const missingTablesSQL = `SELECT coalesce(array_agg(t), '{}') FROM unnest($1::text[]) AS t WHERE to_regclass(t) IS NULL`

// SchemaCheck returns a CheckFunc that reports unhealthy until every table
// exists. An instance whose migrations have not run is therefore never
// marked ready, even though its database answers pings.
//
// Table names may be schema qualified. The error lists every missing table.
func SchemaCheck(q RowQuerier, tables ...string) CheckFunc {
	return func(ctx context.Context) error {
		var missing []string
		if err := q.QueryRow(ctx, missingTablesSQL, tables).Scan(&missing); err != nil {
			return errors.Wrap(err, "query schema")
		}
		if len(missing) > 0 {
			return errors.Errorf("missing tables: %s", strings.Join(missing, ", "))
		}
		return nil
	}
}

// GoroutineCountCheck returns a CheckFunc that reports unhealthy when the
// number of goroutines exceeds threshold. This is useful as a liveness
// check to detect goroutine leaks.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("%d goroutines, threshold %d", n, threshold)
		}
		return nil
	}
}

// GCMaxPauseCheck returns a CheckFunc that reports unhealthy when a GC
// pause longer than threshold happened since the previous run. This is
// useful as a liveness check to detect memory pressure or heaps large
// enough to cause long stop-the-world pauses.
//
// Only pauses recorded after the last call are inspected, so one slow
// collection does not fail the check forever.
func GCMaxPauseCheck(threshold time.Duration) CheckFunc {
	var lastGC atomic.Int64
	return func(context.Context) error {
		stats := debug.GCStats{Pause: make([]time.Duration, 0, 256)}
		debug.ReadGCStats(&stats)
		fresh := max(int(stats.NumGC-lastGC.Swap(stats.NumGC)), 0)
		fresh = min(fresh, len(stats.Pause))
		// Pause is ordered most recent first.
		for _, pause := range stats.Pause[:fresh] {
			if pause > threshold {
				return errors.Errorf("gc pause %s, threshold %s", pause, threshold)
			}
		}
		return nil
	}
}
