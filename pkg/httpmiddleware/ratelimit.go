package httpmiddleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// RateLimitConfig configures the token bucket rate limiter. Each key gets a
// bucket of Max tokens refilled at Max per Window.
type RateLimitConfig struct {
	Max    int
	Window time.Duration
	// KeyFunc extracts the bucket key. Defaults to the client IP.
	KeyFunc func(*http.Request) string
	// Skip exempts requests from limiting, e.g. health probes.
	Skip func(*http.Request) bool
	// MeterProvider receives the rejected requests counter. Optional.
	MeterProvider metric.MeterProvider
}

type bucket struct {
	tokens float64
	last   time.Time
}

// RateLimiter limits requests per key. Use Middleware to install it and Run
// to evict idle buckets.
type RateLimiter struct {
	cfg      RateLimitConfig
	rate     float64 // tokens per second
	now      func() time.Time
	rejected metric.Int64Counter

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewRateLimiter creates a RateLimiter.
func NewRateLimiter(cfg RateLimitConfig) (*RateLimiter, error) {
	if cfg.Max <= 0 || cfg.Window <= 0 {
		return nil, errors.New("rate limit: max and window must be positive")
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIP
	}
	mp := cfg.MeterProvider
	if mp == nil {
		mp = noop.NewMeterProvider()
	}
	rejected, err := mp.Meter("httpmiddleware").Int64Counter("http.server.rate_limited",
		metric.WithDescription("Requests rejected by the rate limiter"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create rate limit counter")
	}
	return &RateLimiter{
		cfg:      cfg,
		rate:     float64(cfg.Max) / cfg.Window.Seconds(),
		now:      time.Now,
		rejected: rejected,
		buckets:  make(map[string]*bucket),
	}, nil
}

// take removes a token from the key's bucket. It returns the whole tokens
// left, the wait until the next token when rejected and the wait until the
// bucket is full again.
func (rl *RateLimiter) take(key string) (remaining int, retryAfter, untilFull time.Duration, ok bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	limit := float64(rl.cfg.Max)
	b, found := rl.buckets[key]
	if !found {
		b = &bucket{tokens: limit, last: now}
		rl.buckets[key] = b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = math.Min(limit, b.tokens+elapsed*rl.rate)
	}
	b.last = now

	if b.tokens < 1 {
		retryAfter = rl.seconds(1 - b.tokens)
		return 0, retryAfter, rl.seconds(limit - b.tokens), false
	}
	b.tokens--
	return int(b.tokens), 0, rl.seconds(limit - b.tokens), true
}

func (rl *RateLimiter) seconds(tokens float64) time.Duration {
	return time.Duration(tokens / rl.rate * float64(time.Second))
}

// evict drops buckets idle long enough to have refilled completely.
func (rl *RateLimiter) evict() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		if now.Sub(b.last) >= rl.cfg.Window {
			delete(rl.buckets, key)
		}
	}
}

// Run evicts idle buckets every window until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(rl.cfg.Window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evict()
		}
	}
}

// Middleware responds 429 with a JSON error once a key runs out of tokens.
// Limited responses carry X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset headers.
func (rl *RateLimiter) Middleware() Middleware {
	limit := strconv.Itoa(rl.cfg.Max)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.cfg.Skip != nil && rl.cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			remaining, retryAfter, untilFull, ok := rl.take(rl.cfg.KeyFunc(r))

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(rl.now().Add(untilFull).Unix(), 10))

			if !ok {
				rl.rejected.Add(r.Context(), 1, metric.WithAttributes(
					attribute.String("http.request.method", r.Method),
				))
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SkipPaths exempts requests whose path is one of paths.
func SkipPaths(paths ...string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return func(r *http.Request) bool {
		_, ok := set[r.URL.Path]
		return ok
	}
}

// KeyByHeader returns a KeyFunc that limits by a digest of the named header
// and falls back to the client IP when the header is absent. The raw header
// value is never kept in memory.
func KeyByHeader(name string) func(*http.Request) string {
	return func(r *http.Request) string {
		v := r.Header.Get(name)
		if v == "" {
			return "ip:" + clientIP(r)
		}
		sum := sha256.Sum256([]byte(v))
		return "key:" + hex.EncodeToString(sum[:8])
	}
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
