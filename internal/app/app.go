package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/beauty-admin/internal/domain/contact"
	"github.com/xenking/beauty-admin/internal/domain/coupon"
	"github.com/xenking/beauty-admin/internal/domain/order"
	"github.com/xenking/beauty-admin/internal/domain/product"
	"github.com/xenking/beauty-admin/internal/domain/report"
	"github.com/xenking/beauty-admin/internal/domain/special"
	"github.com/xenking/beauty-admin/internal/domain/stock"
	"github.com/xenking/beauty-admin/internal/handler"
	"github.com/xenking/beauty-admin/internal/storage/postgres"
	"github.com/xenking/beauty-admin/pkg/health"
	"github.com/xenking/beauty-admin/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("currency", cfg.Store.Currency),
		zap.Bool("allow_negative_stock", cfg.Store.AllowNegativeStock),
		zap.Bool("status_fallback", cfg.Store.StatusFallback),
	)
	loc, err := cfg.Store.Location()
	if err != nil {
		return err
	}

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddReadinessCheck("schema", 5*time.Second,
		health.SchemaCheck(pool, "orders", "products", "specials", "coupons", "stock_movements", "contacts", "api_keys"))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc_pause", time.Second, health.GCMaxPauseCheck(time.Second))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	orderRepo := postgres.NewOrderRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	specialRepo := postgres.NewSpecialRepository(pool)
	couponRepo := postgres.NewCouponRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)
	contactRepo := postgres.NewContactRepository(pool)
	apikeyRepo := postgres.NewAPIKeyRepository(pool)

	// Domain services.
	var fallback order.StatusWriter
	if cfg.Store.StatusFallback {
		fallback = postgres.NewDirectStatusWriter(pool)
	}
	orderService, err := order.NewService(orderRepo,
		postgres.NewTxStatusWriter(pool), fallback,
		m.TracerProvider(), m.MeterProvider(),
	)
	if err != nil {
		return errors.Wrap(err, "create order service")
	}
	specialService := special.NewService(specialRepo)

	h := handler.New(
		handler.Config{Currency: cfg.Store.Currency, Location: loc},
		handler.Services{
			Orders:          orderService,
			Products:        product.NewService(productRepo, specialService),
			Stock:           stock.NewService(stockRepo, cfg.Store.AllowNegativeStock),
			Specials:        specialService,
			Coupons:         coupon.NewService(couponRepo),
			CouponValidator: coupon.NewRepoValidator(couponRepo),
			Contacts:        contact.NewService(contactRepo),
			Reports:         report.NewService(orderRepo, loc),
		},
	)
	security := handler.NewSecurity(apikeyRepo, []byte(cfg.APIKeyPepper))

	// API routes behind the api_key check; probes stay open.
	api := http.NewServeMux()
	h.Register(api, "/api")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", security.Middleware(api))

	routeFinder := firstRoute(httpmiddleware.MakeRouteFinder(api), httpmiddleware.MakeRouteFinder(mux))

	limiter, err := httpmiddleware.NewRateLimiter(httpmiddleware.RateLimitConfig{
		Max:           cfg.RateLimit.Max,
		Window:        cfg.RateLimit.Window,
		KeyFunc:       httpmiddleware.KeyByHeader(handler.APIKeyHeader),
		Skip:          httpmiddleware.SkipPaths("/livez", "/readyz"),
		MeterProvider: m.MeterProvider(),
	})
	if err != nil {
		return errors.Wrap(err, "create rate limiter")
	}
	go limiter.Run(ctx)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", handler.APIKeyHeader},
				ExposeHeaders:    []string{httpmiddleware.RequestIDHeader, "X-RateLimit-Remaining"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			limiter.Middleware(),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("beauty-admin", routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// firstRoute returns the route of the first finder that matches.
func firstRoute(finders ...httpmiddleware.RouteFinder) httpmiddleware.RouteFinder {
	return func(r *http.Request) (string, bool) {
		for _, find := range finders {
			if route, ok := find(r); ok {
				return route, true
			}
		}
		return "", false
	}
}
