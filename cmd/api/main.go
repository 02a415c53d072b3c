package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/salonbooker/salonbooker/internal/api/router"
	"github.com/salonbooker/salonbooker/internal/app/bootstrap"
	"github.com/salonbooker/salonbooker/internal/availability"
	"github.com/salonbooker/salonbooker/internal/bookingpage"
	"github.com/salonbooker/salonbooker/internal/bookings"
	appconfig "github.com/salonbooker/salonbooker/internal/config"
	"github.com/salonbooker/salonbooker/internal/events"
	httpmiddleware "github.com/salonbooker/salonbooker/internal/http/middleware"
	"github.com/salonbooker/salonbooker/internal/observability/metrics"
	"github.com/salonbooker/salonbooker/internal/salon"
	"github.com/salonbooker/salonbooker/internal/submission"
	"github.com/salonbooker/salonbooker/internal/webassets"
	"github.com/salonbooker/salonbooker/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting salonbooker API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := bootstrap.BuildPostgresPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient == nil {
		logger.Error("redis is required for salon configs and booking sessions")
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	metricsHandler, bookingMetrics := setupMetrics()
	handler, deliverer, cleanup, err := buildApp(ctx, cfg, pool, redisClient, bookingMetrics, metricsHandler, logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	go deliverer.Start(ctx)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func setupMetrics() (http.Handler, *metrics.BookingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewBookingMetrics(reg)
}

func buildApp(
	ctx context.Context,
	cfg *appconfig.Config,
	pool *pgxpool.Pool,
	redisClient *redis.Client,
	m *metrics.BookingMetrics,
	metricsHandler http.Handler,
	logger *logging.Logger,
) (http.Handler, *events.Deliverer, func(), error) {
	salonStore := salon.NewStore(redisClient)
	repo := bookings.NewRepository(pool)
	slots := availability.NewService(salonStore, repo, m, logger)
	bookingService := bookings.NewService(repo, salonStore, m, logger)
	bookingsHandler := bookings.NewHandler(bookingService, slots, repo, salonStore, logger)

	submitter := submission.NewClient(cfg.SubmissionBaseURL(), logger).
		WithMaxAttempts(cfg.SubmitMaxAttempts).
		WithBaseDelay(cfg.SubmitBaseDelay).
		WithAttemptTimeout(cfg.SubmitAttemptTimeout).
		WithMetrics(m)
	page, err := bookingpage.NewHandler(bookingpage.Deps{
		Configs:       salonStore,
		Dates:         slots,
		Slots:         slots,
		Submitter:     submitter,
		Sessions:      bookingpage.NewSessionStore(redisClient, cfg.SessionTTL),
		Logger:        logger,
		SecureCookies: strings.HasPrefix(cfg.PublicBaseURL, "https://"),
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("booking page: %w", err)
	}

	email, err := bootstrap.BuildEmailSender(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	asynqClient := asynq.NewClient(bootstrap.AsynqRedisOpt(cfg))
	inspector := asynq.NewInspector(bootstrap.AsynqRedisOpt(cfg))
	cleanup := func() {
		_ = asynqClient.Close()
		_ = inspector.Close()
	}
	fanout, err := bootstrap.BuildFanout(ctx, bootstrap.FanoutDeps{
		Config:    cfg,
		Salons:    salonStore,
		Tracker:   events.NewProcessedStore(pool),
		Email:     email,
		SMS:       bootstrap.BuildSMSSender(cfg, logger),
		Asynq:     asynqClient,
		Inspector: inspector,
		Logger:    logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	deliverer := events.NewDeliverer(events.NewOutboxStore(pool), fanout, logger).
		WithBatchSize(int32(cfg.OutboxBatchSize)).
		WithInterval(cfg.OutboxPollInterval)

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	go limiter.RunEviction(5*time.Minute, ctx.Done())

	handler := router.New(&router.Config{
		Logger:         logger,
		Metrics:        m,
		MetricsHandler: metricsHandler,
		HealthChecks: map[string]router.HealthCheck{
			"postgres": pool.Ping,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
		BookingsHandler:    bookingsHandler,
		SalonHandler:       salon.NewHandler(salonStore, logger),
		BookingPage:        page,
		WidgetAssets:       webassets.NewHandler(cfg.WidgetAssetsDir, logger),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
	})
	return handler, deliverer, cleanup, nil
}
