package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/salonbooker/salonbooker/internal/bookingpage"
	"github.com/salonbooker/salonbooker/internal/bookings"
	httpmiddleware "github.com/salonbooker/salonbooker/internal/http/middleware"
	"github.com/salonbooker/salonbooker/internal/observability/metrics"
	"github.com/salonbooker/salonbooker/internal/salon"
	"github.com/salonbooker/salonbooker/pkg/logging"
)

// Config holds router configuration. Nil handlers leave their routes unmounted.
type Config struct {
	Logger          *logging.Logger
	Metrics         *metrics.BookingMetrics
	MetricsHandler  http.Handler
	HealthChecks    map[string]HealthCheck
	BookingsHandler *bookings.Handler
	SalonHandler    *salon.Handler
	BookingPage     *bookingpage.Handler
	WidgetAssets    http.Handler

	AdminAuthSecret    string
	CORSAllowedOrigins []string
	// RateLimiter throttles the public booking API per client IP.
	RateLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(httpmiddleware.RequestLogger(logger, cfg.Metrics))

	r.Group(func(public chi.Router) {
		public.Get("/health", healthHandler(cfg.HealthChecks, logger))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.WidgetAssets != nil {
			public.Mount("/widget", cfg.WidgetAssets)
		}
		if cfg.BookingPage != nil {
			public.Mount("/book", cfg.BookingPage.Routes())
		}
	})

	if cfg.BookingsHandler != nil {
		r.Route("/api/v1/salons", func(api chi.Router) {
			if len(cfg.CORSAllowedOrigins) > 0 {
				api.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
			}
			if cfg.RateLimiter != nil {
				api.Use(httpmiddleware.RateLimit(cfg.RateLimiter, logger))
			}
			api.Use(middleware.AllowContentType("application/json"))
			api.Mount("/", cfg.BookingsHandler.Routes())
		})
	}

	// Admin routes (HMAC JWT scoped to one salon, or platform role)
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin/salons/{salonID}", func(admin chi.Router) {
			admin.Use(requireSalonID)
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Use(httpmiddleware.RequireSalonScope)
			if cfg.SalonHandler != nil {
				admin.Mount("/config", cfg.SalonHandler.Routes())
			}
			if cfg.BookingsHandler != nil {
				admin.Mount("/bookings", cfg.BookingsHandler.AdminRoutes())
			}
		})
	}

	return r
}
