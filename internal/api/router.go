// Package api provides the HTTP API for CityNav.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/citynav/citynav/internal/api/handler"
	"github.com/citynav/citynav/internal/api/middleware"
	"github.com/citynav/citynav/internal/api/models"
	"github.com/citynav/citynav/internal/api/response"
	"github.com/citynav/citynav/internal/mode"
	"github.com/citynav/citynav/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// Engine computes routes (required).
	Engine handler.RouteCalculator
	// Weather fills missing trip weather; nil disables the lookup.
	Weather handler.WeatherResolver
	// Catalog is the live mode catalog; usually the engine's.
	Catalog *mode.Catalog
	// ModeRepository persists admin overrides (default: in-memory).
	ModeRepository mode.Repository

	Registry        *resilience.Registry
	ReadinessChecks []handler.ReadinessCheck

	// AdminAPIKey guards /v1/admin; empty disables the admin API.
	AdminAPIKey        string
	CORSAllowedOrigins []string
	RequireTLS         bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "citynav-api"
	}

	catalog := cfg.Catalog
	if catalog == nil {
		catalog = mode.NewCatalog()
	}

	modeRepo := cfg.ModeRepository
	if modeRepo == nil {
		modeRepo = mode.NewInMemoryRepository()
	}

	origins := cfg.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader, middleware.CorrelationIDHeader, middleware.APIKeyHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader, "Retry-After"},
		MaxAge:         300,
	}))
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement behind a proxy
	r.Use(middleware.ContentTypeJSON)            // JSON content type
	r.Use(middleware.RequireJSON)                // Reject non-JSON bodies

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no route matches "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		p := models.NewProblem(models.ProblemTypeNotFound, "Method not allowed", http.StatusMethodNotAllowed, middleware.GetRequestID(r.Context()))
		p.Detail = r.Method + " is not supported for " + r.URL.Path
		response.Error(w, r, p)
	})

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry, cfg.ReadinessChecks...)
	routeHandler := handler.NewRouteHandler(cfg.Engine, cfg.Weather, cfg.Logger)
	modeHandler := handler.NewModeHandler(catalog, modeRepo, cfg.Logger)
	cityHandler := handler.NewCityHandler()
	metadataHandler := handler.NewMetadataHandler()

	// Create rate limit middleware for different endpoint categories
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min
	adminRateLimit := middleware.RateLimitByIP(middleware.AdminRateLimit)         // 10 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Routes endpoint - expensive compute, strict rate limiting
		r.With(expensiveRateLimit).Post("/routes:compute", routeHandler.ComputeRoutes)

		// Lookups - standard rate limiting
		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/modes", modeHandler.ListModes)
			r.Get("/cities/detect", cityHandler.Detect)
			r.Get("/metadata/enums", metadataHandler.GetEnums)
		})

		// Admin endpoints (API key) - catalog administration
		r.Route("/admin", func(r chi.Router) {
			r.Use(adminRateLimit)
			r.Use(middleware.RequireAPIKey(cfg.AdminAPIKey))
			r.Put("/modes/{city}/{mode}", modeHandler.UpdateMode)
		})
	})

	return r
}
