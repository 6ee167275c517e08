// Package main provides the entrypoint for the CityNav API server.
package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/citynav/citynav/internal/api"
	"github.com/citynav/citynav/internal/api/handler"
	"github.com/citynav/citynav/internal/api/middleware"
	"github.com/citynav/citynav/internal/config"
	"github.com/citynav/citynav/internal/database"
	"github.com/citynav/citynav/internal/engine"
	"github.com/citynav/citynav/internal/mode"
	"github.com/citynav/citynav/internal/provider/resilience"
	"github.com/citynav/citynav/internal/telemetry"
	"github.com/citynav/citynav/internal/transit"
	"github.com/citynav/citynav/internal/transit/overpass"
	"github.com/citynav/citynav/internal/transit/stopstore"
	"github.com/citynav/citynav/internal/weather"
	"github.com/citynav/citynav/internal/weather/openweathermap"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "citynav-api"

func main() {
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	if err := run(log); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(log zerolog.Logger) error {
	if err := config.LoadDotEnv("."); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log.Info().
		Str("build_time", BuildTime).
		Str("environment", cfg.Environment).
		Msg("starting CityNav API")

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.Telemetry.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Float64("sample_ratio", cfg.Telemetry.SampleRatio).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics(tp.Meter)
	if err != nil {
		return err
	}

	registry := resilience.NewRegistry()
	var checks []handler.ReadinessCheck

	// Mode overrides
	var repo mode.Repository = mode.NewInMemoryRepository()
	if cfg.Database.Enabled {
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
		log.Info().
			Str("host", cfg.Database.Host).
			Int("port", cfg.Database.Port).
			Str("database", cfg.Database.Database).
			Msg("database connected")

		repo = mode.NewPostgresRepository(pool)
		checks = append(checks, handler.ReadinessCheck{Name: "database", Check: pool.Ping})
	} else {
		log.Warn().Msg("database disabled, mode overrides are kept in memory")
	}

	catalog := mode.NewCatalog()
	loadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	applied, err := catalog.Load(loadCtx, repo)
	cancel()
	if err != nil {
		return err
	}
	log.Info().Int("overrides", applied).Msg("mode catalog loaded")

	// Transit stops
	stops, closer, err := newStopProvider(ctx, cfg, registry, log)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	locator := transit.NewService(transit.ServiceConfig{
		Provider:                 stops,
		Logger:                   log,
		Timeout:                  cfg.Transit.LookupTimeout,
		DisableSyntheticFallback: !cfg.Transit.SyntheticFallback,
	})
	log.Info().Str("provider", locator.Name()).Msg("transit service initialized")

	eng, err := engine.New(engine.Config{
		Catalog:   catalog,
		Locator:   locator,
		Logger:    log,
		MaxRoutes: cfg.MaxRoutes,
		Tracer:    tp.Tracer,
		Meter:     tp.Meter,
	})
	if err != nil {
		return err
	}

	routerCfg := api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		ServiceName:        serviceName,
		Metrics:            metrics,
		Engine:             eng,
		Catalog:            catalog,
		ModeRepository:     repo,
		Registry:           registry,
		ReadinessChecks:    checks,
		AdminAPIKey:        cfg.AdminAPIKey,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RequireTLS:         cfg.IsProduction(),
	}

	// The resolver stays a nil interface when weather is off.
	if cfg.Weather.Enabled() {
		routerCfg.Weather = weather.NewService(weather.ServiceConfig{
			Provider: openweathermap.NewClient(openweathermap.ClientConfig{
				APIKey:   cfg.Weather.OpenWeatherMapAPIKey,
				Registry: registry,
				Logger:   log,
			}),
			Logger: log,
		})
		log.Info().Msg("weather service initialized")
	} else {
		log.Warn().Msg("OWM_API_KEY not set, routes assume fair weather")
	}

	if cfg.AdminAPIKey == "" {
		log.Warn().Msg("ADMIN_API_KEY not set, admin endpoints are disabled")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(routerCfg),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().Msg("server stopped")
	return nil
}

// newStopProvider picks the offline SQLite index when configured and the
// Overpass API otherwise. The returned closer is nil for Overpass.
func newStopProvider(ctx context.Context, cfg config.Config, registry *resilience.Registry, log zerolog.Logger) (transit.Provider, io.Closer, error) {
	if path := cfg.Transit.StopsSQLitePath; path != "" {
		store, err := stopstore.Open(ctx, path, log)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	}

	return overpass.NewClient(overpass.ClientConfig{
		BaseURL:  cfg.Transit.OverpassURL,
		Registry: registry,
		Logger:   log,
	}), nil, nil
}
