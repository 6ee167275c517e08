package weather

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/bluele/gcache"
	"github.com/rs/zerolog"

	"github.com/citynav/citynav/internal/geo"
)

// Provider defines the interface for weather data providers.
type Provider interface {
	// CurrentWeather fetches the current weather at a location.
	CurrentWeather(ctx context.Context, loc geo.Location) (Observation, error)

	// HourlyForecast fetches the hourly forecast for a location.
	HourlyForecast(ctx context.Context, loc geo.Location) (Forecast, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the weather service.
type ServiceConfig struct {
	// Provider is the weather data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long weather data stays fresh (default: 10 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the cache cell size in degrees (default: 0.1, ~11 km).
	// Points within the same cell share cached data.
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale data on provider errors (default: 1 hour).
	StaleIfErrorTTL time.Duration

	// CacheSize bounds each LRU cache (default: 256 entries).
	CacheSize int

	// ForecastAfter is how far ahead a departure must be before the forecast
	// is used instead of current conditions (default: 1 hour).
	ForecastAfter time.Duration

	// Now overrides the clock (tests).
	Now func() time.Time
}

// Service provides trip-time weather with caching.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration
	forecastAfter   time.Duration
	now             func() time.Time

	current   gcache.Cache
	forecasts gcache.Cache
}

type cached[T any] struct {
	value     T
	fetchedAt time.Time
}

// NewService creates a new weather service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.1
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = time.Hour
	}

	size := cfg.CacheSize
	if size <= 0 {
		size = 256
	}

	forecastAfter := cfg.ForecastAfter
	if forecastAfter == 0 {
		forecastAfter = time.Hour
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		forecastAfter:   forecastAfter,
		now:             now,
		current:         gcache.New(size).LRU().Build(),
		forecasts:       gcache.New(size).LRU().Build(),
	}
}

// Name returns the provider name.
func (s *Service) Name() string {
	return s.provider.Name()
}

// Current returns the current weather at a location.
func (s *Service) Current(ctx context.Context, loc geo.Location) (Observation, error) {
	if !loc.Valid() {
		return Observation{}, ErrInvalidCoordinates
	}
	return load(s, s.current, s.cacheKey(loc), "current weather", func() (Observation, error) {
		return s.provider.CurrentWeather(ctx, loc)
	})
}

// Forecast returns the hourly forecast for a location.
func (s *Service) Forecast(ctx context.Context, loc geo.Location) (Forecast, error) {
	if !loc.Valid() {
		return Forecast{}, ErrInvalidCoordinates
	}
	return load(s, s.forecasts, s.cacheKey(loc), "forecast", func() (Forecast, error) {
		return s.provider.HourlyForecast(ctx, loc)
	})
}

// ConditionsAt resolves the weather at loc for a departure time. Departures
// far enough ahead use the forecast and fall back to current conditions when
// no forecast hour covers them.
func (s *Service) ConditionsAt(ctx context.Context, loc geo.Location, at time.Time) (Conditions, error) {
	if at.Sub(s.now()) >= s.forecastAfter {
		f, err := s.Forecast(ctx, loc)
		if err == nil {
			if h, ok := f.At(at); ok {
				return FromForecast(h), nil
			}
			err = ErrNoForecast
		}
		s.logger.Debug().Err(err).Time("at", at).Msg("forecast unavailable, using current weather")
	}

	obs, err := s.Current(ctx, loc)
	if err != nil {
		return Conditions{}, err
	}
	return FromObservation(obs), nil
}

// InvalidateCache clears all cached data.
func (s *Service) InvalidateCache() {
	s.current.Purge()
	s.forecasts.Purge()
}

// load serves fresh cached data, fetches on a miss, and falls back to stale
// data when the provider fails.
func load[T any](s *Service, cache gcache.Cache, key, what string, fetch func() (T, error)) (T, error) {
	var entry *cached[T]
	if v, err := cache.Get(key); err == nil {
		entry, _ = v.(*cached[T])
	}
	if entry != nil && s.now().Before(entry.fetchedAt.Add(s.cacheTTL)) {
		return entry.value, nil
	}

	s.logger.Debug().
		Str("provider", s.provider.Name()).
		Str("cache_key", key).
		Msgf("fetching %s from provider", what)

	value, err := fetch()
	if err != nil {
		s.logger.Error().Err(err).Str("cache_key", key).Msgf("failed to fetch %s", what)

		if entry != nil && s.now().Before(entry.fetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().
				Time("fetched_at", entry.fetchedAt).
				Msgf("serving stale %s due to provider error", what)
			return entry.value, nil
		}

		var zero T
		return zero, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	entry = &cached[T]{value: value, fetchedAt: s.now()}
	if err := cache.SetWithExpire(key, entry, s.staleIfErrorTTL); err != nil {
		s.logger.Debug().Err(err).Msg("failed to cache weather data")
	}
	return value, nil
}

// cacheKey snaps a location to its grid cell.
func (s *Service) cacheKey(loc geo.Location) string {
	gridLat := math.Floor(loc.Lat/s.cacheGridSize) * s.cacheGridSize
	gridLng := math.Floor(loc.Lng/s.cacheGridSize) * s.cacheGridSize
	return fmt.Sprintf("%.2f:%.2f", gridLat, gridLng)
}
