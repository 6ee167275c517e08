package transit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/bluele/gcache"
	"github.com/rs/zerolog"

	"github.com/citynav/citynav/internal/geo"
)

// ServiceConfig holds configuration for the transit service.
type ServiceConfig struct {
	// Provider is the live stop provider. Nil means synthetic stops only.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long a lookup stays fresh (default: 10 minutes).
	CacheTTL time.Duration

	// StaleIfErrorTTL allows serving stale data on provider errors (default: 1 hour).
	StaleIfErrorTTL time.Duration

	// CacheSize bounds the LRU cache (default: 2048 entries).
	CacheSize int

	// Timeout bounds each provider call (default: 10 seconds).
	Timeout time.Duration

	// DisableSyntheticFallback makes failed or empty lookups return an
	// error instead of synthetic stops.
	DisableSyntheticFallback bool

	// Now overrides the clock (tests).
	Now func() time.Time
}

// Service resolves nearby stops with caching and graceful degradation.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	staleIfErrorTTL time.Duration
	timeout         time.Duration
	synthetic       bool
	now             func() time.Time

	cache gcache.Cache
}

type cachedStops struct {
	stops     NearbyStops
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new transit service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = time.Hour
	}

	size := cfg.CacheSize
	if size <= 0 {
		size = 2048
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		staleIfErrorTTL: staleIfErrorTTL,
		timeout:         timeout,
		synthetic:       !cfg.DisableSyntheticFallback,
		now:             now,
		cache:           gcache.New(size).LRU().Build(),
	}
}

// Name returns the name of the underlying provider.
func (s *Service) Name() string {
	if s.provider == nil {
		return SyntheticSource
	}
	return s.provider.Name()
}

// FindNearbyStops returns the stops within radius meters of loc.
func (s *Service) FindNearbyStops(ctx context.Context, loc geo.Location, radius float64) (NearbyStops, error) {
	key := cacheKey(loc, radius)

	cached := s.cached(key)
	if cached != nil && s.now().Before(cached.expiresAt) {
		return cached.stops, nil
	}

	if s.provider == nil {
		return s.fallback(loc, radius, ErrProviderUnavailable)
	}

	s.logger.Debug().
		Str("provider", s.provider.Name()).
		Float64("lat", loc.Lat).
		Float64("lng", loc.Lng).
		Float64("radius", radius).
		Msg("fetching nearby stops from provider")

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stops, err := s.provider.FindStops(callCtx, loc, radius)
	if err != nil {
		s.logger.Warn().Err(err).Str("provider", s.provider.Name()).Msg("failed to fetch nearby stops")

		if cached != nil && s.now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().
				Time("fetched_at", cached.fetchedAt).
				Msg("serving stale stop data due to provider error")
			return cached.stops, nil
		}

		return s.fallback(loc, radius, err)
	}

	now := s.now()
	result := Group(loc, radius, stops)
	result.Source = s.provider.Name()
	result.FetchedAt = now

	if result.IsEmpty() {
		return s.fallback(loc, radius, ErrNoStops)
	}

	entry := &cachedStops{stops: result, fetchedAt: now, expiresAt: now.Add(s.cacheTTL)}
	if err := s.cache.SetWithExpire(key, entry, s.staleIfErrorTTL); err != nil {
		s.logger.Debug().Err(err).Msg("failed to cache nearby stops")
	}

	return result, nil
}

// InvalidateCache clears all cached lookups.
func (s *Service) InvalidateCache() {
	s.cache.Purge()
}

func (s *Service) cached(key string) *cachedStops {
	v, err := s.cache.Get(key)
	if err != nil {
		return nil
	}
	entry, ok := v.(*cachedStops)
	if !ok {
		return nil
	}
	return entry
}

func (s *Service) fallback(loc geo.Location, radius float64, cause error) (NearbyStops, error) {
	if !s.synthetic {
		return NearbyStops{}, &LookupError{Provider: s.Name(), Op: "find nearby stops", Err: cause}
	}

	evt := s.logger.Warn()
	if s.provider == nil {
		evt = s.logger.Debug()
	}
	evt.Err(cause).Str("provider", s.Name()).Msg("using synthetic stops")

	result := Synthetic(loc, radius)
	result.FetchedAt = s.now()
	return result, nil
}

// cacheKey buckets coordinates to roughly 11 m.
func cacheKey(loc geo.Location, radius float64) string {
	return fmt.Sprintf("%.4f:%.4f:%d", roundTo(loc.Lat, 4), roundTo(loc.Lng, 4), int(radius))
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
