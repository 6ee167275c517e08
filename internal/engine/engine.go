// Package engine orchestrates a route calculation: city detection, transit
// stop lookup, synthesis, context adjustment, constraint filtering, scoring
// and selection.
package engine

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/citynav/citynav/internal/adjust"
	"github.com/citynav/citynav/internal/city"
	"github.com/citynav/citynav/internal/geo"
	"github.com/citynav/citynav/internal/journey"
	"github.com/citynav/citynav/internal/mode"
	"github.com/citynav/citynav/internal/route"
	"github.com/citynav/citynav/internal/scoring"
	"github.com/citynav/citynav/internal/synthesis"
	"github.com/citynav/citynav/internal/transit"
)

const instrumentationName = "github.com/citynav/citynav/internal/engine"

// DefaultMaxRoutes caps the routes returned in a response.
const DefaultMaxRoutes = 6

// Config holds the engine's collaborators.
type Config struct {
	// Catalog is the mode configuration table. A fresh catalog is created
	// when nil.
	Catalog *mode.Catalog

	// Locator finds transit stops. Defaults to a synthetic-only transit service.
	Locator transit.Locator

	// Logger for engine operations.
	Logger zerolog.Logger

	// Now is the clock used when a request carries no departure time.
	Now func() time.Time

	// MaxRoutes caps the ranked list (default: 6).
	MaxRoutes int

	// IDGenerator overrides route and segment IDs, mainly for tests.
	IDGenerator func() string

	Tracer trace.Tracer
	Meter  metric.Meter
}

// Engine calculates multimodal routes. It holds no per-request state and
// is safe for concurrent use.
type Engine struct {
	catalog     *mode.Catalog
	locator     transit.Locator
	synthesizer *synthesis.Synthesizer
	logger      zerolog.Logger
	now         func() time.Time
	maxRoutes   int
	tracer      trace.Tracer
	metrics     *metrics
}

// New creates an engine.
func New(cfg Config) (*Engine, error) {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = mode.NewCatalog()
	}

	locator := cfg.Locator
	if locator == nil {
		locator = transit.NewService(transit.ServiceConfig{Logger: cfg.Logger})
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	maxRoutes := cfg.MaxRoutes
	if maxRoutes <= 0 {
		maxRoutes = DefaultMaxRoutes
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}

	meter := cfg.Meter
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}
	m, err := newMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("creating engine metrics: %w", err)
	}

	var opts []synthesis.Option
	if cfg.IDGenerator != nil {
		opts = append(opts, synthesis.WithIDGenerator(cfg.IDGenerator))
	}

	return &Engine{
		catalog:     catalog,
		locator:     locator,
		synthesizer: synthesis.New(catalog, opts...),
		logger:      cfg.Logger,
		now:         now,
		maxRoutes:   maxRoutes,
		tracer:      tracer,
		metrics:     m,
	}, nil
}

// Catalog returns the engine's mode catalog.
func (e *Engine) Catalog() *mode.Catalog {
	return e.catalog
}

// CalculateRoutes computes, ranks and selects routes for a request. It
// never returns an error: invalid input and internal failures are reported
// in Response.Errors. An empty route list without errors means no route
// was feasible.
func (e *Engine) CalculateRoutes(ctx context.Context, req route.Request) (resp route.Response) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "engine.CalculateRoutes")
	defer span.End()

	resp = route.Response{
		Request:      req,
		Routes:       []route.Route{},
		City:         city.Unknown,
		Band:         journey.BandUnknown,
		CalculatedAt: e.now(),
	}

	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error().
				Interface("panic", rec).
				Str("city", string(resp.City)).
				Msg("route calculation panicked")
			span.SetStatus(codes.Error, "panic")
			resp.Routes = []route.Route{}
			resp.Top = nil
			resp.Errors = append(resp.Errors, fmt.Sprintf("internal error: %v", rec))
		}
		resp.ComputationTimeMs = time.Since(start).Milliseconds()
		e.metrics.record(ctx, resp, time.Since(start))
	}()

	if err := req.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		resp.Errors = append(resp.Errors, err.Error())
		return resp
	}

	distance := geo.Distance(req.Source, req.Destination)
	band := journey.DetermineStrategy(distance)
	cityID := city.DetectLocation(req.Source)
	resp.City = cityID
	resp.Band = band

	span.SetAttributes(
		attribute.String("city", string(cityID)),
		attribute.String("band", string(band)),
		attribute.Float64("distance_m", distance),
	)

	e.logger.Debug().
		Str("city", string(cityID)).
		Str("band", string(band)).
		Float64("distance_m", distance).
		Msg("calculating routes")

	in := synthesis.Input{Request: req, City: cityID}
	if band != journey.BandUltraShort {
		in.SourceStops, in.DestinationStops = e.findStops(ctx, req, synthesis.StopSearchRadius(band))
	}

	candidates := e.synthesizer.Synthesize(in)
	e.logger.Debug().Int("candidates", len(candidates)).Msg("synthesized candidate routes")

	cityCtx := city.ContextFor(cityID)
	adjustCtx := adjust.NewContext(req, cityCtx, e.now())
	kept, dropped := adjust.ApplyAll(candidates, adjustCtx)
	for _, r := range dropped {
		e.logger.Debug().
			Str("route_id", r.ID).
			Strs("warnings", r.Warnings).
			Msg("route dropped by availability filter")
		resp.Warnings = appendUnique(resp.Warnings, availabilityWarnings(r)...)
	}
	e.metrics.dropped.Add(ctx, int64(len(dropped)))

	filtered := scoring.ApplyConstraints(kept, req.Preferences)
	ranked := scoring.ScoreAndRank(filtered, req.Preferences)
	if len(ranked) > e.maxRoutes {
		ranked = ranked[:e.maxRoutes]
	}
	ranked = scoring.AssignRouteTypes(ranked)

	if len(ranked) > 0 {
		top, err := scoring.SelectTopRoutes(ranked)
		if err != nil {
			panic(err)
		}
		picks := top.Picks()
		resp.Top = &picks
	}
	resp.Routes = ranked
	resp.Warnings = appendUnique(resp.Warnings, city.Rules(cityID)...)

	span.SetAttributes(
		attribute.Int("routes.candidates", len(candidates)),
		attribute.Int("routes.returned", len(ranked)),
	)
	e.logger.Debug().
		Int("kept", len(kept)).
		Int("dropped", len(dropped)).
		Int("returned", len(ranked)).
		Msg("route calculation complete")

	return resp
}

// findStops looks up stops near both endpoints concurrently. A failed
// lookup yields an empty result; synthesis then omits transit candidates.
func (e *Engine) findStops(ctx context.Context, req route.Request, radius float64) (src, dst transit.NearbyStops) {
	ctx, span := e.tracer.Start(ctx, "engine.findStops",
		trace.WithAttributes(attribute.Float64("radius_m", radius)))
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		src = e.lookup(gctx, "source", req.Source, radius)
		return nil
	})
	g.Go(func() error {
		dst = e.lookup(gctx, "destination", req.Destination, radius)
		return nil
	})
	_ = g.Wait() //nolint:errcheck // lookups never return errors
	return src, dst
}

func (e *Engine) lookup(ctx context.Context, end string, loc geo.Location, radius float64) (stops transit.NearbyStops) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error().
				Interface("panic", rec).
				Str("end", end).
				Msg("transit stop lookup panicked")
			stops = transit.NearbyStops{}
		}
	}()

	stops, err := e.locator.FindNearbyStops(ctx, loc, radius)
	if err != nil {
		e.logger.Warn().Err(err).
			Str("end", end).
			Float64("lat", loc.Lat).
			Float64("lng", loc.Lng).
			Msg("transit stop lookup failed, transit routes omitted")
		return transit.NearbyStops{}
	}
	return stops
}

// availabilityWarnings returns the reason-coded warnings of a dropped route.
func availabilityWarnings(r route.Route) []string {
	var out []string
	for _, w := range r.Warnings {
		if len(w) > 0 && w[0] == '[' {
			out = append(out, w)
		}
	}
	return out
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}
