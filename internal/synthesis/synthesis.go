// Package synthesis builds candidate multimodal routes for a trip, choosing
// strategies by distance band.
package synthesis

import (
	"cmp"
	"math"
	"slices"

	"github.com/google/uuid"

	"github.com/citynav/citynav/internal/city"
	"github.com/citynav/citynav/internal/geo"
	"github.com/citynav/citynav/internal/journey"
	"github.com/citynav/citynav/internal/mode"
	"github.com/citynav/citynav/internal/route"
	"github.com/citynav/citynav/internal/transit"
)

// Walking thresholds (meters) for transit feasibility.
const (
	BusWalkRadius     = 500.0
	MetroWalkRadius   = 800.0
	LongStationRadius = 2000.0

	// costWeight converts fare to minutes in the pre-sort composite.
	costWeight = 0.5
)

// StopSearchRadius is the radius the stop locator should be queried with
// for a band.
func StopSearchRadius(band journey.Band) float64 {
	switch band {
	case journey.BandLong, journey.BandVeryLong:
		return LongStationRadius
	default:
		return 1000
	}
}

// Input is a resolved synthesis request.
type Input struct {
	Request          route.Request
	City             city.ID
	SourceStops      transit.NearbyStops
	DestinationStops transit.NearbyStops
}

// Synthesizer builds candidate routes from the mode catalog.
type Synthesizer struct {
	catalog *mode.Catalog
	newID   func() string
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithIDGenerator overrides the route and segment ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Synthesizer) { s.newID = fn }
}

// New creates a synthesizer backed by catalog.
func New(catalog *mode.Catalog, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		catalog: catalog,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// trip is the per-call state shared by the strategy builders.
type trip struct {
	in    Input
	total float64
	band  journey.Band
}

func (t trip) source() geo.Location      { return t.in.Request.Source }
func (t trip) destination() geo.Location { return t.in.Request.Destination }

// Synthesize returns the candidate routes for the request sorted ascending
// by duration + 0.5 x cost. Infeasible candidates are omitted; an empty
// result is not an error.
func (s *Synthesizer) Synthesize(in Input) []route.Route {
	total := geo.Distance(in.Request.Source, in.Request.Destination)
	t := trip{in: in, total: total, band: journey.DetermineStrategy(total)}

	var builders []func(trip) (route.Route, bool)
	switch t.band {
	case journey.BandUltraShort:
		builders = []func(trip) (route.Route, bool){s.walkOnly, s.autoDirect}
	case journey.BandShort:
		builders = []func(trip) (route.Route, bool){s.walkOnly, s.autoDirect, s.busRoute}
	case journey.BandMedium:
		builders = []func(trip) (route.Route, bool){s.metroRoute, s.busRoute, s.autoDirect, s.walkMetroWalk}
	case journey.BandLong:
		builders = []func(trip) (route.Route, bool){s.metroAutoCombo, s.cabDirect, s.busMetroBus, s.metroBus}
	case journey.BandVeryLong:
		builders = []func(trip) (route.Route, bool){s.cabDirect, s.metroAutoCombo}
	}

	routes := make([]route.Route, 0, len(builders))
	for _, build := range builders {
		if r, ok := build(t); ok {
			routes = append(routes, r)
		}
	}

	slices.SortStableFunc(routes, func(a, b route.Route) int {
		return cmp.Compare(composite(a), composite(b))
	})
	return routes
}

// SeedScore is the provisional score given to freshly built routes.
func SeedScore(r route.Route) float64 {
	return 100 / (1 + composite(r))
}

func composite(r route.Route) float64 {
	return float64(r.TotalDuration) + costWeight*float64(r.TotalCost)
}

// segment builds a leg with catalog-derived duration and cost.
func (s *Synthesizer) segment(cityID city.ID, m mode.Mode, from, to geo.Location, distance float64, instruction, routeName string) route.Segment {
	cfg := s.catalog.ConfigFor(cityID, m)
	seg := route.Segment{
		ID:          s.newID(),
		Mode:        m,
		From:        from,
		To:          to,
		Distance:    math.Round(math.Max(distance, 0)),
		Duration:    int(math.Round(cfg.Duration(distance))),
		Cost:        int(math.Round(cfg.Cost(distance))),
		Instruction: instruction,
		RouteName:   routeName,
	}
	if m != mode.Walk && m != mode.Bike {
		seg.WaitTime = journey.WaitTime(m)
	}
	return seg
}

// assemble validates mode adjacency and city availability, then derives
// aggregates and quality labels.
func (s *Synthesizer) assemble(cityID city.ID, segments []route.Segment, description string) (route.Route, bool) {
	if len(segments) == 0 {
		return route.Route{}, false
	}
	for i, seg := range segments {
		if !s.catalog.IsAvailableInCity(cityID, seg.Mode) {
			return route.Route{}, false
		}
		if i == 0 {
			continue
		}
		prev := segments[i-1].Mode
		if prev == seg.Mode {
			continue
		}
		if !journey.CanCombineModes(prev, seg.Mode) {
			return route.Route{}, false
		}
		segments[i].TransferTime = journey.TransferTime(seg.Mode)
	}

	r := route.Route{
		ID:            s.newID(),
		Segments:      segments,
		Description:   description,
		ScoreModifier: 1,
	}.Recompute()

	r.CarbonFootprint, r.ComfortLevel, r.ReliabilityScore = s.qualities(cityID, segments)
	r.Score = SeedScore(r)
	return r, true
}

// qualities computes the distance-weighted carbon, comfort and reliability
// of a segment list.
func (s *Synthesizer) qualities(cityID city.ID, segments []route.Segment) (route.CarbonLevel, route.ComfortLevel, float64) {
	var (
		km, carbon, comfort, reliability float64
		plainComfort, plainReliability   float64
	)
	for _, seg := range segments {
		cfg := s.catalog.ConfigFor(cityID, seg.Mode)
		d := seg.Distance / 1000
		km += d
		carbon += cfg.CarbonPerKm * d
		comfort += cfg.ComfortScore * d
		reliability += cfg.ReliabilityScore * d
		plainComfort += cfg.ComfortScore
		plainReliability += cfg.ReliabilityScore
	}

	if km == 0 {
		n := float64(len(segments))
		return route.CarbonLow, route.ComfortLabel(plainComfort / n), plainReliability / n * 10
	}
	return route.CarbonLabel(carbon / km), route.ComfortLabel(comfort / km), reliability / km * 10
}
