// Package transit locates public transport stops near a point. Live
// providers sit behind a caching Service that degrades to synthetic stops
// when the live lookup fails or comes back empty.
package transit

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/citynav/citynav/internal/geo"
)

// Transit errors.
var (
	ErrProviderUnavailable = errors.New("transit provider unavailable")
	ErrNoStops             = errors.New("no transit stops found")
)

// StopType is the kind of transit stop.
type StopType string

const (
	StopTypeUnknown StopType = ""
	BusStop         StopType = "bus_stop"
	MetroStation    StopType = "metro_station"
	RailwayStation  StopType = "railway_station"
	TramStop        StopType = "tram_stop"
)

// ParseStopType converts a stored or wire value to a StopType.
func ParseStopType(s string) StopType {
	switch StopType(s) {
	case BusStop, MetroStation, RailwayStation, TramStop:
		return StopType(s)
	}
	return StopTypeUnknown
}

// Stop is a transit stop near a query point.
type Stop struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Type     StopType     `json:"type"`
	Location geo.Location `json:"location"`
	Distance float64      `json:"distance"` // meters from the query point
	Routes   []string     `json:"routes,omitempty"`
	Operator string       `json:"operator,omitempty"`
}

// NearbyStops groups stops around a point by type, each list sorted by
// distance ascending.
type NearbyStops struct {
	BusStops        []Stop    `json:"busStops"`
	MetroStations   []Stop    `json:"metroStations"`
	RailwayStations []Stop    `json:"railwayStations"`
	Source          string    `json:"source"`
	FetchedAt       time.Time `json:"fetchedAt"`
}

// IsEmpty reports whether no stop of any type was found.
func (n NearbyStops) IsEmpty() bool {
	return len(n.BusStops) == 0 && len(n.MetroStations) == 0 && len(n.RailwayStations) == 0
}

// Of returns the stops of a type. Tram stops are not tracked separately.
func (n NearbyStops) Of(t StopType) []Stop {
	switch t {
	case BusStop:
		return n.BusStops
	case MetroStation:
		return n.MetroStations
	case RailwayStation:
		return n.RailwayStations
	}
	return nil
}

// Nearest returns the closest stop of a type within maxDistance meters.
func (n NearbyStops) Nearest(t StopType, maxDistance float64) (Stop, bool) {
	var (
		best  Stop
		found bool
	)
	for _, s := range n.Of(t) {
		if s.Distance > maxDistance {
			continue
		}
		if !found || s.Distance < best.Distance {
			best, found = s, true
		}
	}
	return best, found
}

// Group sorts stops into a NearbyStops value measured from origin, keeping
// only those within radius meters. Tram stops are dropped.
func Group(origin geo.Location, radius float64, stops []Stop) NearbyStops {
	var out NearbyStops
	for _, s := range stops {
		s.Distance = geo.Distance(origin, s.Location)
		if s.Distance > radius {
			continue
		}
		switch s.Type {
		case BusStop:
			out.BusStops = append(out.BusStops, s)
		case MetroStation:
			out.MetroStations = append(out.MetroStations, s)
		case RailwayStation:
			out.RailwayStations = append(out.RailwayStations, s)
		}
	}
	byDistance := func(list []Stop) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Distance < list[j].Distance })
	}
	byDistance(out.BusStops)
	byDistance(out.MetroStations)
	byDistance(out.RailwayStations)
	return out
}

// Provider is a live source of stop data.
type Provider interface {
	// FindStops returns the stops within radius meters of loc, in any order.
	FindStops(ctx context.Context, loc geo.Location, radius float64) ([]Stop, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// Locator resolves nearby stops for the route engine. Errors are
// *LookupError values.
type Locator interface {
	FindNearbyStops(ctx context.Context, loc geo.Location, radius float64) (NearbyStops, error)
}

// LookupError describes a failed stop lookup.
type LookupError struct {
	Provider string
	Op       string
	Err      error
}

func (e *LookupError) Error() string {
	return "transit " + e.Op + " via " + e.Provider + ": " + e.Err.Error()
}

func (e *LookupError) Unwrap() error {
	return e.Err
}
