// Package city maps coordinates to a known city and its travel profile.
package city

import (
	"errors"
	"fmt"
	"strings"

	"github.com/citynav/citynav/internal/geo"
)

// ErrUnknownCity is returned by Parse for names that are not supported.
var ErrUnknownCity = errors.New("unknown city")

// ID identifies a supported city.
type ID string

// Supported cities. Unknown is returned when no bounding box matches.
const (
	Unknown   ID = "unknown"
	Delhi     ID = "delhi"
	Mumbai    ID = "mumbai"
	Bangalore ID = "bangalore"
	Chennai   ID = "chennai"
	Kolkata   ID = "kolkata"
	Hyderabad ID = "hyderabad"
	Pune      ID = "pune"
)

// TrafficLevel is the typical road congestion tier of a city.
type TrafficLevel string

const (
	TrafficLow      TrafficLevel = "low"
	TrafficMedium   TrafficLevel = "medium"
	TrafficHigh     TrafficLevel = "high"
	TrafficVeryHigh TrafficLevel = "very_high"
	TrafficExtreme  TrafficLevel = "extreme"
)

// Frequency is a service frequency tier.
type Frequency string

const (
	FrequencyLow      Frequency = "low"
	FrequencyMedium   Frequency = "medium"
	FrequencyHigh     Frequency = "high"
	FrequencyVeryHigh Frequency = "very_high"
)

// Availability is a vehicle availability tier.
type Availability string

const (
	AvailabilityLow    Availability = "low"
	AvailabilityMedium Availability = "medium"
	AvailabilityHigh   Availability = "high"
)

// Context is the environmental profile of a city.
type Context struct {
	City             ID           `json:"cityId"`
	HasMetro         bool         `json:"hasMetro"`
	MetroOperational bool         `json:"metroOperational"`
	BusFrequency     Frequency    `json:"busFrequency"`
	AutoAvailability Availability `json:"autoAvailability"`
	TrafficLevel     TrafficLevel `json:"trafficLevel"`
}

type entry struct {
	id      ID
	bounds  geo.BoundingBox
	context Context
	rules   []string
}

// cities is checked in order; the first box containing a point wins.
var cities = []entry{
	{
		id:     Delhi,
		bounds: geo.NewBoundingBox(28.40, 76.84, 28.90, 77.35),
		context: Context{
			City: Delhi, HasMetro: true, MetroOperational: true,
			BusFrequency: FrequencyHigh, AutoAvailability: AvailabilityHigh, TrafficLevel: TrafficVeryHigh,
		},
		rules: []string{
			"Odd-even rationing may apply to private cars on high-pollution days",
			"The first metro coach is reserved for women",
		},
	},
	{
		id:     Mumbai,
		bounds: geo.NewBoundingBox(18.89, 72.77, 19.27, 72.99),
		context: Context{
			City: Mumbai, HasMetro: true, MetroOperational: true,
			BusFrequency: FrequencyVeryHigh, AutoAvailability: AvailabilityMedium, TrafficLevel: TrafficExtreme,
		},
		rules: []string{
			"Auto-rickshaws are not permitted in the island city south of Bandra; use taxis or local trains",
			"Monsoon flooding can suspend road services between June and September",
		},
	},
	{
		id:     Bangalore,
		bounds: geo.NewBoundingBox(12.83, 77.46, 13.14, 77.78),
		context: Context{
			City: Bangalore, HasMetro: true, MetroOperational: true,
			BusFrequency: FrequencyHigh, AutoAvailability: AvailabilityHigh, TrafficLevel: TrafficExtreme,
		},
		rules: []string{
			"Outer Ring Road congestion adds significant delays during office hours",
		},
	},
	{
		id:     Chennai,
		bounds: geo.NewBoundingBox(12.90, 80.15, 13.23, 80.31),
		context: Context{
			City: Chennai, HasMetro: true, MetroOperational: true,
			BusFrequency: FrequencyHigh, AutoAvailability: AvailabilityHigh, TrafficLevel: TrafficHigh,
		},
	},
	{
		id:     Kolkata,
		bounds: geo.NewBoundingBox(22.45, 88.25, 22.65, 88.45),
		context: Context{
			City: Kolkata, HasMetro: true, MetroOperational: true,
			BusFrequency: FrequencyVeryHigh, AutoAvailability: AvailabilityMedium, TrafficLevel: TrafficHigh,
		},
		rules: []string{
			"Shared autos run fixed routes and may not go door to door",
		},
	},
	{
		id:     Hyderabad,
		bounds: geo.NewBoundingBox(17.28, 78.33, 17.55, 78.60),
		context: Context{
			City: Hyderabad, HasMetro: true, MetroOperational: true,
			BusFrequency: FrequencyHigh, AutoAvailability: AvailabilityHigh, TrafficLevel: TrafficHigh,
		},
	},
	{
		id:     Pune,
		bounds: geo.NewBoundingBox(18.43, 73.74, 18.63, 73.98),
		context: Context{
			City: Pune, HasMetro: true, MetroOperational: true,
			BusFrequency: FrequencyMedium, AutoAvailability: AvailabilityHigh, TrafficLevel: TrafficHigh,
		},
	},
}

// Detect returns the city whose bounding box contains the point, or Unknown.
func Detect(lat, lng float64) ID {
	for i := range cities {
		if cities[i].bounds.Contains(lat, lng) {
			return cities[i].id
		}
	}
	return Unknown
}

// DetectLocation is Detect for a geo.Location.
func DetectLocation(loc geo.Location) ID {
	return Detect(loc.Lat, loc.Lng)
}

// ContextFor returns the profile of a city. Unknown and unrecognised IDs
// get the neutral default profile.
func ContextFor(id ID) Context {
	if e, ok := lookup(id); ok {
		return e.context
	}
	return DefaultContext()
}

// DefaultContext is the profile used when the city is not known.
func DefaultContext() Context {
	return Context{
		City:             Unknown,
		HasMetro:         false,
		MetroOperational: false,
		BusFrequency:     FrequencyMedium,
		AutoAvailability: AvailabilityHigh,
		TrafficLevel:     TrafficMedium,
	}
}

// Rules returns human-readable special rules for a city. The returned
// slice is a copy and never nil.
func Rules(id ID) []string {
	e, ok := lookup(id)
	if !ok {
		return []string{}
	}
	out := make([]string, len(e.rules))
	copy(out, e.rules)
	return out
}

// Known returns the supported city IDs in detection order.
func Known() []ID {
	ids := make([]ID, 0, len(cities))
	for i := range cities {
		ids = append(ids, cities[i].id)
	}
	return ids
}

// Parse resolves a city name case-insensitively. "default" and "unknown"
// both map to Unknown, which addresses the global defaults.
func Parse(s string) (ID, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "default", string(Unknown):
		return Unknown, nil
	}
	if id := ID(name); id.IsKnown() {
		return id, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCity, s)
}

// IsKnown reports whether id is a supported city.
func (id ID) IsKnown() bool {
	_, ok := lookup(id)
	return ok
}

func lookup(id ID) (*entry, bool) {
	if id == Unknown {
		return nil, false
	}
	for i := range cities {
		if cities[i].id == id {
			return &cities[i], true
		}
	}
	return nil, false
}
