// Package mode holds the transport mode catalog: per-mode speed, fare and
// quality parameters plus per-city overrides.
package mode

import (
	"errors"
	"fmt"
	"time"

	"github.com/citynav/citynav/internal/city"
)

// Catalog errors.
var (
	ErrUnknownMode      = errors.New("unknown transport mode")
	ErrOverrideNotFound = errors.New("mode override not found")
	ErrInvalidOverride  = errors.New("invalid mode override")
)

// Mode is a transport mode.
type Mode string

const (
	Walk  Mode = "walk"
	Bus   Mode = "bus"
	Metro Mode = "metro"
	Auto  Mode = "auto"
	Cab   Mode = "cab"
	Bike  Mode = "bike"
)

// All returns every mode in catalog order.
func All() []Mode {
	return []Mode{Walk, Bus, Metro, Auto, Cab, Bike}
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case Walk, Bus, Metro, Auto, Cab, Bike:
		return true
	}
	return false
}

// Parse converts a string to a Mode.
func Parse(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}

// IsRoadBound reports whether the mode shares the road with general traffic.
func (m Mode) IsRoadBound() bool {
	return m == Bus || m == Auto || m == Cab
}

// IsTransit reports whether the mode runs on a schedule from fixed stops.
func (m Mode) IsTransit() bool {
	return m == Bus || m == Metro
}

// ComfortFactor is the fixed 0..1 comfort weight used by route scoring.
func ComfortFactor(m Mode) float64 {
	switch m {
	case Walk:
		return 0.6
	case Bus:
		return 0.5
	case Metro:
		return 0.8
	case Auto:
		return 0.6
	case Cab:
		return 0.9
	case Bike:
		return 0.7
	default:
		return 0.5
	}
}

// HoursWindow is a daily operating window in whole hours, [Open, Close).
type HoursWindow struct {
	Open  int `json:"open"`
	Close int `json:"close"`
}

// Contains reports whether the hour falls inside the window.
func (w HoursWindow) Contains(hour int) bool {
	if w.Open <= w.Close {
		return hour >= w.Open && hour < w.Close
	}
	// Window wraps midnight.
	return hour >= w.Open || hour < w.Close
}

// Config holds the static parameters of a mode.
type Config struct {
	AverageSpeedKmh  float64      `json:"averageSpeedKmh"`
	BaseFare         float64      `json:"baseFare"`
	CostPerKm        float64      `json:"costPerKm,omitempty"`
	ComfortScore     float64      `json:"comfortScore"`     // 0-10
	ReliabilityScore float64      `json:"reliabilityScore"` // 0-10
	CarbonPerKm      float64      `json:"carbonPerKm"`      // g CO2/km
	OperatingHours   *HoursWindow `json:"operatingHours,omitempty"`
	MinDistance      *float64     `json:"minDistance,omitempty"` // meters
	MaxDistance      *float64     `json:"maxDistance,omitempty"` // meters
}

// Duration returns the travel time in minutes for a distance in meters.
func (c Config) Duration(distanceMeters float64) float64 {
	if c.AverageSpeedKmh <= 0 {
		return 0
	}
	return (distanceMeters / 1000 / c.AverageSpeedKmh) * 60
}

// Cost returns the fare for a distance in meters.
func (c Config) Cost(distanceMeters float64) float64 {
	return c.BaseFare + c.CostPerKm*(distanceMeters/1000)
}

// Disabled reports whether the config carries the explicit zero-distance
// disablement signal.
func (c Config) Disabled() bool {
	return c.MaxDistance != nil && *c.MaxDistance == 0
}

// Override is a partial Config. Nil fields leave the base value untouched.
type Override struct {
	AverageSpeedKmh  *float64     `json:"averageSpeedKmh,omitempty"`
	BaseFare         *float64     `json:"baseFare,omitempty"`
	CostPerKm        *float64     `json:"costPerKm,omitempty"`
	ComfortScore     *float64     `json:"comfortScore,omitempty"`
	ReliabilityScore *float64     `json:"reliabilityScore,omitempty"`
	CarbonPerKm      *float64     `json:"carbonPerKm,omitempty"`
	OperatingHours   *HoursWindow `json:"operatingHours,omitempty"`
	MinDistance      *float64     `json:"minDistance,omitempty"`
	MaxDistance      *float64     `json:"maxDistance,omitempty"`
}

// Apply shallow-merges the override onto base and returns the result.
func (o Override) Apply(base Config) Config {
	out := base
	if o.AverageSpeedKmh != nil {
		out.AverageSpeedKmh = *o.AverageSpeedKmh
	}
	if o.BaseFare != nil {
		out.BaseFare = *o.BaseFare
	}
	if o.CostPerKm != nil {
		out.CostPerKm = *o.CostPerKm
	}
	if o.ComfortScore != nil {
		out.ComfortScore = *o.ComfortScore
	}
	if o.ReliabilityScore != nil {
		out.ReliabilityScore = *o.ReliabilityScore
	}
	if o.CarbonPerKm != nil {
		out.CarbonPerKm = *o.CarbonPerKm
	}
	if o.OperatingHours != nil {
		hours := *o.OperatingHours
		out.OperatingHours = &hours
	}
	if o.MinDistance != nil {
		out.MinDistance = float64Ptr(*o.MinDistance)
	}
	if o.MaxDistance != nil {
		out.MaxDistance = float64Ptr(*o.MaxDistance)
	}
	return out
}

// Merge layers next on top of o; fields set in next win.
func (o Override) Merge(next Override) Override {
	out := o
	if next.AverageSpeedKmh != nil {
		out.AverageSpeedKmh = next.AverageSpeedKmh
	}
	if next.BaseFare != nil {
		out.BaseFare = next.BaseFare
	}
	if next.CostPerKm != nil {
		out.CostPerKm = next.CostPerKm
	}
	if next.ComfortScore != nil {
		out.ComfortScore = next.ComfortScore
	}
	if next.ReliabilityScore != nil {
		out.ReliabilityScore = next.ReliabilityScore
	}
	if next.CarbonPerKm != nil {
		out.CarbonPerKm = next.CarbonPerKm
	}
	if next.OperatingHours != nil {
		out.OperatingHours = next.OperatingHours
	}
	if next.MinDistance != nil {
		out.MinDistance = next.MinDistance
	}
	if next.MaxDistance != nil {
		out.MaxDistance = next.MaxDistance
	}
	return out
}

// Validate rejects empty overrides, negative values, scores outside 0-10
// and hours outside 0-24.
func (o Override) Validate() error {
	if o.IsEmpty() {
		return fmt.Errorf("%w: no fields set", ErrInvalidOverride)
	}

	nonNegative := []struct {
		field string
		value *float64
	}{
		{"averageSpeedKmh", o.AverageSpeedKmh},
		{"baseFare", o.BaseFare},
		{"costPerKm", o.CostPerKm},
		{"carbonPerKm", o.CarbonPerKm},
		{"minDistance", o.MinDistance},
		{"maxDistance", o.MaxDistance},
	}
	for _, f := range nonNegative {
		if f.value != nil && *f.value < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidOverride, f.field)
		}
	}

	for field, score := range map[string]*float64{"comfortScore": o.ComfortScore, "reliabilityScore": o.ReliabilityScore} {
		if score != nil && (*score < 0 || *score > 10) {
			return fmt.Errorf("%w: %s must be between 0 and 10", ErrInvalidOverride, field)
		}
	}

	if h := o.OperatingHours; h != nil {
		if h.Open < 0 || h.Open > 24 || h.Close < 0 || h.Close > 24 {
			return fmt.Errorf("%w: operatingHours must be between 0 and 24", ErrInvalidOverride)
		}
	}
	return nil
}

// IsEmpty reports whether the override sets no fields.
func (o Override) IsEmpty() bool {
	return o == Override{}
}

// StoredOverride is a persisted override for a city (or city.Unknown for
// the global defaults).
type StoredOverride struct {
	City      city.ID
	Mode      Mode
	Override  Override
	UpdatedAt time.Time
}

func float64Ptr(f float64) *float64 {
	return &f
}
