package route

import (
	"fmt"
	"slices"
	"time"

	"github.com/citynav/citynav/internal/mode"
)

// Carbon and comfort label thresholds.
const (
	lowCarbonPerKm    = 30.0
	mediumCarbonPerKm = 100.0
	highComfortScore  = 7.5
	midComfortScore   = 5.0
)

// Clone returns a deep copy of the route.
func (r Route) Clone() Route {
	out := r
	out.Segments = slices.Clone(r.Segments)
	out.ModesUsed = slices.Clone(r.ModesUsed)
	out.Warnings = slices.Clone(r.Warnings)
	return out
}

// Recompute refreshes the aggregates derived from the segment list:
// totals, transfer count and modes used.
func (r Route) Recompute() Route {
	var (
		distance float64
		duration int
		cost     int
	)
	for _, s := range r.Segments {
		distance += s.Distance
		duration += s.Duration + s.WaitTime
		cost += s.Cost
	}
	r.TotalDistance = distance
	r.TotalDuration = duration
	r.TotalCost = cost
	r.TransferCount = TransferCount(r.Segments)
	r.ModesUsed = ModesUsed(r.Segments)
	return r
}

// WithWarning returns a copy of the route with the warning appended.
func (r Route) WithWarning(format string, args ...any) Route {
	out := r.Clone()
	out.Warnings = append(out.Warnings, fmt.Sprintf(format, args...))
	return out
}

// UsesMode reports whether any segment uses m.
func (r Route) UsesMode(m mode.Mode) bool {
	return slices.Contains(r.ModesUsed, m)
}

// UsesAnyMode reports whether any segment uses one of modes.
func (r Route) UsesAnyMode(modes []mode.Mode) bool {
	for _, m := range modes {
		if r.UsesMode(m) {
			return true
		}
	}
	return false
}

// WalkingDistance is the total distance of the walking segments in meters.
func (r Route) WalkingDistance() float64 {
	var d float64
	for _, s := range r.Segments {
		if s.Mode == mode.Walk {
			d += s.Distance
		}
	}
	return d
}

// LongestWalk is the longest single walking segment in meters.
func (r Route) LongestWalk() float64 {
	var d float64
	for _, s := range r.Segments {
		if s.Mode == mode.Walk && s.Distance > d {
			d = s.Distance
		}
	}
	return d
}

// EffectiveModifier is the score modifier, treating the zero value as 1.
func (r Route) EffectiveModifier() float64 {
	if r.ScoreModifier == 0 {
		return 1
	}
	return r.ScoreModifier
}

// TransferCount is the number of adjacent segment pairs whose modes differ.
func TransferCount(segments []Segment) int {
	n := 0
	for i := 1; i < len(segments); i++ {
		if segments[i].Mode != segments[i-1].Mode {
			n++
		}
	}
	return n
}

// ModesUsed returns the unique modes in first-use order.
func ModesUsed(segments []Segment) []mode.Mode {
	modes := make([]mode.Mode, 0, len(segments))
	for _, s := range segments {
		if !slices.Contains(modes, s.Mode) {
			modes = append(modes, s.Mode)
		}
	}
	return modes
}

// CarbonLabel maps an average emission rate in g CO2/km to a label.
func CarbonLabel(gramsPerKm float64) CarbonLevel {
	switch {
	case gramsPerKm < lowCarbonPerKm:
		return CarbonLow
	case gramsPerKm < mediumCarbonPerKm:
		return CarbonMedium
	default:
		return CarbonHigh
	}
}

// ComfortLabel maps a 0-10 comfort score to a label.
func ComfortLabel(score float64) ComfortLevel {
	switch {
	case score >= highComfortScore:
		return ComfortHigh
	case score >= midComfortScore:
		return ComfortMedium
	default:
		return ComfortLow
	}
}

// Validate checks the request coordinates and preference enums.
func (req Request) Validate() error {
	if !req.Source.Valid() {
		return ErrInvalidSource
	}
	if !req.Destination.Valid() {
		return ErrInvalidDestination
	}
	if !req.Preferences.Prioritize.Valid() {
		return fmt.Errorf("%w: prioritize %q", ErrInvalidPreference, req.Preferences.Prioritize)
	}
	for _, m := range append(slices.Clone(req.Preferences.AvoidModes), req.Preferences.PreferModes...) {
		if !m.Valid() {
			return fmt.Errorf("%w: mode %q", ErrInvalidPreference, m)
		}
	}
	if !req.Context.WeatherCondition.Valid() {
		return fmt.Errorf("%w: weather %q", ErrInvalidPreference, req.Context.WeatherCondition)
	}
	return nil
}

// DepartureTime resolves the trip time, falling back to now.
func (req Request) DepartureTime(now time.Time) time.Time {
	if req.Context.TimeOfDay != nil {
		return *req.Context.TimeOfDay
	}
	return now
}

// User returns the traveller context. AccessibilityMode in the preferences
// implies accessibility needs.
func (req Request) User() UserContext {
	var u UserContext
	if req.Context.User != nil {
		u = *req.Context.User
	}
	if req.Preferences.AccessibilityMode {
		u.AccessibilityNeeds = true
	}
	return u
}
