// Package journey classifies trips into distance bands and splits them into
// first-mile, main and last-mile legs.
package journey

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/citynav/citynav/internal/geo"
	"github.com/citynav/citynav/internal/mode"
)

// ErrInvalidSegmentCount is returned by AllocateDistances for counts outside 1..3.
var ErrInvalidSegmentCount = errors.New("segment count must be 1, 2 or 3")

// Band upper bounds in meters (exclusive).
const (
	UltraShortMax = 500.0
	ShortMax      = 2000.0
	MediumMax     = 10000.0
	LongMax       = 20000.0
)

// Canonical first/last-mile leg lengths in meters.
const (
	ComfortableWalk = 500.0
	BudgetWalk      = 1000.0
	AutoLeg         = 2000.0
	BusLeg          = 3000.0

	// LowBudget is the fare below which the last mile is always walked.
	LowBudget = 100.0

	transferBearing = 45.0
)

// Band is a trip distance classification.
type Band string

const (
	BandUnknown    Band = "UNKNOWN"
	BandUltraShort Band = "ULTRA_SHORT"
	BandShort      Band = "SHORT"
	BandMedium     Band = "MEDIUM"
	BandLong       Band = "LONG"
	BandVeryLong   Band = "VERY_LONG"
)

// DetermineStrategy classifies a trip distance in meters. Negative or NaN
// distances yield BandUnknown.
func DetermineStrategy(distance float64) Band {
	switch {
	case math.IsNaN(distance) || distance < 0:
		return BandUnknown
	case distance < UltraShortMax:
		return BandUltraShort
	case distance < ShortMax:
		return BandShort
	case distance < MediumMax:
		return BandMedium
	case distance < LongMax:
		return BandLong
	default:
		return BandVeryLong
	}
}

// TransferPoint is where one leg hands over to the next.
type TransferPoint struct {
	Location     geo.Location `json:"location"`
	Mode         mode.Mode    `json:"mode"`
	WaitTime     int          `json:"waitTime"`     // minutes
	TransferTime int          `json:"transferTime"` // minutes
}

// Leg is a first- or last-mile leg.
type Leg struct {
	Mode          mode.Mode
	Distance      float64 // meters
	TransferPoint TransferPoint
}

// WaitTime is the estimated wait in minutes before boarding a mode.
func WaitTime(m mode.Mode) int {
	switch m {
	case mode.Metro:
		return 4
	case mode.Bus:
		return 5
	case mode.Auto:
		return 2
	case mode.Cab:
		return 3
	default:
		return 0
	}
}

// TransferTime is the estimated time in minutes to change onto a mode.
func TransferTime(m mode.Mode) int {
	switch m {
	case mode.Metro:
		return 4
	case mode.Bus:
		return 3
	case mode.Auto, mode.Cab:
		return 2
	default:
		return 1
	}
}

// EstimateTransferPoint projects a placeholder transfer location at a fixed
// bearing and distance from origin. It is not a real stop.
func EstimateTransferPoint(origin geo.Location, m mode.Mode, distance float64) TransferPoint {
	loc := geo.Destination(origin, transferBearing, distance)
	loc.Name = fmt.Sprintf("Estimated %s transfer", m)
	return TransferPoint{
		Location:     loc,
		Mode:         m,
		WaitTime:     WaitTime(m),
		TransferTime: TransferTime(m),
	}
}

// FirstMile picks the leg from the source to the main-mode transfer point.
// Trips shorter than ShortMax need none; the returned leg then has zero
// distance and its transfer point sits at the source.
func FirstMile(source geo.Location, totalDistance float64, preferred []mode.Mode) Leg {
	if totalDistance < ShortMax {
		return Leg{
			Mode:     mode.Walk,
			Distance: 0,
			TransferPoint: TransferPoint{
				Location:     source,
				Mode:         mode.Walk,
				TransferTime: TransferTime(mode.Walk),
			},
		}
	}

	m, d := mode.Walk, ComfortableWalk
	switch {
	case slices.Contains(preferred, mode.Auto):
		m, d = mode.Auto, AutoLeg
	case slices.Contains(preferred, mode.Bus):
		m, d = mode.Bus, BusLeg
	case totalDistance >= MediumMax:
		m, d = mode.Auto, AutoLeg
	}

	return Leg{Mode: m, Distance: d, TransferPoint: EstimateTransferPoint(source, m, d)}
}

// LastMile picks the leg from the main-mode transfer point to the
// destination. A nil budget means unconstrained.
func LastMile(destination geo.Location, totalDistance float64, budget *float64) Leg {
	m, d := mode.Walk, ComfortableWalk
	switch {
	case budget != nil && *budget < LowBudget:
		d = BudgetWalk
	case totalDistance >= LongMax:
		m, d = mode.Auto, AutoLeg
	}

	return Leg{Mode: m, Distance: d, TransferPoint: EstimateTransferPoint(destination, m, d)}
}

// AllocateDistances splits a total into fixed shares: 100%, 15/85 or 15/70/15.
func AllocateDistances(total float64, segments int) ([]float64, error) {
	switch segments {
	case 1:
		return []float64{total}, nil
	case 2:
		return []float64{total * 0.15, total * 0.85}, nil
	case 3:
		return []float64{total * 0.15, total * 0.70, total * 0.15}, nil
	default:
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSegmentCount, segments)
	}
}

// CanCombineModes reports whether two modes may be adjacent in a route.
// Cab legs are end-to-end and never chained with bus, metro, auto or walk;
// bus and auto are not paired either.
func CanCombineModes(a, b mode.Mode) bool {
	pair := func(x, y mode.Mode) bool {
		return (a == x && b == y) || (a == y && b == x)
	}
	for _, other := range []mode.Mode{mode.Bus, mode.Metro, mode.Auto, mode.Walk} {
		if pair(mode.Cab, other) {
			return false
		}
	}
	return !pair(mode.Bus, mode.Auto)
}
