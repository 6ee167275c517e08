package synthesis

import (
	"fmt"
	"math"
	"strings"

	"github.com/citynav/citynav/internal/geo"
	"github.com/citynav/citynav/internal/mode"
)

func formatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", int(math.Round(meters)))
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

func placeName(loc geo.Location, fallback string) string {
	if loc.Name != "" {
		return loc.Name
	}
	return fallback
}

func modeTitle(m mode.Mode) string {
	switch m {
	case mode.Walk:
		return "Walk"
	case mode.Bus:
		return "Bus"
	case mode.Metro:
		return "Metro"
	case mode.Auto:
		return "Auto-rickshaw"
	case mode.Cab:
		return "Cab"
	case mode.Bike:
		return "Bike"
	}
	return string(m)
}

func legVerb(m mode.Mode) string {
	switch m {
	case mode.Walk:
		return "Walk"
	case mode.Bike:
		return "Cycle"
	default:
		return "Take " + article(m) + " " + lower(modeTitle(m))
	}
}

func rideInstruction(m mode.Mode, line, from, to string) string {
	if line != "" {
		return fmt.Sprintf("Take the %s %s from %s to %s", line, lower(modeTitle(m)), from, to)
	}
	return fmt.Sprintf("Take the %s from %s to %s", lower(modeTitle(m)), from, to)
}

func article(m mode.Mode) string {
	if m == mode.Auto {
		return "an"
	}
	return "a"
}

func lower(s string) string {
	return strings.ToLower(s)
}
