package adjust

import (
	"fmt"

	"github.com/citynav/citynav/internal/city"
	"github.com/citynav/citynav/internal/mode"
	"github.com/citynav/citynav/internal/route"
)

// Reason codes attached to availability warnings.
const (
	ReasonMetroClosed         = "METRO_CLOSED"
	ReasonMetroNotOperational = "METRO_NOT_OPERATIONAL"
	ReasonBusNightService     = "BUS_NO_NIGHT_SERVICE"
	ReasonAutoUnavailable     = "AUTO_UNAVAILABLE"
)

// metroHours is the metro service window, [06:00, 23:00).
var metroHours = mode.HoursWindow{Open: 6, Close: 23}

// Availability is the outcome of a mode availability check.
type Availability struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
	Message   string `json:"message,omitempty"`
}

// String renders the reason-coded warning for an unavailable mode.
func (a Availability) String() string {
	if a.Available {
		return ""
	}
	return fmt.Sprintf("[%s] %s", a.Reason, a.Message)
}

// IsModeAvailable checks whether a mode can be used at trip time in the city.
func IsModeAvailable(m mode.Mode, ctx Context) Availability {
	switch m {
	case mode.Metro:
		if !ctx.City.MetroOperational {
			return Availability{Reason: ReasonMetroNotOperational, Message: "Metro is not operational in this city"}
		}
		if !metroHours.Contains(ctx.Time.Hour) {
			return Availability{Reason: ReasonMetroClosed, Message: "Metro is unavailable between 11 PM and 6 AM"}
		}
	case mode.Bus:
		if ctx.Time.IsNightTime && ctx.City.BusFrequency != city.FrequencyVeryHigh {
			return Availability{Reason: ReasonBusNightService, Message: "Buses do not run at night in this city"}
		}
	case mode.Auto:
		if ctx.City.AutoAvailability == city.AvailabilityLow {
			return Availability{Reason: ReasonAutoUnavailable, Message: "Auto-rickshaws are hard to find in this city"}
		}
	}
	return Availability{Available: true}
}

// CheckAvailability appends a warning for every unavailable mode the route
// uses and reports whether the route is still usable.
func CheckAvailability(r route.Route, ctx Context) (route.Route, bool) {
	out := r
	usable := true
	for _, m := range r.ModesUsed {
		a := IsModeAvailable(m, ctx)
		if a.Available {
			continue
		}
		if usable {
			out = r.Clone()
		}
		usable = false
		out.Warnings = append(out.Warnings, a.String())
	}
	return out, usable
}

// FilterByAvailability splits routes into those whose modes are all
// available and those that are not. Both keep input order.
func FilterByAvailability(routes []route.Route, ctx Context) (kept, dropped []route.Route) {
	kept = make([]route.Route, 0, len(routes))
	for _, r := range routes {
		checked, ok := CheckAvailability(r, ctx)
		if ok {
			kept = append(kept, checked)
			continue
		}
		dropped = append(dropped, checked)
	}
	return kept, dropped
}
