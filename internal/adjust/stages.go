package adjust

import (
	"fmt"
	"math"

	"github.com/citynav/citynav/internal/mode"
	"github.com/citynav/citynav/internal/route"
)

// Stage is one pure adjustment step.
type Stage func(r route.Route, ctx Context) route.Route

// Stages returns the adjustment steps in the order they must run. The
// availability filter runs after them, see ApplyAll.
func Stages() []Stage {
	return []Stage{Traffic, Weather, User, WaitTimes}
}

// Route runs every stage over a single route.
func Route(r route.Route, ctx Context) route.Route {
	for _, stage := range Stages() {
		r = stage(r, ctx)
	}
	return r
}

// ApplyAll adjusts every route and filters out those using a mode that is
// unavailable at trip time. Dropped routes carry the warnings explaining why.
func ApplyAll(routes []route.Route, ctx Context) (kept, dropped []route.Route) {
	adjusted := make([]route.Route, 0, len(routes))
	for _, r := range routes {
		adjusted = append(adjusted, Route(r, ctx))
	}
	return FilterByAvailability(adjusted, ctx)
}

const (
	longWalkMeters    = 500.0
	extremeHeatDegC   = 40.0
	rainWalkFactor    = 1.3
	rainRoadFactor    = 1.2
	hotWalkFactor     = 1.4
	lowBudgetCeiling  = 100
	lowBudgetBonusMax = 50
)

// Traffic scales road-bound segment durations by the traffic multiplier.
func Traffic(r route.Route, ctx Context) route.Route {
	tr := ctx.Traffic
	if tr.Multiplier == 0 || tr.Multiplier == 1 {
		return r
	}

	out := r.Clone()
	affected := false
	for i := range out.Segments {
		if out.Segments[i].Mode.IsRoadBound() {
			out.Segments[i].Duration = scale(out.Segments[i].Duration, tr.Multiplier)
			affected = true
		}
	}
	if !affected {
		return r
	}

	out = out.Recompute()
	if tr.Level == TrafficHigh || tr.Level == TrafficExtreme {
		pct := int(math.Round((tr.Multiplier - 1) * 100))
		out = out.WithWarning("%s traffic expected: road travel may take %d%% longer", trafficLabel(tr.Level), pct)
	}
	return out
}

func trafficLabel(level TrafficLevel) string {
	if level == TrafficExtreme {
		return "Extreme"
	}
	return "Heavy"
}

// Weather applies rain, storm and heat effects.
func Weather(r route.Route, ctx Context) route.Route {
	out := r.Clone()
	walks := out.UsesMode(mode.Walk)
	changed := false

	switch ctx.Weather {
	case route.WeatherRain, route.WeatherStorm:
		for i := range out.Segments {
			seg := &out.Segments[i]
			switch {
			case seg.Mode == mode.Walk:
				seg.Duration = scale(seg.Duration, rainWalkFactor)
			case seg.Mode.IsRoadBound():
				seg.Duration = scale(seg.Duration, rainRoadFactor)
			}
		}
		changed = true
		if ctx.Weather == route.WeatherStorm {
			out.Warnings = append(out.Warnings, "Storm warning: avoid walking outdoors and expect severe delays")
		} else {
			out.Warnings = append(out.Warnings, "Rain expected: walking and road travel will be slower")
		}
		if walks {
			out.ComfortLevel = route.ComfortLow
		}

	case route.WeatherHot:
		for i := range out.Segments {
			seg := &out.Segments[i]
			if seg.Mode == mode.Walk && seg.Distance > longWalkMeters {
				seg.Duration = scale(seg.Duration, hotWalkFactor)
				changed = true
			}
		}
		if changed {
			out.Warnings = append(out.Warnings, "Hot weather: long walks will be slower, carry water")
		}
	}

	if ctx.Temperature != nil && *ctx.Temperature > extremeHeatDegC {
		changed = true
		out.Warnings = append(out.Warnings, fmt.Sprintf("Extreme heat (%.0f°C): limit time outdoors", *ctx.Temperature))
		if walks {
			out.ComfortLevel = route.ComfortLow
		}
	}

	if !changed {
		return r
	}
	return out.Recompute()
}

// User applies traveller-specific score penalties and bonuses. Durations
// are left untouched.
func User(r route.Route, ctx Context) route.Route {
	u := ctx.User
	out := r.Clone()
	walking := out.WalkingDistance()
	factor := 1.0

	penalize := func(f float64, format string, args ...any) {
		factor *= f
		out.Warnings = append(out.Warnings, fmt.Sprintf(format, args...))
	}

	if u.AccessibilityNeeds {
		if out.TransferCount > 1 {
			penalize(0.5, "%d transfers may be difficult with accessibility needs", out.TransferCount)
		}
		if !out.UsesMode(mode.Metro) && !out.UsesMode(mode.Cab) {
			penalize(0.7, "No step-free option (metro or cab) on this route")
		}
	}

	if u.HasLuggage {
		if walking > longWalkMeters {
			penalize(0.7, "Walking %s with luggage", formatMeters(walking))
		}
		if out.TransferCount > 0 {
			penalize(0.8, "Transfers with luggage can be slow")
		}
	}

	if u.TravelingWithChildren {
		if out.TransferCount == 0 {
			factor *= 1.2
		} else {
			penalize(0.8, "Transfers with children need extra time")
		}
		if out.UsesMode(mode.Cab) || out.UsesMode(mode.Metro) {
			factor *= 1.1
		}
	}

	if u.FitnessLevel == route.LevelLow && walking > longWalkMeters {
		penalize(0.6, "Includes %s of walking", formatMeters(walking))
	}

	if u.Budget == route.LevelLow {
		switch {
		case out.TotalCost > lowBudgetCeiling:
			penalize(0.5, "Costs ₹%d, above a low budget", out.TotalCost)
		case out.TotalCost < lowBudgetBonusMax:
			factor *= 1.3
		}
	}

	if factor == 1 {
		return out
	}
	out.ScoreModifier = out.EffectiveModifier() * factor
	out.Score *= factor
	return out
}

// WaitTimes re-derives transit wait times for the time of day.
func WaitTimes(r route.Route, ctx Context) route.Route {
	tc := ctx.Time
	out := r.Clone()
	changed := false

	for i := range out.Segments {
		seg := &out.Segments[i]
		wait, ok := waitFor(seg.Mode, tc)
		if !ok || seg.WaitTime == wait {
			continue
		}
		seg.WaitTime = wait
		changed = true
	}

	if !changed {
		return r
	}
	return out.Recompute()
}

func waitFor(m mode.Mode, tc TimeContext) (int, bool) {
	switch {
	case tc.IsPeakHour:
		switch m {
		case mode.Metro:
			return 3, true
		case mode.Bus:
			return 7, true
		}
	case tc.IsNightTime:
		if m == mode.Bus {
			return 15, true
		}
	case tc.IsWeekend:
		if m == mode.Bus {
			return 8, true
		}
	}
	return 0, false
}

func scale(minutes int, factor float64) int {
	return int(math.Round(float64(minutes) * factor))
}

func formatMeters(m float64) string {
	if m >= 1000 {
		return fmt.Sprintf("%.1f km", m/1000)
	}
	return fmt.Sprintf("%.0f m", m)
}
