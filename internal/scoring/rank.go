package scoring

import (
	"cmp"
	"errors"
	"slices"

	"github.com/citynav/citynav/internal/mode"
	"github.com/citynav/citynav/internal/route"
)

// ErrNoRoutes is returned when a selection is asked of an empty candidate set.
var ErrNoRoutes = errors.New("no routes to select from")

const (
	preferBoost         = 1.2
	comfortLabelMinimum = 0.8
)

// ScoreAndRank scores each route against the whole candidate set and
// returns them sorted by score, highest first. Ties keep input order.
func ScoreAndRank(routes []route.Route, prefs route.Preferences) []route.Route {
	if len(routes) == 0 {
		return []route.Route{}
	}

	w := CalculateWeights(prefs.Prioritize)
	b := boundsOf(routes)

	out := make([]route.Route, len(routes))
	for i, r := range routes {
		r = r.Clone()
		r.Score = FinalScore(metricsFor(r, b), w) * r.EffectiveModifier()
		out[i] = r
	}

	slices.SortStableFunc(out, func(a, b route.Route) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}

// ApplyConstraints drops routes that break a hard preference limit and
// boosts routes using a preferred mode. Unset limits are skipped.
func ApplyConstraints(routes []route.Route, prefs route.Preferences) []route.Route {
	out := make([]route.Route, 0, len(routes))
	for _, r := range routes {
		if prefs.MaxCost != nil && float64(r.TotalCost) > *prefs.MaxCost {
			continue
		}
		if prefs.MaxTransfers != nil && r.TransferCount > *prefs.MaxTransfers {
			continue
		}
		if len(prefs.AvoidModes) > 0 && r.UsesAnyMode(prefs.AvoidModes) {
			continue
		}
		if prefs.MaxWalkingDistance != nil && r.WalkingDistance() > *prefs.MaxWalkingDistance {
			continue
		}

		if len(prefs.PreferModes) > 0 && r.UsesAnyMode(prefs.PreferModes) {
			r = r.Clone()
			r.ScoreModifier = r.EffectiveModifier() * preferBoost
			r.Score *= preferBoost
		}
		out = append(out, r)
	}
	return out
}

// AssignRouteTypes labels each route with exactly one type: the first
// fastest route, the first cheapest route (unless it is already fastest),
// single-mode comfortable routes, and balanced for the rest.
func AssignRouteTypes(routes []route.Route) []route.Route {
	out := make([]route.Route, len(routes))
	copy(out, routes)
	if len(out) == 0 {
		return out
	}

	fastest := indexOfMin(out, func(r route.Route) int { return r.TotalDuration })
	cheapest := indexOfMin(out, func(r route.Route) int { return r.TotalCost })

	for i := range out {
		switch {
		case i == fastest:
			out[i].Type = route.TypeFastest
		case i == cheapest:
			out[i].Type = route.TypeCheapest
		case isComfortRoute(out[i]):
			out[i].Type = route.TypeComfort
		default:
			out[i].Type = route.TypeBalanced
		}
	}
	return out
}

func isComfortRoute(r route.Route) bool {
	return len(r.ModesUsed) == 1 && r.TransferCount == 0 &&
		mode.ComfortFactor(r.ModesUsed[0]) >= comfortLabelMinimum
}

// indexOfMin returns the index of the first route with the smallest key.
func indexOfMin(routes []route.Route, key func(route.Route) int) int {
	best := 0
	for i := 1; i < len(routes); i++ {
		if key(routes[i]) < key(routes[best]) {
			best = i
		}
	}
	return best
}

// TopRoutes is the best route per category. Several slots may hold the
// same route.
type TopRoutes struct {
	Fastest     route.Route
	Cheapest    route.Route
	Recommended route.Route
	Comfort     route.Route
	Eco         route.Route
}

// Picks returns the route IDs of each slot.
func (t TopRoutes) Picks() route.TopPicks {
	return route.TopPicks{
		Fastest:     t.Fastest.ID,
		Cheapest:    t.Cheapest.ID,
		Recommended: t.Recommended.ID,
		Comfort:     t.Comfort.ID,
		Eco:         t.Eco.ID,
	}
}

// SelectTopRoutes picks the best route per category from the candidate set.
// Recommended is the plain default-weights score: request priorities and
// score modifiers do not apply. Returns ErrNoRoutes for an empty set.
func SelectTopRoutes(routes []route.Route) (TopRoutes, error) {
	if len(routes) == 0 {
		return TopRoutes{}, ErrNoRoutes
	}

	b := boundsOf(routes)
	metrics := make([]Metrics, len(routes))
	for i, r := range routes {
		metrics[i] = metricsFor(r, b)
	}

	byIndex := func(f func(i int) float64) int {
		best := 0
		for i := 1; i < len(routes); i++ {
			if f(i) > f(best) {
				best = i
			}
		}
		return best
	}

	recommended := byIndex(func(i int) float64 {
		return FinalScore(metrics[i], DefaultWeights)
	})
	comfort := byIndex(func(i int) float64 { return metrics[i].Comfort })
	eco := byIndex(func(i int) float64 { return metrics[i].Sustainability })

	return TopRoutes{
		Fastest:     routes[indexOfMin(routes, func(r route.Route) int { return r.TotalDuration })],
		Cheapest:    routes[indexOfMin(routes, func(r route.Route) int { return r.TotalCost })],
		Recommended: routes[recommended],
		Comfort:     routes[comfort],
		Eco:         routes[eco],
	}, nil
}
