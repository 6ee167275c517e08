package synthesis

import (
	"fmt"
	"slices"

	"github.com/citynav/citynav/internal/geo"
	"github.com/citynav/citynav/internal/journey"
	"github.com/citynav/citynav/internal/mode"
	"github.com/citynav/citynav/internal/route"
	"github.com/citynav/citynav/internal/transit"
)

func (s *Synthesizer) walkOnly(t trip) (route.Route, bool) {
	return s.direct(t, mode.Walk,
		fmt.Sprintf("Walk %s to %s", formatDistance(t.total), placeName(t.destination(), "your destination")),
		"Walk all the way")
}

func (s *Synthesizer) autoDirect(t trip) (route.Route, bool) {
	return s.direct(t, mode.Auto,
		fmt.Sprintf("Take an auto-rickshaw to %s", placeName(t.destination(), "your destination")),
		"Auto-rickshaw direct")
}

func (s *Synthesizer) cabDirect(t trip) (route.Route, bool) {
	return s.direct(t, mode.Cab,
		fmt.Sprintf("Take a cab to %s", placeName(t.destination(), "your destination")),
		"Cab direct")
}

// direct builds a single-segment route, honoring the mode's distance limits.
func (s *Synthesizer) direct(t trip, m mode.Mode, instruction, description string) (route.Route, bool) {
	cfg := s.catalog.ConfigFor(t.in.City, m)
	if cfg.MaxDistance != nil && t.total > *cfg.MaxDistance {
		return route.Route{}, false
	}
	if cfg.MinDistance != nil && t.total < *cfg.MinDistance {
		return route.Route{}, false
	}

	seg := s.segment(t.in.City, m, t.source(), t.destination(), t.total, instruction, "")
	return s.assemble(t.in.City, []route.Segment{seg}, description)
}

func (s *Synthesizer) busRoute(t trip) (route.Route, bool) {
	return s.stationToStation(t, mode.Bus, transit.BusStop, BusWalkRadius)
}

func (s *Synthesizer) metroRoute(t trip) (route.Route, bool) {
	return s.stationToStation(t, mode.Metro, transit.MetroStation, MetroWalkRadius)
}

// stationToStation walks to the nearest stop of kind at each end and rides
// m between them.
func (s *Synthesizer) stationToStation(t trip, m mode.Mode, kind transit.StopType, walkRadius float64) (route.Route, bool) {
	from, okFrom := t.in.SourceStops.Nearest(kind, walkRadius)
	to, okTo := t.in.DestinationStops.Nearest(kind, walkRadius)
	if !okFrom || !okTo || from.ID == to.ID {
		return route.Route{}, false
	}

	cityID := t.in.City
	line := commonRoute(from, to)

	var segs []route.Segment
	if from.Distance > 0 {
		segs = append(segs, s.segment(cityID, mode.Walk, t.source(), from.Location, from.Distance,
			fmt.Sprintf("Walk %s to %s", formatDistance(from.Distance), from.Name), ""))
	}
	segs = append(segs, s.segment(cityID, m, from.Location, to.Location, geo.Distance(from.Location, to.Location),
		rideInstruction(m, line, from.Name, to.Name), line))
	if to.Distance > 0 {
		segs = append(segs, s.segment(cityID, mode.Walk, to.Location, t.destination(), to.Distance,
			fmt.Sprintf("Walk %s to %s", formatDistance(to.Distance), placeName(t.destination(), "your destination")), ""))
	}

	return s.assemble(cityID, segs, fmt.Sprintf("%s from %s to %s", modeTitle(m), from.Name, to.Name))
}

// walkMetroWalk splits the trip 15/70/15 across walk, metro and walk legs
// with estimated transfer points.
func (s *Synthesizer) walkMetroWalk(t trip) (route.Route, bool) {
	if _, ok := t.in.SourceStops.Nearest(transit.MetroStation, MetroWalkRadius); !ok {
		return route.Route{}, false
	}
	if _, ok := t.in.DestinationStops.Nearest(transit.MetroStation, MetroWalkRadius); !ok {
		return route.Route{}, false
	}

	parts, err := journey.AllocateDistances(t.total, 3)
	if err != nil {
		return route.Route{}, false
	}

	cityID := t.in.City
	board := journey.EstimateTransferPoint(t.source(), mode.Metro, parts[0])
	alight := journey.EstimateTransferPoint(t.destination(), mode.Walk, parts[2])

	segs := []route.Segment{
		s.segment(cityID, mode.Walk, t.source(), board.Location, parts[0],
			fmt.Sprintf("Walk %s to the metro", formatDistance(parts[0])), ""),
		s.segment(cityID, mode.Metro, board.Location, alight.Location, parts[1],
			"Take the metro towards your destination", ""),
		s.segment(cityID, mode.Walk, alight.Location, t.destination(), parts[2],
			fmt.Sprintf("Walk %s to %s", formatDistance(parts[2]), placeName(t.destination(), "your destination")), ""),
	}
	return s.assemble(cityID, segs, "Walk, metro, walk")
}

// metroAutoCombo rides the metro between first- and last-mile legs chosen
// by the journey segmentation rules.
func (s *Synthesizer) metroAutoCombo(t trip) (route.Route, bool) {
	fromStation, okFrom := t.in.SourceStops.Nearest(transit.MetroStation, LongStationRadius)
	toStation, okTo := t.in.DestinationStops.Nearest(transit.MetroStation, LongStationRadius)
	if !okFrom || !okTo {
		return route.Route{}, false
	}

	prefs := t.in.Request.Preferences
	first := journey.FirstMile(t.source(), t.total, prefs.PreferModes)
	last := journey.LastMile(t.destination(), t.total, prefs.MaxCost)

	main := t.total - first.Distance - last.Distance
	if main <= 0 {
		return route.Route{}, false
	}

	board := stopOr(fromStation, first.TransferPoint.Location)
	alight := stopOr(toStation, last.TransferPoint.Location)
	line := commonRoute(fromStation, toStation)

	cityID := t.in.City
	segs := []route.Segment{
		s.segment(cityID, first.Mode, t.source(), board, first.Distance,
			fmt.Sprintf("%s %s to %s", legVerb(first.Mode), formatDistance(first.Distance), fromStation.Name), ""),
		s.segment(cityID, mode.Metro, board, alight, main,
			rideInstruction(mode.Metro, line, fromStation.Name, toStation.Name), line),
		s.segment(cityID, last.Mode, alight, t.destination(), last.Distance,
			fmt.Sprintf("%s %s to %s", legVerb(last.Mode), formatDistance(last.Distance), placeName(t.destination(), "your destination")), ""),
	}
	return s.assemble(cityID, segs, fmt.Sprintf("%s, metro, %s", modeTitle(first.Mode), lower(modeTitle(last.Mode))))
}

// busMetroBus feeds the metro with bus legs at both ends (15/70/15).
func (s *Synthesizer) busMetroBus(t trip) (route.Route, bool) {
	if _, ok := t.in.SourceStops.Nearest(transit.BusStop, BusWalkRadius); !ok {
		return route.Route{}, false
	}
	if _, ok := t.in.DestinationStops.Nearest(transit.BusStop, BusWalkRadius); !ok {
		return route.Route{}, false
	}
	fromStation, okFrom := t.in.SourceStops.Nearest(transit.MetroStation, LongStationRadius)
	toStation, okTo := t.in.DestinationStops.Nearest(transit.MetroStation, LongStationRadius)
	if !okFrom || !okTo {
		return route.Route{}, false
	}

	parts, err := journey.AllocateDistances(t.total, 3)
	if err != nil {
		return route.Route{}, false
	}

	cityID := t.in.City
	line := commonRoute(fromStation, toStation)
	segs := []route.Segment{
		s.segment(cityID, mode.Bus, t.source(), fromStation.Location, parts[0],
			fmt.Sprintf("Take a bus to %s", fromStation.Name), ""),
		s.segment(cityID, mode.Metro, fromStation.Location, toStation.Location, parts[1],
			rideInstruction(mode.Metro, line, fromStation.Name, toStation.Name), line),
		s.segment(cityID, mode.Bus, toStation.Location, t.destination(), parts[2],
			fmt.Sprintf("Take a bus to %s", placeName(t.destination(), "your destination")), ""),
	}
	return s.assemble(cityID, segs, "Bus, metro, bus")
}

// metroBus rides the metro for 85% of the trip and a bus for the rest.
func (s *Synthesizer) metroBus(t trip) (route.Route, bool) {
	fromStation, ok := t.in.SourceStops.Nearest(transit.MetroStation, LongStationRadius)
	if !ok {
		return route.Route{}, false
	}
	busStop, ok := t.in.DestinationStops.Nearest(transit.BusStop, BusWalkRadius)
	if !ok {
		return route.Route{}, false
	}

	parts, err := journey.AllocateDistances(t.total, 2)
	if err != nil {
		return route.Route{}, false
	}
	busDistance, metroDistance := parts[0], parts[1]

	cityID := t.in.City
	transfer := journey.EstimateTransferPoint(t.destination(), mode.Bus, busDistance)
	line := firstRoute(fromStation)
	segs := []route.Segment{
		s.segment(cityID, mode.Metro, t.source(), transfer.Location, metroDistance,
			rideInstruction(mode.Metro, line, fromStation.Name, "the interchange"), line),
		s.segment(cityID, mode.Bus, transfer.Location, t.destination(), busDistance,
			fmt.Sprintf("Take a bus to %s", busStop.Name), firstRoute(busStop)),
	}
	return s.assemble(cityID, segs, "Metro, bus")
}

func stopOr(st transit.Stop, fallback geo.Location) geo.Location {
	if st.ID == "" {
		return fallback
	}
	return st.Location
}

func commonRoute(a, b transit.Stop) string {
	for _, r := range a.Routes {
		if slices.Contains(b.Routes, r) {
			return r
		}
	}
	return firstRoute(a)
}

func firstRoute(st transit.Stop) string {
	if len(st.Routes) == 0 {
		return ""
	}
	return st.Routes[0]
}
