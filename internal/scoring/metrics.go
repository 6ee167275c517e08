package scoring

import (
	"math"

	"github.com/citynav/citynav/internal/mode"
	"github.com/citynav/citynav/internal/route"
)

const (
	defaultReliability  = 50.0
	walkPenaltyPerKm    = 0.1
	walkPenaltyMinimum  = 500.0
	transferComfortPart = 0.4
	modeComfortPart     = 0.6
)

// Metrics are a route's normalized 0..1 scores, higher is better.
type Metrics struct {
	Time           float64 `json:"time"`
	Cost           float64 `json:"cost"`
	Comfort        float64 `json:"comfort"`
	Reliability    float64 `json:"reliability"`
	Sustainability float64 `json:"sustainability"`
}

// bounds are the candidate-set extremes used for normalization.
type bounds struct {
	minDuration, maxDuration int
	minCost, maxCost         int
	maxTransfers             int
}

func boundsOf(routes []route.Route) bounds {
	if len(routes) == 0 {
		return bounds{}
	}
	b := bounds{
		minDuration: routes[0].TotalDuration,
		maxDuration: routes[0].TotalDuration,
		minCost:     routes[0].TotalCost,
		maxCost:     routes[0].TotalCost,
	}
	for _, r := range routes {
		b.minDuration = min(b.minDuration, r.TotalDuration)
		b.maxDuration = max(b.maxDuration, r.TotalDuration)
		b.minCost = min(b.minCost, r.TotalCost)
		b.maxCost = max(b.maxCost, r.TotalCost)
		b.maxTransfers = max(b.maxTransfers, r.TransferCount)
	}
	return b
}

// CalculateMetrics scores a route relative to the candidate set it belongs to.
func CalculateMetrics(r route.Route, all []route.Route) Metrics {
	return metricsFor(r, boundsOf(all))
}

func metricsFor(r route.Route, b bounds) Metrics {
	return Metrics{
		Time:           normalize(r.TotalDuration, b.minDuration, b.maxDuration),
		Cost:           normalize(r.TotalCost, b.minCost, b.maxCost),
		Comfort:        comfortMetric(r, b.maxTransfers),
		Reliability:    reliabilityMetric(r),
		Sustainability: SustainabilityScore(r.CarbonFootprint),
	}
}

// normalize maps v to 1 at the minimum and 0 at the maximum. A degenerate
// range scores 1.
func normalize(v, lo, hi int) float64 {
	if hi == lo {
		return 1
	}
	return float64(hi-v) / float64(hi-lo)
}

func comfortMetric(r route.Route, maxTransfers int) float64 {
	transferScore := 1.0
	if maxTransfers > 0 {
		transferScore = 1 - float64(r.TransferCount)/float64(maxTransfers)
	}

	avg := mode.ComfortFactor("")
	if len(r.ModesUsed) > 0 {
		var sum float64
		for _, m := range r.ModesUsed {
			sum += mode.ComfortFactor(m)
		}
		avg = sum / float64(len(r.ModesUsed))
	}

	var penalty float64
	for _, s := range r.Segments {
		if s.Mode == mode.Walk && s.Distance > walkPenaltyMinimum {
			penalty += walkPenaltyPerKm * s.Distance / 1000
		}
	}

	score := transferComfortPart*transferScore + modeComfortPart*avg - penalty
	return math.Max(0, math.Min(1, score))
}

func reliabilityMetric(r route.Route) float64 {
	if r.ReliabilityScore <= 0 {
		return defaultReliability / 100
	}
	return r.ReliabilityScore / 100
}

// SustainabilityScore maps a carbon label to 0..1. Unset counts as medium.
func SustainabilityScore(c route.CarbonLevel) float64 {
	switch c {
	case route.CarbonLow:
		return 1.0
	case route.CarbonHigh:
		return 0.2
	default:
		return 0.5
	}
}

// FinalScore is the weighted sum of the metrics.
func FinalScore(m Metrics, w Weights) float64 {
	return m.Time*w.Time + m.Cost*w.Cost + m.Comfort*w.Comfort + m.Reliability*w.Reliability
}
