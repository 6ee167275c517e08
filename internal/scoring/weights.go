// Package scoring ranks candidate routes with a weighted multi-criteria
// score and labels the best route per category.
package scoring

import (
	"github.com/citynav/citynav/internal/route"
)

// Weights are the relative importance of each scoring dimension. The four
// weights of every preset sum to 1.
type Weights struct {
	Time        float64 `json:"time"`
	Cost        float64 `json:"cost"`
	Comfort     float64 `json:"comfort"`
	Reliability float64 `json:"reliability"`
}

// Sum returns the total of the weights.
func (w Weights) Sum() float64 {
	return w.Time + w.Cost + w.Comfort + w.Reliability
}

// Preset weight profiles.
var (
	DefaultWeights = Weights{Time: 0.4, Cost: 0.3, Comfort: 0.2, Reliability: 0.1}
	TimeWeights    = Weights{Time: 0.6, Cost: 0.2, Comfort: 0.1, Reliability: 0.1}
	CostWeights    = Weights{Time: 0.2, Cost: 0.6, Comfort: 0.1, Reliability: 0.1}
	ComfortWeights = Weights{Time: 0.2, Cost: 0.1, Comfort: 0.5, Reliability: 0.2}
)

// CalculateWeights returns the preset for a prioritization.
func CalculateWeights(p route.Prioritize) Weights {
	switch p {
	case route.PrioritizeTime:
		return TimeWeights
	case route.PrioritizeCost:
		return CostWeights
	case route.PrioritizeComfort:
		return ComfortWeights
	default:
		return DefaultWeights
	}
}
