// Package weather resolves the weather at a trip's source so route
// calculations can account for rain, storms and heat.
package weather

import (
	"errors"
	"time"

	"github.com/citynav/citynav/internal/geo"
	"github.com/citynav/citynav/internal/route"
)

// Weather errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
	ErrNoForecast          = errors.New("no forecast for requested time")
)

// HotThreshold is the temperature (°C) from which clear or hazy weather
// counts as hot.
const HotThreshold = 35.0

// rainLikely is the precipitation probability treated as rain.
const rainLikely = 0.7

// Condition is the general weather condition reported by a provider.
type Condition string

const (
	ConditionUnknown      Condition = "UNKNOWN"
	ConditionClear        Condition = "CLEAR"
	ConditionClouds       Condition = "CLOUDS"
	ConditionRain         Condition = "RAIN"
	ConditionDrizzle      Condition = "DRIZZLE"
	ConditionThunderstorm Condition = "THUNDERSTORM"
	ConditionSnow         Condition = "SNOW"
	ConditionMist         Condition = "MIST"
	ConditionFog          Condition = "FOG"
	ConditionHaze         Condition = "HAZE"
)

// Trip maps a provider condition and temperature onto the weather the
// route engine understands.
func (c Condition) Trip(temperature float64) route.WeatherCondition {
	switch c {
	case ConditionThunderstorm, ConditionSnow:
		return route.WeatherStorm
	case ConditionRain, ConditionDrizzle:
		return route.WeatherRain
	case ConditionMist, ConditionFog:
		return route.WeatherFog
	case ConditionClouds:
		return route.WeatherCloudy
	case ConditionClear, ConditionHaze:
		if temperature >= HotThreshold {
			return route.WeatherHot
		}
		if c == ConditionHaze {
			return route.WeatherFog
		}
		return route.WeatherClear
	default:
		return route.WeatherUnknown
	}
}

// Observation is the current weather at a point.
type Observation struct {
	Location    geo.Location
	Temperature float64 // °C
	FeelsLike   float64 // °C
	Humidity    float64 // %
	WindSpeed   float64 // m/s
	Condition   Condition
	Description string
	ObservedAt  time.Time
	FetchedAt   time.Time
}

// Forecast is an hourly forecast for a point.
type Forecast struct {
	Location  geo.Location
	Hourly    []HourlyForecast
	FetchedAt time.Time
}

// HourlyForecast is the forecast for the hour starting at Time.
type HourlyForecast struct {
	Time        time.Time
	Temperature float64
	Condition   Condition
	Description string
	PrecipProb  float64 // 0-1
}

// At returns the forecast hour containing t.
func (f Forecast) At(t time.Time) (HourlyForecast, bool) {
	for _, h := range f.Hourly {
		if !t.Before(h.Time) && t.Before(h.Time.Add(time.Hour)) {
			return h, true
		}
	}
	return HourlyForecast{}, false
}

// Source of resolved conditions.
const (
	SourceCurrent  = "current"
	SourceForecast = "forecast"
)

// Conditions is the resolved trip-time weather.
type Conditions struct {
	Weather     route.WeatherCondition `json:"weather"`
	Temperature float64                `json:"temperature"`
	Description string                 `json:"description,omitempty"`
	Source      string                 `json:"source"`
	ValidAt     time.Time              `json:"validAt"`
}

// FromObservation converts a current observation.
func FromObservation(o Observation) Conditions {
	return Conditions{
		Weather:     o.Condition.Trip(o.Temperature),
		Temperature: o.Temperature,
		Description: o.Description,
		Source:      SourceCurrent,
		ValidAt:     o.ObservedAt,
	}
}

// FromForecast converts a forecast hour. A likely shower upgrades dry
// conditions to rain.
func FromForecast(h HourlyForecast) Conditions {
	w := h.Condition.Trip(h.Temperature)
	if h.PrecipProb >= rainLikely && w != route.WeatherStorm {
		w = route.WeatherRain
	}
	return Conditions{
		Weather:     w,
		Temperature: h.Temperature,
		Description: h.Description,
		Source:      SourceForecast,
		ValidAt:     h.Time,
	}
}

// Apply fills the request's weather and temperature when they are unset.
func (c Conditions) Apply(tc route.TripContext) route.TripContext {
	if tc.WeatherCondition == route.WeatherUnknown {
		tc.WeatherCondition = c.Weather
	}
	if tc.Temperature == nil {
		temp := c.Temperature
		tc.Temperature = &temp
	}
	return tc
}
