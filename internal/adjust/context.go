// Package adjust applies trip-time context to candidate routes: traffic,
// weather, traveller needs, wait times and mode availability. Every stage
// is a pure Route -> Route function.
package adjust

import (
	"time"

	"github.com/citynav/citynav/internal/city"
	"github.com/citynav/citynav/internal/route"
)

// Peak and night windows, in whole hours (inclusive).
const (
	morningPeakStart = 7
	morningPeakEnd   = 10
	eveningPeakStart = 17
	eveningPeakEnd   = 21
	nightStart       = 22
	nightEnd         = 6
)

// TimeContext classifies a departure time.
type TimeContext struct {
	Hour        int          `json:"hour"`
	Weekday     time.Weekday `json:"weekday"`
	IsWeekend   bool         `json:"isWeekend"`
	IsPeakHour  bool         `json:"isPeakHour"`
	IsNightTime bool         `json:"isNightTime"`
}

// AnalyzeTimeContext classifies t in its own location.
func AnalyzeTimeContext(t time.Time) TimeContext {
	hour := t.Hour()
	weekday := t.Weekday()
	weekend := weekday == time.Saturday || weekday == time.Sunday

	return TimeContext{
		Hour:        hour,
		Weekday:     weekday,
		IsWeekend:   weekend,
		IsPeakHour:  !weekend && isPeakHour(hour),
		IsNightTime: hour >= nightStart || hour <= nightEnd,
	}
}

// WithWeekend overrides the weekend flag; weekends have no peak hours.
func (tc TimeContext) WithWeekend(weekend bool) TimeContext {
	tc.IsWeekend = weekend
	tc.IsPeakHour = !weekend && isPeakHour(tc.Hour)
	return tc
}

func isPeakHour(hour int) bool {
	return (hour >= morningPeakStart && hour <= morningPeakEnd) ||
		(hour >= eveningPeakStart && hour <= eveningPeakEnd)
}

// TrafficLevel is the road congestion expected at trip time.
type TrafficLevel string

const (
	TrafficLow      TrafficLevel = "low"
	TrafficNormal   TrafficLevel = "normal"
	TrafficModerate TrafficLevel = "moderate"
	TrafficHigh     TrafficLevel = "high"
	TrafficExtreme  TrafficLevel = "extreme"
)

// TrafficContext is the congestion level and the duration multiplier for
// road-bound segments.
type TrafficContext struct {
	Level      TrafficLevel `json:"level"`
	Multiplier float64      `json:"multiplier"`
}

// DetermineTrafficContext derives congestion from the time and the city's
// traffic tier.
func DetermineTrafficContext(tc TimeContext, cc city.Context) TrafficContext {
	switch {
	case tc.IsPeakHour && cc.TrafficLevel == city.TrafficExtreme:
		return TrafficContext{Level: TrafficExtreme, Multiplier: 2.0}
	case tc.IsPeakHour && cc.TrafficLevel == city.TrafficVeryHigh:
		return TrafficContext{Level: TrafficHigh, Multiplier: 1.7}
	case tc.IsPeakHour:
		return TrafficContext{Level: TrafficModerate, Multiplier: 1.5}
	case tc.IsNightTime:
		return TrafficContext{Level: TrafficLow, Multiplier: 0.7}
	case tc.IsWeekend:
		return TrafficContext{Level: TrafficModerate, Multiplier: 1.2}
	default:
		return TrafficContext{Level: TrafficNormal, Multiplier: 1.0}
	}
}

// Context is everything the adjustment stages read.
type Context struct {
	Time        TimeContext
	Traffic     TrafficContext
	City        city.Context
	Weather     route.WeatherCondition
	Temperature *float64
	User        route.UserContext
}

// NewContext resolves the adjustment context for a request. now is used
// when the request carries no departure time.
func NewContext(req route.Request, cc city.Context, now time.Time) Context {
	tc := AnalyzeTimeContext(req.DepartureTime(now))
	if req.Context.IsWeekend != nil {
		tc = tc.WithWeekend(*req.Context.IsWeekend)
	}

	return Context{
		Time:        tc,
		Traffic:     DetermineTrafficContext(tc, cc),
		City:        cc,
		Weather:     req.Context.WeatherCondition,
		Temperature: req.Context.Temperature,
		User:        req.User(),
	}
}
