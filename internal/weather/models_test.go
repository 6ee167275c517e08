package weather_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citynav/citynav/internal/route"
	"github.com/citynav/citynav/internal/weather"
)

func TestCondition_Trip(t *testing.T) {
	tests := []struct {
		condition weather.Condition
		temp      float64
		expected  route.WeatherCondition
	}{
		{weather.ConditionThunderstorm, 28, route.WeatherStorm},
		{weather.ConditionSnow, -2, route.WeatherStorm},
		{weather.ConditionRain, 24, route.WeatherRain},
		{weather.ConditionDrizzle, 24, route.WeatherRain},
		{weather.ConditionMist, 18, route.WeatherFog},
		{weather.ConditionFog, 12, route.WeatherFog},
		{weather.ConditionClouds, 38, route.WeatherCloudy},
		{weather.ConditionClear, 30, route.WeatherClear},
		{weather.ConditionClear, 35, route.WeatherHot},
		{weather.ConditionHaze, 20, route.WeatherFog},
		{weather.ConditionHaze, 41, route.WeatherHot},
		{weather.ConditionUnknown, 30, route.WeatherUnknown},
	}

	for _, tt := range tests {
		t.Run(string(tt.condition), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.condition.Trip(tt.temp))
		})
	}
}

func TestForecast_At(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	f := weather.Forecast{Hourly: []weather.HourlyForecast{
		{Time: base, Temperature: 25},
		{Time: base.Add(time.Hour), Temperature: 27},
	}}

	h, ok := f.At(base.Add(90 * time.Minute))
	require.True(t, ok)
	assert.InDelta(t, 27, h.Temperature, 0.001)

	h, ok = f.At(base)
	require.True(t, ok)
	assert.InDelta(t, 25, h.Temperature, 0.001)

	_, ok = f.At(base.Add(2 * time.Hour))
	assert.False(t, ok)

	_, ok = f.At(base.Add(-time.Minute))
	assert.False(t, ok)
}

func TestFromObservation(t *testing.T) {
	observed := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	c := weather.FromObservation(weather.Observation{
		Temperature: 31,
		Condition:   weather.ConditionRain,
		Description: "light rain",
		ObservedAt:  observed,
	})

	assert.Equal(t, route.WeatherRain, c.Weather)
	assert.InDelta(t, 31, c.Temperature, 0.001)
	assert.Equal(t, "light rain", c.Description)
	assert.Equal(t, weather.SourceCurrent, c.Source)
	assert.Equal(t, observed, c.ValidAt)
}

func TestFromForecast_LikelyRain(t *testing.T) {
	tests := []struct {
		name      string
		condition weather.Condition
		pop       float64
		expected  route.WeatherCondition
	}{
		{"clouds with likely shower", weather.ConditionClouds, 0.8, route.WeatherRain},
		{"clouds with slight chance", weather.ConditionClouds, 0.3, route.WeatherCloudy},
		{"storm stays storm", weather.ConditionThunderstorm, 0.9, route.WeatherStorm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := weather.FromForecast(weather.HourlyForecast{Temperature: 26, Condition: tt.condition, PrecipProb: tt.pop})
			assert.Equal(t, tt.expected, c.Weather)
			assert.Equal(t, weather.SourceForecast, c.Source)
		})
	}
}

func TestConditions_Apply(t *testing.T) {
	c := weather.Conditions{Weather: route.WeatherHot, Temperature: 42}

	t.Run("fills unset fields", func(t *testing.T) {
		tc := c.Apply(route.TripContext{})
		assert.Equal(t, route.WeatherHot, tc.WeatherCondition)
		require.NotNil(t, tc.Temperature)
		assert.InDelta(t, 42, *tc.Temperature, 0.001)
	})

	t.Run("keeps caller values", func(t *testing.T) {
		temp := 20.0
		tc := c.Apply(route.TripContext{WeatherCondition: route.WeatherRain, Temperature: &temp})
		assert.Equal(t, route.WeatherRain, tc.WeatherCondition)
		assert.InDelta(t, 20, *tc.Temperature, 0.001)
	})
}
