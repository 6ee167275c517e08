package city_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/citynav/citynav/internal/city"
	"github.com/citynav/citynav/internal/geo"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		expected city.ID
	}{
		{"connaught place", 28.6315, 77.2167, city.Delhi},
		{"bandra", 19.0596, 72.8295, city.Mumbai},
		{"mg road", 12.9756, 77.6050, city.Bangalore},
		{"t nagar", 13.0418, 80.2341, city.Chennai},
		{"park street", 22.5530, 88.3520, city.Kolkata},
		{"hitech city", 17.4435, 78.3772, city.Hyderabad},
		{"shivajinagar", 18.5308, 73.8475, city.Pune},
		{"amsterdam", 52.3676, 4.9041, city.Unknown},
		{"open sea", 0, 0, city.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, city.Detect(tt.lat, tt.lng))
		})
	}
}

func TestDetectLocation(t *testing.T) {
	assert.Equal(t, city.Delhi, city.DetectLocation(geo.Location{Lat: 28.60, Lng: 77.20}))
}

func TestContextFor_Unknown(t *testing.T) {
	ctx := city.ContextFor(city.Unknown)

	assert.Equal(t, city.Unknown, ctx.City)
	assert.False(t, ctx.HasMetro)
	assert.Equal(t, city.TrafficMedium, ctx.TrafficLevel)
	assert.Equal(t, city.FrequencyMedium, ctx.BusFrequency)
	assert.Equal(t, city.AvailabilityHigh, ctx.AutoAvailability)

	assert.Equal(t, ctx, city.ContextFor(city.ID("atlantis")))
}

func TestContextFor_Known(t *testing.T) {
	ctx := city.ContextFor(city.Mumbai)

	assert.Equal(t, city.Mumbai, ctx.City)
	assert.True(t, ctx.HasMetro)
	assert.Equal(t, city.TrafficExtreme, ctx.TrafficLevel)
	assert.Equal(t, city.FrequencyVeryHigh, ctx.BusFrequency)
}

func TestRules(t *testing.T) {
	assert.NotEmpty(t, city.Rules(city.Delhi))
	assert.Empty(t, city.Rules(city.Unknown))
	assert.NotNil(t, city.Rules(city.Hyderabad))

	rules := city.Rules(city.Delhi)
	rules[0] = "mutated"
	assert.NotEqual(t, "mutated", city.Rules(city.Delhi)[0], "callers get a copy")
}

func TestKnown(t *testing.T) {
	for _, id := range city.Known() {
		assert.True(t, id.IsKnown())
	}
	assert.False(t, city.Unknown.IsKnown())
}

func TestParse(t *testing.T) {
	tests := []struct {
		in       string
		expected city.ID
		wantErr  bool
	}{
		{"bangalore", city.Bangalore, false},
		{" Mumbai ", city.Mumbai, false},
		{"default", city.Unknown, false},
		{"unknown", city.Unknown, false},
		{"amsterdam", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			id, err := city.Parse(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, city.ErrUnknownCity)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, id)
		})
	}
}
