package openweathermap_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citynav/citynav/internal/geo"
	"github.com/citynav/citynav/internal/provider/resilience"
	"github.com/citynav/citynav/internal/weather"
	"github.com/citynav/citynav/internal/weather/openweathermap"
)

var chennai = geo.Location{Lat: 13.0827, Lng: 80.2707}

func fastClient() *resilience.Client {
	cfg := resilience.DefaultClientConfig("owm-test")
	cfg.MaxRetries = 1
	cfg.InitialInterval = time.Millisecond
	cfg.MaxInterval = time.Millisecond
	return resilience.NewClient(cfg)
}

func newClient(serverURL string) *openweathermap.Client {
	return openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     "test-key",
		BaseURL:    serverURL,
		HTTPClient: fastClient(),
		Logger:     zerolog.Nop(),
	})
}

func TestClient_Name(t *testing.T) {
	client := openweathermap.NewClient(openweathermap.ClientConfig{})
	assert.Equal(t, "openweathermap", client.Name())
}

func TestClient_CurrentWeather(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "13.082700", r.URL.Query().Get("lat"))
		assert.Equal(t, "80.270700", r.URL.Query().Get("lon"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"coord": {"lat": 13.0827, "lon": 80.2707},
			"weather": [{"id": 501, "main": "Rain", "description": "moderate rain"}],
			"main": {"temp": 29.4, "feels_like": 34.1, "humidity": 84},
			"wind": {"speed": 5.1},
			"dt": 1772440200,
			"name": "Chennai"
		}`))
	}))
	defer server.Close()

	obs, err := newClient(server.URL).CurrentWeather(context.Background(), chennai)
	require.NoError(t, err)

	assert.InDelta(t, 13.0827, obs.Location.Lat, 1e-9)
	assert.Equal(t, "Chennai", obs.Location.Name)
	assert.InDelta(t, 29.4, obs.Temperature, 1e-9)
	assert.InDelta(t, 34.1, obs.FeelsLike, 1e-9)
	assert.InDelta(t, 84, obs.Humidity, 1e-9)
	assert.InDelta(t, 5.1, obs.WindSpeed, 1e-9)
	assert.Equal(t, weather.ConditionRain, obs.Condition)
	assert.Equal(t, "moderate rain", obs.Description)
	assert.Equal(t, int64(1772440200), obs.ObservedAt.Unix())
	assert.False(t, obs.FetchedAt.IsZero())
}

func TestClient_HourlyForecast(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		_, _ = w.Write([]byte(`{"list": [
			{"dt": 1772431200, "main": {"temp": 27}, "weather": [{"main": "Clouds", "description": "broken clouds"}], "pop": 0.2},
			{"dt": 1772442000, "main": {"temp": 31}, "weather": [{"main": "Thunderstorm", "description": "thunderstorm"}], "pop": 0.95}
		]}`))
	}))
	defer server.Close()

	f, err := newClient(server.URL).HourlyForecast(context.Background(), chennai)
	require.NoError(t, err)

	assert.Equal(t, chennai, f.Location)
	require.Len(t, f.Hourly, 6)

	assert.Equal(t, int64(1772431200), f.Hourly[0].Time.Unix())
	assert.Equal(t, int64(1772431200+3600), f.Hourly[1].Time.Unix())
	assert.Equal(t, int64(1772431200+7200), f.Hourly[2].Time.Unix())
	assert.Equal(t, weather.ConditionClouds, f.Hourly[2].Condition)

	assert.Equal(t, int64(1772442000), f.Hourly[3].Time.Unix())
	assert.Equal(t, weather.ConditionThunderstorm, f.Hourly[5].Condition)
	assert.InDelta(t, 0.95, f.Hourly[5].PrecipProb, 1e-9)

	h, ok := f.At(time.Unix(1772442000+90*60, 0))
	require.True(t, ok)
	assert.InDelta(t, 31, h.Temperature, 1e-9)
}

func TestClient_ConditionMapping(t *testing.T) {
	tests := []struct {
		main     string
		expected weather.Condition
	}{
		{"Clear", weather.ConditionClear},
		{"Clouds", weather.ConditionClouds},
		{"Drizzle", weather.ConditionDrizzle},
		{"Squall", weather.ConditionThunderstorm},
		{"Tornado", weather.ConditionThunderstorm},
		{"Snow", weather.ConditionSnow},
		{"Mist", weather.ConditionMist},
		{"Fog", weather.ConditionFog},
		{"Smoke", weather.ConditionHaze},
		{"Dust", weather.ConditionHaze},
		{"Volcano", weather.ConditionUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.main, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = fmt.Fprintf(w, `{"weather": [{"main": %q}], "main": {"temp": 25}, "dt": 1}`, tt.main)
			}))
			defer server.Close()

			obs, err := newClient(server.URL).CurrentWeather(context.Background(), chennai)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, obs.Condition)
		})
	}
}

func TestClient_NoConditionIsUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"weather": [], "main": {"temp": 25}, "dt": 1}`))
	}))
	defer server.Close()

	obs, err := newClient(server.URL).CurrentWeather(context.Background(), chennai)
	require.NoError(t, err)
	assert.Equal(t, weather.ConditionUnknown, obs.Condition)
}

func TestClient_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		unavailable bool
	}{
		{"invalid key", http.StatusUnauthorized, true},
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusInternalServerError, true},
		{"not found", http.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := newClient(server.URL).CurrentWeather(context.Background(), chennai)
			require.Error(t, err)
			if tt.unavailable {
				assert.ErrorIs(t, err, weather.ErrProviderUnavailable)
			} else {
				assert.NotErrorIs(t, err, weather.ErrProviderUnavailable)
				assert.Contains(t, err.Error(), "unexpected status code: 404")
			}
		})
	}
}

func TestClient_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	_, err := newClient(server.URL).HourlyForecast(context.Background(), chennai)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}

func TestClient_RecordsHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"main": {"temp": 25}, "dt": 1}`))
	}))
	defer server.Close()

	registry := resilience.NewRegistry()
	client := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:   "k",
		BaseURL:  server.URL,
		Registry: registry,
		Logger:   zerolog.Nop(),
	})

	_, err := client.CurrentWeather(context.Background(), chennai)
	require.NoError(t, err)

	h, ok := registry.Health(openweathermap.ProviderName)
	require.True(t, ok)
	assert.Equal(t, resilience.StatusHealthy, h.Status)
	assert.NotNil(t, h.LastSuccessAt)
}
