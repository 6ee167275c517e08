package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citynav/citynav/internal/api/handler"
	"github.com/citynav/citynav/internal/api/models"
	"github.com/citynav/citynav/internal/city"
	"github.com/citynav/citynav/internal/engine"
	"github.com/citynav/citynav/internal/geo"
	"github.com/citynav/citynav/internal/route"
	"github.com/citynav/citynav/internal/weather"
	"github.com/citynav/citynav/pkg/polyline"
)

type fakeCalculator struct {
	got  *route.Request
	resp route.Response
}

func (f *fakeCalculator) CalculateRoutes(_ context.Context, req route.Request) route.Response {
	f.got = &req
	resp := f.resp
	resp.Request = req
	return resp
}

type fakeWeather struct {
	conditions weather.Conditions
	err        error
	calls      int
}

func (f *fakeWeather) ConditionsAt(_ context.Context, _ geo.Location, _ time.Time) (weather.Conditions, error) {
	f.calls++
	return f.conditions, f.err
}

const computeBody = `{
	"source": {"lat": 12.9756, "lng": 77.6050, "name": "MG Road"},
	"destination": {"lat": 12.9716, "lng": 77.5946, "name": "Cubbon Park"},
	"context": {"timeOfDay": "2026-03-02T10:00:00Z"}
}`

func postCompute(t *testing.T, h *handler.RouteHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/routes:compute", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ComputeRoutes(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) models.Problem {
	t.Helper()
	var p models.Problem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	return p
}

func TestComputeRoutes_WithEngine(t *testing.T) {
	eng, err := engine.New(engine.Config{
		Logger: zerolog.Nop(),
		Now:    func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	h := handler.NewRouteHandler(eng, nil, zerolog.Nop())
	rec := postCompute(t, h, computeBody)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "private, max-age=60", rec.Header().Get("Cache-Control"))

	var resp models.RouteComputeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	assert.Equal(t, city.Bangalore, resp.City)
	require.NotEmpty(t, resp.Routes)
	require.NotNil(t, resp.Top)
	assert.Nil(t, resp.Weather)

	for _, r := range resp.Routes {
		for _, seg := range r.Segments {
			require.NotEmpty(t, seg.Polyline, "segment %s has no geometry", seg.ID)
			line, err := polyline.Decode(seg.Polyline)
			require.NoError(t, err)
			require.Len(t, line, 2)
			assert.InDelta(t, seg.From.Lat, line[0].Lat(), 1e-5)
			assert.InDelta(t, seg.To.Lng, line[1].Lon(), 1e-5)
		}
	}
}

func TestComputeRoutes_InvalidJSON(t *testing.T) {
	h := handler.NewRouteHandler(&fakeCalculator{}, nil, zerolog.Nop())

	rec := postCompute(t, h, `{"source":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestComputeRoutes_UnknownField(t *testing.T) {
	h := handler.NewRouteHandler(&fakeCalculator{}, nil, zerolog.Nop())

	rec := postCompute(t, h, `{"origin": {"lat": 1, "lng": 2}}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComputeRoutes_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{
			name:  "source out of range",
			body:  `{"source":{"lat":95,"lng":77.6},"destination":{"lat":12.97,"lng":77.59}}`,
			field: "source",
		},
		{
			name:  "destination out of range",
			body:  `{"source":{"lat":12.97,"lng":77.6},"destination":{"lat":12.97,"lng":190}}`,
			field: "destination",
		},
		{
			name:  "unknown prioritize",
			body:  `{"source":{"lat":12.97,"lng":77.6},"destination":{"lat":12.98,"lng":77.59},"preferences":{"prioritize":"scenic"}}`,
			field: "preferences",
		},
		{
			name:  "unknown mode",
			body:  `{"source":{"lat":12.97,"lng":77.6},"destination":{"lat":12.98,"lng":77.59},"preferences":{"avoidModes":["ferry"]}}`,
			field: "preferences",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := &fakeCalculator{}
			h := handler.NewRouteHandler(calc, nil, zerolog.Nop())

			rec := postCompute(t, h, tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			problem := decodeProblem(t, rec)
			require.Len(t, problem.Errors, 1)
			assert.Equal(t, tt.field, problem.Errors[0].Field)
			assert.Nil(t, calc.got, "engine must not be called")
		})
	}
}

func TestComputeRoutes_ResolvesWeather(t *testing.T) {
	calc := &fakeCalculator{resp: route.Response{Routes: []route.Route{}}}
	wx := &fakeWeather{conditions: weather.Conditions{
		Weather:     route.WeatherRain,
		Temperature: 24,
		Source:      weather.SourceCurrent,
	}}
	h := handler.NewRouteHandler(calc, wx, zerolog.Nop())

	rec := postCompute(t, h, computeBody)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, calc.got)
	assert.Equal(t, route.WeatherRain, calc.got.Context.WeatherCondition)
	require.NotNil(t, calc.got.Context.Temperature)
	assert.Equal(t, 24.0, *calc.got.Context.Temperature)

	var resp models.RouteComputeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Weather)
	assert.Equal(t, route.WeatherRain, resp.Weather.Weather)
}

func TestComputeRoutes_ExplicitWeatherSkipsLookup(t *testing.T) {
	calc := &fakeCalculator{}
	wx := &fakeWeather{conditions: weather.Conditions{Weather: route.WeatherRain}}
	h := handler.NewRouteHandler(calc, wx, zerolog.Nop())

	body := `{"source":{"lat":12.97,"lng":77.6},"destination":{"lat":12.98,"lng":77.59},"context":{"weatherCondition":"clear"}}`
	rec := postCompute(t, h, body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, wx.calls)
	assert.Equal(t, route.WeatherClear, calc.got.Context.WeatherCondition)
}

func TestComputeRoutes_WeatherFailureIsAWarning(t *testing.T) {
	calc := &fakeCalculator{resp: route.Response{Warnings: []string{"engine warning"}}}
	wx := &fakeWeather{err: weather.ErrProviderUnavailable}
	h := handler.NewRouteHandler(calc, wx, zerolog.Nop())

	rec := postCompute(t, h, computeBody)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, route.WeatherUnknown, calc.got.Context.WeatherCondition)

	var resp models.RouteComputeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Warnings, 2)
	assert.Contains(t, resp.Warnings[0], "Weather data unavailable")
	assert.Equal(t, "engine warning", resp.Warnings[1])
}

func TestComputeRoutes_EngineFailure(t *testing.T) {
	calc := &fakeCalculator{resp: route.Response{
		Routes: []route.Route{},
		Errors: []string{"internal error: boom"},
	}}
	h := handler.NewRouteHandler(calc, nil, zerolog.Nop())

	rec := postCompute(t, h, computeBody)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Contains(t, problem.Detail, "boom")
}
