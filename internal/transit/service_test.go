package transit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citynav/citynav/internal/geo"
	"github.com/citynav/citynav/internal/transit"
)

var rajivChowk = geo.Location{Lat: 28.6328, Lng: 77.2197}

// mockProvider is a mock stop provider for testing.
type mockProvider struct {
	mu        sync.Mutex
	callCount int
	stops     []transit.Stop
	err       error
}

func newMockProvider() *mockProvider {
	return &mockProvider{
		stops: []transit.Stop{
			{ID: "m1", Name: "Rajiv Chowk", Type: transit.MetroStation, Location: geo.Destination(rajivChowk, 10, 300), Routes: []string{"Blue", "Yellow"}},
			{ID: "b2", Name: "Janpath", Type: transit.BusStop, Location: geo.Destination(rajivChowk, 200, 420)},
			{ID: "b1", Name: "Regal", Type: transit.BusStop, Location: geo.Destination(rajivChowk, 90, 120)},
			{ID: "t1", Name: "Tram", Type: transit.TramStop, Location: geo.Destination(rajivChowk, 90, 50)},
			{ID: "far", Name: "Far", Type: transit.MetroStation, Location: geo.Destination(rajivChowk, 0, 5000)},
		},
	}
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) FindStops(_ context.Context, _ geo.Location, _ float64) ([]transit.Stop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	if m.err != nil {
		return nil, m.err
	}
	return m.stops, nil
}

func (m *mockProvider) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

func (m *mockProvider) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestService_FindNearbyStops(t *testing.T) {
	provider := newMockProvider()
	svc := transit.NewService(transit.ServiceConfig{Provider: provider, Logger: zerolog.Nop()})

	stops, err := svc.FindNearbyStops(context.Background(), rajivChowk, 1000)
	require.NoError(t, err)

	assert.Equal(t, "mock", stops.Source)
	require.Len(t, stops.BusStops, 2)
	assert.Equal(t, "b1", stops.BusStops[0].ID, "sorted by distance")
	assert.InDelta(t, 120, stops.BusStops[0].Distance, 1)
	require.Len(t, stops.MetroStations, 1, "stops beyond the radius are dropped")
	assert.Empty(t, stops.RailwayStations)

	_, err = svc.FindNearbyStops(context.Background(), rajivChowk, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls(), "second lookup is served from cache")
}

func TestService_StaleIfError(t *testing.T) {
	provider := newMockProvider()
	clk := &clock{t: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
	svc := transit.NewService(transit.ServiceConfig{
		Provider:        provider,
		Logger:          zerolog.Nop(),
		CacheTTL:        time.Minute,
		StaleIfErrorTTL: time.Hour,
		Now:             clk.now,
	})

	_, err := svc.FindNearbyStops(context.Background(), rajivChowk, 1000)
	require.NoError(t, err)

	provider.setErr(errors.New("overpass down"))
	clk.t = clk.t.Add(5 * time.Minute)

	stops, err := svc.FindNearbyStops(context.Background(), rajivChowk, 1000)
	require.NoError(t, err)
	assert.Equal(t, "mock", stops.Source, "stale live data preferred over synthetic")
	assert.Equal(t, 2, provider.calls())
}

func TestService_SyntheticFallback(t *testing.T) {
	t.Run("provider error", func(t *testing.T) {
		provider := newMockProvider()
		provider.setErr(errors.New("timeout"))
		svc := transit.NewService(transit.ServiceConfig{Provider: provider, Logger: zerolog.Nop()})

		stops, err := svc.FindNearbyStops(context.Background(), rajivChowk, 1000)
		require.NoError(t, err)
		assert.Equal(t, transit.SyntheticSource, stops.Source)
		assert.False(t, stops.IsEmpty())
	})

	t.Run("empty result", func(t *testing.T) {
		provider := &mockProvider{}
		svc := transit.NewService(transit.ServiceConfig{Provider: provider, Logger: zerolog.Nop()})

		stops, err := svc.FindNearbyStops(context.Background(), rajivChowk, 1000)
		require.NoError(t, err)
		assert.Equal(t, transit.SyntheticSource, stops.Source)
	})

	t.Run("no provider", func(t *testing.T) {
		svc := transit.NewService(transit.ServiceConfig{Logger: zerolog.Nop()})

		stops, err := svc.FindNearbyStops(context.Background(), rajivChowk, 2000)
		require.NoError(t, err)
		assert.Len(t, stops.BusStops, 2)
		assert.Len(t, stops.MetroStations, 1)
		assert.Len(t, stops.RailwayStations, 1)
		assert.Equal(t, transit.SyntheticSource, svc.Name())
	})

	t.Run("disabled", func(t *testing.T) {
		provider := newMockProvider()
		provider.setErr(errors.New("boom"))
		svc := transit.NewService(transit.ServiceConfig{
			Provider:                 provider,
			Logger:                   zerolog.Nop(),
			DisableSyntheticFallback: true,
		})

		_, err := svc.FindNearbyStops(context.Background(), rajivChowk, 1000)
		require.Error(t, err)

		var lookupErr *transit.LookupError
		require.ErrorAs(t, err, &lookupErr)
		assert.Equal(t, "mock", lookupErr.Provider)
	})
}

func TestService_InvalidateCache(t *testing.T) {
	provider := newMockProvider()
	svc := transit.NewService(transit.ServiceConfig{Provider: provider, Logger: zerolog.Nop()})

	_, _ = svc.FindNearbyStops(context.Background(), rajivChowk, 1000)
	svc.InvalidateCache()
	_, _ = svc.FindNearbyStops(context.Background(), rajivChowk, 1000)

	assert.Equal(t, 2, provider.calls())
}

func TestSynthetic(t *testing.T) {
	near := transit.Synthetic(rajivChowk, 500)
	assert.Len(t, near.BusStops, 2)
	assert.Empty(t, near.MetroStations)

	wide := transit.Synthetic(rajivChowk, 2000)
	require.Len(t, wide.MetroStations, 1)
	assert.InDelta(t, 700, wide.MetroStations[0].Distance, 1)
	assert.Equal(t, transit.SyntheticSource, wide.MetroStations[0].Operator)

	assert.Equal(t, wide, transit.Synthetic(rajivChowk, 2000), "deterministic")
}

func TestSynthetic_IDsDependOnLocation(t *testing.T) {
	indiaGate := geo.Location{Lat: 28.6129, Lng: 77.2295}

	src := transit.Synthetic(rajivChowk, 2000)
	dst := transit.Synthetic(indiaGate, 2000)

	for _, kind := range []transit.StopType{transit.BusStop, transit.MetroStation, transit.RailwayStation} {
		from, ok := src.Nearest(kind, 2000)
		require.True(t, ok, kind)
		to, ok := dst.Nearest(kind, 2000)
		require.True(t, ok, kind)
		assert.NotEqual(t, from.ID, to.ID, kind)
	}

	seen := map[string]bool{}
	for _, st := range append(src.BusStops, src.MetroStations...) {
		assert.False(t, seen[st.ID], "duplicate id %s", st.ID)
		seen[st.ID] = true
	}
}

func TestNearbyStops_Nearest(t *testing.T) {
	stops := transit.Synthetic(rajivChowk, 2000)

	bus, ok := stops.Nearest(transit.BusStop, 500)
	require.True(t, ok)
	assert.InDelta(t, 150, bus.Distance, 1)

	_, ok = stops.Nearest(transit.MetroStation, 500)
	assert.False(t, ok)

	_, ok = stops.Nearest(transit.TramStop, 5000)
	assert.False(t, ok)
}

func TestLookupError(t *testing.T) {
	err := &transit.LookupError{Provider: "overpass", Op: "find nearby stops", Err: transit.ErrProviderUnavailable}

	assert.ErrorIs(t, err, transit.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "overpass")
}

func TestParseStopType(t *testing.T) {
	assert.Equal(t, transit.MetroStation, transit.ParseStopType("metro_station"))
	assert.Equal(t, transit.StopTypeUnknown, transit.ParseStopType("ferry_pier"))
}
