package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citynav/citynav/internal/api/handler"
	"github.com/citynav/citynav/internal/api/models"
	"github.com/citynav/citynav/internal/city"
	"github.com/citynav/citynav/internal/mode"
)

type failingRepository struct {
	*mode.InMemoryRepository
}

func (failingRepository) Upsert(context.Context, mode.StoredOverride) (*mode.StoredOverride, error) {
	return nil, errors.New("connection reset")
}

func modeRouter(h *handler.ModeHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/modes", h.ListModes)
	r.Put("/v1/admin/modes/{city}/{mode}", h.UpdateMode)
	return r
}

func TestModeHandler_ListModes(t *testing.T) {
	catalog := mode.NewCatalog()
	h := handler.NewModeHandler(catalog, mode.NewInMemoryRepository(), zerolog.Nop())

	t.Run("defaults", func(t *testing.T) {
		rec := httptest.NewRecorder()
		modeRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/modes", http.NoBody))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp models.ModeCatalogResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

		assert.Equal(t, city.Unknown, resp.City)
		assert.Len(t, resp.Modes, len(mode.All()))
		assert.Equal(t, 4.5, resp.Modes[mode.Walk].AverageSpeedKmh)
		assert.True(t, resp.Modes[mode.Auto].Available)
	})

	t.Run("city overrides applied", func(t *testing.T) {
		rec := httptest.NewRecorder()
		modeRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/modes?city=mumbai", http.NoBody))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp models.ModeCatalogResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

		assert.Equal(t, city.Mumbai, resp.City)
		assert.Equal(t, 12.0, resp.Modes[mode.Bus].AverageSpeedKmh)
		assert.False(t, resp.Modes[mode.Auto].Available)
	})

	t.Run("unknown city", func(t *testing.T) {
		rec := httptest.NewRecorder()
		modeRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/modes?city=amsterdam", http.NoBody))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestModeHandler_UpdateMode(t *testing.T) {
	t.Run("persists and applies", func(t *testing.T) {
		catalog := mode.NewCatalog()
		repo := mode.NewInMemoryRepository()
		h := handler.NewModeHandler(catalog, repo, zerolog.Nop())

		req := httptest.NewRequest(http.MethodPut, "/v1/admin/modes/pune/bus", strings.NewReader(`{"baseFare": 8}`))
		rec := httptest.NewRecorder()
		modeRouter(h).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp models.ModeOverrideResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, city.Pune, resp.City)
		assert.Equal(t, mode.Bus, resp.Mode)
		assert.Equal(t, 8.0, resp.Effective.BaseFare)

		assert.Equal(t, 8.0, catalog.ConfigFor(city.Pune, mode.Bus).BaseFare)
		assert.Equal(t, 10.0, catalog.ConfigFor(city.Chennai, mode.Bus).BaseFare)

		stored, err := repo.Get(context.Background(), city.Pune, mode.Bus)
		require.NoError(t, err)
		require.NotNil(t, stored.Override.BaseFare)
		assert.Equal(t, 8.0, *stored.Override.BaseFare)
	})

	t.Run("default updates global config", func(t *testing.T) {
		catalog := mode.NewCatalog()
		h := handler.NewModeHandler(catalog, mode.NewInMemoryRepository(), zerolog.Nop())

		req := httptest.NewRequest(http.MethodPut, "/v1/admin/modes/default/walk", strings.NewReader(`{"averageSpeedKmh": 4}`))
		rec := httptest.NewRecorder()
		modeRouter(h).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 4.0, catalog.Default(mode.Walk).AverageSpeedKmh)
	})

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name   string
			path   string
			body   string
			status int
		}{
			{"unknown city", "/v1/admin/modes/paris/bus", `{"baseFare": 8}`, http.StatusNotFound},
			{"unknown mode", "/v1/admin/modes/pune/ferry", `{"baseFare": 8}`, http.StatusNotFound},
			{"empty override", "/v1/admin/modes/pune/bus", `{}`, http.StatusBadRequest},
			{"negative value", "/v1/admin/modes/pune/bus", `{"costPerKm": -2}`, http.StatusBadRequest},
			{"unknown field", "/v1/admin/modes/pune/bus", `{"fare": 8}`, http.StatusBadRequest},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				catalog := mode.NewCatalog()
				h := handler.NewModeHandler(catalog, mode.NewInMemoryRepository(), zerolog.Nop())

				rec := httptest.NewRecorder()
				modeRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPut, tt.path, strings.NewReader(tt.body)))

				assert.Equal(t, tt.status, rec.Code)
				assert.Equal(t, 10.0, catalog.ConfigFor(city.Pune, mode.Bus).BaseFare)
			})
		}
	})

	t.Run("storage failure leaves catalog untouched", func(t *testing.T) {
		catalog := mode.NewCatalog()
		h := handler.NewModeHandler(catalog, failingRepository{mode.NewInMemoryRepository()}, zerolog.Nop())

		req := httptest.NewRequest(http.MethodPut, "/v1/admin/modes/pune/bus", strings.NewReader(`{"baseFare": 8}`))
		rec := httptest.NewRecorder()
		modeRouter(h).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, 10.0, catalog.ConfigFor(city.Pune, mode.Bus).BaseFare)
	})
}
