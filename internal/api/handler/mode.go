package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/citynav/citynav/internal/api/models"
	"github.com/citynav/citynav/internal/api/response"
	"github.com/citynav/citynav/internal/city"
	"github.com/citynav/citynav/internal/mode"
)

// ModeHandler exposes the mode catalog and its admin overrides.
type ModeHandler struct {
	catalog *mode.Catalog
	repo    mode.Repository
	logger  zerolog.Logger
}

// NewModeHandler creates a new ModeHandler.
func NewModeHandler(catalog *mode.Catalog, repo mode.Repository, logger zerolog.Logger) *ModeHandler {
	return &ModeHandler{
		catalog: catalog,
		repo:    repo,
		logger:  logger,
	}
}

// ListModes handles GET /v1/modes?city= - effective configuration per mode.
// Without a city the global defaults are returned.
func (h *ModeHandler) ListModes(w http.ResponseWriter, r *http.Request) {
	id := city.Unknown
	if name := r.URL.Query().Get("city"); name != "" {
		parsed, err := city.Parse(name)
		if err != nil {
			response.BadRequest(w, r, err.Error(), []models.FieldError{
				{Field: "city", Message: "unknown city", Code: "INVALID_VALUE"},
			})
			return
		}
		id = parsed
	}

	snapshot := h.catalog.Snapshot(id)
	out := models.ModeCatalogResponse{
		City:  id,
		Modes: make(map[mode.Mode]models.ModeInfo, len(snapshot)),
	}
	for m, cfg := range snapshot {
		out.Modes[m] = models.ModeInfo{
			Config:    cfg,
			Available: h.catalog.IsAvailableInCity(id, m),
		}
	}
	response.JSON(w, r, http.StatusOK, out)
}

// UpdateMode handles PUT /v1/admin/modes/{city}/{mode}. The override is
// persisted first and then layered onto the live catalog. "default"
// addresses the global defaults.
func (h *ModeHandler) UpdateMode(w http.ResponseWriter, r *http.Request) {
	id, err := city.Parse(chi.URLParam(r, "city"))
	if err != nil {
		response.NotFound(w, r, err.Error())
		return
	}
	m, err := mode.Parse(chi.URLParam(r, "mode"))
	if err != nil {
		response.NotFound(w, r, err.Error())
		return
	}

	var override mode.Override
	if err := response.DecodeJSON(w, r, &override); err != nil {
		response.BadRequest(w, r, "invalid JSON body: "+err.Error(), nil)
		return
	}
	if err := override.Validate(); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	stored, err := h.repo.Upsert(r.Context(), mode.StoredOverride{
		City:      id,
		Mode:      m,
		Override:  override,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		h.logger.Error().Err(err).Str("city", string(id)).Str("mode", string(m)).Msg("failed to store mode override")
		response.InternalError(w, r, "failed to store mode override")
		return
	}

	if err := h.catalog.Update(id, m, override); err != nil {
		if errors.Is(err, mode.ErrUnknownMode) {
			response.NotFound(w, r, err.Error())
			return
		}
		response.InternalError(w, r, "failed to apply mode override")
		return
	}

	h.logger.Info().
		Str("city", string(id)).
		Str("mode", string(m)).
		Msg("mode override applied")

	response.JSON(w, r, http.StatusOK, models.ModeOverrideResponse{
		City:      id,
		Mode:      m,
		Override:  stored.Override,
		Effective: h.catalog.ConfigFor(id, m),
		UpdatedAt: models.Timestamp(stored.UpdatedAt),
	})
}
