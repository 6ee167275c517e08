package handler

import (
	"net/http"

	"github.com/citynav/citynav/internal/api/models"
	"github.com/citynav/citynav/internal/api/response"
	"github.com/citynav/citynav/internal/city"
	"github.com/citynav/citynav/internal/mode"
	"github.com/citynav/citynav/internal/route"
)

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct{}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler() *MetadataHandler {
	return &MetadataHandler{}
}

// GetEnums handles GET /v1/metadata/enums - enum values accepted by the API.
func (h *MetadataHandler) GetEnums(w http.ResponseWriter, r *http.Request) {
	enums := models.Enums{
		Modes:  mode.All(),
		Cities: city.Known(),
		Prioritize: []route.Prioritize{
			route.PrioritizeNone,
			route.PrioritizeTime,
			route.PrioritizeCost,
			route.PrioritizeComfort,
		},
		WeatherConditions: []route.WeatherCondition{
			route.WeatherClear,
			route.WeatherCloudy,
			route.WeatherRain,
			route.WeatherStorm,
			route.WeatherHot,
			route.WeatherFog,
		},
		Levels: []route.Level{route.LevelLow, route.LevelMedium, route.LevelHigh},
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	response.JSON(w, r, http.StatusOK, enums)
}
