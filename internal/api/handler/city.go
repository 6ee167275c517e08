package handler

import (
	"net/http"
	"strconv"

	"github.com/citynav/citynav/internal/api/models"
	"github.com/citynav/citynav/internal/api/response"
	"github.com/citynav/citynav/internal/city"
	"github.com/citynav/citynav/internal/geo"
)

// CityHandler handles city lookups.
type CityHandler struct{}

// NewCityHandler creates a new CityHandler.
func NewCityHandler() *CityHandler {
	return &CityHandler{}
}

// Detect handles GET /v1/cities/detect?lat=&lng=.
func (h *CityHandler) Detect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var fieldErrors []models.FieldError
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "lat", Message: "must be a number", Code: "REQUIRED"})
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "lng", Message: "must be a number", Code: "REQUIRED"})
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "lat and lng query parameters are required", fieldErrors)
		return
	}

	loc := geo.Location{Lat: lat, Lng: lng}
	if !loc.Valid() {
		response.BadRequest(w, r, "coordinates out of range", []models.FieldError{
			{Field: "lat", Message: "must be between -90 and 90", Code: "OUT_OF_RANGE"},
			{Field: "lng", Message: "must be between -180 and 180", Code: "OUT_OF_RANGE"},
		})
		return
	}

	id := city.DetectLocation(loc)
	response.JSON(w, r, http.StatusOK, models.CityDetectResponse{
		City:    id,
		Known:   id.IsKnown(),
		Context: city.ContextFor(id),
		Rules:   city.Rules(id),
	})
}
