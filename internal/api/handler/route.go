package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/citynav/citynav/internal/api/models"
	"github.com/citynav/citynav/internal/api/response"
	"github.com/citynav/citynav/internal/geo"
	"github.com/citynav/citynav/internal/route"
	"github.com/citynav/citynav/internal/weather"
	"github.com/citynav/citynav/pkg/polyline"
)

// RouteCalculator computes ranked routes for a request.
type RouteCalculator interface {
	CalculateRoutes(ctx context.Context, req route.Request) route.Response
}

// WeatherResolver resolves trip-time weather at a location.
type WeatherResolver interface {
	ConditionsAt(ctx context.Context, loc geo.Location, at time.Time) (weather.Conditions, error)
}

// RouteHandler handles routing endpoints.
type RouteHandler struct {
	engine  RouteCalculator
	weather WeatherResolver
	logger  zerolog.Logger
	now     func() time.Time
}

// NewRouteHandler creates a new RouteHandler. weather may be nil, in which
// case requests are routed with the weather they carry.
func NewRouteHandler(engine RouteCalculator, weather WeatherResolver, logger zerolog.Logger) *RouteHandler {
	return &RouteHandler{
		engine:  engine,
		weather: weather,
		logger:  logger,
		now:     time.Now,
	}
}

// ComputeRoutes handles POST /v1/routes:compute - compute route options.
func (h *RouteHandler) ComputeRoutes(w http.ResponseWriter, r *http.Request) {
	var req models.RouteComputeRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, r, "invalid JSON body: "+err.Error(), nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.BadRequest(w, r, err.Error(), []models.FieldError{validationField(err)})
		return
	}

	ctx := r.Context()
	var conditions *weather.Conditions
	var warnings []string
	if h.weather != nil && req.Context.WeatherCondition == route.WeatherUnknown {
		c, err := h.weather.ConditionsAt(ctx, req.Source, req.DepartureTime(h.now()))
		if err != nil {
			h.logger.Warn().Err(err).Msg("weather unavailable, routing without weather context")
			warnings = append(warnings, "Weather data unavailable; routes assume fair weather")
		} else {
			req.Context = c.Apply(req.Context)
			conditions = &c
		}
	}

	resp := h.engine.CalculateRoutes(ctx, req)
	if len(resp.Errors) > 0 && len(resp.Routes) == 0 {
		h.logger.Error().Strs("errors", resp.Errors).Msg("route calculation failed")
		response.InternalError(w, r, strings.Join(resp.Errors, "; "))
		return
	}

	resp.Warnings = append(warnings, resp.Warnings...)
	attachPolylines(resp.Routes)

	w.Header().Set("Cache-Control", "private, max-age=60")
	response.JSON(w, r, http.StatusOK, models.RouteComputeResponse{
		Response: resp,
		Weather:  conditions,
	})
}

// attachPolylines fills straight-line geometry for segments that have none.
func attachPolylines(routes []route.Route) {
	for i := range routes {
		for j := range routes[i].Segments {
			seg := &routes[i].Segments[j]
			if seg.Polyline == "" {
				seg.Polyline = polyline.Line(seg.From.Point(), seg.To.Point())
			}
		}
	}
}

func validationField(err error) models.FieldError {
	switch {
	case errors.Is(err, route.ErrInvalidSource):
		return models.FieldError{Field: "source", Message: "latitude must be within [-90, 90] and longitude within [-180, 180]", Code: "OUT_OF_RANGE"}
	case errors.Is(err, route.ErrInvalidDestination):
		return models.FieldError{Field: "destination", Message: "latitude must be within [-90, 90] and longitude within [-180, 180]", Code: "OUT_OF_RANGE"}
	default:
		return models.FieldError{Field: "preferences", Message: err.Error(), Code: "INVALID_VALUE"}
	}
}
