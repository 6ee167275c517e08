package models

import (
	"github.com/citynav/citynav/internal/route"
	"github.com/citynav/citynav/internal/weather"
)

// RouteComputeRequest is the body of POST /v1/routes:compute.
type RouteComputeRequest = route.Request

// RouteComputeResponse is the engine response plus the weather the handler
// resolved for the trip, if any.
type RouteComputeResponse struct {
	route.Response
	Weather *weather.Conditions `json:"weather,omitempty"`
}
