package models

import "github.com/citynav/citynav/internal/city"

// CityDetectResponse is the body of GET /v1/cities/detect.
type CityDetectResponse struct {
	City    city.ID      `json:"city"`
	Known   bool         `json:"known"`
	Context city.Context `json:"context"`
	Rules   []string     `json:"rules"`
}
