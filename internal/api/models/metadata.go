package models

import (
	"github.com/citynav/citynav/internal/city"
	"github.com/citynav/citynav/internal/mode"
	"github.com/citynav/citynav/internal/route"
)

// Enums contains the enum values accepted by the API.
type Enums struct {
	Modes             []mode.Mode              `json:"modes"`
	Cities            []city.ID                `json:"cities"`
	Prioritize        []route.Prioritize       `json:"prioritize"`
	WeatherConditions []route.WeatherCondition `json:"weatherConditions"`
	Levels            []route.Level            `json:"levels"`
}
