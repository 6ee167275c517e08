package models

import (
	"github.com/citynav/citynav/internal/city"
	"github.com/citynav/citynav/internal/mode"
)

// ModeCatalogResponse is the effective mode configuration for a city.
type ModeCatalogResponse struct {
	City  city.ID                `json:"city"`
	Modes map[mode.Mode]ModeInfo `json:"modes"`
}

// ModeInfo is one mode's effective configuration.
type ModeInfo struct {
	mode.Config
	Available bool `json:"available"`
}

// ModeOverrideResponse is returned after an override is stored.
type ModeOverrideResponse struct {
	City      city.ID       `json:"city"`
	Mode      mode.Mode     `json:"mode"`
	Override  mode.Override `json:"override"`
	Effective mode.Config   `json:"effective"`
	UpdatedAt Timestamp     `json:"updatedAt"`
}
