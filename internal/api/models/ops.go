package models

import "github.com/citynav/citynav/internal/provider/resilience"

// Health represents the health status of the service.
type Health struct {
	Status  HealthStatus   `json:"status"`
	Time    Timestamp      `json:"time"`
	Details map[string]any `json:"details,omitempty"`
}

// SystemStatus represents the overall system status.
type SystemStatus struct {
	Status                 HealthStatus      `json:"status"`
	Time                   Timestamp         `json:"time"`
	Subsystems             []SubsystemStatus `json:"subsystems"`
	Providers              []ProviderStatus  `json:"providers"`
	ActiveDegradationFlags []string          `json:"activeDegradationFlags,omitempty"`
}

// SubsystemStatus represents the status of a subsystem.
type SubsystemStatus struct {
	Name   string       `json:"name"`
	Status HealthStatus `json:"status"`
	Detail *string      `json:"detail,omitempty"`
}

// ProviderStatus represents the status of an external provider.
type ProviderStatus struct {
	Provider      string       `json:"provider"`
	Status        HealthStatus `json:"status"`
	CircuitState  string       `json:"circuitState"`
	Requests      uint32       `json:"requests"`
	TotalFailures uint32       `json:"totalFailures"`
	LastSuccessAt *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt *Timestamp   `json:"lastFailureAt,omitempty"`
	Message       *string      `json:"message,omitempty"`
}

// NewProviderStatus converts a registry snapshot entry.
func NewProviderStatus(h resilience.ProviderHealth) ProviderStatus {
	ps := ProviderStatus{
		Provider:      h.Name,
		Status:        HealthStatusFor(h.Status),
		CircuitState:  h.CircuitState,
		Requests:      h.Requests,
		TotalFailures: h.TotalFailures,
		LastSuccessAt: TimestampPtr(h.LastSuccessAt),
		LastFailureAt: TimestampPtr(h.LastFailureAt),
	}
	if h.LastError != "" {
		msg := h.LastError
		ps.Message = &msg
	}
	return ps
}

// HealthStatusFor maps a provider status onto the API health scale. Unknown
// counts as OK: a provider nobody has called yet is not failing.
func HealthStatusFor(s resilience.Status) HealthStatus {
	switch s {
	case resilience.StatusDegraded:
		return HealthStatusDegraded
	case resilience.StatusUnhealthy:
		return HealthStatusFail
	default:
		return HealthStatusOK
	}
}
