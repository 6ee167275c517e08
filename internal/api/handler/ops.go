// Package handler provides HTTP handlers for the CityNav API.
package handler

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/citynav/citynav/internal/api/models"
	"github.com/citynav/citynav/internal/api/response"
	"github.com/citynav/citynav/internal/provider/resilience"
)

// readinessTimeout bounds all readiness checks of one request.
const readinessTimeout = 2 * time.Second

// ReadinessCheck is a named dependency probe, e.g. a database ping.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
	checks    []ReadinessCheck
	now       func() time.Time
}

// NewOpsHandler creates a new OpsHandler. registry may be nil.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry, checks ...ReadinessCheck) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
		checks:    checks,
		now:       time.Now,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. Any failing
// dependency makes the instance unready.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	subsystems := h.runChecks(r.Context())

	status := http.StatusOK
	health := models.Health{
		Status:  models.HealthStatusOK,
		Time:    models.Timestamp(h.now()),
		Details: make(map[string]any, len(subsystems)),
	}
	for _, s := range subsystems {
		health.Details[s.Name] = s.Status
		if s.Status != models.HealthStatusOK {
			health.Status = models.HealthStatusFail
			status = http.StatusServiceUnavailable
		}
	}
	response.JSON(w, r, status, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
// Open circuits degrade the service without failing it: the engine falls
// back to synthetic stops and request-supplied weather.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(h.now()),
		Subsystems: h.runChecks(r.Context()),
		Providers:  []models.ProviderStatus{},
	}

	for _, s := range status.Subsystems {
		if s.Status != models.HealthStatusOK {
			status.Status = models.HealthStatusFail
		}
	}

	if h.registry != nil {
		for _, p := range h.registry.Snapshot() {
			ps := models.NewProviderStatus(p)
			status.Providers = append(status.Providers, ps)
			if ps.Status == models.HealthStatusOK {
				continue
			}
			status.ActiveDegradationFlags = append(status.ActiveDegradationFlags, p.Name+"_unavailable")
			if status.Status == models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) runChecks(ctx context.Context) []models.SubsystemStatus {
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	results := make([]models.SubsystemStatus, len(h.checks))
	var g errgroup.Group
	for i, c := range h.checks {
		g.Go(func() error {
			results[i] = models.SubsystemStatus{Name: c.Name, Status: models.HealthStatusOK}
			if err := c.Check(ctx); err != nil {
				detail := err.Error()
				results[i].Status = models.HealthStatusFail
				results[i].Detail = &detail
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
