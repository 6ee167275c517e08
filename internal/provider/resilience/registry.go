package resilience

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Status is the coarse health of a provider derived from its breaker state.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// StatusOf maps a circuit breaker state to a Status.
func StatusOf(state gobreaker.State) Status {
	switch state {
	case gobreaker.StateClosed:
		return StatusHealthy
	case gobreaker.StateHalfOpen:
		return StatusDegraded
	case gobreaker.StateOpen:
		return StatusUnhealthy
	default:
		return StatusUnknown
	}
}

// Breaker is what the registry needs from a tracked client.
type Breaker interface {
	CircuitBreakerState() gobreaker.State
	CircuitBreakerCounts() gobreaker.Counts
}

var _ Breaker = (*Client)(nil)

// ProviderHealth is a point-in-time view of one provider.
type ProviderHealth struct {
	Name          string     `json:"name"`
	Status        Status     `json:"status"`
	CircuitState  string     `json:"circuitState"`
	Requests      uint32     `json:"requests"`
	TotalFailures uint32     `json:"totalFailures"`
	LastSuccessAt *time.Time `json:"lastSuccessAt,omitempty"`
	LastFailureAt *time.Time `json:"lastFailureAt,omitempty"`
	LastError     string     `json:"lastError,omitempty"`
}

// Registry tracks provider clients and the outcome of their last calls.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*tracked
	now       func() time.Time
}

type tracked struct {
	breaker       Breaker
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]*tracked),
		now:       time.Now,
	}
}

// Register adds or replaces a provider. Outcome history is reset.
func (r *Registry) Register(name string, b Breaker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = &tracked{breaker: b}
}

// Unregister removes a provider.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.providers, name)
}

// RecordSuccess records a successful call. Unknown names are ignored.
func (r *Registry) RecordSuccess(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.providers[name]; ok {
		now := r.now()
		p.lastSuccessAt = &now
	}
}

// RecordFailure records a failed call. Unknown names are ignored.
func (r *Registry) RecordFailure(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.providers[name]; ok {
		now := r.now()
		p.lastFailureAt = &now
		if err != nil {
			p.lastError = err.Error()
		}
	}
}

// Health returns the health of one provider.
func (r *Registry) Health(name string) (ProviderHealth, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return ProviderHealth{}, false
	}
	return p.health(name), true
}

// Snapshot returns the health of every provider sorted by name.
func (r *Registry) Snapshot() []ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ProviderHealth, 0, len(r.providers))
	for name, p := range r.providers {
		out = append(out, p.health(name))
	}
	slices.SortFunc(out, func(a, b ProviderHealth) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Unhealthy returns the names of providers whose circuit is open.
func (r *Registry) Unhealthy() []string {
	var names []string
	for _, h := range r.Snapshot() {
		if h.Status == StatusUnhealthy {
			names = append(names, h.Name)
		}
	}
	return names
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

func (p *tracked) health(name string) ProviderHealth {
	state := p.breaker.CircuitBreakerState()
	counts := p.breaker.CircuitBreakerCounts()
	return ProviderHealth{
		Name:          name,
		Status:        StatusOf(state),
		CircuitState:  state.String(),
		Requests:      counts.Requests,
		TotalFailures: counts.TotalFailures,
		LastSuccessAt: p.lastSuccessAt,
		LastFailureAt: p.lastFailureAt,
		LastError:     p.lastError,
	}
}
