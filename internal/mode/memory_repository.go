package mode

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/citynav/citynav/internal/city"
)

type overrideKey struct {
	city city.ID
	mode Mode
}

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and single-instance deployments.
// Production should use PostgresRepository.
type InMemoryRepository struct {
	mu        sync.RWMutex
	overrides map[overrideKey]StoredOverride
	now       func() time.Time
}

// NewInMemoryRepository creates a new in-memory override repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		overrides: make(map[overrideKey]StoredOverride),
		now:       time.Now,
	}
}

// List retrieves every stored override, oldest first.
func (r *InMemoryRepository) List(_ context.Context) ([]StoredOverride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]StoredOverride, 0, len(r.overrides))
	for _, o := range r.overrides {
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			if out[i].City == out[j].City {
				return out[i].Mode < out[j].Mode
			}
			return out[i].City < out[j].City
		}
		return out[i].UpdatedAt.Before(out[j].UpdatedAt)
	})
	return out, nil
}

// Get retrieves the override for a city and mode.
func (r *InMemoryRepository) Get(_ context.Context, id city.ID, m Mode) (*StoredOverride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.overrides[overrideKey{id, m}]
	if !ok {
		return nil, ErrOverrideNotFound
	}
	return &o, nil
}

// Upsert merges the override onto the stored one.
func (r *InMemoryRepository) Upsert(_ context.Context, o StoredOverride) (*StoredOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := overrideKey{o.City, o.Mode}
	stored := r.overrides[key]
	stored.City = o.City
	stored.Mode = o.Mode
	stored.Override = stored.Override.Merge(o.Override)
	stored.UpdatedAt = r.now().UTC()
	r.overrides[key] = stored

	return &stored, nil
}

// Delete removes the override for a city and mode.
func (r *InMemoryRepository) Delete(_ context.Context, id city.ID, m Mode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.overrides, overrideKey{id, m})
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
