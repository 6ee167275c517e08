package mode

import (
	"context"

	"github.com/citynav/citynav/internal/city"
)

// Repository defines the interface for mode override persistence.
type Repository interface {
	// List retrieves every stored override, oldest first.
	List(ctx context.Context) ([]StoredOverride, error)

	// Get retrieves the override for a city and mode.
	// Returns ErrOverrideNotFound if none is stored.
	Get(ctx context.Context, id city.ID, m Mode) (*StoredOverride, error)

	// Upsert merges the override onto any stored override for the same
	// city and mode and returns the stored result.
	Upsert(ctx context.Context, o StoredOverride) (*StoredOverride, error)

	// Delete removes the override for a city and mode.
	Delete(ctx context.Context, id city.ID, m Mode) error
}
