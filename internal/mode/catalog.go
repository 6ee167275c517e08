package mode

import (
	"context"
	"fmt"
	"sync"

	"github.com/citynav/citynav/internal/city"
)

// DefaultConfig returns the built-in parameters for a mode.
func DefaultConfig(m Mode) Config {
	switch m {
	case Walk:
		return Config{
			AverageSpeedKmh: 4.5, ComfortScore: 6, ReliabilityScore: 10, CarbonPerKm: 0,
			MaxDistance: float64Ptr(5000),
		}
	case Bus:
		return Config{
			AverageSpeedKmh: 15, BaseFare: 10, CostPerKm: 2, ComfortScore: 5, ReliabilityScore: 6, CarbonPerKm: 80,
			OperatingHours: &HoursWindow{Open: 5, Close: 23},
		}
	case Metro:
		return Config{
			AverageSpeedKmh: 35, BaseFare: 10, CostPerKm: 3, ComfortScore: 8, ReliabilityScore: 9, CarbonPerKm: 30,
			OperatingHours: &HoursWindow{Open: 6, Close: 23},
			MinDistance:    float64Ptr(1000),
		}
	case Auto:
		return Config{
			AverageSpeedKmh: 22, BaseFare: 20, CostPerKm: 15, ComfortScore: 6, ReliabilityScore: 7, CarbonPerKm: 100,
			MaxDistance: float64Ptr(10000),
		}
	case Cab:
		return Config{
			AverageSpeedKmh: 28, BaseFare: 50, CostPerKm: 20, ComfortScore: 9, ReliabilityScore: 8, CarbonPerKm: 150,
		}
	case Bike:
		return Config{
			AverageSpeedKmh: 12, ComfortScore: 7, ReliabilityScore: 10, CarbonPerKm: 0,
			MaxDistance: float64Ptr(15000),
		}
	}
	return Config{}
}

// builtinCityOverrides are the per-city adjustments shipped with the catalog.
func builtinCityOverrides() map[city.ID]map[Mode]Override {
	return map[city.ID]map[Mode]Override{
		city.Mumbai: {
			Auto: {MaxDistance: float64Ptr(0)},
			Bus:  {AverageSpeedKmh: float64Ptr(12)},
			Cab:  {AverageSpeedKmh: float64Ptr(20), BaseFare: float64Ptr(30)},
		},
		city.Delhi: {
			Cab:   {AverageSpeedKmh: float64Ptr(24)},
			Metro: {AverageSpeedKmh: float64Ptr(34), OperatingHours: &HoursWindow{Open: 5, Close: 23}},
		},
		city.Bangalore: {
			Auto: {BaseFare: float64Ptr(30)},
			Bus:  {AverageSpeedKmh: float64Ptr(12)},
		},
		city.Kolkata: {
			Metro: {BaseFare: float64Ptr(5), CostPerKm: float64Ptr(2)},
			Cab:   {BaseFare: float64Ptr(40)},
		},
	}
}

// Catalog is an owned, mutable mode configuration table. It is safe for
// concurrent use.
type Catalog struct {
	mu        sync.RWMutex
	defaults  map[Mode]Config
	overrides map[city.ID]map[Mode]Override
}

// NewCatalog creates a catalog seeded with the built-in defaults and city overrides.
func NewCatalog() *Catalog {
	defaults := make(map[Mode]Config, len(All()))
	for _, m := range All() {
		defaults[m] = DefaultConfig(m)
	}
	return &Catalog{
		defaults:  defaults,
		overrides: builtinCityOverrides(),
	}
}

// Default returns the catalog's default config for a mode.
func (c *Catalog) Default(m Mode) Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaults[m]
}

// ApplyCityAdjustments merges the city's override for the mode onto base.
// Without an override base is returned unchanged.
func (c *Catalog) ApplyCityAdjustments(id city.ID, m Mode, base Config) Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.applyLocked(id, m, base)
}

// ConfigFor returns the default config for a mode adjusted for the city.
func (c *Catalog) ConfigFor(id city.ID, m Mode) Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.applyLocked(id, m, c.defaults[m])
}

func (c *Catalog) applyLocked(id city.ID, m Mode, base Config) Config {
	byMode, ok := c.overrides[id]
	if !ok {
		return base
	}
	o, ok := byMode[m]
	if !ok {
		return base
	}
	return o.Apply(base)
}

// IsAvailableInCity reports whether a mode can be offered at all in a city.
// Unknown cities fail open.
func (c *Catalog) IsAvailableInCity(id city.ID, m Mode) bool {
	if !id.IsKnown() {
		return true
	}
	profile := city.ContextFor(id)
	switch m {
	case Metro:
		if !profile.HasMetro {
			return false
		}
	case Auto:
		if profile.AutoAvailability == city.AvailabilityLow {
			return false
		}
	}
	return !c.ConfigFor(id, m).Disabled()
}

// Update layers an override onto the catalog. city.Unknown updates the
// global defaults; any other city updates that city's override.
func (c *Catalog) Update(id city.ID, m Mode, o Override) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMode, m)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if id == city.Unknown {
		c.defaults[m] = o.Apply(c.defaults[m])
		return nil
	}

	byMode, ok := c.overrides[id]
	if !ok {
		byMode = make(map[Mode]Override)
		c.overrides[id] = byMode
	}
	byMode[m] = byMode[m].Merge(o)
	return nil
}

// Snapshot returns the effective config of every mode for a city.
func (c *Catalog) Snapshot(id city.ID) map[Mode]Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[Mode]Config, len(c.defaults))
	for _, m := range All() {
		out[m] = c.applyLocked(id, m, c.defaults[m])
	}
	return out
}

// Load applies every stored override from the repository. Returns the
// number of overrides applied.
func (c *Catalog) Load(ctx context.Context, repo Repository) (int, error) {
	stored, err := repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing mode overrides: %w", err)
	}
	for _, s := range stored {
		if err := c.Update(s.City, s.Mode, s.Override); err != nil {
			return 0, fmt.Errorf("applying override %s/%s: %w", s.City, s.Mode, err)
		}
	}
	return len(stored), nil
}
