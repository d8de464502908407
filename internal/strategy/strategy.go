// Package strategy runs the float backtest: it owns the day loop, the
// pluggable seasonal-drift strategies and the regime comparison.
package strategy

import (
	"math"
	"sort"

	"floatbt/internal/regime"
)

// Drift strategy names.
const (
	DriftRegime     = "regime"
	DriftSinusoidal = "sinusoidal"
)

// DriftStrategy scales the daily spend by a seasonal factor.
type DriftStrategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// Factor returns the multiplier for simulation day i.
	Factor(i int) float64
}

// RegimeDrift follows the regime's inflation drift: 1 + drift[i]*100.
type RegimeDrift struct {
	profile regime.Profile
}

// NewRegimeDrift creates a RegimeDrift over the given profile.
func NewRegimeDrift(p regime.Profile) *RegimeDrift {
	return &RegimeDrift{profile: p}
}

func (d *RegimeDrift) Name() string { return DriftRegime }

// Factor returns 1 for days outside the profile.
func (d *RegimeDrift) Factor(i int) float64 {
	if i < 0 || i >= d.profile.Len() {
		return 1
	}
	return 1 + d.profile.InflationDrift[i]*100
}

// SinusoidalDrift is the macro-free seasonal curve 1 + Amplitude*sin(i/Period).
type SinusoidalDrift struct {
	Amplitude float64
	Period    float64
}

// NewSinusoidalDrift returns the default 5% swing over a 50-day period.
func NewSinusoidalDrift() *SinusoidalDrift {
	return &SinusoidalDrift{Amplitude: 0.05, Period: 50}
}

func (d *SinusoidalDrift) Name() string { return DriftSinusoidal }

func (d *SinusoidalDrift) Factor(i int) float64 {
	return 1 + d.Amplitude*math.Sin(float64(i)/d.Period)
}

// Registry holds a named collection of drift strategies for lookup and
// enumeration.
type Registry struct {
	strategies map[string]DriftStrategy
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]DriftStrategy),
	}
}

// DefaultRegistry returns a Registry holding the regime drift for profile
// and the sinusoidal drift.
func DefaultRegistry(profile regime.Profile) *Registry {
	r := NewRegistry()
	r.Register(NewRegimeDrift(profile))
	r.Register(NewSinusoidalDrift())
	return r
}

// Register adds a strategy to the registry, keyed by its Name().
func (r *Registry) Register(s DriftStrategy) {
	r.strategies[s.Name()] = s
}

// Get retrieves a strategy by name. The second return value indicates whether
// the strategy was found.
func (r *Registry) Get(name string) (DriftStrategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
