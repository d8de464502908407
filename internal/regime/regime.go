// Package regime generates the per-day macro inputs for a backtest: an
// inflation drift series and a volatility multiplier series.
package regime

import (
	"fmt"
	"math"
	"strings"

	"floatbt/internal/domain"
)

// Profile holds the two input series for a run, indexed by simulation day.
// It is read-only once generated.
type Profile struct {
	Regime               domain.RegimeID
	InflationDrift       []float64
	VolatilityMultiplier []float64
}

// Len returns the number of days covered by the profile.
func (p Profile) Len() int { return len(p.InflationDrift) }

// series computes the day-i values of drift and volatility.
type series func(i float64) (drift, vol float64)

var generators = map[domain.RegimeID]series{
	// COVID dip and rebound.
	domain.RegimeStress: func(i float64) (float64, float64) {
		return 0.0003 + 0.0001*math.Sin(i/30), 0.015 + 0.01*math.Sin(i/20)
	},
	domain.RegimeHighInflation: func(i float64) (float64, float64) {
		return 0.0008 + 0.0002*math.Sin(i/45), 0.012 + 0.008*math.Sin(i/25)
	},
	domain.RegimeDisinflation: func(i float64) (float64, float64) {
		return 0.0004 + 0.00005*math.Sin(i/50), 0.008 + 0.004*math.Sin(i/35)
	},
	domain.RegimeBaseline: func(float64) (float64, float64) {
		return 0.0005, 0.01
	},
}

// aliases maps the historical years each scenario was calibrated on.
var aliases = map[string]domain.RegimeID{
	"2020": domain.RegimeStress,
	"2022": domain.RegimeHighInflation,
	"2023": domain.RegimeDisinflation,
}

// Known returns the recognised regimes in display order.
func Known() []domain.RegimeID {
	return []domain.RegimeID{
		domain.RegimeStress,
		domain.RegimeHighInflation,
		domain.RegimeDisinflation,
		domain.RegimeBaseline,
	}
}

// Aliases returns a copy of the year aliases.
func Aliases() map[string]domain.RegimeID {
	out := make(map[string]domain.RegimeID, len(aliases))
	for k, v := range aliases {
		out[k] = v
	}
	return out
}

// ParseRegime resolves a regime name or year alias. Unknown names map to the
// baseline regime unless strict is set, in which case they are rejected.
func ParseRegime(s string, strict bool) (domain.RegimeID, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if id, ok := aliases[key]; ok {
		return id, nil
	}
	id := domain.RegimeID(key)
	if _, ok := generators[id]; ok {
		return id, nil
	}
	if strict {
		return "", fmt.Errorf("unsupported regime %q: %w", s, domain.ErrInvalidConfiguration)
	}
	return domain.RegimeBaseline, nil
}

// Generate returns the profile for id over horizonDays days. Unknown ids use
// the baseline policy. A non-positive horizon yields empty series.
func Generate(id domain.RegimeID, horizonDays int) Profile {
	gen, ok := generators[id]
	if !ok {
		id = domain.RegimeBaseline
		gen = generators[id]
	}
	if horizonDays < 0 {
		horizonDays = 0
	}

	p := Profile{
		Regime:               id,
		InflationDrift:       make([]float64, horizonDays),
		VolatilityMultiplier: make([]float64, horizonDays),
	}
	for i := 0; i < horizonDays; i++ {
		p.InflationDrift[i], p.VolatilityMultiplier[i] = gen(float64(i))
	}
	return p
}
