package regime

import (
	"errors"
	"math"
	"testing"

	"floatbt/internal/domain"
)

func TestGenerateLengthsAndNonNegative(t *testing.T) {
	for _, id := range Known() {
		for _, n := range []int{0, 1, 42, 365, 2000} {
			p := Generate(id, n)
			if len(p.InflationDrift) != n || len(p.VolatilityMultiplier) != n {
				t.Fatalf("%s/%d: lengths = %d/%d, want %d",
					id, n, len(p.InflationDrift), len(p.VolatilityMultiplier), n)
			}
			for i := 0; i < n; i++ {
				if p.InflationDrift[i] < 0 || p.VolatilityMultiplier[i] < 0 {
					t.Fatalf("%s day %d: negative value drift=%v vol=%v",
						id, i, p.InflationDrift[i], p.VolatilityMultiplier[i])
				}
			}
		}
	}
}

func TestGenerateFormulas(t *testing.T) {
	tests := []struct {
		id        domain.RegimeID
		day       int
		wantDrift float64
		wantVol   float64
	}{
		{domain.RegimeStress, 0, 0.0003, 0.015},
		{domain.RegimeStress, 30, 0.0003 + 0.0001*math.Sin(1), 0.015 + 0.01*math.Sin(1.5)},
		{domain.RegimeHighInflation, 45, 0.0008 + 0.0002*math.Sin(1), 0.012 + 0.008*math.Sin(1.8)},
		{domain.RegimeDisinflation, 50, 0.0004 + 0.00005*math.Sin(1), 0.008 + 0.004*math.Sin(50.0/35)},
		{domain.RegimeBaseline, 100, 0.0005, 0.01},
	}
	for _, tt := range tests {
		p := Generate(tt.id, tt.day+1)
		if got := p.InflationDrift[tt.day]; math.Abs(got-tt.wantDrift) > 1e-15 {
			t.Errorf("%s day %d drift = %v, want %v", tt.id, tt.day, got, tt.wantDrift)
		}
		if got := p.VolatilityMultiplier[tt.day]; math.Abs(got-tt.wantVol) > 1e-15 {
			t.Errorf("%s day %d vol = %v, want %v", tt.id, tt.day, got, tt.wantVol)
		}
	}
}

func TestGenerateUnknownFallsBackToBaseline(t *testing.T) {
	p := Generate("1999", 3)
	if p.Regime != domain.RegimeBaseline {
		t.Errorf("Regime = %q, want baseline", p.Regime)
	}
	for i := range p.InflationDrift {
		if p.InflationDrift[i] != 0.0005 || p.VolatilityMultiplier[i] != 0.01 {
			t.Errorf("day %d = (%v, %v), want baseline constants", i, p.InflationDrift[i], p.VolatilityMultiplier[i])
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a := Generate(domain.RegimeStress, 200)
	b := Generate(domain.RegimeStress, 200)
	for i := range a.InflationDrift {
		if a.InflationDrift[i] != b.InflationDrift[i] || a.VolatilityMultiplier[i] != b.VolatilityMultiplier[i] {
			t.Fatalf("day %d differs between identical calls", i)
		}
	}
}

func TestParseRegime(t *testing.T) {
	tests := []struct {
		in      string
		strict  bool
		want    domain.RegimeID
		wantErr bool
	}{
		{"stress", false, domain.RegimeStress, false},
		{"2020", false, domain.RegimeStress, false},
		{"2022", true, domain.RegimeHighInflation, false},
		{" Disinflation ", true, domain.RegimeDisinflation, false},
		{"2023", false, domain.RegimeDisinflation, false},
		{"baseline", true, domain.RegimeBaseline, false},
		{"1987", false, domain.RegimeBaseline, false},
		{"1987", true, "", true},
	}
	for _, tt := range tests {
		got, err := ParseRegime(tt.in, tt.strict)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseRegime(%q, %v) error = %v, wantErr %v", tt.in, tt.strict, err, tt.wantErr)
		}
		if err != nil {
			if !errors.Is(err, domain.ErrInvalidConfiguration) {
				t.Errorf("error %v should wrap ErrInvalidConfiguration", err)
			}
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRegime(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAliasesCopy(t *testing.T) {
	a := Aliases()
	if a["2022"] != domain.RegimeHighInflation || len(a) != 3 {
		t.Fatalf("Aliases() = %v", a)
	}
	a["2022"] = domain.RegimeBaseline
	if Aliases()["2022"] != domain.RegimeHighInflation {
		t.Error("Aliases() should return a copy")
	}
}
