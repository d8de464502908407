package strategy

import (
	"math"
	"testing"

	"floatbt/internal/domain"
	"floatbt/internal/regime"
)

// stubDrift is a minimal DriftStrategy used in registry tests.
type stubDrift struct {
	name string
}

func (s *stubDrift) Name() string       { return s.name }
func (s *stubDrift) Factor(int) float64 { return 1 }

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	s := &stubDrift{name: "test-drift"}

	r.Register(s)

	got, ok := r.Get("test-drift")
	if !ok {
		t.Fatal("Get returned false for registered strategy")
	}
	if got.Name() != "test-drift" {
		t.Errorf("Get returned strategy with Name() = %q, want %q", got.Name(), "test-drift")
	}
}

func TestRegistryGet_NotFound(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Get("nonexistent")
	if ok {
		t.Error("Get returned true for unregistered strategy")
	}
}

func TestDefaultRegistryList(t *testing.T) {
	r := DefaultRegistry(regime.Generate(domain.RegimeBaseline, 10))

	names := r.List()
	if len(names) != 2 {
		t.Fatalf("List returned %d names, want 2", len(names))
	}
	// List returns sorted names.
	if names[0] != DriftRegime || names[1] != DriftSinusoidal {
		t.Errorf("List returned %v, want [regime sinusoidal]", names)
	}
}

func TestRegimeDrift(t *testing.T) {
	p := regime.Generate(domain.RegimeBaseline, 3)
	d := NewRegimeDrift(p)
	if got := d.Factor(1); math.Abs(got-1.05) > 1e-12 {
		t.Errorf("Factor(1) = %v, want 1.05", got)
	}
	if got := d.Factor(3); got != 1 {
		t.Errorf("Factor past horizon = %v, want 1", got)
	}
}

func TestSinusoidalDrift(t *testing.T) {
	d := NewSinusoidalDrift()
	if got := d.Factor(0); got != 1 {
		t.Errorf("Factor(0) = %v, want 1", got)
	}
	if got, want := d.Factor(50), 1+0.05*math.Sin(1); got != want {
		t.Errorf("Factor(50) = %v, want %v", got, want)
	}
}

func TestUniformJitterBoundsAndSeed(t *testing.T) {
	a := NewUniformJitter(7)
	b := NewUniformJitter(7)
	c := NewUniformJitter(8)

	differs := false
	for i := 0; i < 1000; i++ {
		x, y, z := a.Next(), b.Next(), c.Next()
		if x < JitterLow || x >= JitterHigh {
			t.Fatalf("draw %d = %v outside [%v, %v)", i, x, JitterLow, JitterHigh)
		}
		if x != y {
			t.Fatalf("draw %d differs for identical seeds: %v vs %v", i, x, y)
		}
		if x != z {
			differs = true
		}
	}
	if !differs {
		t.Error("different seeds produced identical sequences")
	}
}
