package strategy

import "math/rand/v2"

// Jitter bounds for the daily spend.
const (
	JitterLow  = 0.85
	JitterHigh = 1.15
)

// Jitter supplies the random spend multiplier for each simulated day.
type Jitter interface {
	Next() float64
}

// UniformJitter draws uniformly from [Low, High) using a seeded PCG source,
// so a given seed always yields the same sequence.
type UniformJitter struct {
	Low, High float64
	rng       *rand.Rand
}

// NewUniformJitter returns a jitter over [0.85, 1.15) seeded with seed.
func NewUniformJitter(seed uint64) *UniformJitter {
	return &UniformJitter{
		Low:  JitterLow,
		High: JitterHigh,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (j *UniformJitter) Next() float64 {
	return j.Low + (j.High-j.Low)*j.rng.Float64()
}

// FixedJitter always returns the same multiplier.
type FixedJitter float64

func (f FixedJitter) Next() float64 { return float64(f) }
