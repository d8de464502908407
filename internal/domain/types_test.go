package domain

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"
)

func TestTypesExist(t *testing.T) {
	// Verify DailyRecord can be instantiated with zero values.
	rec := DailyRecord{}
	if !rec.Date.IsZero() {
		t.Error("expected zero Date for zero-value DailyRecord")
	}
	if rec.NewFloatAmount != 0 || rec.ActiveFloatTotal != 0 || rec.DailyProfit != 0 {
		t.Error("expected zero amounts for zero-value DailyRecord")
	}

	// Verify enum constants are defined correctly.
	if RegimeBaseline != "baseline" {
		t.Errorf("RegimeBaseline = %q, want %q", RegimeBaseline, "baseline")
	}
	if RegimeStress != "stress" || RegimeHighInflation != "high-inflation" || RegimeDisinflation != "disinflation" {
		t.Error("Regime constants have unexpected values")
	}
}

func TestFloatPositionActiveOn(t *testing.T) {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	p := FloatPosition{Start: start, End: start.AddDate(0, 0, 42), Amount: 100}

	tests := []struct {
		offset int
		want   bool
	}{
		{-1, false},
		{0, true},
		{1, true},
		{41, true},
		{42, false},
		{43, false},
	}
	for _, tt := range tests {
		d := start.AddDate(0, 0, tt.offset)
		if got := p.ActiveOn(d); got != tt.want {
			t.Errorf("ActiveOn(start+%d) = %v, want %v", tt.offset, got, tt.want)
		}
	}
}

func TestDailyReturn(t *testing.T) {
	tests := []struct {
		name   string
		profit float64
		total  float64
		want   float64
	}{
		{"zero total", 5, 0, 0},
		{"zero over zero", 0, 0, 0},
		{"regular", 1, 200, 0.005},
		{"infinite profit", math.Inf(1), 100, 0},
		{"nan profit", math.NaN(), 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DailyReturn(tt.profit, tt.total)
			if got != tt.want {
				t.Errorf("DailyReturn(%v, %v) = %v, want %v", tt.profit, tt.total, got, tt.want)
			}
		})
	}
}

func TestOverlayMultiplier(t *testing.T) {
	r := DailyRecord{VolatilityMultiplier: 0.015}
	if got := r.OverlayMultiplier(); math.Abs(got-0.15) > 1e-12 {
		t.Errorf("OverlayMultiplier() = %v, want 0.15", got)
	}
}

func TestErrorKindsWrap(t *testing.T) {
	err := fmt.Errorf("horizon_days must be positive: %w", ErrInvalidConfiguration)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Error("wrapped error should match ErrInvalidConfiguration")
	}
	if errors.Is(err, ErrSinkFailure) {
		t.Error("configuration error should not match ErrSinkFailure")
	}
}
