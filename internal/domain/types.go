// Package domain defines the core types shared across floatbt: float
// positions, daily ledger records, backtest runs and the error kinds used to
// classify failures.
package domain

import (
	"errors"
	"math"
	"time"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// ErrInvalidConfiguration is returned before a backtest starts when its
	// inputs cannot describe a valid run.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrSinkFailure marks an export or dashboard collaborator failure. It is
	// reported to callers but never aborts or alters a simulation.
	ErrSinkFailure = errors.New("external sink failure")
)

// ---------------------------------------------------------------------------
// Regimes
// ---------------------------------------------------------------------------

// RegimeID names a macroeconomic scenario.
type RegimeID string

const (
	RegimeStress        RegimeID = "stress"
	RegimeHighInflation RegimeID = "high-inflation"
	RegimeDisinflation  RegimeID = "disinflation"
	RegimeBaseline      RegimeID = "baseline"
)

// ---------------------------------------------------------------------------
// Ledger types
// ---------------------------------------------------------------------------

// FloatPosition is one unit of cash advanced on a single day. Amount is fixed
// at creation.
type FloatPosition struct {
	Day    int       // simulation day index of creation
	Start  time.Time // UTC midnight
	End    time.Time // Start + maturity
	Amount float64
}

// ActiveOn reports whether the position accrues on date d, using the
// half-open window [Start, End).
func (p FloatPosition) ActiveOn(d time.Time) bool {
	return !d.Before(p.Start) && d.Before(p.End)
}

// DailyRecord is one row of backtest output.
type DailyRecord struct {
	Day                  int       `json:"day"`
	Date                 time.Time `json:"date"`
	NewFloatAmount       float64   `json:"new_float_amount"`
	ActiveFloatTotal     float64   `json:"active_float_total"`
	DailyProfit          float64   `json:"daily_profit"`
	CumulativeProfit     float64   `json:"cumulative_profit"`
	PaymentsDueToday     float64   `json:"payments_due_today"`
	VolatilityMultiplier float64   `json:"volatility_multiplier"`
	DailyReturn          float64   `json:"daily_return"`
}

// OverlayMultiplier is the scaled volatility factor applied by the overlay
// yield (the "Multiplier" column of the daily table).
func (r DailyRecord) OverlayMultiplier() float64 {
	return r.VolatilityMultiplier * 10
}

// DailyReturn divides profit by the active float, returning 0 when the total
// is zero or the quotient is not finite.
func DailyReturn(profit, activeTotal float64) float64 {
	if activeTotal == 0 {
		return 0
	}
	r := profit / activeTotal
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// ---------------------------------------------------------------------------
// Runs
// ---------------------------------------------------------------------------

// RunParams records the inputs a run was produced from.
type RunParams struct {
	HorizonDays        int       `json:"horizon_days"`
	BaseDailySpend     float64   `json:"base_daily_spend"`
	Regime             RegimeID  `json:"regime"`
	Seed               uint64    `json:"seed"`
	StartDate          time.Time `json:"start_date"`
	Drift              string    `json:"drift"`
	AnnualRiskFreeRate float64   `json:"annual_risk_free_rate"`
}

// Summary holds headline figures derived from a run's records.
type Summary struct {
	Days                  int     `json:"days"`
	FinalCumulativeProfit float64 `json:"final_cumulative_profit"`
	MaxActiveFloat        float64 `json:"max_active_float"`
	TotalNewFloat         float64 `json:"total_new_float"`
	TotalPaymentsDue      float64 `json:"total_payments_due"`
	MeanDailyReturn       float64 `json:"mean_daily_return"`
}

// Run is a completed backtest as handed to export sinks and renderers.
type Run struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Params    RunParams     `json:"params"`
	Records   []DailyRecord `json:"records"`
	Sharpe    float64       `json:"sharpe"`
	Sortino   float64       `json:"sortino"`
	Summary   Summary       `json:"summary"`
}
