// Package engine holds the per-day financial rules of the float strategy:
// yield accrual on live positions, payment obligations from the repayment
// schedule, and the risk ratios computed over a finished run.
package engine

import (
	"time"

	"floatbt/internal/domain"
)

// PositionSource is the read side of the float ledger used by a day step.
type PositionSource interface {
	ActivePositions(date time.Time) []domain.FloatPosition
	AllPositions() []domain.FloatPosition
}

// DayResult is the outcome of evaluating one simulated day.
type DayResult struct {
	Profit      float64
	ActiveTotal float64
	PaymentsDue float64
}

// Engine evaluates a simulated day against the ledger.
type Engine struct {
	accrual  Accrual
	schedule Schedule
}

// NewEngine creates an Engine wired with the given accrual and payment rules.
func NewEngine(accrual Accrual, schedule Schedule) *Engine {
	return &Engine{
		accrual:  accrual,
		schedule: schedule,
	}
}

// Step computes the day's yield over live positions and the payments falling
// due on date.
func (e *Engine) Step(src PositionSource, date time.Time, volMultiplier float64) DayResult {
	profit, active := e.accrual.DailyYield(src.ActivePositions(date), volMultiplier)
	return DayResult{
		Profit:      profit,
		ActiveTotal: active,
		PaymentsDue: e.schedule.PaymentsDue(src.AllPositions(), date),
	}
}
