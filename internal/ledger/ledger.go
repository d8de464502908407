// Package ledger keeps the append-only history of float positions created by
// a backtest and answers which of them are live on a given day.
package ledger

import (
	"fmt"
	"math"
	"time"

	"floatbt/internal/domain"
	"floatbt/internal/util"
)

// DefaultMaturityDays is the length of a position's accrual window.
const DefaultMaturityDays = 42

// ErrInvalidAmount is returned by AddPosition for a non-positive or
// non-finite amount.
var ErrInvalidAmount = fmt.Errorf("float amount must be positive and finite: %w", domain.ErrInvalidConfiguration)

// Ledger is an indexed arena of float positions in creation order. Positions
// are never removed: expired ones stay available to the payment schedule.
type Ledger struct {
	maturityDays int
	positions    []domain.FloatPosition
}

// New creates an empty Ledger with the default 42-day maturity.
func New() *Ledger {
	return NewWithMaturity(DefaultMaturityDays)
}

// NewWithMaturity creates an empty Ledger whose positions mature after the
// given number of days.
func NewWithMaturity(days int) *Ledger {
	return &Ledger{maturityDays: days}
}

// MaturityDays returns the accrual window length.
func (l *Ledger) MaturityDays() int { return l.maturityDays }

// AddPosition appends a position created on date. The date is truncated to
// UTC midnight. On error the ledger is unchanged.
func (l *Ledger) AddPosition(date time.Time, amount float64) (domain.FloatPosition, error) {
	if !(amount > 0) || math.IsInf(amount, 0) {
		return domain.FloatPosition{}, fmt.Errorf("add position %v on %s: %w",
			amount, date.Format("2006-01-02"), ErrInvalidAmount)
	}

	start := util.Midnight(date)
	p := domain.FloatPosition{
		Day:    len(l.positions),
		Start:  start,
		End:    start.AddDate(0, 0, l.maturityDays),
		Amount: amount,
	}
	l.positions = append(l.positions, p)
	return p, nil
}

// ActivePositions returns the positions accruing on date, i.e. those with
// Start <= date < End, in creation order.
func (l *Ledger) ActivePositions(date time.Time) []domain.FloatPosition {
	d := util.Midnight(date)
	var active []domain.FloatPosition
	for _, p := range l.positions {
		if p.ActiveOn(d) {
			active = append(active, p)
		}
	}
	return active
}

// AllPositions returns every position ever created, in creation order. The
// returned slice is a copy.
func (l *Ledger) AllPositions() []domain.FloatPosition {
	out := make([]domain.FloatPosition, len(l.positions))
	copy(out, l.positions)
	return out
}

// Len returns the number of positions created so far.
func (l *Ledger) Len() int { return len(l.positions) }
