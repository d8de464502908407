package engine

import (
	"time"

	"floatbt/internal/domain"
	"floatbt/internal/util"
)

// Schedule is the fixed repayment plan applied to every float position.
// Offset 0 matches the creation day, so each new position owes its first
// instalment on the day it is advanced.
type Schedule struct {
	OffsetsDays []int
	Fraction    float64
}

// Obligation is a single instalment falling due.
type Obligation struct {
	PositionDay int     `json:"position_day"`
	OffsetDays  int     `json:"offset_days"`
	Amount      float64 `json:"amount"`
}

// DefaultSchedule repays 25% of each position at 0, 14, 28 and 42 days.
func DefaultSchedule() Schedule {
	return Schedule{
		OffsetsDays: []int{0, 14, 28, 42},
		Fraction:    0.25,
	}
}

// PaymentsDue sums the instalments of all positions that fall on date.
func (s Schedule) PaymentsDue(all []domain.FloatPosition, date time.Time) float64 {
	due := 0.0
	for _, o := range s.Obligations(all, date) {
		due += o.Amount
	}
	return due
}

// Obligations lists each instalment due on date, in position then offset
// order.
func (s Schedule) Obligations(all []domain.FloatPosition, date time.Time) []Obligation {
	d := util.Midnight(date)
	var out []Obligation
	for _, p := range all {
		for _, off := range s.OffsetsDays {
			if p.Start.AddDate(0, 0, off).Equal(d) {
				out = append(out, Obligation{
					PositionDay: p.Day,
					OffsetDays:  off,
					Amount:      p.Amount * s.Fraction,
				})
			}
		}
	}
	return out
}
