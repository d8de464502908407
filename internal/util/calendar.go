package util

import "time"

// Calendar answers day-level questions for the simulation clock. All dates
// are handled at UTC midnight so that day arithmetic and equality are exact.
type Calendar struct {
	weekend map[time.Weekday]bool
}

// NewCalendar returns a Calendar whose weekend is Saturday and Sunday.
func NewCalendar() *Calendar {
	return &Calendar{
		weekend: map[time.Weekday]bool{time.Saturday: true, time.Sunday: true},
	}
}

// IsWeekend reports whether t falls on a weekend day.
func (c *Calendar) IsWeekend(t time.Time) bool {
	return c.weekend[t.Weekday()]
}

// AddDays returns the date n days after t.
func (c *Calendar) AddDays(t time.Time, n int) time.Time {
	return Midnight(t).AddDate(0, 0, n)
}

// Midnight truncates t to 00:00 UTC on its calendar date.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
