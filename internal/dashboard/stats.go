// Package dashboard provides aggregation and terminal rendering for backtest
// runs, used by the CLI report and the regime comparison view.
package dashboard

import (
	"sort"

	"floatbt/internal/domain"
)

// RegimeStats holds the headline figures of one run for side-by-side
// comparison.
type RegimeStats struct {
	RunID           string
	Regime          domain.RegimeID
	Days            int
	FinalProfit     float64
	MaxActiveFloat  float64
	TotalNewFloat   float64
	MeanDailyReturn float64
	Sharpe          float64
	Sortino         float64
	ProfitPerFloat  float64 // FinalProfit / TotalNewFloat, 0 when no float was raised
}

// StatsFromRun extracts the comparison figures of a run.
func StatsFromRun(run *domain.Run) RegimeStats {
	s := RegimeStats{
		RunID:           run.ID,
		Regime:          run.Params.Regime,
		Days:            run.Summary.Days,
		FinalProfit:     run.Summary.FinalCumulativeProfit,
		MaxActiveFloat:  run.Summary.MaxActiveFloat,
		TotalNewFloat:   run.Summary.TotalNewFloat,
		MeanDailyReturn: run.Summary.MeanDailyReturn,
		Sharpe:          run.Sharpe,
		Sortino:         run.Sortino,
	}
	if s.TotalNewFloat > 0 {
		s.ProfitPerFloat = s.FinalProfit / s.TotalNewFloat
	}
	return s
}

// SortMode defines the row order of a comparison table.
const (
	SortInput     = 0 // order runs were given in (default)
	SortProfit    = 1 // final cumulative profit (desc)
	SortSharpe    = 2 // Sharpe ratio (desc)
	SortSortino   = 3 // Sortino ratio (desc)
	SortRegime    = 4 // regime name (asc)
	SortModeCount = 5
)

// SortModeLabel returns a short label for the given sort mode.
func SortModeLabel(mode int) string {
	switch mode {
	case SortInput:
		return "INPUT"
	case SortProfit:
		return "PROFIT"
	case SortSharpe:
		return "SHARPE"
	case SortSortino:
		return "SORTINO"
	case SortRegime:
		return "REGIME"
	default:
		return "?"
	}
}

// ParseSortMode maps a lower-case label such as "sharpe" back to its mode.
// Unknown labels return SortInput.
func ParseSortMode(s string) int {
	switch s {
	case "profit":
		return SortProfit
	case "sharpe":
		return SortSharpe
	case "sortino":
		return SortSortino
	case "regime":
		return SortRegime
	default:
		return SortInput
	}
}

// BuildComparison extracts stats from every run and orders them by mode.
// Ties keep input order.
func BuildComparison(runs []*domain.Run, mode int) []RegimeStats {
	rows := make([]RegimeStats, 0, len(runs))
	for _, r := range runs {
		if r == nil {
			continue
		}
		rows = append(rows, StatsFromRun(r))
	}
	sortStats(rows, mode)
	return rows
}

// sortStats sorts rows in place by the given sort mode.
func sortStats(rows []RegimeStats, mode int) {
	sort.SliceStable(rows, func(i, j int) bool {
		switch mode {
		case SortProfit:
			return rows[i].FinalProfit > rows[j].FinalProfit
		case SortSharpe:
			return rows[i].Sharpe > rows[j].Sharpe
		case SortSortino:
			return rows[i].Sortino > rows[j].Sortino
		case SortRegime:
			return rows[i].Regime < rows[j].Regime
		default:
			return false
		}
	})
}

// Best returns the row with the highest final profit, and false when rows
// is empty.
func Best(rows []RegimeStats) (RegimeStats, bool) {
	if len(rows) == 0 {
		return RegimeStats{}, false
	}
	best := rows[0]
	for _, r := range rows[1:] {
		if r.FinalProfit > best.FinalProfit {
			best = r
		}
	}
	return best, true
}
