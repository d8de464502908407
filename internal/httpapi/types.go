// Package httpapi provides an HTTP JSON API for running float backtests and
// comparing regimes, serving the same data as the CLI report.
package httpapi

import (
	"floatbt/internal/dashboard"
	"floatbt/internal/domain"
	"floatbt/internal/store"
)

// RegimesResponse lists the recognised regimes and their year aliases.
type RegimesResponse struct {
	Regimes []domain.RegimeID          `json:"regimes"`
	Aliases map[string]domain.RegimeID `json:"aliases"`
	Drifts  []string                   `json:"drifts"`
}

// DailyRecordJSON is one row of the daily table.
type DailyRecordJSON struct {
	Day         int     `json:"day"`
	Date        string  `json:"date"`
	NewFloat    float64 `json:"newFloat"`
	ActiveFloat float64 `json:"activeFloat"`
	DailyProfit float64 `json:"dailyProfit"`
	Cumulative  float64 `json:"cumulativeProfit"`
	PaymentsDue float64 `json:"paymentsDue"`
	Volatility  float64 `json:"volatility"`
	Multiplier  float64 `json:"multiplier"`
	DailyReturn float64 `json:"dailyReturn"`
}

// ParamsJSON echoes the inputs a run was produced from.
type ParamsJSON struct {
	HorizonDays        int     `json:"horizonDays"`
	BaseDailySpend     float64 `json:"baseDailySpend"`
	Regime             string  `json:"regime"`
	Seed               uint64  `json:"seed"`
	StartDate          string  `json:"startDate"`
	Drift              string  `json:"drift"`
	AnnualRiskFreeRate float64 `json:"annualRiskFreeRate"`
}

// SummaryJSON holds a run's headline figures.
type SummaryJSON struct {
	Days             int     `json:"days"`
	FinalProfit      float64 `json:"finalProfit"`
	MaxActiveFloat   float64 `json:"maxActiveFloat"`
	TotalNewFloat    float64 `json:"totalNewFloat"`
	TotalPaymentsDue float64 `json:"totalPaymentsDue"`
	MeanDailyReturn  float64 `json:"meanDailyReturn"`
	Sharpe           float64 `json:"sharpe"`
	Sortino          float64 `json:"sortino"`
}

// ExportJSON reports the outcome of one export sink.
type ExportJSON struct {
	Sink     string `json:"sink"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`
}

// RunJSON is the response of GET /api/backtest.
type RunJSON struct {
	ID        string            `json:"id"`
	CreatedAt string            `json:"createdAt"`
	Params    ParamsJSON        `json:"params"`
	Summary   SummaryJSON       `json:"summary"`
	Records   []DailyRecordJSON `json:"records,omitempty"`
	Exports   []ExportJSON      `json:"exports,omitempty"`
}

// RegimeRowJSON is one row of a regime comparison.
type RegimeRowJSON struct {
	RunID          string  `json:"runId"`
	Regime         string  `json:"regime"`
	Days           int     `json:"days"`
	FinalProfit    float64 `json:"finalProfit"`
	MaxActiveFloat float64 `json:"maxActiveFloat"`
	MeanReturn     float64 `json:"meanDailyReturn"`
	ProfitPerFloat float64 `json:"profitPerFloat"`
	Sharpe         float64 `json:"sharpe"`
	Sortino        float64 `json:"sortino"`
}

// CompareResponse is the response of GET /api/compare.
type CompareResponse struct {
	Sort string          `json:"sort"`
	Best string          `json:"best,omitempty"`
	Rows []RegimeRowJSON `json:"rows"`
}

// StoredRunJSON is one entry of GET /api/runs.
type StoredRunJSON struct {
	ID          string  `json:"id"`
	CreatedAt   string  `json:"createdAt"`
	Regime      string  `json:"regime"`
	HorizonDays int     `json:"horizonDays"`
	Seed        uint64  `json:"seed"`
	StartDate   string  `json:"startDate"`
	Drift       string  `json:"drift"`
	FinalProfit float64 `json:"finalProfit"`
	Sharpe      float64 `json:"sharpe"`
	Sortino     float64 `json:"sortino"`
}

const dateLayout = "2006-01-02"

func toRunJSON(run *domain.Run, withRecords bool) RunJSON {
	p := run.Params
	out := RunJSON{
		ID:        run.ID,
		CreatedAt: run.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		Params: ParamsJSON{
			HorizonDays:        p.HorizonDays,
			BaseDailySpend:     p.BaseDailySpend,
			Regime:             string(p.Regime),
			Seed:               p.Seed,
			StartDate:          p.StartDate.Format(dateLayout),
			Drift:              p.Drift,
			AnnualRiskFreeRate: p.AnnualRiskFreeRate,
		},
		Summary: SummaryJSON{
			Days:             run.Summary.Days,
			FinalProfit:      run.Summary.FinalCumulativeProfit,
			MaxActiveFloat:   run.Summary.MaxActiveFloat,
			TotalNewFloat:    run.Summary.TotalNewFloat,
			TotalPaymentsDue: run.Summary.TotalPaymentsDue,
			MeanDailyReturn:  run.Summary.MeanDailyReturn,
			Sharpe:           run.Sharpe,
			Sortino:          run.Sortino,
		},
	}
	if withRecords {
		out.Records = make([]DailyRecordJSON, len(run.Records))
		for i, r := range run.Records {
			out.Records[i] = DailyRecordJSON{
				Day:         r.Day,
				Date:        r.Date.Format(dateLayout),
				NewFloat:    r.NewFloatAmount,
				ActiveFloat: r.ActiveFloatTotal,
				DailyProfit: r.DailyProfit,
				Cumulative:  r.CumulativeProfit,
				PaymentsDue: r.PaymentsDueToday,
				Volatility:  r.VolatilityMultiplier,
				Multiplier:  r.OverlayMultiplier(),
				DailyReturn: r.DailyReturn,
			}
		}
	}
	return out
}

func toExportJSON(results []store.SinkResult) []ExportJSON {
	out := make([]ExportJSON, 0, len(results))
	for _, r := range results {
		e := ExportJSON{Sink: r.Sink, Attempts: r.Attempts}
		if r.Err != nil {
			e.Error = r.Err.Error()
		}
		out = append(out, e)
	}
	return out
}

func toRegimeRowJSON(s dashboard.RegimeStats) RegimeRowJSON {
	return RegimeRowJSON{
		RunID:          s.RunID,
		Regime:         string(s.Regime),
		Days:           s.Days,
		FinalProfit:    s.FinalProfit,
		MaxActiveFloat: s.MaxActiveFloat,
		MeanReturn:     s.MeanDailyReturn,
		ProfitPerFloat: s.ProfitPerFloat,
		Sharpe:         s.Sharpe,
		Sortino:        s.Sortino,
	}
}

func toStoredRunJSON(r store.RunRow) StoredRunJSON {
	return StoredRunJSON{
		ID:          r.ID,
		CreatedAt:   r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		Regime:      string(r.Regime),
		HorizonDays: r.HorizonDays,
		Seed:        r.Seed,
		StartDate:   r.StartDate.Format(dateLayout),
		Drift:       r.Drift,
		FinalProfit: r.FinalCumulativeProfit,
		Sharpe:      r.Sharpe,
		Sortino:     r.Sortino,
	}
}
