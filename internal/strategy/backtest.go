package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"floatbt/internal/config"
	"floatbt/internal/domain"
	"floatbt/internal/engine"
	"floatbt/internal/ledger"
	"floatbt/internal/regime"
	"floatbt/internal/util"
)

// WeekendBoost scales spend on Saturdays and Sundays.
const WeekendBoost = 1.2

// Params are the inputs of a single backtest.
type Params struct {
	HorizonDays        int
	BaseDailySpend     float64
	Regime             domain.RegimeID
	Seed               uint64
	StartDate          time.Time
	Drift              string // registry name; empty means DriftRegime
	AnnualRiskFreeRate float64
}

// ParamsFromConfig builds Params from a loaded configuration. now supplies
// the start date when the configuration leaves it empty.
func ParamsFromConfig(cfg *config.Config, now time.Time) (Params, error) {
	id, err := regime.ParseRegime(cfg.Simulation.Regime, cfg.Simulation.StrictRegime)
	if err != nil {
		return Params{}, err
	}

	start := util.Midnight(now)
	if cfg.Simulation.StartDate != "" {
		start, err = util.ParseDate(cfg.Simulation.StartDate)
		if err != nil {
			return Params{}, fmt.Errorf("start date %q: %v: %w",
				cfg.Simulation.StartDate, err, domain.ErrInvalidConfiguration)
		}
	}

	return Params{
		HorizonDays:        cfg.Simulation.HorizonDays,
		BaseDailySpend:     cfg.Simulation.BaseDailySpend,
		Regime:             id,
		Seed:               cfg.Simulation.Seed,
		StartDate:          start,
		Drift:              cfg.Simulation.Drift,
		AnnualRiskFreeRate: cfg.RiskFreeRate(),
	}, nil
}

// OptionsFromConfig returns the Backtester options implied by cfg that are
// not part of Params.
func OptionsFromConfig(cfg *config.Config) []Option {
	var opts []Option
	if !cfg.OverlayEnabled() {
		a := engine.DefaultAccrual()
		a.Overlay = false
		opts = append(opts, WithAccrual(a))
	}
	return opts
}

// Option customises a Backtester.
type Option func(*Backtester)

// WithJitter replaces the seeded uniform jitter. The factory is called once
// per Run so every run starts from a fresh source.
func WithJitter(newJitter func() Jitter) Option {
	return func(b *Backtester) { b.newJitter = newJitter }
}

// WithDrift replaces the drift strategy named in Params.
func WithDrift(d DriftStrategy) Option {
	return func(b *Backtester) { b.drift = d }
}

// WithAccrual replaces the default accrual rules.
func WithAccrual(a engine.Accrual) Option {
	return func(b *Backtester) { b.accrual = a }
}

// WithSchedule replaces the default payment schedule.
func WithSchedule(s engine.Schedule) Option {
	return func(b *Backtester) { b.schedule = s }
}

// WithMaturityDays sets the float accrual window.
func WithMaturityDays(days int) Option {
	return func(b *Backtester) { b.maturityDays = days }
}

// WithLogger sets the logger used for run-level events.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backtester) { b.log = l }
}

// WithClock sets the clock used to stamp runs.
func WithClock(now func() time.Time) Option {
	return func(b *Backtester) { b.now = now }
}

// Backtester replays the float strategy day by day over a regime profile.
type Backtester struct {
	params       Params
	profile      regime.Profile
	drift        DriftStrategy
	newJitter    func() Jitter
	accrual      engine.Accrual
	schedule     engine.Schedule
	maturityDays int
	calendar     *util.Calendar
	log          *slog.Logger
	now          func() time.Time
}

// NewBacktester validates params and prepares a backtest. Every validation
// failure wraps domain.ErrInvalidConfiguration.
func NewBacktester(params Params, opts ...Option) (*Backtester, error) {
	if params.HorizonDays <= 0 {
		return nil, fmt.Errorf("horizon_days must be positive, got %d: %w",
			params.HorizonDays, domain.ErrInvalidConfiguration)
	}
	if !(params.BaseDailySpend > 0) || math.IsInf(params.BaseDailySpend, 0) {
		return nil, fmt.Errorf("base_daily_spend must be positive, got %v: %w",
			params.BaseDailySpend, domain.ErrInvalidConfiguration)
	}
	if params.Regime == "" {
		params.Regime = domain.RegimeBaseline
	}
	if params.Drift == "" {
		params.Drift = DriftRegime
	}
	if params.StartDate.IsZero() {
		params.StartDate = util.Midnight(time.Now())
	}
	params.StartDate = util.Midnight(params.StartDate)

	b := &Backtester{
		params:       params,
		profile:      regime.Generate(params.Regime, params.HorizonDays),
		accrual:      engine.DefaultAccrual(),
		schedule:     engine.DefaultSchedule(),
		maturityDays: ledger.DefaultMaturityDays,
		calendar:     util.NewCalendar(),
		log:          slog.Default(),
		now:          time.Now,
	}
	b.params.Regime = b.profile.Regime
	seed := params.Seed
	b.newJitter = func() Jitter { return NewUniformJitter(seed) }

	for _, opt := range opts {
		opt(b)
	}

	if b.drift == nil {
		d, ok := DefaultRegistry(b.profile).Get(params.Drift)
		if !ok {
			return nil, fmt.Errorf("unknown drift strategy %q: %w", params.Drift, domain.ErrInvalidConfiguration)
		}
		b.drift = d
	}
	b.params.Drift = b.drift.Name()

	if err := b.checkSpendRange(); err != nil {
		return nil, err
	}
	return b, nil
}

// checkSpendRange rejects spends whose daily float can round to zero cents or
// whose float totals overflow. Bounds use the uniform jitter band, the
// weekend boost and the drift extremes over the horizon.
func (b *Backtester) checkSpendRange() error {
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < b.params.HorizonDays; i++ {
		f := b.drift.Factor(i)
		lo = math.Min(lo, f)
		hi = math.Max(hi, f)
	}

	spend := b.params.BaseDailySpend
	smallest := spend * JitterLow * lo
	if !(smallest > 0) || roundCents(smallest) < 0.01 {
		return fmt.Errorf("base_daily_spend %v can produce a float below one cent: %w",
			spend, domain.ErrInvalidConfiguration)
	}

	window := float64(max(b.maturityDays, 1))
	largest := spend * JitterHigh * WeekendBoost * hi
	if math.IsInf(largest*window*float64(b.params.HorizonDays), 0) || math.IsNaN(largest) {
		return fmt.Errorf("base_daily_spend %v overflows the float totals: %w",
			spend, domain.ErrInvalidConfiguration)
	}
	return nil
}

// Params returns the normalised parameters the backtest will run with.
func (b *Backtester) Params() Params { return b.params }

// Run executes the day loop and returns the completed run. The loop is
// sequential; ctx is only consulted between days.
func (b *Backtester) Run(ctx context.Context) (*domain.Run, error) {
	n := b.params.HorizonDays
	log := b.log.With("regime", b.params.Regime, "days", n, "seed", b.params.Seed)
	log.Debug("backtest started", "drift", b.params.Drift, "start", b.params.StartDate.Format("2006-01-02"))

	l := ledger.NewWithMaturity(b.maturityDays)
	eng := engine.NewEngine(b.accrual, b.schedule)
	jitter := b.newJitter()

	records := make([]domain.DailyRecord, 0, n)
	cumulative := 0.0

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		date := b.calendar.AddDays(b.params.StartDate, i)
		boost := 1.0
		if b.calendar.IsWeekend(date) {
			boost = WeekendBoost
		}
		amount := roundCents(b.params.BaseDailySpend * jitter.Next() * boost * b.drift.Factor(i))

		if _, err := l.AddPosition(date, amount); err != nil {
			return nil, fmt.Errorf("day %d: %w", i, err)
		}

		vol := b.profile.VolatilityMultiplier[i]
		day := eng.Step(l, date, vol)
		cumulative += day.Profit

		records = append(records, domain.DailyRecord{
			Day:                  i,
			Date:                 date,
			NewFloatAmount:       amount,
			ActiveFloatTotal:     day.ActiveTotal,
			DailyProfit:          day.Profit,
			CumulativeProfit:     cumulative,
			PaymentsDueToday:     day.PaymentsDue,
			VolatilityMultiplier: vol,
			DailyReturn:          domain.DailyReturn(day.Profit, day.ActiveTotal),
		})
	}

	sharpe, sortino := engine.ComputeRatios(engine.DailyReturns(records), b.params.AnnualRiskFreeRate)
	run := &domain.Run{
		ID:        uuid.NewString(),
		CreatedAt: b.now().UTC(),
		Params: domain.RunParams{
			HorizonDays:        n,
			BaseDailySpend:     b.params.BaseDailySpend,
			Regime:             b.params.Regime,
			Seed:               b.params.Seed,
			StartDate:          b.params.StartDate,
			Drift:              b.params.Drift,
			AnnualRiskFreeRate: b.params.AnnualRiskFreeRate,
		},
		Records: records,
		Sharpe:  sharpe,
		Sortino: sortino,
		Summary: engine.Summarize(records),
	}

	log.Debug("backtest finished",
		"run_id", run.ID,
		"cumulative_profit", run.Summary.FinalCumulativeProfit,
		"sharpe", sharpe,
		"sortino", sortino,
	)
	return run, nil
}

// roundCents rounds half away from zero to two decimal places. Non-finite
// values are returned unchanged.
func roundCents(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
