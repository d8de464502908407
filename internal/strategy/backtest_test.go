package strategy

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"floatbt/internal/config"
	"floatbt/internal/domain"
	"floatbt/internal/engine"
	"floatbt/internal/regime"
)

// monday is a non-weekend start date.
var monday = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

func fixedJitter(v float64) Option {
	return WithJitter(func() Jitter { return FixedJitter(v) })
}

func mustRun(t *testing.T, p Params, opts ...Option) *domain.Run {
	t.Helper()
	bt, err := NewBacktester(p, opts...)
	if err != nil {
		t.Fatalf("NewBacktester: %v", err)
	}
	run, err := bt.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return run
}

func defaultParams(regimeID domain.RegimeID, days int) Params {
	return Params{
		HorizonDays:        days,
		BaseDailySpend:     85.71,
		Regime:             regimeID,
		Seed:               42,
		StartDate:          monday,
		AnnualRiskFreeRate: 0.01,
	}
}

func TestRunRecordCountAndOrder(t *testing.T) {
	for _, n := range []int{1, 2, 42, 43, 365} {
		run := mustRun(t, defaultParams(domain.RegimeStress, n))
		if len(run.Records) != n {
			t.Fatalf("horizon %d: got %d records", n, len(run.Records))
		}
		for i := 1; i < n; i++ {
			if !run.Records[i].Date.After(run.Records[i-1].Date) {
				t.Fatalf("horizon %d: record %d date %v not after %v",
					n, i, run.Records[i].Date, run.Records[i-1].Date)
			}
		}
	}
}

func TestCumulativeProfitIsRunningSum(t *testing.T) {
	run := mustRun(t, defaultParams(domain.RegimeHighInflation, 400))
	sum := 0.0
	for k, r := range run.Records {
		sum += r.DailyProfit
		if r.CumulativeProfit != sum {
			t.Fatalf("record %d: cumulative %v != running sum %v", k, r.CumulativeProfit, sum)
		}
	}
}

func TestActiveWindowCoversFortyTwoDays(t *testing.T) {
	run := mustRun(t, defaultParams(domain.RegimeDisinflation, 120))

	for i, r := range run.Records {
		first := i - 41
		if first < 0 {
			first = 0
		}
		want := 0.0
		for d := first; d <= i; d++ {
			want += run.Records[d].NewFloatAmount
		}
		if r.ActiveFloatTotal != want {
			t.Fatalf("day %d: active total %v, want %v (days %d..%d)", i, r.ActiveFloatTotal, want, first, i)
		}
	}
}

func TestPaymentsDueIncludeCreationDay(t *testing.T) {
	run := mustRun(t, defaultParams(domain.RegimeStress, 200))
	for i, r := range run.Records {
		if r.PaymentsDueToday < 0.25*r.NewFloatAmount {
			t.Fatalf("day %d: payments %v < 25%% of new float %v", i, r.PaymentsDueToday, r.NewFloatAmount)
		}
	}
}

func TestRunDeterministicWithSeed(t *testing.T) {
	p := defaultParams(domain.RegimeStress, 365)
	a := mustRun(t, p)
	b := mustRun(t, p)
	if !reflect.DeepEqual(a.Records, b.Records) {
		t.Fatal("identical seeds produced different records")
	}
	if a.Sharpe != b.Sharpe || a.Sortino != b.Sortino {
		t.Errorf("ratios differ: (%v, %v) vs (%v, %v)", a.Sharpe, a.Sortino, b.Sharpe, b.Sortino)
	}

	// Re-running the same Backtester also restarts the jitter.
	bt, err := NewBacktester(p)
	if err != nil {
		t.Fatal(err)
	}
	c, _ := bt.Run(context.Background())
	d, _ := bt.Run(context.Background())
	if !reflect.DeepEqual(c.Records, d.Records) || !reflect.DeepEqual(a.Records, c.Records) {
		t.Error("repeated Run on one Backtester is not reproducible")
	}

	p.Seed = 43
	e := mustRun(t, p)
	if reflect.DeepEqual(a.Records, e.Records) {
		t.Error("different seeds produced identical records")
	}
}

func TestDailyReturnAlwaysFinite(t *testing.T) {
	for _, id := range []domain.RegimeID{domain.RegimeStress, domain.RegimeBaseline} {
		run := mustRun(t, defaultParams(id, 300))
		for i, r := range run.Records {
			if math.IsNaN(r.DailyReturn) || math.IsInf(r.DailyReturn, 0) {
				t.Fatalf("%s day %d: daily return %v", id, i, r.DailyReturn)
			}
			if r.ActiveFloatTotal == 0 && r.DailyReturn != 0 {
				t.Fatalf("%s day %d: daily return %v with zero float", id, i, r.DailyReturn)
			}
		}
	}
}

func TestSingleDayRatiosAreZero(t *testing.T) {
	run := mustRun(t, defaultParams(domain.RegimeBaseline, 1))
	if run.Sharpe != 0 || run.Sortino != 0 {
		t.Errorf("ratios = (%v, %v), want (0, 0)", run.Sharpe, run.Sortino)
	}
}

func TestSingleDayBaselineExample(t *testing.T) {
	p := Params{
		HorizonDays:        1,
		BaseDailySpend:     100,
		Regime:             domain.RegimeBaseline,
		StartDate:          monday,
		AnnualRiskFreeRate: 0.01,
	}
	run := mustRun(t, p, fixedJitter(1))
	r := run.Records[0]

	drift := 1 + 0.0005*100
	if math.Abs(r.NewFloatAmount-100*drift) > 0.005 {
		t.Errorf("NewFloatAmount = %v, want ~%v", r.NewFloatAmount, 100*drift)
	}
	if r.ActiveFloatTotal != r.NewFloatAmount {
		t.Errorf("ActiveFloatTotal = %v, want %v", r.ActiveFloatTotal, r.NewFloatAmount)
	}
	if r.PaymentsDueToday != 0.25*r.NewFloatAmount {
		t.Errorf("PaymentsDueToday = %v, want %v", r.PaymentsDueToday, 0.25*r.NewFloatAmount)
	}
	if r.CumulativeProfit != r.DailyProfit {
		t.Errorf("CumulativeProfit = %v, want %v", r.CumulativeProfit, r.DailyProfit)
	}

	wantProfit, _ := engine.DefaultAccrual().DailyYield([]domain.FloatPosition{{Amount: r.NewFloatAmount}}, 0.01)
	if r.DailyProfit != wantProfit {
		t.Errorf("DailyProfit = %v, want %v", r.DailyProfit, wantProfit)
	}
}

// unitDrift keeps the spend flat.
type unitDrift struct{}

func (unitDrift) Name() string       { return "unit" }
func (unitDrift) Factor(int) float64 { return 1 }

func TestConsecutivePositionsWithoutAccrual(t *testing.T) {
	p := Params{HorizonDays: 2, BaseDailySpend: 100, StartDate: monday}
	run := mustRun(t, p, fixedJitter(1), WithDrift(unitDrift{}), WithAccrual(engine.ZeroAccrual()))

	if got := run.Records[1].ActiveFloatTotal; got != 200 {
		t.Errorf("day 1 active total = %v, want 200", got)
	}
	for i, r := range run.Records {
		if r.NewFloatAmount != 100 {
			t.Errorf("day %d new float = %v, want 100", i, r.NewFloatAmount)
		}
		if r.DailyProfit != 0 || r.DailyReturn != 0 {
			t.Errorf("day %d: profit %v return %v, want 0", i, r.DailyProfit, r.DailyReturn)
		}
	}
}

func TestWeekendBoost(t *testing.T) {
	saturday := time.Date(2023, 1, 7, 0, 0, 0, 0, time.UTC)
	p := Params{HorizonDays: 3, BaseDailySpend: 100, StartDate: saturday}
	run := mustRun(t, p, fixedJitter(1), WithDrift(unitDrift{}))

	want := []float64{120, 120, 100} // Sat, Sun, Mon
	for i, r := range run.Records {
		if r.NewFloatAmount != want[i] {
			t.Errorf("%s: new float = %v, want %v", r.Date.Weekday(), r.NewFloatAmount, want[i])
		}
	}
}

func TestNewFloatRoundedToCents(t *testing.T) {
	run := mustRun(t, defaultParams(domain.RegimeStress, 50))
	for i, r := range run.Records {
		cents := r.NewFloatAmount * 100
		if math.Abs(cents-math.Round(cents)) > 1e-6 {
			t.Fatalf("day %d: %v is not rounded to cents", i, r.NewFloatAmount)
		}
	}
}

func TestSinusoidalDriftVariant(t *testing.T) {
	p := Params{HorizonDays: 60, BaseDailySpend: 100, StartDate: monday, Drift: DriftSinusoidal}
	bt, err := NewBacktester(p, fixedJitter(1))
	if err != nil {
		t.Fatal(err)
	}
	if bt.Params().Drift != DriftSinusoidal {
		t.Fatalf("drift = %q", bt.Params().Drift)
	}
	run, err := bt.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// Day 50 is a Tuesday (2023-02-21).
	want := roundCents(100 * (1 + 0.05*math.Sin(1)))
	if got := run.Records[50].NewFloatAmount; got != want {
		t.Errorf("day 50 new float = %v, want %v", got, want)
	}
}

func TestNewBacktesterInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		p    Params
	}{
		{"zero horizon", Params{HorizonDays: 0, BaseDailySpend: 100}},
		{"negative horizon", Params{HorizonDays: -3, BaseDailySpend: 100}},
		{"zero spend", Params{HorizonDays: 10, BaseDailySpend: 0}},
		{"negative spend", Params{HorizonDays: 10, BaseDailySpend: -1}},
		{"nan spend", Params{HorizonDays: 10, BaseDailySpend: math.NaN()}},
		{"unknown drift", Params{HorizonDays: 10, BaseDailySpend: 100, Drift: "lunar"}},
		{"overflowing spend", Params{HorizonDays: 7, BaseDailySpend: 1.7e308}},
		{"overflowing totals", Params{HorizonDays: 400, BaseDailySpend: 1e306}},
		{"sub-cent spend", Params{HorizonDays: 7, BaseDailySpend: 0.004}},
		{"sub-cent sinusoidal spend", Params{HorizonDays: 7, BaseDailySpend: 0.005, Drift: DriftSinusoidal}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBacktester(tt.p)
			if !errors.Is(err, domain.ErrInvalidConfiguration) {
				t.Errorf("NewBacktester error = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestSpendBoundsRun(t *testing.T) {
	tests := []struct {
		name  string
		spend float64
	}{
		{"one cent", 0.01},
		{"large", 1e300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := defaultParams(domain.RegimeHighInflation, 60)
			p.BaseDailySpend = tt.spend
			run := mustRun(t, p)
			for _, r := range run.Records {
				if !(r.NewFloatAmount >= 0.01) || math.IsInf(r.ActiveFloatTotal, 0) || math.IsInf(r.CumulativeProfit, 0) {
					t.Fatalf("day %d: new float %v, active %v, cumulative %v",
						r.Day, r.NewFloatAmount, r.ActiveFloatTotal, r.CumulativeProfit)
				}
			}
		})
	}
}

func TestRoundCentsNonFinite(t *testing.T) {
	for _, v := range []float64{math.Inf(1), math.Inf(-1)} {
		if got := roundCents(v); got != v {
			t.Errorf("roundCents(%v) = %v", v, got)
		}
	}
	if got := roundCents(math.NaN()); !math.IsNaN(got) {
		t.Errorf("roundCents(NaN) = %v", got)
	}
	if got := roundCents(0.125); got != 0.13 {
		t.Errorf("roundCents(0.125) = %v, want 0.13", got)
	}
}

func TestUnknownRegimeRunsBaseline(t *testing.T) {
	p := defaultParams("1999", 5)
	run := mustRun(t, p)
	if run.Params.Regime != domain.RegimeBaseline {
		t.Errorf("Regime = %q, want baseline", run.Params.Regime)
	}
	for _, r := range run.Records {
		if r.VolatilityMultiplier != 0.01 {
			t.Errorf("vol = %v, want 0.01", r.VolatilityMultiplier)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	bt, err := NewBacktester(defaultParams(domain.RegimeBaseline, 10))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := bt.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
}

func TestRunMetadata(t *testing.T) {
	stamp := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	run := mustRun(t, defaultParams(domain.RegimeStress, 30), WithClock(func() time.Time { return stamp }))
	if run.ID == "" {
		t.Error("run ID should be set")
	}
	if !run.CreatedAt.Equal(stamp) {
		t.Errorf("CreatedAt = %v, want %v", run.CreatedAt, stamp)
	}
	if run.Summary.Days != 30 || run.Summary.FinalCumulativeProfit != run.Records[29].CumulativeProfit {
		t.Errorf("Summary = %+v", run.Summary)
	}
	if run.Params.Drift != DriftRegime || !run.Params.StartDate.Equal(monday) {
		t.Errorf("Params = %+v", run.Params)
	}
}

func TestParamsFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Simulation.Regime = "2020"
	cfg.Simulation.StartDate = "2023-01-02"
	cfg.Simulation.Seed = 9
	cfg.ApplyDefaults()

	p, err := ParamsFromConfig(cfg, time.Now())
	if err != nil {
		t.Fatalf("ParamsFromConfig: %v", err)
	}
	if p.Regime != domain.RegimeStress {
		t.Errorf("Regime = %q, want stress", p.Regime)
	}
	if !p.StartDate.Equal(monday) {
		t.Errorf("StartDate = %v, want %v", p.StartDate, monday)
	}
	if p.HorizonDays != config.DefaultHorizonDays || p.AnnualRiskFreeRate != 0.01 || p.Seed != 9 {
		t.Errorf("Params = %+v", p)
	}

	cfg.Simulation.StartDate = ""
	now := time.Date(2024, 2, 3, 17, 0, 0, 0, time.UTC)
	p, _ = ParamsFromConfig(cfg, now)
	if !p.StartDate.Equal(time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("StartDate = %v, want midnight of now", p.StartDate)
	}

	cfg.Simulation.Regime = "1987"
	cfg.Simulation.StrictRegime = true
	if _, err := ParamsFromConfig(cfg, now); !errors.Is(err, domain.ErrInvalidConfiguration) {
		t.Errorf("strict unknown regime error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestCompareMatchesSoloRuns(t *testing.T) {
	p := defaultParams("", 90)
	regimes := []domain.RegimeID{domain.RegimeDisinflation, domain.RegimeStress, domain.RegimeBaseline}

	runs, err := Compare(context.Background(), p, regimes)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(runs) != len(regimes) {
		t.Fatalf("Compare returned %d runs, want %d", len(runs), len(regimes))
	}
	for i, id := range regimes {
		if runs[i].Params.Regime != id {
			t.Errorf("run %d regime = %q, want %q", i, runs[i].Params.Regime, id)
		}
		solo := defaultParams(id, 90)
		want := mustRun(t, solo)
		if !reflect.DeepEqual(runs[i].Records, want.Records) {
			t.Errorf("regime %s: compare result differs from solo run", id)
		}
	}
}

func TestCompareRebindsRegimeDrift(t *testing.T) {
	p := defaultParams("", 90)
	regimes := []domain.RegimeID{domain.RegimeDisinflation, domain.RegimeBaseline}
	stressDrift := NewRegimeDrift(regime.Generate(domain.RegimeStress, 90))

	runs, err := Compare(context.Background(), p, regimes, WithDrift(stressDrift))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	for i, id := range regimes {
		want := mustRun(t, defaultParams(id, 90))
		if !reflect.DeepEqual(runs[i].Records, want.Records) {
			t.Errorf("regime %s: drift not rebound to its own profile", id)
		}
	}

	// Non-regime drift is shared unchanged.
	runs, err = Compare(context.Background(), p, regimes, WithDrift(unitDrift{}))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	for i, id := range regimes {
		want := mustRun(t, defaultParams(id, 90), WithDrift(unitDrift{}))
		if !reflect.DeepEqual(runs[i].Records, want.Records) {
			t.Errorf("regime %s: unit drift run differs", id)
		}
	}
}

func TestCompareInvalidParams(t *testing.T) {
	p := defaultParams(domain.RegimeBaseline, 0)
	_, err := Compare(context.Background(), p, []domain.RegimeID{domain.RegimeStress})
	if !errors.Is(err, domain.ErrInvalidConfiguration) {
		t.Errorf("Compare error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestOptionsFromConfigOverlay(t *testing.T) {
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	if opts := OptionsFromConfig(cfg); len(opts) != 0 {
		t.Errorf("overlay enabled by default, got %d options", len(opts))
	}

	off := false
	cfg.Simulation.Overlay = &off
	p := Params{HorizonDays: 1, BaseDailySpend: 100, StartDate: monday}
	with := mustRun(t, p, fixedJitter(1))
	without := mustRun(t, p, append(OptionsFromConfig(cfg), fixedJitter(1))...)

	overlay := (with.Records[0].ActiveFloatTotal / 1000) * (1 + with.Records[0].VolatilityMultiplier*10)
	diff := with.Records[0].DailyProfit - without.Records[0].DailyProfit
	if math.Abs(diff-overlay) > 1e-12 {
		t.Errorf("overlay contribution = %v, want %v", diff, overlay)
	}
}
