package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"floatbt/internal/config"
	"floatbt/internal/dashboard"
	"floatbt/internal/domain"
	"floatbt/internal/regime"
	"floatbt/internal/store"
	"floatbt/internal/strategy"
	"floatbt/internal/util"
)

const version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: floatbt <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  run        Run one backtest and print the report\n")
		fmt.Fprintf(os.Stderr, "  compare    Run the same backtest under several regimes\n")
		fmt.Fprintf(os.Stderr, "  regimes    List regimes, year aliases and drift strategies\n")
		fmt.Fprintf(os.Stderr, "  history    List runs recorded in the SQLite export\n")
		fmt.Fprintf(os.Stderr, "  version    Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "\nRun 'floatbt <command> -h' for command options.\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("floatbt %s\n", version)

	case "regimes":
		printRegimes()

	case "run":
		cfg, logger := setup()
		cmdRun(cfg, logger, os.Args[2:])

	case "compare":
		cfg, logger := setup()
		cmdCompare(cfg, logger, os.Args[2:])

	case "history":
		cfg, _ := setup()
		cmdHistory(cfg, os.Args[2:])

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		flag.Usage()
		os.Exit(1)
	}
}

// setup loads the configuration and installs the default logger.
func setup() (*config.Config, *slog.Logger) {
	cfgPath := "config/floatbt.yaml"
	if p := os.Getenv("FLOATBT_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)
	return cfg, logger
}

// simulationFlags binds the shared backtest flags to cfg. Defaults come from
// the loaded configuration so flags only override what they set.
type simulationFlags struct {
	days    *int
	spend   *float64
	regime  *string
	strict  *bool
	seed    *uint64
	start   *string
	drift   *string
	overlay *bool
	rf      *float64
}

func bindSimulationFlags(fs *flag.FlagSet, cfg *config.Config) *simulationFlags {
	return &simulationFlags{
		days:    fs.Int("days", cfg.Simulation.HorizonDays, "number of simulated days"),
		spend:   fs.Float64("spend", cfg.Simulation.BaseDailySpend, "base daily spend in dollars"),
		regime:  fs.String("regime", cfg.Simulation.Regime, "regime name or year alias (2020, 2022, 2023)"),
		strict:  fs.Bool("strict", cfg.Simulation.StrictRegime, "reject unknown regimes instead of using baseline"),
		seed:    fs.Uint64("seed", cfg.Simulation.Seed, "jitter seed"),
		start:   fs.String("start", cfg.Simulation.StartDate, "start date YYYY-MM-DD (default today, UTC)"),
		drift:   fs.String("drift", cfg.Simulation.Drift, "spend drift: regime or sinusoidal"),
		overlay: fs.Bool("overlay", cfg.OverlayEnabled(), "add the volatility overlay yield"),
		rf:      fs.Float64("rf", cfg.RiskFreeRate(), "annual risk-free rate"),
	}
}

func (f *simulationFlags) apply(cfg *config.Config) {
	cfg.Simulation.HorizonDays = *f.days
	cfg.Simulation.BaseDailySpend = *f.spend
	cfg.Simulation.Regime = *f.regime
	cfg.Simulation.StrictRegime = *f.strict
	cfg.Simulation.Seed = *f.seed
	cfg.Simulation.StartDate = *f.start
	cfg.Simulation.Drift = *f.drift
	overlay := *f.overlay
	cfg.Simulation.Overlay = &overlay
	rf := *f.rf
	cfg.Risk.AnnualRiskFreeRate = &rf
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func cmdRun(cfg *config.Config, logger *slog.Logger, args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	sim := bindSimulationFlags(fs, cfg)
	csvPath := fs.String("csv", cfg.Export.CSVPath, "write daily records to this CSV file")
	parquetDir := fs.String("parquet", cfg.Export.ParquetDir, "write daily records under this Parquet directory")
	sqlitePath := fs.String("sqlite", cfg.Export.SQLitePath, "record the run in this SQLite database")
	tail := fs.Int("tail", 15, "daily rows to show in the report (0 = all)")
	asJSON := fs.Bool("json", false, "print the run as JSON instead of the report")
	fs.Parse(args)

	sim.apply(cfg)
	cfg.Export.CSVPath = *csvPath
	cfg.Export.ParquetDir = *parquetDir
	cfg.Export.SQLitePath = *sqlitePath
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	params, err := strategy.ParamsFromConfig(cfg, time.Now())
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	opts := append(strategy.OptionsFromConfig(cfg), strategy.WithLogger(logger))
	bt, err := strategy.NewBacktester(params, opts...)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	run, err := bt.Run(ctx)
	if err != nil {
		log.Fatalf("backtest: %v", err)
	}
	logger.Info("backtest complete",
		"run_id", run.ID,
		"regime", run.Params.Regime,
		"days", run.Params.HorizonDays,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	exportRun(ctx, cfg, logger, run)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(run); err != nil {
			log.Fatalf("encoding run: %v", err)
		}
		return
	}
	fmt.Println(dashboard.RenderReport(run, *tail))
}

// exportRun sends run to every configured sink. Failures are reported but
// never change the exit status.
func exportRun(ctx context.Context, cfg *config.Config, logger *slog.Logger, runs ...*domain.Run) {
	sinks, closeFn, err := store.OpenSinks(cfg.Export)
	if err != nil {
		logger.Warn("export disabled", "error", err)
		return
	}
	defer closeFn()
	if len(sinks) == 0 {
		return
	}

	for _, run := range runs {
		results := store.ExportAll(ctx, logger, run, cfg.Export.RetryAttempts, sinks...)
		for _, r := range store.Failed(results) {
			fmt.Fprintf(os.Stderr, "warning: %s export failed after %d attempts: %v\n", r.Sink, r.Attempts, r.Err)
		}
	}
}

func cmdCompare(cfg *config.Config, logger *slog.Logger, args []string) {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	sim := bindSimulationFlags(fs, cfg)
	regimesFlag := fs.String("regimes", "", "comma-separated regimes (default all)")
	sortFlag := fs.String("sort", "input", "row order: input, profit, sharpe, sortino or regime")
	export := fs.Bool("export", false, "send every run to the configured sinks")
	fs.Parse(args)

	sim.apply(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	params, err := strategy.ParamsFromConfig(cfg, time.Now())
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	regimes := regime.Known()
	if *regimesFlag != "" {
		regimes = nil
		for _, name := range strings.Split(*regimesFlag, ",") {
			id, err := regime.ParseRegime(name, true)
			if err != nil {
				log.Fatalf("invalid regime list: %v", err)
			}
			regimes = append(regimes, id)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	opts := append(strategy.OptionsFromConfig(cfg), strategy.WithLogger(logger))
	runs, err := strategy.Compare(ctx, params, regimes, opts...)
	if err != nil {
		log.Fatalf("compare: %v", err)
	}
	if *export {
		exportRun(ctx, cfg, logger, runs...)
	}

	mode := dashboard.ParseSortMode(*sortFlag)
	fmt.Println(dashboard.RenderComparison(dashboard.BuildComparison(runs, mode), mode))
}

func cmdHistory(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	sqlitePath := fs.String("sqlite", cfg.Export.SQLitePath, "SQLite database written by 'run -sqlite'")
	limit := fs.Int("limit", 20, "maximum runs to list (0 = all)")
	fs.Parse(args)

	if *sqlitePath == "" {
		log.Fatalf("no SQLite database configured; pass -sqlite or set export.sqlite_path")
	}
	db, err := store.NewSQLiteSink(*sqlitePath)
	if err != nil {
		log.Fatalf("opening %s: %v", *sqlitePath, err)
	}
	defer db.Close()

	rows, err := db.ListRuns(context.Background(), *limit)
	if err != nil {
		log.Fatalf("listing runs: %v", err)
	}
	if len(rows) == 0 {
		fmt.Println("no runs recorded")
		return
	}

	fmt.Printf("%-36s  %-19s  %-15s  %5s  %14s  %8s  %8s\n",
		"ID", "Created", "Regime", "Days", "Final Profit", "Sharpe", "Sortino")
	for _, r := range rows {
		fmt.Printf("%-36s  %-19s  %-15s  %5d  %14s  %8s  %8s\n",
			r.ID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Regime,
			r.HorizonDays,
			dashboard.FormatMoney(r.FinalCumulativeProfit),
			dashboard.FormatRatio(r.Sharpe),
			dashboard.FormatRatio(r.Sortino),
		)
	}
}

func printRegimes() {
	aliases := regime.Aliases()
	byRegime := make(map[domain.RegimeID][]string)
	for year, id := range aliases {
		byRegime[id] = append(byRegime[id], year)
	}

	fmt.Println("Regimes:")
	for _, id := range regime.Known() {
		line := fmt.Sprintf("  %-16s", id)
		if years := byRegime[id]; len(years) > 0 {
			line += " alias " + strings.Join(years, ", ")
		}
		fmt.Println(strings.TrimRight(line, " "))
	}

	fmt.Println("Drift strategies:")
	for _, name := range strategy.DefaultRegistry(regime.Profile{}).List() {
		fmt.Printf("  %s\n", name)
	}
}
