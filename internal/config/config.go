package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"floatbt/internal/domain"
	"floatbt/internal/util"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for floatbt.
type Config struct {
	Simulation Simulation `yaml:"simulation"`
	Risk       Risk       `yaml:"risk"`
	Export     Export     `yaml:"export"`
	Server     Server     `yaml:"server"`
	Logging    Logging    `yaml:"logging"`
}

// Simulation holds the backtest inputs.
type Simulation struct {
	HorizonDays    int     `yaml:"horizon_days"`
	BaseDailySpend float64 `yaml:"base_daily_spend"`
	Regime         string  `yaml:"regime"`
	StrictRegime   bool    `yaml:"strict_regime"`
	Seed           uint64  `yaml:"seed"`
	StartDate      string  `yaml:"start_date"` // YYYY-MM-DD; empty means today (UTC)
	Drift          string  `yaml:"drift"`      // "regime" or "sinusoidal"
	Overlay        *bool   `yaml:"overlay"`    // nil means enabled
}

// Risk configures the ratio calculations.
type Risk struct {
	AnnualRiskFreeRate *float64 `yaml:"annual_risk_free_rate"`
}

// Export controls the optional output sinks. Empty paths disable a sink.
type Export struct {
	CSVPath       string `yaml:"csv_path"`
	ParquetDir    string `yaml:"parquet_dir"`
	SQLitePath    string `yaml:"sqlite_path"`
	RetryAttempts int    `yaml:"retry_attempts"`
}

// Server holds the dashboard API listener configuration.
type Server struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxHorizonDays int    `yaml:"max_horizon_days"`
	RequestsPerMin int    `yaml:"requests_per_min"`
	RequestBurst   int    `yaml:"request_burst"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults applied by ApplyDefaults.
const (
	DefaultHorizonDays        = 365
	DefaultBaseDailySpend     = 85.71
	DefaultAnnualRiskFreeRate = 0.01
	DefaultDrift              = "regime"
)

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides and fills defaults.
// A missing file is not an error: defaults and the environment still apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("FLOATBT_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FLOATBT_DAYS: %w", err)
		}
		cfg.Simulation.HorizonDays = n
	}
	if v := os.Getenv("FLOATBT_SPEND"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("FLOATBT_SPEND: %w", err)
		}
		cfg.Simulation.BaseDailySpend = f
	}
	if v := os.Getenv("FLOATBT_REGIME"); v != "" {
		cfg.Simulation.Regime = v
	}
	if v := os.Getenv("FLOATBT_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("FLOATBT_SEED: %w", err)
		}
		cfg.Simulation.Seed = n
	}
	if v := os.Getenv("FLOATBT_DATA_DIR"); v != "" {
		cfg.Export.ParquetDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Export.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

// ApplyDefaults fills unset (zero) fields. Negative horizons and spends are
// kept so that Validate can reject them.
func (c *Config) ApplyDefaults() {
	if c.Simulation.HorizonDays == 0 {
		c.Simulation.HorizonDays = DefaultHorizonDays
	}
	if c.Simulation.BaseDailySpend == 0 {
		c.Simulation.BaseDailySpend = DefaultBaseDailySpend
	}
	if c.Simulation.Regime == "" {
		c.Simulation.Regime = string(domain.RegimeBaseline)
	}
	if c.Simulation.Drift == "" {
		c.Simulation.Drift = DefaultDrift
	}
	if c.Risk.AnnualRiskFreeRate == nil {
		rf := DefaultAnnualRiskFreeRate
		c.Risk.AnnualRiskFreeRate = &rf
	}
	if c.Export.RetryAttempts == 0 {
		c.Export.RetryAttempts = 3
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.MaxHorizonDays == 0 {
		c.Server.MaxHorizonDays = 3650
	}
	if c.Server.RequestsPerMin == 0 {
		c.Server.RequestsPerMin = 120
	}
	if c.Server.RequestBurst == 0 {
		c.Server.RequestBurst = 10
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate reports configuration that cannot produce a backtest. Every error
// wraps domain.ErrInvalidConfiguration.
func (c *Config) Validate() error {
	if c.Simulation.HorizonDays <= 0 {
		return fmt.Errorf("simulation.horizon_days must be positive, got %d: %w",
			c.Simulation.HorizonDays, domain.ErrInvalidConfiguration)
	}
	if c.Simulation.BaseDailySpend <= 0 {
		return fmt.Errorf("simulation.base_daily_spend must be positive, got %v: %w",
			c.Simulation.BaseDailySpend, domain.ErrInvalidConfiguration)
	}
	if c.Simulation.StartDate != "" {
		if _, err := util.ParseDate(c.Simulation.StartDate); err != nil {
			return fmt.Errorf("simulation.start_date %q: %v: %w",
				c.Simulation.StartDate, err, domain.ErrInvalidConfiguration)
		}
	}
	return nil
}

// OverlayEnabled reports whether the volatility overlay yield is on.
func (c *Config) OverlayEnabled() bool {
	return c.Simulation.Overlay == nil || *c.Simulation.Overlay
}

// RiskFreeRate returns the configured annual risk-free rate.
func (c *Config) RiskFreeRate() float64 {
	if c.Risk.AnnualRiskFreeRate == nil {
		return DefaultAnnualRiskFreeRate
	}
	return *c.Risk.AnnualRiskFreeRate
}
