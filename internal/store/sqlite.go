package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"floatbt/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

var _ Sink = (*SQLiteSink)(nil)

// SQLiteSink records runs and their daily records in a SQLite database.
type SQLiteSink struct {
	db *sql.DB
	mu sync.Mutex
}

// RunRow is one row of the runs table.
type RunRow struct {
	ID                    string
	CreatedAt             time.Time
	Regime                domain.RegimeID
	HorizonDays           int
	BaseDailySpend        float64
	Seed                  uint64
	StartDate             time.Time
	Drift                 string
	Sharpe                float64
	Sortino               float64
	FinalCumulativeProfit float64
	MaxActiveFloat        float64
}

// NewSQLiteSink opens (or creates) a SQLite database at dbPath and runs
// migrations.
func NewSQLiteSink(dbPath string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteSink{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func (s *SQLiteSink) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id                      TEXT PRIMARY KEY,
			created_at              INTEGER NOT NULL,
			regime                  TEXT NOT NULL,
			horizon_days            INTEGER NOT NULL,
			base_daily_spend        REAL,
			seed                    TEXT,
			start_date              TEXT,
			drift                   TEXT,
			annual_risk_free_rate   REAL,
			sharpe                  REAL,
			sortino                 REAL,
			final_cumulative_profit REAL,
			max_active_float        REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,

		`CREATE TABLE IF NOT EXISTS daily_records (
			run_id                TEXT NOT NULL,
			day                   INTEGER NOT NULL,
			date                  TEXT NOT NULL,
			new_float_amount      REAL,
			active_float_total    REAL,
			daily_profit          REAL,
			cumulative_profit     REAL,
			payments_due_today    REAL,
			volatility_multiplier REAL,
			daily_return          REAL,
			PRIMARY KEY (run_id, day)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteSink) Name() string { return "sqlite" }

// Export inserts the run and all of its records in one transaction.
// Exporting the same run twice replaces the earlier rows.
func (s *SQLiteSink) Export(ctx context.Context, run *domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	p := run.Params
	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (id, created_at, regime, horizon_days, base_daily_spend, seed,
			start_date, drift, annual_risk_free_rate, sharpe, sortino, final_cumulative_profit, max_active_float)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UnixMilli(), string(p.Regime), p.HorizonDays, p.BaseDailySpend,
		fmt.Sprintf("%d", p.Seed), p.StartDate.Format("2006-01-02"), p.Drift, p.AnnualRiskFreeRate,
		run.Sharpe, run.Sortino, run.Summary.FinalCumulativeProfit, run.Summary.MaxActiveFloat,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_records WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO daily_records (run_id, day, date, new_float_amount, active_float_total, daily_profit,
			cumulative_profit, payments_due_today, volatility_multiplier, daily_return)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare records: %w", err)
	}
	defer stmt.Close()

	for _, r := range run.Records {
		if _, err := stmt.ExecContext(ctx, run.ID, r.Day, r.Date.Format("2006-01-02"),
			r.NewFloatAmount, r.ActiveFloatTotal, r.DailyProfit, r.CumulativeProfit,
			r.PaymentsDueToday, r.VolatilityMultiplier, r.DailyReturn); err != nil {
			return fmt.Errorf("insert day %d: %w", r.Day, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first, up to limit. A limit
// of zero or less returns every run.
func (s *SQLiteSink) ListRuns(ctx context.Context, limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, regime, horizon_days, base_daily_spend, seed, start_date, drift,
			sharpe, sortino, final_cumulative_profit, max_active_float
		FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var (
			r         RunRow
			createdMs int64
			regime    string
			seed      string
			start     string
		)
		if err := rows.Scan(&r.ID, &createdMs, &regime, &r.HorizonDays, &r.BaseDailySpend, &seed, &start,
			&r.Drift, &r.Sharpe, &r.Sortino, &r.FinalCumulativeProfit, &r.MaxActiveFloat); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt = time.UnixMilli(createdMs).UTC()
		r.Regime = domain.RegimeID(regime)
		fmt.Sscanf(seed, "%d", &r.Seed)
		if t, err := time.Parse("2006-01-02", start); err == nil {
			r.StartDate = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountRecords returns how many daily records are stored for a run.
func (s *SQLiteSink) CountRecords(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM daily_records WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}
