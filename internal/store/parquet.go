package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"floatbt/internal/domain"
)

var _ Sink = (*ParquetSink)(nil)

// ParquetSink writes each run's daily records to its own Parquet file.
type ParquetSink struct {
	DataDir string
}

// NewParquetSink creates a ParquetSink rooted at the given data directory.
func NewParquetSink(dataDir string) *ParquetSink {
	return &ParquetSink{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// DailyRecordRow is the Parquet schema for one day of a run.
type DailyRecordRow struct {
	RunID                string  `parquet:"run_id"`
	Regime               string  `parquet:"regime"`
	Day                  int32   `parquet:"day"`
	Date                 int64   `parquet:"date,timestamp(millisecond)"` // Unix ms
	NewFloatAmount       float64 `parquet:"new_float_amount"`
	ActiveFloatTotal     float64 `parquet:"active_float_total"`
	DailyProfit          float64 `parquet:"daily_profit"`
	CumulativeProfit     float64 `parquet:"cumulative_profit"`
	PaymentsDueToday     float64 `parquet:"payments_due_today"`
	VolatilityMultiplier float64 `parquet:"volatility_multiplier"`
	DailyReturn          float64 `parquet:"daily_return"`
}

func (s *ParquetSink) Name() string { return "parquet" }

// Export writes the run to:
//
//	<DataDir>/<regime>/<run-id>.parquet
func (s *ParquetSink) Export(ctx context.Context, run *domain.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows := make([]DailyRecordRow, len(run.Records))
	for i, r := range run.Records {
		rows[i] = DailyRecordRow{
			RunID:                run.ID,
			Regime:               string(run.Params.Regime),
			Day:                  int32(r.Day),
			Date:                 r.Date.UnixMilli(),
			NewFloatAmount:       r.NewFloatAmount,
			ActiveFloatTotal:     r.ActiveFloatTotal,
			DailyProfit:          r.DailyProfit,
			CumulativeProfit:     r.CumulativeProfit,
			PaymentsDueToday:     r.PaymentsDueToday,
			VolatilityMultiplier: r.VolatilityMultiplier,
			DailyReturn:          r.DailyReturn,
		}
	}

	path := s.runPath(run.Params.Regime, run.ID)
	if err := writeParquetFile(path, rows); err != nil {
		return fmt.Errorf("writing run %s: %w", run.ID, err)
	}
	return nil
}

// ReadRecords reads back the daily records of a previously exported run,
// ordered by day.
func (s *ParquetSink) ReadRecords(_ context.Context, regimeID domain.RegimeID, runID string) ([]domain.DailyRecord, error) {
	rows, err := readParquetFile[DailyRecordRow](s.runPath(regimeID, runID))
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Day < rows[j].Day })

	records := make([]domain.DailyRecord, len(rows))
	for i, r := range rows {
		records[i] = domain.DailyRecord{
			Day:                  int(r.Day),
			Date:                 time.UnixMilli(r.Date).UTC(),
			NewFloatAmount:       r.NewFloatAmount,
			ActiveFloatTotal:     r.ActiveFloatTotal,
			DailyProfit:          r.DailyProfit,
			CumulativeProfit:     r.CumulativeProfit,
			PaymentsDueToday:     r.PaymentsDueToday,
			VolatilityMultiplier: r.VolatilityMultiplier,
			DailyReturn:          r.DailyReturn,
		}
	}
	return records, nil
}

// ListRuns returns the IDs of the runs exported for a regime.
func (s *ParquetSink) ListRuns(_ context.Context, regimeID domain.RegimeID) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.DataDir, string(regimeID)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".parquet") {
			ids = append(ids, strings.TrimSuffix(e.Name(), ".parquet"))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// runPath returns the filesystem path for a run's Parquet file.
func (s *ParquetSink) runPath(regimeID domain.RegimeID, runID string) string {
	return filepath.Join(s.DataDir, string(regimeID), runID+".parquet")
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
