package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"

	"floatbt/internal/domain"
)

var _ Sink = (*CSVSink)(nil)

// csvHeader matches the column names of the daily summary table.
var csvHeader = []string{
	"Date",
	"New Float ($)",
	"Active Float Total ($)",
	"Daily Profit ($)",
	"Cumulative Profit ($)",
	"Payments Due Today ($)",
	"Multiplier",
	"Daily Return",
}

// CSVSink writes the daily records of a run to a single CSV file. Money
// columns are rendered with two decimals.
type CSVSink struct {
	Path string
}

// NewCSVSink creates a CSVSink writing to path.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{Path: path}
}

func (s *CSVSink) Name() string { return "csv" }

// Export overwrites Path with the run's records.
func (s *CSVSink) Export(_ context.Context, run *domain.Run) error {
	if dir := filepath.Dir(s.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create csv dir: %w", err)
		}
	}
	f, err := os.Create(s.Path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := WriteRecordsCSV(f, run.Records); err != nil {
		return err
	}
	return f.Close()
}

// WriteRecordsCSV writes records to any io.Writer as CSV.
func WriteRecordsCSV(w io.Writer, records []domain.DailyRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Date.Format("2006-01-02"),
			money(r.NewFloatAmount),
			money(r.ActiveFloatTotal),
			money(r.DailyProfit),
			money(r.CumulativeProfit),
			money(r.PaymentsDueToday),
			decimal.NewFromFloat(r.OverlayMultiplier()).StringFixed(3),
			strconv.FormatFloat(r.DailyReturn, 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", r.Day, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
