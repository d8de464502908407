// Package store exports completed backtest runs to external sinks: CSV files,
// Parquet files and a SQLite database. Sinks observe runs; they never change
// them.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"floatbt/internal/config"
	"floatbt/internal/domain"
	"floatbt/internal/util"
)

// retryBaseDelay is the first backoff between sink attempts.
var retryBaseDelay = 200 * time.Millisecond

// Sink persists a completed run somewhere outside the process.
type Sink interface {
	// Name identifies the sink in logs and results.
	Name() string

	// Export writes the run. Implementations must not modify it.
	Export(ctx context.Context, run *domain.Run) error
}

// SinkResult reports the outcome of exporting a run to one sink.
type SinkResult struct {
	Sink     string
	Attempts int
	Err      error // nil on success; otherwise wraps domain.ErrSinkFailure
}

// OK reports whether the export succeeded.
func (r SinkResult) OK() bool { return r.Err == nil }

// ExportAll exports run to every sink in order, retrying each one up to
// attempts times. A failing sink is logged and reported in its SinkResult;
// it never stops the remaining sinks.
func ExportAll(ctx context.Context, logger *slog.Logger, run *domain.Run, attempts int, sinks ...Sink) []SinkResult {
	if logger == nil {
		logger = slog.Default()
	}
	if attempts < 1 {
		attempts = 1
	}

	results := make([]SinkResult, 0, len(sinks))
	for _, s := range sinks {
		res := SinkResult{Sink: s.Name()}
		err := util.RetryNotify(ctx, attempts, retryBaseDelay, func() error {
			res.Attempts++
			return s.Export(ctx, run)
		}, func(attempt int, err error) {
			logger.Warn("export attempt failed", "sink", s.Name(), "attempt", attempt, "error", err)
		})

		if err != nil {
			if !errors.Is(err, domain.ErrSinkFailure) {
				err = fmt.Errorf("%s: %v: %w", s.Name(), err, domain.ErrSinkFailure)
			}
			res.Err = err
			logger.Warn("export failed", "sink", s.Name(), "run_id", run.ID, "attempts", res.Attempts, "error", err)
		} else {
			logger.Info("exported run", "sink", s.Name(), "run_id", run.ID, "records", len(run.Records))
		}
		results = append(results, res)
	}
	return results
}

// Failed returns the results that carry an error.
func Failed(results []SinkResult) []SinkResult {
	var out []SinkResult
	for _, r := range results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// OpenSinks builds the sinks enabled in cfg, in CSV, Parquet, SQLite order.
// The returned close function releases any database handles and is safe to
// call when no sink was opened.
func OpenSinks(cfg config.Export) ([]Sink, func() error, error) {
	var sinks []Sink
	closeFn := func() error { return nil }

	if cfg.CSVPath != "" {
		sinks = append(sinks, NewCSVSink(cfg.CSVPath))
	}
	if cfg.ParquetDir != "" {
		sinks = append(sinks, NewParquetSink(cfg.ParquetDir))
	}
	if cfg.SQLitePath != "" {
		db, err := NewSQLiteSink(cfg.SQLitePath)
		if err != nil {
			return nil, closeFn, fmt.Errorf("sqlite sink: %w", err)
		}
		sinks = append(sinks, db)
		closeFn = db.Close
	}
	return sinks, closeFn, nil
}

// FindSQLite returns the SQLite sink among sinks, if any.
func FindSQLite(sinks []Sink) (*SQLiteSink, bool) {
	for _, s := range sinks {
		if db, ok := s.(*SQLiteSink); ok {
			return db, true
		}
	}
	return nil, false
}
