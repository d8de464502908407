package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"floatbt/internal/config"
	"floatbt/internal/dashboard"
	"floatbt/internal/domain"
	"floatbt/internal/regime"
	"floatbt/internal/store"
	"floatbt/internal/strategy"
	"floatbt/internal/util"
)

// RunLister returns previously exported runs, newest first.
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]store.RunRow, error)
}

// Server serves the backtest HTTP API.
type Server struct {
	defaults       strategy.Params
	fixedStart     bool // start date pinned by config; otherwise today
	opts           []strategy.Option
	strictRegime   bool
	maxHorizonDays int
	limiter        *util.RateLimiter
	log            *slog.Logger
	now            func() time.Time

	sinks          []store.Sink
	exportAttempts int
	runs           RunLister
}

// NewServer creates a Server whose backtests start from the simulation
// settings in cfg. Query parameters override them per request.
func NewServer(cfg *config.Config, log *slog.Logger) (*Server, error) {
	defaults, err := strategy.ParamsFromConfig(cfg, time.Now())
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		defaults:       defaults,
		fixedStart:     cfg.Simulation.StartDate != "",
		opts:           strategy.OptionsFromConfig(cfg),
		strictRegime:   cfg.Simulation.StrictRegime,
		maxHorizonDays: cfg.Server.MaxHorizonDays,
		limiter:        util.NewRateLimiter(cfg.Server.RequestsPerMin, cfg.Server.RequestBurst),
		log:            log,
		now:            time.Now,
		exportAttempts: cfg.Export.RetryAttempts,
	}, nil
}

// SetSinks configures the sinks every /api/backtest run is exported to.
func (s *Server) SetSinks(sinks ...store.Sink) { s.sinks = sinks }

// SetRunLister enables GET /api/runs.
func (s *Server) SetRunLister(l RunLister) { s.runs = l }

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/regimes", s.handleRegimes)
	mux.Handle("GET /api/backtest", s.rateLimited(http.HandlerFunc(s.handleBacktest)))
	mux.Handle("GET /api/compare", s.rateLimited(http.HandlerFunc(s.handleCompare)))
	mux.HandleFunc("GET /api/runs", s.handleRuns)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimited rejects requests with 429 once the limiter is exhausted.
func (s *Server) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeRunError maps a backtest error to a status code.
func writeRunError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidConfiguration):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// options returns a fresh option slice for one request.
func (s *Server) options() []strategy.Option {
	opts := make([]strategy.Option, 0, len(s.opts)+1)
	opts = append(opts, s.opts...)
	return append(opts, strategy.WithLogger(s.log))
}

// parseParams overlays the request's query parameters on the server
// defaults. Malformed values wrap domain.ErrInvalidConfiguration.
func (s *Server) parseParams(r *http.Request) (strategy.Params, error) {
	q := r.URL.Query()
	p := s.defaults
	if !s.fixedStart {
		p.StartDate = util.Midnight(s.now())
	}

	if v := q.Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("days %q: %w", v, domain.ErrInvalidConfiguration)
		}
		p.HorizonDays = n
	}
	if s.maxHorizonDays > 0 && p.HorizonDays > s.maxHorizonDays {
		return p, fmt.Errorf("days %d exceeds the limit of %d: %w", p.HorizonDays, s.maxHorizonDays, domain.ErrInvalidConfiguration)
	}
	if v := q.Get("spend"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, fmt.Errorf("spend %q: %w", v, domain.ErrInvalidConfiguration)
		}
		p.BaseDailySpend = f
	}
	if v := q.Get("regime"); v != "" {
		id, err := regime.ParseRegime(v, s.strictRegime)
		if err != nil {
			return p, err
		}
		p.Regime = id
	}
	if v := q.Get("seed"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return p, fmt.Errorf("seed %q: %w", v, domain.ErrInvalidConfiguration)
		}
		p.Seed = n
	}
	if v := q.Get("drift"); v != "" {
		p.Drift = v
	}
	if v := q.Get("start"); v != "" {
		t, err := util.ParseDate(v)
		if err != nil {
			return p, fmt.Errorf("start %q: %w", v, domain.ErrInvalidConfiguration)
		}
		p.StartDate = t
	}
	return p, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleRegimes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, RegimesResponse{
		Regimes: regime.Known(),
		Aliases: regime.Aliases(),
		Drifts:  strategy.DefaultRegistry(regime.Profile{}).List(),
	})
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	params, err := s.parseParams(r)
	if err != nil {
		writeRunError(w, err)
		return
	}
	bt, err := strategy.NewBacktester(params, s.options()...)
	if err != nil {
		writeRunError(w, err)
		return
	}
	run, err := bt.Run(r.Context())
	if err != nil {
		writeRunError(w, err)
		return
	}

	withRecords := r.URL.Query().Get("records") != "false"
	out := toRunJSON(run, withRecords)
	if len(s.sinks) > 0 {
		results := store.ExportAll(r.Context(), s.log, run, s.exportAttempts, s.sinks...)
		out.Exports = toExportJSON(results)
	}

	s.log.Info("backtest served", "run_id", run.ID, "regime", run.Params.Regime, "days", run.Params.HorizonDays)
	writeJSON(w, out)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	params, err := s.parseParams(r)
	if err != nil {
		writeRunError(w, err)
		return
	}

	regimes := regime.Known()
	if v := r.URL.Query().Get("regimes"); v != "" {
		regimes = nil
		for _, name := range strings.Split(v, ",") {
			id, err := regime.ParseRegime(name, true)
			if err != nil {
				writeRunError(w, err)
				return
			}
			regimes = append(regimes, id)
		}
	}

	runs, err := strategy.Compare(r.Context(), params, regimes, s.options()...)
	if err != nil {
		writeRunError(w, err)
		return
	}

	mode := dashboard.ParseSortMode(r.URL.Query().Get("sort"))
	rows := dashboard.BuildComparison(runs, mode)
	resp := CompareResponse{
		Sort: strings.ToLower(dashboard.SortModeLabel(mode)),
		Rows: make([]RegimeRowJSON, 0, len(rows)),
	}
	for _, row := range rows {
		resp.Rows = append(resp.Rows, toRegimeRowJSON(row))
	}
	if best, ok := dashboard.Best(rows); ok {
		resp.Best = string(best.Regime)
	}
	writeJSON(w, resp)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusNotFound, "run history is not configured")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}

	rows, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		s.log.Warn("listing runs", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]StoredRunJSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, toStoredRunJSON(row))
	}
	writeJSON(w, out)
}
