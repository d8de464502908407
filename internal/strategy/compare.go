package strategy

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"floatbt/internal/domain"
)

// maxParallelRuns bounds how many regime backtests Compare runs at once.
const maxParallelRuns = 4

// Compare runs one independent backtest per regime with otherwise identical
// params. Each run owns its own ledger and jitter source, so results match
// a solo run of the same regime. Runs are returned in the order of regimes.
// A RegimeDrift passed through WithDrift is rebound to each compared regime's
// profile; any other drift strategy is shared as given.
func Compare(ctx context.Context, params Params, regimes []domain.RegimeID, opts ...Option) ([]*domain.Run, error) {
	runs := make([]*domain.Run, len(regimes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelRuns)

	for i, id := range regimes {
		i, id := i, id
		g.Go(func() error {
			p := params
			p.Regime = id
			bt, err := NewBacktester(p, append(opts[:len(opts):len(opts)], rebindRegimeDrift())...)
			if err != nil {
				return fmt.Errorf("regime %s: %w", id, err)
			}
			run, err := bt.Run(gctx)
			if err != nil {
				return fmt.Errorf("regime %s: %w", id, err)
			}
			runs[i] = run
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}

// rebindRegimeDrift points a caller-supplied RegimeDrift at the backtest's
// own profile.
func rebindRegimeDrift() Option {
	return func(b *Backtester) {
		if _, ok := b.drift.(*RegimeDrift); ok {
			b.drift = NewRegimeDrift(b.profile)
		}
	}
}
