package sim

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Factory builds an independent system for one seed.
type Factory func(seed int64) (System, []Metric, error)

// Ensemble runs one system per seed concurrently. Each run owns its world,
// so no state is shared between goroutines.
type Ensemble struct {
	factory   Factory
	numRuns   int
	seedStart int64
	limit     int
}

func NewEnsemble(factory Factory, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns, seedStart: seedStart, limit: runtime.GOMAXPROCS(0)}
}

// SetParallelism caps the number of runs in flight. n <= 0 removes the cap.
func (e *Ensemble) SetParallelism(n int) { e.limit = n }

// Run executes every seed and returns the results in seed order. The first
// failure cancels the runs still in flight and is returned.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for i := 0; i < e.numRuns; i++ {
		seed := e.seedStart + int64(i)
		g.Go(func() error {
			sys, metrics, err := e.factory(seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}

			d := New(sys)
			for _, m := range metrics {
				d.AddMetric(m)
			}
			results[i], err = d.Run(ctx, cfg)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
