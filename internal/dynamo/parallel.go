package dynamo

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Member is one independent run of an ensemble. Its Simulator must own its
// System; members never share mutable state.
type Member struct {
	Sim *Simulator
	X0  State
	Cfg Config
}

// Factory builds the idx-th ensemble member.
type Factory func(idx int) (Member, error)

type Ensemble struct {
	factory Factory
	numRuns int
	workers int
}

// NewEnsemble runs numRuns members with at most workers in flight
// (workers <= 0 means one per member).
func NewEnsemble(factory Factory, numRuns, workers int) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns, workers: workers}
}

// Run executes every member and returns the results in member order. The
// first failure cancels the members that have not finished yet.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	if e.workers > 0 {
		g.SetLimit(e.workers)
	}

	for i := 0; i < e.numRuns; i++ {
		idx := i
		g.Go(func() error {
			m, err := e.factory(idx)
			if err != nil {
				return fmt.Errorf("member %d: %w", idx, err)
			}
			res, err := m.Sim.Run(ctx, m.X0, m.Cfg)
			if err != nil {
				return fmt.Errorf("member %d: %w", idx, err)
			}
			results[idx] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
