package experiment

import (
	"context"

	kitlog "github.com/go-kit/kit/log"

	"github.com/san-kum/brinksim/internal/config"
	"github.com/san-kum/brinksim/internal/dynamo"
	"github.com/san-kum/brinksim/internal/progress"
)

// RunEnsemble integrates cfg once per seed, at most workers at a time. Each
// member owns its experiment, so no run-scoped state is shared. With
// withProgress set every member logs its own progress records. Results are
// returned in seed order.
func RunEnsemble(ctx context.Context, cfg *config.Config, seeds []int64, workers int, logger kitlog.Logger, withProgress bool) ([]*dynamo.Result, []*Experiment, error) {
	reg := NewRegistry()
	exps := make([]*Experiment, len(seeds))

	factory := func(idx int) (dynamo.Member, error) {
		c := cfg.Clone()
		c.Seed = seeds[idx]

		exp := New(c)
		memberLog := kitlog.With(logger, "member", idx, "seed", c.Seed)
		exp.SetLogger(memberLog)
		if withProgress {
			exp.SetReporter(progress.NewLogReporter(memberLog))
		}
		if err := exp.Setup(reg); err != nil {
			return dynamo.Member{}, err
		}
		exps[idx] = exp
		return dynamo.Member{Sim: exp.simulator, X0: exp.InitialState(), Cfg: exp.SolverConfig()}, nil
	}

	results, err := dynamo.NewEnsemble(factory, len(seeds), workers).Run(ctx)
	if err != nil {
		return nil, nil, err
	}
	return results, exps, nil
}
