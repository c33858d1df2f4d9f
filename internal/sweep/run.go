package sweep

import (
	"context"
	"fmt"
	"math"
	"os"

	kitlog "github.com/go-kit/kit/log"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/brinksim/internal/config"
	"github.com/san-kum/brinksim/internal/dynamo"
	"github.com/san-kum/brinksim/internal/experiment"
)

// Outcome is the run at one grid point.
type Outcome struct {
	Point  Point
	Config *config.Config
	Result *dynamo.Result
}

// Run integrates base at every point of g, at most workers at a time, and
// returns the outcomes in grid order. Every point shares the base seed, so
// the points differ only in the swept parameters.
func Run(ctx context.Context, base *config.Config, g *Grid, workers int, logger kitlog.Logger) ([]Outcome, error) {
	points := g.Points()
	outcomes := make([]Outcome, len(points))
	reg := experiment.NewRegistry()

	factory := func(idx int) (dynamo.Member, error) {
		cfg, err := Apply(base, points[idx])
		if err != nil {
			return dynamo.Member{}, err
		}
		exp := experiment.New(cfg)
		exp.SetLogger(kitlog.With(logger, "subsys", "sweep", "point", points[idx].String()))
		if err := exp.Setup(reg); err != nil {
			return dynamo.Member{}, fmt.Errorf("point %s: %w", points[idx], err)
		}
		outcomes[idx] = Outcome{Point: points[idx], Config: exp.Config()}
		return dynamo.Member{Sim: exp.GetSimulator(), X0: exp.InitialState(), Cfg: exp.SolverConfig()}, nil
	}

	results, err := dynamo.NewEnsemble(factory, len(points), workers).Run(ctx)
	if err != nil {
		return nil, err
	}
	for i, res := range results {
		outcomes[i].Result = res
	}
	return outcomes, nil
}

// Best picks the outcome with the smallest value of metric, or the largest
// when maximize is set. ok is false if no outcome recorded the metric.
func Best(outcomes []Outcome, metric string, maximize bool) (Outcome, bool) {
	best := math.Inf(1)
	if maximize {
		best = math.Inf(-1)
	}

	var pick Outcome
	found := false
	for _, o := range outcomes {
		if o.Result == nil {
			continue
		}
		v, ok := o.Result.Metrics[metric]
		if !ok || math.IsNaN(v) {
			continue
		}
		if (maximize && v > best) || (!maximize && v < best) {
			best, pick, found = v, o, true
		}
	}
	return pick, found
}

// Plan is a sweep described in a yaml file.
type Plan struct {
	Name    string `yaml:"name"`
	Variant string `yaml:"variant"`
	Preset  string `yaml:"preset"`
	Seed    int64  `yaml:"seed"`
	Workers int    `yaml:"workers"`
	Axes    []Axis `yaml:"axes"`
}

func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Preset: "default"}
	if err := yaml.Unmarshal(data, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Base resolves the preset the plan starts from.
func (p *Plan) Base() (*config.Config, error) {
	cfg := config.GetPreset(p.Variant, p.Preset)
	if cfg == nil {
		return nil, fmt.Errorf("plan %s: unknown preset %s/%s", p.Name, p.Variant, p.Preset)
	}
	if p.Seed != 0 {
		cfg.Seed = p.Seed
	}
	return cfg, nil
}

func (p *Plan) Grid() (*Grid, error) { return NewGrid(p.Axes...) }
