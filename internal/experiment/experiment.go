package experiment

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	kitlog "github.com/go-kit/kit/log"

	"github.com/san-kum/brinksim/internal/config"
	"github.com/san-kum/brinksim/internal/dynamo"
	"github.com/san-kum/brinksim/internal/forces"
	"github.com/san-kum/brinksim/internal/metrics"
	"github.com/san-kum/brinksim/internal/physics"
	"github.com/san-kum/brinksim/internal/progress"
)

// Experiment wires one configuration into a ready-to-run simulator.
type Experiment struct {
	cfg        *config.Config
	randSource *rand.Rand
	logger     kitlog.Logger
	reporter   progress.Reporter

	susp      *physics.Suspension
	run       *physics.Run
	graph     *forces.Graph
	x0        dynamo.State
	simulator *dynamo.Simulator
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{
		cfg:        cfg.Clone(),
		randSource: rand.New(rand.NewSource(cfg.Seed)),
		logger:     kitlog.NewNopLogger(),
	}
}

func (e *Experiment) SetLogger(l kitlog.Logger)       { e.logger = l }
func (e *Experiment) SetReporter(r progress.Reporter) { e.reporter = r }

// Setup validates the configuration, places the particles and assembles the
// suspension, integrator and metrics.
func (e *Experiment) Setup(reg *Registry) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	place, err := reg.GetLayout(e.cfg.Layout)
	if err != nil {
		return err
	}
	pts, links, err := place(e.randSource, e.cfg)
	if err != nil {
		return fmt.Errorf("initial layout: %w", err)
	}
	if links != nil {
		if e.graph, err = forces.NewGraph(len(pts), links); err != nil {
			return err
		}
	}

	kernel, err := reg.GetKernel(e.cfg.Kernel, e.cfg.Params)
	if err != nil {
		return err
	}
	field, err := reg.GetField(e.cfg.Force, e.cfg.Params, e.graph)
	if err != nil {
		return err
	}
	integ, err := reg.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return err
	}

	if e.susp, err = physics.NewSuspension(len(pts), kernel, field); err != nil {
		return err
	}
	e.x0 = dynamo.FromPoints(pts)
	e.run = e.newRun()

	e.simulator = dynamo.New(e.run, integ)
	e.simulator.SetLogger(e.logger)
	for _, m := range e.DefaultMetrics() {
		e.simulator.AddMetric(m)
	}

	e.logger.Log("level", "info", "subsys", "experiment", "variant", e.cfg.Variant(),
		"kernel", kernel.Name(), "force", field.Name(), "particles", len(pts),
		"t0", e.cfg.Time.Start, "t1", e.cfg.Time.End, "integrator", e.cfg.Integrator)
	return nil
}

// DefaultMetrics are the summaries recorded for every run; the strain metric
// only applies when the layout has springs.
func (e *Experiment) DefaultMetrics() []dynamo.Metric {
	ms := []dynamo.Metric{
		metrics.NewComDescent(forces.DefaultGravity),
		metrics.NewCloudRadius(),
	}
	if e.graph != nil {
		ms = append(ms, metrics.NewMaxLinkStrain(e.graph, e.cfg.Params.L))
	}
	return ms
}

// Run integrates from the initial layout. Every call starts a new run
// context, so progress restarts at zero and lagged fields see no history.
func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	e.run = e.newRun()
	e.simulator.SetSystem(e.run)
	return e.simulator.Run(ctx, e.x0.Clone(), e.SolverConfig())
}

func (e *Experiment) newRun() *physics.Run {
	return e.susp.NewRun(progress.NewTracker(e.cfg.Time.Start, e.cfg.Time.End, e.reporter))
}

// SolverConfig translates the run configuration for the trajectory driver.
func (e *Experiment) SolverConfig() dynamo.Config {
	sc := dynamo.DefaultConfig()
	sc.T0 = e.cfg.Time.Start
	sc.T1 = e.cfg.Time.End
	sc.Dt = e.cfg.Time.Dt
	sc.Tolerance = dynamo.Tolerance{Rtol: e.cfg.Time.Rtol, Atol: e.cfg.Time.Atol}
	sc.MaxSteps = e.cfg.Time.MaxSteps
	sc.MaxDt = math.Inf(1)
	sc.Adaptive = e.cfg.Integrator == "rk45"
	return sc
}

func (e *Experiment) Config() *config.Config          { return e.cfg }
func (e *Experiment) InitialState() dynamo.State      { return e.x0.Clone() }
func (e *Experiment) Suspension() *physics.Suspension { return e.susp }
func (e *Experiment) Graph() *forces.Graph            { return e.graph }

// GetSimulator returns the underlying simulator for adding observers.
func (e *Experiment) GetSimulator() *dynamo.Simulator { return e.simulator }
