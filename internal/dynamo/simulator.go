package dynamo

import (
	"context"
	"fmt"
	"math"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"gonum.org/v1/gonum/floats"
)

type Simulator struct {
	sys        System
	integrator Integrator
	metrics    []Metric
	observers  []Observer
	logger     kitlog.Logger
}

func New(sys System, integrator Integrator) *Simulator {
	return &Simulator{
		sys:        sys,
		integrator: integrator,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
		logger:     kitlog.NewNopLogger(),
	}
}

func (s *Simulator) AddMetric(m Metric)        { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)    { s.observers = append(s.observers, o) }
func (s *Simulator) SetLogger(l kitlog.Logger) { s.logger = l }

// SetSystem swaps the integrated system, keeping metrics and observers.
func (s *Simulator) SetSystem(sys System) { s.sys = sys }

// countingSystem tallies derivative evaluations for the run statistics.
type countingSystem struct {
	System
	evals int
}

func (c *countingSystem) Derive(x State, t float64) State {
	c.evals++
	return c.System.Derive(x, t)
}

// Run integrates x0 over [cfg.T0, cfg.T1]. The adaptive path samples every
// accepted step; the fixed path samples every step. The last sample always
// lies exactly at cfg.T1.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	adaptive, ok := s.integrator.(AdaptiveIntegrator)
	useAdaptive := ok && cfg.Adaptive
	if err := s.validateConfig(cfg, useAdaptive); err != nil {
		return nil, err
	}
	if len(x0) != s.sys.StateDim() {
		return nil, fmt.Errorf("%w: state has %d entries, system expects %d", ErrDimensionMismatch, len(x0), s.sys.StateDim())
	}

	result := &Result{
		States:  make([]State, 0, 64),
		Times:   make([]float64, 0, 64),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	sys := &countingSystem{System: s.sys}
	start := time.Now()
	s.record(result, x0.Clone(), cfg.T0)

	var err error
	if useAdaptive {
		err = s.runAdaptive(ctx, sys, adaptive, x0.Clone(), cfg, result)
	} else {
		err = s.runFixed(ctx, sys, x0.Clone(), cfg, result)
	}
	result.Evaluations = sys.evals

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	if err != nil {
		s.logger.Log("level", "error", "subsys", "solver", "status", "failed", "err", err, "steps", result.StepsTaken)
		return result, err
	}
	s.logger.Log("level", "info", "subsys", "solver", "status", "finished",
		"steps", result.StepsTaken, "rejected", result.Rejected, "evaluations", result.Evaluations,
		"samples", len(result.Times), "elapsed", time.Since(start).Round(time.Millisecond))
	return result, nil
}

func (s *Simulator) runAdaptive(ctx context.Context, sys System, integ AdaptiveIntegrator, x State, cfg Config, result *Result) error {
	t := cfg.T0
	dx := sys.Derive(x, t)
	dt := s.initialStep(sys, integ.Order(), x, dx, t, cfg)
	dt = math.Min(dt, cfg.MaxDt)

	for t < cfg.T1 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if result.StepsTaken >= cfg.MaxSteps {
			return &SimulationError{Step: result.StepsTaken, Time: t, Wrapped: ErrMaxSteps}
		}

		last := false
		if t+dt >= cfg.T1 {
			dt = cfg.T1 - t
			last = true
		}

		xNew, dxNew, dtNext, accepted := integ.StepAdaptive(sys, x, dx, t, dt, cfg.Tolerance)
		if !accepted {
			result.Rejected++
			if dtNext < cfg.MinDt {
				return &SimulationError{Step: result.StepsTaken, Time: t, Wrapped: ErrStepTooSmall}
			}
			dt = dtNext
			continue
		}

		if cfg.ValidateState && !xNew.IsValid() {
			return &SimulationError{Step: result.StepsTaken, Time: t, Wrapped: ErrInvalidState}
		}

		if last {
			t = cfg.T1
		} else {
			t += dt
		}
		x, dx = xNew, dxNew
		result.StepsTaken++
		s.record(result, x.Clone(), t)

		dt = math.Min(dtNext, cfg.MaxDt)
	}
	return nil
}

func (s *Simulator) runFixed(ctx context.Context, sys System, x State, cfg Config, result *Result) error {
	steps := int(math.Ceil((cfg.T1-cfg.T0)/cfg.Dt - 1e-9))
	t := cfg.T0

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		dt := cfg.Dt
		if t+dt > cfg.T1 {
			dt = cfg.T1 - t
		}

		newX := s.integrator.Step(sys, x, t, dt)
		if cfg.ValidateState && !newX.IsValid() {
			return &SimulationError{Step: i, Time: t, Wrapped: ErrInvalidState}
		}

		x = newX
		if i == steps-1 {
			t = cfg.T1
		} else {
			t += dt
		}
		result.StepsTaken++
		s.record(result, x.Clone(), t)
	}
	return nil
}

func (s *Simulator) record(result *Result, x State, t float64) {
	for _, m := range s.metrics {
		m.Observe(x, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, t)
	}
	result.States = append(result.States, x)
	result.Times = append(result.Times, t)
}

// initialStep picks the first adaptive step from the local scale of the
// solution and of its derivative (Hairer, Nørsett & Wanner, II.4).
func (s *Simulator) initialStep(sys System, order int, x, dx State, t float64, cfg Config) float64 {
	span := cfg.T1 - cfg.T0
	if len(x) == 0 {
		return span
	}

	scale := make([]float64, len(x))
	for i := range x {
		scale[i] = cfg.Tolerance.Atol + math.Abs(x[i])*cfg.Tolerance.Rtol
	}

	d0 := rmsNorm(x, scale)
	d1 := rmsNorm(dx, scale)

	h0 := 1e-6
	if d0 >= 1e-5 && d1 >= 1e-5 {
		h0 = 0.01 * d0 / d1
	}
	h0 = math.Min(h0, span)

	x1 := make(State, len(x))
	floats.AddScaledTo(x1, x, h0, dx)
	dx1 := sys.Derive(x1, t+h0)

	diff := make([]float64, len(x))
	floats.SubTo(diff, dx1, dx)
	d2 := rmsNorm(diff, scale) / h0

	var h1 float64
	if d1 <= 1e-15 && d2 <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(d1, d2), 1/float64(order+1))
	}

	return math.Min(100*h0, math.Min(h1, span))
}

func rmsNorm(v, scale []float64) float64 {
	w := make([]float64, len(v))
	floats.DivTo(w, v, scale)
	return floats.Norm(w, 2) / math.Sqrt(float64(len(w)))
}

func (s *Simulator) validateConfig(cfg Config, adaptive bool) error {
	if cfg.T1 <= cfg.T0 {
		return fmt.Errorf("%w: time span must be increasing, got (%g, %g)", ErrParameterBounds, cfg.T0, cfg.T1)
	}
	if adaptive {
		if cfg.Tolerance.Rtol <= 0 || cfg.Tolerance.Atol <= 0 {
			return fmt.Errorf("%w: tolerances must be positive for adaptive stepping", ErrParameterBounds)
		}
		if cfg.MaxSteps <= 0 {
			return fmt.Errorf("%w: max steps must be positive, got %d", ErrParameterBounds, cfg.MaxSteps)
		}
		if cfg.MaxDt <= 0 {
			return fmt.Errorf("%w: max dt must be positive, got %g", ErrParameterBounds, cfg.MaxDt)
		}
		return nil
	}
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrParameterBounds, cfg.Dt)
	}
	return nil
}
