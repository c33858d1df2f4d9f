package dynamo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// State is the flattened particle configuration, laid out row-major as
// [x0, y0, z0, x1, y1, z1, ...].
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Particles is the number of complete 3-vectors held by s.
func (s State) Particles() int { return len(s) / 3 }

// Points reshapes the state into per-particle positions. The returned
// vectors are copies; mutating them does not touch s.
func (s State) Points() []r3.Vec {
	n := s.Particles()
	p := make([]r3.Vec, n)
	for i := range p {
		p[i] = r3.Vec{X: s[3*i], Y: s[3*i+1], Z: s[3*i+2]}
	}
	return p
}

// FromPoints flattens positions into a State. It is the inverse of Points.
func FromPoints(p []r3.Vec) State {
	s := make(State, 3*len(p))
	for i, v := range p {
		s[3*i] = v.X
		s[3*i+1] = v.Y
		s[3*i+2] = v.Z
	}
	return s
}

// System is the right-hand side of dX/dt = f(X, t). Derive must not mutate x.
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

type Integrator interface {
	Step(sys System, x State, t float64, dt float64) State
}

// Tolerance bounds the local error accepted by an adaptive step.
type Tolerance struct {
	Rtol float64
	Atol float64
}

// AdaptiveIntegrator advances with an embedded error estimate. dx is the
// derivative at (x, t); the returned dxNew is the derivative at the new
// point, so a first-same-as-last pair never evaluates the same point twice.
type AdaptiveIntegrator interface {
	Integrator
	Order() int
	StepAdaptive(sys System, x, dx State, t, dt float64, tol Tolerance) (xNew, dxNew State, dtNext float64, accepted bool)
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, t float64)
}

type Config struct {
	T0            float64
	T1            float64
	Dt            float64
	Tolerance     Tolerance
	MaxDt         float64
	MinDt         float64
	MaxSteps      int
	Adaptive      bool
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		T0:            0,
		T1:            10.0,
		Dt:            0.01,
		Tolerance:     Tolerance{Rtol: 1e-3, Atol: 1e-6},
		MaxDt:         math.Inf(1),
		MinDt:         1e-12,
		MaxSteps:      1_000_000,
		Adaptive:      true,
		ValidateState: true,
	}
}

type Result struct {
	States      []State
	Times       []float64
	Metrics     map[string]float64
	StepsTaken  int
	Rejected    int
	Evaluations int
}
