package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/brinksim/internal/dynamo"
)

// Classic fourth-order tableau: stage s is evaluated at t + nodes[s]*dt from
// x + nodes[s]*dt*k[s-1].
var (
	rk4Nodes   = [4]float64{0, 0.5, 0.5, 1}
	rk4Weights = [4]float64{1.0 / 6, 2.0 / 6, 2.0 / 6, 1.0 / 6}
)

// RK4 reuses its stage buffers between steps, so one value must not be
// shared by concurrent runs.
type RK4 struct {
	k       [4]dynamo.State
	scratch dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) resize(n int) {
	if len(r.scratch) == n {
		return
	}
	for s := range r.k {
		r.k[s] = make(dynamo.State, n)
	}
	r.scratch = make(dynamo.State, n)
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	r.resize(len(x))

	for s := range r.k {
		in := x
		if s > 0 {
			floats.AddScaledTo(r.scratch, x, rk4Nodes[s]*dt, r.k[s-1])
			in = r.scratch
		}
		copy(r.k[s], sys.Derive(in, t+rk4Nodes[s]*dt))
	}

	next := x.Clone()
	for s := range r.k {
		floats.AddScaled(next, rk4Weights[s]*dt, r.k[s])
	}
	return next
}
