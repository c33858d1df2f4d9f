package physics

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/brinksim/internal/dynamo"
	"github.com/san-kum/brinksim/internal/forces"
	"github.com/san-kum/brinksim/internal/hydro"
	"github.com/san-kum/brinksim/internal/progress"
)

var ErrNoParticles = errors.New("physics: suspension needs at least one particle")

type Suspension struct {
	n      int
	kernel hydro.Kernel
	field  forces.Field
}

func NewSuspension(n int, k hydro.Kernel, f forces.Field) (*Suspension, error) {
	if n <= 0 {
		return nil, ErrNoParticles
	}
	if k == nil || f == nil {
		return nil, errors.New("physics: kernel and force field are required")
	}
	if e, ok := f.(*forces.Elastic); ok && e.Graph != nil && e.Graph.Particles() != n {
		return nil, fmt.Errorf("%w: graph has %d particles, suspension %d",
			dynamo.ErrDimensionMismatch, e.Graph.Particles(), n)
	}
	return &Suspension{n: n, kernel: k, field: f}, nil
}

func (s *Suspension) Particles() int       { return s.n }
func (s *Suspension) Kernel() hydro.Kernel { return s.kernel }
func (s *Suspension) Field() forces.Field  { return s.field }

// NewRun starts a fresh run-scoped context with a zero velocity history.
// tracker may be nil.
func (s *Suspension) NewRun(tracker *progress.Tracker) *Run {
	return &Run{susp: s, tracker: tracker}
}

// Run is the derivative function of one integration.
type Run struct {
	susp    *Suspension
	tracker *progress.Tracker
	history []r3.Vec
	evals   int
}

func (r *Run) StateDim() int { return 3 * r.susp.n }

// Derive returns the particle velocities for positions x at time t. The
// input is never modified. For lagged fields the computed velocities become
// the history seen by the next call.
func (r *Run) Derive(x dynamo.State, t float64) dynamo.State {
	if len(x) != r.StateDim() {
		panic(fmt.Errorf("%w: state has %d entries, suspension expects %d",
			dynamo.ErrDimensionMismatch, len(x), r.StateDim()))
	}
	r.evals++
	if r.tracker != nil {
		r.tracker.Observe(t)
	}

	pos := x.Points()
	field := r.susp.field

	var prev []r3.Vec
	if field.Lagged() {
		prev = r.history
	}
	vel := hydro.Velocities(r.susp.kernel, pos, field.Forces(pos, prev))
	if field.Lagged() {
		r.history = vel
	}

	return dynamo.FromPoints(vel)
}

func (r *Run) Evaluations() int { return r.evals }

// History returns a copy of the current velocity estimate, or nil before the
// first evaluation of a lagged field.
func (r *Run) History() []r3.Vec {
	if r.history == nil {
		return nil
	}
	out := make([]r3.Vec, len(r.history))
	copy(out, r.history)
	return out
}
