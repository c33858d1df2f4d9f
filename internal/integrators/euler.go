package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/brinksim/internal/dynamo"
)

// Euler is the explicit first-order method. It is only useful as a cheap
// baseline against rk4 and rk45.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (Euler) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	next := make(dynamo.State, len(x))
	floats.AddScaledTo(next, x, dt, sys.Derive(x, t))
	return next
}
