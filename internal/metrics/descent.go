// Package metrics summarizes a trajectory while it is being integrated.
package metrics

import (
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/brinksim/internal/dynamo"
)

// CentreOfMass returns the mean particle position of x.
func CentreOfMass(x dynamo.State) r3.Vec {
	n := x.Particles()
	if n == 0 {
		return r3.Vec{}
	}
	xs, ys, zs := make([]float64, n), make([]float64, n), make([]float64, n)
	for i := 0; i < n; i++ {
		xs[i], ys[i], zs[i] = x[3*i], x[3*i+1], x[3*i+2]
	}
	return r3.Vec{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil), Z: stat.Mean(zs, nil)}
}

// ComDescent is how far the centre of mass has travelled along the gravity
// direction between the first and the latest sample.
type ComDescent struct {
	name    string
	down    r3.Vec
	first   r3.Vec
	last    r3.Vec
	samples int
}

func NewComDescent(gravity r3.Vec) *ComDescent {
	down := r3.Vec{Z: -1}
	if r3.Norm(gravity) > 0 {
		down = r3.Unit(gravity)
	}
	return &ComDescent{name: "com_descent", down: down}
}

func (c *ComDescent) Name() string { return c.name }

func (c *ComDescent) Observe(x dynamo.State, t float64) {
	com := CentreOfMass(x)
	if c.samples == 0 {
		c.first = com
	}
	c.last = com
	c.samples++
}

func (c *ComDescent) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return r3.Dot(r3.Sub(c.last, c.first), c.down)
}

func (c *ComDescent) Reset() {
	c.first, c.last = r3.Vec{}, r3.Vec{}
	c.samples = 0
}
