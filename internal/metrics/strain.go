package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/brinksim/internal/dynamo"
	"github.com/san-kum/brinksim/internal/forces"
)

// MaxLinkStrain tracks the largest relative deviation |(|r|−L)/L| of any
// spring from its rest length over all samples.
type MaxLinkStrain struct {
	name       string
	links      []forces.Link
	restLength float64
	max        float64
}

func NewMaxLinkStrain(g *forces.Graph, restLength float64) *MaxLinkStrain {
	return &MaxLinkStrain{name: "max_link_strain", links: g.Links(), restLength: restLength}
}

func (m *MaxLinkStrain) Name() string { return m.name }

func (m *MaxLinkStrain) Observe(x dynamo.State, t float64) {
	pts := x.Points()
	for _, l := range m.links {
		d := r3.Norm(r3.Sub(pts[l.I], pts[l.J]))
		m.max = math.Max(m.max, math.Abs(d-m.restLength)/m.restLength)
	}
}

func (m *MaxLinkStrain) Value() float64 { return m.max }

func (m *MaxLinkStrain) Reset() { m.max = 0 }
