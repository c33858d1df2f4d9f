package forces

import "gonum.org/v1/gonum/spatial/r3"

// MinLinkLength is the length below which a link has no defined direction
// and contributes nothing.
const MinLinkLength = 1e-6

// Elastic applies Hookean springs of stiffness K and rest length RestLength
// along every link of Graph, plus a uniform Gravity.
type Elastic struct {
	Graph      *Graph
	K          float64
	RestLength float64
	Gravity    r3.Vec
}

func NewElastic(g *Graph, k, restLength float64) *Elastic {
	return &Elastic{Graph: g, K: k, RestLength: restLength, Gravity: DefaultGravity}
}

func (*Elastic) Name() string { return "elastic" }
func (*Elastic) Lagged() bool { return false }

func (e *Elastic) Forces(pos, _ []r3.Vec) []r3.Vec {
	f := e.Internal(pos)
	for i := range f {
		f[i] = r3.Add(f[i], e.Gravity)
	}
	return f
}

// Internal returns the spring forces alone. They sum to zero over all
// particles for any configuration.
func (e *Elastic) Internal(pos []r3.Vec) []r3.Vec {
	f := make([]r3.Vec, len(pos))
	for _, l := range e.Graph.links {
		r := r3.Sub(pos[l.I], pos[l.J])
		d := r3.Norm(r)
		if d <= MinLinkLength {
			continue
		}
		// −K(|r|−L)·r̂ on I, the opposite on J
		s := r3.Scale(-e.K*(d-e.RestLength)/d, r)
		f[l.I] = r3.Add(f[l.I], s)
		f[l.J] = r3.Sub(f[l.J], s)
	}
	return f
}
