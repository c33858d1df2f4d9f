package forces

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	DefaultClamp          = 2.0
	DefaultMagneticCutoff = 1e-2
)

// Magnetic is the induced-field force of a magnetized suspension. The field
// at particle i is
//
//	B_i = Σ_j (β/N²)·(v_j × r_ij)/|r_ij|²,  r_ij = p_i − p_j,
//
// summed over pairs farther apart than MinSeparation, with every component
// saturated to [−Clamp, Clamp]. The force is v_i × B_i plus Gravity. The
// velocities are those of the previous derivative evaluation.
type Magnetic struct {
	Beta          float64
	Clamp         float64
	MinSeparation float64
	Gravity       r3.Vec
}

func NewMagnetic(beta float64) *Magnetic {
	return &Magnetic{
		Beta:          beta,
		Clamp:         DefaultClamp,
		MinSeparation: DefaultMagneticCutoff,
		Gravity:       DefaultGravity,
	}
}

func (*Magnetic) Name() string { return "magnetic" }
func (*Magnetic) Lagged() bool { return true }

// Field returns the clamped induced field for positions pos and
// velocities vel. A nil vel is a zero velocity history.
func (m *Magnetic) Field(pos, vel []r3.Vec) []r3.Vec {
	n := len(pos)
	b := make([]r3.Vec, n)
	if vel == nil {
		return b
	}
	if len(vel) != n {
		panic(fmt.Errorf("%w: %d velocities for %d particles", ErrHistoryLength, len(vel), n))
	}

	scale := m.Beta / float64(n*n)
	for i := 0; i < n; i++ {
		var acc r3.Vec
		for j := 0; j < n; j++ {
			r := r3.Sub(pos[i], pos[j])
			d2 := r3.Dot(r, r)
			if d2 <= m.MinSeparation*m.MinSeparation {
				continue
			}
			acc = r3.Add(acc, r3.Scale(scale/d2, r3.Cross(vel[j], r)))
		}
		b[i] = r3.Vec{X: clamp(acc.X, m.Clamp), Y: clamp(acc.Y, m.Clamp), Z: clamp(acc.Z, m.Clamp)}
	}
	return b
}

func (m *Magnetic) Forces(pos, prev []r3.Vec) []r3.Vec {
	b := m.Field(pos, prev)
	f := make([]r3.Vec, len(pos))
	for i := range f {
		f[i] = m.Gravity
		if prev != nil {
			f[i] = r3.Add(f[i], r3.Cross(prev[i], b[i]))
		}
	}
	return f
}

func clamp(v, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, v))
}
