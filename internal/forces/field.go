// Package forces assembles the net force on every particle of a suspension.
//
// Three interchangeable fields are provided:
//
//   - [Gravity]: a uniform body force
//   - [Elastic]: linear springs over a fixed [Graph], plus gravity
//   - [Magnetic]: an induced Lorentz force driven by the previous velocity
//     estimate, plus gravity
//
// A field is selected once per run and never changes while the run is live.
package forces

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrSelfLink      = errors.New("forces: link joins a particle to itself")
	ErrLinkRange     = errors.New("forces: link index out of range")
	ErrHistoryLength = errors.New("forces: velocity history does not match particle count")
)

// DefaultGravity is the unit body force along −z used by every variant.
var DefaultGravity = r3.Vec{Z: -1}

// Field computes per-particle forces. prev is the velocity estimate of the
// previous derivative evaluation; fields that are not Lagged ignore it.
// Forces never mutates pos or prev.
type Field interface {
	Name() string
	Forces(pos, prev []r3.Vec) []r3.Vec
	Lagged() bool
}

type Gravity struct {
	G r3.Vec
}

func NewGravity() Gravity { return Gravity{G: DefaultGravity} }

func (Gravity) Name() string { return "gravity" }
func (Gravity) Lagged() bool { return false }

func (g Gravity) Forces(pos, _ []r3.Vec) []r3.Vec {
	f := make([]r3.Vec, len(pos))
	for i := range f {
		f[i] = g.G
	}
	return f
}
