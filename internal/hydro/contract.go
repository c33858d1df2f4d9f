package hydro

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/brinksim/internal/dynamo"
)

// Contract computes velocity[i,u] = Σ_j Σ_v mobility[u,v,i,j]·force[j,v].
// It panics if the number of forces does not match the mobility.
func Contract(m *Mobility, forces []r3.Vec) []r3.Vec {
	if len(forces) != m.n {
		panic(fmt.Sprintf("hydro: %d forces for a mobility of %d particles", len(forces), m.n))
	}
	if m.n == 0 {
		return []r3.Vec{}
	}

	f := mat.NewVecDense(3*m.n, dynamo.FromPoints(forces))
	var v mat.VecDense
	v.MulVec(m.m, f)

	return dynamo.State(v.RawVector().Data).Points()
}

// Velocities is the composition Contract(Assemble(k, pos), forces).
func Velocities(k Kernel, pos, forces []r3.Vec) []r3.Vec {
	return Contract(Assemble(k, pos), forces)
}
