package hydro

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mobility is the pairwise mobility of N particles stored as a symmetric
// 3N×3N matrix: entry (3i+u, 3j+v) is mobility[u,v,i,j], the velocity along
// axis u at particle i per unit force along axis v at particle j.
type Mobility struct {
	n int
	m *mat.SymDense
}

func (m *Mobility) Particles() int { return m.n }

// At returns mobility[u,v,i,j].
func (m *Mobility) At(u, v, i, j int) float64 {
	return m.m.At(3*i+u, 3*j+v)
}

// Matrix exposes the underlying 3N×3N matrix. Callers must not modify it.
func (m *Mobility) Matrix() mat.Symmetric { return m.m }

// Distances returns the N×N matrix of pairwise separations |pos_i − pos_j|.
func Distances(pos []r3.Vec) *mat.SymDense {
	n := len(pos)
	if n == 0 {
		return &mat.SymDense{}
	}
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d.SetSym(i, j, r3.Norm(r3.Sub(pos[i], pos[j])))
		}
	}
	return d
}

// Assemble builds the mobility for the given positions. Each off-diagonal
// block is H1·I + H2·(r ⊗ r) with r = pos_i − pos_j; diagonal blocks are zero
// because the kernel vanishes at zero separation.
func Assemble(k Kernel, pos []r3.Vec) *Mobility {
	n := len(pos)
	if n == 0 {
		return &Mobility{m: &mat.SymDense{}}
	}

	h1, h2 := EvalMatrix(k, Distances(pos))
	m := mat.NewSymDense(3*n, nil)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := h1.At(i, j), h2.At(i, j)
			if a == 0 && b == 0 {
				continue
			}
			d := r3.Sub(pos[i], pos[j])
			r := [3]float64{d.X, d.Y, d.Z}
			for u := 0; u < 3; u++ {
				for v := 0; v < 3; v++ {
					val := b * r[u] * r[v]
					if u == v {
						val += a
					}
					m.SetSym(3*i+u, 3*j+v, val)
				}
			}
		}
	}

	return &Mobility{n: n, m: m}
}
