package hydro_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/brinksim/internal/hydro"
)

func randomCloud(rng *rand.Rand, n int) []r3.Vec {
	pos := make([]r3.Vec, n)
	for i := range pos {
		pos[i] = r3.Vec{X: rng.Float64()*4 - 2, Y: rng.Float64()*4 - 2, Z: rng.Float64()*4 - 2}
	}
	return pos
}

// explicitVelocities evaluates the contraction term by term.
func explicitVelocities(k hydro.Kernel, pos, forces []r3.Vec) []r3.Vec {
	out := make([]r3.Vec, len(pos))
	for i := range pos {
		var acc r3.Vec
		for j := range pos {
			d := r3.Sub(pos[i], pos[j])
			h1, h2 := k.Eval(r3.Norm(d))
			acc = r3.Add(acc, r3.Add(r3.Scale(h1, forces[j]), r3.Scale(h2*r3.Dot(d, forces[j]), d)))
		}
		out[i] = acc
	}
	return out
}

var _ = Describe("Mobility", func() {
	var rng *rand.Rand

	BeforeEach(func() {
		rng = rand.New(rand.NewSource(7))
	})

	It("computes pairwise distances", func() {
		pos := []r3.Vec{{}, {X: 1, Y: 2, Z: 2}, {Z: -4}}
		d := hydro.Distances(pos)
		Expect(d.At(0, 1)).To(BeNumerically("~", 3, 1e-15))
		Expect(d.At(1, 0)).To(BeNumerically("~", 3, 1e-15))
		Expect(d.At(0, 2)).To(BeNumerically("~", 4, 1e-15))
		Expect(d.At(1, 1)).To(BeZero())
	})

	It("builds the H1·I + H2·r⊗r block", func() {
		pos := []r3.Vec{{X: 1, Y: 2, Z: 2}, {}}
		k := hydro.Brinkmanlet{Alpha: 1.5}
		m := hydro.Assemble(k, pos)
		h1, h2 := k.Eval(3)
		r := [3]float64{1, 2, 2}

		for u := 0; u < 3; u++ {
			for v := 0; v < 3; v++ {
				want := h2 * r[u] * r[v]
				if u == v {
					want += h1
				}
				Expect(m.At(u, v, 0, 1)).To(BeNumerically("~", want, 1e-15))
			}
		}
	})

	DescribeTable("reciprocity and zero self-mobility",
		func(k hydro.Kernel) {
			pos := randomCloud(rng, 20)
			m := hydro.Assemble(k, pos)
			Expect(m.Particles()).To(Equal(20))

			for i := 0; i < 20; i++ {
				for j := 0; j < 20; j++ {
					for u := 0; u < 3; u++ {
						for v := 0; v < 3; v++ {
							Expect(m.At(u, v, i, j)).To(Equal(m.At(v, u, j, i)))
							if i == j {
								Expect(m.At(u, v, i, i)).To(BeZero())
							}
						}
					}
				}
			}
		},
		Entry("stokeslet", hydro.Stokeslet{}),
		Entry("brinkmanlet", hydro.Brinkmanlet{Alpha: 5}),
		Entry("regularized brinkmanlet", hydro.RegularizedBrinkmanlet{Alpha: 1, Delta: 0.1}),
	)

	It("leaves coincident particles uncoupled", func() {
		pos := []r3.Vec{{X: 1}, {X: 1}, {X: 3}}
		m := hydro.Assemble(hydro.Stokeslet{}, pos)
		for u := 0; u < 3; u++ {
			for v := 0; v < 3; v++ {
				Expect(m.At(u, v, 0, 1)).To(BeZero())
			}
		}
		Expect(m.At(0, 0, 0, 2)).NotTo(BeZero())
	})

	It("handles an empty system", func() {
		m := hydro.Assemble(hydro.Stokeslet{}, nil)
		Expect(m.Particles()).To(BeZero())
		Expect(hydro.Contract(m, nil)).To(BeEmpty())
	})
})

var _ = Describe("Contract", func() {
	It("moves two Stokes particles down together", func() {
		pos := []r3.Vec{{}, {Z: 1}}
		forces := []r3.Vec{{Z: -1}, {Z: -1}}
		vel := hydro.Velocities(hydro.Stokeslet{}, pos, forces)

		want := -1 / (4 * math.Pi)
		for _, v := range vel {
			Expect(v.X).To(BeNumerically("~", 0, 1e-15))
			Expect(v.Y).To(BeNumerically("~", 0, 1e-15))
			Expect(v.Z).To(BeNumerically("~", want, 1e-15))
		}
	})

	It("matches the term-by-term sum", func() {
		rng := rand.New(rand.NewSource(11))
		pos := randomCloud(rng, 15)
		forces := randomCloud(rng, 15)
		k := hydro.Brinkmanlet{Alpha: 3}

		got := hydro.Velocities(k, pos, forces)
		want := explicitVelocities(k, pos, forces)
		Expect(got).To(HaveLen(len(want)))
		for i := range got {
			Expect(r3.Norm(r3.Sub(got[i], want[i]))).To(BeNumerically("<", 1e-12))
		}
	})

	It("is linear in the forces", func() {
		rng := rand.New(rand.NewSource(3))
		pos := randomCloud(rng, 8)
		f := randomCloud(rng, 8)
		g := randomCloud(rng, 8)
		m := hydro.Assemble(hydro.Stokeslet{}, pos)

		sum := make([]r3.Vec, len(f))
		for i := range f {
			sum[i] = r3.Add(r3.Scale(2, f[i]), g[i])
		}
		vf, vg, vs := hydro.Contract(m, f), hydro.Contract(m, g), hydro.Contract(m, sum)
		for i := range vs {
			expected := r3.Add(r3.Scale(2, vf[i]), vg[i])
			Expect(r3.Norm(r3.Sub(vs[i], expected))).To(BeNumerically("<", 1e-12))
		}
	})

	It("does not mutate its inputs", func() {
		pos := []r3.Vec{{}, {X: 1}, {Y: 2}}
		forces := []r3.Vec{{Z: -1}, {Z: -1}, {X: 1}}
		posCopy := append([]r3.Vec(nil), pos...)
		forceCopy := append([]r3.Vec(nil), forces...)

		hydro.Velocities(hydro.Stokeslet{}, pos, forces)
		Expect(pos).To(Equal(posCopy))
		Expect(forces).To(Equal(forceCopy))
	})

	It("panics when the force count does not match", func() {
		m := hydro.Assemble(hydro.Stokeslet{}, []r3.Vec{{}, {X: 1}})
		Expect(func() { hydro.Contract(m, []r3.Vec{{}}) }).To(Panic())
	})
})
