package hydro_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/brinksim/internal/hydro"
)

func relClose(got, want, tol float64) {
	ExpectWithOffset(1, math.Abs(got-want)).To(BeNumerically("<=", tol*math.Abs(want)),
		"got %v, want %v", got, want)
}

var _ = Describe("Kernels", func() {
	separations := []float64{0.05, 0.3, 1, 2.5, 7}

	Describe("Stokeslet", func() {
		It("matches the closed form", func() {
			h1, h2 := hydro.Stokeslet{}.Eval(1)
			Expect(h1).To(BeNumerically("~", 1/(8*math.Pi), 1e-15))
			Expect(h2).To(BeNumerically("~", 1/(8*math.Pi), 1e-15))

			h1, h2 = hydro.Stokeslet{}.Eval(2)
			Expect(h1).To(BeNumerically("~", 1/(16*math.Pi), 1e-15))
			Expect(h2).To(BeNumerically("~", 1/(64*math.Pi), 1e-15))
		})
	})

	Describe("Brinkmanlet", func() {
		It("tends to the Stokeslet as alpha vanishes", func() {
			b := hydro.Brinkmanlet{Alpha: 1e-4}
			for _, r := range []float64{0.5, 1, 2, 3} {
				bh1, bh2 := b.Eval(r)
				sh1, sh2 := hydro.Stokeslet{}.Eval(r)
				relClose(bh1, sh1, 1e-3)
				relClose(bh2, sh2, 1e-3)
			}
		})

		DescribeTable("stays close to the Stokeslet for tiny alpha",
			func(alpha, tol float64) {
				b := hydro.Brinkmanlet{Alpha: alpha}
				for _, r := range []float64{0.1, 0.5, 1, 3} {
					bh1, bh2 := b.Eval(r)
					sh1, sh2 := hydro.Stokeslet{}.Eval(r)
					relClose(bh1, sh1, tol)
					relClose(bh2, sh2, tol)
				}
			},
			Entry("alpha 1e-3", 1e-3, 1e-2),
			Entry("alpha 1e-5", 1e-5, 1e-4),
			Entry("alpha 1e-6", 1e-6, 1e-5),
			Entry("alpha 1e-7", 1e-7, 1e-6),
			Entry("alpha 1e-8", 1e-8, 1e-7),
			Entry("alpha 1e-10", 1e-10, 1e-9),
		)

		It("follows its power series on both sides of the series cutoff", func() {
			b := hydro.Brinkmanlet{Alpha: 1}
			for _, x := range []float64{0.01, 0.03, 0.049, 0.051, 0.08} {
				want1 := (0.5 - 2*x/3 + 3*x*x/8 - 2*math.Pow(x, 3)/15 +
					5*math.Pow(x, 4)/144 - math.Pow(x, 5)/140) / (4 * math.Pi * x)
				want2 := (0.5 - x*x/8 + math.Pow(x, 3)/15 -
					math.Pow(x, 4)/48 + math.Pow(x, 5)/210) / (4 * math.Pi * x * x * x)
				h1, h2 := b.Eval(x)
				relClose(h1, want1, 1e-8)
				relClose(h2, want2, 1e-8)
			}
		})

		It("decays faster than the Stokeslet in a porous medium", func() {
			b := hydro.Brinkmanlet{Alpha: 5}
			bh1, _ := b.Eval(3)
			sh1, _ := hydro.Stokeslet{}.Eval(3)
			Expect(math.Abs(bh1)).To(BeNumerically("<", sh1))
		})
	})

	Describe("regularized kernels", func() {
		It("tend to the singular Brinkmanlet as delta vanishes", func() {
			for _, alpha := range []float64{0.5, 1, 3, 5} {
				reg := hydro.RegularizedBrinkmanlet{Alpha: alpha, Delta: 1e-7}
				sing := hydro.Brinkmanlet{Alpha: alpha}
				for _, r := range separations {
					rh1, rh2 := reg.Eval(r)
					h1, h2 := sing.Eval(r)
					relClose(rh1, h1, 1e-6)
					relClose(rh2, h2, 1e-6)
				}
			}
		})

		It("tend to the singular Stokeslet as delta vanishes", func() {
			reg := hydro.RegularizedStokeslet{Delta: 1e-7}
			for _, r := range separations {
				rh1, rh2 := reg.Eval(r)
				h1, h2 := hydro.Stokeslet{}.Eval(r)
				relClose(rh1, h1, 1e-6)
				relClose(rh2, h2, 1e-6)
			}
		})

		It("matches the Cortez blob form for the Stokeslet", func() {
			delta, r := 0.1, 0.2
			R := math.Sqrt(r*r + delta*delta)
			h1, h2 := hydro.RegularizedStokeslet{Delta: delta}.Eval(r)
			Expect(h1).To(BeNumerically("~", (r*r+2*delta*delta)/(8*math.Pi*R*R*R), 1e-12))
			Expect(h2).To(BeNumerically("~", 1/(8*math.Pi*R*R*R), 1e-12))
		})

		It("stay bounded just above the masking threshold", func() {
			h1, h2 := hydro.RegularizedBrinkmanlet{Alpha: 1, Delta: 0.1}.Eval(2 * hydro.MinSeparation)
			Expect(math.IsInf(h1, 0) || math.IsNaN(h1)).To(BeFalse())
			Expect(math.IsInf(h2, 0) || math.IsNaN(h2)).To(BeFalse())
			Expect(math.Abs(h1)).To(BeNumerically("<", 10))
		})
	})

	DescribeTable("masking at or below the minimum separation",
		func(k hydro.Kernel) {
			for _, r := range []float64{0, hydro.MinSeparation / 2, hydro.MinSeparation} {
				h1, h2 := k.Eval(r)
				Expect(h1).To(BeZero())
				Expect(h2).To(BeZero())
			}
		},
		Entry("stokeslet", hydro.Stokeslet{}),
		Entry("brinkmanlet", hydro.Brinkmanlet{Alpha: 5}),
		Entry("regularized stokeslet", hydro.RegularizedStokeslet{Delta: 0.1}),
		Entry("regularized brinkmanlet", hydro.RegularizedBrinkmanlet{Alpha: 1, Delta: 0.1}),
	)

	Describe("EvalMatrix", func() {
		It("evaluates elementwise and keeps the zero diagonal", func() {
			dist := mat.NewSymDense(3, []float64{
				0, 1, 2,
				1, 0, 0.5,
				2, 0.5, 0,
			})
			k := hydro.Brinkmanlet{Alpha: 2}
			h1, h2 := hydro.EvalMatrix(k, dist)

			Expect(h1.SymmetricDim()).To(Equal(3))
			for i := 0; i < 3; i++ {
				Expect(h1.At(i, i)).To(BeZero())
				Expect(h2.At(i, i)).To(BeZero())
				for j := 0; j < 3; j++ {
					if i == j {
						continue
					}
					a, b := k.Eval(dist.At(i, j))
					Expect(h1.At(i, j)).To(Equal(a))
					Expect(h2.At(i, j)).To(Equal(b))
				}
			}
		})
	})
})
