package hydro

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// MinSeparation is the distance at or below which a pair is treated as
// coincident and its kernel coefficients are zero.
const MinSeparation = 1e-6

type Kernel interface {
	Name() string
	// Eval returns H1(r) and H2(r). It returns (0, 0) for r <= MinSeparation.
	Eval(r float64) (h1, h2 float64)
}

type Stokeslet struct{}

func (Stokeslet) Name() string { return "stokeslet" }

func (Stokeslet) Eval(r float64) (float64, float64) {
	if r <= MinSeparation {
		return 0, 0
	}
	return stokesH1(r), stokesH2(r)
}

func stokesH1(r float64) float64 { return 1 / (8 * math.Pi * r) }
func stokesH2(r float64) float64 { return 1 / (8 * math.Pi * r * r * r) }

// Brinkmanlet is the fundamental solution of the Brinkman equation with
// permeability coefficient Alpha (> 0). As Alpha → 0 it tends to the Stokeslet.
type Brinkmanlet struct {
	Alpha float64
}

func (Brinkmanlet) Name() string { return "brinkmanlet" }

func (b Brinkmanlet) Eval(r float64) (float64, float64) {
	if r <= MinSeparation {
		return 0, 0
	}
	return brinkmanH1(b.Alpha, r), brinkmanH2(b.Alpha, r)
}

// Below brinkmanSeriesCutoff the closed forms cancel two terms of order
// 1/(αr)², so H1 and H2 come from their power series in αr instead.
const (
	brinkmanSeriesCutoff = 0.05
	brinkmanSeriesTerms  = 12
)

func brinkmanH1(alpha, r float64) float64 {
	ar := alpha * r
	if ar < brinkmanSeriesCutoff {
		return brinkmanSeries(ar, 1) / (4 * math.Pi * r)
	}
	e := math.Exp(-ar)
	return e/(4*math.Pi*r)*(1+1/ar+1/(ar*ar)) - 1/(4*math.Pi*alpha*alpha*r*r*r)
}

func brinkmanH2(alpha, r float64) float64 {
	ar := alpha * r
	r3 := r * r * r
	if ar < brinkmanSeriesCutoff {
		return -brinkmanSeries(ar, 3) / (4 * math.Pi * r3)
	}
	e := math.Exp(-ar)
	return -e/(4*math.Pi*r3)*(1+3/ar+3/(ar*ar)) + 3/(4*math.Pi*alpha*alpha*r3*r*r)
}

// brinkmanSeries sums e^{-x}(1 + a/x + a/x²) - a/x² as
// Σ (-x)^m [1/m! - a/(m+1)! + a/(m+2)!]; the negative powers cancel exactly.
func brinkmanSeries(x, a float64) float64 {
	var sum float64
	pow, fact := 1.0, 1.0 // (-x)^m, 1/m!
	for m := 0; m < brinkmanSeriesTerms; m++ {
		f1 := fact / float64(m+1)
		f2 := f1 / float64(m+2)
		sum += pow * (fact - a*f1 + a*f2)
		pow *= -x
		fact = f1
	}
	return sum
}

// RegularizedStokeslet evaluates the Stokeslet at the blob separation
// R = sqrt(r² + δ²) and folds δ²·H2(R) into H1, which keeps the regularized
// flow divergence free.
type RegularizedStokeslet struct {
	Delta float64
}

func (RegularizedStokeslet) Name() string { return "regularized-stokeslet" }

func (s RegularizedStokeslet) Eval(r float64) (float64, float64) {
	if r <= MinSeparation {
		return 0, 0
	}
	d2 := s.Delta * s.Delta
	R := math.Sqrt(r*r + d2)
	h2 := stokesH2(R)
	return stokesH1(R) + d2*h2, h2
}

// RegularizedBrinkmanlet applies the same blob construction to the Brinkmanlet.
type RegularizedBrinkmanlet struct {
	Alpha float64
	Delta float64
}

func (RegularizedBrinkmanlet) Name() string { return "regularized-brinkmanlet" }

func (b RegularizedBrinkmanlet) Eval(r float64) (float64, float64) {
	if r <= MinSeparation {
		return 0, 0
	}
	d2 := b.Delta * b.Delta
	R := math.Sqrt(r*r + d2)
	h2 := brinkmanH2(b.Alpha, R)
	return brinkmanH1(b.Alpha, R) + d2*h2, h2
}

// EvalMatrix applies k elementwise to a symmetric separation matrix (zero
// diagonal included) and returns H1 and H2 matrices of the same shape.
func EvalMatrix(k Kernel, dist mat.Symmetric) (h1, h2 *mat.SymDense) {
	n := dist.SymmetricDim()
	h1 = mat.NewSymDense(n, nil)
	h2 = mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			a, b := k.Eval(dist.At(i, j))
			h1.SetSym(i, j, a)
			h2.SetSym(i, j, b)
		}
	}
	return h1, h2
}
