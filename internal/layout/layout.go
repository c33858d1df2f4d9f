// Package layout generates initial particle configurations.
package layout

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/brinksim/internal/forces"
)

// MaxSamplingAttempts is the default draw budget for Sphere.
const MaxSamplingAttempts = 1_000_000

var ErrSamplingExhausted = errors.New("layout: sphere sampling exceeded its attempt budget")

// Sphere draws n points uniformly inside the ball of the given radius by
// rejection from the enclosing cube. At most maxAttempts candidates are
// drawn; maxAttempts <= 0 selects MaxSamplingAttempts.
func Sphere(rng *rand.Rand, n int, radius float64, maxAttempts int) ([]r3.Vec, error) {
	if n < 0 {
		return nil, fmt.Errorf("layout: negative particle count %d", n)
	}
	if radius < 0 {
		return nil, fmt.Errorf("layout: negative radius %g", radius)
	}
	if maxAttempts <= 0 {
		maxAttempts = MaxSamplingAttempts
	}

	pts := make([]r3.Vec, 0, n)
	for attempts := 0; len(pts) < n; attempts++ {
		if attempts >= maxAttempts {
			return nil, fmt.Errorf("%w: %d of %d points after %d draws", ErrSamplingExhausted, len(pts), n, attempts)
		}
		p := r3.Vec{
			X: uniform(rng, -radius, radius),
			Y: uniform(rng, -radius, radius),
			Z: uniform(rng, -radius, radius),
		}
		if r3.Norm(p) <= radius {
			pts = append(pts, p)
		}
	}
	return pts, nil
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

// StickmanJitter bounds the out-of-plane perturbation of the skeleton.
const StickmanJitter = 0.1

const (
	cos22 = 0.9238795325
	sin22 = 0.3826834324
)

// Stickman returns the 32-point articulated skeleton lying in the x–z plane,
// with each y drawn from U(−StickmanJitter, StickmanJitter), and the 32
// springs joining it. Neighbouring points sit about one unit apart.
func Stickman(rng *rand.Rand) ([]r3.Vec, []forces.Link) {
	// head (octagon), body, arms, legs
	xs := []float64{
		-cos22, -cos22 - sin22, -cos22, 0, cos22, cos22 + sin22, cos22, 0,
		0, 0, 0, 0, 0, 0,
		-4, -3, -2, -1, 1, 2, 3, 4,
		-3.0 / 5, -6.0 / 5, -9.0 / 5, -12.0 / 5, -3, 3.0 / 5, 6.0 / 5, 9.0 / 5, 12.0 / 5, 3,
	}
	zs := []float64{
		-1 + sin22, -1 + sin22 + cos22, -1 + sin22 + 2*cos22, -1 + 2*sin22 + 2*cos22,
		-1 + sin22 + 2*cos22, -1 + sin22 + cos22, -1 + sin22, -1,
		-2, -3, -4, -5, -6, -7,
		-3, -3, -3, -3, -3, -3, -3, -3,
		-39.0 / 5, -43.0 / 5, -47.0 / 5, -51.0 / 5, -11, -39.0 / 5, -43.0 / 5, -47.0 / 5, -51.0 / 5, -11,
	}

	pts := make([]r3.Vec, len(xs))
	for i := range pts {
		pts[i] = r3.Vec{X: xs[i], Y: uniform(rng, -StickmanJitter, StickmanJitter), Z: zs[i]}
	}

	// consecutive points, broken between limbs, then the joints
	breaks := map[int]bool{13: true, 17: true, 21: true, 26: true}
	links := make([]forces.Link, 0, 32)
	for i := 0; i < len(pts)-1; i++ {
		if !breaks[i] {
			links = append(links, forces.Link{I: i, J: i + 1})
		}
	}
	links = append(links,
		forces.Link{I: 0, J: 7},
		forces.Link{I: 9, J: 17},
		forces.Link{I: 9, J: 18},
		forces.Link{I: 13, J: 22},
		forces.Link{I: 13, J: 27},
	)
	return pts, links
}
