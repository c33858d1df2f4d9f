package dynamo

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"zeros", State{0.0, 0.0, 0.0}, true},
		{"with NaN", State{1.0, math.NaN(), 0}, false},
		{"with +Inf", State{1.0, math.Inf(1), 0}, false},
		{"with -Inf", State{1.0, math.Inf(-1), 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Norm(t *testing.T) {
	tests := []struct {
		state    State
		expected float64
	}{
		{State{3, 4, 0}, 5.0},
		{State{1, 0, 0}, 1.0},
		{State{0, 0, 0}, 0.0},
		{State{1, 1, 1, 1}, 2.0},
	}

	for _, tt := range tests {
		if got := tt.state.Norm(); math.Abs(got-tt.expected) > 1e-10 {
			t.Errorf("Norm(%v) = %v, want %v", tt.state, got, tt.expected)
		}
	}
}

func TestState_PointsLayout(t *testing.T) {
	s := State{1, 2, 3, 4, 5, 6}
	p := s.Points()

	if len(p) != 2 {
		t.Fatalf("expected 2 points, got %d", len(p))
	}
	if p[0] != (r3.Vec{X: 1, Y: 2, Z: 3}) || p[1] != (r3.Vec{X: 4, Y: 5, Z: 6}) {
		t.Errorf("points not row-major: %v", p)
	}

	p[0].X = 100
	if s[0] != 1 {
		t.Error("mutating points must not touch the state")
	}
}

func TestFlattenReshapeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for _, n := range []int{0, 1, 2, 17, 256} {
		p := make([]r3.Vec, n)
		for i := range p {
			p[i] = r3.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}
		}

		s := FromPoints(p)
		if len(s) != 3*n {
			t.Fatalf("n=%d: flat length %d, want %d", n, len(s), 3*n)
		}

		back := s.Points()
		for i := range p {
			if back[i] != p[i] {
				t.Fatalf("n=%d: point %d = %v, want %v", n, i, back[i], p[i])
			}
		}

		if again := FromPoints(back); len(again) != len(s) {
			t.Fatalf("n=%d: second flatten length %d", n, len(again))
		} else {
			for i := range s {
				if again[i] != s[i] {
					t.Fatalf("n=%d: entry %d = %v, want %v", n, i, again[i], s[i])
				}
			}
		}
	}
}

func TestState_Clone(t *testing.T) {
	s := State{1, 2, 3}
	c := s.Clone()
	c[0] = 9
	if s[0] != 1 {
		t.Error("clone shares storage with original")
	}
}
