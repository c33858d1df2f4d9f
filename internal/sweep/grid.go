// Package sweep runs one configuration over a grid of parameter values.
package sweep

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/brinksim/internal/config"
)

var ErrUnknownParam = errors.New("sweep: unknown parameter")

// Axis is one swept parameter and the values it takes.
type Axis struct {
	Name   string    `yaml:"name"`
	Values []float64 `yaml:"values"`
}

// Point assigns one value to every axis of a grid.
type Point map[string]float64

func (p Point) String() string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + strconv.FormatFloat(p[name], 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

// setters maps every sweepable name onto the configuration field it drives.
var setters = map[string]func(c *config.Config, v float64){
	"alpha":  func(c *config.Config, v float64) { c.Params.Alpha = v },
	"delta":  func(c *config.Config, v float64) { c.Params.Delta = v },
	"beta":   func(c *config.Config, v float64) { c.Params.Beta = v },
	"k":      func(c *config.Config, v float64) { c.Params.K = v },
	"l":      func(c *config.Config, v float64) { c.Params.L = v },
	"clamp":  func(c *config.Config, v float64) { c.Params.Clamp = v },
	"radius": func(c *config.Config, v float64) { c.Particles.Radius = v },
	"n":      func(c *config.Config, v float64) { c.Particles.N = int(v) },
	"time":   func(c *config.Config, v float64) { c.Time.End = v },
}

// Params lists the names an axis may sweep.
func Params() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Linspace spreads n values evenly over [lo, hi].
func Linspace(name string, lo, hi float64, n int) Axis {
	if n == 1 {
		return Axis{Name: name, Values: []float64{lo}}
	}
	return Axis{Name: name, Values: floats.Span(make([]float64, n), lo, hi)}
}

// ParseAxis reads "name=v1,v2,..." or "name=lo:hi:n".
func ParseAxis(s string) (Axis, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || name == "" || list == "" {
		return Axis{}, fmt.Errorf("axis %q: want name=v1,v2 or name=lo:hi:n", s)
	}
	name = strings.ToLower(strings.TrimSpace(name))

	if parts := strings.Split(list, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err := errors.Join(err1, err2, err3); err != nil {
			return Axis{}, fmt.Errorf("axis %q: %w", s, err)
		}
		if n < 1 {
			return Axis{}, fmt.Errorf("axis %q: need at least one value", s)
		}
		return Linspace(name, lo, hi, n), nil
	}

	ax := Axis{Name: name}
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Axis{}, fmt.Errorf("axis %q: %w", s, err)
		}
		ax.Values = append(ax.Values, v)
	}
	return ax, nil
}

// Grid is the Cartesian product of its axes.
type Grid struct {
	axes []Axis
}

func NewGrid(axes ...Axis) (*Grid, error) {
	seen := make(map[string]bool, len(axes))
	for _, ax := range axes {
		if _, ok := setters[ax.Name]; !ok {
			return nil, fmt.Errorf("%w: %s (known: %v)", ErrUnknownParam, ax.Name, Params())
		}
		if seen[ax.Name] {
			return nil, fmt.Errorf("sweep: %s swept twice", ax.Name)
		}
		if len(ax.Values) == 0 {
			return nil, fmt.Errorf("sweep: %s has no values", ax.Name)
		}
		seen[ax.Name] = true
	}
	return &Grid{axes: axes}, nil
}

func (g *Grid) Len() int {
	if len(g.axes) == 0 {
		return 0
	}
	n := 1
	for _, ax := range g.axes {
		n *= len(ax.Values)
	}
	return n
}

// Points enumerates the grid with the last axis varying fastest.
func (g *Grid) Points() []Point {
	if len(g.axes) == 0 {
		return nil
	}
	points := make([]Point, 0, g.Len())
	g.collect(0, Point{}, &points)
	return points
}

func (g *Grid) collect(depth int, current Point, out *[]Point) {
	if depth == len(g.axes) {
		p := make(Point, len(current))
		for k, v := range current {
			p[k] = v
		}
		*out = append(*out, p)
		return
	}
	ax := g.axes[depth]
	for _, v := range ax.Values {
		current[ax.Name] = v
		g.collect(depth+1, current, out)
	}
	delete(current, ax.Name)
}

// Apply returns a copy of base with the point's values set.
func Apply(base *config.Config, p Point) (*config.Config, error) {
	cfg := base.Clone()
	for name, v := range p {
		set, ok := setters[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParam, name)
		}
		set(cfg, v)
	}
	return cfg, nil
}
