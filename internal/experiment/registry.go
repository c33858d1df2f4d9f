package experiment

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/brinksim/internal/config"
	"github.com/san-kum/brinksim/internal/dynamo"
	"github.com/san-kum/brinksim/internal/forces"
	"github.com/san-kum/brinksim/internal/hydro"
	"github.com/san-kum/brinksim/internal/integrators"
	"github.com/san-kum/brinksim/internal/layout"
)

// LayoutFunc places the particles and returns any spring links between them.
type LayoutFunc func(rng *rand.Rand, cfg *config.Config) ([]r3.Vec, []forces.Link, error)

// FieldFunc builds a force field; g is nil unless the layout produced links.
type FieldFunc func(p config.ParamConfig, g *forces.Graph) (forces.Field, error)

type Registry struct {
	kernels     map[string]func(p config.ParamConfig) hydro.Kernel
	fields      map[string]FieldFunc
	layouts     map[string]LayoutFunc
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		kernels:     make(map[string]func(config.ParamConfig) hydro.Kernel),
		fields:      make(map[string]FieldFunc),
		layouts:     make(map[string]LayoutFunc),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.kernels[config.KernelStokeslet] = func(config.ParamConfig) hydro.Kernel { return hydro.Stokeslet{} }
	r.kernels[config.KernelBrinkmanlet] = func(p config.ParamConfig) hydro.Kernel {
		return hydro.Brinkmanlet{Alpha: p.Alpha}
	}
	r.kernels[config.KernelRegularizedStokeslet] = func(p config.ParamConfig) hydro.Kernel {
		return hydro.RegularizedStokeslet{Delta: p.Delta}
	}
	r.kernels[config.KernelRegularizedBrinkmanlet] = func(p config.ParamConfig) hydro.Kernel {
		return hydro.RegularizedBrinkmanlet{Alpha: p.Alpha, Delta: p.Delta}
	}

	r.fields[config.ForceGravity] = func(config.ParamConfig, *forces.Graph) (forces.Field, error) {
		return forces.NewGravity(), nil
	}
	r.fields[config.ForceElastic] = func(p config.ParamConfig, g *forces.Graph) (forces.Field, error) {
		if g == nil {
			return nil, fmt.Errorf("elastic force needs a layout with links")
		}
		return forces.NewElastic(g, p.K, p.L), nil
	}
	r.fields[config.ForceMagnetic] = func(p config.ParamConfig, _ *forces.Graph) (forces.Field, error) {
		m := forces.NewMagnetic(p.Beta)
		if p.Clamp > 0 {
			m.Clamp = p.Clamp
		}
		return m, nil
	}

	r.layouts[config.LayoutSphere] = func(rng *rand.Rand, cfg *config.Config) ([]r3.Vec, []forces.Link, error) {
		pts, err := layout.Sphere(rng, cfg.Particles.N, cfg.Particles.Radius, cfg.Particles.MaxAttempts)
		return pts, nil, err
	}
	r.layouts[config.LayoutStickman] = func(rng *rand.Rand, _ *config.Config) ([]r3.Vec, []forces.Link, error) {
		pts, links := layout.Stickman(rng)
		return pts, links, nil
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	return r
}

func (r *Registry) GetKernel(name string, p config.ParamConfig) (hydro.Kernel, error) {
	fn, ok := r.kernels[name]
	if !ok {
		return nil, fmt.Errorf("unknown kernel: %s", name)
	}
	return fn(p), nil
}

func (r *Registry) GetField(name string, p config.ParamConfig, g *forces.Graph) (forces.Field, error) {
	fn, ok := r.fields[name]
	if !ok {
		return nil, fmt.Errorf("unknown force: %s", name)
	}
	return fn(p, g)
}

func (r *Registry) GetLayout(name string) (LayoutFunc, error) {
	fn, ok := r.layouts[name]
	if !ok {
		return nil, fmt.Errorf("unknown layout: %s", name)
	}
	return fn, nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListKernels() []string     { return sortedKeys(r.kernels) }
func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
