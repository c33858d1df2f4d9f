package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	KernelStokeslet              = "stokeslet"
	KernelBrinkmanlet            = "brinkmanlet"
	KernelRegularizedStokeslet   = "regularized-stokeslet"
	KernelRegularizedBrinkmanlet = "regularized-brinkmanlet"

	ForceGravity  = "gravity"
	ForceElastic  = "elastic"
	ForceMagnetic = "magnetic"

	LayoutSphere   = "sphere"
	LayoutStickman = "stickman"

	VariantStokes   = "stokes"
	VariantBrinkman = "brinkman"
	VariantMagnetic = "magnetic"
	VariantStickman = "stickman"
	VariantCustom   = "custom"
)

const (
	DefaultParticles = 300
	DefaultRadius    = 1.0
	DefaultEnd       = 1000.0
	DefaultDt        = 0.1
	DefaultRtol      = 1e-3
	DefaultAtol      = 1e-6
	DefaultMaxSteps  = 1_000_000
	DefaultClamp     = 2.0
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Kernel     string         `yaml:"kernel"`
	Force      string         `yaml:"force"`
	Layout     string         `yaml:"layout"`
	Integrator string         `yaml:"integrator"`
	Seed       int64          `yaml:"seed"`
	Particles  ParticleConfig `yaml:"particles"`
	Params     ParamConfig    `yaml:"params"`
	Time       TimeConfig     `yaml:"time"`
}

type ParticleConfig struct {
	N           int     `yaml:"n"`
	Radius      float64 `yaml:"radius"`
	MaxAttempts int     `yaml:"max_attempts"`
}

type ParamConfig struct {
	Alpha float64 `yaml:"alpha"`
	Delta float64 `yaml:"delta"`
	Beta  float64 `yaml:"beta"`
	K     float64 `yaml:"k"`
	L     float64 `yaml:"l"`
	Clamp float64 `yaml:"clamp"`
}

type TimeConfig struct {
	Start    float64 `yaml:"start"`
	End      float64 `yaml:"end"`
	Dt       float64 `yaml:"dt"`
	Rtol     float64 `yaml:"rtol"`
	Atol     float64 `yaml:"atol"`
	MaxSteps int     `yaml:"max_steps"`
}

// DefaultConfig is the Stokes sedimentation of a spherical cloud.
func DefaultConfig() *Config {
	return &Config{
		Kernel:     KernelStokeslet,
		Force:      ForceGravity,
		Layout:     LayoutSphere,
		Integrator: "rk45",
		Particles:  ParticleConfig{N: DefaultParticles, Radius: DefaultRadius},
		Params:     ParamConfig{Clamp: DefaultClamp},
		Time: TimeConfig{
			End:      DefaultEnd,
			Dt:       DefaultDt,
			Rtol:     DefaultRtol,
			Atol:     DefaultAtol,
			MaxSteps: DefaultMaxSteps,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// Variant names the reference scenario a configuration reproduces, or
// VariantCustom for any other combination.
func (c *Config) Variant() string {
	switch {
	case c.Kernel == KernelStokeslet && c.Force == ForceGravity && c.Layout == LayoutSphere:
		return VariantStokes
	case c.Kernel == KernelBrinkmanlet && c.Force == ForceGravity && c.Layout == LayoutSphere:
		return VariantBrinkman
	case c.Kernel == KernelBrinkmanlet && c.Force == ForceMagnetic && c.Layout == LayoutSphere:
		return VariantMagnetic
	case c.Kernel == KernelRegularizedBrinkmanlet && c.Force == ForceElastic && c.Layout == LayoutStickman:
		return VariantStickman
	default:
		return VariantCustom
	}
}

// NumParticles is the particle count the layout will produce.
func (c *Config) NumParticles() int {
	if c.Layout == LayoutStickman {
		return StickmanParticles
	}
	return c.Particles.N
}

// StickmanParticles is the size of the fixed articulated skeleton.
const StickmanParticles = 32

// Validate rejects unsupported or inconsistent combinations before any
// simulation work starts.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	switch c.Kernel {
	case KernelStokeslet:
	case KernelBrinkmanlet, KernelRegularizedBrinkmanlet:
		if !(c.Params.Alpha > 0) || math.IsInf(c.Params.Alpha, 0) {
			bad("kernel %s needs alpha > 0, got %g", c.Kernel, c.Params.Alpha)
		}
	case KernelRegularizedStokeslet:
	default:
		bad("unknown kernel %q", c.Kernel)
	}
	if c.Kernel == KernelRegularizedStokeslet || c.Kernel == KernelRegularizedBrinkmanlet {
		if !(c.Params.Delta > 0) || math.IsInf(c.Params.Delta, 0) {
			bad("kernel %s needs delta > 0, got %g", c.Kernel, c.Params.Delta)
		}
	}

	switch c.Layout {
	case LayoutSphere:
		if c.Particles.N <= 0 {
			bad("sphere layout needs n > 0, got %d", c.Particles.N)
		}
		if !(c.Particles.Radius > 0) {
			bad("sphere layout needs radius > 0, got %g", c.Particles.Radius)
		}
	case LayoutStickman:
	default:
		bad("unknown layout %q", c.Layout)
	}

	switch c.Force {
	case ForceGravity:
	case ForceElastic:
		if c.Layout != LayoutStickman {
			bad("elastic force needs the stickman layout for its links, got layout %q", c.Layout)
		}
		if c.Params.K < 0 || math.IsNaN(c.Params.K) {
			bad("elastic force needs k >= 0, got %g", c.Params.K)
		}
		if !(c.Params.L > 0) {
			bad("elastic force needs l > 0, got %g", c.Params.L)
		}
	case ForceMagnetic:
		if math.IsNaN(c.Params.Beta) || math.IsInf(c.Params.Beta, 0) {
			bad("magnetic force needs a finite beta, got %g", c.Params.Beta)
		}
		if !(c.Params.Clamp > 0) {
			bad("magnetic force needs clamp > 0, got %g", c.Params.Clamp)
		}
	default:
		bad("unknown force %q", c.Force)
	}

	if !(c.Time.End > c.Time.Start) {
		bad("time span must be increasing, got (%g, %g)", c.Time.Start, c.Time.End)
	}
	switch c.Integrator {
	case "rk45":
		if !(c.Time.Rtol > 0) || !(c.Time.Atol > 0) {
			bad("rk45 needs positive tolerances, got rtol %g atol %g", c.Time.Rtol, c.Time.Atol)
		}
		if c.Time.MaxSteps <= 0 {
			bad("max_steps must be positive, got %d", c.Time.MaxSteps)
		}
	case "rk4", "euler":
		if !(c.Time.Dt > 0) {
			bad("%s needs dt > 0, got %g", c.Integrator, c.Time.Dt)
		}
	default:
		bad("unknown integrator %q", c.Integrator)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
