package config

import "sort"

func base(kernel, force, layout string, n int, end float64, params ParamConfig) *Config {
	cfg := DefaultConfig()
	cfg.Kernel, cfg.Force, cfg.Layout = kernel, force, layout
	cfg.Particles.N = n
	cfg.Time.End = end
	if params.Clamp == 0 {
		params.Clamp = DefaultClamp
	}
	cfg.Params = params
	return cfg
}

// Presets holds the four reference scenarios ("default") plus shorter and
// re-parameterized runs of each, keyed by variant and preset name.
var Presets = map[string]map[string]*Config{
	VariantStokes: {
		"default": base(KernelStokeslet, ForceGravity, LayoutSphere, 300, 1000, ParamConfig{}),
		"quick":   base(KernelStokeslet, ForceGravity, LayoutSphere, 50, 50, ParamConfig{}),
		"dense":   base(KernelStokeslet, ForceGravity, LayoutSphere, 600, 500, ParamConfig{}),
	},
	VariantBrinkman: {
		"default": base(KernelBrinkmanlet, ForceGravity, LayoutSphere, 500, 500, ParamConfig{Alpha: 5}),
		"quick":   base(KernelBrinkmanlet, ForceGravity, LayoutSphere, 50, 50, ParamConfig{Alpha: 5}),
		"loose":   base(KernelBrinkmanlet, ForceGravity, LayoutSphere, 500, 500, ParamConfig{Alpha: 1}),
	},
	VariantMagnetic: {
		"default": base(KernelBrinkmanlet, ForceMagnetic, LayoutSphere, 500, 300, ParamConfig{Alpha: 3, Beta: 5}),
		"quick":   base(KernelBrinkmanlet, ForceMagnetic, LayoutSphere, 50, 30, ParamConfig{Alpha: 3, Beta: 5}),
		"strong":  base(KernelBrinkmanlet, ForceMagnetic, LayoutSphere, 500, 300, ParamConfig{Alpha: 3, Beta: 20}),
	},
	VariantStickman: {
		"default": base(KernelRegularizedBrinkmanlet, ForceElastic, LayoutStickman, StickmanParticles, 500,
			ParamConfig{Alpha: 1, Delta: 0.1, K: 1, L: 1}),
		"quick": base(KernelRegularizedBrinkmanlet, ForceElastic, LayoutStickman, StickmanParticles, 50,
			ParamConfig{Alpha: 1, Delta: 0.1, K: 1, L: 1}),
		"stiff": base(KernelRegularizedBrinkmanlet, ForceElastic, LayoutStickman, StickmanParticles, 500,
			ParamConfig{Alpha: 1, Delta: 0.1, K: 10, L: 1}),
	},
}

// GetPreset returns a copy of the named preset, or nil if it does not exist.
func GetPreset(variant, preset string) *Config {
	variantPresets, ok := Presets[variant]
	if !ok {
		return nil
	}
	cfg, ok := variantPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(variant string) []string {
	variantPresets, ok := Presets[variant]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(variantPresets))
	for name := range variantPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListVariants() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
