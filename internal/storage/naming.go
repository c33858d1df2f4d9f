package storage

import (
	"strconv"
	"strings"

	"github.com/san-kum/brinksim/internal/config"
)

// OutputName is the trajectory file name for cfg. The four reference
// scenarios keep the names their analysis scripts expect; any other
// combination spells out its kernel, force and layout followed by the
// parameters those use.
func OutputName(cfg *config.Config) string {
	n := strconv.Itoa(cfg.NumParticles())
	t := num(cfg.Time.End)
	p := cfg.Params

	var parts []string
	switch cfg.Variant() {
	case config.VariantStokes:
		parts = []string{n, t}
	case config.VariantBrinkman:
		parts = []string{"BM", num(p.Alpha), n, t}
	case config.VariantMagnetic:
		parts = []string{"Magnetic", num(p.Beta), num(p.Alpha), n, t}
	case config.VariantStickman:
		parts = []string{"Stickman", num(p.Alpha), num(p.Delta), num(p.K), num(p.L), t}
	default:
		parts = []string{cfg.Kernel, cfg.Force, cfg.Layout}
		switch cfg.Kernel {
		case config.KernelBrinkmanlet:
			parts = append(parts, num(p.Alpha))
		case config.KernelRegularizedStokeslet:
			parts = append(parts, num(p.Delta))
		case config.KernelRegularizedBrinkmanlet:
			parts = append(parts, num(p.Alpha), num(p.Delta))
		}
		switch cfg.Force {
		case config.ForceMagnetic:
			parts = append(parts, num(p.Beta))
		case config.ForceElastic:
			parts = append(parts, num(p.K), num(p.L))
		}
		parts = append(parts, n, t)
	}
	return strings.Join(append(parts, "output.npy"), "_")
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
