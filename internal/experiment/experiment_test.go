package experiment

import (
	"context"
	"errors"
	"sync"
	"testing"

	kitlog "github.com/go-kit/kit/log"

	"github.com/san-kum/brinksim/internal/config"
	"github.com/san-kum/brinksim/internal/progress"
)

func smallCloud() *config.Config {
	cfg := config.GetPreset(config.VariantStokes, "quick")
	cfg.Particles.N = 12
	cfg.Time.End = 2
	cfg.Seed = 3
	return cfg
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"euler", "rk4", "rk45"} {
		if _, err := reg.GetIntegrator(name); err != nil {
			t.Errorf("integrator %s: %v", name, err)
		}
	}
	if _, err := reg.GetIntegrator("verlet"); err == nil {
		t.Error("expected error for unknown integrator")
	}
	if got := len(reg.ListKernels()); got != 4 {
		t.Errorf("expected 4 kernels, got %d", got)
	}
	if _, err := reg.GetField(config.ForceElastic, config.ParamConfig{K: 1, L: 1}, nil); err == nil {
		t.Error("elastic field without links should fail")
	}
}

func TestExperimentRun(t *testing.T) {
	var notes []progress.Notification
	exp := New(smallCloud())
	exp.SetReporter(progress.ReporterFunc(func(n progress.Notification) { notes = append(notes, n) }))
	if err := exp.Setup(NewRegistry()); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Times[len(res.Times)-1] != 2 {
		t.Errorf("last sample at %v", res.Times[len(res.Times)-1])
	}
	if len(res.States[0]) != 36 {
		t.Errorf("state has %d entries", len(res.States[0]))
	}
	if res.Metrics["com_descent"] <= 0 {
		t.Errorf("cloud should sink, descent = %v", res.Metrics["com_descent"])
	}
	if _, ok := res.Metrics["max_link_strain"]; ok {
		t.Error("a cloud has no links to strain")
	}
	if len(notes) != progress.Steps {
		t.Errorf("expected %d progress notifications, got %d", progress.Steps, len(notes))
	}
}

func TestExperimentDeterministicSeed(t *testing.T) {
	a, b := New(smallCloud()), New(smallCloud())
	if err := a.Setup(NewRegistry()); err != nil {
		t.Fatal(err)
	}
	if err := b.Setup(NewRegistry()); err != nil {
		t.Fatal(err)
	}
	xa, xb := a.InitialState(), b.InitialState()
	for i := range xa {
		if xa[i] != xb[i] {
			t.Fatalf("initial states differ at %d", i)
		}
	}
}

func TestExperimentRunTwiceStartsFresh(t *testing.T) {
	cfg := config.GetPreset(config.VariantMagnetic, "quick")
	cfg.Particles.N = 8
	cfg.Time.End = 2
	cfg.Seed = 11

	var notes int
	exp := New(cfg)
	exp.SetReporter(progress.ReporterFunc(func(progress.Notification) { notes++ }))
	if err := exp.Setup(NewRegistry()); err != nil {
		t.Fatal(err)
	}

	first, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if notes != progress.Steps {
		t.Fatalf("first run: %d progress notifications", notes)
	}

	notes = 0
	second, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if notes != progress.Steps {
		t.Errorf("second run: %d progress notifications, want %d", notes, progress.Steps)
	}

	a, b := first.States[len(first.States)-1], second.States[len(second.States)-1]
	if len(first.Times) != len(second.Times) || len(a) != len(b) {
		t.Fatalf("runs took different paths: %d vs %d samples", len(first.Times), len(second.Times))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("final states differ at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestExperimentStickman(t *testing.T) {
	cfg := config.GetPreset(config.VariantStickman, "quick")
	cfg.Time.End = 1
	exp := New(cfg)
	if err := exp.Setup(NewRegistry()); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if exp.Graph() == nil || exp.Graph().Len() != 32 {
		t.Fatal("stickman should carry its 32 links")
	}
	if exp.Suspension().Particles() != config.StickmanParticles {
		t.Errorf("suspension has %d particles", exp.Suspension().Particles())
	}

	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if _, ok := res.Metrics["max_link_strain"]; !ok {
		t.Error("expected a strain metric for the articulated body")
	}
}

func TestExperimentFixedStep(t *testing.T) {
	cfg := smallCloud()
	cfg.Integrator = "rk4"
	cfg.Time.Dt = 0.25
	exp := New(cfg)
	if err := exp.Setup(NewRegistry()); err != nil {
		t.Fatal(err)
	}
	if exp.SolverConfig().Adaptive {
		t.Error("rk4 runs should use the fixed-step path")
	}
	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Times) != 9 {
		t.Errorf("expected 9 samples, got %d", len(res.Times))
	}
}

func TestExperimentInvalidConfig(t *testing.T) {
	cfg := smallCloud()
	cfg.Kernel = config.KernelBrinkmanlet
	cfg.Params.Alpha = 0
	if err := New(cfg).Setup(NewRegistry()); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if _, err := New(cfg).Run(context.Background()); err == nil {
		t.Error("run before setup should fail")
	}
}

func TestRunEnsemble(t *testing.T) {
	seeds := []int64{1, 2, 3}
	results, exps, err := RunEnsemble(context.Background(), smallCloud(), seeds, 2, kitlog.NewNopLogger(), false)
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if len(results) != 3 || len(exps) != 3 {
		t.Fatalf("expected 3 members, got %d/%d", len(results), len(exps))
	}
	for i, exp := range exps {
		if exp.Config().Seed != seeds[i] {
			t.Errorf("member %d ran seed %d", i, exp.Config().Seed)
		}
		if results[i].Times[len(results[i].Times)-1] != 2 {
			t.Errorf("member %d stopped early", i)
		}
	}
	if exps[0].InitialState()[0] == exps[1].InitialState()[0] {
		t.Error("different seeds should place particles differently")
	}
}

func TestRunEnsembleReportsProgressPerMember(t *testing.T) {
	var mu sync.Mutex
	perMember := map[interface{}]int{}
	logger := kitlog.LoggerFunc(func(keyvals ...interface{}) error {
		var member interface{}
		isProgress := false
		for i := 0; i+1 < len(keyvals); i += 2 {
			switch keyvals[i] {
			case "member":
				member = keyvals[i+1]
			case "percent":
				isProgress = true
			}
		}
		if isProgress {
			mu.Lock()
			perMember[member]++
			mu.Unlock()
		}
		return nil
	})

	if _, _, err := RunEnsemble(context.Background(), smallCloud(), []int64{4, 5}, 2, logger, true); err != nil {
		t.Fatal(err)
	}
	for _, idx := range []int{0, 1} {
		if perMember[idx] != progress.Steps {
			t.Errorf("member %d logged %d progress records, want %d", idx, perMember[idx], progress.Steps)
		}
	}
}
