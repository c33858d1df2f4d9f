package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	kitlog "github.com/go-kit/kit/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/brinksim/internal/config"
	"github.com/san-kum/brinksim/internal/dynamo"
	"github.com/san-kum/brinksim/internal/experiment"
	"github.com/san-kum/brinksim/internal/metrics"
	"github.com/san-kum/brinksim/internal/progress"
	"github.com/san-kum/brinksim/internal/storage"
	"github.com/san-kum/brinksim/internal/sweep"
)

var (
	dataDir string
	quiet   bool

	configFile string
	preset     string
	kernel     string
	force      string
	layoutName string
	integrator string
	seed       int64

	numParticles int
	radius       float64
	alpha        float64
	delta        float64
	beta         float64
	springK      float64
	restLength   float64
	clamp        float64

	t0       float64
	t1       float64
	dt       float64
	rtol     float64
	atol     float64
	maxSteps int

	ensemble int
	workers  int

	asJSON  bool
	outFile string

	axes        []string
	planFile    string
	sweepPreset string
	metric      string
	maximize    bool
	saveAll     bool
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242")).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "brinksim",
		Short:         "sedimentation of particle suspensions in Stokes and Brinkman flow",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".brinksim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress and solver logs")

	runCmd := &cobra.Command{
		Use:   "run [variant]",
		Short: "integrate a suspension and save its trajectory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	f := runCmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "default", "preset of the variant to start from")
	f.StringVar(&kernel, "kernel", "", "mobility kernel")
	f.StringVar(&force, "force", "", "force field")
	f.StringVar(&layoutName, "layout", "", "initial layout")
	f.StringVar(&integrator, "integrator", "rk45", "integrator (rk45, rk4, euler)")
	f.Int64Var(&seed, "seed", 0, "random seed (0 picks one from the clock)")
	f.IntVarP(&numParticles, "particles", "n", config.DefaultParticles, "number of particles")
	f.Float64Var(&radius, "radius", config.DefaultRadius, "radius of the initial cloud")
	f.Float64Var(&alpha, "alpha", 0, "Brinkman permeability parameter")
	f.Float64Var(&delta, "delta", 0, "regularization length")
	f.Float64Var(&beta, "beta", 0, "magnetic coupling strength")
	f.Float64Var(&springK, "k", 0, "spring constant")
	f.Float64Var(&restLength, "l", 0, "spring rest length")
	f.Float64Var(&clamp, "clamp", config.DefaultClamp, "magnetic field component bound")
	f.Float64Var(&t0, "t0", 0, "start time")
	f.Float64Var(&t1, "time", config.DefaultEnd, "end time")
	f.Float64Var(&dt, "dt", config.DefaultDt, "timestep for fixed-step integrators")
	f.Float64Var(&rtol, "rtol", config.DefaultRtol, "relative tolerance")
	f.Float64Var(&atol, "atol", config.DefaultAtol, "absolute tolerance")
	f.IntVar(&maxSteps, "max-steps", config.DefaultMaxSteps, "step limit")
	f.IntVar(&ensemble, "ensemble", 1, "number of runs with consecutive seeds")
	f.IntVar(&workers, "workers", 0, "concurrent ensemble members (0 = unbounded)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot centre-of-mass height and cloud radius against time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a run's trajectory to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	compareCmd := &cobra.Command{
		Use:   "compare [variant] [integrator1] [integrator2] ...",
		Short: "compare integrators on the quick preset of a variant",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareIntegrators,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [variant]",
		Short: "run a preset over a grid of parameter values",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	sf := sweepCmd.Flags()
	sf.StringArrayVar(&axes, "param", nil, "swept parameter, name=v1,v2 or name=lo:hi:n (repeatable)")
	sf.StringVar(&planFile, "plan", "", "sweep plan file (yaml)")
	sf.StringVar(&sweepPreset, "preset", "quick", "preset of the variant to start from")
	sf.Int64Var(&seed, "seed", 0, "random seed shared by every point")
	sf.IntVar(&workers, "workers", 0, "concurrent runs (0 = unbounded)")
	sf.StringVar(&metric, "metric", "com_descent", "metric used to rank the points")
	sf.BoolVar(&maximize, "maximize", false, "rank by largest metric instead of smallest")
	sf.BoolVar(&saveAll, "save", false, "save every point's trajectory")

	presetsCmd := &cobra.Command{
		Use:   "presets [variant]",
		Short: "list variants, or the presets of one variant",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, v := range config.ListVariants() {
					fmt.Printf("%s: %s\n", v, strings.Join(config.ListPresets(v), ", "))
				}
				return nil
			}
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for variant: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, showCmd, plotCmd, exportCSVCmd, compareCmd, sweepCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger() kitlog.Logger {
	if quiet {
		return kitlog.NewNopLogger()
	}
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
	return kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)
}

func openStore(ctx context.Context) (*storage.Store, error) {
	st := storage.New(dataDir)
	if err := st.Init(ctx); err != nil {
		return nil, fmt.Errorf("open data directory: %w", err)
	}
	return st, nil
}

// buildConfig layers the variant preset, then the config file, then any
// flags given explicitly on the command line.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	variant := config.VariantStokes
	if len(args) > 0 {
		variant = args[0]
	}

	var cfg *config.Config
	if variant == config.VariantCustom {
		cfg = config.DefaultConfig()
	} else if cfg = config.GetPreset(variant, preset); cfg == nil {
		return nil, fmt.Errorf("unknown preset %s/%s (variants: %v, presets: %v)",
			variant, preset, config.ListVariants(), config.ListPresets(variant))
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	setString := func(name string, dst *string, v string) {
		if changed(name) {
			*dst = v
		}
	}
	setFloat := func(name string, dst *float64, v float64) {
		if changed(name) {
			*dst = v
		}
	}
	setInt := func(name string, dst *int, v int) {
		if changed(name) {
			*dst = v
		}
	}

	setString("kernel", &cfg.Kernel, kernel)
	setString("force", &cfg.Force, force)
	setString("layout", &cfg.Layout, layoutName)
	setString("integrator", &cfg.Integrator, integrator)
	setInt("particles", &cfg.Particles.N, numParticles)
	setFloat("radius", &cfg.Particles.Radius, radius)
	setFloat("alpha", &cfg.Params.Alpha, alpha)
	setFloat("delta", &cfg.Params.Delta, delta)
	setFloat("beta", &cfg.Params.Beta, beta)
	setFloat("k", &cfg.Params.K, springK)
	setFloat("l", &cfg.Params.L, restLength)
	setFloat("clamp", &cfg.Params.Clamp, clamp)
	setFloat("t0", &cfg.Time.Start, t0)
	setFloat("time", &cfg.Time.End, t1)
	setFloat("dt", &cfg.Time.Dt, dt)
	setFloat("rtol", &cfg.Time.Rtol, rtol)
	setFloat("atol", &cfg.Time.Atol, atol)
	setInt("max-steps", &cfg.Time.MaxSteps, maxSteps)

	if changed("seed") {
		cfg.Seed = seed
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if ensemble < 1 {
		return fmt.Errorf("ensemble size must be positive, got %d", ensemble)
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	logger := newLogger()
	start := time.Now()

	if ensemble > 1 {
		seeds := make([]int64, ensemble)
		for i := range seeds {
			seeds[i] = cfg.Seed + int64(i)
		}
		results, exps, err := experiment.RunEnsemble(ctx, cfg, seeds, workers, logger, !quiet)
		if err != nil {
			return err
		}
		fmt.Printf("ensemble of %d completed in %v\n\n", ensemble, time.Since(start).Round(time.Millisecond))
		for i, res := range results {
			rec, err := st.Save(ctx, exps[i].Config(), res)
			if err != nil {
				return err
			}
			fmt.Println(renderSummary(rec))
		}
		return nil
	}

	exp := experiment.New(cfg)
	exp.SetLogger(logger)
	if !quiet {
		exp.SetReporter(progress.NewLogReporter(logger))
	}
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return err
	}

	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	rec, err := st.Save(ctx, exp.Config(), result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed.Round(time.Millisecond))
	fmt.Println(renderSummary(rec))
	fmt.Printf("trajectory: %s\n", st.Path(rec))
	return nil
}

func renderSummary(rec storage.Record) string {
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
	}

	rows := []string{
		titleStyle.Render(rec.Variant + " " + rec.ID),
		row("created", rec.Created.Local().Format("2006-01-02 15:04:05")),
		row("particles", fmt.Sprint(rec.Particles)),
		row("t end", fmt.Sprint(rec.TEnd)),
		row("seed", fmt.Sprint(rec.Seed)),
		row("integrator", rec.Integrator),
		row("samples", fmt.Sprint(rec.Samples)),
		row("steps", fmt.Sprintf("%d (%d rejected)", rec.Steps, rec.Rejected)),
		row("evaluations", fmt.Sprint(rec.Evaluations)),
		row("file", rec.File),
	}

	names := make([]string, 0, len(rec.Metrics))
	for name := range rec.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rows = append(rows, row(name, fmt.Sprintf("%.6g", rec.Metrics[name])))
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func listRuns(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVARIANT\tCREATED\tN\tT\tINTEG\tSTEPS\tFILE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%g\t%s\t%d\t%s\n",
			run.ID,
			run.Variant,
			run.Created.Local().Format("2006-01-02 15:04:05"),
			run.Particles,
			run.TEnd,
			run.Integrator,
			run.Steps,
			run.File,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.Load(ctx, args[0])
	if err != nil {
		return err
	}
	if asJSON {
		return storage.WriteJSON(os.Stdout, rec)
	}
	fmt.Println(renderSummary(rec))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.Load(ctx, args[0])
	if err != nil {
		return err
	}
	times, states, err := st.LoadTrajectory(ctx, rec.ID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	height, spread := seriesOf(states)

	fmt.Printf("run: %s\n", rec.ID)
	fmt.Printf("variant: %s\n", rec.Variant)
	fmt.Printf("samples: %d over [%g, %g]\n\n", len(states), times[0], times[len(times)-1])

	for _, s := range []struct {
		data    []float64
		caption string
	}{
		{height, "centre of mass z vs sample"},
		{spread, "cloud rms radius vs sample"},
	} {
		graph := asciigraph.Plot(s.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func seriesOf(states []dynamo.State) (height, spread []float64) {
	height = make([]float64, len(states))
	spread = make([]float64, len(states))
	for i, x := range states {
		height[i] = metrics.CentreOfMass(x).Z
		spread[i] = metrics.RMSRadius(x)
	}
	return height, spread
}

func exportCSV(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	var w io.Writer = os.Stdout
	if outFile != "" {
		file, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}
	return st.ExportCSV(ctx, args[0], w)
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	variant := args[0]
	cfg := config.GetPreset(variant, "quick")
	if cfg == nil {
		return fmt.Errorf("unknown variant: %s", variant)
	}
	cfg.Seed = 42

	fmt.Printf("comparing integrators on %s/quick (N=%d, T=%g)\n\n", variant, cfg.NumParticles(), cfg.Time.End)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tSTEPS\tREJECTED\tEVALS\tTIME\tCOM DESCENT")

	reg := experiment.NewRegistry()
	for _, name := range args[1:] {
		c := cfg.Clone()
		c.Integrator = name

		exp := experiment.New(c)
		if err := exp.Setup(reg); err != nil {
			return err
		}
		start := time.Now()
		res, err := exp.Run(context.Background())
		if err != nil {
			fmt.Fprintf(w, "%s\tfailed: %v\n", name, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%v\t%.6g\n",
			name, res.StepsTaken, res.Rejected, res.Evaluations,
			time.Since(start).Round(time.Millisecond), res.Metrics["com_descent"])
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var (
		base *config.Config
		grid *sweep.Grid
		err  error
	)
	if planFile != "" {
		plan, err := sweep.LoadPlan(planFile)
		if err != nil {
			return fmt.Errorf("failed to load plan: %w", err)
		}
		if base, err = plan.Base(); err != nil {
			return err
		}
		if grid, err = plan.Grid(); err != nil {
			return err
		}
		if plan.Workers > 0 && !cmd.Flags().Changed("workers") {
			workers = plan.Workers
		}
	} else {
		variant := config.VariantStokes
		if len(args) > 0 {
			variant = args[0]
		}
		if base = config.GetPreset(variant, sweepPreset); base == nil {
			return fmt.Errorf("unknown preset %s/%s", variant, sweepPreset)
		}
		parsed := make([]sweep.Axis, 0, len(axes))
		for _, a := range axes {
			ax, err := sweep.ParseAxis(a)
			if err != nil {
				return err
			}
			parsed = append(parsed, ax)
		}
		if grid, err = sweep.NewGrid(parsed...); err != nil {
			return err
		}
	}
	if grid.Len() == 0 {
		return fmt.Errorf("nothing to sweep; pass --param or --plan")
	}

	if cmd.Flags().Changed("seed") {
		base.Seed = seed
	}
	if base.Seed == 0 {
		base.Seed = time.Now().UnixNano()
	}

	start := time.Now()
	outcomes, err := sweep.Run(ctx, base, grid, workers, newLogger())
	if err != nil {
		return err
	}
	fmt.Printf("%d points completed in %v\n\n", len(outcomes), time.Since(start).Round(time.Millisecond))

	var st *storage.Store
	if saveAll {
		if st, err = openStore(ctx); err != nil {
			return err
		}
		defer st.Close()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "POINT\tSTEPS\tEVALS\t%s\tRUN\n", strings.ToUpper(metric))
	for _, o := range outcomes {
		id := "-"
		if st != nil {
			rec, err := st.Save(ctx, o.Config, o.Result)
			if err != nil {
				return err
			}
			id = rec.ID
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%.6g\t%s\n",
			o.Point, o.Result.StepsTaken, o.Result.Evaluations, o.Result.Metrics[metric], id)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if best, ok := sweep.Best(outcomes, metric, maximize); ok {
		fmt.Printf("\nbest %s: %s (%.6g)\n", metric, best.Point, best.Result.Metrics[metric])
	}
	return nil
}
