// Package physics composes kernels and force fields into the right-hand side
// of the particle ODE.
//
// A [Suspension] is the immutable model: particle count, hydrodynamic kernel
// and force field. Each integration owns a [Run] created by
// [Suspension.NewRun]; the run carries everything that changes while the
// solver calls back into the model:
//
//   - the progress tracker
//   - the velocity estimate of the previous evaluation (read by lagged
//     fields such as [forces.Magnetic])
//   - the evaluation count
//
// [Run] implements [dynamo.System]:
//
//	run := susp.NewRun(progress.NewTracker(0, 500, reporter))
//	res, err := dynamo.New(run, integrators.NewRK45()).Run(ctx, x0, cfg)
//
// # Thread Safety
//
// A Suspension may be shared by any number of goroutines. A Run may not;
// concurrent integrations each take their own Run.
package physics
