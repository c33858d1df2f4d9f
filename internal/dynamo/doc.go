// Package dynamo provides the integration primitives for particle simulations.
//
// The package defines the fundamental interfaces and types used to drive
// an ordinary differential equation dX/dt = f(X, t) over a time span:
//
//   - [State]: flat vector of all particle coordinates (length 3N)
//   - [System]: the right-hand side f, evaluated an unbounded number of times
//   - [Integrator]: fixed-step numerical stepper
//   - [AdaptiveIntegrator]: embedded-pair stepper with error control
//   - [Simulator]: orchestrates a run and samples the trajectory
//
// # Example
//
//	run := suspension.NewRun(tracker)
//	sim := dynamo.New(run, integrators.NewRK45())
//	result, err := sim.Run(ctx, x0, cfg)
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. A System may carry run-scoped
// state (progress, lagged velocities), so concurrent runs must each own
// their own System value.
package dynamo
