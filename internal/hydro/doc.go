// Package hydro evaluates the hydrodynamic interaction between point forces.
//
// A [Kernel] supplies the two radial coefficients of the Oseen-like tensor
//
//	G(r) = H1(r)·I + H2(r)·(r ⊗ r)
//
// in four flavours:
//
//   - [Stokeslet]: free-space Stokes flow, H1 = 1/(8πr), H2 = 1/(8πr³)
//   - [Brinkmanlet]: porous medium with permeability α, exponential decay
//   - [RegularizedStokeslet]: Stokeslet smoothed over a blob of width δ
//   - [RegularizedBrinkmanlet]: Brinkmanlet smoothed over a blob of width δ
//
// [Assemble] builds the 3N×3N mobility from particle positions and
// [Contract] maps per-particle forces to per-particle velocities.
//
// Separations at or below [MinSeparation] evaluate to zero, so a particle is
// never advected by its own force and coincident points contribute nothing.
package hydro
