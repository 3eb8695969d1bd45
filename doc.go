// Package orrery is a deterministic gravitational N-body simulation engine.
//
// It advances a closed set of point-like celestial bodies under mutual
// Newtonian gravity in SI units, producing reproducible trajectories that
// can be checkpointed, replayed, and streamed to a renderer. The package
// covers the physics engine proper: body data model and derived physical
// quantities, direct and Barnes-Hut gravity kernels, a symplectic
// velocity-Verlet integrator with an opt-in close-encounter switcher,
// inelastic-collision resolution, a deterministic PRNG, and versioned
// snapshot serialization.
//
// Presets, scenario authoring, rendering, and any host binding surface are
// external collaborators; see cmd/orrery-demo for an example host.
package orrery
