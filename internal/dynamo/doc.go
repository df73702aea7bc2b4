// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental interfaces and types for numerical
// simulation of ordinary differential equations (ODEs):
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical integrator interface
//   - [Hamiltonian]: optional energy accounting
//
// The chassis rigid body implements [System] with a six-element state
// (heave, roll, pitch and their rates) and a four-element control vector
// (corner cylinder forces). Integrators in internal/integrators operate
// on these interfaces without knowing the domain.
//
// # Thread Safety
//
// Nothing in this package is safe for concurrent mutation. All physics
// state is owned by a single worker goroutine; the only cross-thread
// artifact is the immutable snapshot published by internal/worker.
package dynamo
