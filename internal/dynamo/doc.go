// Package dynamo provides core simulation primitives for N-body dynamics.
//
// The package defines the fundamental interfaces and types shared by the
// host simulation and its integrators:
//
//   - [State]: flat vector holding positions followed by velocities
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator]: numerical stepper interface
//   - [Stepping]: stepping class of an integrator (symplectic, fixed, adaptive)
//
// # Example
//
//	grav := physics.NewGravity(1.0)
//	integ := integrators.NewLeapfrog()
//	x = integ.Step(grav, x, t, dt)
//
// # Thread Safety
//
// Integrators keep scratch buffers and are NOT thread-safe. Use one
// integrator per simulation.
package dynamo
