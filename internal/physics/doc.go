// Package physics provides the gravitational N-body model used by the host
// simulation.
//
//   - [Particle]: point mass with position and velocity
//   - [Gravity]: Newtonian N-body system implementing [dynamo.System]
//   - [ToOrbit], [FromOrbit]: conversion between Cartesian state and
//     osculating Keplerian elements
//
// [Gravity] also implements [dynamo.Hamiltonian], so energy drift can be
// monitored while operators change masses:
//
//	grav := physics.NewGravity(4 * math.Pi * math.Pi)
//	x := grav.Pack(particles, nil)
//	energy := grav.Energy(x)
package physics
