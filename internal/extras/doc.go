// Package extras attaches operator-splitting extensions to a host
// simulation.
//
// An Extras value owns a parameter store, a schedule of operator steps and
// a placement policy. It installs itself as the simulation's step hook and
// runs each scheduled step before or after the integrator step with a
// fraction of the host timestep:
//
//	ex, err := extras.Attach(s)
//	op, _ := ex.LoadOperator("modify_mass")
//	_ = ex.AddOperator(op)
//	_ = ex.SetParamFloat64(params.Particle(1), "tau_mass", -1000)
//	err = s.Integrate(ctx, 100)
//
// Symmetric operators are split into two half steps around symplectic and
// fixed-step integrators so the combined step stays time reversible.
package extras
