package integrators

import "github.com/san-kum/nbodyx/internal/dynamo"

// RK4 is the classic fourth-order Runge-Kutta method.
type RK4 struct {
	scratch rkScratch
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Stepping() dynamo.Stepping { return dynamo.SteppingFixed }

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	r.scratch.evaluate(classicRK4, dyn, x, t, dt)
	return r.scratch.combine(classicRK4.b, x, dt)
}
