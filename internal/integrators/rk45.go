package integrators

import (
	"math"

	"github.com/san-kum/nbodyx/internal/dynamo"
)

// RK45 is the Dormand-Prince embedded pair with step size control.
type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
	scratch  rkScratch
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) Stepping() dynamo.Stepping { return dynamo.SteppingAdaptive }

// Step takes one step of exactly dt, ignoring the error estimate.
func (r *RK45) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	newX, _, _ := r.StepAdaptive(dyn, x, t, dt, 1e-6)
	return newX
}

// StepAdaptive takes one step of dt and proposes the next step size from
// the embedded error estimate. The proposal keeps the sign of dt.
func (r *RK45) StepAdaptive(dyn dynamo.System, x dynamo.State, t, dt, tol float64) (dynamo.State, float64, error) {
	tb := dormandPrince
	r.scratch.evaluate(tb, dyn, x, t, dt)

	xNew := r.scratch.combine(tb.b, x, dt)
	if !xNew.IsValid() {
		return x, dt, dynamo.ErrInvalidState
	}

	k1 := r.scratch.k[0]
	errMax := 0.0
	for m := range x {
		est := 0.0
		for i, ei := range tb.e {
			est += ei * r.scratch.k[i][m]
		}
		scale := math.Abs(x[m]) + math.Abs(dt*k1[m]) + 1e-10
		errMax = math.Max(errMax, math.Abs(dt*est)/scale)
	}

	return xNew, dt * r.scale(errMax/tol), nil
}

func (r *RK45) scale(errRatio float64) float64 {
	switch {
	case errRatio > 1:
		return math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
	case errRatio > 0:
		return math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
	default:
		return r.maxScale
	}
}
