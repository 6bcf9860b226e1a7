package integrators

import "github.com/san-kum/nbodyx/internal/dynamo"

// tableau is an explicit Runge-Kutta method in Butcher form. e holds the
// difference between the solution weights and the embedded lower-order
// weights; it is nil for methods without an error estimate.
type tableau struct {
	c []float64
	a [][]float64
	b []float64
	e []float64
}

func (tb *tableau) stages() int { return len(tb.c) }

var classicRK4 = &tableau{
	c: []float64{0, 0.5, 0.5, 1},
	a: [][]float64{
		nil,
		{0.5},
		{0, 0.5},
		{0, 0, 1},
	},
	b: []float64{1.0 / 6.0, 1.0 / 3.0, 1.0 / 3.0, 1.0 / 6.0},
}

// dormandPrince is the 5(4) pair. The seventh stage is evaluated at the
// fifth-order solution and only feeds the error estimate.
var dormandPrince = &tableau{
	c: []float64{0, 1.0 / 5.0, 3.0 / 10.0, 4.0 / 5.0, 8.0 / 9.0, 1, 1},
	a: [][]float64{
		nil,
		{1.0 / 5.0},
		{3.0 / 40.0, 9.0 / 40.0},
		{44.0 / 45.0, -56.0 / 15.0, 32.0 / 9.0},
		{19372.0 / 6561.0, -25360.0 / 2187.0, 64448.0 / 6561.0, -212.0 / 729.0},
		{9017.0 / 3168.0, -355.0 / 33.0, 46732.0 / 5247.0, 49.0 / 176.0, -5103.0 / 18656.0},
		{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0},
	},
	b: []float64{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0, 0},
	e: []float64{
		35.0/384.0 - 5179.0/57600.0,
		0,
		500.0/1113.0 - 7571.0/16695.0,
		125.0/192.0 - 393.0/640.0,
		-2187.0/6784.0 + 92097.0/339200.0,
		11.0/84.0 - 187.0/2100.0,
		-1.0 / 40.0,
	},
}

// rkScratch holds stage derivatives between steps so a long run does not
// allocate per stage.
type rkScratch struct {
	k   []dynamo.State
	tmp dynamo.State
}

func (s *rkScratch) ensure(stages, n int) {
	if len(s.k) == stages && len(s.tmp) == n {
		return
	}
	s.k = make([]dynamo.State, stages)
	for i := range s.k {
		s.k[i] = make(dynamo.State, n)
	}
	s.tmp = make(dynamo.State, n)
}

// evaluate fills k with the stage derivatives of tb at (x, t).
func (s *rkScratch) evaluate(tb *tableau, dyn dynamo.System, x dynamo.State, t, dt float64) {
	s.ensure(tb.stages(), len(x))

	for i, ci := range tb.c {
		copy(s.tmp, x)
		for j, aij := range tb.a[i] {
			if aij == 0 {
				continue
			}
			kj := s.k[j]
			for m := range s.tmp {
				s.tmp[m] += dt * aij * kj[m]
			}
		}
		copy(s.k[i], dyn.Derive(s.tmp, t+ci*dt))
	}
}

// combine returns x + dt * sum(w[i] * k[i]).
func (s *rkScratch) combine(w []float64, x dynamo.State, dt float64) dynamo.State {
	out := x.Clone()
	for i, wi := range w {
		if wi == 0 {
			continue
		}
		ki := s.k[i]
		for m := range out {
			out[m] += dt * wi * ki[m]
		}
	}
	return out
}
