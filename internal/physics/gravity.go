package physics

import (
	"math"

	"github.com/san-kum/nbodyx/internal/dynamo"
)

// parallelThreshold is the body count above which force evaluation is
// split across goroutines.
const parallelThreshold = 64

// Gravity is the Newtonian N-body system in three dimensions. The state is
// laid out as [x0 y0 z0 x1 ... | vx0 vy0 vz0 vx1 ...] so that the
// symplectic integrators can split positions from velocities.
//
// Masses are read from Masses on every Derive call; callers that change
// particle masses between steps must refresh the slice.
type Gravity struct {
	G         float64
	Softening float64
	Masses    []float64
}

func NewGravity(g float64) *Gravity {
	return &Gravity{G: g}
}

func (gr *Gravity) NumBodies() int { return len(gr.Masses) }
func (gr *Gravity) StateDim() int  { return 6 * len(gr.Masses) }

func (gr *Gravity) Derive(x dynamo.State, t float64) dynamo.State {
	n := len(gr.Masses)
	off := 3 * n
	dx := make(dynamo.State, len(x))
	copy(dx[:off], x[off:])

	acc := dx[off:]
	dynamo.ParallelFor(n, parallelThreshold, func(start, end int) {
		gr.accelerations(x, acc, start, end)
	})

	return dx
}

// accelerations fills acc for bodies in [start, end). Each body sums over
// every other body so chunks never write to shared entries.
func (gr *Gravity) accelerations(x, acc dynamo.State, start, end int) {
	n := len(gr.Masses)
	eps2 := gr.Softening * gr.Softening

	for i := start; i < end; i++ {
		xi, yi, zi := x[3*i], x[3*i+1], x[3*i+2]
		var ax, ay, az float64

		for j := 0; j < n; j++ {
			if i == j || gr.Masses[j] == 0 {
				continue
			}
			rx := x[3*j] - xi
			ry := x[3*j+1] - yi
			rz := x[3*j+2] - zi
			r2 := rx*rx + ry*ry + rz*rz + eps2
			if r2 == 0 {
				continue
			}

			rInv := 1.0 / math.Sqrt(r2)
			f := gr.G * gr.Masses[j] * rInv * rInv * rInv
			ax += f * rx
			ay += f * ry
			az += f * rz
		}

		acc[3*i] = ax
		acc[3*i+1] = ay
		acc[3*i+2] = az
	}
}

func (gr *Gravity) Energy(x dynamo.State) float64 {
	n := len(gr.Masses)
	off := 3 * n
	ke, pe := 0.0, 0.0
	eps2 := gr.Softening * gr.Softening

	for i := 0; i < n; i++ {
		vx, vy, vz := x[off+3*i], x[off+3*i+1], x[off+3*i+2]
		ke += 0.5 * gr.Masses[i] * (vx*vx + vy*vy + vz*vz)

		for j := i + 1; j < n; j++ {
			rx := x[3*j] - x[3*i]
			ry := x[3*j+1] - x[3*i+1]
			rz := x[3*j+2] - x[3*i+2]
			r := math.Sqrt(rx*rx + ry*ry + rz*rz + eps2)
			if r > 0 {
				pe -= gr.G * gr.Masses[i] * gr.Masses[j] / r
			}
		}
	}

	return ke + pe
}

func (gr *Gravity) Momentum(x dynamo.State) Vec3 {
	off := 3 * len(gr.Masses)
	var p Vec3
	for i, m := range gr.Masses {
		p[0] += m * x[off+3*i]
		p[1] += m * x[off+3*i+1]
		p[2] += m * x[off+3*i+2]
	}
	return p
}

// Pack writes particles into x using the Gravity layout and refreshes the
// mass slice. x is reallocated when its length does not match.
func (gr *Gravity) Pack(ps []Particle, x dynamo.State) dynamo.State {
	n := len(ps)
	if cap(gr.Masses) < n {
		gr.Masses = make([]float64, n)
	}
	gr.Masses = gr.Masses[:n]
	if len(x) != 6*n {
		x = make(dynamo.State, 6*n)
	}

	off := 3 * n
	for i, p := range ps {
		gr.Masses[i] = p.M
		x[3*i], x[3*i+1], x[3*i+2] = p.X, p.Y, p.Z
		x[off+3*i], x[off+3*i+1], x[off+3*i+2] = p.VX, p.VY, p.VZ
	}
	return x
}

// Unpack copies positions and velocities from x back into ps. Masses are
// left alone.
func (gr *Gravity) Unpack(x dynamo.State, ps []Particle) {
	off := 3 * len(ps)
	for i := range ps {
		p := &ps[i]
		p.X, p.Y, p.Z = x[3*i], x[3*i+1], x[3*i+2]
		p.VX, p.VY, p.VZ = x[off+3*i], x[off+3*i+1], x[off+3*i+2]
	}
}
