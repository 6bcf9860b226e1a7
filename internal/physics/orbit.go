package physics

import (
	"errors"
	"math"
)

var (
	ErrNoMass          = errors.New("physics: orbit requires a positive gravitational parameter")
	ErrDegenerateOrbit = errors.New("physics: degenerate orbit (zero separation or radial motion)")
	ErrInvalidElements = errors.New("physics: invalid orbital elements")
)

// angleTol is the threshold below which eccentricity or node vectors are
// treated as zero.
const angleTol = 1e-12

// Orbit holds osculating Keplerian elements of a body relative to a primary.
// Angles are in radians, normalized to [0, 2π).
type Orbit struct {
	A     float64 // semimajor axis (negative for hyperbolic orbits)
	E     float64 // eccentricity
	Inc   float64 // inclination
	Node  float64 // longitude of ascending node
	Peri  float64 // argument of periapsis
	F     float64 // true anomaly
	Bound bool
}

// ToOrbit computes the osculating elements of p about primary.
func ToOrbit(g float64, p, primary Particle) (Orbit, error) {
	mu := g * (p.M + primary.M)
	if mu <= 0 {
		return Orbit{}, ErrNoMass
	}

	r := p.Pos().Sub(primary.Pos())
	v := p.Vel().Sub(primary.Vel())
	rmag := r.Norm()
	h := r.Cross(v)
	hmag := h.Norm()
	if rmag == 0 || hmag == 0 {
		return Orbit{}, ErrDegenerateOrbit
	}

	v2 := v.Dot(v)
	energy := 2/rmag - v2/mu

	ev := v.Cross(h).Scale(1 / mu).Sub(r.Scale(1 / rmag))
	e := ev.Norm()

	o := Orbit{
		E:     e,
		Inc:   math.Acos(clamp(h[2]/hmag, -1, 1)),
		Bound: energy > 0,
	}
	if energy != 0 {
		o.A = 1 / energy
	} else {
		o.A = math.Inf(1)
	}

	node := Vec3{-h[1], h[0], 0}
	nmag := node.Norm()
	if nmag > angleTol*hmag {
		node = node.Scale(1 / nmag)
		o.Node = normalizeAngle(math.Atan2(node[1], node[0]))
	} else {
		node = Vec3{1, 0, 0}
	}

	if e > angleTol {
		o.Peri = angleInPlane(node, ev, h)
		o.F = angleInPlane(ev, r, h)
	} else {
		o.F = angleInPlane(node, r, h)
	}

	return o, nil
}

// FromOrbit returns a particle of mass m orbiting primary with the given
// elements.
func FromOrbit(g float64, primary Particle, m float64, o Orbit) (Particle, error) {
	mu := g * (primary.M + m)
	if mu <= 0 {
		return Particle{}, ErrNoMass
	}
	if o.E < 0 || (o.E < 1 && o.A <= 0) || (o.E > 1 && o.A >= 0) || o.E == 1 {
		return Particle{}, ErrInvalidElements
	}

	semiLatus := o.A * (1 - o.E*o.E)
	denom := 1 + o.E*math.Cos(o.F)
	if denom <= 0 {
		return Particle{}, ErrInvalidElements
	}
	r := semiLatus / denom
	v0 := math.Sqrt(mu / semiLatus)

	cO, sO := math.Cos(o.Node), math.Sin(o.Node)
	co, so := math.Cos(o.Peri), math.Sin(o.Peri)
	ci, si := math.Cos(o.Inc), math.Sin(o.Inc)
	cof, sof := math.Cos(o.Peri+o.F), math.Sin(o.Peri+o.F)

	p := Particle{M: m}
	p.X = primary.X + r*(cO*cof-sO*sof*ci)
	p.Y = primary.Y + r*(sO*cof+cO*sof*ci)
	p.Z = primary.Z + r*sof*si

	p.VX = primary.VX + v0*(-cO*(sof+o.E*so)-sO*(cof+o.E*co)*ci)
	p.VY = primary.VY + v0*(-sO*(sof+o.E*so)+cO*(cof+o.E*co)*ci)
	p.VZ = primary.VZ + v0*((cof+o.E*co)*si)

	return p, nil
}

// angleInPlane is the angle from ref to vec measured counterclockwise
// about axis.
func angleInPlane(ref, vec, axis Vec3) float64 {
	n := axis.Scale(1 / axis.Norm())
	y := ref.Cross(vec).Dot(n)
	x := ref.Dot(vec)
	return normalizeAngle(math.Atan2(y, x))
}

func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
