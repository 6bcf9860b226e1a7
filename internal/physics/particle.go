package physics

import "math"

// Particle is a point mass in three dimensions.
type Particle struct {
	M          float64
	X, Y, Z    float64
	VX, VY, VZ float64
}

func (p Particle) Pos() Vec3 { return Vec3{p.X, p.Y, p.Z} }
func (p Particle) Vel() Vec3 { return Vec3{p.VX, p.VY, p.VZ} }

// IsValid reports whether every field is finite.
func (p Particle) IsValid() bool {
	for _, v := range [...]float64{p.M, p.X, p.Y, p.Z, p.VX, p.VY, p.VZ} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Vec3 [3]float64

func (a Vec3) Add(b Vec3) Vec3      { return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func (a Vec3) Sub(b Vec3) Vec3      { return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func (a Vec3) Scale(f float64) Vec3 { return Vec3{a[0] * f, a[1] * f, a[2] * f} }
func (a Vec3) Dot(b Vec3) float64   { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
func (a Vec3) Norm() float64        { return math.Sqrt(a.Dot(a)) }
func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
