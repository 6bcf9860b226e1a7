package metrics

import (
	"github.com/san-kum/nbodyx/internal/sim"
)

// SemiMajorChange is the ratio of the tracked orbit's latest semi-major
// axis to its first. Under slow isotropic mass loss it tracks M0/M.
type SemiMajorChange struct {
	name     string
	particle int
	primary  int
	initial  float64
	current  float64
	samples  int
}

func NewSemiMajorChange(particle, primary int) *SemiMajorChange {
	return &SemiMajorChange{
		name:     "semi_major_ratio",
		particle: particle,
		primary:  primary,
	}
}

func (m *SemiMajorChange) Name() string { return m.name }

func (m *SemiMajorChange) Observe(s *sim.Simulation) {
	o, err := s.Orbit(m.particle, m.primary)
	if err != nil || !o.Bound {
		return
	}
	if m.samples == 0 {
		m.initial = o.A
	}
	m.current = o.A
	m.samples++
}

func (m *SemiMajorChange) Value() float64 {
	if m.samples == 0 || m.initial == 0 {
		return 1.0
	}
	return m.current / m.initial
}

func (m *SemiMajorChange) Reset() {
	m.initial = 0
	m.current = 0
	m.samples = 0
}

// Boundness is the fraction of samples in which the tracked particle was on
// a bound orbit about its primary.
type Boundness struct {
	name       string
	particle   int
	primary    int
	violations int
	samples    int
}

func NewBoundness(particle, primary int) *Boundness {
	return &Boundness{
		name:     "boundness",
		particle: particle,
		primary:  primary,
	}
}

func (b *Boundness) Name() string {
	return b.name
}

func (b *Boundness) Observe(s *sim.Simulation) {
	b.samples++
	o, err := s.Orbit(b.particle, b.primary)
	if err != nil || !o.Bound {
		b.violations++
	}
}

func (b *Boundness) Value() float64 {
	if b.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(b.violations)/float64(b.samples)
}

func (b *Boundness) Reset() {
	b.violations = 0
	b.samples = 0
}
