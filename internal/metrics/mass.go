package metrics

import "github.com/san-kum/nbodyx/internal/sim"

// MassChange is the relative change of the total mass since the first
// sample.
type MassChange struct {
	name    string
	initial float64
	current float64
	samples int
}

func NewMassChange() *MassChange {
	return &MassChange{name: "mass_change"}
}

func (m *MassChange) Name() string { return m.name }

func (m *MassChange) Observe(s *sim.Simulation) {
	total := s.TotalMass()
	if m.samples == 0 {
		m.initial = total
	}
	m.current = total
	m.samples++
}

func (m *MassChange) Value() float64 {
	if m.samples == 0 || m.initial == 0 {
		return 0
	}
	return (m.current - m.initial) / m.initial
}

func (m *MassChange) Reset() {
	m.initial = 0
	m.current = 0
	m.samples = 0
}
