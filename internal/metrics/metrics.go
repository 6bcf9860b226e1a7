package metrics

import "github.com/san-kum/nbodyx/internal/sim"

// Metric accumulates a scalar over the samples of one run.
type Metric interface {
	Name() string
	Observe(s *sim.Simulation)
	Value() float64
	Reset()
}

// Collect returns the current value of each metric keyed by name.
func Collect(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}

// Defaults returns the metrics recorded for every run. particle and primary
// select the orbit tracked by the orbital metrics.
func Defaults(particle, primary int) []Metric {
	return []Metric{
		NewEnergyDrift(),
		NewMassChange(),
		NewSemiMajorChange(particle, primary),
		NewBoundness(particle, primary),
	}
}
