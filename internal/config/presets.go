package config

import (
	"math"
	"sort"
)

// Units of AU, years and solar masses.
var gAstro = 4 * math.Pi * math.Pi

var Presets = map[string]*Config{
	"kepler": {
		Name: "kepler", Integrator: "leapfrog", G: 1, Dt: 0.01, Duration: 20,
		Heartbeats: 10,
		OrbitLog:   OrbitLogConfig{Particle: 1, Primary: 0, Interval: 1},
		Particles: []ParticleConfig{
			{M: 1},
			{M: 1e-3, Orbit: &OrbitConfig{A: 1, E: 0.1}},
		},
	},
	"mass_loss_test": {
		Name: "mass_loss_test", Integrator: "leapfrog", G: 1, Dt: 0.1, Duration: 10000,
		MoveToCOM:  true,
		Heartbeats: 10,
		OrbitLog:   OrbitLogConfig{Particle: 1, Primary: 0, Interval: 1000},
		Particles: []ParticleConfig{
			{M: 1, Params: map[string]float64{"mass_loss_rate": 1e-5, "mass_floor": 0.01}},
			{M: 0, X: 1, VY: 1},
		},
		Operators: []OperatorConfig{{Name: "mass_loss_test"}},
	},
	"modify_mass": {
		Name: "modify_mass", Integrator: "leapfrog", G: gAstro, Dt: 1.0 / 20.0, Duration: 4e4,
		MoveToCOM:  true,
		Heartbeats: 100,
		OrbitLog:   OrbitLogConfig{Particle: 1, Primary: 0, Interval: 1000},
		Particles: []ParticleConfig{
			{M: 1, Params: map[string]float64{"tau_mass": -4e6}},
			{M: 1e-3, X: 1, VY: 2 * math.Pi},
			{M: 1e-3, X: 2, VY: 2 * math.Pi / math.Sqrt2},
			{M: 1e-3, X: 4, VY: math.Pi},
		},
		Operators: []OperatorConfig{{Name: "modify_mass"}},
	},
	"planet_growth": {
		Name: "planet_growth", Integrator: "rk4", G: gAstro, Dt: 1.0 / 20.0, Duration: 1e4,
		MoveToCOM:  true,
		Heartbeats: 100,
		OrbitLog:   OrbitLogConfig{Particle: 1, Primary: 0, Interval: 100},
		Particles: []ParticleConfig{
			{M: 1},
			// tau_mass = m/Mdot approximates linear growth at Mdot = 1e-12 Msun/yr.
			{M: 1e-3, X: 1, VY: 2 * math.Pi, Params: map[string]float64{"tau_mass": 1e-3 / 1e-12}},
			{M: 1e-3, X: 2, VY: 2 * math.Pi / math.Sqrt2},
		},
		Operators: []OperatorConfig{{Name: "modify_mass"}},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
