package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is a first-order ODE over a flat state. Second-order systems
// store positions in the first half of the state and velocities in the
// second half.
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

type Hamiltonian interface {
	Energy(x State) float64
}

type Integrator interface {
	Step(dyn System, x State, t, dt float64) State
}

type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, t, dt, tol float64) (State, float64, error)
}

// Stepping classifies how an integrator advances time. Operator placement
// depends on it: adaptive schemes have no fixed synchronization points
// inside a step, symplectic schemes must stay time-symmetric.
type Stepping int

const (
	SteppingSymplectic Stepping = iota
	SteppingFixed
	SteppingAdaptive
)

func (s Stepping) String() string {
	switch s {
	case SteppingSymplectic:
		return "symplectic"
	case SteppingFixed:
		return "fixed"
	case SteppingAdaptive:
		return "adaptive"
	default:
		return "unknown"
	}
}

// Classified is implemented by integrators that report their stepping class.
type Classified interface {
	Stepping() Stepping
}

// SteppingOf returns the stepping class of integ, defaulting to SteppingFixed.
func SteppingOf(integ Integrator) Stepping {
	if c, ok := integ.(Classified); ok {
		return c.Stepping()
	}
	if _, ok := integ.(AdaptiveIntegrator); ok {
		return SteppingAdaptive
	}
	return SteppingFixed
}
