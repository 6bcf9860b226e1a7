package sim

import (
	"errors"

	"github.com/rs/zerolog"
)

var (
	// ErrHookInUse indicates a second step hook on a simulation that already
	// has one. A simulation carries at most one extension context.
	ErrHookInUse = errors.New("sim: step hook already installed")

	// ErrParticleIndex indicates a particle index outside the simulation.
	ErrParticleIndex = errors.New("sim: particle index out of range")
)

// finishTolerance is the fraction of |dt| below which Integrate treats the
// target time as reached.
const finishTolerance = 1e-9

// StepHook is invoked around every integrator step. PreStep runs before the
// particles are advanced and sees Dt as the step about to be taken; PostStep
// runs after time has advanced and sees Dt as the step just taken.
type StepHook interface {
	PreStep(s *Simulation) error
	PostStep(s *Simulation) error
}

type Option func(*Simulation)

func WithG(g float64) Option {
	return func(s *Simulation) { s.G = g }
}

func WithDt(dt float64) Option {
	return func(s *Simulation) { s.Dt = dt }
}

func WithSoftening(eps float64) Option {
	return func(s *Simulation) { s.gravity.Softening = eps }
}

// WithTolerance enables error-controlled stepping for adaptive integrators.
func WithTolerance(tol, minDt, maxDt float64) Option {
	return func(s *Simulation) {
		s.Tolerance = tol
		s.MinDt = minDt
		s.MaxDt = maxDt
	}
}

func WithExactFinish(exact bool) Option {
	return func(s *Simulation) { s.ExactFinish = exact }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Simulation) { s.logger = logger }
}
