package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/san-kum/nbodyx/internal/dynamo"
	"github.com/san-kum/nbodyx/internal/physics"
)

// Simulation is the host N-body engine. It owns the particles, advances
// them with a dynamo.Integrator over the Gravity system and calls a single
// StepHook around each step. It is not safe for concurrent use.
type Simulation struct {
	G  float64
	T  float64
	Dt float64

	Tolerance     float64
	MinDt         float64
	MaxDt         float64
	ExactFinish   bool
	ValidateState bool

	Particles []physics.Particle

	integrator dynamo.Integrator
	gravity    *physics.Gravity
	hook       StepHook
	heartbeat  func(*Simulation)
	logger     zerolog.Logger

	state  dynamo.State
	steps  int
	lastDt float64
}

func New(integrator dynamo.Integrator, opts ...Option) *Simulation {
	s := &Simulation{
		G:             1.0,
		Dt:            0.01,
		MinDt:         1e-12,
		ExactFinish:   true,
		ValidateState: true,
		Particles:     make([]physics.Particle, 0),
		integrator:    integrator,
		gravity:       physics.NewGravity(1.0),
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add appends p and returns its index.
func (s *Simulation) Add(p physics.Particle) int {
	s.Particles = append(s.Particles, p)
	return len(s.Particles) - 1
}

func (s *Simulation) Integrator() dynamo.Integrator { return s.integrator }
func (s *Simulation) Stepping() dynamo.Stepping     { return dynamo.SteppingOf(s.integrator) }
func (s *Simulation) Steps() int                    { return s.steps }
func (s *Simulation) LastDt() float64               { return s.lastDt }

func (s *Simulation) SetIntegrator(integrator dynamo.Integrator) {
	s.integrator = integrator
}

// SetStepHook installs h. It fails with ErrHookInUse when a hook is already
// installed.
func (s *Simulation) SetStepHook(h StepHook) error {
	if s.hook != nil {
		return ErrHookInUse
	}
	s.hook = h
	return nil
}

func (s *Simulation) ClearStepHook() { s.hook = nil }

// SetHeartbeat registers fn to run after every completed step.
func (s *Simulation) SetHeartbeat(fn func(*Simulation)) { s.heartbeat = fn }

// Step advances the simulation by one integrator step, running the step
// hook before and after it.
func (s *Simulation) Step() error {
	if s.Dt == 0 {
		return s.wrap(dynamo.ErrZeroStep)
	}

	if s.hook != nil {
		if err := s.hook.PreStep(s); err != nil {
			return s.wrap(err)
		}
	}

	dt := s.Dt
	nextDt := dt
	s.gravity.G = s.G
	s.state = s.gravity.Pack(s.Particles, s.state)

	var next dynamo.State
	if adaptive, ok := s.integrator.(dynamo.AdaptiveIntegrator); ok && s.Tolerance > 0 {
		x, proposed, err := adaptive.StepAdaptive(s.gravity, s.state, s.T, dt, s.Tolerance)
		if err != nil {
			return s.wrap(err)
		}
		next, nextDt = x, s.clampDt(proposed)
		if math.Abs(nextDt) < s.MinDt {
			return s.wrap(dynamo.ErrStepTooSmall)
		}
	} else {
		next = s.integrator.Step(s.gravity, s.state, s.T, dt)
	}

	if s.ValidateState && !next.IsValid() {
		return s.wrap(dynamo.ErrInvalidState)
	}

	s.gravity.Unpack(next, s.Particles)
	s.T += dt
	s.lastDt = dt
	s.steps++

	if s.hook != nil {
		if err := s.hook.PostStep(s); err != nil {
			return s.wrap(err)
		}
	}

	s.Dt = nextDt
	if s.heartbeat != nil {
		s.heartbeat(s)
	}
	return nil
}

// Integrate steps until T reaches tmax. The sign of Dt is flipped when tmax
// lies in the past. With ExactFinish the last step is shortened to land on
// tmax. The first step error halts integration.
func (s *Simulation) Integrate(ctx context.Context, tmax float64) error {
	if s.Dt == 0 {
		return s.wrap(dynamo.ErrZeroStep)
	}
	if (tmax-s.T)*s.Dt < 0 {
		s.Dt = -s.Dt
	}

	s.logger.Debug().
		Float64("t", s.T).
		Float64("tmax", tmax).
		Float64("dt", s.Dt).
		Str("stepping", s.Stepping().String()).
		Msg("integrate")

	for {
		remaining := tmax - s.T
		if math.Abs(remaining) <= finishTolerance*math.Abs(s.Dt) || remaining*s.Dt < 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if s.ExactFinish && math.Abs(remaining) < math.Abs(s.Dt) {
			saved := s.Dt
			s.Dt = remaining
			err := s.Step()
			s.Dt = saved
			return err
		}

		if err := s.Step(); err != nil {
			return err
		}
	}
}

// OutputCheck reports whether the last step crossed a multiple of interval.
// It is true before the first step.
func (s *Simulation) OutputCheck(interval float64) bool {
	if interval <= 0 {
		return false
	}
	if s.steps == 0 {
		return true
	}
	prev := s.T - s.lastDt
	return math.Floor(prev/interval) != math.Floor(s.T/interval)
}

// MoveToCOM shifts positions and velocities into the center-of-mass frame.
func (s *Simulation) MoveToCOM() {
	total := s.TotalMass()
	if total == 0 {
		return
	}

	var pos, vel physics.Vec3
	for _, p := range s.Particles {
		pos = pos.Add(p.Pos().Scale(p.M))
		vel = vel.Add(p.Vel().Scale(p.M))
	}
	pos = pos.Scale(1 / total)
	vel = vel.Scale(1 / total)

	for i := range s.Particles {
		p := &s.Particles[i]
		p.X -= pos[0]
		p.Y -= pos[1]
		p.Z -= pos[2]
		p.VX -= vel[0]
		p.VY -= vel[1]
		p.VZ -= vel[2]
	}
}

func (s *Simulation) TotalMass() float64 {
	total := 0.0
	for _, p := range s.Particles {
		total += p.M
	}
	return total
}

// Energy returns the total mechanical energy with the current masses.
func (s *Simulation) Energy() float64 {
	s.gravity.G = s.G
	s.state = s.gravity.Pack(s.Particles, s.state)
	return s.gravity.Energy(s.state)
}

// Orbit returns the osculating elements of particle i about primary.
func (s *Simulation) Orbit(i, primary int) (physics.Orbit, error) {
	if i < 0 || i >= len(s.Particles) || primary < 0 || primary >= len(s.Particles) {
		return physics.Orbit{}, fmt.Errorf("%w: %d/%d", ErrParticleIndex, i, primary)
	}
	return physics.ToOrbit(s.G, s.Particles[i], s.Particles[primary])
}

func (s *Simulation) clampDt(dt float64) float64 {
	if s.MaxDt > 0 && math.Abs(dt) > s.MaxDt {
		return math.Copysign(s.MaxDt, dt)
	}
	return dt
}

func (s *Simulation) wrap(err error) error {
	return &dynamo.SimulationError{Step: s.steps, Time: s.T, Wrapped: err}
}
