package extras

import (
	"fmt"

	"github.com/san-kum/nbodyx/internal/operator"
	"github.com/san-kum/nbodyx/internal/sim"
)

// Step is one scheduled invocation of an operator. Each call receives
// Fraction times the host timestep.
type Step struct {
	Name     string
	Operator *operator.Operator
	Fraction float64
	Timing   operator.Timing
}

// AddOperator schedules op according to the policy for its symmetry and
// the simulation's current stepping class. Changing the integrator later
// does not move steps that are already scheduled.
func (e *Extras) AddOperator(op *operator.Operator) error {
	if err := e.checkMutable(); err != nil {
		return err
	}
	if op == nil {
		return fmt.Errorf("%w: nil", operator.ErrInvalidOperator)
	}

	pl := e.policy.Lookup(op.Meta.Symmetry, e.sim.Stepping())
	var pending []Step
	if pl.Pre > 0 {
		pending = append(pending, Step{Name: op.Name, Operator: op, Fraction: pl.Pre, Timing: operator.Pre})
	}
	if pl.Post > 0 || len(pending) == 0 {
		pending = append(pending, Step{Name: op.Name, Operator: op, Fraction: pl.Post, Timing: operator.Post})
	}

	for _, st := range pending {
		if e.indexOf(st.Name, st.Timing) >= 0 {
			return fmt.Errorf("%w: %s (%s)", ErrDuplicateStep, st.Name, st.Timing)
		}
	}
	for _, st := range pending {
		e.append(st)
	}
	return nil
}

// AddOperatorStep schedules op once at timing with the given fraction of
// the host timestep. An empty name defaults to the operator name. A zero
// fraction is accepted and never invoked.
func (e *Extras) AddOperatorStep(op *operator.Operator, fraction float64, timing operator.Timing, name string) error {
	if err := e.checkMutable(); err != nil {
		return err
	}
	if op == nil {
		return fmt.Errorf("%w: nil", operator.ErrInvalidOperator)
	}
	if !validFraction(fraction) {
		return fmt.Errorf("%w: %v", ErrInvalidStepFraction, fraction)
	}
	if name == "" {
		name = op.Name
	}
	if e.indexOf(name, timing) >= 0 {
		return fmt.Errorf("%w: %s (%s)", ErrDuplicateStep, name, timing)
	}

	e.append(Step{Name: name, Operator: op, Fraction: fraction, Timing: timing})
	return nil
}

// RemoveOperator removes every step whose step name or operator name is
// name.
func (e *Extras) RemoveOperator(name string) error {
	if err := e.checkMutable(); err != nil {
		return err
	}

	kept := e.steps[:0]
	removed := 0
	for _, st := range e.steps {
		if st.Name == name || st.Operator.Name == name {
			removed++
			continue
		}
		kept = append(kept, st)
	}
	for i := len(kept); i < len(e.steps); i++ {
		e.steps[i] = Step{}
	}
	e.steps = kept

	if removed == 0 {
		return fmt.Errorf("%w: %s", operator.ErrUnknownOperator, name)
	}
	e.logger.Debug().Str("name", name).Int("steps", removed).Msg("operator removed")
	return nil
}

// Steps returns a copy of the schedule in registration order.
func (e *Extras) Steps() []Step {
	out := make([]Step, len(e.steps))
	copy(out, e.steps)
	return out
}

// PreStep runs the pre steps with the timestep about to be taken.
func (e *Extras) PreStep(s *sim.Simulation) error {
	return e.run(operator.Pre, s.Dt)
}

// PostStep runs the post steps with the timestep just taken.
func (e *Extras) PostStep(s *sim.Simulation) error {
	return e.run(operator.Post, s.LastDt())
}

func (e *Extras) run(timing operator.Timing, dt float64) error {
	if e.detached {
		return nil
	}

	// A step may re-enter the host loop; the guard stays up until the
	// outermost run returns.
	prev := e.running
	e.running = true
	defer func() { e.running = prev }()

	for _, st := range e.steps {
		if st.Timing != timing || st.Fraction == 0 {
			continue
		}
		if err := st.Operator.Apply(e, st.Fraction*dt); err != nil {
			e.logger.Error().Err(err).
				Str("step", st.Name).
				Str("timing", timing.String()).
				Float64("t", e.sim.T).
				Msg("operator step failed")
			return &StepError{Step: st.Name, Timing: timing, Time: e.sim.T, Err: err}
		}
	}
	return nil
}

func (e *Extras) append(st Step) {
	e.steps = append(e.steps, st)
	e.logger.Debug().
		Str("step", st.Name).
		Str("operator", st.Operator.Name).
		Str("timing", st.Timing.String()).
		Float64("fraction", st.Fraction).
		Msg("operator step scheduled")
}

func (e *Extras) indexOf(name string, timing operator.Timing) int {
	for i, st := range e.steps {
		if st.Name == name && st.Timing == timing {
			return i
		}
	}
	return -1
}

func (e *Extras) checkMutable() error {
	if e.detached {
		return ErrDetached
	}
	if e.running {
		return ErrConcurrentModification
	}
	return nil
}

var (
	_ sim.StepHook     = (*Extras)(nil)
	_ operator.Context = (*Extras)(nil)
)
