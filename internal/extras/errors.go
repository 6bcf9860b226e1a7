package extras

import (
	"errors"
	"fmt"

	"github.com/san-kum/nbodyx/internal/operator"
)

var (
	// ErrInvalidStepFraction indicates a negative or non-finite step fraction.
	ErrInvalidStepFraction = errors.New("extras: invalid step fraction")

	// ErrConcurrentModification indicates a schedule change while steps are
	// being executed.
	ErrConcurrentModification = errors.New("extras: schedule modified during execution")

	// ErrDuplicateStep indicates a step name already scheduled at the same timing.
	ErrDuplicateStep = errors.New("extras: duplicate step")

	// ErrDetached indicates use of a context after Detach.
	ErrDetached = errors.New("extras: context detached")

	// ErrNilSimulation indicates Attach was called without a simulation.
	ErrNilSimulation = errors.New("extras: nil simulation")
)

// StepError reports the scheduled step that failed and the simulation time
// at which it ran.
type StepError struct {
	Step   string
	Timing operator.Timing
	Time   float64
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("extras: %s step %q at t=%g: %v", e.Timing, e.Step, e.Time, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
