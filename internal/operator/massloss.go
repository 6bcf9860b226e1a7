package operator

import (
	"fmt"
	"math"

	"github.com/san-kum/nbodyx/internal/params"
)

// Parameter keys read by the built-in operators.
const (
	TauMass      = "tau_mass"
	MassLossRate = "mass_loss_rate"
	MassFloor    = "mass_floor"
)

// floorSnap is the fraction of the loss rate within which a mass is
// considered to have reached the floor.
const floorSnap = 1e-6

// modifyMass applies m *= exp(dt/tau_mass). Negative tau_mass loses mass,
// positive gains it. No mass is written unless every particle succeeds.
func modifyMass(ctx Context, op *Operator, dt float64) error {
	s := ctx.Simulation()
	store := ctx.Params()

	masses := make([]float64, len(s.Particles))
	for i := range s.Particles {
		m := s.Particles[i].M
		masses[i] = m

		tau, ok, err := store.GetFloat64(params.Particle(i), TauMass)
		if err != nil {
			return err
		}
		if !ok {
			if op.Meta.Missing == MissingError {
				return fmt.Errorf("%w: %s on particle %d", ErrMissingRequiredParameter, TauMass, i)
			}
			continue
		}
		if tau == 0 || math.IsNaN(tau) {
			return fmt.Errorf("%w: %s=%v on particle %d", ErrNumericDomain, TauMass, tau, i)
		}

		next := m * math.Exp(dt/tau)
		if math.IsNaN(next) || math.IsInf(next, 0) || next < 0 {
			return fmt.Errorf("%w: mass %v on particle %d", ErrNumericDomain, next, i)
		}
		masses[i] = next
	}

	for i := range masses {
		s.Particles[i].M = masses[i]
	}
	return nil
}

// massLossTest removes mass_loss_rate from each particle per call until the
// mass reaches mass_floor. The step size is ignored.
func massLossTest(ctx Context, op *Operator, _ float64) error {
	s := ctx.Simulation()
	store := ctx.Params()

	masses := make([]float64, len(s.Particles))
	for i := range s.Particles {
		m := s.Particles[i].M
		masses[i] = m

		target := params.Particle(i)
		rate, ok, err := store.GetFloat64(target, MassLossRate)
		if err != nil {
			return err
		}
		if !ok {
			if op.Meta.Missing == MissingError {
				return fmt.Errorf("%w: %s on particle %d", ErrMissingRequiredParameter, MassLossRate, i)
			}
			continue
		}
		if rate < 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
			return fmt.Errorf("%w: %s=%v on particle %d", ErrNumericDomain, MassLossRate, rate, i)
		}

		floor, _, err := store.GetFloat64(target, MassFloor)
		if err != nil {
			return err
		}
		if m <= floor {
			continue
		}

		next := m - rate
		if next < floor || next-floor <= floorSnap*rate {
			next = floor
		}
		masses[i] = next
	}

	for i := range masses {
		s.Particles[i].M = masses[i]
	}
	return nil
}
