package extras

import (
	"fmt"
	"math"

	"github.com/san-kum/nbodyx/internal/dynamo"
	"github.com/san-kum/nbodyx/internal/operator"
)

// Placement is the fraction of the host timestep an operator receives
// before and after the integrator step.
type Placement struct {
	Pre  float64
	Post float64
}

type policyKey struct {
	symmetry operator.Symmetry
	stepping dynamo.Stepping
}

// Policy decides where AddOperator places an operator given its symmetry
// and the host's stepping class.
type Policy struct {
	table map[policyKey]Placement
}

// DefaultPolicy splits symmetric operators in half around symplectic and
// fixed-step integrators. Everything else runs once after the step.
func DefaultPolicy() *Policy {
	half := Placement{Pre: 0.5, Post: 0.5}
	post := Placement{Post: 1}

	return &Policy{table: map[policyKey]Placement{
		{operator.Symmetric, dynamo.SteppingSymplectic}:  half,
		{operator.Symmetric, dynamo.SteppingFixed}:       half,
		{operator.Symmetric, dynamo.SteppingAdaptive}:    post,
		{operator.Asymmetric, dynamo.SteppingSymplectic}: post,
		{operator.Asymmetric, dynamo.SteppingFixed}:      post,
		{operator.Asymmetric, dynamo.SteppingAdaptive}:   post,
	}}
}

// Set overrides one cell of the table.
func (p *Policy) Set(sym operator.Symmetry, stepping dynamo.Stepping, pl Placement) error {
	if !validFraction(pl.Pre) || !validFraction(pl.Post) {
		return fmt.Errorf("%w: pre=%v post=%v", ErrInvalidStepFraction, pl.Pre, pl.Post)
	}
	p.table[policyKey{sym, stepping}] = pl
	return nil
}

// Lookup returns the placement for the pair. Pairs missing from the table
// run once after the step.
func (p *Policy) Lookup(sym operator.Symmetry, stepping dynamo.Stepping) Placement {
	if pl, ok := p.table[policyKey{sym, stepping}]; ok {
		return pl
	}
	return Placement{Post: 1}
}

func validFraction(f float64) bool {
	return f >= 0 && !math.IsInf(f, 0)
}
