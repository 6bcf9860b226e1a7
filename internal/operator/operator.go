package operator

import (
	"errors"

	"github.com/san-kum/nbodyx/internal/params"
	"github.com/san-kum/nbodyx/internal/sim"
)

var (
	// ErrUnknownOperator indicates a name absent from the registry.
	ErrUnknownOperator = errors.New("operator: unknown operator")

	// ErrDuplicateOperator indicates a registration under a name already in use.
	ErrDuplicateOperator = errors.New("operator: duplicate operator")

	// ErrInvalidOperator indicates an empty name or nil update function.
	ErrInvalidOperator = errors.New("operator: invalid operator")

	// ErrMissingRequiredParameter indicates an entity without a parameter the
	// operator was configured to require.
	ErrMissingRequiredParameter = errors.New("operator: missing required parameter")

	// ErrNumericDomain indicates an update that would produce a non-finite
	// or physically invalid value.
	ErrNumericDomain = errors.New("operator: numeric domain error")
)

// Kind identifies the implementation behind an Operator.
type Kind int

const (
	KindUser Kind = iota
	KindModifyMass
	KindMassLossTest
)

func (k Kind) String() string {
	switch k {
	case KindModifyMass:
		return "modify_mass"
	case KindMassLossTest:
		return "mass_loss_test"
	default:
		return "user"
	}
}

// Symmetry tells the scheduler whether an operator may be split around the
// host step without losing time reversibility.
type Symmetry int

const (
	Symmetric Symmetry = iota
	Asymmetric
)

func (s Symmetry) String() string {
	if s == Symmetric {
		return "symmetric"
	}
	return "asymmetric"
}

// Timing places a step before or after the host integrator step.
type Timing int

const (
	Pre Timing = iota
	Post
)

func (t Timing) String() string {
	if t == Pre {
		return "pre"
	}
	return "post"
}

// MissingPolicy decides what an operator does with an entity that lacks one
// of its required parameters.
type MissingPolicy int

const (
	MissingSkip MissingPolicy = iota
	MissingError
)

func (m MissingPolicy) String() string {
	if m == MissingError {
		return "error"
	}
	return "skip"
}

type Metadata struct {
	Symmetry      Symmetry
	DefaultTiming Timing
	Required      []string
	Missing       MissingPolicy
	Description   string
}

// Context is what an update function sees of its extension context.
type Context interface {
	Simulation() *sim.Simulation
	Params() *params.Store
}

// UpdateFunc advances the operator's effect by dt. It must not retain ctx.
type UpdateFunc func(ctx Context, op *Operator, dt float64) error

// Operator is a named update function plus scheduling metadata. Handles
// returned by a Registry are independent copies, so changing Meta on one
// does not affect other contexts.
type Operator struct {
	Name   string
	Kind   Kind
	Update UpdateFunc
	Meta   Metadata
}

func (op *Operator) Apply(ctx Context, dt float64) error {
	return op.Update(ctx, op, dt)
}

func (op *Operator) clone() *Operator {
	c := *op
	c.Meta.Required = append([]string(nil), op.Meta.Required...)
	return &c
}
