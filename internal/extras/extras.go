package extras

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/san-kum/nbodyx/internal/operator"
	"github.com/san-kum/nbodyx/internal/params"
	"github.com/san-kum/nbodyx/internal/sim"
)

// Extras is the extension context of one simulation. It is not safe for
// concurrent use; all calls must come from the goroutine driving the
// simulation.
type Extras struct {
	sim      *sim.Simulation
	registry *operator.Registry
	policy   *Policy
	store    *params.Store
	logger   zerolog.Logger

	steps    []Step
	running  bool
	detached bool
}

type Option func(*Extras)

// WithRegistry shares r between contexts. By default each context gets its
// own registry.
func WithRegistry(r *operator.Registry) Option {
	return func(e *Extras) { e.registry = r }
}

func WithPolicy(p *Policy) Option {
	return func(e *Extras) { e.policy = p }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Extras) { e.logger = logger }
}

// Attach creates a context for s and installs it as the step hook. It fails
// with sim.ErrHookInUse if s already has one.
func Attach(s *sim.Simulation, opts ...Option) (*Extras, error) {
	if s == nil {
		return nil, ErrNilSimulation
	}

	e := &Extras{
		sim:    s,
		store:  params.NewStore(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = operator.NewRegistry()
	}
	if e.policy == nil {
		e.policy = DefaultPolicy()
	}

	if err := s.SetStepHook(e); err != nil {
		return nil, fmt.Errorf("extras: attach: %w", err)
	}

	e.logger.Debug().
		Int("particles", len(s.Particles)).
		Str("stepping", s.Stepping().String()).
		Msg("extras attached")
	return e, nil
}

// Detach removes the step hook and releases the schedule and parameters.
func (e *Extras) Detach() error {
	if e.detached {
		return ErrDetached
	}
	if e.running {
		return ErrConcurrentModification
	}

	e.sim.ClearStepHook()
	e.store.Reset()
	e.steps = nil
	e.detached = true

	e.logger.Debug().Msg("extras detached")
	return nil
}

func (e *Extras) Simulation() *sim.Simulation  { return e.sim }
func (e *Extras) Params() *params.Store        { return e.store }
func (e *Extras) Registry() *operator.Registry { return e.registry }
func (e *Extras) Policy() *Policy              { return e.policy }

func (e *Extras) LoadOperator(name string) (*operator.Operator, error) {
	if e.detached {
		return nil, ErrDetached
	}
	return e.registry.Load(name)
}

func (e *Extras) RegisterOperator(name string, fn operator.UpdateFunc, meta operator.Metadata) (*operator.Operator, error) {
	if e.detached {
		return nil, ErrDetached
	}
	return e.registry.Register(name, fn, meta)
}

// SetParam stores v under key on target. Particle targets must refer to an
// existing particle.
func (e *Extras) SetParam(target params.Target, key string, v params.Value) error {
	if err := e.checkTarget(target); err != nil {
		return err
	}
	return e.store.Set(target, key, v)
}

func (e *Extras) GetParam(target params.Target, key string) (params.Value, bool) {
	if e.detached {
		return params.Value{}, false
	}
	return e.store.Get(target, key)
}

func (e *Extras) SetParamFloat64(target params.Target, key string, v float64) error {
	return e.SetParam(target, key, params.Float64(v))
}

func (e *Extras) ParamFloat64(target params.Target, key string) (float64, bool, error) {
	if e.detached {
		return 0, false, ErrDetached
	}
	return e.store.GetFloat64(target, key)
}

func (e *Extras) checkTarget(target params.Target) error {
	if e.detached {
		return ErrDetached
	}
	if !target.IsGlobal() && target.Index() >= len(e.sim.Particles) {
		return fmt.Errorf("%w: %s", sim.ErrParticleIndex, target)
	}
	return nil
}
