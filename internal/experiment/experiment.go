package experiment

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/san-kum/nbodyx/internal/config"
	"github.com/san-kum/nbodyx/internal/extras"
	"github.com/san-kum/nbodyx/internal/metrics"
	"github.com/san-kum/nbodyx/internal/operator"
	"github.com/san-kum/nbodyx/internal/params"
	"github.com/san-kum/nbodyx/internal/physics"
	"github.com/san-kum/nbodyx/internal/sim"
	"github.com/san-kum/nbodyx/internal/storage"
)

var ErrNotSetup = errors.New("experiment: not set up")

// Result is what a finished run leaves behind.
type Result struct {
	Samples   []storage.OrbitSample
	Metrics   map[string]float64
	Particles []physics.Particle
	Steps     int
	FinalTime float64
}

// Progress is reported at every heartbeat interval.
type Progress struct {
	T        float64
	Duration float64
	Steps    int
	Masses   []float64
	Orbit    physics.Orbit
}

type Experiment struct {
	cfg      *config.Config
	registry *Registry
	logger   zerolog.Logger
	progress func(Progress)

	sim     *sim.Simulation
	extras  *extras.Extras
	metrics []metrics.Metric
	samples []storage.OrbitSample
}

type Option func(*Experiment)

func WithRegistry(r *Registry) Option {
	return func(e *Experiment) { e.registry = r }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Experiment) { e.logger = logger }
}

func WithProgress(fn func(Progress)) Option {
	return func(e *Experiment) { e.progress = fn }
}

func New(cfg *config.Config, opts ...Option) *Experiment {
	e := &Experiment{cfg: cfg, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}
	return e
}

// Setup builds the simulation, attaches the configured operators and
// parameters and installs the sampling heartbeat.
func (e *Experiment) Setup() error {
	cfg := e.cfg
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("experiment %s: %w", cfg.Name, err)
	}

	integ, err := e.registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}

	opts := []sim.Option{
		sim.WithG(cfg.G),
		sim.WithDt(cfg.Dt),
		sim.WithSoftening(cfg.Softening),
		sim.WithLogger(e.logger),
	}
	if cfg.Tolerance > 0 {
		opts = append(opts, sim.WithTolerance(cfg.Tolerance, 1e-12*cfg.Duration, cfg.Duration))
	}
	s := sim.New(integ, opts...)

	for i, pc := range cfg.Particles {
		p := physics.Particle{M: pc.M, X: pc.X, Y: pc.Y, Z: pc.Z, VX: pc.VX, VY: pc.VY, VZ: pc.VZ}
		if pc.Orbit != nil {
			o := physics.Orbit{A: pc.Orbit.A, E: pc.Orbit.E, Inc: pc.Orbit.Inc, Node: pc.Orbit.Node, Peri: pc.Orbit.Peri, F: pc.Orbit.F}
			p, err = physics.FromOrbit(cfg.G, s.Particles[0], pc.M, o)
			if err != nil {
				return fmt.Errorf("particle[%d]: %w", i, err)
			}
		}
		s.Add(p)
	}
	if cfg.MoveToCOM {
		s.MoveToCOM()
	}

	ex, err := extras.Attach(s, extras.WithRegistry(e.registry.Operators()), extras.WithLogger(e.logger))
	if err != nil {
		return err
	}
	if err := configureExtras(ex, cfg); err != nil {
		_ = ex.Detach()
		return err
	}

	e.sim = s
	e.extras = ex
	e.metrics = e.registry.DefaultMetrics(cfg)
	e.samples = e.samples[:0]
	s.SetHeartbeat(e.heartbeat)
	return nil
}

func configureExtras(ex *extras.Extras, cfg *config.Config) error {
	for i, pc := range cfg.Particles {
		for key, v := range pc.Params {
			if err := ex.SetParamFloat64(params.Particle(i), key, v); err != nil {
				return fmt.Errorf("particle[%d] %s: %w", i, key, err)
			}
		}
	}

	for _, oc := range cfg.Operators {
		op, err := ex.LoadOperator(oc.Name)
		if err != nil {
			return err
		}
		if oc.Required {
			op.Meta.Missing = operator.MissingError
		}

		switch oc.Timing {
		case "":
			err = ex.AddOperator(op)
		case "pre":
			err = ex.AddOperatorStep(op, oc.Fraction, operator.Pre, oc.Step)
		case "post":
			err = ex.AddOperatorStep(op, oc.Fraction, operator.Post, oc.Step)
		}
		if err != nil {
			return fmt.Errorf("operator %s: %w", oc.Name, err)
		}
	}
	return nil
}

// Run integrates to the configured duration. On failure the partial result
// is returned alongside the error.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.sim == nil {
		if err := e.Setup(); err != nil {
			return nil, err
		}
	}

	e.logger.Info().
		Str("name", e.cfg.Name).
		Str("integrator", e.cfg.Integrator).
		Int("particles", len(e.sim.Particles)).
		Int("steps_scheduled", len(e.extras.Steps())).
		Float64("duration", e.cfg.Duration).
		Msg("run started")

	if e.sim.Steps() == 0 {
		e.observe()
		e.sample()
	}

	err := e.sim.Integrate(ctx, e.cfg.Duration)
	e.observe()
	res := e.result()

	if err != nil {
		e.logger.Error().Err(err).Str("name", e.cfg.Name).Float64("t", e.sim.T).Msg("run failed")
		return res, err
	}

	e.logger.Info().
		Str("name", e.cfg.Name).
		Int("steps", res.Steps).
		Float64("t", res.FinalTime).
		Int("samples", len(res.Samples)).
		Msg("run finished")
	return res, nil
}

// Advance integrates dt further in time, for interactive callers.
func (e *Experiment) Advance(ctx context.Context, dt float64) error {
	if e.sim == nil {
		return ErrNotSetup
	}
	if e.sim.Steps() == 0 {
		e.observe()
		e.sample()
	}
	return e.sim.Integrate(ctx, e.sim.T+dt)
}

// Close detaches the extension context.
func (e *Experiment) Close() error {
	if e.extras == nil {
		return nil
	}
	return e.extras.Detach()
}

func (e *Experiment) Config() *config.Config         { return e.cfg }
func (e *Experiment) Simulation() *sim.Simulation    { return e.sim }
func (e *Experiment) Extras() *extras.Extras         { return e.extras }
func (e *Experiment) Samples() []storage.OrbitSample { return e.samples }

func (e *Experiment) Metrics() map[string]float64 {
	return metrics.Collect(e.metrics)
}

// Metadata describes the run for the store.
func (e *Experiment) Metadata(res *Result) *storage.RunMetadata {
	ops := make([]string, 0, len(e.cfg.Operators))
	for _, oc := range e.cfg.Operators {
		ops = append(ops, oc.Name)
	}
	return &storage.RunMetadata{
		Name:       e.cfg.Name,
		Integrator: e.cfg.Integrator,
		G:          e.cfg.G,
		Dt:         e.cfg.Dt,
		Duration:   e.cfg.Duration,
		Particles:  len(e.cfg.Particles),
		Operators:  ops,
		Steps:      res.Steps,
		FinalTime:  res.FinalTime,
		Metrics:    res.Metrics,
		Config:     e.cfg,
	}
}

func (e *Experiment) heartbeat(s *sim.Simulation) {
	if e.cfg.OrbitLog.Interval > 0 && s.OutputCheck(e.cfg.OrbitLog.Interval) {
		e.sample()
	}
	if e.cfg.Heartbeats > 0 && s.OutputCheck(e.cfg.Duration/float64(e.cfg.Heartbeats)) {
		e.observe()
		e.report()
	}
}

func (e *Experiment) sample() {
	if e.cfg.OrbitLog.Interval <= 0 {
		return
	}
	lc := e.cfg.OrbitLog
	o, err := e.sim.Orbit(lc.Particle, lc.Primary)
	if err != nil {
		e.logger.Debug().Err(err).Float64("t", e.sim.T).Msg("orbit sample skipped")
		return
	}
	e.samples = append(e.samples, storage.OrbitSample{
		T:    e.sim.T,
		M:    e.sim.Particles[lc.Particle].M,
		A:    o.A,
		E:    o.E,
		Inc:  o.Inc,
		Node: o.Node,
		Peri: o.Peri,
		F:    o.F,
	})
}

func (e *Experiment) observe() {
	for _, m := range e.metrics {
		m.Observe(e.sim)
	}
}

func (e *Experiment) report() {
	s := e.sim
	masses := make([]float64, len(s.Particles))
	for i, p := range s.Particles {
		masses[i] = p.M
	}

	var o physics.Orbit
	if lc := e.cfg.OrbitLog; lc.Particle != lc.Primary {
		o, _ = s.Orbit(lc.Particle, lc.Primary)
	}

	e.logger.Debug().
		Float64("t", s.T).
		Floats64("masses", masses).
		Float64("a", o.A).
		Msg("heartbeat")

	if e.progress != nil {
		e.progress(Progress{T: s.T, Duration: e.cfg.Duration, Steps: s.Steps(), Masses: masses, Orbit: o})
	}
}

func (e *Experiment) result() *Result {
	return &Result{
		Samples:   append([]storage.OrbitSample(nil), e.samples...),
		Metrics:   metrics.Collect(e.metrics),
		Particles: append([]physics.Particle(nil), e.sim.Particles...),
		Steps:     e.sim.Steps(),
		FinalTime: e.sim.T,
	}
}
