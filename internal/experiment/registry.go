package experiment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/nbodyx/internal/config"
	"github.com/san-kum/nbodyx/internal/dynamo"
	"github.com/san-kum/nbodyx/internal/integrators"
	"github.com/san-kum/nbodyx/internal/metrics"
	"github.com/san-kum/nbodyx/internal/operator"
)

var ErrUnknownIntegrator = errors.New("experiment: unknown integrator")

// Registry resolves the names used in configuration files. The operator
// registry is shared by every experiment built from it; registering new
// operators while experiments run concurrently is not supported.
type Registry struct {
	integrators map[string]func() dynamo.Integrator
	operators   *operator.Registry
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.Integrator),
		operators:   operator.NewRegistry(),
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }
	r.integrators["verlet"] = func() dynamo.Integrator { return integrators.NewVerlet() }
	r.integrators["leapfrog"] = func() dynamo.Integrator { return integrators.NewLeapfrog() }

	return r
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIntegrator, name)
	}
	return fn(), nil
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Operators() *operator.Registry {
	return r.operators
}

// DefaultMetrics returns the orbital metrics only when cfg tracks an orbit.
func (r *Registry) DefaultMetrics(cfg *config.Config) []metrics.Metric {
	lc := cfg.OrbitLog
	if lc.Interval <= 0 || lc.Particle == lc.Primary {
		return []metrics.Metric{metrics.NewEnergyDrift(), metrics.NewMassChange()}
	}
	return metrics.Defaults(lc.Particle, lc.Primary)
}
