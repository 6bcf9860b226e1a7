package experiment

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/nbodyx/internal/config"
)

// SweepResult pairs one configuration of a sweep with its outcome.
type SweepResult struct {
	Index  int
	Config *config.Config
	Result *Result
	Err    error
}

type SweepOptions struct {
	// Workers bounds the number of concurrent runs. Zero means GOMAXPROCS.
	Workers int
	// FailFast cancels the remaining runs after the first failure.
	FailFast bool
}

// Sweep runs every configuration in its own simulation and extension
// context. Results are returned in input order. Without FailFast a failed
// run is reported in its SweepResult and the others continue.
func Sweep(ctx context.Context, cfgs []*config.Config, so SweepOptions, opts ...Option) ([]SweepResult, error) {
	workers := so.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]SweepResult, len(cfgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, cfg := range cfgs {
		results[i] = SweepResult{Index: i, Config: cfg}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}

			exp := New(cfg, opts...)
			res, err := exp.Run(gctx)
			err = multierr.Append(err, exp.Close())

			results[i].Result = res
			results[i].Err = err
			if err != nil && so.FailFast {
				return fmt.Errorf("sweep run %d (%s): %w", i, cfg.Name, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

// Vary returns one copy of base per value with the parameter key set on
// particle. Each copy is named after the value it carries.
func Vary(base *config.Config, particle int, key string, values []float64) ([]*config.Config, error) {
	if particle < 0 || particle >= len(base.Particles) {
		return nil, fmt.Errorf("experiment: sweep particle %d out of range", particle)
	}

	cfgs := make([]*config.Config, 0, len(values))
	for _, v := range values {
		cfg := base.Clone()
		p := &cfg.Particles[particle]
		if p.Params == nil {
			p.Params = make(map[string]float64)
		}
		p.Params[key] = v
		cfg.Name = fmt.Sprintf("%s_%s_%s", base.Name, key, strconv.FormatFloat(v, 'g', -1, 64))
		cfgs = append(cfgs, cfg)
	}
	return cfgs, nil
}
