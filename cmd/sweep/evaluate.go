package main

import (
	"context"
	"fmt"
	"maps"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/games"
	"github.com/pthm-cable/evogrid/sim"
)

// Evaluator runs headless simulations for one parameter point across
// several seeds.
type Evaluator struct {
	params     *ParamVector
	def        *games.Definition
	baseConfig *config.Config
	seeds      []uint64
	iterations int
}

// NewEvaluator creates a new evaluator.
func NewEvaluator(params *ParamVector, def *games.Definition, baseCfg *config.Config, seeds []uint64, iterations int) *Evaluator {
	return &Evaluator{
		params:     params,
		def:        def,
		baseConfig: baseCfg,
		seeds:      seeds,
		iterations: iterations,
	}
}

// PointResult aggregates the final populations of every seed at one point.
type PointResult struct {
	Values     []float64
	ShareMean  map[string]float64
	ShareStd   map[string]float64
	Diversity  float64 // mean entropy of the final shares
	StableRate float64 // fraction of seeds that reached stability
	Iterations float64 // mean iterations run
}

// seedResult holds the result from one seed.
type seedResult struct {
	shares     map[string]float64
	diversity  float64
	stable     bool
	iterations int
}

// Evaluate runs every seed at x in parallel. Each run uses one worker. The
// first failing seed cancels the others.
func (e *Evaluator) Evaluate(ctx context.Context, x []float64) (PointResult, error) {
	cfg := e.copyConfig()
	e.params.ApplyToConfig(cfg, x)
	if err := cfg.Validate(); err != nil {
		return PointResult{}, err
	}

	results := make([]seedResult, len(e.seeds))
	g, gctx := errgroup.WithContext(ctx)
	for i, seed := range e.seeds {
		g.Go(func() error {
			r, err := e.runSimulation(gctx, cfg, seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return PointResult{}, err
	}

	out := PointResult{
		Values:    e.params.Clamp(x),
		ShareMean: make(map[string]float64),
		ShareStd:  make(map[string]float64),
	}
	diversity := make([]float64, len(results))
	iterations := make([]float64, len(results))
	stable := 0
	for i, r := range results {
		diversity[i] = r.diversity
		iterations[i] = float64(r.iterations)
		if r.stable {
			stable++
		}
	}
	for _, name := range e.def.Names() {
		shares := make([]float64, len(results))
		for i, r := range results {
			shares[i] = r.shares[name]
		}
		if len(shares) < 2 {
			out.ShareMean[name] = shares[0]
			continue
		}
		out.ShareMean[name], out.ShareStd[name] = stat.MeanStdDev(shares, nil)
	}
	out.Diversity = stat.Mean(diversity, nil)
	out.Iterations = stat.Mean(iterations, nil)
	out.StableRate = float64(stable) / float64(len(results))
	return out, nil
}

// runSimulation executes a single headless run until stable or out of
// iterations.
func (e *Evaluator) runSimulation(ctx context.Context, cfg *config.Config, seed uint64) (seedResult, error) {
	opts, err := sim.OptionsFromConfig(cfg, e.def)
	if err != nil {
		return seedResult{}, err
	}
	opts.Seed = seed
	opts.Workers = 1

	s, err := sim.New(e.def, opts)
	if err != nil {
		return seedResult{}, err
	}
	defer s.Close()

	runner := sim.NewRunner(s, sim.RunnerOptions{
		MaxIterations:   e.iterations,
		StopOnStable:    true,
		StatsWindow:     cfg.Telemetry.StatsWindow,
		StabilityWindow: cfg.Telemetry.StabilityWindow,
		StabilityRange:  cfg.Telemetry.StabilityRange,
		PerfWindow:      cfg.Telemetry.PerfWindow,
	})
	if err := runner.Run(ctx); err != nil {
		return seedResult{}, err
	}

	counts := s.Counts()
	total := float64(s.Grid().Len())
	shares := make(map[string]float64, len(counts))
	dist := make([]float64, 0, len(counts))
	for name, c := range counts {
		shares[name] = float64(c) / total
		dist = append(dist, shares[name])
	}
	return seedResult{
		shares:     shares,
		diversity:  stat.Entropy(dist),
		stable:     runner.StableAt() >= 0,
		iterations: s.Iteration(),
	}, nil
}

// copyConfig creates a copy of the base config that parameters can be
// applied to without touching the original.
func (e *Evaluator) copyConfig() *config.Config {
	cfg := *e.baseConfig
	cfg.Game.Types = append([]string(nil), e.baseConfig.Game.Types...)
	cfg.Spatial.Distribution = maps.Clone(e.baseConfig.Spatial.Distribution)
	return &cfg
}
