package sim

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pthm-cable/evogrid/store"
	"github.com/pthm-cable/evogrid/telemetry"
)

// RunStore persists run metadata, census records and events.
// *store.SQLiteStore satisfies it.
type RunStore interface {
	CreateRun(ctx context.Context, run store.Run) error
	AppendCensus(ctx context.Context, runID string, rec telemetry.PopulationRecord) error
	AppendEvent(ctx context.Context, runID string, e telemetry.Event) error
	FinishRun(ctx context.Context, runID string, iterations, stableAt int) error
}

// RunnerOptions configures the driver loop around a Simulation.
type RunnerOptions struct {
	RunID         string
	MaxIterations int  // 0 = unlimited
	StopOnStable  bool // finish once the stability window is satisfied

	StatsWindow     int
	StabilityWindow int
	StabilityRange  int
	PerfWindow      int

	LogStats    bool
	SnapshotDir string // snapshots on events; empty disables
	ConfigYAML  string // stored alongside the run record

	Output *telemetry.OutputManager // nil disables CSV output
	Store  RunStore                 // nil disables persistence
}

// Runner advances a Simulation and feeds every census to the telemetry
// collectors, the output files and the run store.
type Runner struct {
	sim  *Simulation
	opts RunnerOptions

	collector *telemetry.Collector
	stability *telemetry.StabilityDetector
	perf      *telemetry.PerfCollector

	events  []telemetry.Event
	started bool
	done    bool

	statsCallback func(telemetry.WindowStats)
}

// NewRunner wraps s. Each step's phase timings feed the runner's perf
// collector.
func NewRunner(s *Simulation, opts RunnerOptions) *Runner {
	if opts.RunID == "" {
		opts.RunID = store.NewRunID()
	}
	r := &Runner{
		sim:       s,
		opts:      opts,
		collector: telemetry.NewCollector(opts.StatsWindow),
		stability: telemetry.NewStabilityDetector(opts.StabilityWindow, opts.StabilityRange),
		perf:      telemetry.NewPerfCollector(opts.PerfWindow),
	}
	return r
}

// SetStatsCallback registers fn to receive every flushed stats window.
func (r *Runner) SetStatsCallback(fn func(telemetry.WindowStats)) {
	r.statsCallback = fn
}

// Start records the run and the initial census. Advance calls it if needed.
func (r *Runner) Start(ctx context.Context) error {
	if r.started {
		return nil
	}
	r.started = true

	if r.opts.Store != nil {
		err := r.opts.Store.CreateRun(ctx, store.Run{
			ID:      r.opts.RunID,
			Game:    r.sim.Definition().Name,
			Dynamic: r.sim.Options().Dynamic.Name(),
			Size:    r.sim.Grid().Size(),
			Seed:    r.sim.Seed(),
			Config:  r.opts.ConfigYAML,
		})
		if err != nil {
			return err
		}
	}

	history := r.sim.History()
	return r.observe(ctx, history[len(history)-1])
}

// Advance runs one step and its telemetry. It reports done once the run
// reached MaxIterations or, with StopOnStable, the stability window.
func (r *Runner) Advance(ctx context.Context) (StepStats, bool, error) {
	if r.done {
		return StepStats{Iteration: r.sim.Iteration()}, true, nil
	}
	if err := r.Start(ctx); err != nil {
		return StepStats{}, false, err
	}

	stats, err := r.sim.Step()
	if err != nil {
		return stats, false, err
	}

	start := time.Now()
	r.collector.Record(stats.Interactions, stats.Unpaired, stats.Switches, stats.TotalPayoff)
	history := r.sim.History()
	err = r.observe(ctx, history[len(history)-1])
	stats.Timings[telemetry.PhaseTelemetry] = time.Since(start)
	r.perf.Add(stats.Timings)
	if err != nil {
		return stats, false, err
	}

	if r.collector.ShouldFlush(stats.Iteration) {
		r.flushWindow(stats.Iteration)
	}

	if r.opts.MaxIterations > 0 && stats.Iteration >= r.opts.MaxIterations {
		slog.Info("max iterations reached", "iteration", stats.Iteration)
		r.done = true
	}
	if r.opts.StopOnStable && r.stability.Stable() {
		slog.Info("population stable", "iteration", stats.Iteration, "stable_at", r.stability.StableAt())
		r.done = true
	}
	return stats, r.done, nil
}

// Run advances until done or ctx is cancelled, then finishes the run.
// Cancellation stops between steps and is not reported as an error.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			slog.Info("run interrupted", "iteration", r.sim.Iteration())
			break
		}
		_, done, err := r.Advance(ctx)
		if err != nil {
			return errors.Join(err, r.Finish(context.WithoutCancel(ctx)))
		}
		if done {
			break
		}
	}
	return r.Finish(context.WithoutCancel(ctx))
}

// Finish writes the summary and closes the run record.
func (r *Runner) Finish(ctx context.Context) error {
	iteration := r.sim.Iteration()
	if r.collector.Pending() {
		r.flushWindow(iteration)
	}

	summary := telemetry.Summary{
		RunID:       r.opts.RunID,
		Game:        r.sim.Definition().Name,
		Dynamic:     r.sim.Options().Dynamic.Name(),
		Size:        r.sim.Grid().Size(),
		Seed:        r.sim.Seed(),
		Iterations:  iteration,
		StableAt:    r.stability.StableAt(),
		FinalCounts: r.sim.Counts(),
		Events:      r.events,
	}
	var errs []error
	errs = append(errs, r.opts.Output.WriteSummary(summary))
	if r.opts.Store != nil && r.started {
		errs = append(errs, r.opts.Store.FinishRun(ctx, r.opts.RunID, iteration, r.stability.StableAt()))
	}
	slog.Info("run finished",
		"run_id", r.opts.RunID,
		"iterations", iteration,
		"stable_at", r.stability.StableAt(),
		"counts", summary.FinalCounts,
	)
	return errors.Join(errs...)
}

// observe pushes one census through the stability detector, the metrics
// output and the store.
func (r *Runner) observe(ctx context.Context, rec telemetry.PopulationRecord) error {
	rows := telemetry.MetricsRows(rec, r.sim.Definition().Names(), r.sim.MeanScores())
	if err := r.opts.Output.WriteMetrics(rows); err != nil {
		slog.Error("failed to write metrics", "error", err)
	}
	if r.opts.Store != nil {
		if err := r.opts.Store.AppendCensus(ctx, r.opts.RunID, rec); err != nil {
			return err
		}
	}

	for _, e := range r.stability.Check(rec) {
		r.events = append(r.events, e)
		if r.opts.LogStats {
			e.LogEvent()
		}
		if err := r.opts.Output.WriteEvent(e); err != nil {
			slog.Error("failed to write event", "error", err)
		}
		if r.opts.Store != nil {
			if err := r.opts.Store.AppendEvent(ctx, r.opts.RunID, e); err != nil {
				return err
			}
		}
		if r.opts.SnapshotDir != "" {
			r.saveSnapshot(&e)
		}
	}
	return nil
}

func (r *Runner) flushWindow(iteration int) {
	stats := r.collector.Flush(iteration, r.sim.Counts(), r.sim.Scores())
	perfStats := r.perf.Stats()

	if r.statsCallback != nil {
		r.statsCallback(stats)
	}
	if r.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}
	if err := r.opts.Output.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := r.opts.Output.WritePerf(perfStats, stats.WindowEnd); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}

func (r *Runner) saveSnapshot(e *telemetry.Event) {
	ev := *e
	path, err := telemetry.SaveSnapshot(r.sim.Snapshot(&ev), r.opts.SnapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "iteration", r.sim.Iteration())
}

// Simulation returns the wrapped simulation.
func (r *Runner) Simulation() *Simulation { return r.sim }

// Events returns the events seen so far.
func (r *Runner) Events() []telemetry.Event { return r.events }

// StableAt returns the iteration stability was first seen, or -1.
func (r *Runner) StableAt() int { return r.stability.StableAt() }

// Perf returns the runner's perf collector.
func (r *Runner) Perf() *telemetry.PerfCollector { return r.perf }

// Done reports whether the run reached its stopping condition.
func (r *Runner) Done() bool { return r.done }
