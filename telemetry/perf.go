package telemetry

import (
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Phase identifies one part of a generation, in step order.
type Phase int

const (
	PhaseReset Phase = iota
	PhaseNeighbors
	PhaseInteract
	PhaseLearn
	PhaseCommit
	PhaseTelemetry

	NumPhases
)

var phaseNames = [NumPhases]string{"reset", "neighbors", "interact", "learn", "commit", "telemetry"}

func (p Phase) String() string {
	if p < 0 || p >= NumPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// PhaseTimings is the wall time one step spent in each phase.
type PhaseTimings [NumPhases]time.Duration

// Total sums all phases.
func (t PhaseTimings) Total() time.Duration {
	var sum time.Duration
	for _, d := range t {
		sum += d
	}
	return sum
}

// PhaseClock charges elapsed time to the phase entered last.
// The zero value is ready to use.
type PhaseClock struct {
	timings PhaseTimings
	current Phase
	since   time.Time
}

// Enter closes the running phase, if any, and starts p.
func (c *PhaseClock) Enter(p Phase) {
	now := time.Now()
	if !c.since.IsZero() {
		c.timings[c.current] += now.Sub(c.since)
	}
	c.current, c.since = p, now
}

// Stop closes the running phase and returns the accumulated timings.
func (c *PhaseClock) Stop() PhaseTimings {
	if !c.since.IsZero() {
		c.timings[c.current] += time.Since(c.since)
		c.since = time.Time{}
	}
	return c.timings
}

// PerfCollector keeps the phase timings of the last window of steps.
type PerfCollector struct {
	samples []PhaseTimings
	next    int
	count   int

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector creates a collector averaging over window steps.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{samples: make([]PhaseTimings, window)}
}

// Add records one step's timings, evicting the oldest once the window is full.
func (p *PerfCollector) Add(t PhaseTimings) {
	p.samples[p.next] = t
	p.next = (p.next + 1) % len(p.samples)
	if p.count < len(p.samples) {
		p.count++
	}
}

// RecordFrame marks a rendered frame in graphics mode.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats summarizes the window.
type PerfStats struct {
	AvgStep time.Duration
	MinStep time.Duration
	MaxStep time.Duration

	Phase PhaseTimings       // mean per phase
	Share [NumPhases]float64 // percent of the mean step

	StepsPerSecond float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats aggregates the samples currently in the window.
func (p *PerfCollector) Stats() PerfStats {
	var s PerfStats
	s.FrameDuration = p.frame
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.count == 0 {
		return s
	}

	window := p.samples[:p.count]
	totals := make([]float64, len(window))
	perPhase := make([]float64, len(window))
	for i, t := range window {
		totals[i] = float64(t.Total())
	}
	mean := stat.Mean(totals, nil)
	s.AvgStep = time.Duration(mean)
	s.MinStep = time.Duration(floats.Min(totals))
	s.MaxStep = time.Duration(floats.Max(totals))

	for ph := range NumPhases {
		for i, t := range window {
			perPhase[i] = float64(t[ph])
		}
		m := stat.Mean(perPhase, nil)
		s.Phase[ph] = time.Duration(m)
		if mean > 0 {
			s.Share[ph] = m / mean * 100
		}
	}
	if mean > 0 {
		s.StepsPerSecond = float64(time.Second) / mean
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_step_us", s.AvgStep.Microseconds()),
		slog.Int64("min_step_us", s.MinStep.Microseconds()),
		slog.Int64("max_step_us", s.MaxStep.Microseconds()),
		slog.Float64("steps_per_sec", s.StepsPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for ph := range NumPhases {
		if s.Share[ph] > 0.1 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", s.Share[ph]))
		}
	}
	return slog.GroupValue(attrs...)
}

// LogStats logs the window at info level.
func (s PerfStats) LogStats() {
	slog.Info("perf", "perf", s)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd    int     `csv:"window_end"`
	AvgStepUS    int64   `csv:"avg_step_us"`
	MinStepUS    int64   `csv:"min_step_us"`
	MaxStepUS    int64   `csv:"max_step_us"`
	StepsPerSec  float64 `csv:"steps_per_sec"`
	FPS          float64 `csv:"fps"`
	ResetPct     float64 `csv:"reset_pct"`
	NeighborsPct float64 `csv:"neighbors_pct"`
	InteractPct  float64 `csv:"interact_pct"`
	LearnPct     float64 `csv:"learn_pct"`
	CommitPct    float64 `csv:"commit_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgStepUS:    s.AvgStep.Microseconds(),
		MinStepUS:    s.MinStep.Microseconds(),
		MaxStepUS:    s.MaxStep.Microseconds(),
		StepsPerSec:  s.StepsPerSecond,
		FPS:          s.FPS,
		ResetPct:     s.Share[PhaseReset],
		NeighborsPct: s.Share[PhaseNeighbors],
		InteractPct:  s.Share[PhaseInteract],
		LearnPct:     s.Share[PhaseLearn],
		CommitPct:    s.Share[PhaseCommit],
		TelemetryPct: s.Share[PhaseTelemetry],
	}
}
