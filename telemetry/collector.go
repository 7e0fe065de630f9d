package telemetry

// Collector accumulates per-step activity and produces WindowStats every
// window iterations.
type Collector struct {
	window      int
	windowStart int

	interactions int
	unpaired     int
	switches     int
	payoff       int
	steps        int
}

// NewCollector creates a collector flushing every window iterations.
func NewCollector(window int) *Collector {
	if window < 1 {
		window = 1
	}
	return &Collector{window: window}
}

// Record adds one step's activity to the current window.
func (c *Collector) Record(interactions, unpaired, switches, payoff int) {
	c.interactions += interactions
	c.unpaired += unpaired
	c.switches += switches
	c.payoff += payoff
	c.steps++
}

// ShouldFlush returns true once the window has elapsed.
func (c *Collector) ShouldFlush(iteration int) bool {
	return iteration-c.windowStart >= c.window
}

// Pending reports whether steps were recorded since the last flush.
func (c *Collector) Pending() bool {
	return c.steps > 0
}

// Flush produces a WindowStats from the accumulated activity plus the grid
// state at iteration, then resets the counters.
func (c *Collector) Flush(iteration int, counts map[string]int, scores []float64) WindowStats {
	population := 0
	present := 0
	for _, n := range counts {
		population += n
		if n > 0 {
			present++
		}
	}

	var switchRate float64
	if population > 0 && c.steps > 0 {
		switchRate = float64(c.switches) / float64(population*c.steps)
	}

	mean, std, p10, p50, p90 := ComputeScoreStats(scores)
	dominant, share := Dominant(counts)

	stats := WindowStats{
		WindowStart:   c.windowStart,
		WindowEnd:     iteration,
		Population:    population,
		Strategies:    present,
		Interactions:  c.interactions,
		Unpaired:      c.unpaired,
		Switches:      c.switches,
		SwitchRate:    switchRate,
		TotalPayoff:   c.payoff,
		ScoreMean:     mean,
		ScoreStd:      std,
		ScoreP10:      p10,
		ScoreP50:      p50,
		ScoreP90:      p90,
		Diversity:     Diversity(counts),
		Dominant:      dominant,
		DominantShare: share,
	}

	c.windowStart = iteration
	c.interactions, c.unpaired, c.switches, c.payoff, c.steps = 0, 0, 0, 0, 0
	return stats
}
