package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of iterations.
type WindowStats struct {
	WindowStart int `csv:"-"`
	WindowEnd   int `csv:"window_end"`

	Population int `csv:"population"`
	Strategies int `csv:"strategies"` // strategies with at least one agent

	// Activity during the window
	Interactions int     `csv:"interactions"`
	Unpaired     int     `csv:"unpaired"`
	Switches     int     `csv:"switches"`
	SwitchRate   float64 `csv:"switch_rate"`
	TotalPayoff  int     `csv:"total_payoff"`

	// Score distribution at window end
	ScoreMean float64 `csv:"score_mean"`
	ScoreStd  float64 `csv:"score_std"`
	ScoreP10  float64 `csv:"score_p10"`
	ScoreP50  float64 `csv:"score_p50"`
	ScoreP90  float64 `csv:"score_p90"`

	// Shannon entropy of strategy shares (nats)
	Diversity float64 `csv:"diversity"`

	Dominant      string  `csv:"dominant"`
	DominantShare float64 `csv:"dominant_share"`
}

// Percentile returns the p-th empirical quantile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// ComputeScoreStats calculates mean, std, and percentiles of scores.
func ComputeScoreStats(values []float64) (mean, std, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}
	mean, std = stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return mean, std, Percentile(sorted, 0.10), Percentile(sorted, 0.50), Percentile(sorted, 0.90)
}

// Diversity returns the Shannon entropy of the count distribution.
func Diversity(counts map[string]int) float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}
	p := make([]float64, 0, len(counts))
	for _, c := range counts {
		if c > 0 {
			p = append(p, float64(c)/float64(total))
		}
	}
	return stat.Entropy(p)
}

// Dominant returns the most common strategy and its share. Ties go to the
// lexically smallest name.
func Dominant(counts map[string]int) (string, float64) {
	names := make([]string, 0, len(counts))
	total := 0
	for name, c := range counts {
		names = append(names, name)
		total += c
	}
	if total == 0 {
		return "", 0
	}
	sort.Strings(names)
	best := names[0]
	for _, name := range names[1:] {
		if counts[name] > counts[best] {
			best = name
		}
	}
	return best, float64(counts[best]) / float64(total)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStart),
		slog.Int("window_end", s.WindowEnd),
		slog.Int("population", s.Population),
		slog.Int("strategies", s.Strategies),
		slog.Int("interactions", s.Interactions),
		slog.Int("unpaired", s.Unpaired),
		slog.Int("switches", s.Switches),
		slog.Float64("switch_rate", s.SwitchRate),
		slog.Int("total_payoff", s.TotalPayoff),
		slog.Float64("score_mean", s.ScoreMean),
		slog.Float64("score_std", s.ScoreStd),
		slog.Float64("score_p50", s.ScoreP50),
		slog.Float64("diversity", s.Diversity),
		slog.String("dominant", s.Dominant),
		slog.Float64("dominant_share", s.DominantShare),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEnd,
		"strategies", s.Strategies,
		"interactions", s.Interactions,
		"switches", s.Switches,
		"switch_rate", s.SwitchRate,
		"score_mean", s.ScoreMean,
		"score_p10", s.ScoreP10,
		"score_p90", s.ScoreP90,
		"diversity", s.Diversity,
		"dominant", s.Dominant,
		"dominant_share", s.DominantShare,
	)
}
