// Package telemetry provides census tracking, windowed statistics,
// stability detection, performance timing and structured output.
package telemetry

import (
	"maps"
	"slices"
)

// PopulationRecord is the per-strategy population count after an iteration.
type PopulationRecord struct {
	Iteration int            `json:"iteration"`
	Counts    map[string]int `json:"counts"`
}

// Total returns the population across all strategies.
func (r PopulationRecord) Total() int {
	n := 0
	for _, c := range r.Counts {
		n += c
	}
	return n
}

// Names returns the strategy names in sorted order.
func (r PopulationRecord) Names() []string {
	return slices.Sorted(maps.Keys(r.Counts))
}

// MetricRow is one line of metrics.csv: a strategy's state at an iteration.
type MetricRow struct {
	Iteration int     `csv:"iteration"`
	Strategy  string  `csv:"strategy"`
	Count     int     `csv:"count"`
	Share     float64 `csv:"share"`
	MeanScore float64 `csv:"mean_score"`
}

// MetricsRows flattens a record into one row per strategy in names order.
// Strategies missing from the record are written with a zero count so that
// every iteration has the same rows.
func MetricsRows(rec PopulationRecord, names []string, meanScore map[string]float64) []MetricRow {
	total := rec.Total()
	rows := make([]MetricRow, 0, len(names))
	for _, name := range names {
		c := rec.Counts[name]
		var share float64
		if total > 0 {
			share = float64(c) / float64(total)
		}
		rows = append(rows, MetricRow{
			Iteration: rec.Iteration,
			Strategy:  name,
			Count:     c,
			Share:     share,
			MeanScore: meanScore[name],
		})
	}
	return rows
}
