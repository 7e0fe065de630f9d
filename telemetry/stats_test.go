package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.0},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.0},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeScoreStats(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeScoreStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if mean != 5 || math.Abs(std-2) > 1e-9 {
		t.Errorf("mean=%v std=%v, want 5 and 2", mean, std)
	}
	if p10 != 2 || p50 != 4 || p90 != 9 {
		t.Errorf("p10=%v p50=%v p90=%v", p10, p50, p90)
	}

	mean, std, p10, p50, p90 = ComputeScoreStats(nil)
	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func TestDiversityAndDominant(t *testing.T) {
	if d := Diversity(map[string]int{"A": 10}); d != 0 {
		t.Errorf("single strategy diversity %v", d)
	}
	if d := Diversity(map[string]int{"A": 5, "B": 5}); math.Abs(d-math.Ln2) > 1e-9 {
		t.Errorf("even split diversity %v, want ln 2", d)
	}

	name, share := Dominant(map[string]int{"B": 3, "A": 3, "C": 2})
	if name != "A" || math.Abs(share-0.375) > 1e-9 {
		t.Errorf("Dominant = %s %v", name, share)
	}
	if name, _ := Dominant(nil); name != "" {
		t.Errorf("empty dominant %q", name)
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(2)
	c.Record(4, 0, 1, 10)
	if c.ShouldFlush(1) {
		t.Fatal("flushed early")
	}
	c.Record(4, 0, 3, 6)
	if !c.ShouldFlush(2) {
		t.Fatal("window elapsed but no flush")
	}

	stats := c.Flush(2, map[string]int{"A": 3, "B": 1}, []float64{1, 2, 3, 4})
	if stats.Interactions != 8 || stats.Switches != 4 || stats.TotalPayoff != 16 {
		t.Errorf("activity %+v", stats)
	}
	if stats.Population != 4 || stats.Strategies != 2 || stats.Dominant != "A" {
		t.Errorf("census %+v", stats)
	}
	if math.Abs(stats.SwitchRate-0.5) > 1e-9 {
		t.Errorf("switch rate %v, want 0.5", stats.SwitchRate)
	}
	if c.ShouldFlush(3) {
		t.Error("window should restart after flush")
	}
	if c.Pending() {
		t.Error("nothing recorded since flush")
	}
}

func TestMetricsRows(t *testing.T) {
	rec := PopulationRecord{Iteration: 7, Counts: map[string]int{"A": 3, "B": 1}}
	rows := MetricsRows(rec, []string{"A", "B", "C"}, map[string]float64{"A": 2.5})
	if len(rows) != 3 {
		t.Fatalf("%d rows", len(rows))
	}
	if rows[0].Share != 0.75 || rows[0].MeanScore != 2.5 || rows[0].Iteration != 7 {
		t.Errorf("row A %+v", rows[0])
	}
	if rows[2].Count != 0 || rows[2].Share != 0 {
		t.Errorf("row C %+v", rows[2])
	}
}
