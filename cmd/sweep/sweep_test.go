package main

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/games"
)

func TestParamVectorRoundTrip(t *testing.T) {
	pv, err := NewParamVector([]string{"fermi_beta", "radius"})
	if err != nil {
		t.Fatal(err)
	}
	raw := []float64{0.5, 2}
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("param %d: %v -> %v", i, raw[i], back[i])
		}
	}

	clamped := pv.Clamp([]float64{-1, 10})
	if clamped[0] != 0.01 || clamped[1] != 4 {
		t.Errorf("Clamp = %v", clamped)
	}

	if _, err := NewParamVector([]string{"gravity"}); err == nil {
		t.Error("expected error for unknown parameter")
	}
}

func TestGridCoversEveryCombination(t *testing.T) {
	pv, _ := NewParamVector([]string{"fermi_beta", "radius"})
	points := pv.Grid(3)
	if len(points) != 9 {
		t.Fatalf("%d points, want 9", len(points))
	}
	first, last := points[0], points[len(points)-1]
	if first[0] != 0.01 || first[1] != 0 || math.Abs(last[0]-2) > 1e-9 || math.Abs(last[1]-4) > 1e-9 {
		t.Errorf("endpoints %v %v", first, last)
	}
	if points[1][0] != first[0] || points[1][1] == first[1] {
		t.Errorf("last parameter should vary fastest: %v", points[:2])
	}
}

func TestApplyToConfig(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv, _ := NewParamVector([]string{"radius", "stability_range"})
	pv.ApplyToConfig(cfg, []float64{0.5, 12.4})
	if cfg.Spatial.Radius != 0.5 || cfg.Telemetry.StabilityRange != 12 {
		t.Errorf("radius=%v range=%d", cfg.Spatial.Radius, cfg.Telemetry.StabilityRange)
	}
	if !cfg.Derived.RandomPairs {
		t.Error("derived values not refreshed")
	}
}

func TestEvaluateAndWrite(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Spatial.Size = 6
	cfg.Dynamics.Kind = "fermi"
	cfg.Telemetry.StabilityWindow = 3
	cfg.Refresh()

	def := games.PrisonersDilemma()
	pv, _ := NewParamVector([]string{"fermi_beta"})
	e := NewEvaluator(pv, def, cfg, []uint64{1, 2}, 5)

	r, err := e.Evaluate(context.Background(), []float64{0.5})
	if err != nil {
		t.Fatal(err)
	}
	total := 0.0
	for _, name := range def.Names() {
		total += r.ShareMean[name]
	}
	if math.Abs(total-1) > 1e-9 {
		t.Errorf("shares sum to %v", total)
	}
	if r.Iterations < 1 || r.Iterations > 5 {
		t.Errorf("mean iterations %v", r.Iterations)
	}
	if cfg.Dynamics.FermiBeta != 0.1 {
		t.Errorf("base config modified: beta=%v", cfg.Dynamics.FermiBeta)
	}

	path := filepath.Join(t.TempDir(), "sweep.csv")
	if err := writeResults(path, e, []PointResult{r}); err != nil {
		t.Fatal(err)
	}
	var rows []SweepRow
	if err := gocsv.UnmarshalFile(mustOpen(t, path), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != len(def.Strategies) {
		t.Fatalf("%d rows, want %d", len(rows), len(def.Strategies))
	}
	if rows[0].FermiBeta != 0.5 || rows[0].Radius != 1 {
		t.Errorf("row params beta=%v radius=%v", rows[0].FermiBeta, rows[0].Radius)
	}
}

func mustOpen(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}
