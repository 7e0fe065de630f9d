package telemetry

import (
	"os"
	"path/filepath"
	"testing"
)

func testSnapshot() *Snapshot {
	s := &Snapshot{
		Version:   SnapshotVersion,
		Seed:      42,
		Game:      "Prisoner's Dilemma",
		Dynamic:   "replicator",
		Size:      2,
		Iteration: 1000,
	}
	for i, name := range []string{"Cooperate", "Defect", "Defect", "TitForTat"} {
		s.Cells = append(s.Cells, CellState{Row: i / 2, Col: i % 2, Strategy: name, Score: i * 3, HistoryLen: 1})
	}
	return s
}

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	snapshot := testSnapshot()
	snapshot.Event = &Event{Type: EventStable, Iteration: 1000, Description: "test"}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Snapshot file not created at %s", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if loaded.Seed != 42 || loaded.Iteration != 1000 || loaded.Size != 2 {
		t.Errorf("header mismatch: %+v", loaded)
	}
	if got := loaded.Counts(); got["Defect"] != 2 || got["Cooperate"] != 1 {
		t.Errorf("Counts = %v", got)
	}
	if loaded.Cells[3] != snapshot.Cells[3] {
		t.Errorf("cell mismatch: %+v vs %+v", loaded.Cells[3], snapshot.Cells[3])
	}
	if loaded.Event == nil || loaded.Event.Type != EventStable {
		t.Errorf("event not loaded: %+v", loaded.Event)
	}
}

func TestSnapshotFilename(t *testing.T) {
	tmpDir := t.TempDir()
	tests := []struct {
		name  string
		event *Event
		want  string
	}{
		{"plain", nil, "snapshot_1000.json"},
		{"with event", &Event{Type: EventFixation}, "snapshot_1000_fixation.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSnapshot()
			s.Event = tt.event
			path, err := SaveSnapshot(s, tmpDir)
			if err != nil {
				t.Fatal(err)
			}
			if want := filepath.Join(tmpDir, tt.want); path != want {
				t.Errorf("path = %s, want %s", path, want)
			}
		})
	}
}

func TestLoadSnapshotRejectsMismatch(t *testing.T) {
	s := testSnapshot()
	s.Cells = s.Cells[:3]
	path, err := SaveSnapshot(s, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Error("expected error for truncated cells")
	}
}
