package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the grid state at one iteration.
type Snapshot struct {
	Version   int    `json:"version"`
	Seed      uint64 `json:"seed"`
	Game      string `json:"game"`
	Dynamic   string `json:"dynamic"`
	Size      int    `json:"size"`
	Iteration int    `json:"iteration"`

	Cells []CellState `json:"cells"` // row-major

	Event *Event `json:"event,omitempty"`
}

// CellState is one slot of the grid.
type CellState struct {
	Row        int    `json:"row"`
	Col        int    `json:"col"`
	Strategy   string `json:"strategy"`
	Score      int    `json:"score"`
	PrevScore  int    `json:"prev_score,omitempty"`
	Type       string `json:"type,omitempty"`
	HistoryLen int    `json:"history_len"`
}

// Counts tabulates the snapshot's cells per strategy.
func (s *Snapshot) Counts() map[string]int {
	counts := make(map[string]int)
	for _, c := range s.Cells {
		counts[c.Strategy]++
	}
	return counts
}

// SaveSnapshot writes a snapshot to dir and returns its path.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Iteration)
	if snapshot.Event != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Event.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Iteration, sanitized)
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot %s: version %d, want %d", path, snapshot.Version, SnapshotVersion)
	}
	if len(snapshot.Cells) != snapshot.Size*snapshot.Size {
		return nil, fmt.Errorf("snapshot %s: %d cells for size %d", path, len(snapshot.Cells), snapshot.Size)
	}
	return &snapshot, nil
}
