package telemetry

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
)

// EventType identifies the kind of population event.
type EventType string

const (
	EventStable     EventType = "stable"
	EventExtinction EventType = "extinction"
	EventFixation   EventType = "fixation"
)

// Event is a notable change in the population.
type Event struct {
	Type        EventType `csv:"type" json:"type"`
	Iteration   int       `csv:"iteration" json:"iteration"`
	Strategy    string    `csv:"strategy" json:"strategy,omitempty"`
	Description string    `csv:"description" json:"description"`
}

// LogEvent logs the event using slog.
func (e Event) LogEvent() {
	slog.Info("event",
		"type", string(e.Type),
		"iteration", e.Iteration,
		"strategy", e.Strategy,
		"description", e.Description,
	)
}

// StabilityDetector keeps a trailing window of census records and reports
// when every strategy's count has stayed within Range for a full window.
// It also reports strategies going extinct and a single strategy taking
// over the grid.
type StabilityDetector struct {
	// Rolling history (circular buffer)
	history     []PopulationRecord
	historySize int
	historyIdx  int
	historyFull bool

	rangeLimit int
	stableAt   int // iteration stability was first seen, -1 if never
	fixated    bool
	alive      map[string]bool
}

// NewStabilityDetector creates a detector over window records. A window
// below 2 is raised to 2.
func NewStabilityDetector(window, rangeLimit int) *StabilityDetector {
	if window < 2 {
		window = 2
	}
	return &StabilityDetector{
		history:     make([]PopulationRecord, window),
		historySize: window,
		rangeLimit:  rangeLimit,
		stableAt:    -1,
		alive:       make(map[string]bool),
	}
}

// Check adds rec to the window and returns the events it triggers. The
// stable event fires once per detector.
func (sd *StabilityDetector) Check(rec PopulationRecord) []Event {
	var events []Event

	for _, name := range rec.Names() {
		c := rec.Counts[name]
		if c > 0 {
			sd.alive[name] = true
			continue
		}
		if sd.alive[name] {
			delete(sd.alive, name)
			events = append(events, Event{
				Type:        EventExtinction,
				Iteration:   rec.Iteration,
				Strategy:    name,
				Description: fmt.Sprintf("%s died out", name),
			})
		}
	}
	// Strategies absent from the record entirely are extinct too.
	for _, name := range slices.Sorted(maps.Keys(sd.alive)) {
		if _, ok := rec.Counts[name]; !ok {
			delete(sd.alive, name)
			events = append(events, Event{
				Type:        EventExtinction,
				Iteration:   rec.Iteration,
				Strategy:    name,
				Description: fmt.Sprintf("%s died out", name),
			})
		}
	}

	if !sd.fixated && len(sd.alive) == 1 {
		for name := range sd.alive {
			sd.fixated = true
			events = append(events, Event{
				Type:        EventFixation,
				Iteration:   rec.Iteration,
				Strategy:    name,
				Description: fmt.Sprintf("%s occupies every slot", name),
			})
		}
	}

	sd.addToHistory(rec)

	if sd.stableAt < 0 && sd.historyFull && sd.withinRange() {
		sd.stableAt = rec.Iteration
		events = append(events, Event{
			Type:        EventStable,
			Iteration:   rec.Iteration,
			Description: fmt.Sprintf("counts varied by at most %d over %d iterations", sd.rangeLimit, sd.historySize),
		})
	}
	return events
}

// Stable reports whether stability has been detected.
func (sd *StabilityDetector) Stable() bool { return sd.stableAt >= 0 }

// StableAt returns the iteration stability was first detected, or -1.
func (sd *StabilityDetector) StableAt() int { return sd.stableAt }

func (sd *StabilityDetector) addToHistory(rec PopulationRecord) {
	sd.history[sd.historyIdx] = rec
	sd.historyIdx = (sd.historyIdx + 1) % sd.historySize
	if sd.historyIdx == 0 {
		sd.historyFull = true
	}
}

func (sd *StabilityDetector) getHistory() []PopulationRecord {
	if sd.historyFull {
		return sd.history
	}
	return sd.history[:sd.historyIdx]
}

// withinRange checks max-min of every strategy seen in the window.
func (sd *StabilityDetector) withinRange() bool {
	history := sd.getHistory()
	names := make(map[string]bool)
	for _, h := range history {
		for name := range h.Counts {
			names[name] = true
		}
	}
	for name := range names {
		lo, hi := -1, -1
		for _, h := range history {
			c := h.Counts[name]
			if lo < 0 || c < lo {
				lo = c
			}
			if c > hi {
				hi = c
			}
		}
		if hi-lo > sd.rangeLimit {
			return false
		}
	}
	return true
}
