// Package store persists runs and their per-iteration census in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/evogrid/telemetry"
)

// Run describes one simulation run.
type Run struct {
	ID         string
	Game       string
	Dynamic    string
	Size       int
	Seed       uint64
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
	Iterations int
	StableAt   int // -1 when never stable
	Config     string
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// SQLiteStore keeps runs, census rows and events in one database file.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// CreateRun inserts run, or replaces the row of a run with the same ID.
func (s *SQLiteStore) CreateRun(ctx context.Context, run Run) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, game, dynamic, size, seed, started_at, iterations, stable_at, config)
		VALUES (?, ?, ?, ?, ?, ?, 0, -1, ?)
		ON CONFLICT(id) DO UPDATE SET
			game = excluded.game,
			dynamic = excluded.dynamic,
			size = excluded.size,
			seed = excluded.seed,
			started_at = excluded.started_at,
			config = excluded.config
	`, run.ID, run.Game, run.Dynamic, run.Size, int64(run.Seed), run.StartedAt.UTC().Format(time.RFC3339Nano), run.Config)
	if err != nil {
		return fmt.Errorf("create run %s: %w", run.ID, err)
	}
	return nil
}

// AppendCensus stores one census record for runID.
func (s *SQLiteStore) AppendCensus(ctx context.Context, runID string, rec telemetry.PopulationRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, name := range rec.Names() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO census (run_id, iteration, strategy, count)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(run_id, iteration, strategy) DO UPDATE SET
				count = excluded.count
		`, runID, rec.Iteration, name, rec.Counts[name])
		if err != nil {
			return fmt.Errorf("append census %s@%d: %w", runID, rec.Iteration, err)
		}
	}
	return tx.Commit()
}

// AppendEvent stores a stability, extinction or fixation event.
func (s *SQLiteStore) AppendEvent(ctx context.Context, runID string, e telemetry.Event) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO events (run_id, iteration, type, strategy, description)
		VALUES (?, ?, ?, ?, ?)
	`, runID, e.Iteration, string(e.Type), e.Strategy, e.Description)
	return err
}

// FinishRun records the final iteration count and stability point.
func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, iterations, stableAt int) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, iterations = ?, stable_at = ? WHERE id = ?
	`, time.Now().UTC().Format(time.RFC3339Nano), iterations, stableAt, runID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: no such run", runID)
	}
	return nil
}

// GetRun loads a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (Run, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Run{}, false, err
	}

	var (
		run      Run
		seed     int64
		started  string
		finished sql.NullString
	)
	err = db.QueryRowContext(ctx, `
		SELECT id, game, dynamic, size, seed, started_at, finished_at, iterations, stable_at, config
		FROM runs WHERE id = ?
	`, runID).Scan(&run.ID, &run.Game, &run.Dynamic, &run.Size, &seed, &started, &finished, &run.Iterations, &run.StableAt, &run.Config)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, false, nil
		}
		return Run{}, false, err
	}
	run.Seed = uint64(seed)
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return Run{}, false, fmt.Errorf("decode run %s: %w", runID, err)
	}
	if finished.Valid {
		if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished.String); err != nil {
			return Run{}, false, fmt.Errorf("decode run %s: %w", runID, err)
		}
	}
	return run, true, nil
}

// Census returns the stored census of runID ordered by iteration.
func (s *SQLiteStore) Census(ctx context.Context, runID string) ([]telemetry.PopulationRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT iteration, strategy, count FROM census
		WHERE run_id = ?
		ORDER BY iteration, strategy
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []telemetry.PopulationRecord
	for rows.Next() {
		var (
			iteration, count int
			name             string
		)
		if err := rows.Scan(&iteration, &name, &count); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].Iteration != iteration {
			out = append(out, telemetry.PopulationRecord{Iteration: iteration, Counts: make(map[string]int)})
		}
		out[len(out)-1].Counts[name] = count
	}
	return out, rows.Err()
}

// Events returns the stored events of runID in insertion order.
func (s *SQLiteStore) Events(ctx context.Context, runID string) ([]telemetry.Event, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT iteration, type, strategy, description FROM events
		WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []telemetry.Event
	for rows.Next() {
		var (
			e   telemetry.Event
			typ string
		)
		if err := rows.Scan(&e.Iteration, &typ, &e.Strategy, &e.Description); err != nil {
			return nil, err
		}
		e.Type = telemetry.EventType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("sqlite store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			game TEXT NOT NULL,
			dynamic TEXT NOT NULL,
			size INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			iterations INTEGER NOT NULL,
			stable_at INTEGER NOT NULL,
			config TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS census (
			run_id TEXT NOT NULL,
			iteration INTEGER NOT NULL,
			strategy TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (run_id, iteration, strategy)
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			iteration INTEGER NOT NULL,
			type TEXT NOT NULL,
			strategy TEXT NOT NULL,
			description TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
