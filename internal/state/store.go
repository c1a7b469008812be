// Package state persists intermediate pipeline stage payloads so an
// interrupted collection run can resume from its most advanced stage.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Stage names one checkpoint of the collection pipeline.
type Stage string

const (
	StageList     Stage = "list"     // raw species references from the API
	StageFiltered Stage = "filtered" // references surviving the accepted-names filter
	StageDetails  Stage = "details"  // per-species detail records
)

// Store is the SQLite-backed stage cache.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore opens (or creates) the stage cache at dbPath.
// Use ":memory:" for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS stages (
		stage TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		updated INTEGER NOT NULL,
		payload BLOB NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save stores a stage payload, replacing any previous payload for the stage.
func (s *Store) Save(ctx context.Context, stage Stage, runID string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal stage payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO stages (stage, run_id, updated, payload) VALUES (?, ?, ?, ?)
		 ON CONFLICT(stage) DO UPDATE SET run_id=excluded.run_id, updated=excluded.updated, payload=excluded.payload`,
		string(stage), runID, time.Now().Unix(), data)
	if err != nil {
		return fmt.Errorf("save stage %s: %w", stage, err)
	}
	return nil
}

// Load reads a cached stage payload into out. It reports whether the stage
// was present.
func (s *Store) Load(ctx context.Context, stage Stage, out any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM stages WHERE stage = ?`, string(stage)).Scan(&data)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load stage %s: %w", stage, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("unmarshal stage %s: %w", stage, err)
	}
	return true, nil
}

// LastRun returns the run id of the most recently saved stage. It reports
// whether any stage is cached at all.
func (s *Store) LastRun(ctx context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var runID string
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id FROM stages ORDER BY updated DESC LIMIT 1`).Scan(&runID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load last run: %w", err)
	}
	return runID, true, nil
}

// Clear removes every cached stage (the equivalent of wiping temp files).
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM stages`); err != nil {
		return fmt.Errorf("clear stages: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
