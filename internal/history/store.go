// Package history persists a record of completed publish cycles in SQLite so
// operators can review what the watcher did and when.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; stale databases must be deleted by the operator.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Cycle statuses recorded by the watcher.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Cycle is one recorded publish attempt.
type Cycle struct {
	ID            int64
	CycleID       string
	StartedAt     time.Time
	FinishedAt    time.Time
	Status        string
	Reason        string
	FPS           float64
	FrameCount    int
	RebuiltFrames int
	ChangedInputs int
	ChangedFrames int
}

// Store manages publish cycle persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// Record appends one cycle row.
func (s *Store) Record(ctx context.Context, cycle Cycle) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO publish_cycles (
            cycle_id, started_at, finished_at, status, reason,
            fps, frame_count, rebuilt_frames, changed_inputs, changed_frames
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cycle.CycleID,
		cycle.StartedAt.UTC().Format(time.RFC3339Nano),
		cycle.FinishedAt.UTC().Format(time.RFC3339Nano),
		cycle.Status,
		cycle.Reason,
		cycle.FPS,
		cycle.FrameCount,
		cycle.RebuiltFrames,
		cycle.ChangedInputs,
		cycle.ChangedFrames,
	)
	if err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}
	return nil
}

// Recent returns up to limit cycles, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Cycle, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, cycle_id, started_at, finished_at, status, reason,
                fps, frame_count, rebuilt_frames, changed_inputs, changed_frames
         FROM publish_cycles
         ORDER BY id DESC
         LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	var cycles []Cycle
	for rows.Next() {
		var (
			cycle    Cycle
			started  string
			finished string
		)
		if err := rows.Scan(
			&cycle.ID,
			&cycle.CycleID,
			&started,
			&finished,
			&cycle.Status,
			&cycle.Reason,
			&cycle.FPS,
			&cycle.FrameCount,
			&cycle.RebuiltFrames,
			&cycle.ChangedInputs,
			&cycle.ChangedFrames,
		); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, started); err == nil {
			cycle.StartedAt = ts
		}
		if ts, err := time.Parse(time.RFC3339Nano, finished); err == nil {
			cycle.FinishedAt = ts
		}
		cycles = append(cycles, cycle)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycles: %w", err)
	}
	return cycles, nil
}
