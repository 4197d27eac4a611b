// Package storage persists the local run ledger: one row per ingestion
// run plus the per-file parse failures recorded during it.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when no run matches a lookup.
var ErrNotFound = errors.New("not found")

// Run is one completed ingestion run.
type Run struct {
	ID            string    `db:"id" json:"id"`
	Root          string    `db:"root" json:"root"`
	StartedAt     time.Time `db:"started_at" json:"started_at"`
	DurationMS    int64     `db:"duration_ms" json:"duration_ms"`
	FilesParsed   int       `db:"files_parsed" json:"files_parsed"`
	FilesFailed   int       `db:"files_failed" json:"files_failed"`
	Nodes         int64     `db:"nodes" json:"nodes"`
	Relationships int64     `db:"relationships" json:"relationships"`
	Batches       int       `db:"batches" json:"batches"`
}

// Duration returns the recorded wall-clock duration.
func (r *Run) Duration() time.Duration {
	return time.Duration(r.DurationMS) * time.Millisecond
}

// RunError is one per-file parse failure within a run.
type RunError struct {
	RunID   string `db:"run_id" json:"run_id"`
	Path    string `db:"path" json:"path"`
	Message string `db:"message" json:"message"`
}

// RunStore keeps run history in a local SQLite database.
type RunStore struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewRunStore opens the ledger at path, creating the file and its parent
// directory as needed.
func NewRunStore(path string, logger *logrus.Logger) (*RunStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("connect to sqlite: %w", err)
	}

	// WAL keeps a status read from blocking a run being recorded
	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	store := &RunStore{db: db, logger: logger}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

func (s *RunStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		root TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		duration_ms INTEGER,
		files_parsed INTEGER,
		files_failed INTEGER,
		nodes INTEGER,
		relationships INTEGER,
		batches INTEGER
	);

	CREATE TABLE IF NOT EXISTS run_errors (
		run_id TEXT NOT NULL,
		path TEXT NOT NULL,
		message TEXT,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_run_errors_run ON run_errors(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *RunStore) Close() error {
	return s.db.Close()
}

// SaveRun records a completed run and its parse failures in one
// transaction. A run without an ID is assigned one; re-saving an ID
// replaces the run and its failures.
func (s *RunStore) SaveRun(ctx context.Context, run *Run, errs []RunError) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
		(id, root, started_at, duration_ms, files_parsed, files_failed,
		 nodes, relationships, batches)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Root, run.StartedAt, run.DurationMS,
		run.FilesParsed, run.FilesFailed,
		run.Nodes, run.Relationships, run.Batches)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM run_errors WHERE run_id = ?`, run.ID); err != nil {
		return err
	}
	for _, e := range errs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_errors (run_id, path, message) VALUES (?, ?, ?)`,
			run.ID, e.Path, e.Message); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"run":          run.ID,
		"files_parsed": run.FilesParsed,
		"files_failed": run.FilesFailed,
	}).Debug("Run recorded")
	return nil
}

// LatestRun returns the most recent run.
func (s *RunStore) LatestRun(ctx context.Context) (*Run, error) {
	var run Run
	query := `SELECT * FROM runs ORDER BY started_at DESC, id DESC LIMIT 1`

	err := s.db.GetContext(ctx, &run, query)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// RecentRuns lists runs newest first.
func (s *RunStore) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	var runs []*Run
	query := `SELECT * FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`

	if err := s.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, err
	}
	return runs, nil
}

// RunErrors lists the parse failures of a run in path order.
func (s *RunStore) RunErrors(ctx context.Context, runID string) ([]RunError, error) {
	var out []RunError
	query := `SELECT * FROM run_errors WHERE run_id = ? ORDER BY path`

	if err := s.db.SelectContext(ctx, &out, query, runID); err != nil {
		return nil, err
	}
	return out, nil
}
