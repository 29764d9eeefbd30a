// Package history keeps a local journal of deploy attempts in SQLite. The
// journal is informational: failures to record never fail a deploy.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DeployEvent is one recorded deploy action.
type DeployEvent struct {
	ID         int64     `json:"id"`
	Revision   string    `json:"revision"`
	Action     string    `json:"action"` // upload | assets | activate | prune
	Status     string    `json:"status"` // success | failed
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Store is the journal database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("could not create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("could not open journal %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not open journal %s: %w", path, err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS deploy_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		revision TEXT NOT NULL,
		action TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL
	)`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("could not create journal schema: %w", err)
	}
	return nil
}

// Record appends one event to the journal.
func (s *Store) Record(ev DeployEvent) error {
	_, err := s.db.Exec(
		"INSERT INTO deploy_events (revision, action, status, error, started_at, finished_at) VALUES (?, ?, ?, ?, ?, ?)",
		ev.Revision, ev.Action, ev.Status, ev.Error, ev.StartedAt, ev.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("could not record deploy event: %w", err)
	}
	return nil
}

// Recent returns the newest events, most recent first.
func (s *Store) Recent(limit int) ([]DeployEvent, error) {
	rows, err := s.db.Query(
		"SELECT id, revision, action, status, error, started_at, finished_at FROM deploy_events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("could not query deploy events: %w", err)
	}
	defer rows.Close()

	var events []DeployEvent
	for rows.Next() {
		var ev DeployEvent
		if err := rows.Scan(&ev.ID, &ev.Revision, &ev.Action, &ev.Status, &ev.Error, &ev.StartedAt, &ev.FinishedAt); err != nil {
			return nil, fmt.Errorf("could not scan deploy event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Close closes the journal database.
func (s *Store) Close() error {
	return s.db.Close()
}
