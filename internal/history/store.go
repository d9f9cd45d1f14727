package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/taskdeck/taskdeck/internal/supervisor"
	_ "modernc.org/sqlite"
)

// Run is one recorded task execution
type Run struct {
	ID         string
	TaskID     string
	PID        int
	Status     string // running, stopped, failed
	Reason     string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is live
}

// Store provides SQLite-backed run history
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordStart inserts a run row in the running state
func (s *Store) RecordStart(rec supervisor.RunRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, task_id, pid, status, started_at)
		VALUES (?, ?, ?, 'running', ?)
	`, rec.ID, rec.TaskID, rec.PID, rec.StartedAt)
	return err
}

// RecordExit resolves a run with its terminal status
func (s *Store) RecordExit(id string, finishedAt time.Time, status, reason string) error {
	_, err := s.db.Exec(`
		UPDATE runs SET status = ?, reason = ?, finished_at = ? WHERE id = ?
	`, status, reason, finishedAt, id)
	return err
}

// Recent returns the most recent runs, newest first
func (s *Store) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, task_id, pid, status, reason, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RecentForTask returns the most recent runs of one task, newest first
func (s *Store) RecentForTask(taskID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, task_id, pid, status, reason, started_at, finished_at
		FROM runs WHERE task_id = ? ORDER BY started_at DESC LIMIT ?
	`, taskID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Prune deletes resolved runs older than the cutoff
func (s *Store) Prune(before time.Time) (int64, error) {
	res, err := s.db.Exec(`
		DELETE FROM runs WHERE status != 'running' AND started_at < ?
	`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanRun(rows *sql.Rows) (Run, error) {
	var run Run
	var reason sql.NullString
	var finished sql.NullTime

	err := rows.Scan(&run.ID, &run.TaskID, &run.PID, &run.Status, &reason, &run.StartedAt, &finished)
	if err != nil {
		return Run{}, err
	}
	if reason.Valid {
		run.Reason = reason.String
	}
	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	return run, nil
}
