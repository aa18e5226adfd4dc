// Package history provides the operation catalog for redduck.
//
// Every CLI operation and backup is recorded in a small SQLite database
// so past activity can be inspected with `redduck history`.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// OperationStatus represents the outcome of a recorded operation.
type OperationStatus string

const (
	StatusRunning   OperationStatus = "running"
	StatusSucceeded OperationStatus = "succeeded"
	StatusFailed    OperationStatus = "failed"
)

// Operation is a single recorded CLI operation.
type Operation struct {
	ID          string
	Command     string
	Detail      string
	Status      OperationStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
	DurationMS  int64
}

// Backup is a recorded database backup.
type Backup struct {
	ID        string
	Path      string
	Format    string
	CreatedAt time.Time
}

// Store implements the operation catalog using SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new catalog store instance.
func NewStore() *Store {
	return &Store{}
}

// NewStoreWithDB wraps an existing database connection. Used for testing.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens a connection to the SQLite catalog database.
// Use ":memory:" for an in-memory database.
func (s *Store) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create history directory: %w", err)
			}
		}
		dsn = fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping history database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the catalog database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// RecordStart records the beginning of an operation and returns it.
func (s *Store) RecordStart(command, detail string) (*Operation, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	op := &Operation{
		ID:        generateID(),
		Command:   command,
		Detail:    detail,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO operations (id, command, detail, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		op.ID, op.Command, op.Detail, op.Status, op.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record operation: %w", err)
	}

	return op, nil
}

// RecordResult marks an operation as completed. A nil opErr records success,
// otherwise the operation is marked failed with the error message.
func (s *Store) RecordResult(id string, opErr error) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var startedAt time.Time
	err := s.db.QueryRow(`SELECT started_at FROM operations WHERE id = ?`, id).Scan(&startedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("operation not found: %s", id)
	}
	if err != nil {
		return fmt.Errorf("failed to get operation start time: %w", err)
	}

	now := time.Now().UTC()
	status := StatusSucceeded
	var errorPtr *string
	if opErr != nil {
		status = StatusFailed
		msg := opErr.Error()
		errorPtr = &msg
	}

	_, err = s.db.Exec(
		`UPDATE operations SET status = ?, completed_at = ?, error = ?, duration_ms = ? WHERE id = ?`,
		status, now, errorPtr, now.Sub(startedAt).Milliseconds(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update operation: %w", err)
	}

	return nil
}

// RecentOperations retrieves the most recent operations, newest first.
// A limit of 0 or less returns all operations.
func (s *Store) RecentOperations(limit int) ([]*Operation, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	query := `SELECT id, command, detail, status, started_at, completed_at, error, duration_ms
		 FROM operations ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ops []*Operation
	for rows.Next() {
		op := &Operation{}
		var completedAt sql.NullTime
		var errMsg sql.NullString
		var durationMS sql.NullInt64

		err := rows.Scan(&op.ID, &op.Command, &op.Detail, &op.Status, &op.StartedAt, &completedAt, &errMsg, &durationMS)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}

		if completedAt.Valid {
			op.CompletedAt = &completedAt.Time
		}
		if errMsg.Valid {
			op.Error = errMsg.String
		}
		if durationMS.Valid {
			op.DurationMS = durationMS.Int64
		}
		ops = append(ops, op)
	}

	return ops, rows.Err()
}

// RecordBackup records a completed database backup.
func (s *Store) RecordBackup(path, format string) (*Backup, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	b := &Backup{
		ID:        generateID(),
		Path:      path,
		Format:    format,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO backups (id, path, format, created_at) VALUES (?, ?, ?, ?)`,
		b.ID, b.Path, b.Format, b.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record backup: %w", err)
	}

	return b, nil
}

// Backups retrieves all recorded backups, newest first.
func (s *Store) Backups() ([]*Backup, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, path, format, created_at FROM backups ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var backups []*Backup
	for rows.Next() {
		b := &Backup{}
		if err := rows.Scan(&b.ID, &b.Path, &b.Format, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan backup: %w", err)
		}
		backups = append(backups, b)
	}

	return backups, rows.Err()
}

// LatestBackup retrieves the most recent backup, or nil if none exist.
func (s *Store) LatestBackup() (*Backup, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	b := &Backup{}
	err := s.db.QueryRow(
		`SELECT id, path, format, created_at FROM backups ORDER BY created_at DESC LIMIT 1`,
	).Scan(&b.ID, &b.Path, &b.Format, &b.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest backup: %w", err)
	}

	return b, nil
}
