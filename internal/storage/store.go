package storage

import (
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// JobRecord is a locally remembered submission.
type JobRecord struct {
	ID        string
	FileName  string
	MimeType  string
	Status    string // last observed server status
	Outcome   string // last workflow state
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SQLiteStore keeps the job ledger and the terminal result cache.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and if needed creates) the database at dbPath.
// Use ":memory:" for a throwaway store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Configure SQLite with WAL mode and busy timeout for better concurrency
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases consistent.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}

	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	// Set file permissions (only meaningful for on-disk databases)
	if dbPath != ":memory:" {
		if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("dbPath", dbPath).Msg("failed to restrict database permissions")
		}
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	jobsQuery := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		file_name TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		status TEXT NOT NULL,
		outcome TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(jobsQuery); err != nil {
		return fmt.Errorf("failed to create jobs table: %w", err)
	}

	resultsQuery := `
	CREATE TABLE IF NOT EXISTS result_cache (
		job_id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		payload BLOB NOT NULL,
		created_at DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(resultsQuery); err != nil {
		return fmt.Errorf("failed to create result_cache table: %w", err)
	}

	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordJob stores a newly submitted job. Re-recording an id resets it.
func (s *SQLiteStore) RecordJob(jobID, fileName, mimeType string, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO jobs (id, file_name, mime_type, status, outcome, error, created_at, updated_at)
		VALUES (?, ?, ?, 'processing', '', '', ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file_name = excluded.file_name,
			mime_type = excluded.mime_type,
			status = excluded.status,
			outcome = '',
			error = '',
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, jobID, fileName, mimeType, createdAt, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record job: %w", err)
	}
	return nil
}

// FinishJob stores the outcome of a workflow run. An empty status leaves the
// stored status untouched. Jobs that were never recorded (e.g. resumed by id
// from elsewhere) are created on the fly.
func (s *SQLiteStore) FinishJob(jobID, outcome, status, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	initialStatus := status
	if initialStatus == "" {
		initialStatus = "processing"
	}

	_, err := s.db.Exec(`
		INSERT INTO jobs (id, file_name, mime_type, status, outcome, error, created_at, updated_at)
		VALUES (?, '', '', ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = CASE WHEN ? = '' THEN jobs.status ELSE ? END,
			outcome = excluded.outcome,
			error = excluded.error,
			updated_at = excluded.updated_at
	`, jobID, initialStatus, outcome, errMsg, now, now, status, status)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by id.
// Returns nil, nil if the job doesn't exist.
func (s *SQLiteStore) GetJob(jobID string) (*JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var j JobRecord
	err := s.db.QueryRow(`
		SELECT id, file_name, mime_type, status, outcome, error, created_at, updated_at
		FROM jobs WHERE id = ?`, jobID,
	).Scan(&j.ID, &j.FileName, &j.MimeType, &j.Status, &j.Outcome, &j.Error, &j.CreatedAt, &j.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query job: %w", err)
	}
	return &j, nil
}

// ListJobs returns the most recent jobs first. A limit of 0 or less returns
// all of them.
func (s *SQLiteStore) ListJobs(limit int) ([]JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, file_name, mime_type, status, outcome, error, created_at, updated_at
		FROM jobs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []JobRecord
	for rows.Next() {
		var j JobRecord
		if err := rows.Scan(&j.ID, &j.FileName, &j.MimeType, &j.Status, &j.Outcome, &j.Error, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}

	return jobs, rows.Err()
}
