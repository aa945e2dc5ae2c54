package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// GetCachedResult returns the cached payload for a job.
// Returns nil, nil if nothing is cached.
func (s *SQLiteStore) GetCachedResult(jobID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload []byte
	err := s.db.QueryRow("SELECT payload FROM result_cache WHERE job_id = ?", jobID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query result cache: %w", err)
	}
	return payload, nil
}

// SetCachedResult stores a terminal result payload.
func (s *SQLiteStore) SetCachedResult(jobID string, status string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO result_cache (job_id, status, payload, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			status = excluded.status,
			payload = excluded.payload,
			created_at = excluded.created_at
	`, jobID, status, payload, time.Now())
	if err != nil {
		return fmt.Errorf("failed to cache result: %w", err)
	}
	return nil
}

// PruneResults removes cached results older than maxAge and returns how many
// rows were deleted.
func (s *SQLiteStore) PruneResults(maxAge time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	result, err := s.db.Exec("DELETE FROM result_cache WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune result cache: %w", err)
	}
	return result.RowsAffected()
}
