package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
	"github.com/studygotchi/studygotchi-hub/internal/domain/study"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDY REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StudyRepository implements study.Repository for PostgreSQL.
type StudyRepository struct {
	conn *Connection
}

// NewStudyRepository creates a new StudyRepository.
func NewStudyRepository(conn *Connection) *StudyRepository {
	return &StudyRepository{conn: conn}
}

const studyLogColumns = "id, user_id, pet_id, content, created_at"

// SaveLog persists a study note.
func (r *StudyRepository) SaveLog(ctx context.Context, log *study.Log) error {
	query := `
		INSERT INTO study_logs (id, user_id, pet_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.conn.Exec(ctx, query,
		log.ID, log.UserID, log.PetID, log.Content, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save study log: %w", err)
	}

	return nil
}

// GetLog returns a study note by ID.
func (r *StudyRepository) GetLog(ctx context.Context, id string) (*study.Log, error) {
	query := fmt.Sprintf("SELECT %s FROM study_logs WHERE id = $1", studyLogColumns)
	row := r.conn.QueryRow(ctx, query, id)
	return r.scanLog(row)
}

// GetLogsByUser returns a user's study notes, newest first.
func (r *StudyRepository) GetLogsByUser(ctx context.Context, userID string, limit int) ([]*study.Log, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM study_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, studyLogColumns)

	rows, err := r.conn.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query study logs: %w", err)
	}
	defer rows.Close()

	return r.scanLogs(rows)
}

// DeleteLog removes a study note.
func (r *StudyRepository) DeleteLog(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, "DELETE FROM study_logs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete study log: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrStudyLogNotFound
	}
	return nil
}

// CountByUser returns the number of stored notes for a user.
func (r *StudyRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM study_logs WHERE user_id = $1",
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count study logs: %w", err)
	}
	return count, nil
}

// GetOldestLog returns the oldest stored note for a user.
func (r *StudyRepository) GetOldestLog(ctx context.Context, userID string) (*study.Log, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM study_logs
		WHERE user_id = $1
		ORDER BY created_at ASC
		LIMIT 1
	`, studyLogColumns)

	row := r.conn.QueryRow(ctx, query, userID)
	return r.scanLog(row)
}

// EvictOldest deletes the oldest notes beyond the keep limit and
// returns the evicted rows, oldest first.
func (r *StudyRepository) EvictOldest(ctx context.Context, userID string, keep int) ([]*study.Log, error) {
	query := fmt.Sprintf(`
		DELETE FROM study_logs
		WHERE id IN (
			SELECT id FROM study_logs
			WHERE user_id = $1
			ORDER BY created_at DESC
			OFFSET $2
		)
		RETURNING %s
	`, studyLogColumns)

	rows, err := r.conn.Query(ctx, query, userID, keep)
	if err != nil {
		return nil, fmt.Errorf("failed to evict study logs: %w", err)
	}
	defer rows.Close()

	evicted, err := r.scanLogs(rows)
	if err != nil {
		return nil, err
	}

	// Oldest first, so the caller charges intelligence loss in order.
	for i, j := 0, len(evicted)-1; i < j; i, j = i+1, j-1 {
		evicted[i], evicted[j] = evicted[j], evicted[i]
	}

	return evicted, nil
}

// GetLogsInRange returns a user's notes within a time range, oldest first.
func (r *StudyRepository) GetLogsInRange(ctx context.Context, userID string, from, to time.Time) ([]*study.Log, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM study_logs
		WHERE user_id = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at ASC
	`, studyLogColumns)

	rows, err := r.conn.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query study logs in range: %w", err)
	}
	defer rows.Close()

	return r.scanLogs(rows)
}

// CountSince returns the number of notes written since the given time.
func (r *StudyRepository) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM study_logs WHERE user_id = $1 AND created_at >= $2",
		userID, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count study logs since: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *StudyRepository) scanLog(row pgx.Row) (*study.Log, error) {
	var log study.Log
	err := row.Scan(&log.ID, &log.UserID, &log.PetID, &log.Content, &log.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrStudyLogNotFound
		}
		return nil, fmt.Errorf("failed to scan study log: %w", err)
	}
	return &log, nil
}

func (r *StudyRepository) scanLogs(rows pgx.Rows) ([]*study.Log, error) {
	logs := make([]*study.Log, 0)
	for rows.Next() {
		log, err := r.scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
