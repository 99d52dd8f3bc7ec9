package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/studygotchi/studygotchi-hub/internal/domain/leaderboard"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRepository implements leaderboard.Repository for PostgreSQL.
//
// Горячий рейтинг живёт в Redis sorted set; Postgres хранит периодические
// снапшоты (холодный fallback + диффы для уведомлений) и историю рангов.
type LeaderboardRepository struct {
	conn *Connection
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{conn: conn}
}

// snapshotEntry is the JSONB wire form of a leaderboard entry.
type snapshotEntry struct {
	Rank       int       `json:"rank"`
	PetID      string    `json:"pet_id"`
	UserID     string    `json:"user_id"`
	PetName    string    `json:"pet_name"`
	Experience int       `json:"experience"`
	Level      int       `json:"level"`
	StageEmoji string    `json:"stage_emoji"`
	IsDead     bool      `json:"is_dead"`
	RankChange int       `json:"rank_change"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ─────────────────────────────────────────────────────────────────────────────
// SNAPSHOT OPERATIONS
// ─────────────────────────────────────────────────────────────────────────────

// SaveSnapshot saves a leaderboard snapshot with its entries as a single JSONB
// document. Snapshots are immutable once written.
func (r *LeaderboardRepository) SaveSnapshot(ctx context.Context, snapshot *leaderboard.Snapshot) error {
	entries := make([]snapshotEntry, 0, len(snapshot.Entries))
	for _, e := range snapshot.Entries {
		entries = append(entries, snapshotEntry{
			Rank:       int(e.Rank),
			PetID:      e.PetID,
			UserID:     e.UserID,
			PetName:    e.PetName,
			Experience: e.Experience,
			Level:      e.Level,
			StageEmoji: e.StageEmoji,
			IsDead:     e.IsDead,
			RankChange: int(e.RankChange),
			UpdatedAt:  e.UpdatedAt,
		})
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot entries: %w", err)
	}

	_, err = r.conn.Exec(ctx, `
		INSERT INTO leaderboard_snapshots (id, scope, entries, created_at)
		VALUES ($1, $2, $3, $4)
	`,
		snapshot.ID,
		string(snapshot.Scope),
		data,
		snapshot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return nil
}

// GetLatestSnapshot returns the latest snapshot for a scope.
func (r *LeaderboardRepository) GetLatestSnapshot(ctx context.Context, scope leaderboard.Scope) (*leaderboard.Snapshot, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT id, scope, entries, created_at
		FROM leaderboard_snapshots
		WHERE scope = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, string(scope))

	snapshot, err := scanSnapshot(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return snapshot, nil
}

// GetSnapshotAt returns the most recent snapshot taken at or before the given
// time. Used to answer "what was my rank yesterday".
func (r *LeaderboardRepository) GetSnapshotAt(ctx context.Context, scope leaderboard.Scope, at time.Time) (*leaderboard.Snapshot, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT id, scope, entries, created_at
		FROM leaderboard_snapshots
		WHERE scope = $1 AND created_at <= $2
		ORDER BY created_at DESC
		LIMIT 1
	`, string(scope), at)

	snapshot, err := scanSnapshot(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot at time: %w", err)
	}
	return snapshot, nil
}

// DeleteOldSnapshots removes snapshots older than the threshold and returns
// how many were deleted. Rank history is kept, only the heavy JSONB goes.
func (r *LeaderboardRepository) DeleteOldSnapshots(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	tag, err := r.conn.Exec(ctx, `
		DELETE FROM leaderboard_snapshots
		WHERE created_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old snapshots: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// RANK HISTORY OPERATIONS
// ─────────────────────────────────────────────────────────────────────────────

// SaveRankHistory appends one rank observation for a pet.
func (r *LeaderboardRepository) SaveRankHistory(ctx context.Context, entry leaderboard.RankHistoryEntry) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO rank_history (pet_id, scope, rank, experience, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		entry.PetID,
		string(entry.Scope),
		int(entry.Rank),
		entry.Experience,
		entry.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save rank history: %w", err)
	}

	return nil
}

// GetRankHistory returns rank observations for a pet within a time range,
// oldest first.
func (r *LeaderboardRepository) GetRankHistory(ctx context.Context, petID string, scope leaderboard.Scope, from, to time.Time) ([]leaderboard.RankHistoryEntry, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT pet_id, scope, rank, experience, recorded_at
		FROM rank_history
		WHERE pet_id = $1 AND scope = $2 AND recorded_at >= $3 AND recorded_at <= $4
		ORDER BY recorded_at ASC
	`, petID, string(scope), from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get rank history: %w", err)
	}
	defer rows.Close()

	history := make([]leaderboard.RankHistoryEntry, 0)
	for rows.Next() {
		var (
			entry    leaderboard.RankHistoryEntry
			scopeStr string
			rank     int
		)
		if err := rows.Scan(&entry.PetID, &scopeStr, &rank, &entry.Experience, &entry.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rank history entry: %w", err)
		}
		entry.Scope = leaderboard.Scope(scopeStr)
		entry.Rank = leaderboard.Rank(rank)
		history = append(history, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rank history: %w", err)
	}

	return history, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SCAN HELPERS
// ─────────────────────────────────────────────────────────────────────────────

func scanSnapshot(row pgx.Row) (*leaderboard.Snapshot, error) {
	var (
		snapshot leaderboard.Snapshot
		scopeStr string
		data     []byte
	)

	err := row.Scan(&snapshot.ID, &scopeStr, &data, &snapshot.CreatedAt)
	if IsNoRows(err) {
		return nil, shared.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}

	var entries []snapshotEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("corrupt snapshot entries: %w", err)
	}

	snapshot.Scope = leaderboard.Scope(scopeStr)
	snapshot.Entries = make([]*leaderboard.Entry, 0, len(entries))
	for _, e := range entries {
		snapshot.Entries = append(snapshot.Entries, &leaderboard.Entry{
			Rank:       leaderboard.Rank(e.Rank),
			PetID:      e.PetID,
			UserID:     e.UserID,
			PetName:    e.PetName,
			Experience: e.Experience,
			Level:      e.Level,
			StageEmoji: e.StageEmoji,
			IsDead:     e.IsDead,
			RankChange: leaderboard.RankChange(e.RankChange),
			UpdatedAt:  e.UpdatedAt,
		})
	}

	return &snapshot, nil
}
