package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/leaderboard"
	"github.com/studygotchi/studygotchi-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Топ питомцев по опыту: глобальный или в рамках класса. Горячий
// рейтинг живёт в Redis sorted set; при промахе берём последний
// снапшот из Postgres.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery содержит параметры запроса лидерборда.
type GetLeaderboardQuery struct {
	// ClassroomID - пустая строка = глобальный рейтинг.
	ClassroomID string

	// Limit - количество записей (по умолчанию 20, максимум 100).
	Limit int

	// IncludeRankChange - включать изменение позиции с прошлого снапшота.
	IncludeRankChange bool
}

// Validate проверяет корректность параметров запроса.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	return nil
}

// LeaderboardEntryDTO - запись лидерборда.
type LeaderboardEntryDTO struct {
	// Rank - позиция в рейтинге (начиная с 1).
	Rank int `json:"rank"`

	// Medal - медаль для топ-3, пустая строка ниже.
	Medal string `json:"medal,omitempty"`

	// PetID - идентификатор питомца.
	PetID string `json:"pet_id"`

	// PetName - имя питомца.
	PetName string `json:"pet_name"`

	// OwnerName - отображаемое имя владельца.
	OwnerName string `json:"owner_name"`

	// Experience - опыт питомца.
	Experience int `json:"experience"`

	// Level - уровень питомца.
	Level int `json:"level"`

	// RankChange - изменение позиции (+ вверх, - вниз, 0 стабильно).
	RankChange int `json:"rank_change"`

	// RankDirection - направление изменения: "up", "down", "stable", "new".
	RankDirection string `json:"rank_direction"`
}

// GetLeaderboardResult содержит результат запроса лидерборда.
type GetLeaderboardResult struct {
	// Entries - записи лидерборда.
	Entries []LeaderboardEntryDTO `json:"entries"`

	// Scope - область рейтинга.
	Scope string `json:"scope"`

	// FromSnapshot - ответ собран из снапшота, а не горячего рейтинга.
	FromSnapshot bool `json:"from_snapshot"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardHandler обрабатывает запрос лидерборда.
type GetLeaderboardHandler struct {
	cache     leaderboard.Cache
	snapshots leaderboard.Repository
	userRepo  user.Repository
}

// NewGetLeaderboardHandler создаёт новый обработчик.
func NewGetLeaderboardHandler(
	cache leaderboard.Cache,
	snapshots leaderboard.Repository,
	userRepo user.Repository,
) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		cache:     cache,
		snapshots: snapshots,
		userRepo:  userRepo,
	}
}

// Handle выполняет запрос.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_leaderboard: %w", err)
	}

	scope := leaderboard.ScopeGlobal
	if q.ClassroomID != "" {
		scope = leaderboard.ScopeForClassroom(q.ClassroomID)
	}

	entries, fromSnapshot, err := h.loadEntries(ctx, scope, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: %w", err)
	}

	ownerNames := h.ownerNames(ctx, entries)

	dtos := make([]LeaderboardEntryDTO, 0, len(entries))
	for _, e := range entries {
		dto := LeaderboardEntryDTO{
			Rank:          int(e.Rank),
			Medal:         e.Rank.Medal(),
			PetID:         e.PetID,
			PetName:       e.PetName,
			OwnerName:     ownerNames[e.UserID],
			Experience:    e.Experience,
			Level:         e.Level,
			RankDirection: string(e.Direction()),
		}
		if q.IncludeRankChange {
			dto.RankChange = int(e.RankChange)
		}
		dtos = append(dtos, dto)
	}

	return &GetLeaderboardResult{
		Entries:      dtos,
		Scope:        scope.String(),
		FromSnapshot: fromSnapshot,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

// loadEntries читает горячий рейтинг, при промахе - последний снапшот.
func (h *GetLeaderboardHandler) loadEntries(ctx context.Context, scope leaderboard.Scope, limit int) ([]*leaderboard.Entry, bool, error) {
	entries, err := h.cache.GetTop(ctx, scope, limit)
	if err == nil && len(entries) > 0 {
		return entries, false, nil
	}

	snapshot, err := h.snapshots.GetLatestSnapshot(ctx, scope)
	if err != nil {
		return nil, false, fmt.Errorf("both hot ranking and snapshot unavailable: %w", err)
	}

	top := snapshot.Top(limit)
	return top, true, nil
}

// ownerNames подтягивает имена владельцев одним запросом.
func (h *GetLeaderboardHandler) ownerNames(ctx context.Context, entries []*leaderboard.Entry) map[string]string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}

	names := make(map[string]string, len(ids))
	users, err := h.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return names
	}
	for _, u := range users {
		names[u.ID] = u.DisplayName
	}
	return names
}
