package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/leaderboard"
	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PET RANK QUERY
// Позиция питомца в рейтинге с соседями: кого догоняем и кто дышит
// в спину. Ранг из горячего рейтинга, соседи из снапшота.
// ══════════════════════════════════════════════════════════════════════════════

// GetPetRankQuery содержит параметры запроса ранга.
type GetPetRankQuery struct {
	// UserID - владелец питомца.
	UserID string

	// ClassroomID - пустая строка = глобальный рейтинг.
	ClassroomID string

	// NeighborRange - сколько соседей показать с каждой стороны.
	NeighborRange int
}

// Validate проверяет корректность параметров запроса.
func (q *GetPetRankQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user_id is required")
	}
	if q.NeighborRange < 0 {
		return errors.New("neighbor_range cannot be negative")
	}
	if q.NeighborRange == 0 {
		q.NeighborRange = 2
	}
	if q.NeighborRange > 10 {
		q.NeighborRange = 10
	}
	return nil
}

// GetPetRankResult содержит результат запроса ранга.
type GetPetRankResult struct {
	// PetID - идентификатор питомца.
	PetID string `json:"pet_id"`

	// Rank - текущая позиция (0 = вне рейтинга).
	Rank int `json:"rank"`

	// Medal - медаль для топ-3.
	Medal string `json:"medal,omitempty"`

	// Scope - область рейтинга.
	Scope string `json:"scope"`

	// Neighbors - соседние записи, включая самого питомца.
	Neighbors []LeaderboardEntryDTO `json:"neighbors"`

	// ExpToNext - опыт до следующей позиции (0 на первом месте).
	ExpToNext int `json:"exp_to_next"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetPetRankHandler обрабатывает запрос ранга.
type GetPetRankHandler struct {
	petRepo   pet.Repository
	cache     leaderboard.Cache
	snapshots leaderboard.Repository
}

// NewGetPetRankHandler создаёт новый обработчик.
func NewGetPetRankHandler(
	petRepo pet.Repository,
	cache leaderboard.Cache,
	snapshots leaderboard.Repository,
) *GetPetRankHandler {
	return &GetPetRankHandler{
		petRepo:   petRepo,
		cache:     cache,
		snapshots: snapshots,
	}
}

// Handle выполняет запрос.
func (h *GetPetRankHandler) Handle(ctx context.Context, q GetPetRankQuery) (*GetPetRankResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_pet_rank: %w", err)
	}

	p, err := h.petRepo.GetByUserID(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_pet_rank: %w", err)
	}

	scope := leaderboard.ScopeGlobal
	if q.ClassroomID != "" {
		scope = leaderboard.ScopeForClassroom(q.ClassroomID)
	}

	result := &GetPetRankResult{
		PetID:       p.ID,
		Scope:       scope.String(),
		GeneratedAt: time.Now().UTC(),
	}

	rank, err := h.cache.GetRank(ctx, scope, p.ID)
	if err != nil {
		// Вне рейтинга - отдаём пустую позицию, а не ошибку.
		return result, nil
	}
	result.Rank = int(rank)
	result.Medal = rank.Medal()

	h.fillNeighbors(ctx, scope, p.ID, q.NeighborRange, result)
	return result, nil
}

// fillNeighbors дополняет ответ соседями из последнего снапшота.
func (h *GetPetRankHandler) fillNeighbors(ctx context.Context, scope leaderboard.Scope, petID string, rangeSize int, result *GetPetRankResult) {
	snapshot, err := h.snapshots.GetLatestSnapshot(ctx, scope)
	if err != nil || snapshot.IsEmpty() {
		return
	}

	neighbors := snapshot.Neighbors(petID, rangeSize)
	var above *leaderboard.Entry
	for _, e := range neighbors {
		result.Neighbors = append(result.Neighbors, LeaderboardEntryDTO{
			Rank:          int(e.Rank),
			Medal:         e.Rank.Medal(),
			PetID:         e.PetID,
			PetName:       e.PetName,
			Experience:    e.Experience,
			Level:         e.Level,
			RankChange:    int(e.RankChange),
			RankDirection: string(e.Direction()),
		})
		if int(e.Rank) == result.Rank-1 {
			above = e
		}
	}

	if above != nil {
		if me := snapshot.GetByPetID(petID); me != nil {
			result.ExpToNext = me.ExpToNext(above.Experience)
		}
	}
}
