package eventhandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/studygotchi/studygotchi-hub/internal/domain/classroom"
	"github.com/studygotchi/studygotchi-hub/internal/domain/leaderboard"
	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// RANK REFRESH HANDLER
// Единственный источник опыта - учёба и экзамены, поэтому именно
// эти два события двигают питомца в рейтинге. Обработчик обновляет
// горячий рейтинг во всех областях питомца и публикует RankChanged,
// когда позиция действительно изменилась.
// ═══════════════════════════════════════════════════════════════════════════

// RankRefreshHandler пересчитывает рейтинг после набора опыта.
type RankRefreshHandler struct {
	petRepo       pet.Repository
	classroomRepo classroom.Repository
	rankCache     leaderboard.Cache
	publisher     shared.EventPublisher
	logger        *slog.Logger
}

// NewRankRefreshHandler создаёт новый обработчик.
func NewRankRefreshHandler(
	petRepo pet.Repository,
	classroomRepo classroom.Repository,
	rankCache leaderboard.Cache,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *RankRefreshHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RankRefreshHandler{
		petRepo:       petRepo,
		classroomRepo: classroomRepo,
		rankCache:     rankCache,
		publisher:     publisher,
		logger:        logger.With("handler", "rank_refresh"),
	}
}

// Handle обрабатывает событие набора опыта.
// Принимает StudyRecordedEvent и ExamTakenEvent.
func (h *RankRefreshHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	petID, userID, ok := h.extractIDs(event)
	if !ok {
		h.logger.Warn("received unexpected event", "event_type", event.EventType())
		return nil
	}

	p, err := h.petRepo.GetByID(ctx, petID)
	if err != nil {
		h.logger.Error("failed to load pet for rank refresh",
			"pet_id", petID,
			"error", err,
		)
		return fmt.Errorf("rank_refresh: get pet: %w", err)
	}

	scopes, err := h.scopesFor(ctx, userID)
	if err != nil {
		// Без списка классов глобальный рейтинг всё равно обновляем.
		h.logger.Warn("failed to resolve classroom scopes",
			"user_id", userID,
			"error", err,
		)
		scopes = []leaderboard.Scope{leaderboard.ScopeGlobal}
	}

	for _, scope := range scopes {
		if err := h.refreshScope(ctx, scope, p); err != nil {
			h.logger.Error("failed to refresh rank",
				"pet_id", petID,
				"scope", scope,
				"error", err,
			)
		}
	}

	return nil
}

// extractIDs достаёт идентификаторы питомца и владельца из события.
func (h *RankRefreshHandler) extractIDs(event shared.Event) (petID, userID string, ok bool) {
	switch e := event.(type) {
	case shared.StudyRecordedEvent:
		return e.PetID, e.UserID, true
	case shared.ExamTakenEvent:
		return e.PetID, e.UserID, true
	default:
		return "", "", false
	}
}

// scopesFor возвращает все области рейтинга питомца:
// глобальную плюс по одной на каждый класс владельца.
func (h *RankRefreshHandler) scopesFor(ctx context.Context, userID string) ([]leaderboard.Scope, error) {
	scopes := []leaderboard.Scope{leaderboard.ScopeGlobal}

	if h.classroomRepo == nil {
		return scopes, nil
	}

	memberships, err := h.classroomRepo.GetMemberships(ctx, userID)
	if err != nil {
		return scopes, err
	}
	for _, m := range memberships {
		scopes = append(scopes, leaderboard.ScopeForClassroom(m.ClassroomID))
	}
	return scopes, nil
}

// refreshScope обновляет счёт питомца в одной области
// и публикует событие, если позиция изменилась.
func (h *RankRefreshHandler) refreshScope(ctx context.Context, scope leaderboard.Scope, p *pet.Pet) error {
	oldRank, err := h.rankCache.GetRank(ctx, scope, p.ID)
	if err != nil && !errors.Is(err, leaderboard.ErrPetNotRanked) {
		return fmt.Errorf("get old rank: %w", err)
	}

	if err := h.rankCache.UpdateScore(ctx, scope, p.ID, int(p.Experience)); err != nil {
		return fmt.Errorf("update score: %w", err)
	}

	newRank, err := h.rankCache.GetRank(ctx, scope, p.ID)
	if err != nil {
		return fmt.Errorf("get new rank: %w", err)
	}

	if newRank == oldRank {
		return nil
	}

	rankEvent := shared.NewRankChangedEvent(
		p.ID, p.UserID, p.Name,
		int(oldRank), int(newRank),
		string(scope),
	)
	if err := h.publisher.Publish(rankEvent); err != nil {
		h.logger.Error("failed to publish rank changed event",
			"pet_id", p.ID,
			"scope", scope,
			"error", err,
		)
	}

	return nil
}

// EventTypes возвращает типы событий, которые обрабатывает этот handler.
func (h *RankRefreshHandler) EventTypes() []shared.EventType {
	return []shared.EventType{shared.EventStudyRecorded, shared.EventExamTaken}
}
