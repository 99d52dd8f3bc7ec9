package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/exam"
	"github.com/studygotchi/studygotchi-hub/internal/domain/leaderboard"
	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/study"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DAILY DIGEST QUERY
// Сводка за сутки для вечернего уведомления: сколько заметок написано,
// сколько экзаменов сдано, как сдвинулся ранг. Этим же запросом
// пользуется фоновая задача рассылки дайджестов.
// ══════════════════════════════════════════════════════════════════════════════

// GetDailyDigestQuery содержит параметры запроса.
type GetDailyDigestQuery struct {
	// UserID - получатель дайджеста.
	UserID string

	// PeriodEnd - конец суточного окна (по умолчанию сейчас).
	PeriodEnd time.Time
}

// Validate проверяет корректность параметров запроса.
func (q *GetDailyDigestQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user_id is required")
	}
	if q.PeriodEnd.IsZero() {
		q.PeriodEnd = time.Now().UTC()
	}
	return nil
}

// GetDailyDigestResult содержит сводку за сутки.
type GetDailyDigestResult struct {
	// UserID - получатель.
	UserID string `json:"user_id"`

	// PetID - питомец на момент сводки.
	PetID string `json:"pet_id,omitempty"`

	// PetName - имя питомца.
	PetName string `json:"pet_name,omitempty"`

	// NotesWritten - заметок за окно.
	NotesWritten int `json:"notes_written"`

	// ExamsPassed - правильных ответов на экзаменах за окно.
	ExamsPassed int `json:"exams_passed"`

	// CurrentRank - текущая позиция в глобальном рейтинге (0 = вне).
	CurrentRank int `json:"current_rank"`

	// HasActivity - было ли что рассказывать.
	HasActivity bool `json:"has_activity"`

	// PeriodStart - начало окна.
	PeriodStart time.Time `json:"period_start"`

	// PeriodEnd - конец окна.
	PeriodEnd time.Time `json:"period_end"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetDailyDigestHandler обрабатывает запрос дайджеста.
type GetDailyDigestHandler struct {
	petRepo   pet.Repository
	studyRepo study.Repository
	examRepo  exam.Repository
	rankCache leaderboard.Cache
}

// NewGetDailyDigestHandler создаёт новый обработчик.
func NewGetDailyDigestHandler(
	petRepo pet.Repository,
	studyRepo study.Repository,
	examRepo exam.Repository,
	rankCache leaderboard.Cache,
) *GetDailyDigestHandler {
	return &GetDailyDigestHandler{
		petRepo:   petRepo,
		studyRepo: studyRepo,
		examRepo:  examRepo,
		rankCache: rankCache,
	}
}

// Handle выполняет запрос.
func (h *GetDailyDigestHandler) Handle(ctx context.Context, q GetDailyDigestQuery) (*GetDailyDigestResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_daily_digest: %w", err)
	}

	since := q.PeriodEnd.Add(-24 * time.Hour)

	notes, err := h.studyRepo.CountSince(ctx, q.UserID, since)
	if err != nil {
		return nil, fmt.Errorf("get_daily_digest: %w", err)
	}

	passed, err := h.examRepo.CountCorrectSince(ctx, q.UserID, since)
	if err != nil {
		return nil, fmt.Errorf("get_daily_digest: %w", err)
	}

	result := &GetDailyDigestResult{
		UserID:       q.UserID,
		NotesWritten: notes,
		ExamsPassed:  passed,
		HasActivity:  notes > 0 || passed > 0,
		PeriodStart:  since,
		PeriodEnd:    q.PeriodEnd,
	}

	if p, err := h.petRepo.GetByUserID(ctx, q.UserID); err == nil {
		result.PetID = p.ID
		result.PetName = p.Name
		if rank, err := h.rankCache.GetRank(ctx, leaderboard.ScopeGlobal, p.ID); err == nil {
			result.CurrentRank = int(rank)
		}
	}

	return result, nil
}
