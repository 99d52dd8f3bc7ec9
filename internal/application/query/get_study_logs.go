package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/study"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STUDY LOGS QUERY
// Тетрадь питомца: сохранённые заметки, новые сверху, и заполненность
// окна (лишние заметки вытесняют старые).
// ══════════════════════════════════════════════════════════════════════════════

// GetStudyLogsQuery содержит параметры запроса.
type GetStudyLogsQuery struct {
	// UserID - владелец заметок.
	UserID string

	// Limit - количество записей (по умолчанию полное окно).
	Limit int
}

// Validate проверяет корректность параметров запроса.
func (q *GetStudyLogsQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user_id is required")
	}
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit == 0 || q.Limit > study.MaxStudyLogs {
		q.Limit = study.MaxStudyLogs
	}
	return nil
}

// StudyLogDTO - одна заметка.
type StudyLogDTO struct {
	// ID - идентификатор заметки.
	ID string `json:"id"`

	// Content - текст заметки.
	Content string `json:"content"`

	// Length - длина в рунах.
	Length int `json:"length"`

	// CreatedAt - время сохранения.
	CreatedAt time.Time `json:"created_at"`
}

// GetStudyLogsResult содержит результат запроса.
type GetStudyLogsResult struct {
	// Logs - заметки, новые сверху.
	Logs []StudyLogDTO `json:"logs"`

	// TotalStored - всего заметок в окне.
	TotalStored int `json:"total_stored"`

	// WindowSize - размер окна.
	WindowSize int `json:"window_size"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetStudyLogsHandler обрабатывает запрос заметок.
type GetStudyLogsHandler struct {
	studyRepo study.Repository
}

// NewGetStudyLogsHandler создаёт новый обработчик.
func NewGetStudyLogsHandler(studyRepo study.Repository) *GetStudyLogsHandler {
	return &GetStudyLogsHandler{studyRepo: studyRepo}
}

// Handle выполняет запрос.
func (h *GetStudyLogsHandler) Handle(ctx context.Context, q GetStudyLogsQuery) (*GetStudyLogsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_study_logs: %w", err)
	}

	logs, err := h.studyRepo.GetLogsByUser(ctx, q.UserID, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("get_study_logs: %w", err)
	}

	total, err := h.studyRepo.CountByUser(ctx, q.UserID)
	if err != nil {
		total = len(logs)
	}

	dtos := make([]StudyLogDTO, 0, len(logs))
	for _, l := range logs {
		dtos = append(dtos, StudyLogDTO{
			ID:        l.ID,
			Content:   l.Content,
			Length:    l.Length(),
			CreatedAt: l.CreatedAt,
		})
	}

	return &GetStudyLogsResult{
		Logs:        dtos,
		TotalStored: total,
		WindowSize:  study.MaxStudyLogs,
		GeneratedAt: time.Now().UTC(),
	}, nil
}
