package query

import (
	"context"
	"fmt"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ACTIVE SESSIONS QUERY
// Кто сейчас играет. Нужен админским ручкам и фоновой задаче зачистки
// протухших сессий.
// ══════════════════════════════════════════════════════════════════════════════

// GetActiveSessionsQuery содержит параметры запроса.
type GetActiveSessionsQuery struct {
	// IncludeUserIDs - включать список идентификаторов (иначе только счётчик).
	IncludeUserIDs bool
}

// GetActiveSessionsResult содержит результат запроса.
type GetActiveSessionsResult struct {
	// Count - количество активных сессий.
	Count int `json:"count"`

	// UserIDs - пользователи с активной сессией.
	UserIDs []string `json:"user_ids,omitempty"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetActiveSessionsHandler обрабатывает запрос активных сессий.
type GetActiveSessionsHandler struct {
	sessions pet.SessionTracker
}

// NewGetActiveSessionsHandler создаёт новый обработчик.
func NewGetActiveSessionsHandler(sessions pet.SessionTracker) *GetActiveSessionsHandler {
	return &GetActiveSessionsHandler{sessions: sessions}
}

// Handle выполняет запрос.
func (h *GetActiveSessionsHandler) Handle(ctx context.Context, q GetActiveSessionsQuery) (*GetActiveSessionsResult, error) {
	result := &GetActiveSessionsResult{GeneratedAt: time.Now().UTC()}

	if q.IncludeUserIDs {
		ids, err := h.sessions.ActiveSessions(ctx)
		if err != nil {
			return nil, fmt.Errorf("get_active_sessions: %w", err)
		}
		result.UserIDs = ids
		result.Count = len(ids)
		return result, nil
	}

	count, err := h.sessions.ActiveCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_active_sessions: %w", err)
	}
	result.Count = count
	return result, nil
}
