package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/classroom"
	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET CLASSMATES QUERY
// Участники класса с их питомцами. Доступен только членам класса.
// ══════════════════════════════════════════════════════════════════════════════

// GetClassmatesQuery содержит параметры запроса.
type GetClassmatesQuery struct {
	// UserID - запрашивающий (должен состоять в классе).
	UserID string

	// ClassroomID - класс.
	ClassroomID string
}

// Validate проверяет корректность параметров запроса.
func (q *GetClassmatesQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user_id is required")
	}
	if q.ClassroomID == "" {
		return errors.New("classroom_id is required")
	}
	return nil
}

// ClassmateDTO - один участник класса.
type ClassmateDTO struct {
	// UserID - идентификатор участника.
	UserID string `json:"user_id"`

	// DisplayName - отображаемое имя.
	DisplayName string `json:"display_name"`

	// JoinedAt - когда вступил в класс.
	JoinedAt time.Time `json:"joined_at"`

	// PetName - имя питомца, пустая строка если питомца нет.
	PetName string `json:"pet_name,omitempty"`

	// PetLevel - уровень питомца.
	PetLevel int `json:"pet_level,omitempty"`

	// PetStageEmoji - эмодзи стадии питомца.
	PetStageEmoji string `json:"pet_stage_emoji,omitempty"`

	// PetIsDead - мёртв ли питомец.
	PetIsDead bool `json:"pet_is_dead,omitempty"`
}

// GetClassmatesResult содержит результат запроса.
type GetClassmatesResult struct {
	// ClassroomID - класс.
	ClassroomID string `json:"classroom_id"`

	// ClassroomName - название класса.
	ClassroomName string `json:"classroom_name"`

	// Classmates - участники.
	Classmates []ClassmateDTO `json:"classmates"`

	// TotalCount - количество участников.
	TotalCount int `json:"total_count"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetClassmatesHandler обрабатывает запрос участников класса.
type GetClassmatesHandler struct {
	classroomRepo classroom.Repository
	userRepo      user.Repository
	petRepo       pet.Repository
}

// NewGetClassmatesHandler создаёт новый обработчик.
func NewGetClassmatesHandler(
	classroomRepo classroom.Repository,
	userRepo user.Repository,
	petRepo pet.Repository,
) *GetClassmatesHandler {
	return &GetClassmatesHandler{
		classroomRepo: classroomRepo,
		userRepo:      userRepo,
		petRepo:       petRepo,
	}
}

// Handle выполняет запрос.
func (h *GetClassmatesHandler) Handle(ctx context.Context, q GetClassmatesQuery) (*GetClassmatesResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_classmates: %w", err)
	}

	room, err := h.classroomRepo.GetByID(ctx, q.ClassroomID)
	if err != nil {
		return nil, fmt.Errorf("get_classmates: %w", err)
	}

	// Список участников виден только изнутри класса.
	if !room.OwnedBy(q.UserID) {
		member, err := h.classroomRepo.IsMember(ctx, room.ID, q.UserID)
		if err != nil {
			return nil, fmt.Errorf("get_classmates: %w", err)
		}
		if !member {
			return nil, fmt.Errorf("get_classmates: %w", classroom.ErrNotFound)
		}
	}

	members, err := h.classroomRepo.GetMembers(ctx, room.ID)
	if err != nil {
		return nil, fmt.Errorf("get_classmates: %w", err)
	}

	ids := make([]string, 0, len(members))
	joined := make(map[string]time.Time, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
		joined[m.UserID] = m.JoinedAt
	}

	users, err := h.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get_classmates: %w", err)
	}

	classmates := make([]ClassmateDTO, 0, len(users))
	for _, u := range users {
		dto := ClassmateDTO{
			UserID:      u.ID,
			DisplayName: u.DisplayName,
			JoinedAt:    joined[u.ID],
		}
		if p, err := h.petRepo.GetByUserID(ctx, u.ID); err == nil {
			dto.PetName = p.Name
			dto.PetLevel = int(p.Level)
			dto.PetStageEmoji = pet.StageFor(p.Level).Emoji
			dto.PetIsDead = p.IsDead
		}
		classmates = append(classmates, dto)
	}

	return &GetClassmatesResult{
		ClassroomID:   room.ID,
		ClassroomName: room.Name,
		Classmates:    classmates,
		TotalCount:    len(classmates),
		GeneratedAt:   time.Now().UTC(),
	}, nil
}
