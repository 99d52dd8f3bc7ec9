package classroom

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции для классов и участия в них.
type Repository interface {
	// Create создаёт класс.
	Create(ctx context.Context, c *Classroom) error

	// GetByID возвращает класс по ID.
	GetByID(ctx context.Context, id string) (*Classroom, error)

	// GetByCode возвращает класс по коду приглашения.
	// Возвращает ErrNotFound, если код никому не принадлежит.
	GetByCode(ctx context.Context, code Code) (*Classroom, error)

	// GetByTeacher возвращает классы учителя.
	GetByTeacher(ctx context.Context, teacherID string) ([]*Classroom, error)

	// Delete удаляет класс вместе с участниками.
	Delete(ctx context.Context, id string) error

	// AddMember добавляет ученика в класс.
	// Возвращает ErrAlreadyMember при повторном вступлении.
	AddMember(ctx context.Context, m *Membership) error

	// RemoveMember убирает ученика из класса.
	RemoveMember(ctx context.Context, classroomID, userID string) error

	// GetMembers возвращает участников класса.
	GetMembers(ctx context.Context, classroomID string) ([]*Membership, error)

	// GetMemberships возвращает классы, в которых состоит ученик.
	GetMemberships(ctx context.Context, userID string) ([]*Membership, error)

	// IsMember проверяет участие ученика в классе.
	IsMember(ctx context.Context, classroomID, userID string) (bool, error)

	// CountMembers возвращает количество участников класса.
	CountMembers(ctx context.Context, classroomID string) (int, error)
}
