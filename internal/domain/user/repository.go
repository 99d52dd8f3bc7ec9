package user

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции CRUD для пользователей.
type Repository interface {
	// Create создаёт нового пользователя.
	Create(ctx context.Context, u *User) error

	// GetByID возвращает пользователя по внутреннему ID.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail возвращает пользователя по email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update обновляет данные пользователя.
	Update(ctx context.Context, u *User) error

	// GetByIDs возвращает пользователей по списку ID.
	GetByIDs(ctx context.Context, ids []string) ([]*User, error)

	// ExistsByEmail проверяет занятость email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Count возвращает общее количество пользователей.
	Count(ctx context.Context) (int, error)
}
