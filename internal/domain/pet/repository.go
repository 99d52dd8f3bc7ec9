package pet

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет основные операции CRUD для питомцев.
type Repository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// CRUD Operations
	// ─────────────────────────────────────────────────────────────────────────

	// Create создаёт нового питомца.
	// Возвращает ErrPetAlreadyExists, если у пользователя уже есть питомец.
	Create(ctx context.Context, p *Pet) error

	// GetByID возвращает питомца по внутреннему ID.
	// Возвращает ErrPetNotFound, если питомец не найден.
	GetByID(ctx context.Context, id string) (*Pet, error)

	// GetByUserID возвращает питомца пользователя.
	// Возвращает ErrPetNotFound, если питомца нет.
	GetByUserID(ctx context.Context, userID string) (*Pet, error)

	// Update обновляет данные питомца.
	// Возвращает ErrPetNotFound, если питомец не найден.
	Update(ctx context.Context, p *Pet) error

	// Replace атомарно заменяет питомца пользователя новым
	// (выдача нового питомца после пенальти).
	Replace(ctx context.Context, userID string, fresh *Pet) error

	// Delete удаляет питомца.
	// Возвращает ErrPetNotFound, если питомец не найден.
	Delete(ctx context.Context, id string) error

	// ─────────────────────────────────────────────────────────────────────────
	// Bulk Operations
	// ─────────────────────────────────────────────────────────────────────────

	// GetAll возвращает всех питомцев с пагинацией.
	GetAll(ctx context.Context, opts ListOptions) ([]*Pet, error)

	// GetByIDs возвращает питомцев по списку ID.
	GetByIDs(ctx context.Context, ids []string) ([]*Pet, error)

	// GetAlive возвращает живых питомцев (для фоновой проверки смерти).
	GetAlive(ctx context.Context, opts ListOptions) ([]*Pet, error)

	// Count возвращает общее количество питомцев.
	Count(ctx context.Context) (int, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Search & Filter
	// ─────────────────────────────────────────────────────────────────────────

	// FindStale находит живых питомцев без активности дольше порога.
	FindStale(ctx context.Context, threshold time.Duration) ([]*Pet, error)

	// FindByLevelRange находит питомцев в диапазоне уровней.
	FindByLevelRange(ctx context.Context, minLevel, maxLevel Level) ([]*Pet, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Existence Checks
	// ─────────────────────────────────────────────────────────────────────────

	// Exists проверяет существование питомца по ID.
	Exists(ctx context.Context, id string) (bool, error)

	// ExistsByUserID проверяет, есть ли у пользователя питомец.
	ExistsByUserID(ctx context.Context, userID string) (bool, error)
}

// ListOptions содержит параметры для пагинации и сортировки.
type ListOptions struct {
	// Offset - смещение (для пагинации).
	Offset int

	// Limit - максимальное количество записей.
	Limit int

	// SortBy - поле для сортировки.
	SortBy string

	// SortDesc - сортировка по убыванию.
	SortDesc bool

	// IncludeDead - включать мёртвых питомцев.
	IncludeDead bool
}

// DefaultListOptions возвращает параметры по умолчанию.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Offset:      0,
		Limit:       50,
		SortBy:      "experience",
		SortDesc:    true,
		IncludeDead: false,
	}
}

// WithOffset устанавливает смещение.
func (o ListOptions) WithOffset(offset int) ListOptions {
	o.Offset = offset
	return o
}

// WithLimit устанавливает лимит.
func (o ListOptions) WithLimit(limit int) ListOptions {
	o.Limit = limit
	return o
}

// WithSort устанавливает сортировку.
func (o ListOptions) WithSort(field string, desc bool) ListOptions {
	o.SortBy = field
	o.SortDesc = desc
	return o
}

// WithDead включает мёртвых питомцев.
func (o ListOptions) WithDead() ListOptions {
	o.IncludeDead = true
	return o
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION TRACKER
// Отслеживает старт активной сессии пользователя (обычно через Redis).
// Распад ресурсов считается только внутри сессии - без её старта
// базой становится чекпоинт, то есть полный распад по настенным часам.
// ══════════════════════════════════════════════════════════════════════════════

// SessionTracker определяет операции для отслеживания активных сессий.
type SessionTracker interface {
	// StartSession фиксирует старт сессии, если она ещё не идёт.
	// Возвращает фактическое время старта (существующее или новое).
	StartSession(ctx context.Context, userID string, at time.Time) (time.Time, error)

	// SessionStart возвращает старт активной сессии.
	// Нулевое время = активной сессии нет.
	SessionStart(ctx context.Context, userID string) (time.Time, error)

	// EndSession завершает сессию.
	EndSession(ctx context.Context, userID string) error

	// Touch продлевает TTL активной сессии.
	Touch(ctx context.Context, userID string) error

	// ActiveSessions возвращает ID пользователей с активной сессией.
	ActiveSessions(ctx context.Context) ([]string, error)

	// ActiveCount возвращает количество активных сессий.
	ActiveCount(ctx context.Context) (int, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE INTERFACE
// Для кеширования часто запрашиваемых данных.
// ══════════════════════════════════════════════════════════════════════════════

// Cache определяет операции кеширования питомцев.
type Cache interface {
	// Get получает питомца из кеша.
	Get(ctx context.Context, petID string) (*Pet, error)

	// Set сохраняет питомца в кеш.
	Set(ctx context.Context, p *Pet, ttl time.Duration) error

	// GetByUserID получает питомца из кеша по ID пользователя.
	GetByUserID(ctx context.Context, userID string) (*Pet, error)

	// SetByUserID сохраняет питомца в кеш с ключом пользователя.
	SetByUserID(ctx context.Context, p *Pet, ttl time.Duration) error

	// Invalidate инвалидирует все записи питомца в кеше.
	Invalidate(ctx context.Context, petID string) error

	// InvalidateAll очищает весь кеш питомцев.
	InvalidateAll(ctx context.Context) error
}
