package leaderboard

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure: снапшоты в Postgres,
// горячий рейтинг в Redis sorted set.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет контракт для работы со снапшотами рейтинга.
type Repository interface {
	// SaveSnapshot сохраняет снапшот.
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error

	// GetLatestSnapshot возвращает последний снапшот области.
	GetLatestSnapshot(ctx context.Context, scope Scope) (*Snapshot, error)

	// GetSnapshotAt возвращает снапшот, ближайший к указанному времени.
	GetSnapshotAt(ctx context.Context, scope Scope, at time.Time) (*Snapshot, error)

	// DeleteOldSnapshots удаляет снапшоты старше порога.
	// Возвращает количество удалённых.
	DeleteOldSnapshots(ctx context.Context, olderThan time.Duration) (int, error)

	// SaveRankHistory сохраняет историю ранга питомца.
	SaveRankHistory(ctx context.Context, entry RankHistoryEntry) error

	// GetRankHistory возвращает историю ранга питомца.
	GetRankHistory(ctx context.Context, petID string, scope Scope, from, to time.Time) ([]RankHistoryEntry, error)
}

// RankHistoryEntry - одна точка истории ранга.
type RankHistoryEntry struct {
	// PetID - идентификатор питомца.
	PetID string

	// Scope - область рейтинга.
	Scope Scope

	// Rank - позиция на момент фиксации.
	Rank Rank

	// Experience - опыт на момент фиксации.
	Experience int

	// RecordedAt - время фиксации.
	RecordedAt time.Time
}

// Cache определяет контракт для кеширования горячего рейтинга.
// Реализуется через Redis sorted set (score = опыт).
type Cache interface {
	// UpdateScore обновляет опыт питомца в горячем рейтинге.
	UpdateScore(ctx context.Context, scope Scope, petID string, experience int) error

	// GetTop возвращает топ-N из горячего рейтинга.
	GetTop(ctx context.Context, scope Scope, limit int) ([]*Entry, error)

	// GetRank возвращает текущий ранг питомца.
	// Возвращает ErrPetNotRanked, если питомца нет в рейтинге.
	GetRank(ctx context.Context, scope Scope, petID string) (Rank, error)

	// Remove убирает питомца из горячего рейтинга.
	Remove(ctx context.Context, scope Scope, petID string) error

	// Rebuild полностью пересобирает горячий рейтинг из записей.
	Rebuild(ctx context.Context, scope Scope, entries []*Entry) error

	// Invalidate сбрасывает кеш области.
	Invalidate(ctx context.Context, scope Scope) error
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERY OPTIONS
// ══════════════════════════════════════════════════════════════════════════════

// QueryOptions содержит параметры запроса рейтинга.
type QueryOptions struct {
	// Scope - область рейтинга.
	Scope Scope

	// Page - номер страницы (с 1).
	Page int

	// PageSize - размер страницы.
	PageSize int

	// IncludeDead - включать мёртвых питомцев.
	IncludeDead bool
}

// DefaultQueryOptions возвращает параметры по умолчанию.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		Scope:       ScopeGlobal,
		Page:        1,
		PageSize:    20,
		IncludeDead: true,
	}
}

// WithScope устанавливает область.
func (o QueryOptions) WithScope(scope Scope) QueryOptions {
	o.Scope = scope
	return o
}

// WithPage устанавливает страницу.
func (o QueryOptions) WithPage(page int) QueryOptions {
	if page < 1 {
		page = 1
	}
	o.Page = page
	return o
}

// WithPageSize устанавливает размер страницы.
func (o QueryOptions) WithPageSize(size int) QueryOptions {
	if size < 1 {
		size = 20
	}
	o.PageSize = size
	return o
}

// Offset возвращает смещение для запроса.
func (o QueryOptions) Offset() int {
	return (o.Page - 1) * o.PageSize
}

// Limit возвращает лимит для запроса.
func (o QueryOptions) Limit() int {
	return o.PageSize
}
