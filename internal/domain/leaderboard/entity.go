// Package leaderboard содержит доменную модель рейтинга питомцев.
// Питомцы ранжируются по накопленному опыту - глобально и внутри
// класса. Рейтинг пересобирается фоновой задачей и кешируется.
package leaderboard

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rank представляет позицию питомца в рейтинге.
// Rank начинается с 1 (первое место).
type Rank int

// IsValid проверяет, что ранг положительный.
func (r Rank) IsValid() bool {
	return r > 0
}

// IsTop3 возвращает true для призовых мест.
func (r Rank) IsTop3() bool {
	return r >= 1 && r <= 3
}

// IsTop10 возвращает true, если питомец в топ-10.
func (r Rank) IsTop10() bool {
	return r >= 1 && r <= 10
}

// Medal возвращает медаль призового места, пустую строку для остальных.
func (r Rank) Medal() string {
	switch r {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return ""
	}
}

// String возвращает строковое представление ранга.
func (r Rank) String() string {
	return fmt.Sprintf("#%d", int(r))
}

// RankChange представляет изменение позиции (+N = поднялся, -N = опустился).
type RankChange int

// Direction возвращает направление изменения.
func (rc RankChange) Direction() RankDirection {
	switch {
	case rc > 0:
		return DirectionUp
	case rc < 0:
		return DirectionDown
	default:
		return DirectionStable
	}
}

// Abs возвращает модуль изменения.
func (rc RankChange) Abs() int {
	if rc < 0 {
		return int(-rc)
	}
	return int(rc)
}

// IsSignificant возвращает true, если сдвиг не меньше порога.
func (rc RankChange) IsSignificant(threshold int) bool {
	return rc.Abs() >= threshold
}

// String возвращает строковое представление изменения.
func (rc RankChange) String() string {
	switch {
	case rc > 0:
		return fmt.Sprintf("+%d", int(rc))
	case rc < 0:
		return fmt.Sprintf("%d", int(rc))
	default:
		return "="
	}
}

// RankDirection определяет направление движения в рейтинге.
type RankDirection string

const (
	// DirectionUp - питомец поднялся.
	DirectionUp RankDirection = "up"

	// DirectionDown - питомец опустился.
	DirectionDown RankDirection = "down"

	// DirectionStable - позиция не изменилась.
	DirectionStable RankDirection = "stable"
)

// Emoji возвращает эмодзи направления.
func (rd RankDirection) Emoji() string {
	switch rd {
	case DirectionUp:
		return "📈"
	case DirectionDown:
		return "📉"
	default:
		return "➖"
	}
}

// Scope определяет область рейтинга: глобальный или внутри класса.
type Scope string

// ScopeGlobal - общий рейтинг всех питомцев.
const ScopeGlobal Scope = "global"

// ScopeForClassroom возвращает область рейтинга одного класса.
func ScopeForClassroom(classroomID string) Scope {
	return Scope("classroom:" + classroomID)
}

// IsValid проверяет, что область непустая.
func (s Scope) IsValid() bool {
	return s != ""
}

// IsGlobal возвращает true для глобального рейтинга.
func (s Scope) IsGlobal() bool {
	return s == ScopeGlobal
}

// String возвращает строковое представление области.
func (s Scope) String() string {
	return string(s)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidRank - некорректный ранг.
	ErrInvalidRank = errors.New("leaderboard: invalid rank")

	// ErrInvalidPetID - некорректный идентификатор питомца.
	ErrInvalidPetID = errors.New("leaderboard: invalid pet ID")

	// ErrInvalidExperience - отрицательный опыт.
	ErrInvalidExperience = errors.New("leaderboard: experience must be non-negative")

	// ErrNilEntry - запись отсутствует.
	ErrNilEntry = errors.New("leaderboard: nil entry")

	// ErrDuplicatePet - питомец уже в рейтинге.
	ErrDuplicatePet = errors.New("leaderboard: pet already ranked")

	// ErrPetNotRanked - питомца нет в рейтинге.
	ErrPetNotRanked = errors.New("leaderboard: pet is not ranked")
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry представляет одну запись рейтинга.
type Entry struct {
	// Rank - текущая позиция в рейтинге.
	Rank Rank

	// PetID - идентификатор питомца.
	PetID string

	// UserID - владелец питомца.
	UserID string

	// PetName - имя питомца.
	PetName string

	// Experience - накопленный опыт.
	Experience int

	// Level - уровень питомца (вычисляется из опыта).
	Level int

	// StageEmoji - эмодзи стадии развития.
	StageEmoji string

	// IsDead - мёртвые питомцы показываются, но помечаются призраком.
	IsDead bool

	// RankChange - изменение позиции с прошлого снапшота.
	RankChange RankChange

	// UpdatedAt - время последнего обновления опыта.
	UpdatedAt time.Time
}

// NewEntry создаёт запись рейтинга с валидацией.
func NewEntry(rank Rank, petID, userID, petName string, experience, level int) (*Entry, error) {
	if !rank.IsValid() {
		return nil, ErrInvalidRank
	}
	if petID == "" {
		return nil, ErrInvalidPetID
	}
	if experience < 0 {
		return nil, ErrInvalidExperience
	}

	return &Entry{
		Rank:       rank,
		PetID:      petID,
		UserID:     userID,
		PetName:    petName,
		Experience: experience,
		Level:      level,
		RankChange: 0,
		UpdatedAt:  time.Now().UTC(),
	}, nil
}

// Direction возвращает направление изменения ранга.
func (e *Entry) Direction() RankDirection {
	return e.RankChange.Direction()
}

// HasImproved возвращает true, если питомец поднялся в рейтинге.
func (e *Entry) HasImproved() bool {
	return e.RankChange > 0
}

// HasDropped возвращает true, если питомец опустился в рейтинге.
func (e *Entry) HasDropped() bool {
	return e.RankChange < 0
}

// ExpToNext возвращает количество опыта до следующего места.
func (e *Entry) ExpToNext(nextExp int) int {
	if nextExp <= e.Experience {
		return 0
	}
	return nextExp - e.Experience + 1
}

// ExpGap возвращает разрыв в опыте с другой записью.
func (e *Entry) ExpGap(other *Entry) int {
	if other == nil {
		return 0
	}
	diff := e.Experience - other.Experience
	if diff < 0 {
		return -diff
	}
	return diff
}

// Clone создаёт копию записи.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}

// String возвращает строковое представление для логирования.
func (e *Entry) String() string {
	return fmt.Sprintf(
		"Entry{Rank: %d, Pet: %s, Exp: %d, Change: %s}",
		e.Rank, e.PetName, e.Experience, e.RankChange.String(),
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING (Ranked List)
// ══════════════════════════════════════════════════════════════════════════════

// Ranking представляет полный отсортированный список питомцев.
// Это вспомогательная структура для построения рейтинга.
type Ranking struct {
	entries []*Entry
	byPetID map[string]*Entry
}

// NewRanking создаёт пустой Ranking.
func NewRanking() *Ranking {
	return &Ranking{
		entries: make([]*Entry, 0),
		byPetID: make(map[string]*Entry),
	}
}

// Add добавляет запись в рейтинг (без автоматической сортировки).
func (r *Ranking) Add(entry *Entry) error {
	if entry == nil {
		return ErrNilEntry
	}
	if _, exists := r.byPetID[entry.PetID]; exists {
		return ErrDuplicatePet
	}

	r.entries = append(r.entries, entry)
	r.byPetID[entry.PetID] = entry
	return nil
}

// SortByExperience сортирует записи по опыту (по убыванию) и присваивает
// ранги. Одинаковый опыт даёт одинаковый ранг (shared rank).
func (r *Ranking) SortByExperience() {
	sort.Slice(r.entries, func(i, j int) bool {
		if r.entries[i].Experience != r.entries[j].Experience {
			return r.entries[i].Experience > r.entries[j].Experience
		}
		// При равном опыте - по имени (стабильная сортировка)
		return r.entries[i].PetName < r.entries[j].PetName
	})

	currentRank := Rank(1)
	for i, entry := range r.entries {
		if i > 0 && entry.Experience == r.entries[i-1].Experience {
			entry.Rank = r.entries[i-1].Rank
		} else {
			entry.Rank = currentRank
		}
		currentRank = Rank(i + 2)
	}
}

// GetByPetID возвращает запись по ID питомца.
func (r *Ranking) GetByPetID(petID string) *Entry {
	return r.byPetID[petID]
}

// GetByRank возвращает запись по рангу.
// Если несколько питомцев делят один ранг, возвращает первого.
func (r *Ranking) GetByRank(rank Rank) *Entry {
	for _, entry := range r.entries {
		if entry.Rank == rank {
			return entry
		}
	}
	return nil
}

// Top возвращает топ-N записей.
func (r *Ranking) Top(n int) []*Entry {
	if n <= 0 {
		return nil
	}
	if n > len(r.entries) {
		n = len(r.entries)
	}
	result := make([]*Entry, n)
	copy(result, r.entries[:n])
	return result
}

// Slice возвращает срез записей [from:to).
func (r *Ranking) Slice(from, to int) []*Entry {
	if from < 0 {
		from = 0
	}
	if to > len(r.entries) {
		to = len(r.entries)
	}
	if from >= to {
		return nil
	}
	result := make([]*Entry, to-from)
	copy(result, r.entries[from:to])
	return result
}

// Neighbors возвращает соседей питомца по рангу (±rangeSize),
// включая его самого в центре.
func (r *Ranking) Neighbors(petID string, rangeSize int) []*Entry {
	entry := r.GetByPetID(petID)
	if entry == nil {
		return nil
	}

	var idx int
	for i, e := range r.entries {
		if e.PetID == petID {
			idx = i
			break
		}
	}

	from := idx - rangeSize
	to := idx + rangeSize + 1
	return r.Slice(from, to)
}

// Len возвращает количество записей.
func (r *Ranking) Len() int {
	return len(r.entries)
}

// Entries возвращает все записи в текущем порядке.
func (r *Ranking) Entries() []*Entry {
	return r.entries
}
