package leaderboard

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT
// Снапшот - зафиксированное состояние рейтинга на момент пересборки.
// Сравнение двух снапшотов даёт изменения позиций для уведомлений.
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot представляет зафиксированное состояние рейтинга.
type Snapshot struct {
	// ID - уникальный идентификатор снапшота.
	ID string

	// Scope - область рейтинга (глобальный или класс).
	Scope Scope

	// Entries - записи в порядке рангов.
	Entries []*Entry

	// CreatedAt - время фиксации.
	CreatedAt time.Time

	byPetID map[string]*Entry
}

// NewSnapshot создаёт снапшот из отсортированного рейтинга.
func NewSnapshot(id string, scope Scope, ranking *Ranking) *Snapshot {
	entries := make([]*Entry, 0, ranking.Len())
	byPetID := make(map[string]*Entry, ranking.Len())

	for _, e := range ranking.Entries() {
		clone := e.Clone()
		entries = append(entries, clone)
		byPetID[clone.PetID] = clone
	}

	return &Snapshot{
		ID:        id,
		Scope:     scope,
		Entries:   entries,
		CreatedAt: time.Now().UTC(),
		byPetID:   byPetID,
	}
}

// NewEmptySnapshot создаёт пустой снапшот.
func NewEmptySnapshot(id string, scope Scope) *Snapshot {
	return &Snapshot{
		ID:        id,
		Scope:     scope,
		Entries:   make([]*Entry, 0),
		CreatedAt: time.Now().UTC(),
		byPetID:   make(map[string]*Entry),
	}
}

// rebuildIndex восстанавливает индекс после десериализации.
func (s *Snapshot) rebuildIndex() {
	if s.byPetID != nil {
		return
	}
	s.byPetID = make(map[string]*Entry, len(s.Entries))
	for _, e := range s.Entries {
		s.byPetID[e.PetID] = e
	}
}

// GetByPetID возвращает запись по ID питомца.
func (s *Snapshot) GetByPetID(petID string) *Entry {
	s.rebuildIndex()
	return s.byPetID[petID]
}

// GetRank возвращает ранг питомца, 0 если питомца нет в снапшоте.
func (s *Snapshot) GetRank(petID string) Rank {
	entry := s.GetByPetID(petID)
	if entry == nil {
		return 0
	}
	return entry.Rank
}

// Top возвращает топ-N записей.
func (s *Snapshot) Top(n int) []*Entry {
	if n <= 0 {
		return nil
	}
	if n > len(s.Entries) {
		n = len(s.Entries)
	}
	result := make([]*Entry, n)
	copy(result, s.Entries[:n])
	return result
}

// Page возвращает страницу записей (нумерация страниц с 1).
func (s *Snapshot) Page(page, pageSize int) []*Entry {
	if page < 1 || pageSize < 1 {
		return nil
	}
	from := (page - 1) * pageSize
	to := from + pageSize
	if from >= len(s.Entries) {
		return nil
	}
	if to > len(s.Entries) {
		to = len(s.Entries)
	}
	result := make([]*Entry, to-from)
	copy(result, s.Entries[from:to])
	return result
}

// TotalPages возвращает количество страниц.
func (s *Snapshot) TotalPages(pageSize int) int {
	if pageSize < 1 {
		return 0
	}
	return (len(s.Entries) + pageSize - 1) / pageSize
}

// Neighbors возвращает соседей питомца по рангу (±rangeSize).
func (s *Snapshot) Neighbors(petID string, rangeSize int) []*Entry {
	entry := s.GetByPetID(petID)
	if entry == nil {
		return nil
	}

	var idx int
	for i, e := range s.Entries {
		if e.PetID == petID {
			idx = i
			break
		}
	}

	from := idx - rangeSize
	to := idx + rangeSize + 1
	if from < 0 {
		from = 0
	}
	if to > len(s.Entries) {
		to = len(s.Entries)
	}

	result := make([]*Entry, to-from)
	copy(result, s.Entries[from:to])
	return result
}

// IsEmpty возвращает true для пустого снапшота.
func (s *Snapshot) IsEmpty() bool {
	return len(s.Entries) == 0
}

// Count возвращает количество записей.
func (s *Snapshot) Count() int {
	return len(s.Entries)
}

// Contains проверяет наличие питомца в снапшоте.
func (s *Snapshot) Contains(petID string) bool {
	return s.GetByPetID(petID) != nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT DIFF
// ══════════════════════════════════════════════════════════════════════════════

// Diff представляет изменения между двумя снапшотами.
type Diff struct {
	// Changes - изменения рангов по ID питомца.
	Changes map[string]RankChange

	// Entered - питомцы, впервые попавшие в рейтинг.
	Entered []string

	// Left - питомцы, выбывшие из рейтинга.
	Left []string

	// TopChanges - изменения в топ-3.
	TopChanges []TopChange
}

// TopChange описывает вход или выход из топ-3.
type TopChange struct {
	PetID   string
	PetName string
	OldRank Rank // 0, если питомца не было
	NewRank Rank // 0, если питомец выбыл
}

// IsEntered возвращает true, если питомец вошёл в топ-3.
func (tc *TopChange) IsEntered() bool {
	return !tc.OldRank.IsTop3() && tc.NewRank.IsTop3()
}

// IsLeft возвращает true, если питомец покинул топ-3.
func (tc *TopChange) IsLeft() bool {
	return tc.OldRank.IsTop3() && !tc.NewRank.IsTop3()
}

// CalculateDiff сравнивает два снапшота одной области.
func CalculateDiff(oldSnapshot, newSnapshot *Snapshot) *Diff {
	diff := &Diff{
		Changes: make(map[string]RankChange),
	}
	if newSnapshot == nil {
		return diff
	}

	for _, newEntry := range newSnapshot.Entries {
		var oldRank Rank
		if oldSnapshot != nil {
			oldRank = oldSnapshot.GetRank(newEntry.PetID)
		}

		if oldRank == 0 {
			diff.Entered = append(diff.Entered, newEntry.PetID)
		} else {
			// Положительное изменение = подъём (меньший номер ранга)
			diff.Changes[newEntry.PetID] = RankChange(int(oldRank) - int(newEntry.Rank))
		}

		if tc := topChange(oldRank, newEntry); tc != nil {
			diff.TopChanges = append(diff.TopChanges, *tc)
		}
	}

	if oldSnapshot != nil {
		for _, oldEntry := range oldSnapshot.Entries {
			if !newSnapshot.Contains(oldEntry.PetID) {
				diff.Left = append(diff.Left, oldEntry.PetID)
				if oldEntry.Rank.IsTop3() {
					diff.TopChanges = append(diff.TopChanges, TopChange{
						PetID:   oldEntry.PetID,
						PetName: oldEntry.PetName,
						OldRank: oldEntry.Rank,
						NewRank: 0,
					})
				}
			}
		}
	}

	return diff
}

func topChange(oldRank Rank, newEntry *Entry) *TopChange {
	wasTop := oldRank.IsTop3()
	isTop := newEntry.Rank.IsTop3()
	if wasTop == isTop {
		return nil
	}
	return &TopChange{
		PetID:   newEntry.PetID,
		PetName: newEntry.PetName,
		OldRank: oldRank,
		NewRank: newEntry.Rank,
	}
}

// GetRankChange возвращает изменение ранга питомца.
func (d *Diff) GetRankChange(petID string) RankChange {
	return d.Changes[petID]
}

// HasChanges возвращает true, если между снапшотами есть отличия.
func (d *Diff) HasChanges() bool {
	if len(d.Entered) > 0 || len(d.Left) > 0 {
		return true
	}
	for _, change := range d.Changes {
		if change != 0 {
			return true
		}
	}
	return false
}

// SignificantChanges возвращает ID питомцев со сдвигом не меньше порога.
func (d *Diff) SignificantChanges(threshold int) []string {
	var result []string
	for petID, change := range d.Changes {
		if change.IsSignificant(threshold) {
			result = append(result, petID)
		}
	}
	return result
}

// Improved возвращает ID поднявшихся питомцев.
func (d *Diff) Improved() []string {
	var result []string
	for petID, change := range d.Changes {
		if change > 0 {
			result = append(result, petID)
		}
	}
	return result
}
