package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func mustEntry(t *testing.T, petID, name string, exp int) *Entry {
	t.Helper()
	e, err := NewEntry(1, petID, "user-"+petID, name, exp, exp/200+1)
	assert.NoError(t, err)
	return e
}

func TestRank_Medal(t *testing.T) {
	assert.Equal(t, "🥇", Rank(1).Medal())
	assert.Equal(t, "🥈", Rank(2).Medal())
	assert.Equal(t, "🥉", Rank(3).Medal())
	assert.Equal(t, "", Rank(4).Medal())
	assert.True(t, Rank(3).IsTop3())
	assert.False(t, Rank(4).IsTop3())
}

func TestRankChange(t *testing.T) {
	assert.Equal(t, DirectionUp, RankChange(3).Direction())
	assert.Equal(t, DirectionDown, RankChange(-2).Direction())
	assert.Equal(t, DirectionStable, RankChange(0).Direction())
	assert.Equal(t, "+3", RankChange(3).String())
	assert.Equal(t, "-2", RankChange(-2).String())
	assert.Equal(t, "=", RankChange(0).String())
	assert.True(t, RankChange(-5).IsSignificant(5))
	assert.False(t, RankChange(4).IsSignificant(5))
}

func TestScope(t *testing.T) {
	assert.True(t, ScopeGlobal.IsGlobal())
	s := ScopeForClassroom("room-1")
	assert.False(t, s.IsGlobal())
	assert.Equal(t, "classroom:room-1", s.String())
}

func TestRanking_SortAssignsSharedRanks(t *testing.T) {
	r := NewRanking()
	assert.NoError(t, r.Add(mustEntry(t, "p1", "가을", 300)))
	assert.NoError(t, r.Add(mustEntry(t, "p2", "나비", 500)))
	assert.NoError(t, r.Add(mustEntry(t, "p3", "다롱", 300)))
	assert.NoError(t, r.Add(mustEntry(t, "p4", "라온", 100)))

	r.SortByExperience()

	top := r.Top(4)
	assert.Equal(t, "나비", top[0].PetName)
	assert.Equal(t, Rank(1), top[0].Rank)
	// 300 опыта делят ранг 2
	assert.Equal(t, Rank(2), top[1].Rank)
	assert.Equal(t, Rank(2), top[2].Rank)
	// следующий после пары - ранг 4, не 3
	assert.Equal(t, Rank(4), top[3].Rank)
	// при равном опыте сортировка по имени
	assert.Equal(t, "가을", top[1].PetName)
	assert.Equal(t, "다롱", top[2].PetName)
}

func TestRanking_DuplicateRejected(t *testing.T) {
	r := NewRanking()
	assert.NoError(t, r.Add(mustEntry(t, "p1", "가을", 300)))
	assert.ErrorIs(t, r.Add(mustEntry(t, "p1", "가을", 300)), ErrDuplicatePet)
	assert.ErrorIs(t, r.Add(nil), ErrNilEntry)
}

func TestRanking_Neighbors(t *testing.T) {
	r := NewRanking()
	for i, name := range []string{"a", "b", "c", "d", "e"} {
		assert.NoError(t, r.Add(mustEntry(t, name, name, 500-i*100)))
	}
	r.SortByExperience()

	n := r.Neighbors("c", 1)
	assert.Len(t, n, 3)
	assert.Equal(t, "b", n[0].PetID)
	assert.Equal(t, "c", n[1].PetID)
	assert.Equal(t, "d", n[2].PetID)

	// крайняя запись: окно обрезается
	n = r.Neighbors("a", 1)
	assert.Len(t, n, 2)
	assert.Nil(t, r.Neighbors("zzz", 1))
}

func TestSnapshot_PageAndRank(t *testing.T) {
	r := NewRanking()
	for i, name := range []string{"a", "b", "c", "d", "e"} {
		assert.NoError(t, r.Add(mustEntry(t, name, name, 500-i*100)))
	}
	r.SortByExperience()
	s := NewSnapshot("snap-1", ScopeGlobal, r)

	assert.Equal(t, 5, s.Count())
	assert.Equal(t, Rank(2), s.GetRank("b"))
	assert.Equal(t, Rank(0), s.GetRank("nope"))

	page := s.Page(2, 2)
	assert.Len(t, page, 2)
	assert.Equal(t, "c", page[0].PetID)
	assert.Equal(t, 3, s.TotalPages(2))
	assert.Nil(t, s.Page(4, 2))
}

func TestCalculateDiff(t *testing.T) {
	old := NewRanking()
	assert.NoError(t, old.Add(mustEntry(t, "p1", "가을", 500)))
	assert.NoError(t, old.Add(mustEntry(t, "p2", "나비", 400)))
	assert.NoError(t, old.Add(mustEntry(t, "p3", "다롱", 300)))
	old.SortByExperience()
	oldSnap := NewSnapshot("s1", ScopeGlobal, old)

	// p3 обгоняет p2, p2 выбывает, p4 входит
	fresh := NewRanking()
	assert.NoError(t, fresh.Add(mustEntry(t, "p1", "가을", 600)))
	assert.NoError(t, fresh.Add(mustEntry(t, "p3", "다롱", 500)))
	assert.NoError(t, fresh.Add(mustEntry(t, "p4", "라온", 100)))
	fresh.SortByExperience()
	newSnap := NewSnapshot("s2", ScopeGlobal, fresh)

	diff := CalculateDiff(oldSnap, newSnap)

	assert.True(t, diff.HasChanges())
	assert.Equal(t, RankChange(1), diff.GetRankChange("p3")) // 3 -> 2
	assert.Equal(t, RankChange(0), diff.GetRankChange("p1"))
	assert.Equal(t, []string{"p4"}, diff.Entered)
	assert.Equal(t, []string{"p2"}, diff.Left)
	assert.Contains(t, diff.Improved(), "p3")
}

func TestCalculateDiff_NoOldSnapshot(t *testing.T) {
	fresh := NewRanking()
	assert.NoError(t, fresh.Add(mustEntry(t, "p1", "가을", 100)))
	fresh.SortByExperience()
	diff := CalculateDiff(nil, NewSnapshot("s1", ScopeGlobal, fresh))

	assert.Equal(t, []string{"p1"}, diff.Entered)
	assert.True(t, diff.HasChanges())
}
