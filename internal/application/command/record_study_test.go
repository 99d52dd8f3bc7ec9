package command

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studygotchi/studygotchi-hub/internal/domain/cooldown"
	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
	"github.com/studygotchi/studygotchi-hub/internal/domain/study"
)

// newTestPet возвращает свежего живого питомца с чекпоинтами "сейчас".
func newTestPet(t *testing.T, userID string) *pet.Pet {
	t.Helper()
	p, err := pet.NewPet(pet.NewPetParams{
		ID:              uuid.NewString(),
		UserID:          userID,
		Name:            "코코",
		CharacterSprite: pet.SpriteRabbit,
		RoomType:        pet.RoomBedroom,
		MBTI:            "INFP",
	})
	require.NoError(t, err)
	return p
}

func newRecordStudyFixture(p *pet.Pet) (*RecordStudyHandler, *fakePetRepo, *fakeStudyRepo, *fakePublisher) {
	petRepo := newFakePetRepo(p)
	studyRepo := &fakeStudyRepo{}
	publisher := &fakePublisher{}
	h := NewRecordStudyHandler(
		petRepo, studyRepo, newFakeSessions(), &fakePetCache{},
		&fakeDialogue{reaction: "오 재밌다!"}, publisher,
	)
	return h, petRepo, studyRepo, publisher
}

func TestRecordStudy_PaysOutGains(t *testing.T) {
	p := newTestPet(t, "u1")
	// Кулдаун учёбы час, откатываем чекпоинт за два.
	p.LastStudiedAt = time.Now().UTC().Add(-2 * time.Hour)
	h, petRepo, studyRepo, publisher := newRecordStudyFixture(p)

	// 40 рун: интеллект +4, поинты +2, опыт +20.
	result, err := h.Handle(context.Background(), RecordStudyCommand{
		UserID:  "u1",
		Content: strings.Repeat("가", 40),
	})
	require.NoError(t, err)

	assert.Equal(t, study.Gains{Intelligence: 4, Points: 2, Experience: 20}, result.Gains)
	assert.Zero(t, result.ForgottenNotes)
	assert.False(t, result.LeveledUp)
	assert.Equal(t, "오 재밌다!", result.Reaction)

	saved, err := petRepo.GetByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, pet.Intelligence(pet.InitialIntelligence+4), saved.Intelligence)
	assert.Equal(t, pet.Points(pet.InitialPoints+2), saved.Points)
	assert.Equal(t, pet.Experience(20), saved.Experience)
	assert.WithinDuration(t, time.Now().UTC(), saved.LastStudiedAt, time.Minute)

	count, _ := studyRepo.CountByUser(context.Background(), "u1")
	assert.Equal(t, 1, count)
	assert.True(t, publisher.has(shared.EventStudyRecorded))
}

func TestRecordStudy_CooldownRejects(t *testing.T) {
	p := newTestPet(t, "u1")
	p.LastStudiedAt = time.Now().UTC().Add(-10 * time.Minute)
	h, _, studyRepo, _ := newRecordStudyFixture(p)

	_, err := h.Handle(context.Background(), RecordStudyCommand{UserID: "u1", Content: "포인터"})
	assert.ErrorIs(t, err, cooldown.ErrOnCooldown)

	count, _ := studyRepo.CountByUser(context.Background(), "u1")
	assert.Zero(t, count)
}

func TestRecordStudy_EvictsOldestBeyondCap(t *testing.T) {
	p := newTestPet(t, "u1")
	p.LastStudiedAt = time.Now().UTC().Add(-2 * time.Hour)
	p.Intelligence = 100
	h, petRepo, studyRepo, _ := newRecordStudyFixture(p)

	// Окно уже полное: 20 заметок по 10 рун, каждая стоит 1 интеллекта.
	base := time.Now().UTC().Add(-30 * 24 * time.Hour)
	for i := 0; i < study.MaxStudyLogs; i++ {
		log, err := study.NewLog(uuid.NewString(), "u1", p.ID, strings.Repeat("나", 10), base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		require.NoError(t, studyRepo.SaveLog(context.Background(), log))
	}

	result, err := h.Handle(context.Background(), RecordStudyCommand{
		UserID:  "u1",
		Content: strings.Repeat("다", 20),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.ForgottenNotes)
	assert.Equal(t, 1, result.IntelligenceLost)

	count, _ := studyRepo.CountByUser(context.Background(), "u1")
	assert.Equal(t, study.MaxStudyLogs, count)

	// Самая старая заметка ушла, новая осталась.
	oldest, err := studyRepo.GetOldestLog(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotEqual(t, base, oldest.CreatedAt)

	// +2 за новую заметку, -1 за забытую.
	saved, _ := petRepo.GetByUserID(context.Background(), "u1")
	assert.Equal(t, pet.Intelligence(101), saved.Intelligence)
}

func TestRecordStudy_LevelUpPublishesEvent(t *testing.T) {
	p := newTestPet(t, "u1")
	p.LastStudiedAt = time.Now().UTC().Add(-2 * time.Hour)
	p.Experience = 180
	h, _, _, publisher := newRecordStudyFixture(p)

	// 100 рун дают +50 опыта: 180 -> 230, порог уровня 200.
	result, err := h.Handle(context.Background(), RecordStudyCommand{
		UserID:  "u1",
		Content: strings.Repeat("라", 100),
	})
	require.NoError(t, err)

	assert.True(t, result.LeveledUp)
	assert.Equal(t, pet.Level(2), result.NewLevel)
	assert.True(t, publisher.has(shared.EventLevelUp))
}

func TestRecordStudy_DeadPetSettlesAndRejects(t *testing.T) {
	p := newTestPet(t, "u1")
	p.LastStudiedAt = time.Now().UTC().Add(-2 * time.Hour)
	p.Hunger = 0
	h, petRepo, studyRepo, publisher := newRecordStudyFixture(p)

	_, err := h.Handle(context.Background(), RecordStudyCommand{UserID: "u1", Content: "미분"})
	assert.ErrorIs(t, err, pet.ErrDead)

	// Вычисленная смерть зафиксирована в хранилище.
	saved, _ := petRepo.GetByUserID(context.Background(), "u1")
	assert.True(t, saved.IsDead)
	assert.False(t, saved.DiedAt.IsZero())
	assert.True(t, publisher.has(shared.EventPetDied))

	count, _ := studyRepo.CountByUser(context.Background(), "u1")
	assert.Zero(t, count)
}
