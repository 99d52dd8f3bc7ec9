package command

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
	"github.com/studygotchi/studygotchi-hub/internal/domain/study"
)

func newForgetNoteFixture(p *pet.Pet, logs ...*study.Log) (*ForgetNoteHandler, *fakePetRepo, *fakeStudyRepo) {
	petRepo := newFakePetRepo(p)
	studyRepo := &fakeStudyRepo{logs: logs}
	h := NewForgetNoteHandler(
		petRepo, studyRepo, newFakeSessions(), &fakePetCache{}, &fakePublisher{},
	)
	return h, petRepo, studyRepo
}

func newTestLog(t *testing.T, id, userID, petID, content string) *study.Log {
	t.Helper()
	log, err := study.NewLog(id, userID, petID, content, time.Now().UTC())
	require.NoError(t, err)
	return log
}

func TestForgetNote_TakesIntelligenceBack(t *testing.T) {
	p := newTestPet(t, "u1")
	p.Intelligence = 50
	// 40 рун: заметка стоила 4 интеллекта
	log := newTestLog(t, "log-1", "u1", p.ID, strings.Repeat("가", 40))
	keeper := newTestLog(t, "log-2", "u1", p.ID, "남는 노트")
	h, petRepo, studyRepo := newForgetNoteFixture(p, log, keeper)

	result, err := h.Handle(context.Background(), ForgetNoteCommand{
		UserID: "u1",
		LogID:  "log-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.IntelligenceLost)
	assert.Equal(t, 1, result.NotesLeft)

	saved := petRepo.pets["u1"]
	assert.Equal(t, pet.Intelligence(46), saved.Intelligence)

	_, err = studyRepo.GetLog(context.Background(), "log-1")
	assert.ErrorIs(t, err, shared.ErrStudyLogNotFound)
}

func TestForgetNote_IntelligenceFlooredAtZero(t *testing.T) {
	p := newTestPet(t, "u1")
	p.Intelligence = 2
	log := newTestLog(t, "log-1", "u1", p.ID, strings.Repeat("가", 100))
	h, petRepo, _ := newForgetNoteFixture(p, log)

	result, err := h.Handle(context.Background(), ForgetNoteCommand{
		UserID: "u1",
		LogID:  "log-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 10, result.IntelligenceLost)
	assert.Equal(t, pet.Intelligence(0), petRepo.pets["u1"].Intelligence)
}

func TestForgetNote_ForeignNoteForbidden(t *testing.T) {
	p := newTestPet(t, "u1")
	// Заметка другого пользователя
	log := newTestLog(t, "log-1", "u2", "pet-2", "남의 노트")
	h, _, studyRepo := newForgetNoteFixture(p, log)

	_, err := h.Handle(context.Background(), ForgetNoteCommand{
		UserID: "u1",
		LogID:  "log-1",
	})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	// Чужая заметка остаётся на месте
	n, _ := studyRepo.CountByUser(context.Background(), "u2")
	assert.Equal(t, 1, n)
}

func TestForgetNote_MissingNote(t *testing.T) {
	p := newTestPet(t, "u1")
	h, _, _ := newForgetNoteFixture(p)

	_, err := h.Handle(context.Background(), ForgetNoteCommand{
		UserID: "u1",
		LogID:  "nope",
	})
	assert.ErrorIs(t, err, shared.ErrStudyLogNotFound)
}
