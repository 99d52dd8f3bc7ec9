package saga

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studygotchi/studygotchi-hub/internal/domain/exam"
	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
	"github.com/studygotchi/studygotchi-hub/internal/domain/study"
	"github.com/studygotchi/studygotchi-hub/internal/domain/user"
)

type examFlowFixture struct {
	saga      *ExamFlowSaga
	petRepo   *fakePetRepo
	userRepo  *fakeUserRepo
	examRepo  *fakeExamRepo
	studyRepo *fakeStudyRepo
	solver    *fakeSolver
	grader    *fakeGrader
	publisher *fakePublisher
}

func newExamFlowFixture(t *testing.T, grade exam.Grade) *examFlowFixture {
	t.Helper()

	p, err := pet.NewPet(pet.NewPetParams{
		ID:     uuid.NewString(),
		UserID: "u1",
		Name:   "코코",
		MBTI:   "ENTP",
	})
	require.NoError(t, err)

	e, err := exam.NewExam("teacher-1", "", "한글을 만든 왕은?", "세종대왕", time.Now().UTC())
	require.NoError(t, err)
	e.ID = 7

	f := &examFlowFixture{
		petRepo:   newFakePetRepo(p),
		userRepo:  newFakeUserRepo(&user.User{ID: "u1", Email: "u1@studygotchi.dev", DisplayName: "민지", Items: user.Items{CheatSheet: 1}}),
		examRepo:  newFakeExamRepo(e),
		studyRepo: &fakeStudyRepo{},
		solver:    &fakeSolver{answer: "세종대왕이에요!"},
		grader:    &fakeGrader{grade: grade},
		publisher: &fakePublisher{},
	}
	f.saga = NewExamFlowSaga(
		f.petRepo, f.userRepo, f.examRepo, f.studyRepo, newFakeSessions(),
		f.solver, f.grader, f.publisher, DefaultExamFlowConfig(),
	)
	return f
}

func (f *examFlowFixture) addNotes(t *testing.T, contents ...string) {
	t.Helper()
	base := time.Now().UTC().Add(-time.Hour)
	for i, content := range contents {
		log, err := study.NewLog(uuid.NewString(), "u1", "pet-1", content, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		require.NoError(t, f.studyRepo.SaveLog(context.Background(), log))
	}
}

func TestExamFlow_CorrectAnswerPaysRewards(t *testing.T) {
	f := newExamFlowFixture(t, exam.Grade{IsCorrect: true, Explanation: "정답입니다"})
	f.addNotes(t, "세종대왕이 한글을 만들었다", "훈민정음 1446년 반포")

	result, err := f.saga.Execute(context.Background(), ExamFlowInput{UserID: "u1", UserName: "민지", ExamID: 7})
	require.NoError(t, err)

	assert.True(t, result.Result.IsCorrect)
	assert.Equal(t, exam.ScoreCorrect, result.Result.Score)
	assert.Equal(t, "정답입니다", result.Explanation)
	assert.Equal(t, "세종대왕이에요!", result.PetAnswer)
	assert.False(t, result.CheatSheetUsed)

	// Решатель получил только заметки игрока, образцового ответа там нет.
	assert.Equal(t, []string{"훈민정음 1446년 반포", "세종대왕이 한글을 만들었다"}, f.solver.material)

	// Экзамен - тоже учёба: +50 опыта, +10 интеллекта, чекпоинт сдвинут.
	saved, _ := f.petRepo.GetByUserID(context.Background(), "u1")
	assert.Equal(t, pet.Experience(50), saved.Experience)
	assert.Equal(t, pet.Intelligence(pet.InitialIntelligence+10), saved.Intelligence)
	assert.WithinDuration(t, time.Now().UTC(), saved.LastStudiedAt, time.Minute)

	assert.True(t, f.publisher.has(shared.EventExamTaken))
}

func TestExamFlow_WrongAnswerStillRewardsAttempt(t *testing.T) {
	f := newExamFlowFixture(t, exam.Grade{IsCorrect: false, Explanation: "아쉬워요"})

	result, err := f.saga.Execute(context.Background(), ExamFlowInput{UserID: "u1", ExamID: 7})
	require.NoError(t, err)

	assert.False(t, result.Result.IsCorrect)
	assert.Equal(t, exam.ScoreWrong, result.Result.Score)

	saved, _ := f.petRepo.GetByUserID(context.Background(), "u1")
	assert.Equal(t, pet.Experience(10), saved.Experience)
}

func TestExamFlow_OneAttemptPerExam(t *testing.T) {
	f := newExamFlowFixture(t, exam.Grade{IsCorrect: true})

	_, err := f.saga.Execute(context.Background(), ExamFlowInput{UserID: "u1", ExamID: 7})
	require.NoError(t, err)

	_, err = f.saga.Execute(context.Background(), ExamFlowInput{UserID: "u1", ExamID: 7})
	assert.ErrorIs(t, err, ErrAlreadyAnswered)
}

func TestExamFlow_ClosedExamRejected(t *testing.T) {
	f := newExamFlowFixture(t, exam.Grade{IsCorrect: true})
	e, _ := f.examRepo.GetExam(context.Background(), 7)
	e.Deactivate()

	_, err := f.saga.Execute(context.Background(), ExamFlowInput{UserID: "u1", ExamID: 7})
	assert.ErrorIs(t, err, ErrExamClosed)
}

func TestExamFlow_CheatSheetConsumed(t *testing.T) {
	f := newExamFlowFixture(t, exam.Grade{IsCorrect: true})

	result, err := f.saga.Execute(context.Background(), ExamFlowInput{UserID: "u1", ExamID: 7, UseCheatSheet: true})
	require.NoError(t, err)

	assert.True(t, result.CheatSheetUsed)
	assert.True(t, f.solver.cheatSheet)

	owner, _ := f.userRepo.GetByID(context.Background(), "u1")
	assert.Zero(t, owner.Items.CheatSheet)
}

func TestExamFlow_CheatSheetMissing(t *testing.T) {
	f := newExamFlowFixture(t, exam.Grade{IsCorrect: true})
	owner, _ := f.userRepo.GetByID(context.Background(), "u1")
	owner.Items.CheatSheet = 0
	require.NoError(t, f.userRepo.Update(context.Background(), owner))

	_, err := f.saga.Execute(context.Background(), ExamFlowInput{UserID: "u1", ExamID: 7, UseCheatSheet: true})
	assert.ErrorIs(t, err, user.ErrNoCheatSheet)
}

func TestExamFlow_DeadPetRejected(t *testing.T) {
	f := newExamFlowFixture(t, exam.Grade{IsCorrect: true})
	p, _ := f.petRepo.GetByUserID(context.Background(), "u1")
	p.IsDead = true
	require.NoError(t, f.petRepo.Update(context.Background(), p))

	_, err := f.saga.Execute(context.Background(), ExamFlowInput{UserID: "u1", ExamID: 7})
	assert.ErrorIs(t, err, pet.ErrDead)
}

func TestExamFlow_AvailableExamsFiltersAnswered(t *testing.T) {
	f := newExamFlowFixture(t, exam.Grade{IsCorrect: true})

	scoped, err := exam.NewExam("teacher-1", "room-1", "2+2는?", "4", time.Now().UTC())
	require.NoError(t, err)
	scoped.ID = 8
	require.NoError(t, f.examRepo.UpdateExam(context.Background(), scoped))

	// Глобальный экзамен уже сдан, остаётся только классный.
	_, err = f.saga.Execute(context.Background(), ExamFlowInput{UserID: "u1", ExamID: 7})
	require.NoError(t, err)

	available, err := f.saga.AvailableExams(context.Background(), "u1", []string{"room-1"}, 10)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, int64(8), available[0].ID)
}
