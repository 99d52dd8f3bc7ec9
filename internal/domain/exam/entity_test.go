package exam

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewExam_Validation(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	e, err := NewExam("teacher-1", "", "  이순신 장군이 활약한 전쟁은?  ", "임진왜란", at)
	assert.NoError(t, err)
	assert.Equal(t, "이순신 장군이 활약한 전쟁은?", e.Question)
	assert.True(t, e.IsActive)
	assert.True(t, e.IsGlobal())

	_, err = NewExam("", "", "q", "a", at)
	assert.ErrorIs(t, err, ErrInvalidUserID)
	_, err = NewExam("teacher-1", "", "  ", "a", at)
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	_, err = NewExam("teacher-1", "", "q", "", at)
	assert.ErrorIs(t, err, ErrEmptyAnswer)
}

func TestExam_RoomScoping(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e, err := NewExam("teacher-1", "room-1", "q", "a", at)
	assert.NoError(t, err)
	assert.False(t, e.IsGlobal())
}

func TestGrade_Score(t *testing.T) {
	assert.Equal(t, 50, Grade{IsCorrect: true}.Score())
	assert.Equal(t, 10, Grade{IsCorrect: false}.Score())
}

func TestNewResult(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	r, err := NewResult(7, "user-1", "임진왜란이에요!", Grade{IsCorrect: true, Explanation: "맞음"}, at)
	assert.NoError(t, err)
	assert.True(t, r.IsCorrect)
	assert.Equal(t, ScoreCorrect, r.Score)

	_, err = NewResult(0, "user-1", "x", Grade{}, at)
	assert.ErrorIs(t, err, ErrInvalidExamID)
	_, err = NewResult(7, "", "x", Grade{}, at)
	assert.ErrorIs(t, err, ErrInvalidUserID)
}
