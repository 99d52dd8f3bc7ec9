package study

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewLog_Validation(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	log, err := NewLog("log-1", "user-1", "pet-1", "  광합성은 빛에너지를 화학에너지로 바꾼다  ", at)
	assert.NoError(t, err)
	assert.Equal(t, "광합성은 빛에너지를 화학에너지로 바꾼다", log.Content)

	_, err = NewLog("log-1", "user-1", "pet-1", "   ", at)
	assert.ErrorIs(t, err, ErrEmptyNote)

	_, err = NewLog("log-1", "", "pet-1", "note", at)
	assert.ErrorIs(t, err, ErrInvalidUserID)

	// 100 runes is the limit; 101 is rejected
	_, err = NewLog("log-1", "user-1", "pet-1", strings.Repeat("가", 100), at)
	assert.NoError(t, err)
	_, err = NewLog("log-1", "user-1", "pet-1", strings.Repeat("가", 101), at)
	assert.ErrorIs(t, err, ErrNoteTooLong)
}

func TestGainsFor_CountsRunesNotBytes(t *testing.T) {
	// 40 Korean runes (120 bytes in UTF-8)
	note := strings.Repeat("가", 40)
	g := GainsFor(note)
	assert.Equal(t, 4, g.Intelligence)
	assert.Equal(t, 2, g.Points)
	assert.Equal(t, 20, g.Experience)
}

func TestGainsFor_FloorOfOne(t *testing.T) {
	g := GainsFor("ab")
	assert.Equal(t, 1, g.Intelligence)
	assert.Equal(t, 1, g.Points)
	assert.Equal(t, 1, g.Experience)
}

func TestGainsFor_FullLengthNote(t *testing.T) {
	g := GainsFor(strings.Repeat("a", 100))
	assert.Equal(t, 10, g.Intelligence)
	assert.Equal(t, 5, g.Points)
	assert.Equal(t, 50, g.Experience)
}

func TestExamMaterial_TakesFiveNewest(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var logs []*Log
	contents := []string{"g", "f", "e", "d", "c", "b", "a"} // newest first
	for i, c := range contents {
		l, err := NewLog("log-"+c, "user-1", "pet-1", c, at.Add(-time.Duration(i)*time.Hour))
		assert.NoError(t, err)
		logs = append(logs, l)
	}

	material, err := ExamMaterial(logs)
	assert.NoError(t, err)
	assert.Equal(t, []string{"g", "f", "e", "d", "c"}, material)
}

func TestExamMaterial_FewerThanWindow(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l, _ := NewLog("log-1", "user-1", "pet-1", "only note", at)

	material, err := ExamMaterial([]*Log{l})
	assert.NoError(t, err)
	assert.Equal(t, []string{"only note"}, material)
}

func TestExamMaterial_EmptyRejected(t *testing.T) {
	_, err := ExamMaterial(nil)
	assert.ErrorIs(t, err, ErrNoMaterial)
}

func TestForgetLoss_MirrorsGain(t *testing.T) {
	note := strings.Repeat("가", 35)
	assert.Equal(t, GainsFor(note).Intelligence, ForgetLoss(note))
	assert.Equal(t, 1, ForgetLoss("x"))
}
