package chat

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateInput(t *testing.T) {
	msg, err := ValidateInput("  세종대왕이 누구야?  ")
	assert.NoError(t, err)
	assert.Equal(t, "세종대왕이 누구야?", msg)

	_, err = ValidateInput("   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	// 30 runes pass, 31 rejected
	_, err = ValidateInput(strings.Repeat("가", 30))
	assert.NoError(t, err)
	_, err = ValidateInput(strings.Repeat("가", 31))
	assert.ErrorIs(t, err, ErrMessageTooLong)
}

func TestSession_ExchangeBudget(t *testing.T) {
	s := NewSession("user-1", "pet-1")
	assert.Equal(t, ExchangesPerSession, s.Remaining())

	for i := 0; i < ExchangesPerSession; i++ {
		assert.NoError(t, s.RecordExchange("q", "a"))
	}
	assert.True(t, s.Exhausted())
	assert.ErrorIs(t, s.RecordExchange("q", "a"), ErrSessionExhausted)
	assert.Len(t, s.History, ExchangesPerSession*2)
}

func TestSession_WindowKeepsRecentTurns(t *testing.T) {
	s := NewSession("user-1", "pet-1")
	for i := 0; i < ExchangesPerSession; i++ {
		assert.NoError(t, s.RecordExchange(
			fmt.Sprintf("q%d", i),
			fmt.Sprintf("a%d", i),
		))
	}

	w := s.Window()
	assert.Len(t, w, HistoryWindow)
	assert.Equal(t, "q0", w[0].Text)
	assert.Equal(t, "a4", w[len(w)-1].Text)
}

func TestSession_WindowTruncates(t *testing.T) {
	s := &Session{UserID: "user-1", PetID: "pet-1"}
	for i := 0; i < 7; i++ {
		s.History = append(s.History,
			Turn{Role: RoleUser, Text: fmt.Sprintf("q%d", i)},
			Turn{Role: RolePet, Text: fmt.Sprintf("a%d", i)},
		)
	}

	w := s.Window()
	assert.Len(t, w, HistoryWindow)
	// oldest turns dropped
	assert.Equal(t, "q2", w[0].Text)
}
