// Package chat contains domain logic for pet conversations: the
// bounded session (five exchanges, short inputs), the rolling history
// window handed to the dialogue model, and the ports the dialogue
// provider implements. This is a pure domain layer.
package chat

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"
)

// Session limits. Mirrored by the web client.
const (
	// ExchangesPerSession is how many question/answer rounds fit in one chat.
	ExchangesPerSession = 5

	// MaxInputLength is the maximum user message length in runes.
	MaxInputLength = 30

	// HistoryWindow is how many recent turns are passed to the dialogue model.
	HistoryWindow = 10
)

// Domain errors for chat package.
var (
	ErrEmptyMessage     = errors.New("chat: message is empty")
	ErrMessageTooLong   = errors.New("chat: message exceeds max length")
	ErrSessionExhausted = errors.New("chat: session has no exchanges left")
)

// Role identifies the speaker of a turn.
type Role string

const (
	RoleUser Role = "user"
	RolePet  Role = "model"
)

// Turn is one utterance in the conversation.
type Turn struct {
	Role Role
	Text string
}

// Session is one bounded conversation with a pet. Sessions are
// ephemeral: they live in memory (or a short-TTL cache), never in
// long-term storage. Only extracted knowledge survives as study notes.
type Session struct {
	UserID    string
	PetID     string
	History   []Turn
	Exchanges int
}

// NewSession starts a fresh conversation.
func NewSession(userID, petID string) *Session {
	return &Session{
		UserID: userID,
		PetID:  petID,
	}
}

// Remaining returns how many exchanges are left in the session.
func (s *Session) Remaining() int {
	left := ExchangesPerSession - s.Exchanges
	if left < 0 {
		return 0
	}
	return left
}

// Exhausted reports whether the session is out of exchanges.
func (s *Session) Exhausted() bool {
	return s.Remaining() == 0
}

// ValidateInput checks a user message against the session limits.
func ValidateInput(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(message) > MaxInputLength {
		return "", ErrMessageTooLong
	}
	return message, nil
}

// RecordExchange appends one question/answer pair and consumes an exchange.
func (s *Session) RecordExchange(userMessage, petAnswer string) error {
	if s.Exhausted() {
		return ErrSessionExhausted
	}
	s.History = append(s.History,
		Turn{Role: RoleUser, Text: userMessage},
		Turn{Role: RolePet, Text: petAnswer},
	)
	s.Exchanges++
	return nil
}

// Window returns the most recent HistoryWindow turns for the dialogue model.
func (s *Session) Window() []Turn {
	if len(s.History) <= HistoryWindow {
		return s.History
	}
	return s.History[len(s.History)-HistoryWindow:]
}

// Dialogue generates a pet's reply in character. Implemented by the
// Gemini client in infrastructure. The pet answers from its study
// material only and in the voice of its MBTI personality.
type Dialogue interface {
	Reply(ctx context.Context, req ReplyRequest) (string, error)

	// React produces the pet's one-line reaction to a freshly taught note.
	React(ctx context.Context, noteContent string) (string, error)

	// ExtractLearning pulls the teachable content out of one exchange.
	// Empty result means the exchange held no knowledge worth saving.
	ExtractLearning(ctx context.Context, userMessage, petAnswer string) (string, error)
}

// ReplyRequest carries everything the dialogue model needs for one reply.
type ReplyRequest struct {
	UserMessage string
	History     []Turn
	MBTI        string
	Material    []string
	UserName    string
	PetName     string
}
