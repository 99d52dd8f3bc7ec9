// Package study contains domain entities and business logic for
// study notes: the knowledge a pet accumulates, the rewards each note
// yields, and the rolling window of notes used as exam material.
// This is a pure domain layer with zero external dependencies.
package study

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// Reward arithmetic and window sizes. All values are mirrored by the
// web client; changing one side silently skews the game economy.
const (
	// MaxNoteLength is the maximum note length in runes.
	MaxNoteLength = 100

	// IntelligencePerChars yields +1 intelligence per this many runes.
	IntelligencePerChars = 10

	// PointsPerChars yields +1 point per this many runes.
	PointsPerChars = 20

	// ExpPerChars yields +1 experience per this many runes.
	ExpPerChars = 2

	// MaxStudyLogs caps stored notes per user. Saving beyond the cap
	// evicts the oldest note first.
	MaxStudyLogs = 20

	// MaxLogsForExam is how many recent notes feed one exam question.
	MaxLogsForExam = 5
)

// Domain errors for study package.
var (
	ErrInvalidUserID = errors.New("study: invalid user ID")
	ErrInvalidPetID  = errors.New("study: invalid pet ID")
	ErrEmptyNote     = errors.New("study: note is empty")
	ErrNoteTooLong   = errors.New("study: note exceeds max length")
	ErrNoMaterial    = errors.New("study: no notes available for exam")
)

// Log represents one saved study note.
type Log struct {
	ID        string
	UserID    string
	PetID     string
	Content   string
	CreatedAt time.Time
}

// NewLog creates a study log after validating the note content.
// The note is trimmed; an empty or over-long note is rejected.
func NewLog(id, userID, petID, content string, at time.Time) (*Log, error) {
	if id == "" {
		return nil, errors.New("study: invalid log ID")
	}
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if petID == "" {
		return nil, ErrInvalidPetID
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyNote
	}
	if utf8.RuneCountInString(content) > MaxNoteLength {
		return nil, ErrNoteTooLong
	}

	return &Log{
		ID:        id,
		UserID:    userID,
		PetID:     petID,
		Content:   content,
		CreatedAt: at,
	}, nil
}

// Length returns the note length in runes.
func (l *Log) Length() int {
	return utf8.RuneCountInString(l.Content)
}

// Gains holds the rewards one note yields.
type Gains struct {
	Intelligence int
	Points       int
	Experience   int
}

// GainsFor computes the rewards for a note of the given content.
// Every reward has a floor of 1: even a one-rune note teaches something.
func GainsFor(content string) Gains {
	n := utf8.RuneCountInString(strings.TrimSpace(content))
	return Gains{
		Intelligence: atLeastOne(n / IntelligencePerChars),
		Points:       atLeastOne(n / PointsPerChars),
		Experience:   atLeastOne(n / ExpPerChars),
	}
}

// Gains computes the rewards this log yields.
func (l *Log) Gains() Gains {
	return GainsFor(l.Content)
}

func atLeastOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// ExamMaterial selects the notes that feed one exam question:
// the most recent MaxLogsForExam notes, newest first.
// Logs must already be sorted newest first (repository order).
func ExamMaterial(logs []*Log) ([]string, error) {
	if len(logs) == 0 {
		return nil, ErrNoMaterial
	}
	n := len(logs)
	if n > MaxLogsForExam {
		n = MaxLogsForExam
	}
	material := make([]string, 0, n)
	for _, l := range logs[:n] {
		material = append(material, l.Content)
	}
	return material, nil
}

// ForgetLoss is the intelligence lost when a note is deleted.
// Symmetric with the gain: what the note taught, its loss unteaches.
func ForgetLoss(content string) int {
	return atLeastOne(utf8.RuneCountInString(strings.TrimSpace(content)) / IntelligencePerChars)
}
