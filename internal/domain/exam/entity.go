// Package exam contains domain entities and business logic for exams:
// questions posed to a pet, the AI-solved answers, grading and scoring.
// This is a pure domain layer with zero external dependencies.
package exam

import (
	"errors"
	"strings"
	"time"
)

// Scoring mirrors the experience rewards: a correct answer is worth
// what it teaches the pet.
const (
	// ScoreCorrect is the score recorded for a correct answer.
	ScoreCorrect = 50

	// ScoreWrong is the score recorded for a wrong answer.
	ScoreWrong = 10
)

// Domain errors for exam package.
var (
	ErrInvalidExamID   = errors.New("exam: invalid exam ID")
	ErrInvalidUserID   = errors.New("exam: invalid user ID")
	ErrEmptyQuestion   = errors.New("exam: question is empty")
	ErrEmptyAnswer     = errors.New("exam: model answer is empty")
	ErrExamInactive    = errors.New("exam: exam is not active")
	ErrAlreadyAnswered = errors.New("exam: user already answered this exam")
)

// Exam represents one question with its model answer.
// A classroom-scoped exam (RoomID set) is visible only to members of
// that classroom; a global exam (RoomID empty) is visible to everyone.
type Exam struct {
	ID          int64
	RoomID      string // empty for global exams
	AuthorID    string
	Question    string
	ModelAnswer string
	IsActive    bool
	CreatedAt   time.Time
}

// NewExam creates an exam after validating question and model answer.
func NewExam(authorID, roomID, question, modelAnswer string, at time.Time) (*Exam, error) {
	if authorID == "" {
		return nil, ErrInvalidUserID
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	modelAnswer = strings.TrimSpace(modelAnswer)
	if modelAnswer == "" {
		return nil, ErrEmptyAnswer
	}

	return &Exam{
		RoomID:      roomID,
		AuthorID:    authorID,
		Question:    question,
		ModelAnswer: modelAnswer,
		IsActive:    true,
		CreatedAt:   at,
	}, nil
}

// Deactivate retires the exam from the active pool.
func (e *Exam) Deactivate() {
	e.IsActive = false
}

// IsGlobal reports whether the exam is visible outside classrooms.
func (e *Exam) IsGlobal() bool {
	return e.RoomID == ""
}

// Grade is the verdict on a pet's answer.
type Grade struct {
	IsCorrect   bool
	Explanation string
}

// Score returns the score this grade is worth.
func (g Grade) Score() int {
	if g.IsCorrect {
		return ScoreCorrect
	}
	return ScoreWrong
}

// Result records one pet's graded attempt at an exam.
type Result struct {
	ID        int64
	ExamID    int64
	UserID    string
	PetAnswer string
	IsCorrect bool
	Score     int
	CreatedAt time.Time
}

// NewResult creates a result from a graded answer.
func NewResult(examID int64, userID, petAnswer string, grade Grade, at time.Time) (*Result, error) {
	if examID <= 0 {
		return nil, ErrInvalidExamID
	}
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	return &Result{
		ExamID:    examID,
		UserID:    userID,
		PetAnswer: petAnswer,
		IsCorrect: grade.IsCorrect,
		Score:     grade.Score(),
		CreatedAt: at,
	}, nil
}
