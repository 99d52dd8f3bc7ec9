// Package exam contains domain entities and business logic for exams.
package exam

import (
	"context"
	"time"
)

// Repository defines the interface for exam persistence.
// This interface is implemented by the infrastructure layer.
type Repository interface {
	// Exam operations

	// CreateExam persists a new exam and fills in its ID.
	CreateExam(ctx context.Context, e *Exam) error

	// GetExam returns an exam by ID.
	GetExam(ctx context.Context, id int64) (*Exam, error)

	// GetActiveGlobal returns active exams with no classroom, newest first.
	GetActiveGlobal(ctx context.Context, limit int) ([]*Exam, error)

	// GetActiveByRooms returns active exams for the given classrooms, newest first.
	GetActiveByRooms(ctx context.Context, roomIDs []string, limit int) ([]*Exam, error)

	// UpdateExam persists exam changes (deactivation).
	UpdateExam(ctx context.Context, e *Exam) error

	// Result operations

	// SaveResult persists a graded attempt and fills in its ID.
	SaveResult(ctx context.Context, r *Result) error

	// GetResultsByUser returns a user's results, newest first.
	GetResultsByUser(ctx context.Context, userID string, limit int) ([]*Result, error)

	// GetResultsByExam returns all results for one exam.
	GetResultsByExam(ctx context.Context, examID int64) ([]*Result, error)

	// HasAnswered checks whether a user already answered an exam.
	HasAnswered(ctx context.Context, examID int64, userID string) (bool, error)

	// CountCorrectSince returns a user's correct answers since the given time.
	CountCorrectSince(ctx context.Context, userID string, since time.Time) (int, error)
}

// Solver answers an exam question using only the pet's study material.
// Implemented by the Gemini client in infrastructure; the cheat sheet
// lets the solver fall back on general encyclopedic knowledge.
type Solver interface {
	Solve(ctx context.Context, material []string, question string, cheatSheet bool, userName string) (string, error)
}

// Grader compares a pet's answer to the model answer and returns a verdict.
// Implemented by the Gemini client in infrastructure.
type Grader interface {
	Grade(ctx context.Context, question, modelAnswer, petAnswer string) (Grade, error)
}
