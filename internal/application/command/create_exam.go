package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/classroom"
	"github.com/studygotchi/studygotchi-hub/internal/domain/exam"
	"github.com/studygotchi/studygotchi-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE EXAM COMMAND
// A teacher posts a question with a model answer. Scoped to one of the
// teacher's classrooms, or global when no classroom is given.
// ══════════════════════════════════════════════════════════════════════════════

// CreateExamCommand contains the data to create an exam.
type CreateExamCommand struct {
	// AuthorID is the teacher posting the exam.
	AuthorID string

	// RoomID scopes the exam to a classroom; empty means global.
	RoomID string

	// Question is the exam question.
	Question string

	// ModelAnswer is the reference answer used for grading.
	ModelAnswer string
}

// Validate validates the command.
func (c CreateExamCommand) Validate() error {
	if c.AuthorID == "" {
		return errors.New("create_exam: author_id is required")
	}
	if c.Question == "" {
		return errors.New("create_exam: question is required")
	}
	if c.ModelAnswer == "" {
		return errors.New("create_exam: model_answer is required")
	}
	return nil
}

// CreateExamResult contains the created exam.
type CreateExamResult struct {
	// Exam is the created exam with its assigned ID.
	Exam *exam.Exam
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CreateExamHandler handles the CreateExamCommand.
type CreateExamHandler struct {
	examRepo      exam.Repository
	userRepo      user.Repository
	classroomRepo classroom.Repository
}

// NewCreateExamHandler creates a new CreateExamHandler.
func NewCreateExamHandler(
	examRepo exam.Repository,
	userRepo user.Repository,
	classroomRepo classroom.Repository,
) *CreateExamHandler {
	return &CreateExamHandler{
		examRepo:      examRepo,
		userRepo:      userRepo,
		classroomRepo: classroomRepo,
	}
}

// Handle executes the create exam command.
func (h *CreateExamHandler) Handle(ctx context.Context, cmd CreateExamCommand) (*CreateExamResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_exam: validation failed: %w", err)
	}

	author, err := h.userRepo.GetByID(ctx, cmd.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("create_exam: failed to load user: %w", err)
	}
	if !author.IsTeacher() {
		return nil, fmt.Errorf("create_exam: %w", classroom.ErrNotTeacher)
	}

	if cmd.RoomID != "" {
		room, err := h.classroomRepo.GetByID(ctx, cmd.RoomID)
		if err != nil {
			return nil, fmt.Errorf("create_exam: %w", err)
		}
		if !room.OwnedBy(cmd.AuthorID) {
			return nil, fmt.Errorf("create_exam: %w", classroom.ErrNotTeacher)
		}
	}

	e, err := exam.NewExam(cmd.AuthorID, cmd.RoomID, cmd.Question, cmd.ModelAnswer, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("create_exam: %w", err)
	}

	if err := h.examRepo.CreateExam(ctx, e); err != nil {
		return nil, fmt.Errorf("create_exam: failed to save exam: %w", err)
	}

	return &CreateExamResult{Exam: e}, nil
}
