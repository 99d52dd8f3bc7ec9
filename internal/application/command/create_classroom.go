package command

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/studygotchi/studygotchi-hub/internal/domain/classroom"
	"github.com/studygotchi/studygotchi-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE CLASSROOM COMMAND
// A teacher opens a classroom and gets a six-char join code to hand
// out. Code collisions are retried a few times; the code space is
// large enough that running out of retries means a broken repository.
// ══════════════════════════════════════════════════════════════════════════════

// codeAttempts bounds the collision retry loop.
const codeAttempts = 5

// CreateClassroomCommand contains the data to create a classroom.
type CreateClassroomCommand struct {
	// TeacherID is the creating teacher.
	TeacherID string

	// Name is the classroom name (1-50 runes).
	Name string
}

// Validate validates the command.
func (c CreateClassroomCommand) Validate() error {
	if c.TeacherID == "" {
		return errors.New("create_classroom: teacher_id is required")
	}
	if c.Name == "" {
		return errors.New("create_classroom: name is required")
	}
	return nil
}

// CreateClassroomResult contains the created classroom.
type CreateClassroomResult struct {
	// Classroom is the created classroom with its join code.
	Classroom *classroom.Classroom
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CreateClassroomHandler handles the CreateClassroomCommand.
type CreateClassroomHandler struct {
	classroomRepo classroom.Repository
	userRepo      user.Repository
	rng           *rand.Rand
}

// NewCreateClassroomHandler creates a new CreateClassroomHandler.
func NewCreateClassroomHandler(
	classroomRepo classroom.Repository,
	userRepo user.Repository,
) *CreateClassroomHandler {
	return &CreateClassroomHandler{
		classroomRepo: classroomRepo,
		userRepo:      userRepo,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Handle executes the create classroom command.
func (h *CreateClassroomHandler) Handle(ctx context.Context, cmd CreateClassroomCommand) (*CreateClassroomResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_classroom: validation failed: %w", err)
	}

	creator, err := h.userRepo.GetByID(ctx, cmd.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("create_classroom: failed to load user: %w", err)
	}
	if !creator.IsTeacher() {
		return nil, fmt.Errorf("create_classroom: %w", classroom.ErrNotTeacher)
	}

	code, err := h.freeCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("create_classroom: %w", err)
	}

	room, err := classroom.NewClassroom(uuid.NewString(), cmd.Name, cmd.TeacherID, code, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("create_classroom: %w", err)
	}

	if err := h.classroomRepo.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("create_classroom: failed to save classroom: %w", err)
	}

	return &CreateClassroomResult{Classroom: room}, nil
}

// freeCode generates a join code not yet taken by another classroom.
func (h *CreateClassroomHandler) freeCode(ctx context.Context) (classroom.Code, error) {
	for i := 0; i < codeAttempts; i++ {
		code := classroom.GenerateCode(h.rng)
		_, err := h.classroomRepo.GetByCode(ctx, code)
		if errors.Is(err, classroom.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check code: %w", err)
		}
	}
	return "", errors.New("could not find a free join code")
}
