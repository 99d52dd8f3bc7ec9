package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/classroom"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOIN CLASSROOM COMMAND
// A student enters a join code and becomes a classroom member, gaining
// access to its exams and its scoped leaderboard.
// ══════════════════════════════════════════════════════════════════════════════

// JoinClassroomCommand contains the data to join a classroom.
type JoinClassroomCommand struct {
	// UserID is the joining student.
	UserID string

	// Code is the join code as typed by the student.
	Code string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c JoinClassroomCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("join_classroom: user_id is required")
	}
	if c.Code == "" {
		return errors.New("join_classroom: code is required")
	}
	return nil
}

// JoinClassroomResult contains the result of joining a classroom.
type JoinClassroomResult struct {
	// Classroom is the joined classroom.
	Classroom *classroom.Classroom

	// Membership is the created membership record.
	Membership *classroom.Membership

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// JoinClassroomHandler handles the JoinClassroomCommand.
type JoinClassroomHandler struct {
	classroomRepo  classroom.Repository
	eventPublisher shared.EventPublisher
}

// NewJoinClassroomHandler creates a new JoinClassroomHandler.
func NewJoinClassroomHandler(
	classroomRepo classroom.Repository,
	eventPublisher shared.EventPublisher,
) *JoinClassroomHandler {
	return &JoinClassroomHandler{
		classroomRepo:  classroomRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the join classroom command.
func (h *JoinClassroomHandler) Handle(ctx context.Context, cmd JoinClassroomCommand) (*JoinClassroomResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("join_classroom: validation failed: %w", err)
	}

	code := classroom.Normalize(cmd.Code)
	if !code.IsValid() {
		return nil, fmt.Errorf("join_classroom: %w", classroom.ErrInvalidCode)
	}

	room, err := h.classroomRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("join_classroom: %w", err)
	}

	membership, err := classroom.NewMembership(room.ID, cmd.UserID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("join_classroom: %w", err)
	}

	if err := h.classroomRepo.AddMember(ctx, membership); err != nil {
		return nil, fmt.Errorf("join_classroom: %w", err)
	}

	event := shared.NewClassroomJoinedEvent(room.ID, room.Name, cmd.UserID)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &JoinClassroomResult{
		Classroom:  room,
		Membership: membership,
		Events:     []shared.Event{event},
	}, nil
}
