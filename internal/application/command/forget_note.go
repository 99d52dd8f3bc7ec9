package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
	"github.com/studygotchi/studygotchi-hub/internal/domain/study"
)

// ══════════════════════════════════════════════════════════════════════════════
// FORGET NOTE COMMAND
// Deletes a study note on request. Knowledge lives in the notes:
// removing one costs the pet the intelligence that note was worth,
// floored at zero.
// ══════════════════════════════════════════════════════════════════════════════

// ForgetNoteCommand contains the data to delete a study note.
type ForgetNoteCommand struct {
	// UserID is the pet owner.
	UserID string

	// LogID is the note to delete.
	LogID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c ForgetNoteCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("forget_note: user_id is required")
	}
	if c.LogID == "" {
		return errors.New("forget_note: log_id is required")
	}
	return nil
}

// ForgetNoteResult contains the result of deleting a study note.
type ForgetNoteResult struct {
	// IntelligenceLost is the intelligence the note took with it.
	IntelligenceLost int

	// NotesLeft is how many notes remain.
	NotesLeft int
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ForgetNoteHandler handles the ForgetNoteCommand.
type ForgetNoteHandler struct {
	petRepo        pet.Repository
	studyRepo      study.Repository
	sessions       pet.SessionTracker
	petCache       pet.Cache
	eventPublisher shared.EventPublisher
}

// NewForgetNoteHandler creates a new ForgetNoteHandler.
func NewForgetNoteHandler(
	petRepo pet.Repository,
	studyRepo study.Repository,
	sessions pet.SessionTracker,
	petCache pet.Cache,
	eventPublisher shared.EventPublisher,
) *ForgetNoteHandler {
	return &ForgetNoteHandler{
		petRepo:        petRepo,
		studyRepo:      studyRepo,
		sessions:       sessions,
		petCache:       petCache,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the forget note command.
func (h *ForgetNoteHandler) Handle(ctx context.Context, cmd ForgetNoteCommand) (*ForgetNoteResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("forget_note: validation failed: %w", err)
	}

	now := time.Now().UTC()

	log, err := h.studyRepo.GetLog(ctx, cmd.LogID)
	if err != nil {
		return nil, fmt.Errorf("forget_note: %w", err)
	}
	if log.UserID != cmd.UserID {
		return nil, fmt.Errorf("forget_note: %w", shared.ErrForbidden)
	}

	live, err := resolveLivePet(ctx, h.petRepo, h.sessions, h.eventPublisher, cmd.UserID, now)
	if err != nil {
		return nil, fmt.Errorf("forget_note: %w", err)
	}
	p := live.Pet

	if err := h.studyRepo.DeleteLog(ctx, cmd.LogID); err != nil {
		return nil, fmt.Errorf("forget_note: failed to delete note: %w", err)
	}

	loss := study.ForgetLoss(log.Content)
	p.ForgetNotes(pet.Intelligence(loss))

	if err := h.petRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("forget_note: failed to update pet: %w", err)
	}
	if h.petCache != nil {
		_ = h.petCache.Invalidate(ctx, p.ID)
	}

	left, err := h.studyRepo.CountByUser(ctx, cmd.UserID)
	if err != nil {
		left = 0
	}

	return &ForgetNoteResult{
		IntelligenceLost: loss,
		NotesLeft:        left,
	}, nil
}
