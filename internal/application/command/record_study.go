package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/studygotchi/studygotchi-hub/internal/domain/chat"
	"github.com/studygotchi/studygotchi-hub/internal/domain/cooldown"
	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
	"github.com/studygotchi/studygotchi-hub/internal/domain/study"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD STUDY COMMAND
// Saves a study note and pays out its rewards. The note window is
// capped: saving past the cap evicts the oldest notes, and the pet
// forgets the intelligence those notes were worth.
// ══════════════════════════════════════════════════════════════════════════════

// RecordStudyCommand contains the data to record a study note.
type RecordStudyCommand struct {
	// UserID is the pet owner.
	UserID string

	// Content is the note text (1-100 runes).
	Content string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RecordStudyCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("record_study: user_id is required")
	}
	if c.Content == "" {
		return errors.New("record_study: content is required")
	}
	return nil
}

// RecordStudyResult contains the result of recording a study note.
type RecordStudyResult struct {
	// Log is the saved note.
	Log *study.Log

	// Gains holds the rewards the note paid out.
	Gains study.Gains

	// ForgottenNotes is how many old notes were evicted.
	ForgottenNotes int

	// IntelligenceLost is the intelligence lost to forgotten notes.
	IntelligenceLost int

	// LeveledUp indicates the pet gained a level.
	LeveledUp bool

	// NewLevel is the pet level after the note.
	NewLevel pet.Level

	// Reaction is the pet's one-line reaction to the note, best effort.
	Reaction string

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecordStudyHandler handles the RecordStudyCommand.
type RecordStudyHandler struct {
	petRepo        pet.Repository
	studyRepo      study.Repository
	sessions       pet.SessionTracker
	petCache       pet.Cache
	dialogue       chat.Dialogue
	eventPublisher shared.EventPublisher
}

// NewRecordStudyHandler creates a new RecordStudyHandler.
// The dialogue port is optional; without it notes are saved silently.
func NewRecordStudyHandler(
	petRepo pet.Repository,
	studyRepo study.Repository,
	sessions pet.SessionTracker,
	petCache pet.Cache,
	dialogue chat.Dialogue,
	eventPublisher shared.EventPublisher,
) *RecordStudyHandler {
	return &RecordStudyHandler{
		petRepo:        petRepo,
		studyRepo:      studyRepo,
		sessions:       sessions,
		petCache:       petCache,
		dialogue:       dialogue,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the record study command.
func (h *RecordStudyHandler) Handle(ctx context.Context, cmd RecordStudyCommand) (*RecordStudyResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("record_study: validation failed: %w", err)
	}

	now := time.Now().UTC()

	live, err := resolveLivePet(ctx, h.petRepo, h.sessions, h.eventPublisher, cmd.UserID, now)
	if err != nil {
		return nil, fmt.Errorf("record_study: %w", err)
	}
	p := live.Pet

	if err := cooldown.Check(p.LastStudiedAt, now, cooldown.Study); err != nil {
		return nil, fmt.Errorf("record_study: %w (%s left)",
			err, cooldown.Remaining(p.LastStudiedAt, now, cooldown.Study).Round(time.Minute))
	}

	log, err := study.NewLog(uuid.NewString(), cmd.UserID, p.ID, cmd.Content, now)
	if err != nil {
		return nil, fmt.Errorf("record_study: %w", err)
	}

	if err := h.studyRepo.SaveLog(ctx, log); err != nil {
		return nil, fmt.Errorf("record_study: failed to save note: %w", err)
	}

	// Trim the window. Evicted notes take their intelligence with them.
	evicted, err := h.studyRepo.EvictOldest(ctx, cmd.UserID, study.MaxStudyLogs)
	if err != nil {
		return nil, fmt.Errorf("record_study: failed to trim notes: %w", err)
	}
	intelligenceLost := 0
	for _, old := range evicted {
		intelligenceLost += study.ForgetLoss(old.Content)
	}
	if intelligenceLost > 0 {
		p.ForgetNotes(pet.Intelligence(intelligenceLost))
	}

	gains := log.Gains()
	oldLevel := p.Level
	oldStage := pet.StageFor(oldLevel)
	leveled := p.RecordStudy(
		pet.Intelligence(gains.Intelligence),
		pet.Points(gains.Points),
		pet.Experience(gains.Experience),
		now,
	)

	if err := h.petRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("record_study: failed to save pet: %w", err)
	}
	if h.petCache != nil {
		_ = h.petCache.Invalidate(ctx, p.ID)
	}

	events := h.publishEvents(cmd, log, gains, p, oldLevel, oldStage, leveled)

	return &RecordStudyResult{
		Log:              log,
		Gains:            gains,
		ForgottenNotes:   len(evicted),
		IntelligenceLost: intelligenceLost,
		LeveledUp:        leveled,
		NewLevel:         p.Level,
		Reaction:         h.petReaction(ctx, log.Content),
		Events:           events,
	}, nil
}

// publishEvents emits the study event and, on level-up, the level event.
func (h *RecordStudyHandler) publishEvents(
	cmd RecordStudyCommand,
	log *study.Log,
	gains study.Gains,
	p *pet.Pet,
	oldLevel pet.Level,
	oldStage pet.Stage,
	leveled bool,
) []shared.Event {
	studied := shared.NewStudyRecordedEvent(
		log.ID, log.UserID, log.PetID,
		log.Length(), gains.Experience, gains.Points, gains.Intelligence,
	)
	if cmd.CorrelationID != "" {
		studied.BaseEvent = studied.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(studied)
	events := []shared.Event{studied}

	if leveled {
		newStage := pet.StageFor(p.Level)
		levelUp := shared.NewLevelUpEvent(
			p.ID, p.UserID, p.Name,
			int(oldLevel), int(p.Level),
			newStage != oldStage, newStage.Name,
		)
		if cmd.CorrelationID != "" {
			levelUp.BaseEvent = levelUp.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		_ = h.eventPublisher.Publish(levelUp)
		events = append(events, levelUp)
	}
	return events
}

// petReaction asks the dialogue model for a one-line reaction.
// Failures are swallowed: the note is already saved and paid out.
func (h *RecordStudyHandler) petReaction(ctx context.Context, content string) string {
	if h.dialogue == nil {
		return ""
	}
	reaction, err := h.dialogue.React(ctx, content)
	if err != nil {
		return ""
	}
	return reaction
}
