package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/studygotchi/studygotchi-hub/internal/domain/chat"
	"github.com/studygotchi/studygotchi-hub/internal/domain/cooldown"
	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
	"github.com/studygotchi/studygotchi-hub/internal/domain/study"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHAT WITH PET COMMAND
// One exchange in a bounded conversation. The chat cooldown gates
// opening a session; the session ends after five exchanges and the
// cooldown clock restarts from the moment it closes. Knowledge the pet
// picks up from the conversation is kept as a study note when the
// session closes.
// ══════════════════════════════════════════════════════════════════════════════

// ChatWithPetCommand contains one user message to the pet.
type ChatWithPetCommand struct {
	// UserID is the pet owner.
	UserID string

	// UserName is the display name the pet addresses.
	UserName string

	// Message is the user's message (1-30 runes).
	Message string
}

// Validate validates the command.
func (c ChatWithPetCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("chat_with_pet: user_id is required")
	}
	if c.Message == "" {
		return errors.New("chat_with_pet: message is required")
	}
	return nil
}

// ChatWithPetResult contains the pet's side of one exchange.
type ChatWithPetResult struct {
	// Answer is the pet's reply.
	Answer string

	// ExchangesLeft is how many exchanges remain in the session.
	ExchangesLeft int

	// SessionEnded indicates the session just closed.
	SessionEnded bool

	// LearnedNote is the study note extracted from the conversation,
	// set only when the session ends and something was worth keeping.
	LearnedNote *study.Log
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ChatWithPetHandler handles the ChatWithPetCommand.
type ChatWithPetHandler struct {
	petRepo        pet.Repository
	studyRepo      study.Repository
	sessions       pet.SessionTracker
	chatStore      chat.Store
	dialogue       chat.Dialogue
	eventPublisher shared.EventPublisher
}

// NewChatWithPetHandler creates a new ChatWithPetHandler.
func NewChatWithPetHandler(
	petRepo pet.Repository,
	studyRepo study.Repository,
	sessions pet.SessionTracker,
	chatStore chat.Store,
	dialogue chat.Dialogue,
	eventPublisher shared.EventPublisher,
) *ChatWithPetHandler {
	return &ChatWithPetHandler{
		petRepo:        petRepo,
		studyRepo:      studyRepo,
		sessions:       sessions,
		chatStore:      chatStore,
		dialogue:       dialogue,
		eventPublisher: eventPublisher,
	}
}

// Handle executes one chat exchange.
func (h *ChatWithPetHandler) Handle(ctx context.Context, cmd ChatWithPetCommand) (*ChatWithPetResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("chat_with_pet: validation failed: %w", err)
	}

	message, err := chat.ValidateInput(cmd.Message)
	if err != nil {
		return nil, fmt.Errorf("chat_with_pet: %w", err)
	}

	now := time.Now().UTC()

	live, err := resolveLivePet(ctx, h.petRepo, h.sessions, h.eventPublisher, cmd.UserID, now)
	if err != nil {
		return nil, fmt.Errorf("chat_with_pet: %w", err)
	}
	p := live.Pet

	session, err := h.openOrResume(ctx, p, cmd.UserID, now)
	if err != nil {
		return nil, fmt.Errorf("chat_with_pet: %w", err)
	}

	material, err := h.studyMaterial(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("chat_with_pet: %w", err)
	}

	answer, err := h.dialogue.Reply(ctx, chat.ReplyRequest{
		UserMessage: message,
		History:     session.Window(),
		MBTI:        string(p.Personality()),
		Material:    material,
		UserName:    cmd.UserName,
		PetName:     p.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("chat_with_pet: dialogue failed: %w", err)
	}

	if err := session.RecordExchange(message, answer); err != nil {
		return nil, fmt.Errorf("chat_with_pet: %w", err)
	}

	result := &ChatWithPetResult{
		Answer:        answer,
		ExchangesLeft: session.Remaining(),
	}

	if session.Exhausted() {
		result.SessionEnded = true
		result.LearnedNote = h.closeSession(ctx, session, p, now)
	} else if err := h.chatStore.Save(ctx, session, cooldown.Chat); err != nil {
		return nil, fmt.Errorf("chat_with_pet: failed to save session: %w", err)
	}

	return result, nil
}

// openOrResume returns the active session or opens a fresh one.
// Opening is what the chat cooldown gates; mid-session messages pass.
func (h *ChatWithPetHandler) openOrResume(ctx context.Context, p *pet.Pet, userID string, now time.Time) (*chat.Session, error) {
	session, err := h.chatStore.Get(ctx, userID)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, chat.ErrSessionNotFound) {
		return nil, err
	}

	if err := cooldown.Check(p.LastChattedAt, now, cooldown.Chat); err != nil {
		return nil, fmt.Errorf("%w (%s left)",
			err, cooldown.Remaining(p.LastChattedAt, now, cooldown.Chat).Round(time.Minute))
	}

	p.MarkChatted(now)
	if err := h.petRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to start chat cooldown: %w", err)
	}
	return chat.NewSession(userID, p.ID), nil
}

// studyMaterial returns the pet's recent notes as conversation material.
func (h *ChatWithPetHandler) studyMaterial(ctx context.Context, userID string) ([]string, error) {
	logs, err := h.studyRepo.GetLogsByUser(ctx, userID, study.MaxStudyLogs)
	if err != nil {
		return nil, fmt.Errorf("failed to load study material: %w", err)
	}
	material := make([]string, 0, len(logs))
	for _, l := range logs {
		material = append(material, l.Content)
	}
	return material, nil
}

// closeSession drops the stored session and keeps whatever the pet
// learned as a study note. Extraction is best effort: the conversation
// already happened and the reply is already on its way back.
func (h *ChatWithPetHandler) closeSession(ctx context.Context, session *chat.Session, p *pet.Pet, now time.Time) *study.Log {
	_ = h.chatStore.Delete(ctx, session.UserID)

	// The cooldown counts from the end of the conversation, not from
	// the opening stamp.
	p.MarkChatted(now)
	_ = h.petRepo.Update(ctx, p)

	learned := h.extractLearning(ctx, session)
	if learned == "" {
		return nil
	}

	log, err := study.NewLog(uuid.NewString(), session.UserID, p.ID, learned, now)
	if err != nil {
		return nil
	}
	if err := h.studyRepo.SaveLog(ctx, log); err != nil {
		return nil
	}
	if _, err := h.studyRepo.EvictOldest(ctx, session.UserID, study.MaxStudyLogs); err != nil {
		return log
	}
	return log
}

// extractLearning pulls teachable content out of each exchange and
// joins it into one note, truncated to the note length limit.
func (h *ChatWithPetHandler) extractLearning(ctx context.Context, session *chat.Session) string {
	var parts []string
	for i := 0; i+1 < len(session.History); i += 2 {
		question := session.History[i]
		answer := session.History[i+1]
		if question.Role != chat.RoleUser || answer.Role != chat.RolePet {
			continue
		}
		learned, err := h.dialogue.ExtractLearning(ctx, question.Text, answer.Text)
		if err != nil || strings.TrimSpace(learned) == "" {
			continue
		}
		parts = append(parts, strings.TrimSpace(learned))
	}
	if len(parts) == 0 {
		return ""
	}

	note := strings.Join(parts, " ")
	if utf8.RuneCountInString(note) > study.MaxNoteLength {
		runes := []rune(note)
		note = string(runes[:study.MaxNoteLength])
	}
	return note
}
