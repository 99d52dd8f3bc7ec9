package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studygotchi/studygotchi-hub/internal/application/command"
	"github.com/studygotchi/studygotchi-hub/internal/domain/chat"
	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
	"github.com/studygotchi/studygotchi-hub/internal/domain/study"
)

// The stubs below embed their interfaces and implement only the methods
// the chat path touches.

type stubTokens struct{ userID string }

func (s *stubTokens) Issue(ctx context.Context, userID string) (string, error) { return "t", nil }
func (s *stubTokens) Resolve(ctx context.Context, token string) (string, error) {
	return s.userID, nil
}
func (s *stubTokens) Revoke(ctx context.Context, token string) error { return nil }

type stubPetRepo struct {
	pet.Repository
	p *pet.Pet
}

func (s *stubPetRepo) GetByUserID(ctx context.Context, userID string) (*pet.Pet, error) {
	return s.p.Clone(), nil
}
func (s *stubPetRepo) Update(ctx context.Context, p *pet.Pet) error { return nil }

type stubStudyRepo struct{ study.Repository }

func (s *stubStudyRepo) GetLogsByUser(ctx context.Context, userID string, limit int) ([]*study.Log, error) {
	return nil, nil
}

type stubSessionTracker struct{ pet.SessionTracker }

func (s *stubSessionTracker) SessionStart(ctx context.Context, userID string) (time.Time, error) {
	return time.Time{}, nil
}

type stubChatStore struct{ chat.Store }

func (s *stubChatStore) Get(ctx context.Context, userID string) (*chat.Session, error) {
	return nil, chat.ErrSessionNotFound
}
func (s *stubChatStore) Save(ctx context.Context, sess *chat.Session, ttl time.Duration) error {
	return nil
}

type stubDialogue struct{ err error }

func (s *stubDialogue) Reply(ctx context.Context, req chat.ReplyRequest) (string, error) {
	return "", s.err
}
func (s *stubDialogue) React(ctx context.Context, note string) (string, error) { return "", nil }
func (s *stubDialogue) ExtractLearning(ctx context.Context, userMessage, petAnswer string) (string, error) {
	return "", nil
}

func newChatTestServer(t *testing.T, dialogueErr error) *Server {
	t.Helper()

	p, err := pet.NewPet(pet.NewPetParams{
		ID:              uuid.NewString(),
		UserID:          "u1",
		Name:            "코코",
		CharacterSprite: pet.SpriteRabbit,
		RoomType:        pet.RoomBedroom,
		MBTI:            "INFP",
	})
	require.NoError(t, err)

	chatHandler := command.NewChatWithPetHandler(
		&stubPetRepo{p: p},
		&stubStudyRepo{},
		&stubSessionTracker{},
		&stubChatStore{},
		&stubDialogue{err: dialogueErr},
		nil,
	)

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	return NewServer(cfg, Dependencies{
		ChatWithPet: chatHandler,
		Tokens:      &stubTokens{userID: "u1"},
	})
}

func postChat(t *testing.T, srv *Server) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(map[string]string{"message": "안녕"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pet/chat", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()
	srv.buildHandler().ServeHTTP(rec, req)
	return rec
}

// An unreachable dialogue model must not surface as a gateway error:
// the pet apologizes in character and the session stays open.
func TestHandleChat_DegradesWhenDialogueUnavailable(t *testing.T) {
	srv := newChatTestServer(t, shared.ErrGeminiUnavailable)

	rec := postChat(t, srv)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, chatUnavailableAnswer, resp["answer"])
	assert.Equal(t, true, resp["degraded"])
	assert.Equal(t, false, resp["session_ended"])
}

// Non-upstream failures still go through the regular error writer.
func TestHandleChat_InternalErrorStaysAnError(t *testing.T) {
	srv := newChatTestServer(t, assert.AnError)

	rec := postChat(t, srv)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
