package command

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studygotchi/studygotchi-hub/internal/domain/chat"
	"github.com/studygotchi/studygotchi-hub/internal/domain/cooldown"
	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
)

func newChatFixture(p *pet.Pet, dialogue *fakeDialogue) (*ChatWithPetHandler, *fakePetRepo, *fakeStudyRepo, *fakeChatStore) {
	petRepo := newFakePetRepo(p)
	studyRepo := &fakeStudyRepo{}
	chatStore := newFakeChatStore()
	h := NewChatWithPetHandler(petRepo, studyRepo, newFakeSessions(), chatStore, dialogue, &fakePublisher{})
	return h, petRepo, studyRepo, chatStore
}

func TestChatWithPet_OpensSessionAndReplies(t *testing.T) {
	p := newTestPet(t, "u1")
	p.LastChattedAt = time.Now().UTC().Add(-2 * time.Hour)
	h, petRepo, _, chatStore := newChatFixture(p, &fakeDialogue{reply: "안녕! 오늘도 공부하자"})

	result, err := h.Handle(context.Background(), ChatWithPetCommand{
		UserID:   "u1",
		UserName: "민지",
		Message:  "안녕?",
	})
	require.NoError(t, err)

	assert.Equal(t, "안녕! 오늘도 공부하자", result.Answer)
	assert.Equal(t, chat.ExchangesPerSession-1, result.ExchangesLeft)
	assert.False(t, result.SessionEnded)

	// Сессия сохранена с TTL кулдауна, чекпоинт чата сдвинут.
	session, err := chatStore.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, session.Exchanges)
	assert.Equal(t, cooldown.Chat, chatStore.savedTTL)

	saved, _ := petRepo.GetByUserID(context.Background(), "u1")
	assert.WithinDuration(t, time.Now().UTC(), saved.LastChattedAt, time.Minute)
}

func TestChatWithPet_CooldownGatesOpening(t *testing.T) {
	p := newTestPet(t, "u1")
	p.LastChattedAt = time.Now().UTC().Add(-10 * time.Minute)
	h, _, _, _ := newChatFixture(p, &fakeDialogue{reply: "..."})

	_, err := h.Handle(context.Background(), ChatWithPetCommand{UserID: "u1", Message: "안녕?"})
	assert.ErrorIs(t, err, cooldown.ErrOnCooldown)
}

func TestChatWithPet_MidSessionBypassesCooldown(t *testing.T) {
	p := newTestPet(t, "u1")
	// Кулдаун ещё не остыл, но сессия уже открыта.
	p.LastChattedAt = time.Now().UTC().Add(-10 * time.Minute)
	h, _, _, chatStore := newChatFixture(p, &fakeDialogue{reply: "좋아!"})

	session := chat.NewSession("u1", p.ID)
	require.NoError(t, session.RecordExchange("첫 질문", "첫 답"))
	require.NoError(t, chatStore.Save(context.Background(), session, cooldown.Chat))

	result, err := h.Handle(context.Background(), ChatWithPetCommand{UserID: "u1", Message: "다음 질문"})
	require.NoError(t, err)
	assert.Equal(t, chat.ExchangesPerSession-2, result.ExchangesLeft)
}

func TestChatWithPet_FifthExchangeClosesAndKeepsNote(t *testing.T) {
	p := newTestPet(t, "u1")
	dialogue := &fakeDialogue{reply: "마지막 답", learned: "이진 탐색은 절반씩 줄인다"}
	h, _, studyRepo, chatStore := newChatFixture(p, dialogue)

	session := chat.NewSession("u1", p.ID)
	for i := 0; i < chat.ExchangesPerSession-1; i++ {
		require.NoError(t, session.RecordExchange("질문", "답"))
	}
	require.NoError(t, chatStore.Save(context.Background(), session, cooldown.Chat))

	result, err := h.Handle(context.Background(), ChatWithPetCommand{UserID: "u1", Message: "마지막 질문"})
	require.NoError(t, err)

	assert.True(t, result.SessionEnded)
	assert.Zero(t, result.ExchangesLeft)

	// Сессия удалена, выжимка разговора осталась заметкой.
	_, err = chatStore.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, chat.ErrSessionNotFound)

	require.NotNil(t, result.LearnedNote)
	assert.Equal(t, chat.ExchangesPerSession, dialogue.extractCalls)
	count, _ := studyRepo.CountByUser(context.Background(), "u1")
	assert.Equal(t, 1, count)
}

func TestChatWithPet_CooldownRestartsAtClose(t *testing.T) {
	p := newTestPet(t, "u1")
	// Сессия тянулась 40 минут: кулдаун считается от конца, не от открытия.
	p.LastChattedAt = time.Now().UTC().Add(-40 * time.Minute)
	h, petRepo, _, chatStore := newChatFixture(p, &fakeDialogue{reply: "끝!"})

	session := chat.NewSession("u1", p.ID)
	for i := 0; i < chat.ExchangesPerSession-1; i++ {
		require.NoError(t, session.RecordExchange("질문", "답"))
	}
	require.NoError(t, chatStore.Save(context.Background(), session, cooldown.Chat))

	result, err := h.Handle(context.Background(), ChatWithPetCommand{UserID: "u1", Message: "마지막"})
	require.NoError(t, err)
	require.True(t, result.SessionEnded)

	saved, _ := petRepo.GetByUserID(context.Background(), "u1")
	assert.WithinDuration(t, time.Now().UTC(), saved.LastChattedAt, time.Minute)

	// Новая сессия сразу после закрытия упирается в кулдаун.
	_, err = h.Handle(context.Background(), ChatWithPetCommand{UserID: "u1", Message: "또 얘기하자"})
	assert.ErrorIs(t, err, cooldown.ErrOnCooldown)
}

func TestChatWithPet_MessageTooLong(t *testing.T) {
	h, _, _, _ := newChatFixture(newTestPet(t, "u1"), &fakeDialogue{})

	_, err := h.Handle(context.Background(), ChatWithPetCommand{
		UserID:  "u1",
		Message: strings.Repeat("아", chat.MaxInputLength+1),
	})
	assert.ErrorIs(t, err, chat.ErrMessageTooLong)
}
