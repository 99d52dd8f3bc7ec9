package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/chat"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHAT STORE
// ══════════════════════════════════════════════════════════════════════════════

// ChatStore implements chat.Store on Redis.
//
// Сессия живёт под ключом chat:{userID} с TTL. Брошенный разговор истекает
// сам, и Get после этого честно возвращает ErrSessionNotFound.
type ChatStore struct {
	cache *Cache
}

// NewChatStore creates a new ChatStore.
func NewChatStore(cache *Cache) *ChatStore {
	return &ChatStore{cache: cache}
}

// storedSession is the JSON wire form of a chat session.
type storedSession struct {
	UserID    string       `json:"user_id"`
	PetID     string       `json:"pet_id"`
	History   []storedTurn `json:"history"`
	Exchanges int          `json:"exchanges"`
}

type storedTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Get returns the user's active session.
func (s *ChatStore) Get(ctx context.Context, userID string) (*chat.Session, error) {
	if userID == "" {
		return nil, ErrCacheKeyEmpty
	}

	var stored storedSession
	if err := s.cache.Get(ctx, ChatKey(userID), &stored); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, chat.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read chat session: %w", err)
	}

	session := &chat.Session{
		UserID:    stored.UserID,
		PetID:     stored.PetID,
		History:   make([]chat.Turn, 0, len(stored.History)),
		Exchanges: stored.Exchanges,
	}
	for _, t := range stored.History {
		session.History = append(session.History, chat.Turn{
			Role: chat.Role(t.Role),
			Text: t.Text,
		})
	}
	return session, nil
}

// Save persists the session with the given TTL.
func (s *ChatStore) Save(ctx context.Context, session *chat.Session, ttl time.Duration) error {
	if session == nil {
		return ErrCacheNilValue
	}
	if session.UserID == "" {
		return ErrCacheKeyEmpty
	}

	stored := storedSession{
		UserID:    session.UserID,
		PetID:     session.PetID,
		History:   make([]storedTurn, 0, len(session.History)),
		Exchanges: session.Exchanges,
	}
	for _, t := range session.History {
		stored.History = append(stored.History, storedTurn{
			Role: string(t.Role),
			Text: t.Text,
		})
	}

	if err := s.cache.Set(ctx, ChatKey(session.UserID), stored, ttl); err != nil {
		return fmt.Errorf("failed to save chat session: %w", err)
	}
	return nil
}

// Delete ends the session early.
func (s *ChatStore) Delete(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrCacheKeyEmpty
	}
	return s.cache.Delete(ctx, ChatKey(userID))
}
