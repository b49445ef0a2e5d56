package memory

import (
	"context"
	"sync"

	"trivia-legends/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Game
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Game),
	}
}

func (s *SessionStore) Put(sessionID string, game *app.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = game
}

func (s *SessionStore) Get(sessionID string) (*app.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.sessions[sessionID]
	return game, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Live is Len for callers that count sessions through a context-aware store.
func (s *SessionStore) Live(context.Context) (int, error) {
	return s.Len(), nil
}
