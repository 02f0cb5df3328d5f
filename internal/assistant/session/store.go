// Package session tracks the structured backend's conversation token per
// analyst session, so consecutive questions resume the same multi-turn
// context. Tokens never reach the semantic backend, which is stateless per
// call.
package session

import "sync"

// Store holds the last conversation token per session. Session-scoped:
// created when the first question of a session arrives, discarded on
// session end. One writer per session; the lock covers cross-session
// access from concurrent requests.
type Store struct {
	mu     sync.RWMutex
	tokens map[string]string
}

func NewStore() *Store {
	return &Store{
		tokens: make(map[string]string),
	}
}

// Token returns the stored conversation token, or "" before the first
// successful structured call of the session.
func (s *Store) Token(sessionID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[sessionID]
}

// SetToken overwrites the session's token. Called after every successful
// structured call that returned one.
func (s *Store) SetToken(sessionID, token string) {
	if token == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[sessionID] = token
}

// End discards the session's conversation state.
func (s *Store) End(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, sessionID)
}
