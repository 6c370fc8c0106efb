package auth

import (
	"context"
	"sync"
	"time"
)

// MemorySessionStore backs the memory store and tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	now      func() time.Time
}

// NewMemorySessionStore returns an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]Session), now: time.Now}
}

// Save records a session and sweeps grants that have already expired.
func (s *MemorySessionStore) Save(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for hash, existing := range s.sessions {
		if existing.Expired(now) {
			delete(s.sessions, hash)
		}
	}
	s.sessions[session.TokenHash] = session
	return nil
}

func (s *MemorySessionStore) Take(_ context.Context, tokenHash string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[tokenHash]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	delete(s.sessions, tokenHash)
	return session, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[tokenHash]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, tokenHash)
	return nil
}

// Active counts sessions of a user that have not expired.
func (s *MemorySessionStore) Active(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for _, session := range s.sessions {
		if session.UserID == userID && !session.Expired(now) {
			n++
		}
	}
	return n
}
