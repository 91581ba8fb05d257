package services

import (
	"sync"
	"time"
)

// Session is the server-side record behind an admin cookie.
type Session struct {
	ID        string
	UserID    uint
	Username  string
	ExpiresAt time.Time
}

func (s Session) expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionStore keeps live sessions in memory. It is safe for concurrent use.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]Session)}
}

func (s *SessionStore) Put(session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
}

// Get returns the session if it exists and has not expired at now. Expired
// sessions are dropped on sight.
func (s *SessionStore) Get(id string, now time.Time) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	if session.expired(now) {
		delete(s.sessions, id)
		return Session{}, false
	}
	return session, true
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Purge drops every session expired at now and returns how many were removed.
func (s *SessionStore) Purge(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if session.expired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored sessions, expired or not.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
