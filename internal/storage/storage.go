package storage

import (
	"slices"
	"sync"

	"github.com/lehigh-university-libraries/stitcher/internal/session"
)

type SessionStore struct {
	sessions map[string]*session.Session
	mu       sync.RWMutex
}

func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session.Session),
	}
}

func (s *SessionStore) Get(sessionID string) (*session.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, exists := s.sessions[sessionID]
	return sess, exists
}

func (s *SessionStore) Set(sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

// List returns every session, oldest first.
func (s *SessionStore) List() []*session.Session {
	s.mu.RLock()
	result := make([]*session.Session, 0, len(s.sessions))
	for _, v := range s.sessions {
		result = append(result, v)
	}
	s.mu.RUnlock()

	slices.SortFunc(result, func(a, b *session.Session) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return result
}

// Delete clears the session, releasing its sources, and forgets it.
func (s *SessionStore) Delete(sessionID string) bool {
	s.mu.Lock()
	sess, exists := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if exists {
		sess.Clear()
	}
	return exists
}
