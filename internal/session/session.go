// ABOUTME: In-memory session store mapping opaque tokens to session metadata.
// ABOUTME: Sessions are created on initialize and live until the process restarts.

package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session tracks one initialized client. The token doubles as the session id
// and as the bearer credential for the per-user data routes.
type Session struct {
	Token         string
	Created       time.Time
	ClientVersion string
}

// Store manages active sessions. There is no expiry and no logout; a session
// only disappears when the process restarts.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]Session)}
}

// Create issues a fresh token and records the session.
func (s *Store) Create(clientVersion string) Session {
	if clientVersion == "" {
		clientVersion = "unknown"
	}
	sess := Session{
		Token:         uuid.New().String(),
		Created:       time.Now().UTC(),
		ClientVersion: clientVersion,
	}

	s.mu.Lock()
	s.sessions[sess.Token] = sess
	s.mu.Unlock()

	return sess
}

// Exists reports whether the token belongs to an active session.
func (s *Store) Exists(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[token]
	return ok
}

// Get returns the session for a token.
func (s *Store) Get(token string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	return sess, ok
}

// Count returns the number of active sessions (for monitoring).
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
