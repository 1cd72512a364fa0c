package transfer

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for an unknown, closed or already committed session
var ErrSessionNotFound = errors.New("transfer session not found")

// session is one open transfer form. Its mutex serializes every event on it.
type session struct {
	mu     sync.Mutex
	router *Router
	closed bool
}

// SessionStore keeps the open transfer forms in memory
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
}

// NewSessionStore creates an empty SessionStore
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uuid.UUID]*session)}
}

// Open registers a new session and returns its ID
func (s *SessionStore) Open(router *Router) uuid.UUID {
	id := uuid.New()

	s.mu.Lock()
	s.sessions[id] = &session{router: router}
	s.mu.Unlock()

	return id
}

// Do runs fn with exclusive access to the session's router
func (s *SessionStore) Do(id uuid.UUID, fn func(*Router) error) error {
	sess := s.get(id)
	if sess == nil {
		return ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return ErrSessionNotFound
	}
	return fn(sess.router)
}

// Finish runs fn like Do and closes the session when fn succeeds.
// At most one Finish call on a session can ever succeed.
func (s *SessionStore) Finish(id uuid.UUID, fn func(*Router) error) error {
	sess := s.get(id)
	if sess == nil {
		return ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return ErrSessionNotFound
	}
	if err := fn(sess.router); err != nil {
		return err
	}

	sess.closed = true
	s.remove(id)
	return nil
}

// Close discards a session without committing it
func (s *SessionStore) Close(id uuid.UUID) error {
	return s.Finish(id, func(*Router) error { return nil })
}

// Broadcast dispatches ev to every open session and returns how many received it
func (s *SessionStore) Broadcast(ev Event) int {
	s.mu.RLock()
	open := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.RUnlock()

	delivered := 0
	for _, sess := range open {
		sess.mu.Lock()
		if !sess.closed && sess.router.Dispatch(ev) == nil {
			delivered++
		}
		sess.mu.Unlock()
	}
	return delivered
}

// Len returns the number of open sessions
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) get(id uuid.UUID) *session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

func (s *SessionStore) remove(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}
