package session

import (
	"sync"

	"github.com/google/uuid"
)

// maxIDAttempts bounds the retries when a generated identifier collides with
// an existing one.
const maxIDAttempts = 8

// Store maps session identifiers to sessions. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	newID    func() string
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the identifier generator. The default generator
// returns random (version 4) UUIDs.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewStore creates an empty session store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the session registered under id. If id is empty or unknown,
// a new empty session is created under a freshly minted identifier and isNew
// is true; the caller is expected to hand that identifier back to the client.
func (s *Store) Resolve(id string) (string, *Session, bool) {
	if id != "" {
		s.mu.RLock()
		sess, ok := s.sessions[id]
		s.mu.RUnlock()
		if ok {
			return id, sess, false
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Client supplied ids are never adopted, only ids minted here.
	var newID string
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		candidate := s.newID()
		if _, taken := s.sessions[candidate]; !taken && candidate != "" {
			newID = candidate
			break
		}
	}
	if newID == "" {
		// The generator keeps colliding; fall back to a UUID which is never
		// expected to collide.
		newID = uuid.NewString()
	}

	sess := newSession(newID)
	s.sessions[newID] = sess
	return newID, sess, true
}

// Get returns the session registered under id without creating one.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Len returns the number of sessions held by the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
