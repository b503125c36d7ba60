// Package session provides the in-memory session store used by the router.
// Sessions are volatile: they live for the lifetime of the process and are
// never expired or evicted.
package session

import (
	"sort"
	"sync"
)

// Session is a mutable key-value bag correlated with a client through an
// opaque identifier.
//
// Each operation is individually synchronized so concurrent requests cannot
// corrupt the underlying map, but there is no isolation between requests that
// share a session: the last write wins.
type Session struct {
	id   string
	mu   sync.RWMutex
	data map[string]any
}

func newSession(id string) *Session {
	return &Session{
		id:   id,
		data: make(map[string]any),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Get returns the value stored under key.
func (s *Session) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// GetString returns the value stored under key if it is a string.
func (s *Session) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// Set stores value under key.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
}

// Delete removes key from the session.
func (s *Session) Delete(key string) {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
}

// Keys returns the keys currently stored, sorted.
func (s *Session) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Len returns the number of stored keys.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
