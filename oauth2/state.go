package oauth2

import (
	"sync"
	"time"
)

// DefaultStateTTL bounds how long an authorization request may stay pending
// before its state is rejected.
const DefaultStateTTL = 10 * time.Minute

// StateStore tracks state identifiers issued with authorization URLs so a
// callback can prove it answers a request this application started.
//
// Implementations must be safe for concurrent use. Validate consumes the
// identifier: a second Validate for the same value returns false.
type StateStore interface {
	// Store records id as pending until expiresAt.
	// Returns false if the id could not be stored.
	Store(id string, expiresAt time.Time) bool

	// Validate reports whether id is pending and not expired, removing it.
	Validate(id string) bool
}

var _ StateStore = &MemoryStateStore{}

// MemoryStateStore keeps pending state identifiers in process memory.
//
// Suitable for single instance deployments and tests. Expired entries are
// swept lazily on Store. Multi instance hosts should back StateStore with
// shared storage.
type MemoryStateStore struct {
	mx     sync.Mutex
	states map[string]time.Time
	now    func() time.Time
}

// NewMemoryStateStore returns an empty store using the wall clock.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		states: make(map[string]time.Time),
		now:    time.Now,
	}
}

// Store records id until expiresAt and drops entries that already expired.
// An empty id is refused.
func (s *MemoryStateStore) Store(id string, expiresAt time.Time) bool {
	if id == "" {
		return false
	}

	s.mx.Lock()
	defer s.mx.Unlock()

	now := s.now()
	for key, exp := range s.states {
		if !now.Before(exp) {
			delete(s.states, key)
		}
	}

	s.states[id] = expiresAt
	return true
}

// Validate removes id and reports whether it was pending and unexpired.
func (s *MemoryStateStore) Validate(id string) bool {
	s.mx.Lock()
	defer s.mx.Unlock()

	exp, exists := s.states[id]
	if !exists {
		return false
	}

	delete(s.states, id)
	return s.now().Before(exp)
}

// Len returns the number of pending, possibly expired, identifiers.
func (s *MemoryStateStore) Len() int {
	s.mx.Lock()
	defer s.mx.Unlock()
	return len(s.states)
}
