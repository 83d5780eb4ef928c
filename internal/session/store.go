package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/sanchar-ai/hangout-planner/internal/observability"
)

// ErrNotFound means no live session exists for the given id.
var ErrNotFound = errors.New("session not found")

// Store holds live sessions keyed by an opaque id. Purely in-memory:
// sessions vanish on process restart, matching the product's
// nothing-persists contract. Entries leave only through Delete.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Add registers s and returns its new id.
func (st *Store) Add(s *Session) string {
	id := uuid.New().String()
	st.mu.Lock()
	st.sessions[id] = s
	n := len(st.sessions)
	st.mu.Unlock()
	observability.ActiveSessions.Set(float64(n))
	return id
}

// Get returns the session for id.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete closes and removes the session for id. Closing first guarantees
// any in-flight refinement result is discarded rather than applied.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	s, ok := st.sessions[id]
	if ok {
		delete(st.sessions, id)
	}
	n := len(st.sessions)
	st.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	s.Close()
	observability.ActiveSessions.Set(float64(n))
	return nil
}
