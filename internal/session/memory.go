package session

import (
	"context"
	"sync"
)

// MemoryStore keeps session state in process memory. State is lost on
// restart and not shared between instances; it is the default for single
// instance deployments and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]State),
	}
}

func (s *MemoryStore) Get(_ context.Context, sid string) (State, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[sid]
	return state, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, sid string, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[sid] = state
	return nil
}

// Len reports how many sessions currently hold state.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}
