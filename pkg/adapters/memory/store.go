package memory

import (
	"context"
	"sync"

	"github.com/aretw0/warden/pkg/domain"
)

// Store implements ports.StatusStore in memory.
// Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	states  map[string]domain.SessionState
	history map[string][]domain.TransitionEvent
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		states:  make(map[string]domain.SessionState),
		history: make(map[string][]domain.TransitionEvent),
	}
}

// Save replaces the state for an instance.
func (s *Store) Save(ctx context.Context, instance string, state domain.SessionState) error {
	// Copy the stop request so the caller cannot mutate what we hold.
	if state.Stop != nil {
		stop := *state.Stop
		state.Stop = &stop
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[instance] = state
	return nil
}

// Load retrieves the state for an instance.
func (s *Store) Load(ctx context.Context, instance string) (domain.SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[instance]
	if !ok {
		return domain.SessionState{}, domain.ErrStatusNotFound
	}
	if state.Stop != nil {
		stop := *state.Stop
		state.Stop = &stop
	}
	return state, nil
}

// Record prepends a transition to the instance history.
func (s *Store) Record(ctx context.Context, instance string, ev domain.TransitionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[instance] = append([]domain.TransitionEvent{ev}, s.history[instance]...)
	return nil
}

// History returns up to limit transitions, newest first.
func (s *Store) History(ctx context.Context, instance string, limit int) ([]domain.TransitionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h := s.history[instance]
	if limit > 0 && len(h) > limit {
		h = h[:limit]
	}
	return append([]domain.TransitionEvent(nil), h...), nil
}
