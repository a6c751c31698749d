package ports_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/ports"
)

// mockStore is a minimal StatusStore used to keep the contract itself honest.
type mockStore struct {
	mu      sync.Mutex
	states  map[string]domain.SessionState
	history map[string][]domain.TransitionEvent
}

func newMockStore() *mockStore {
	return &mockStore{
		states:  make(map[string]domain.SessionState),
		history: make(map[string][]domain.TransitionEvent),
	}
}

func (m *mockStore) Save(ctx context.Context, instance string, state domain.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[instance] = state
	return nil
}

func (m *mockStore) Load(ctx context.Context, instance string) (domain.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[instance]
	if !ok {
		return domain.SessionState{}, domain.ErrStatusNotFound
	}
	return state, nil
}

func (m *mockStore) Record(ctx context.Context, instance string, ev domain.TransitionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[instance] = append([]domain.TransitionEvent{ev}, m.history[instance]...)
	return nil
}

func (m *mockStore) History(ctx context.Context, instance string, limit int) ([]domain.TransitionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.history[instance]
	if limit > 0 && len(h) > limit {
		h = h[:limit]
	}
	return append([]domain.TransitionEvent(nil), h...), nil
}

func TestStatusStore_Contract(t *testing.T) {
	ports.RunStatusStoreContract(t, newMockStore())
}
