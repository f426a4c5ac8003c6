package budget

import (
	"context"
	"sync"
)

// PersisterFactory binds a persistence adapter to one user. Single
// household backends (local file, sqlite) may ignore the id; the
// Postgres adapter scopes every row with it.
type PersisterFactory func(userID string) Persister

// Manager hands out one Store per user, opening it lazily from the
// persisted snapshot on first use. Stores live for the process
// lifetime; there is no eviction, the user population is a couple.
type Manager struct {
	mu      sync.Mutex
	stores  map[string]*Store
	factory PersisterFactory
}

func NewManager(factory PersisterFactory) *Manager {
	return &Manager{
		stores:  make(map[string]*Store),
		factory: factory,
	}
}

// Store returns the user's store, opening it on first access.
func (m *Manager) Store(ctx context.Context, userID string) (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stores[userID]; ok {
		return s, nil
	}
	var p Persister
	if m.factory != nil {
		p = m.factory(userID)
	}
	s, err := Open(ctx, p)
	if err != nil {
		return nil, err
	}
	m.stores[userID] = s
	return s, nil
}
