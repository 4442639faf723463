package memory

import (
	"context"
	"sync"

	"github.com/lcampedelli/riposte/pkg/domain"
)

// Store implements ports.MachineStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.MachineSnapshot
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.MachineSnapshot),
	}
}

// Save persists the machine snapshot, rejecting stale versions.
func (s *Store) Save(ctx context.Context, m *domain.Machine) error {
	snap := m.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.data[snap.ID]; ok && existing.Version >= snap.Version {
		return domain.ErrVersionConflict
	}
	s.data[snap.ID] = snap
	return nil
}

// Load rebuilds the machine from its stored snapshot.
func (s *Store) Load(ctx context.Context, id string) (*domain.Machine, error) {
	s.mu.RLock()
	snap, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrMachineNotFound
	}
	// Restoring from the snapshot copies everything, so callers cannot
	// mutate store contents through the returned aggregate.
	return domain.RestoreMachine(snap)
}

// Delete removes the machine.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns stored machine IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
