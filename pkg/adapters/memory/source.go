package memory

import (
	"context"
	"sync"

	"github.com/lcampedelli/riposte/pkg/domain"
)

// Source implements ports.FactSource over an in-process fact map. A
// recognition loop running in the same process calls Set/SetAll as it
// observes the screen; the runner reads a consistent copy each pass.
type Source struct {
	mu    sync.RWMutex
	facts domain.Facts
}

// NewSource creates a source seeded with the given facts.
func NewSource(initial domain.Facts) *Source {
	return &Source{facts: initial.Clone()}
}

// Set stores a single fact.
func (s *Source) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.facts == nil {
		s.facts = make(domain.Facts)
	}
	s.facts[key] = value
}

// SetAll replaces the whole fact map.
func (s *Source) SetAll(facts domain.Facts) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facts = facts.Clone()
}

// Facts returns a copy of the current facts.
func (s *Source) Facts(ctx context.Context) (domain.Facts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.facts.Clone(), nil
}
