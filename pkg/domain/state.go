package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// InitialStateName is the name of the state every machine is born with.
// The Initial state is created at construction and can never be removed.
const InitialStateName = "Initial"

// State is a named context node inside a machine. It carries a small
// key/value fact store describing what the automation knows while in this
// state, plus an active flag the merge semantics key off.
//
// Name uniqueness is enforced by the owning Machine, not by the state itself.
type State struct {
	ID          string
	Name        string
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time

	values map[string]any
}

// NewState creates an active state with a fresh ID and an empty value store.
func NewState(name, description string) *State {
	now := time.Now().UTC()
	return &State{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
		values:      make(map[string]any),
	}
}

// SetValue stores a value under key. Empty keys are rejected before any
// field is touched.
func (s *State) SetValue(key string, value any) error {
	if strings.TrimSpace(key) == "" {
		return NewValidationError("key", "key cannot be empty")
	}
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[key] = value
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Value returns the value stored under key.
func (s *State) Value(key string) (any, error) {
	if strings.TrimSpace(key) == "" {
		return nil, NewValidationError("key", "key cannot be empty")
	}
	v, ok := s.values[key]
	if !ok {
		return nil, NewValidationError("key", "key "+key+" not present")
	}
	return v, nil
}

// ValueOr returns the value stored under key, or fallback when absent.
// Unlike Value it has no error channel: an empty key can never be stored,
// so like LookupValue and HasValue it treats one as an absent key.
func (s *State) ValueOr(key string, fallback any) any {
	if v, ok := s.values[key]; ok {
		return v
	}
	return fallback
}

// LookupValue returns the value under key and whether it is present.
func (s *State) LookupValue(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// HasValue reports whether key is present in the value store.
func (s *State) HasValue(key string) bool {
	_, ok := s.values[key]
	return ok
}

// RemoveValue deletes key from the store, reporting whether it was present.
func (s *State) RemoveValue(key string) (bool, error) {
	if strings.TrimSpace(key) == "" {
		return false, NewValidationError("key", "key cannot be empty")
	}
	if _, ok := s.values[key]; !ok {
		return false, nil
	}
	delete(s.values, key)
	s.UpdatedAt = time.Now().UTC()
	return true, nil
}

// ClearValues empties the value store. Clearing an already-empty store is a
// no-op and does not touch UpdatedAt.
func (s *State) ClearValues() {
	if len(s.values) == 0 {
		return
	}
	s.values = make(map[string]any)
	s.UpdatedAt = time.Now().UTC()
}

// Values returns a copy of the value store so callers cannot mutate the
// state behind its back.
func (s *State) Values() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Keys returns the stored keys in no particular order.
func (s *State) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

// Activate marks the state active.
func (s *State) Activate() {
	s.Active = true
	s.UpdatedAt = time.Now().UTC()
}

// Deactivate marks the state inactive. Inactive states are skipped as merge
// sources.
func (s *State) Deactivate() {
	s.Active = false
	s.UpdatedAt = time.Now().UTC()
}

// Validate checks the state's own invariants and returns every violation.
func (s *State) Validate() []error {
	var errs []error
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, NewValidationError("name", "state name cannot be empty"))
	}
	return errs
}

// Clone returns a copy with a fresh ID and a deep-copied value store. Name,
// description and active flag carry over.
func (s *State) Clone() *State {
	c := NewState(s.Name, s.Description)
	c.Active = s.Active
	for k, v := range s.values {
		c.values[k] = v
	}
	return c
}

// MergeWith overlays other's values onto this state, last writer wins.
// An inactive other is a no-op; keys absent from other stay untouched.
func (s *State) MergeWith(other *State) {
	if other == nil || !other.Active || len(other.values) == 0 {
		return
	}
	if s.values == nil {
		s.values = make(map[string]any)
	}
	for k, v := range other.values {
		s.values[k] = v
	}
	s.UpdatedAt = time.Now().UTC()
}
