package domain

import "github.com/google/uuid"

// Transition is a directed, optionally guarded edge between two state IDs.
// It is a plain owned value: both endpoints are validated by the machine at
// the time the transition is added, not by the transition itself.
type Transition struct {
	ID          string
	From        string
	To          string
	Guard       *Condition
	Description string
}

// NewTransition creates an unguarded edge between two state IDs.
func NewTransition(from, to, description string) *Transition {
	return &Transition{
		ID:          uuid.NewString(),
		From:        from,
		To:          to,
		Description: description,
	}
}

// NewGuardedTransition creates an edge that is only traversable while guard
// evaluates true.
func NewGuardedTransition(from, to string, guard Condition, description string) *Transition {
	t := NewTransition(from, to, description)
	t.Guard = &guard
	return t
}

// CanTraverse reports whether the edge is traversable under the given facts.
// An absent guard is always true.
func (t *Transition) CanTraverse(facts Facts) bool {
	if t.Guard == nil {
		return true
	}
	return t.Guard.Evaluate(facts)
}
