package domain

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActionDispatcher resolves an opaque action reference against the current
// facts and performs it. The engine has no knowledge of how actions are
// physically executed; the host (an input-simulation runtime) implements
// this interface.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, action string, facts Facts) (any, error)
}

// DispatchFunc adapts a plain function to an ActionDispatcher.
type DispatchFunc func(ctx context.Context, action string, facts Facts) (any, error)

// Dispatch implements ActionDispatcher.
func (f DispatchFunc) Dispatch(ctx context.Context, action string, facts Facts) (any, error) {
	return f(ctx, action, facts)
}

// Result is the outcome of a rule evaluation or execution. A disabled rule,
// a false condition or a malformed predicate are ordinary outcomes of a
// polling loop, not exceptions, so they are reported as values.
type Result struct {
	OK    bool
	Value any
	Err   error
}

// Success builds a passing result carrying a value.
func Success(value any) Result {
	return Result{OK: true, Value: value}
}

// Failure builds a failing result carrying an error.
func Failure(err error) Result {
	return Result{OK: false, Err: err}
}

// Failuref builds a failing result from a format string.
func Failuref(format string, args ...any) Result {
	return Failure(fmt.Errorf(format, args...))
}

// Rule pairs a condition with an opaque action reference. Rules are ordered
// by priority at the machine level and can be toggled at any time; they
// represent ongoing policy rather than structural topology.
type Rule struct {
	ID          string
	Name        string
	Description string
	Condition   Condition
	Action      string
	Priority    int
	Enabled     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewRule creates an enabled rule with a fresh ID.
func NewRule(name string, condition Condition, action string, priority int) (*Rule, error) {
	if strings.TrimSpace(name) == "" {
		return nil, NewValidationError("name", "rule name cannot be empty")
	}
	now := time.Now().UTC()
	return &Rule{
		ID:        uuid.NewString(),
		Name:      name,
		Condition: condition,
		Action:    action,
		Priority:  priority,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Evaluate checks the rule's condition against the facts. A disabled rule
// fails without inspecting the condition; a malformed condition fails with a
// descriptive error rather than panicking.
func (r *Rule) Evaluate(facts Facts) Result {
	if !r.Enabled {
		return Failuref("rule %q is disabled", r.Name)
	}
	if !r.Condition.Operator.Valid() {
		return Failuref("rule %q has a malformed condition: unknown operator %q", r.Name, string(r.Condition.Operator))
	}
	return Success(r.Condition.Evaluate(facts))
}

// Execute dispatches the rule's action unconditionally. Disabled rules are
// still blocked. The dispatcher's own success or failure is reported back.
func (r *Rule) Execute(ctx context.Context, facts Facts, dispatcher ActionDispatcher) Result {
	if !r.Enabled {
		return Failuref("rule %q is disabled", r.Name)
	}
	if dispatcher == nil {
		return Failuref("rule %q has no dispatcher to execute action %q", r.Name, r.Action)
	}
	out, err := dispatcher.Dispatch(ctx, r.Action, facts)
	if err != nil {
		return Failure(fmt.Errorf("action %q failed: %w", r.Action, err))
	}
	return Success(out)
}

// EvaluateAndExecute evaluates first and dispatches only on a true verdict.
// A false condition produces no side effect at all.
func (r *Rule) EvaluateAndExecute(ctx context.Context, facts Facts, dispatcher ActionDispatcher) Result {
	eval := r.Evaluate(facts)
	if !eval.OK {
		return eval
	}
	if matched, _ := eval.Value.(bool); !matched {
		return Failuref("rule %q condition not met", r.Name)
	}
	return r.Execute(ctx, facts, dispatcher)
}

// RuleUpdate is a partial update: only non-nil fields are applied.
type RuleUpdate struct {
	Name        *string
	Description *string
	Condition   *Condition
	Action      *string
	Priority    *int
}

// Update applies a partial update. An explicitly supplied empty name is a
// validation error; UpdatedAt moves only when a field actually changed.
func (r *Rule) Update(u RuleUpdate) error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return NewValidationError("name", "rule name cannot be empty")
	}
	changed := false
	if u.Name != nil && *u.Name != r.Name {
		r.Name = *u.Name
		changed = true
	}
	if u.Description != nil && *u.Description != r.Description {
		r.Description = *u.Description
		changed = true
	}
	if u.Condition != nil && !reflect.DeepEqual(*u.Condition, r.Condition) {
		r.Condition = *u.Condition
		changed = true
	}
	if u.Action != nil && *u.Action != r.Action {
		r.Action = *u.Action
		changed = true
	}
	if u.Priority != nil && *u.Priority != r.Priority {
		r.Priority = *u.Priority
		changed = true
	}
	if changed {
		r.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// Enable turns the rule on.
func (r *Rule) Enable() {
	if r.Enabled {
		return
	}
	r.Enabled = true
	r.UpdatedAt = time.Now().UTC()
}

// Disable turns the rule off without discarding it.
func (r *Rule) Disable() {
	if !r.Enabled {
		return
	}
	r.Enabled = false
	r.UpdatedAt = time.Now().UTC()
}

// Clone returns a copy with a fresh ID; all other fields are value-copied.
func (r *Rule) Clone() *Rule {
	c := *r
	c.ID = uuid.NewString()
	return &c
}
