package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle of the machine aggregate itself:
// Draft -> Active -> Inactive. There is no modeled path back from Inactive.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// TransitionPolicy decides what TransitionTo accepts as a target.
type TransitionPolicy int

const (
	// PolicyPermissive allows jumping to any declared state.
	PolicyPermissive TransitionPolicy = iota
	// PolicyStrict additionally requires a declared edge from the current
	// state to the target.
	PolicyStrict
)

// Machine is the aggregate root: it owns states, transitions and rules,
// enforces every lifecycle invariant over them, and is the sole entry point
// for mutation and evaluation.
//
// The machine is a plain in-memory object graph with no internal locking;
// callers must guarantee exclusive access per evaluation pass.
type Machine struct {
	ID          string
	Name        string
	Description string

	status         Status
	states         []*State
	transitions    []*Transition
	rules          []*Rule
	currentStateID string
	initialStateID string
	policy         TransitionPolicy

	// Version supports optimistic-concurrency conflict detection when the
	// aggregate is persisted: a save with a stale version must be rejected.
	Version   uint64
	CreatedAt time.Time
	UpdatedAt time.Time

	events []Event
}

// MachineOption configures machine construction.
type MachineOption func(*Machine)

// WithTransitionPolicy selects strict or permissive TransitionTo semantics.
// The default is permissive.
func WithTransitionPolicy(p TransitionPolicy) MachineOption {
	return func(m *Machine) {
		m.policy = p
	}
}

// WithDescription sets the machine description.
func WithDescription(desc string) MachineOption {
	return func(m *Machine) {
		m.Description = desc
	}
}

// NewMachine creates a Draft machine holding exactly one state, named
// Initial, with the current-state pointer on it.
func NewMachine(name string, opts ...MachineOption) (*Machine, error) {
	if strings.TrimSpace(name) == "" {
		return nil, NewValidationError("name", "machine name cannot be empty")
	}
	now := time.Now().UTC()
	initial := NewState(InitialStateName, "entry state")
	m := &Machine{
		ID:             uuid.NewString(),
		Name:           name,
		status:         StatusDraft,
		states:         []*State{initial},
		currentStateID: initial.ID,
		initialStateID: initial.ID,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.record(MachineCreated{
		EventBase:      newEventBase(m.ID, EventMachineCreated),
		Name:           name,
		InitialStateID: initial.ID,
	})
	return m, nil
}

// Status returns the lifecycle status.
func (m *Machine) Status() Status { return m.status }

// Policy returns the transition policy in effect.
func (m *Machine) Policy() TransitionPolicy { return m.policy }

// CurrentStateID returns the ID of the current state.
func (m *Machine) CurrentStateID() string { return m.currentStateID }

// InitialStateID returns the ID of the non-removable Initial state.
func (m *Machine) InitialStateID() string { return m.initialStateID }

// CurrentState returns the current state node.
func (m *Machine) CurrentState() *State {
	return m.StateByID(m.currentStateID)
}

// States returns the owned states in insertion order. The slice is a copy;
// the elements are the live entities.
func (m *Machine) States() []*State {
	out := make([]*State, len(m.states))
	copy(out, m.states)
	return out
}

// Transitions returns the owned transitions in insertion order.
func (m *Machine) Transitions() []*Transition {
	out := make([]*Transition, len(m.transitions))
	copy(out, m.transitions)
	return out
}

// Rules returns the owned rules in insertion order.
func (m *Machine) Rules() []*Rule {
	out := make([]*Rule, len(m.rules))
	copy(out, m.rules)
	return out
}

// StateByID looks a state up by ID.
func (m *Machine) StateByID(id string) *State {
	for _, s := range m.states {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// StateByName looks a state up by name.
func (m *Machine) StateByName(name string) *State {
	for _, s := range m.states {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// RuleByID looks a rule up by ID.
func (m *Machine) RuleByID(id string) *Rule {
	for _, r := range m.rules {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// RuleByName looks a rule up by name, returning the first match.
func (m *Machine) RuleByName(name string) *Rule {
	for _, r := range m.rules {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// AddState appends a state. Only Draft machines may grow topology, and
// names must stay unique within the machine.
func (m *Machine) AddState(s *State) error {
	if s == nil {
		return NewValidationError("state", "state cannot be nil")
	}
	if errs := s.Validate(); len(errs) > 0 {
		return errs[0]
	}
	if m.status != StatusDraft {
		return NewBusinessRuleError("states can only be added while the machine is in draft")
	}
	if m.StateByName(s.Name) != nil {
		return NewBusinessRuleError("a state named %q already exists", s.Name)
	}
	m.states = append(m.states, s)
	m.touch()
	m.record(StateAdded{
		EventBase: newEventBase(m.ID, EventStateAdded),
		StateID:   s.ID,
		StateName: s.Name,
	})
	return nil
}

// AddTransition appends an edge. Both endpoints must already exist, and the
// same Draft-only discipline as AddState applies.
func (m *Machine) AddTransition(t *Transition) error {
	if t == nil {
		return NewValidationError("transition", "transition cannot be nil")
	}
	if m.status != StatusDraft {
		return NewBusinessRuleError("transitions can only be added while the machine is in draft")
	}
	if m.StateByID(t.From) == nil {
		return NewBusinessRuleError("from state %q does not exist", t.From)
	}
	if m.StateByID(t.To) == nil {
		return NewBusinessRuleError("to state %q does not exist", t.To)
	}
	m.transitions = append(m.transitions, t)
	m.touch()
	m.record(TransitionAdded{
		EventBase:    newEventBase(m.ID, EventTransitionAdded),
		TransitionID: t.ID,
		From:         t.From,
		To:           t.To,
	})
	return nil
}

// AddRule appends a rule regardless of status. Rules are ongoing policy,
// not structural topology, so an active machine can still grow them.
func (m *Machine) AddRule(r *Rule) error {
	if r == nil {
		return NewValidationError("rule", "rule cannot be nil")
	}
	m.rules = append(m.rules, r)
	m.touch()
	m.record(RuleAdded{
		EventBase: newEventBase(m.ID, EventRuleAdded),
		RuleID:    r.ID,
		RuleName:  r.Name,
		Priority:  r.Priority,
	})
	return nil
}

// Activate moves Draft to Active once the machine is big enough to mean
// anything. The checks run in a fixed order so each failure mode has a
// stable message.
func (m *Machine) Activate() error {
	if m.status != StatusDraft {
		return NewBusinessRuleError("only a draft machine can be activated")
	}
	if len(m.states) < 2 {
		return NewBusinessRuleError("state machine must have at least 2 states")
	}
	if len(m.transitions) < 1 {
		return NewBusinessRuleError("state machine must have at least 1 transition")
	}
	m.status = StatusActive
	m.touch()
	m.record(MachineActivated{EventBase: newEventBase(m.ID, EventMachineActivated)})
	return nil
}

// Deactivate moves Active to Inactive. There is no modeled way back.
func (m *Machine) Deactivate() error {
	if m.status != StatusActive {
		return NewBusinessRuleError("only an active machine can be deactivated")
	}
	m.status = StatusInactive
	m.touch()
	m.record(MachineDeactivated{EventBase: newEventBase(m.ID, EventMachineDeactivated)})
	return nil
}

// TransitionTo moves the current-state pointer. Moving to the current state
// is a no-op that leaves the version untouched. Under the strict policy the
// move must also follow a declared edge from the current state.
func (m *Machine) TransitionTo(targetStateID, description string) error {
	if targetStateID == m.currentStateID {
		return nil
	}
	if m.StateByID(targetStateID) == nil {
		return NewBusinessRuleError("target state %q does not exist", targetStateID)
	}
	if m.policy == PolicyStrict && !m.CanTransitionTo(targetStateID) {
		return NewBusinessRuleError("no transition declared from current state to %q", targetStateID)
	}
	from := m.currentStateID
	m.currentStateID = targetStateID
	m.touch()
	m.record(Transitioned{
		EventBase:   newEventBase(m.ID, EventTransitioned),
		From:        from,
		To:          targetStateID,
		Description: description,
	})
	return nil
}

// CanTransitionTo reports whether a declared edge runs from the current
// state to the target.
func (m *Machine) CanTransitionTo(targetStateID string) bool {
	for _, t := range m.transitions {
		if t.From == m.currentStateID && t.To == targetStateID {
			return true
		}
	}
	return false
}

// AvailableTransitions returns every edge leaving the current state.
func (m *Machine) AvailableTransitions() []*Transition {
	var out []*Transition
	for _, t := range m.transitions {
		if t.From == m.currentStateID {
			out = append(out, t)
		}
	}
	return out
}

// TraversableTransitions returns the edges leaving the current state whose
// guards pass under the given facts.
func (m *Machine) TraversableTransitions(facts Facts) []*Transition {
	var out []*Transition
	for _, t := range m.transitions {
		if t.From == m.currentStateID && t.CanTraverse(facts) {
			out = append(out, t)
		}
	}
	return out
}

// EvaluateRules runs every enabled rule against the facts, highest priority
// first (ties keep insertion order), and records a RuleTriggered event per
// true verdict. Lower-priority rules are still evaluated after a hit; a
// single pass reports everything that matched. Inactive and draft machines
// evaluate nothing.
func (m *Machine) EvaluateRules(facts Facts) []*Rule {
	if m.status != StatusActive {
		return nil
	}
	ordered := m.rulesByPriority()
	var triggered []*Rule
	for _, r := range ordered {
		if !r.Enabled {
			continue
		}
		res := r.Evaluate(facts)
		if !res.OK {
			continue
		}
		if matched, _ := res.Value.(bool); !matched {
			continue
		}
		triggered = append(triggered, r)
		m.record(RuleTriggered{
			EventBase: newEventBase(m.ID, EventRuleTriggered),
			RuleID:    r.ID,
			RuleName:  r.Name,
			Action:    r.Action,
			Priority:  r.Priority,
		})
	}
	return triggered
}

// rulesByPriority returns the rules ordered by priority descending, with
// insertion order breaking ties.
func (m *Machine) rulesByPriority() []*Rule {
	ordered := make([]*Rule, len(m.rules))
	copy(ordered, m.rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})
	return ordered
}

// Reset points the machine back at its Initial state. Unlike TransitionTo,
// Reset always bumps the version and records an event, even when already at
// Initial; replay consumers rely on the reset being visible.
func (m *Machine) Reset() {
	from := m.currentStateID
	m.currentStateID = m.initialStateID
	m.touch()
	m.record(MachineReset{
		EventBase: newEventBase(m.ID, EventMachineReset),
		From:      from,
		To:        m.initialStateID,
	})
}

// Events returns the undrained outbox in append order.
func (m *Machine) Events() []Event {
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// ClearEvents drains the outbox. Only the caller decides when; the
// aggregate never clears it internally.
func (m *Machine) ClearEvents() {
	m.events = nil
}

func (m *Machine) record(e Event) {
	m.events = append(m.events, e)
}

func (m *Machine) touch() {
	m.Version++
	m.UpdatedAt = time.Now().UTC()
}
