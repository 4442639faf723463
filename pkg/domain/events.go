package domain

import (
	"context"
	"time"
)

// EventType categorizes a domain event.
type EventType string

const (
	EventMachineCreated     EventType = "machine_created"
	EventStateAdded         EventType = "state_added"
	EventTransitionAdded    EventType = "transition_added"
	EventRuleAdded          EventType = "rule_added"
	EventMachineActivated   EventType = "machine_activated"
	EventMachineDeactivated EventType = "machine_deactivated"
	EventTransitioned       EventType = "transitioned"
	EventRuleTriggered      EventType = "rule_triggered"
	EventMachineReset       EventType = "machine_reset"
)

// Event is a recorded fact of something that happened inside the aggregate.
// Events accumulate on an append-only outbox and are drained explicitly by
// the caller; the aggregate never pushes them to subscribers itself.
type Event interface {
	Type() EventType
	OccurredAt() time.Time
}

// EventBase carries the fields common to all events.
type EventBase struct {
	MachineID string    `json:"machine_id"`
	Kind      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Type implements Event.
func (e EventBase) Type() EventType { return e.Kind }

// OccurredAt implements Event.
func (e EventBase) OccurredAt() time.Time { return e.Timestamp }

func newEventBase(machineID string, kind EventType) EventBase {
	return EventBase{MachineID: machineID, Kind: kind, Timestamp: time.Now().UTC()}
}

// MachineCreated records the birth of a machine with its Initial state.
type MachineCreated struct {
	EventBase
	Name           string `json:"name"`
	InitialStateID string `json:"initial_state_id"`
}

// StateAdded records a new state appended while in Draft.
type StateAdded struct {
	EventBase
	StateID   string `json:"state_id"`
	StateName string `json:"state_name"`
}

// TransitionAdded records a new edge between two existing states.
type TransitionAdded struct {
	EventBase
	TransitionID string `json:"transition_id"`
	From         string `json:"from"`
	To           string `json:"to"`
}

// RuleAdded records a new decision rule, addable at any machine status.
type RuleAdded struct {
	EventBase
	RuleID   string `json:"rule_id"`
	RuleName string `json:"rule_name"`
	Priority int    `json:"priority"`
}

// MachineActivated records the Draft to Active move.
type MachineActivated struct {
	EventBase
}

// MachineDeactivated records the Active to Inactive move.
type MachineDeactivated struct {
	EventBase
}

// Transitioned records a current-state change, with the caller's optional
// description of why.
type Transitioned struct {
	EventBase
	From        string `json:"from"`
	To          string `json:"to"`
	Description string `json:"description,omitempty"`
}

// RuleTriggered records a rule whose condition evaluated true during an
// evaluation pass.
type RuleTriggered struct {
	EventBase
	RuleID   string `json:"rule_id"`
	RuleName string `json:"rule_name"`
	Action   string `json:"action"`
	Priority int    `json:"priority"`
}

// MachineReset records a jump back to the Initial state.
type MachineReset struct {
	EventBase
	From string `json:"from"`
	To   string `json:"to"`
}

// LifecycleHooks carries optional callbacks invoked by the runtime when
// notable events drain from the outbox. Callbacks run synchronously inside
// the evaluation pass and must be quick.
type LifecycleHooks struct {
	OnRuleTriggered func(ctx context.Context, event RuleTriggered)
	OnTransition    func(ctx context.Context, event Transitioned)
}
