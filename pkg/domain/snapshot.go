package domain

import "time"

// MachineSnapshot is the persistence shape of a machine: plain exported
// fields, stable tags, no behavior. Stores serialize snapshots; the
// aggregate itself never leaves memory. The event outbox is not part of
// the snapshot; undrained events belong to the running process, not to
// storage.
type MachineSnapshot struct {
	ID             string               `json:"id" yaml:"id"`
	Name           string               `json:"name" yaml:"name"`
	Description    string               `json:"description,omitempty" yaml:"description,omitempty"`
	Status         Status               `json:"status" yaml:"status"`
	Policy         TransitionPolicy     `json:"policy" yaml:"policy"`
	States         []StateSnapshot      `json:"states" yaml:"states"`
	Transitions    []TransitionSnapshot `json:"transitions,omitempty" yaml:"transitions,omitempty"`
	Rules          []RuleSnapshot       `json:"rules,omitempty" yaml:"rules,omitempty"`
	CurrentStateID string               `json:"current_state_id" yaml:"current_state_id"`
	InitialStateID string               `json:"initial_state_id" yaml:"initial_state_id"`
	Version        uint64               `json:"version" yaml:"version"`
	CreatedAt      time.Time            `json:"created_at" yaml:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at" yaml:"updated_at"`
}

// StateSnapshot is the persistence shape of a state.
type StateSnapshot struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Active      bool           `json:"active" yaml:"active"`
	Values      map[string]any `json:"values,omitempty" yaml:"values,omitempty"`
	CreatedAt   time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" yaml:"updated_at"`
}

// TransitionSnapshot is the persistence shape of a transition.
type TransitionSnapshot struct {
	ID          string     `json:"id" yaml:"id"`
	From        string     `json:"from" yaml:"from"`
	To          string     `json:"to" yaml:"to"`
	Guard       *Condition `json:"guard,omitempty" yaml:"guard,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
}

// RuleSnapshot is the persistence shape of a rule.
type RuleSnapshot struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Condition   Condition `json:"condition" yaml:"condition"`
	Action      string    `json:"action" yaml:"action"`
	Priority    int       `json:"priority" yaml:"priority"`
	Enabled     bool      `json:"enabled" yaml:"enabled"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// Snapshot captures the machine for persistence.
func (m *Machine) Snapshot() MachineSnapshot {
	snap := MachineSnapshot{
		ID:             m.ID,
		Name:           m.Name,
		Description:    m.Description,
		Status:         m.status,
		Policy:         m.policy,
		CurrentStateID: m.currentStateID,
		InitialStateID: m.initialStateID,
		Version:        m.Version,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	for _, s := range m.states {
		snap.States = append(snap.States, StateSnapshot{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Active:      s.Active,
			Values:      s.Values(),
			CreatedAt:   s.CreatedAt,
			UpdatedAt:   s.UpdatedAt,
		})
	}
	for _, t := range m.transitions {
		ts := TransitionSnapshot{
			ID:          t.ID,
			From:        t.From,
			To:          t.To,
			Description: t.Description,
		}
		if t.Guard != nil {
			g := *t.Guard
			ts.Guard = &g
		}
		snap.Transitions = append(snap.Transitions, ts)
	}
	for _, r := range m.rules {
		snap.Rules = append(snap.Rules, RuleSnapshot{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Condition:   r.Condition,
			Action:      r.Action,
			Priority:    r.Priority,
			Enabled:     r.Enabled,
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
		})
	}
	return snap
}

// RestoreMachine rebuilds an aggregate from a snapshot. Structural sanity is
// checked (the Initial state and the current-state pointer must resolve) but
// no events are re-emitted: restoring is not a mutation.
func RestoreMachine(snap MachineSnapshot) (*Machine, error) {
	if snap.ID == "" {
		return nil, NewValidationError("id", "snapshot is missing a machine id")
	}
	if len(snap.States) == 0 {
		return nil, NewValidationError("states", "snapshot has no states")
	}
	m := &Machine{
		ID:             snap.ID,
		Name:           snap.Name,
		Description:    snap.Description,
		status:         snap.Status,
		policy:         snap.Policy,
		currentStateID: snap.CurrentStateID,
		initialStateID: snap.InitialStateID,
		Version:        snap.Version,
		CreatedAt:      snap.CreatedAt,
		UpdatedAt:      snap.UpdatedAt,
	}
	for _, ss := range snap.States {
		s := &State{
			ID:          ss.ID,
			Name:        ss.Name,
			Description: ss.Description,
			Active:      ss.Active,
			CreatedAt:   ss.CreatedAt,
			UpdatedAt:   ss.UpdatedAt,
			values:      make(map[string]any, len(ss.Values)),
		}
		for k, v := range ss.Values {
			s.values[k] = v
		}
		m.states = append(m.states, s)
	}
	if m.initialStateID == "" {
		if initial := m.StateByName(InitialStateName); initial != nil {
			m.initialStateID = initial.ID
		}
	}
	if m.StateByID(m.initialStateID) == nil {
		return nil, NewValidationError("initial_state_id", "snapshot initial state does not resolve")
	}
	if m.StateByID(m.currentStateID) == nil {
		return nil, NewValidationError("current_state_id", "snapshot current state does not resolve")
	}
	for _, ts := range snap.Transitions {
		t := &Transition{
			ID:          ts.ID,
			From:        ts.From,
			To:          ts.To,
			Description: ts.Description,
		}
		if ts.Guard != nil {
			g := *ts.Guard
			t.Guard = &g
		}
		m.transitions = append(m.transitions, t)
	}
	for _, rs := range snap.Rules {
		m.rules = append(m.rules, &Rule{
			ID:          rs.ID,
			Name:        rs.Name,
			Description: rs.Description,
			Condition:   rs.Condition,
			Action:      rs.Action,
			Priority:    rs.Priority,
			Enabled:     rs.Enabled,
			CreatedAt:   rs.CreatedAt,
			UpdatedAt:   rs.UpdatedAt,
		})
	}
	return m, nil
}
