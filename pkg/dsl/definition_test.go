package dsl_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lcampedelli/riposte/pkg/domain"
	"github.com/lcampedelli/riposte/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const farmBot = `
name: farm-bot
description: grinds the west field
policy: strict
states:
  - name: Fighting
    description: engaged with a target
    values:
      combo: 0
  - name: Fleeing
transitions:
  - from: Initial
    to: Fighting
    guard: {fact: enemy_visible, op: eq, value: true}
    description: engage on sight
  - from: Fighting
    to: Fleeing
rules:
  - name: flee-when-hurt
    when: {fact: health, op: "<", value: 10}
    action: Flee
    priority: 10
  - name: loot
    when: {fact: loot_visible, op: eq, value: true}
    action: PickUp
    priority: 1
    disabled: true
`

func TestParse(t *testing.T) {
	m, err := dsl.Parse([]byte(farmBot))
	require.NoError(t, err)

	assert.Equal(t, "farm-bot", m.Name)
	assert.Equal(t, "grinds the west field", m.Description)
	assert.Equal(t, domain.PolicyStrict, m.Policy())
	assert.Equal(t, domain.StatusDraft, m.Status())

	require.Len(t, m.States(), 3) // Initial + 2 declared
	fighting := m.StateByName("Fighting")
	require.NotNil(t, fighting)
	assert.Equal(t, 0, fighting.ValueOr("combo", nil))

	transitions := m.Transitions()
	require.Len(t, transitions, 2)
	require.NotNil(t, transitions[0].Guard)
	assert.Equal(t, domain.OpEqual, transitions[0].Guard.Operator)
	assert.Nil(t, transitions[1].Guard)

	rules := m.Rules()
	require.Len(t, rules, 2)
	assert.Equal(t, domain.OpLessThan, rules[0].Condition.Operator)
	assert.True(t, rules[0].Enabled)
	assert.False(t, rules[1].Enabled)

	// The built machine is activatable as-is.
	require.NoError(t, m.Activate())
	triggered := m.EvaluateRules(domain.Facts{"health": 4, "loot_visible": true})
	require.Len(t, triggered, 1, "disabled rule stays quiet")
	assert.Equal(t, "flee-when-hurt", triggered[0].Name)
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"invalid yaml", "name: [", "invalid YAML"},
		{"missing machine name", "description: no name", "name"},
		{"unknown policy", "name: m\npolicy: psychic", "unknown transition policy"},
		{"unknown operator", "name: m\nstates: [{name: A}]\nrules: [{name: r, when: {fact: x, op: between, value: 1}, action: A}]", "unknown operator"},
		{"unknown transition endpoint", "name: m\ntransitions: [{from: Initial, to: Ghost}]", `unknown state "Ghost"`},
		{"duplicate state", "name: m\nstates: [{name: A}, {name: A}]", "already exists"},
		{"unknown field", "name: m\nflavour: salty", "invalid definition"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := dsl.Parse([]byte(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "farm-bot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(farmBot), 0o644))

	m, err := dsl.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "farm-bot", m.Name)

	_, err = dsl.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
