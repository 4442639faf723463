package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCondition_Validation(t *testing.T) {
	_, err := NewCondition("", OpEqual, 1)
	assert.True(t, IsValidationError(err), "empty fact key should be rejected")

	_, err = NewCondition("health", Operator("spaceship"), 1)
	assert.True(t, IsValidationError(err), "unknown operator should be rejected")

	c, err := NewCondition("health", OpLessThan, 10)
	require.NoError(t, err)
	assert.Equal(t, "health", c.Fact)
}

func TestCondition_Evaluate(t *testing.T) {
	cases := []struct {
		name  string
		cond  Condition
		facts Facts
		want  bool
	}{
		{"equal numbers", Condition{"health", OpEqual, 50}, Facts{"health": 50}, true},
		{"equal across numeric types", Condition{"health", OpEqual, 50}, Facts{"health": 50.0}, true},
		{"equal numeric string", Condition{"health", OpEqual, 50}, Facts{"health": "50"}, true},
		{"equal strings", Condition{"zone", OpEqual, "forest"}, Facts{"zone": "forest"}, true},
		{"not equal", Condition{"zone", OpNotEqual, "town"}, Facts{"zone": "forest"}, true},
		{"less than true", Condition{"health", OpLessThan, 10}, Facts{"health": 5}, true},
		{"less than false", Condition{"health", OpLessThan, 10}, Facts{"health": 50}, false},
		{"greater than", Condition{"gold", OpGreaterThan, 100}, Facts{"gold": 250}, true},
		{"greater or equal boundary", Condition{"gold", OpGreaterOrEqual, 100}, Facts{"gold": 100}, true},
		{"less or equal boundary", Condition{"gold", OpLessOrEqual, 100}, Facts{"gold": 100}, true},
		{"ordering over non-numeric is false", Condition{"zone", OpGreaterThan, 3}, Facts{"zone": "forest"}, false},
		{"ordering with non-numeric expected is false", Condition{"health", OpLessThan, "low"}, Facts{"health": 5}, false},
		{"absent fact is false", Condition{"mana", OpEqual, 10}, Facts{"health": 10}, false},
		{"absent fact is false for not-equal too", Condition{"mana", OpNotEqual, 10}, Facts{}, false},
		{"nil facts are false", Condition{"health", OpEqual, 10}, nil, false},
		{"substring", Condition{"window_title", OpContains, "Inventory"}, Facts{"window_title": "Game - Inventory"}, true},
		{"substring miss", Condition{"window_title", OpContains, "Map"}, Facts{"window_title": "Game - Inventory"}, false},
		{"slice membership", Condition{"buffs", OpContains, "haste"}, Facts{"buffs": []any{"haste", "shield"}}, true},
		{"string slice membership", Condition{"buffs", OpContains, "haste"}, Facts{"buffs": []string{"haste"}}, true},
		{"map key membership", Condition{"cooldowns", OpContains, "heal"}, Facts{"cooldowns": map[string]any{"heal": 3}}, true},
		{"contains over number is false", Condition{"health", OpContains, 5}, Facts{"health": 55}, false},
		{"bool equality", Condition{"enemy_visible", OpEqual, true}, Facts{"enemy_visible": true}, true},
		{"bool is not a number", Condition{"enemy_visible", OpGreaterThan, 0}, Facts{"enemy_visible": true}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cond.Evaluate(tc.facts))
		})
	}
}

func TestCondition_Matches_IsPure(t *testing.T) {
	// A constant condition is just the degenerate case of a predicate that
	// ignores its context.
	c := Condition{Fact: "any", Operator: OpEqual, Value: 1}
	assert.True(t, c.Matches(1))
	assert.True(t, c.Matches(1)) // identical verdict on repeat calls
	assert.False(t, c.Matches(2))
}

func TestCondition_NeverPanics(t *testing.T) {
	weird := []any{nil, []any{1, 2}, map[string]any{"a": 1}, struct{ X int }{1}}
	ops := []Operator{OpEqual, OpNotEqual, OpGreaterThan, OpLessThan, OpGreaterOrEqual, OpLessOrEqual, OpContains}
	for _, op := range ops {
		for _, v := range weird {
			c := Condition{Fact: "k", Operator: op, Value: v}
			assert.NotPanics(t, func() {
				c.Evaluate(Facts{"k": v})
				c.Evaluate(Facts{"k": "other"})
			})
		}
	}
}
