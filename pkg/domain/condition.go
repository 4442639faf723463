package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Operator identifies one of the fixed comparison predicates supported by
// the condition language. The language is deliberately small: conditions are
// single leaf predicates, not a scripting surface.
type Operator string

const (
	OpEqual          Operator = "equal"
	OpNotEqual       Operator = "not_equal"
	OpGreaterThan    Operator = "greater_than"
	OpLessThan       Operator = "less_than"
	OpGreaterOrEqual Operator = "greater_or_equal"
	OpLessOrEqual    Operator = "less_or_equal"
	OpContains       Operator = "contains"
)

// Valid reports whether op is one of the supported predicates.
func (op Operator) Valid() bool {
	switch op {
	case OpEqual, OpNotEqual, OpGreaterThan, OpLessThan,
		OpGreaterOrEqual, OpLessOrEqual, OpContains:
		return true
	}
	return false
}

// Condition is an immutable leaf predicate: it compares the fact named by
// Fact against Value using Operator. It has no identity and no side effects.
type Condition struct {
	Fact     string   `json:"fact" yaml:"fact"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    any      `json:"value" yaml:"value"`
}

// NewCondition builds a condition, rejecting malformed input up front so
// rules never carry predicates that can only ever fail.
func NewCondition(fact string, op Operator, value any) (Condition, error) {
	if strings.TrimSpace(fact) == "" {
		return Condition{}, NewValidationError("fact", "fact key cannot be empty")
	}
	if !op.Valid() {
		return Condition{}, NewValidationError("operator", fmt.Sprintf("unknown operator %q", string(op)))
	}
	return Condition{Fact: fact, Operator: op, Value: value}, nil
}

// Evaluate looks the fact up in the supplied context and compares it.
// An absent fact evaluates to false: recognition input is noisy and
// incomplete by nature, and a polling loop must never crash over it.
func (c Condition) Evaluate(facts Facts) bool {
	v, ok := facts.Lookup(c.Fact)
	if !ok {
		return false
	}
	return c.Matches(v)
}

// Matches compares a single context value against the expected value.
// Pure function: no side effects, never panics, never errors. Comparisons
// that cannot be made meaningfully (e.g. ordering over non-numbers) are
// simply false.
func (c Condition) Matches(contextValue any) bool {
	switch c.Operator {
	case OpEqual:
		return valuesEqual(contextValue, c.Value)
	case OpNotEqual:
		return !valuesEqual(contextValue, c.Value)
	case OpGreaterThan, OpLessThan, OpGreaterOrEqual, OpLessOrEqual:
		a, aok := toFloat(contextValue)
		b, bok := toFloat(c.Value)
		if !aok || !bok {
			return false
		}
		switch c.Operator {
		case OpGreaterThan:
			return a > b
		case OpLessThan:
			return a < b
		case OpGreaterOrEqual:
			return a >= b
		default:
			return a <= b
		}
	case OpContains:
		return contains(contextValue, c.Value)
	}
	return false
}

// valuesEqual attempts numeric equality first so that 5, 5.0 and "5"
// compare equal, then falls back to exact value equality.
func valuesEqual(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as == bs
		}
	}
	return reflect.DeepEqual(a, b)
}

// toFloat coerces the numeric shapes that show up in decoded JSON/YAML and
// raw recognition payloads. Booleans are deliberately not numbers.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// contains covers the three membership shapes the engine understands:
// substring of a string, element of a slice, key of a map.
func contains(haystack, needle any) bool {
	switch h := haystack.(type) {
	case string:
		return strings.Contains(h, fmt.Sprintf("%v", needle))
	case []any:
		for _, item := range h {
			if valuesEqual(item, needle) {
				return true
			}
		}
	case []string:
		for _, item := range h {
			if valuesEqual(item, needle) {
				return true
			}
		}
	case map[string]any:
		_, ok := h[fmt.Sprintf("%v", needle)]
		return ok
	}
	return false
}

// String renders the predicate for logs and validation messages.
func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.Fact, c.Operator, c.Value)
}
