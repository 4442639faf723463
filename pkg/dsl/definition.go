package dsl

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/lcampedelli/riposte/pkg/domain"
)

// Definition is the YAML shape of a machine. It uses "mapstructure" tags so
// the same structs decode from YAML documents and from generic maps (e.g.
// request bodies that arrive as map[string]any).
type Definition struct {
	Name        string                 `mapstructure:"name"`
	Description string                 `mapstructure:"description"`
	Policy      string                 `mapstructure:"policy"`
	States      []StateDefinition      `mapstructure:"states"`
	Transitions []TransitionDefinition `mapstructure:"transitions"`
	Rules       []RuleDefinition       `mapstructure:"rules"`
}

// StateDefinition declares one state beyond the implicit Initial.
type StateDefinition struct {
	Name        string         `mapstructure:"name"`
	Description string         `mapstructure:"description"`
	Values      map[string]any `mapstructure:"values"`
}

// TransitionDefinition declares an edge by state name.
type TransitionDefinition struct {
	From        string               `mapstructure:"from"`
	To          string               `mapstructure:"to"`
	Guard       *ConditionDefinition `mapstructure:"guard"`
	Description string               `mapstructure:"description"`
}

// RuleDefinition declares a decision rule.
type RuleDefinition struct {
	Name        string              `mapstructure:"name"`
	Description string              `mapstructure:"description"`
	When        ConditionDefinition `mapstructure:"when"`
	Action      string              `mapstructure:"action"`
	Priority    int                 `mapstructure:"priority"`
	Disabled    bool                `mapstructure:"disabled"`
}

// ConditionDefinition declares a leaf predicate. Operators accept both the
// canonical word spelling and the symbolic one.
type ConditionDefinition struct {
	Fact     string `mapstructure:"fact"`
	Operator string `mapstructure:"op"`
	Value    any    `mapstructure:"value"`
}

// operatorAliases maps accepted spellings to canonical operators.
var operatorAliases = map[string]domain.Operator{
	"==":               domain.OpEqual,
	"eq":               domain.OpEqual,
	"equal":            domain.OpEqual,
	"!=":               domain.OpNotEqual,
	"ne":               domain.OpNotEqual,
	"not_equal":        domain.OpNotEqual,
	">":                domain.OpGreaterThan,
	"gt":               domain.OpGreaterThan,
	"greater_than":     domain.OpGreaterThan,
	"<":                domain.OpLessThan,
	"lt":               domain.OpLessThan,
	"less_than":        domain.OpLessThan,
	">=":               domain.OpGreaterOrEqual,
	"ge":               domain.OpGreaterOrEqual,
	"greater_or_equal": domain.OpGreaterOrEqual,
	"<=":               domain.OpLessOrEqual,
	"le":               domain.OpLessOrEqual,
	"less_or_equal":    domain.OpLessOrEqual,
	"contains":         domain.OpContains,
}

func (c ConditionDefinition) toCondition() (domain.Condition, error) {
	op, ok := operatorAliases[strings.ToLower(strings.TrimSpace(c.Operator))]
	if !ok {
		return domain.Condition{}, fmt.Errorf("unknown operator %q", c.Operator)
	}
	return domain.NewCondition(c.Fact, op, c.Value)
}

// Load reads and builds a machine definition file.
func Load(path string) (*domain.Machine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a machine from YAML bytes. Construction goes through the
// aggregate API, so every machine invariant (Draft-only topology, unique
// names, resolvable endpoints) applies to definitions too.
func Parse(data []byte) (*domain.Machine, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return FromMap(raw)
}

// FromMap builds a machine from an already-decoded generic map.
func FromMap(raw map[string]any) (*domain.Machine, error) {
	var def Definition
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &def,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid definition: %w", err)
	}
	return build(def)
}

func build(def Definition) (*domain.Machine, error) {
	opts := []domain.MachineOption{domain.WithDescription(def.Description)}
	switch strings.ToLower(strings.TrimSpace(def.Policy)) {
	case "", "permissive":
	case "strict":
		opts = append(opts, domain.WithTransitionPolicy(domain.PolicyStrict))
	default:
		return nil, fmt.Errorf("unknown transition policy %q", def.Policy)
	}

	m, err := domain.NewMachine(def.Name, opts...)
	if err != nil {
		return nil, err
	}

	for _, sd := range def.States {
		s := domain.NewState(sd.Name, sd.Description)
		for k, v := range sd.Values {
			if err := s.SetValue(k, v); err != nil {
				return nil, fmt.Errorf("state %q: %w", sd.Name, err)
			}
		}
		if err := m.AddState(s); err != nil {
			return nil, fmt.Errorf("state %q: %w", sd.Name, err)
		}
	}

	for _, td := range def.Transitions {
		from := m.StateByName(td.From)
		if from == nil {
			return nil, fmt.Errorf("transition %s -> %s: unknown state %q", td.From, td.To, td.From)
		}
		to := m.StateByName(td.To)
		if to == nil {
			return nil, fmt.Errorf("transition %s -> %s: unknown state %q", td.From, td.To, td.To)
		}
		var tr *domain.Transition
		if td.Guard != nil {
			guard, err := td.Guard.toCondition()
			if err != nil {
				return nil, fmt.Errorf("transition %s -> %s: %w", td.From, td.To, err)
			}
			tr = domain.NewGuardedTransition(from.ID, to.ID, guard, td.Description)
		} else {
			tr = domain.NewTransition(from.ID, to.ID, td.Description)
		}
		if err := m.AddTransition(tr); err != nil {
			return nil, fmt.Errorf("transition %s -> %s: %w", td.From, td.To, err)
		}
	}

	for _, rd := range def.Rules {
		cond, err := rd.When.toCondition()
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", rd.Name, err)
		}
		r, err := domain.NewRule(rd.Name, cond, rd.Action, rd.Priority)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", rd.Name, err)
		}
		r.Description = rd.Description
		if rd.Disabled {
			r.Disable()
		}
		if err := m.AddRule(r); err != nil {
			return nil, fmt.Errorf("rule %q: %w", rd.Name, err)
		}
	}

	return m, nil
}
