package ruleset

import (
	"fmt"
	"slices"

	"github.com/papapumpkin/agroplan/internal/planerr"
)

// Condition operators.
const (
	OpEq    = "eq"
	OpNe    = "ne"
	OpIn    = "in"
	OpNotIn = "not_in"
)

// Condition tests one attribute of a slot or a bed.
type Condition struct {
	Attribute string   `toml:"attribute" yaml:"attribute"`
	Op        string   `toml:"op" yaml:"op"`
	Value     string   `toml:"value" yaml:"value"`
	Values    []string `toml:"values" yaml:"values"`
}

// Validate checks the operator and its operands.
func (c Condition) Validate() error {
	if c.Attribute == "" {
		return fmt.Errorf("%w: condition without attribute", planerr.ErrConfiguration)
	}
	switch c.Op {
	case OpEq, OpNe:
		if len(c.Values) > 0 {
			return fmt.Errorf("%w: %s on %q takes a single value", planerr.ErrConfiguration, c.Op, c.Attribute)
		}
	case OpIn, OpNotIn:
		if len(c.Values) == 0 {
			return fmt.Errorf("%w: %s on %q requires values", planerr.ErrConfiguration, c.Op, c.Attribute)
		}
	default:
		return fmt.Errorf("%w: unknown operator %q on %q", planerr.ErrConfiguration, c.Op, c.Attribute)
	}
	return nil
}

// Match applies the condition to an attribute getter.
func (c Condition) Match(attr func(string) string) bool {
	v := attr(c.Attribute)
	switch c.Op {
	case OpEq:
		return v == c.Value
	case OpNe:
		return v != c.Value
	case OpIn:
		return slices.Contains(c.Values, v)
	case OpNotIn:
		return !slices.Contains(c.Values, v)
	}
	return false
}

// matchAll reports whether every condition holds.
func matchAll(conds []Condition, attr func(string) string) bool {
	for _, c := range conds {
		if !c.Match(attr) {
			return false
		}
	}
	return true
}
