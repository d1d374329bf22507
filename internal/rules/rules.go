// Package rules compiles agronomic rules into solver constraint specs and
// checks candidate plans against the same rules.
//
// Every rule is one of five shapes: Succession, SuccessionWithReset,
// BinaryNeighbourhood, GroupNeighbourhood and Location. The named
// constructors in catalogue.go (NewReturnDelays, NewDiluteFamily, ...) pick a
// shape and the slot-pair predicate that feeds it.
package rules

import (
	"fmt"
	"strings"

	"github.com/papapumpkin/agroplan/internal/calendar"
	"github.com/papapumpkin/agroplan/internal/garden"
	"github.com/papapumpkin/agroplan/internal/planerr"
	"github.com/papapumpkin/agroplan/internal/solver"
)

// Rule is a compiled agronomic rule.
type Rule interface {
	Name() string
	// Compile returns the constraints of the rule. vars and dom are indexed
	// by slot ID.
	Compile(vars []solver.Var, dom Domains) ([]solver.Spec, error)
	// Check re-derives the rule on a complete assignment.
	Check(a Assignment) (bool, []Violation)
}

// OrderedGrouper is implemented by rules imposing an order of their own on
// groups of slots. Symmetry breaking must leave those groups alone.
type OrderedGrouper interface {
	OrderedGroups() [][]int
}

// DomainNarrower is implemented by rules able to restrict a slot's domain
// before any constraint is posted.
type DomainNarrower interface {
	Narrow(slot int, beds []int) []int
}

// Problem is the read-only data rules are built from.
type Problem struct {
	Calendar *calendar.Calendar
	Garden   *garden.Registry
}

// Domains lists the candidate beds of each slot, indexed by slot ID.
type Domains [][]int

// Assignment maps slot IDs to bed IDs. Zero means unassigned.
type Assignment []int

// Bed returns the bed of slot, or 0 when out of range.
func (a Assignment) Bed(slot int) int {
	if slot < 0 || slot >= len(a) {
		return 0
	}
	return a[slot]
}

// Violation describes one failed check.
type Violation struct {
	Rule    string
	Slots   []int
	Beds    []int
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s (slots %v, beds %v)", v.Rule, v.Message, v.Slots, v.Beds)
}

// Mode tells whether a rule forbids or enforces its relation.
type Mode int

const (
	Forbidden Mode = iota // the relation must not hold
	Enforced              // the relation must hold
)

// ParseMode parses "forbidden" or "enforced".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forbidden", "forbid", "":
		return Forbidden, nil
	case "enforced", "enforce":
		return Enforced, nil
	}
	return 0, fmt.Errorf("%w: unknown rule mode %q", planerr.ErrConfiguration, s)
}

func (m Mode) String() string {
	if m == Enforced {
		return "enforced"
	}
	return "forbidden"
}

// SuccessionImpl selects how Succession rules compile.
type SuccessionImpl int

const (
	// Cliques posts one all-different or all-equal per maximal clique, and
	// falls back to Pairwise when the graph is not chordal.
	Cliques SuccessionImpl = iota
	// Pairwise posts one (in)equality per edge.
	Pairwise
)

// ParseSuccessionImpl parses "cliques" or "pairwise".
func ParseSuccessionImpl(s string) (SuccessionImpl, error) {
	switch s {
	case "cliques":
		return Cliques, nil
	case "pairwise":
		return Pairwise, nil
	}
	return 0, fmt.Errorf("%w: unknown succession implementation %q", planerr.ErrConfiguration, s)
}

// ResetImpl selects how SuccessionWithReset rules compile.
type ResetImpl int

const (
	// HybridTables posts a single hybrid row constraint per linked pair.
	HybridTables ResetImpl = iota
	// LogicalOperations posts a disjunction of (in)equalities per linked pair.
	LogicalOperations
)

// ParseResetImpl parses "hybrid_tables" or "logical_operations".
func ParseResetImpl(s string) (ResetImpl, error) {
	switch s {
	case "hybrid_tables":
		return HybridTables, nil
	case "logical_operations":
		return LogicalOperations, nil
	}
	return 0, fmt.Errorf("%w: unknown reinitialisation implementation %q", planerr.ErrConfiguration, s)
}

// Options carries compilation choices shared by all rules.
type Options struct {
	Succession SuccessionImpl
	Reset      ResetImpl
}
