// Package solver defines the contract between the model assembler and a
// constraint-solving engine: variable handles, the primitive
// constraint values the rules compile to, solve options and outcomes, and the
// table of named search strategies.
//
// The package holds no search logic. Engines live elsewhere; see
// internal/solver/backtrack for the reference implementation.
package solver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrUnknownVar is returned when a handle was not created by the engine.
var ErrUnknownVar = errors.New("unknown variable")

// ErrNoSolution is returned by Value when the last Solve call did not find a
// solution.
var ErrNoSolution = errors.New("no current solution")

// ErrEmptyDomain is returned when creating a variable without values.
var ErrEmptyDomain = errors.New("empty domain")

// Var is an opaque handle to a decision variable.
type Var int

// Domain is the explicit, sorted, duplicate-free set of values a variable
// may take.
type Domain struct {
	values []int
}

// Values returns a domain holding the given values.
func Values(vs ...int) Domain {
	out := slices.Clone(vs)
	slices.Sort(out)
	return Domain{values: slices.Compact(out)}
}

// Range returns the contiguous domain [lo, hi].
func Range(lo, hi int) Domain {
	if hi < lo {
		return Domain{}
	}
	out := make([]int, 0, hi-lo+1)
	for v := lo; v <= hi; v++ {
		out = append(out, v)
	}
	return Domain{values: out}
}

// Slice returns a copy of the domain values in ascending order.
func (d Domain) Slice() []int {
	return slices.Clone(d.values)
}

// Len returns the number of values.
func (d Domain) Len() int {
	return len(d.values)
}

// Contains reports whether v belongs to the domain.
func (d Domain) Contains(v int) bool {
	_, ok := slices.BinarySearch(d.values, v)
	return ok
}

// Status is the outcome of one Solve call.
type Status int

const (
	// Unknown means a limit was reached before a solution or a proof.
	Unknown Status = iota
	// Satisfied means a solution is available through Value.
	Satisfied
	// Unsatisfiable means the search space holds no further solution.
	Unsatisfiable
)

func (s Status) String() string {
	switch s {
	case Satisfied:
		return "satisfied"
	case Unsatisfiable:
		return "unsatisfiable"
	default:
		return "unknown"
	}
}

// Options bound a single Solve call. Zero values mean no limit.
type Options struct {
	TimeLimit time.Duration
	NodeLimit int64
}

// VarOrder selects the next variable to branch on.
type VarOrder int

const (
	// InputOrder branches on variables in the order given to SetSearch.
	InputOrder VarOrder = iota
	// FirstFail branches on the variable with the smallest domain first.
	FirstFail
	// MostConstrained branches on the variable involved in the most
	// constraints first.
	MostConstrained
)

// ValueOrder selects the order in which values are tried.
type ValueOrder int

const (
	MinValue ValueOrder = iota // smallest bed ID first
	MaxValue                   // largest bed ID first
)

// Heuristic configures an engine's search.
type Heuristic struct {
	Vars   VarOrder
	Values ValueOrder
}

func (h Heuristic) String() string {
	vars := map[VarOrder]string{InputOrder: "input", FirstFail: "first-fail", MostConstrained: "most-constrained"}[h.Vars]
	values := "min"
	if h.Values == MaxValue {
		values = "max"
	}
	return fmt.Sprintf("%s/%s", vars, values)
}

// Engine is a stateful constraint solver. Successive Solve calls enumerate
// distinct solutions until Unsatisfiable is returned; there is no rewind.
type Engine interface {
	NewVar(d Domain) (Var, error)
	Post(s Spec) error
	SetSearch(h Heuristic, vars []Var) error
	Solve(ctx context.Context, opts Options) (Status, error)
	Value(v Var) (int, error)
}
