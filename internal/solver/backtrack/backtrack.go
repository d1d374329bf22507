// Package backtrack is a small chronological-backtracking engine implementing
// solver.Engine. Constraints are checked as soon as their bound variables
// can violate them; there is no propagation, so it suits tests and small
// gardens rather than production-size models.
package backtrack

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/papapumpkin/agroplan/internal/solver"
)

// ErrSearchStarted is returned when the model is changed after the first
// Solve call.
var ErrSearchStarted = errors.New("search already started")

// Engine is a resumable depth-first search over explicit domains.
type Engine struct {
	domains [][]int
	specs   []solver.Spec
	watches [][]int // var -> indices of specs mentioning it

	heuristic solver.Heuristic
	searchVar []solver.Var

	// Search state, kept across Solve calls.
	started bool
	done    bool
	found   bool
	order   []solver.Var
	values  [][]int // candidate values per depth
	pos     []int
	depth   int
	bound   []bool
	current []int

	nodes int64
}

// New returns an empty engine.
func New() *Engine {
	return &Engine{}
}

// NewVar creates a variable over d.
func (e *Engine) NewVar(d solver.Domain) (solver.Var, error) {
	if e.started {
		return 0, ErrSearchStarted
	}
	if d.Len() == 0 {
		return 0, solver.ErrEmptyDomain
	}
	e.domains = append(e.domains, d.Slice())
	e.watches = append(e.watches, nil)
	return solver.Var(len(e.domains) - 1), nil
}

// Post adds a constraint.
func (e *Engine) Post(s solver.Spec) error {
	if e.started {
		return ErrSearchStarted
	}
	idx := len(e.specs)
	seen := make(map[solver.Var]bool)
	for _, v := range s.Vars() {
		if !e.valid(v) {
			return fmt.Errorf("%w: %d in %s", solver.ErrUnknownVar, v, s.Kind())
		}
		if !seen[v] {
			seen[v] = true
			e.watches[v] = append(e.watches[v], idx)
		}
	}
	e.specs = append(e.specs, s)
	return nil
}

// SetSearch selects the branching heuristic. Variables missing from vars are
// branched on last, in creation order.
func (e *Engine) SetSearch(h solver.Heuristic, vars []solver.Var) error {
	if e.started {
		return ErrSearchStarted
	}
	for _, v := range vars {
		if !e.valid(v) {
			return fmt.Errorf("%w: %d", solver.ErrUnknownVar, v)
		}
	}
	e.heuristic = h
	e.searchVar = slices.Clone(vars)
	return nil
}

// Nodes returns the number of values tried since the engine was created.
func (e *Engine) Nodes() int64 {
	return e.nodes
}

// Len returns the number of posted constraints.
func (e *Engine) Len() int {
	return len(e.specs)
}

func (e *Engine) valid(v solver.Var) bool {
	return v >= 0 && int(v) < len(e.domains)
}

// Value returns the value of v in the current solution.
func (e *Engine) Value(v solver.Var) (int, error) {
	if !e.valid(v) {
		return 0, fmt.Errorf("%w: %d", solver.ErrUnknownVar, v)
	}
	if !e.found {
		return 0, solver.ErrNoSolution
	}
	return e.current[v], nil
}

// Solve advances the search to the next solution. Limits and context
// cancellation yield solver.Unknown and leave the search resumable.
func (e *Engine) Solve(ctx context.Context, opts solver.Options) (solver.Status, error) {
	if e.done {
		return solver.Unsatisfiable, nil
	}
	if !e.started {
		e.start()
	} else if e.found {
		// Resume below the last solution.
		e.found = false
		e.depth = len(e.order) - 1
		if e.depth >= 0 {
			e.unbind(e.order[e.depth])
		}
	}

	var deadline time.Time
	if opts.TimeLimit > 0 {
		deadline = time.Now().Add(opts.TimeLimit)
	}
	var budget int64

	for {
		if e.depth == len(e.order) {
			e.found = true
			return solver.Satisfied, nil
		}
		if e.depth < 0 {
			e.done = true
			return solver.Unsatisfiable, nil
		}
		v := e.order[e.depth]
		if e.pos[e.depth] >= len(e.values[e.depth]) {
			e.pos[e.depth] = 0
			e.depth--
			if e.depth >= 0 {
				e.unbind(e.order[e.depth])
			}
			continue
		}

		if err := ctx.Err(); err != nil {
			return solver.Unknown, nil
		}
		if opts.NodeLimit > 0 && budget >= opts.NodeLimit {
			return solver.Unknown, nil
		}
		if !deadline.IsZero() && budget%64 == 0 && time.Now().After(deadline) {
			return solver.Unknown, nil
		}

		val := e.values[e.depth][e.pos[e.depth]]
		e.pos[e.depth]++
		budget++
		e.nodes++

		e.bind(v, val)
		if e.consistent(v) {
			e.depth++
			continue
		}
		e.unbind(v)
	}
}

func (e *Engine) bind(v solver.Var, val int) {
	e.bound[v] = true
	e.current[v] = val
}

func (e *Engine) unbind(v solver.Var) {
	e.bound[v] = false
}

func (e *Engine) lookup(v solver.Var) (int, bool) {
	if !e.bound[v] {
		return 0, false
	}
	return e.current[v], true
}

func (e *Engine) consistent(v solver.Var) bool {
	for _, idx := range e.watches[v] {
		if e.specs[idx].Violated(e.lookup) {
			return false
		}
	}
	return true
}

func (e *Engine) start() {
	e.started = true
	n := len(e.domains)
	e.bound = make([]bool, n)
	e.current = make([]int, n)
	e.order = e.branchOrder()
	e.values = make([][]int, len(e.order))
	for i, v := range e.order {
		vals := slices.Clone(e.domains[v])
		if e.heuristic.Values == solver.MaxValue {
			slices.Reverse(vals)
		}
		e.values[i] = vals
	}
	e.pos = make([]int, len(e.order))
	e.depth = 0
}

func (e *Engine) branchOrder() []solver.Var {
	listed := make(map[solver.Var]bool, len(e.searchVar))
	order := make([]solver.Var, 0, len(e.domains))
	for _, v := range e.searchVar {
		if !listed[v] {
			listed[v] = true
			order = append(order, v)
		}
	}
	head := len(order)
	for v := range e.domains {
		if !listed[solver.Var(v)] {
			order = append(order, solver.Var(v))
		}
	}

	ranked := order[:head]
	switch e.heuristic.Vars {
	case solver.FirstFail:
		sort.SliceStable(ranked, func(i, j int) bool {
			return len(e.domains[ranked[i]]) < len(e.domains[ranked[j]])
		})
	case solver.MostConstrained:
		sort.SliceStable(ranked, func(i, j int) bool {
			return len(e.watches[ranked[i]]) > len(e.watches[ranked[j]])
		})
	}
	return order
}

var _ solver.Engine = (*Engine)(nil)
