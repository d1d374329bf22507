package rules

import (
	"errors"
	"fmt"

	"github.com/papapumpkin/agroplan/internal/graph"
	"github.com/papapumpkin/agroplan/internal/planerr"
	"github.com/papapumpkin/agroplan/internal/solver"
)

// Succession links the beds of slots joined in a temporal graph: forbidden
// mode keeps them apart, enforced mode puts them on the same bed.
type Succession struct {
	name  string
	graph *graph.Graph
	mode  Mode
	impl  SuccessionImpl
}

// NewSuccession returns a succession rule over g, whose nodes are slot IDs.
func NewSuccession(name string, g *graph.Graph, mode Mode, impl SuccessionImpl) *Succession {
	return &Succession{name: name, graph: g, mode: mode, impl: impl}
}

func (s *Succession) Name() string { return s.name }

// Graph returns the temporal graph of the rule.
func (s *Succession) Graph() *graph.Graph { return s.graph }

// Pairwise reports whether Compile posts one constraint per edge, either by
// choice or because the graph is not chordal.
func (s *Succession) Pairwise() bool {
	return s.impl == Pairwise || !s.graph.IsChordal()
}

func (s *Succession) Compile(vars []solver.Var, _ Domains) ([]solver.Spec, error) {
	if s.impl == Cliques {
		cliques, err := s.graph.ChordalCliques()
		switch {
		case err == nil:
			return s.compileCliques(vars, cliques), nil
		case errors.Is(err, graph.ErrNotChordal):
			// Cliques would miss edges; fall through to pairwise.
		default:
			return nil, fmt.Errorf("rule %q: %w", s.name, err)
		}
	}
	return s.compilePairs(vars), nil
}

func (s *Succession) compileCliques(vars []solver.Var, cliques [][]int) []solver.Spec {
	var specs []solver.Spec
	for _, c := range cliques {
		if len(c) < 2 {
			continue
		}
		of := make([]solver.Var, len(c))
		for i, id := range c {
			of[i] = vars[id]
		}
		if s.mode == Forbidden {
			specs = append(specs, solver.AllDifferent{Of: of})
		} else {
			specs = append(specs, solver.AllEqual{Of: of})
		}
	}
	return specs
}

func (s *Succession) compilePairs(vars []solver.Var) []solver.Spec {
	var specs []solver.Spec
	for _, e := range s.graph.Edges() {
		if s.mode == Forbidden {
			specs = append(specs, solver.NotEqual{A: vars[e.A], B: vars[e.B]})
		} else {
			specs = append(specs, solver.Equal{A: vars[e.A], B: vars[e.B]})
		}
	}
	return specs
}

func (s *Succession) Check(a Assignment) (bool, []Violation) {
	var out []Violation
	for _, e := range s.graph.Edges() {
		same := a.Bed(e.A) == a.Bed(e.B)
		switch {
		case s.mode == Forbidden && same:
			out = append(out, Violation{Rule: s.name, Slots: []int{e.A, e.B}, Beds: []int{a.Bed(e.A)},
				Message: "linked slots share a bed"})
		case s.mode == Enforced && !same:
			out = append(out, Violation{Rule: s.name, Slots: []int{e.A, e.B}, Beds: []int{a.Bed(e.A), a.Bed(e.B)},
				Message: "linked slots are on different beds"})
		}
	}
	return len(out) == 0, out
}

// SuccessionWithReset forbids two linked slots i < j from sharing a bed
// unless a slot strictly between them, in slot order, occupied that bed too.
// Consecutive slots are simply kept apart.
type SuccessionWithReset struct {
	name  string
	graph *graph.Graph
	impl  ResetImpl
}

// NewSuccessionWithReset returns a reset-aware succession rule. Only the
// forbidden mode is defined.
func NewSuccessionWithReset(name string, g *graph.Graph, mode Mode, impl ResetImpl) (*SuccessionWithReset, error) {
	if mode != Forbidden {
		return nil, fmt.Errorf("%w: rule %q: succession with reinitialisation only supports the forbidden mode",
			planerr.ErrConfiguration, name)
	}
	return &SuccessionWithReset{name: name, graph: g, impl: impl}, nil
}

func (s *SuccessionWithReset) Name() string { return s.name }

func (s *SuccessionWithReset) Compile(vars []solver.Var, _ Domains) ([]solver.Spec, error) {
	var specs []solver.Spec
	for _, e := range s.graph.Edges() {
		i, j := e.A, e.B
		if j == i+1 {
			specs = append(specs, solver.NotEqual{A: vars[i], B: vars[j]})
			continue
		}
		if s.impl == LogicalOperations {
			lits := []solver.Literal{{A: vars[i], B: vars[j], Equal: false}}
			for k := i + 1; k < j; k++ {
				lits = append(lits, solver.Literal{A: vars[k], B: vars[i], Equal: true})
			}
			specs = append(specs, solver.Disjunction{Literals: lits})
			continue
		}
		specs = append(specs, resetRow(vars[i:j+1]))
	}
	return specs, nil
}

// resetRow builds the hybrid row over slots i..j: the last column differs
// from the first, or some middle column and the last both equal the first.
func resetRow(of []solver.Var) solver.HybridRow {
	n := len(of)
	anyRow := func() []solver.Cell {
		return make([]solver.Cell, n)
	}
	first := anyRow()
	first[n-1] = solver.Cell{Op: solver.NeCol, Col: 0}
	rows := [][]solver.Cell{first}
	for k := 1; k < n-1; k++ {
		row := anyRow()
		row[k] = solver.Cell{Op: solver.EqCol, Col: 0}
		row[n-1] = solver.Cell{Op: solver.EqCol, Col: 0}
		rows = append(rows, row)
	}
	return solver.HybridRow{Of: append([]solver.Var(nil), of...), Rows: rows}
}

func (s *SuccessionWithReset) Check(a Assignment) (bool, []Violation) {
	var out []Violation
	for _, e := range s.graph.Edges() {
		i, j := e.A, e.B
		if a.Bed(i) != a.Bed(j) {
			continue
		}
		reset := false
		for k := i + 1; k < j; k++ {
			if a.Bed(k) == a.Bed(i) {
				reset = true
				break
			}
		}
		if !reset {
			out = append(out, Violation{Rule: s.name, Slots: []int{i, j}, Beds: []int{a.Bed(i)},
				Message: "slots share a bed without reinitialisation"})
		}
	}
	return len(out) == 0, out
}
