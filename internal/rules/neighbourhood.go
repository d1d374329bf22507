package rules

import (
	"github.com/papapumpkin/agroplan/internal/graph"
	"github.com/papapumpkin/agroplan/internal/solver"
)

// BinaryNeighbourhood forbids (or requires) adjacent beds for selected
// pairs of slots cultivated at the same time.
type BinaryNeighbourhood struct {
	name      string
	pairs     []graph.Edge
	adjacency *graph.Graph
	mode      Mode
}

// NewBinaryNeighbourhood returns a neighbourhood rule over pairs, which must
// be sorted slot ID pairs.
func NewBinaryNeighbourhood(name string, pairs []graph.Edge, adjacency *graph.Graph, mode Mode) *BinaryNeighbourhood {
	return &BinaryNeighbourhood{name: name, pairs: pairs, adjacency: adjacency, mode: mode}
}

func (r *BinaryNeighbourhood) Name() string { return r.name }

// Pairs returns the selected slot pairs.
func (r *BinaryNeighbourhood) Pairs() []graph.Edge { return r.pairs }

func (r *BinaryNeighbourhood) Compile(vars []solver.Var, dom Domains) ([]solver.Spec, error) {
	var specs []solver.Spec
	for _, p := range r.pairs {
		var tuples [][]int
		for _, b := range dom[p.A] {
			for _, n := range r.adjacency.Neighbors(b) {
				tuples = append(tuples, []int{b, n})
			}
		}
		if len(tuples) == 0 && r.mode == Forbidden {
			continue
		}
		specs = append(specs, solver.Table{
			Of:       []solver.Var{vars[p.A], vars[p.B]},
			Tuples:   tuples,
			Feasible: r.mode == Enforced,
		})
	}
	return specs, nil
}

func (r *BinaryNeighbourhood) Check(a Assignment) (bool, []Violation) {
	var out []Violation
	for _, p := range r.pairs {
		adjacent := r.adjacency.HasEdge(a.Bed(p.A), a.Bed(p.B))
		switch {
		case r.mode == Forbidden && adjacent:
			out = append(out, Violation{Rule: r.name, Slots: []int{p.A, p.B}, Beds: []int{a.Bed(p.A), a.Bed(p.B)},
				Message: "slots on adjacent beds"})
		case r.mode == Enforced && !adjacent:
			out = append(out, Violation{Rule: r.name, Slots: []int{p.A, p.B}, Beds: []int{a.Bed(p.A), a.Bed(p.B)},
				Message: "slots not on adjacent beds"})
		}
	}
	return len(out) == 0, out
}

// GroupNeighbourhood requires (or forbids) the slots of each group to sit on
// a chain of adjacent beds, in group order.
type GroupNeighbourhood struct {
	name      string
	groups    [][]int
	adjacency *graph.Graph
	mode      Mode
}

// NewGroupNeighbourhood returns a grouping rule. Groups of fewer than two
// slots are ignored.
func NewGroupNeighbourhood(name string, groups [][]int, adjacency *graph.Graph, mode Mode) *GroupNeighbourhood {
	var kept [][]int
	for _, g := range groups {
		if len(g) >= 2 {
			kept = append(kept, append([]int(nil), g...))
		}
	}
	return &GroupNeighbourhood{name: name, groups: kept, adjacency: adjacency, mode: mode}
}

func (r *GroupNeighbourhood) Name() string { return r.name }

// OrderedGroups returns the groups whose slot order the rule relies on.
func (r *GroupNeighbourhood) OrderedGroups() [][]int { return r.groups }

func (r *GroupNeighbourhood) Compile(vars []solver.Var, dom Domains) ([]solver.Spec, error) {
	var specs []solver.Spec
	for _, g := range r.groups {
		var tuples [][]int
		for _, b := range dom[g[0]] {
			tuples = append(tuples, r.adjacency.SimplePaths(b, len(g))...)
		}
		if len(tuples) == 0 && r.mode == Forbidden {
			continue
		}
		of := make([]solver.Var, len(g))
		for i, id := range g {
			of[i] = vars[id]
		}
		specs = append(specs, solver.Table{Of: of, Tuples: tuples, Feasible: r.mode == Enforced})
	}
	return specs, nil
}

func (r *GroupNeighbourhood) Check(a Assignment) (bool, []Violation) {
	var out []Violation
	for _, g := range r.groups {
		beds := make([]int, len(g))
		for i, id := range g {
			beds[i] = a.Bed(id)
		}
		path := r.adjacency.IsPath(beds)
		switch {
		case r.mode == Enforced && !path:
			out = append(out, Violation{Rule: r.name, Slots: g, Beds: beds, Message: "group is not on a chain of adjacent beds"})
		case r.mode == Forbidden && path:
			out = append(out, Violation{Rule: r.name, Slots: g, Beds: beds, Message: "group is on a chain of adjacent beds"})
		}
	}
	return len(out) == 0, out
}
