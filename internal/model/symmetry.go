package model

import (
	"github.com/papapumpkin/agroplan/internal/calendar"
	"github.com/papapumpkin/agroplan/internal/rules"
	"github.com/papapumpkin/agroplan/internal/solver"
)

// SymmetricGroups returns the groups of interchangeable slots: more than one
// slot, none fixed by the past plan, and not ordered by a rule implementing
// rules.OrderedGrouper.
func SymmetricGroups(cal *calendar.Calendar, rs []rules.Rule) [][]int {
	ordered := make(map[int]bool)
	for _, r := range rs {
		if g, ok := r.(rules.OrderedGrouper); ok {
			for _, group := range g.OrderedGroups() {
				for _, id := range group {
					ordered[id] = true
				}
			}
		}
	}

	var out [][]int
	for _, group := range cal.Groups() {
		if len(group) < 2 {
			continue
		}
		skip := false
		for _, id := range group {
			if !cal.Slot(id).Future || ordered[id] {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, group)
		}
	}
	return out
}

// BreakSymmetries posts a strictly increasing order over the variables of
// each group returned by SymmetricGroups.
func BreakSymmetries(cal *calendar.Calendar, vars []solver.Var, rs []rules.Rule) []solver.Spec {
	var specs []solver.Spec
	for _, group := range SymmetricGroups(cal, rs) {
		of := make([]solver.Var, len(group))
		for i, id := range group {
			of[i] = vars[id]
		}
		specs = append(specs, solver.Increasing{Of: of, Strict: true})
	}
	return specs
}
