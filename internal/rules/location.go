package rules

import (
	"slices"

	"github.com/papapumpkin/agroplan/internal/solver"
)

// Location restricts slots to (or keeps them out of) a set of beds.
type Location struct {
	name  string
	slots []int
	sets  map[int][]int
	mode  Mode
}

// NewLocation returns a location rule from per-slot bed sets. Slots mapped
// to an empty set are dropped.
func NewLocation(name string, sets map[int][]int, mode Mode) *Location {
	r := &Location{name: name, sets: make(map[int][]int, len(sets)), mode: mode}
	for slot, beds := range sets {
		if len(beds) == 0 {
			continue
		}
		b := slices.Clone(beds)
		slices.Sort(b)
		r.sets[slot] = slices.Compact(b)
		r.slots = append(r.slots, slot)
	}
	slices.Sort(r.slots)
	return r
}

func (r *Location) Name() string { return r.name }

// Beds returns the bed set of slot and whether the rule applies to it.
func (r *Location) Beds(slot int) ([]int, bool) {
	b, ok := r.sets[slot]
	return b, ok
}

// Narrow restricts beds to what the rule allows for slot.
func (r *Location) Narrow(slot int, beds []int) []int {
	set, ok := r.sets[slot]
	if !ok {
		return beds
	}
	out := make([]int, 0, len(beds))
	for _, b := range beds {
		if slices.Contains(set, b) == (r.mode == Enforced) {
			out = append(out, b)
		}
	}
	return out
}

func (r *Location) Compile(vars []solver.Var, _ Domains) ([]solver.Spec, error) {
	specs := make([]solver.Spec, 0, len(r.slots))
	for _, slot := range r.slots {
		specs = append(specs, solver.Member{
			Var:     vars[slot],
			Set:     slices.Clone(r.sets[slot]),
			Negated: r.mode == Forbidden,
		})
	}
	return specs, nil
}

func (r *Location) Check(a Assignment) (bool, []Violation) {
	var out []Violation
	for _, slot := range r.slots {
		in := slices.Contains(r.sets[slot], a.Bed(slot))
		switch {
		case r.mode == Enforced && !in:
			out = append(out, Violation{Rule: r.name, Slots: []int{slot}, Beds: []int{a.Bed(slot)},
				Message: "slot outside its allowed beds"})
		case r.mode == Forbidden && in:
			out = append(out, Violation{Rule: r.name, Slots: []int{slot}, Beds: []int{a.Bed(slot)},
				Message: "slot on a forbidden bed"})
		}
	}
	return len(out) == 0, out
}
