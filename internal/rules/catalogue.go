package rules

import (
	"fmt"
	"sort"

	"github.com/papapumpkin/agroplan/internal/calendar"
	"github.com/papapumpkin/agroplan/internal/garden"
	"github.com/papapumpkin/agroplan/internal/graph"
	"github.com/papapumpkin/agroplan/internal/planerr"
)

// SlotPredicate selects slots.
type SlotPredicate func(calendar.Slot) bool

// BedPredicate selects beds.
type BedPredicate func(garden.Bed) bool

// PairPredicate selects a pair of slots, a starting no later than b.
type PairPredicate func(a, b calendar.Slot) bool

// overlappingPairs returns the pairs of slots cultivated at the same time,
// at least one of them still to place, accepted by keep.
func overlappingPairs(cal *calendar.Calendar, keep PairPredicate) []graph.Edge {
	var out []graph.Edge
	for _, e := range cal.OverlappingPairs() {
		a, b := cal.Slot(e.A), cal.Slot(e.B)
		if !a.Future && !b.Future {
			continue
		}
		if keep(a, b) {
			out = append(out, e)
		}
	}
	return out
}

func temporalGraph(cal *calendar.Calendar, keep PairPredicate) (*graph.Graph, error) {
	return graph.FilteredGraph(cal.Intervals(), func(i, j int) bool {
		return keep(cal.Slot(i), cal.Slot(j))
	})
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// NewReturnDelays keeps slots of the same category off a bed until the
// delay of the matrix has elapsed, start to start. Cell (row, col) is the
// delay after a crop of category col before one of category row may follow.
// With reset, an intervening occupation of the bed restarts the delay.
func NewReturnDelays(name string, p Problem, delays *Matrix[int], opts Options, reset bool) (Rule, error) {
	for _, pair := range delays.Pairs() {
		if d := delays.Cells[pair]; d < 0 {
			return nil, fmt.Errorf("%w: rule %q: negative return delay %d for (%s, %s)",
				planerr.ErrConfiguration, name, d, pair.Row, pair.Col)
		}
	}
	g, err := temporalGraph(p.Calendar, func(a, b calendar.Slot) bool {
		if !a.Future && !b.Future {
			return false
		}
		d, ok := delays.Lookup(b, a)
		return ok && d != 0 && a.Interval.Start+calendar.Week(d) >= b.Interval.Start
	})
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}
	if reset {
		r, err := NewSuccessionWithReset(name, g, Forbidden, opts.Reset)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return NewSuccession(name, g, Forbidden, opts.Succession), nil
}

// NewPrecedences keeps a crop off the bed of a preceding crop whose negative
// effect lasts |delay| weeks after it ends. Cell (row, col) is the effect of
// a crop of category row on a following crop of category col. Another crop
// occupying the bed in between lifts the effect. Only the forbidden mode is
// supported.
func NewPrecedences(name string, p Problem, effects *Matrix[int], mode Mode, opts Options) (Rule, error) {
	if mode == Enforced {
		return nil, fmt.Errorf("%w: rule %q: enforced precedences are not supported", planerr.ErrConfiguration, name)
	}
	if err := checkSign(name, effects, mode); err != nil {
		return nil, err
	}
	start := p.Calendar.GlobalStart()
	g, err := temporalGraph(p.Calendar, func(a, b calendar.Slot) bool {
		if max(a.Interval.Start, b.Interval.Start) < start {
			return false
		}
		d, ok := effects.Lookup(a, b)
		if !ok || d == 0 {
			return false
		}
		return a.Interval.End < b.Interval.Start && a.Interval.End+calendar.Week(abs(d)) >= b.Interval.Start
	})
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}
	r, err := NewSuccessionWithReset(name, g, mode, opts.Reset)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// NewSpatialInteractions keeps slots with a negative interaction off
// adjacent beds (forbidden), or puts slots with a positive interaction on
// adjacent beds (enforced).
func NewSpatialInteractions(name string, p Problem, interactions *Matrix[int], adjacency string, mode Mode) (Rule, error) {
	if err := checkSign(name, interactions, mode); err != nil {
		return nil, err
	}
	adj, err := p.Garden.AdjacencyGraph(adjacency)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}
	pairs := overlappingPairs(p.Calendar, func(a, b calendar.Slot) bool {
		ab, _ := interactions.Lookup(a, b)
		ba, _ := interactions.Lookup(b, a)
		return ab != 0 || ba != 0
	})
	return NewBinaryNeighbourhood(name, pairs, adj, mode), nil
}

// NewSpatialInteractionsSubintervals is NewSpatialInteractions restricted to
// the parts of the cultivation windows named by each cell.
func NewSpatialInteractionsSubintervals(name string, p Problem, cells *Matrix[Subinterval], adjacency string, mode Mode) (Rule, error) {
	for _, pair := range cells.Pairs() {
		if s := cells.Cells[pair]; s.Negative != (mode == Forbidden) {
			return nil, fmt.Errorf("%w: rule %q is %s but cell (%s, %s) is %s",
				planerr.ErrConfiguration, name, mode, pair.Row, pair.Col, s)
		}
	}
	adj, err := p.Garden.AdjacencyGraph(adjacency)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}
	pairs := overlappingPairs(p.Calendar, func(a, b calendar.Slot) bool {
		if s, ok := cells.Lookup(a, b); ok && s.Interacts(a.Interval, b.Interval) {
			return true
		}
		s, ok := cells.Lookup(b, a)
		return ok && s.Interacts(b.Interval, a.Interval)
	})
	return NewBinaryNeighbourhood(name, pairs, adj, mode), nil
}

// NewDiluteSpecies keeps simultaneous slots of the same crop off adjacent
// beds.
func NewDiluteSpecies(name string, p Problem, adjacency string) (Rule, error) {
	adj, err := p.Garden.AdjacencyGraph(adjacency)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}
	pairs := overlappingPairs(p.Calendar, func(a, b calendar.Slot) bool { return a.Crop == b.Crop })
	return NewBinaryNeighbourhood(name, pairs, adj, Forbidden), nil
}

// NewDiluteFamily keeps simultaneous slots sharing a category, usually
// "crop_family", off adjacent beds.
func NewDiluteFamily(name string, p Problem, adjacency, category string) (Rule, error) {
	if category == "" {
		category = "crop_family"
	}
	adj, err := p.Garden.AdjacencyGraph(adjacency)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}
	pairs := overlappingPairs(p.Calendar, func(a, b calendar.Slot) bool {
		v := a.Attr(category)
		return v != "" && v == b.Attr(category)
	})
	return NewBinaryNeighbourhood(name, pairs, adj, Forbidden), nil
}

// NewGroupCrops places the slots of a crop definition on a chain of adjacent
// beds. With groupBy, future slots sharing the attribute value and the same
// cultivation window form the groups instead.
func NewGroupCrops(name string, p Problem, adjacency, groupBy string, mode Mode) (Rule, error) {
	adj, err := p.Garden.AdjacencyGraph(adjacency)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}
	cal := p.Calendar
	var groups [][]int
	if groupBy == "" {
		for _, g := range cal.Groups() {
			if cal.Slot(g[0]).Future {
				groups = append(groups, g)
			}
		}
	} else {
		type key struct {
			value    string
			interval calendar.Interval
		}
		index := make(map[key]int)
		for _, s := range cal.Future() {
			k := key{s.Attr(groupBy), s.Interval}
			i, ok := index[k]
			if !ok {
				i = len(groups)
				index[k] = i
				groups = append(groups, nil)
			}
			groups[i] = append(groups[i], s.ID)
		}
		sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	}
	return NewGroupNeighbourhood(name, groups, adj, mode), nil
}

// NewCompatibleBeds restricts the future slots selected by crops to the beds
// selected by beds (enforced), or keeps them out of those beds (forbidden).
// An empty bed selection leaves the slot unconstrained.
func NewCompatibleBeds(name string, p Problem, crops SlotPredicate, beds BedPredicate, mode Mode) (Rule, error) {
	selected := p.Garden.Select(beds)
	sets := make(map[int][]int)
	if len(selected) > 0 {
		for _, s := range p.Calendar.Future() {
			if crops(s) {
				sets[s.ID] = selected
			}
		}
	}
	return NewLocation(name, sets, mode), nil
}
