package graph

import (
	"fmt"
	"sort"

	"github.com/papapumpkin/agroplan/internal/planerr"
)

// IntervalNode is a node carrying a closed interval [Start, End].
type IntervalNode struct {
	ID    int
	Start int
	End   int
}

// PairFilter decides whether a pair of nodes may be linked. It is always
// called with i preceding j in ascending start order.
type PairFilter func(i, j int) bool

// IntervalGraph builds the intersection graph of closed intervals. Nodes are
// visited in ascending start order (stable for equal starts) and an edge
// links i and j, i before j, iff filter accepts the pair (or filter is nil)
// and end_i >= start_j.
//
// The result is chordal when filter is nil. With a filter, edges are removed
// and chordality is no longer guaranteed.
func IntervalGraph(items []IntervalNode, filter PairFilter) (*Graph, error) {
	sorted, err := sortIntervals(items)
	if err != nil {
		return nil, err
	}
	g := New()
	for _, it := range sorted {
		g.AddNode(it.ID)
	}
	for x := 0; x < len(sorted); x++ {
		a := sorted[x]
		for y := x + 1; y < len(sorted); y++ {
			b := sorted[y]
			// Every later node starts at or after b, so once b starts after
			// a ends no further overlap is possible.
			if a.End < b.Start {
				break
			}
			if filter != nil && !filter(a.ID, b.ID) {
				continue
			}
			if err := g.AddEdge(a.ID, b.ID); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// FilteredGraph links every pair accepted by filter, visiting nodes in
// ascending start order, without requiring the intervals to intersect. It is
// used for relations spanning a gap in time such as return delays.
func FilteredGraph(items []IntervalNode, filter PairFilter) (*Graph, error) {
	sorted, err := sortIntervals(items)
	if err != nil {
		return nil, err
	}
	g := New()
	for _, it := range sorted {
		g.AddNode(it.ID)
	}
	for x := 0; x < len(sorted); x++ {
		for y := x + 1; y < len(sorted); y++ {
			if !filter(sorted[x].ID, sorted[y].ID) {
				continue
			}
			if err := g.AddEdge(sorted[x].ID, sorted[y].ID); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

func sortIntervals(items []IntervalNode) ([]IntervalNode, error) {
	seen := make(map[int]bool, len(items))
	for _, it := range items {
		if it.Start > it.End {
			return nil, fmt.Errorf("%w: node %d has start %d after end %d",
				planerr.ErrInterval, it.ID, it.Start, it.End)
		}
		if seen[it.ID] {
			return nil, fmt.Errorf("duplicate interval node %d", it.ID)
		}
		seen[it.ID] = true
	}
	sorted := make([]IntervalNode, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	return sorted, nil
}
