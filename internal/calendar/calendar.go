// Package calendar expands crop definitions into assignment slots, one per
// bed request, and derives the temporal overlap structure between them.
//
// Slots are sorted by (start, end, crop name) before group IDs are assigned;
// every later stage relies on slot IDs following ascending start order.
package calendar

import (
	"fmt"
	"maps"
	"sort"
	"strconv"

	"github.com/papapumpkin/agroplan/internal/graph"
	"github.com/papapumpkin/agroplan/internal/planerr"
)

// CropDefinition is one line of the crop calendar: a crop to grow Quantity
// times over the same window.
type CropDefinition struct {
	Name       string
	Type       string
	Interval   Interval
	Quantity   int
	Attributes map[string]string
}

// PastOccurrence is an already realised cultivation, fixed on Beds.
type PastOccurrence struct {
	Name       string
	Type       string
	Interval   Interval
	Beds       []int
	Attributes map[string]string
}

// CropTypeAttributes maps a crop type to attributes shared by every crop of
// that type, such as its botanical family.
type CropTypeAttributes map[string]map[string]string

// Slot is one request to place one cultivation occurrence on one bed.
type Slot struct {
	ID       int
	Crop     string
	Type     string
	Interval Interval
	// Group is shared by every slot expanded from the same definition or
	// past record.
	Group  int
	Future bool
	// FixedBed is the realised bed of a past slot, 0 for future slots.
	FixedBed   int
	Attributes map[string]string
}

// Attr resolves a slot attribute. "crop_name", "crop_type" and "group" are
// built in; other keys come from the merged attributes. Slots of one group
// resolve every key alike, so the slot ID is not an attribute.
func (s Slot) Attr(key string) string {
	switch key {
	case "crop_name":
		return s.Crop
	case "crop_type":
		return s.Type
	case "group", "crop_group_id":
		return strconv.Itoa(s.Group)
	}
	return s.Attributes[key]
}

// Calendar is the read-only result of Build.
type Calendar struct {
	slots       []Slot
	groups      [][]int
	globalStart Week
	overlap     *graph.Graph
	cliques     [][]int
	futureCount int
}

// entry is a definition or past record before expansion.
type entry struct {
	name     string
	typ      string
	interval Interval
	attrs    map[string]string
	beds     []int // past records only
	quantity int
	order    int
}

func (e entry) past() bool { return e.beds != nil }

// Build expands definitions and past occurrences into slots and computes
// the overlap cliques of every slot still cultivated at or after the first
// future start.
func Build(defs []CropDefinition, types CropTypeAttributes, past []PastOccurrence) (*Calendar, error) {
	entries := make([]entry, 0, len(defs)+len(past))
	for i, d := range defs {
		if err := d.Interval.Validate(); err != nil {
			return nil, fmt.Errorf("crop %q: %w", d.Name, err)
		}
		if d.Quantity < 1 {
			return nil, fmt.Errorf("%w: crop %q has quantity %d", planerr.ErrConfiguration, d.Name, d.Quantity)
		}
		entries = append(entries, entry{
			name: d.Name, typ: d.Type, interval: d.Interval,
			attrs: d.Attributes, quantity: d.Quantity, order: len(past) + i,
		})
	}
	for i, p := range past {
		if err := p.Interval.Validate(); err != nil {
			return nil, fmt.Errorf("past crop %q: %w", p.Name, err)
		}
		if len(p.Beds) == 0 {
			return nil, fmt.Errorf("%w: past crop %q has no allocated bed", planerr.ErrConfiguration, p.Name)
		}
		entries = append(entries, entry{
			name: p.Name, typ: p.Type, interval: p.Interval,
			attrs: p.Attributes, beds: p.Beds, quantity: len(p.Beds), order: i,
		})
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: crop calendar is empty", planerr.ErrConfiguration)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.interval.Start != b.interval.Start {
			return a.interval.Start < b.interval.Start
		}
		if a.interval.End != b.interval.End {
			return a.interval.End < b.interval.End
		}
		if a.name != b.name {
			return a.name < b.name
		}
		if a.past() != b.past() {
			return a.past()
		}
		return a.order < b.order
	})

	c := &Calendar{}
	first := true
	for group, e := range entries {
		attrs := mergeAttributes(types[e.typ], e.attrs)
		members := make([]int, 0, e.quantity)
		for k := 0; k < e.quantity; k++ {
			s := Slot{
				ID:         len(c.slots),
				Crop:       e.name,
				Type:       e.typ,
				Interval:   e.interval,
				Group:      group,
				Future:     !e.past(),
				Attributes: attrs,
			}
			if e.past() {
				s.FixedBed = e.beds[k]
			} else {
				c.futureCount++
				if first || e.interval.Start < c.globalStart {
					c.globalStart = e.interval.Start
					first = false
				}
			}
			members = append(members, s.ID)
			c.slots = append(c.slots, s)
		}
		c.groups = append(c.groups, members)
	}

	if err := c.checkPastPlan(); err != nil {
		return nil, err
	}
	if err := c.buildOverlap(); err != nil {
		return nil, err
	}
	return c, nil
}

func mergeAttributes(base, own map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(own))
	maps.Copy(out, base)
	maps.Copy(out, own)
	return out
}

// checkPastPlan rejects past plans placing two overlapping occurrences on
// the same bed.
func (c *Calendar) checkPastPlan() error {
	byBed := make(map[int][]Slot)
	for _, s := range c.slots {
		if !s.Future {
			byBed[s.FixedBed] = append(byBed[s.FixedBed], s)
		}
	}
	beds := make([]int, 0, len(byBed))
	for b := range byBed {
		beds = append(beds, b)
	}
	sort.Ints(beds)
	for _, bed := range beds {
		slots := byBed[bed]
		// Slots are already in start order.
		for i := 0; i+1 < len(slots); i++ {
			if slots[i].Interval.End >= slots[i+1].Interval.Start {
				return fmt.Errorf("%w: past crops %q %s and %q %s overlap on bed %d",
					planerr.ErrConfiguration,
					slots[i].Crop, slots[i].Interval, slots[i+1].Crop, slots[i+1].Interval, bed)
			}
		}
	}
	return nil
}

func (c *Calendar) buildOverlap() error {
	var items []graph.IntervalNode
	for _, s := range c.slots {
		if s.Interval.End >= c.globalStart {
			items = append(items, graph.IntervalNode{ID: s.ID, Start: int(s.Interval.Start), End: int(s.Interval.End)})
		}
	}
	g, err := graph.IntervalGraph(items, nil)
	if err != nil {
		return err
	}
	cliques, err := g.ChordalCliques()
	if err != nil {
		// An unfiltered interval graph is always chordal.
		return fmt.Errorf("overlap cliques: %w", err)
	}
	c.overlap = g
	c.cliques = cliques
	return nil
}

// Len returns the number of slots, past and future.
func (c *Calendar) Len() int {
	return len(c.slots)
}

// Slots returns every slot in ID order. The slice must not be modified.
func (c *Calendar) Slots() []Slot {
	return c.slots
}

// Slot returns the slot with the given ID.
func (c *Calendar) Slot(id int) Slot {
	return c.slots[id]
}

// Future returns the slots still to be placed.
func (c *Calendar) Future() []Slot {
	out := make([]Slot, 0, c.futureCount)
	for _, s := range c.slots {
		if s.Future {
			out = append(out, s)
		}
	}
	return out
}

// Past returns the slots fixed by the past plan.
func (c *Calendar) Past() []Slot {
	out := make([]Slot, 0, len(c.slots)-c.futureCount)
	for _, s := range c.slots {
		if !s.Future {
			out = append(out, s)
		}
	}
	return out
}

// FutureCount returns the number of slots to place.
func (c *Calendar) FutureCount() int {
	return c.futureCount
}

// Groups returns the slot IDs of each group, indexed by group ID.
func (c *Calendar) Groups() [][]int {
	return c.groups
}

// GlobalStart returns the earliest start of a future slot.
func (c *Calendar) GlobalStart() Week {
	return c.globalStart
}

// Intervals returns every slot as an interval graph node.
func (c *Calendar) Intervals() []graph.IntervalNode {
	items := make([]graph.IntervalNode, len(c.slots))
	for i, s := range c.slots {
		items[i] = graph.IntervalNode{ID: s.ID, Start: int(s.Interval.Start), End: int(s.Interval.End)}
	}
	return items
}

// OverlapGraph returns the interval graph of slots cultivated at or after
// GlobalStart.
func (c *Calendar) OverlapGraph() *graph.Graph {
	return c.overlap
}

// OverlapCliques returns the maximal groups of slots cultivated at the same
// time, singletons included.
func (c *Calendar) OverlapCliques() [][]int {
	return c.cliques
}

// OverlappingPairs returns every pair of slots cultivated at the same time,
// sorted.
func (c *Calendar) OverlappingPairs() []graph.Edge {
	return c.overlap.Edges()
}

// IsOverlapping reports whether all the given slots are cultivated at the
// same time, i.e. belong to a common overlap clique.
func (c *Calendar) IsOverlapping(ids ...int) bool {
	for _, clique := range c.cliques {
		in := make(map[int]bool, len(clique))
		for _, id := range clique {
			in[id] = true
		}
		all := true
		for _, id := range ids {
			if !in[id] {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// MaxOverlap returns the size of the largest overlap clique, which is the
// minimum number of beds any plan needs.
func (c *Calendar) MaxOverlap() int {
	best := 0
	for _, clique := range c.cliques {
		if len(clique) > best {
			best = len(clique)
		}
	}
	return best
}
