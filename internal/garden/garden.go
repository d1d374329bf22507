// Package garden models the physical planting locations of a plan: beds,
// their metadata and the named proximity relations between them.
package garden

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/papapumpkin/agroplan/internal/planerr"
)

// Bed is an atomic plantable location.
type Bed struct {
	ID int
	// Adjacency maps an adjacency kind (e.g. "nearby", "facing") to the IDs
	// of neighbouring beds for that kind.
	Adjacency map[string][]int
	Metadata  map[string]string
}

// Attr returns a metadata value. "bed_id" resolves to the bed ID.
func (b Bed) Attr(key string) string {
	if key == "bed_id" {
		return strconv.Itoa(b.ID)
	}
	return b.Metadata[key]
}

// Registry is the immutable set of beds available to a plan, kept in
// ascending ID order.
type Registry struct {
	beds  []Bed
	index map[int]int
	kinds []string
}

// NewRegistry validates beds and returns a registry. Duplicate IDs,
// non-positive IDs and neighbours that are not registered beds are
// configuration errors.
func NewRegistry(beds []Bed) (*Registry, error) {
	sorted := make([]Bed, len(beds))
	copy(sorted, beds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	r := &Registry{beds: sorted, index: make(map[int]int, len(sorted))}
	kinds := make(map[string]bool)
	for i, b := range sorted {
		if b.ID <= 0 {
			return nil, fmt.Errorf("%w: bed id %d must be positive", planerr.ErrConfiguration, b.ID)
		}
		if _, dup := r.index[b.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate bed id %d", planerr.ErrConfiguration, b.ID)
		}
		r.index[b.ID] = i
		for kind := range b.Adjacency {
			kinds[kind] = true
		}
	}
	for _, b := range sorted {
		for kind, neighbours := range b.Adjacency {
			for _, n := range neighbours {
				if _, ok := r.index[n]; !ok {
					return nil, fmt.Errorf("%w: bed %d lists unknown %s neighbour %d",
						planerr.ErrConfiguration, b.ID, kind, n)
				}
			}
		}
	}
	for kind := range kinds {
		r.kinds = append(r.kinds, kind)
	}
	sort.Strings(r.kinds)
	return r, nil
}

// Len returns the number of beds.
func (r *Registry) Len() int {
	return len(r.beds)
}

// IDs returns every bed ID in ascending order.
func (r *Registry) IDs() []int {
	ids := make([]int, len(r.beds))
	for i, b := range r.beds {
		ids[i] = b.ID
	}
	return ids
}

// Beds returns the beds in ascending ID order. The slice must not be modified.
func (r *Registry) Beds() []Bed {
	return r.beds
}

// Bed returns the bed with the given ID.
func (r *Registry) Bed(id int) (Bed, bool) {
	i, ok := r.index[id]
	if !ok {
		return Bed{}, false
	}
	return r.beds[i], true
}

// Has reports whether id is a registered bed.
func (r *Registry) Has(id int) bool {
	_, ok := r.index[id]
	return ok
}

// AdjacencyKinds returns the adjacency kinds declared by at least one bed.
func (r *Registry) AdjacencyKinds() []string {
	return r.kinds
}

// Select returns the IDs of the beds accepted by keep, ascending.
func (r *Registry) Select(keep func(Bed) bool) []int {
	var ids []int
	for _, b := range r.beds {
		if keep(b) {
			ids = append(ids, b.ID)
		}
	}
	return ids
}
