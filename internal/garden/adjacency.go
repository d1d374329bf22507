package garden

import (
	"fmt"

	"github.com/papapumpkin/agroplan/internal/graph"
	"github.com/papapumpkin/agroplan/internal/planerr"
)

// AdjacencyGraph builds the undirected proximity graph of one adjacency
// kind. Every bed is a node; each bed's neighbour list contributes edges, so
// a relation declared on either side is enough. Self references are ignored.
func (r *Registry) AdjacencyGraph(kind string) (*graph.Graph, error) {
	known := false
	for _, k := range r.kinds {
		if k == kind {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("%w: unknown adjacency kind %q", planerr.ErrConfiguration, kind)
	}

	g := graph.New()
	for _, b := range r.beds {
		g.AddNode(b.ID)
	}
	for _, b := range r.beds {
		for _, n := range b.Adjacency[kind] {
			if n == b.ID {
				continue
			}
			if err := g.AddEdge(b.ID, n); err != nil {
				return nil, fmt.Errorf("adjacency %s: %w", kind, err)
			}
		}
	}
	return g, nil
}
