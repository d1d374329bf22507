// Package graph provides the undirected graphs used while building a
// planting model: temporal overlap graphs over assignment slots and spatial
// proximity graphs over beds. It supports interval graph construction,
// maximal clique decomposition, connectivity queries and simple path
// enumeration.
package graph

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNodeNotFound is returned when an operation references a non-existent node.
var ErrNodeNotFound = errors.New("node not found")

// ErrSelfEdge is returned when an edge would create a self-loop.
var ErrSelfEdge = errors.New("self-referencing edge")

// Edge is an undirected edge stored with A < B.
type Edge struct {
	A, B int
}

// Graph is a simple undirected graph over integer node IDs.
type Graph struct {
	// adjacency maps nodeID → set of neighbour IDs. Every node has an entry,
	// possibly empty.
	adjacency map[int]map[int]bool
	edges     int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{adjacency: make(map[int]map[int]bool)}
}

// AddNode adds a node. Adding an existing node is a no-op.
func (g *Graph) AddNode(id int) {
	if _, ok := g.adjacency[id]; ok {
		return
	}
	g.adjacency[id] = make(map[int]bool)
}

// AddEdge adds an undirected edge between a and b. Both nodes must already
// exist. Adding an existing edge is a no-op.
func (g *Graph) AddEdge(a, b int) error {
	if a == b {
		return fmt.Errorf("%w: %d", ErrSelfEdge, a)
	}
	if _, ok := g.adjacency[a]; !ok {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, a)
	}
	if _, ok := g.adjacency[b]; !ok {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, b)
	}
	if g.adjacency[a][b] {
		return nil
	}
	g.adjacency[a][b] = true
	g.adjacency[b][a] = true
	g.edges++
	return nil
}

// HasNode reports whether id is a node of the graph.
func (g *Graph) HasNode(id int) bool {
	_, ok := g.adjacency[id]
	return ok
}

// HasEdge reports whether a and b are adjacent.
func (g *Graph) HasEdge(a, b int) bool {
	return g.adjacency[a][b]
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.adjacency)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return g.edges
}

// Degree returns the number of neighbours of id, or 0 if id is unknown.
func (g *Graph) Degree(id int) int {
	return len(g.adjacency[id])
}

// Nodes returns all node IDs in ascending order.
func (g *Graph) Nodes() []int {
	ids := make([]int, 0, len(g.adjacency))
	for id := range g.adjacency {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Neighbors returns the neighbours of id in ascending order. Returns nil if
// the node has no neighbours or does not exist.
func (g *Graph) Neighbors(id int) []int {
	adj := g.adjacency[id]
	if len(adj) == 0 {
		return nil
	}
	ids := make([]int, 0, len(adj))
	for n := range adj {
		ids = append(ids, n)
	}
	sort.Ints(ids)
	return ids
}

// Edges returns every edge once, sorted by (A, B).
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.edges)
	for a, adj := range g.adjacency {
		for b := range adj {
			if a < b {
				edges = append(edges, Edge{A: a, B: b})
			}
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].A != edges[j].A {
			return edges[i].A < edges[j].A
		}
		return edges[i].B < edges[j].B
	})
	return edges
}

// Subgraph returns the subgraph induced by ids. Unknown IDs are ignored.
func (g *Graph) Subgraph(ids []int) *Graph {
	sub := New()
	for _, id := range ids {
		if g.HasNode(id) {
			sub.AddNode(id)
		}
	}
	for a := range sub.adjacency {
		for b := range g.adjacency[a] {
			if sub.HasNode(b) && a < b {
				_ = sub.AddEdge(a, b)
			}
		}
	}
	return sub
}

// Components partitions the nodes into connected components. Each component
// is sorted ascending and components are ordered by their smallest node.
func (g *Graph) Components() [][]int {
	uf := NewUnionFind()
	for id := range g.adjacency {
		uf.Add(id)
	}
	for a, adj := range g.adjacency {
		for b := range adj {
			uf.Union(a, b)
		}
	}
	return uf.Components()
}

// Connected reports whether the graph has exactly one connected component.
// The empty graph is not connected.
func (g *Graph) Connected() bool {
	return len(g.Components()) == 1
}

// Equal reports whether g and o have the same nodes and edges.
func (g *Graph) Equal(o *Graph) bool {
	if g.Len() != o.Len() || g.edges != o.edges {
		return false
	}
	for a, adj := range g.adjacency {
		oadj, ok := o.adjacency[a]
		if !ok || len(oadj) != len(adj) {
			return false
		}
		for b := range adj {
			if !oadj[b] {
				return false
			}
		}
	}
	return true
}
