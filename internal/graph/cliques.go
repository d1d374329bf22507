package graph

import (
	"errors"
	"sort"
)

// ErrNotChordal is returned by ChordalCliques when the graph has no perfect
// elimination ordering.
var ErrNotChordal = errors.New("graph is not chordal")

// PerfectEliminationOrder computes a vertex ordering with maximum
// cardinality search and reports whether it is a perfect elimination
// ordering, which holds iff the graph is chordal. Ties are broken by the
// smallest node ID so the result is deterministic.
func (g *Graph) PerfectEliminationOrder() ([]int, bool) {
	nodes := g.Nodes()
	weight := make(map[int]int, len(nodes))
	numbered := make(map[int]bool, len(nodes))
	visit := make([]int, 0, len(nodes))

	for len(visit) < len(nodes) {
		best, bestWeight := 0, -1
		for _, v := range nodes {
			if numbered[v] {
				continue
			}
			if weight[v] > bestWeight {
				best, bestWeight = v, weight[v]
			}
		}
		numbered[best] = true
		visit = append(visit, best)
		for n := range g.adjacency[best] {
			if !numbered[n] {
				weight[n]++
			}
		}
	}

	// The reverse of the visit order is the elimination order.
	order := make([]int, len(visit))
	for i, v := range visit {
		order[len(visit)-1-i] = v
	}
	return order, g.isPerfectElimination(order)
}

// isPerfectElimination checks that, for every vertex, its later neighbours
// minus the earliest of them are all adjacent to that earliest one.
func (g *Graph) isPerfectElimination(order []int) bool {
	pos := make(map[int]int, len(order))
	for i, v := range order {
		pos[v] = i
	}
	for _, v := range order {
		later := g.laterNeighbours(v, pos)
		if len(later) < 2 {
			continue
		}
		first := later[0]
		for _, u := range later[1:] {
			if !g.HasEdge(first, u) {
				return false
			}
		}
	}
	return true
}

// laterNeighbours returns the neighbours of v that come after it in the
// ordering described by pos, sorted by position.
func (g *Graph) laterNeighbours(v int, pos map[int]int) []int {
	var later []int
	for n := range g.adjacency[v] {
		if pos[n] > pos[v] {
			later = append(later, n)
		}
	}
	sort.Slice(later, func(i, j int) bool { return pos[later[i]] < pos[later[j]] })
	return later
}

// IsChordal reports whether every cycle of length four or more has a chord.
func (g *Graph) IsChordal() bool {
	_, ok := g.PerfectEliminationOrder()
	return ok
}

// ChordalCliques returns the maximal cliques of a chordal graph, isolated
// nodes included as singleton cliques. Each clique is sorted ascending and
// cliques are sorted lexicographically. Returns ErrNotChordal when the graph
// is not chordal, since the decomposition would then miss cliques.
func (g *Graph) ChordalCliques() ([][]int, error) {
	order, ok := g.PerfectEliminationOrder()
	if !ok {
		return nil, ErrNotChordal
	}
	pos := make(map[int]int, len(order))
	for i, v := range order {
		pos[v] = i
	}

	// Every maximal clique of a chordal graph is {v} ∪ later(v) for some v.
	candidates := make([][]int, 0, len(order))
	for _, v := range order {
		c := append([]int{v}, g.laterNeighbours(v, pos)...)
		sort.Ints(c)
		candidates = append(candidates, c)
	}
	sort.SliceStable(candidates, func(i, j int) bool { return len(candidates[i]) > len(candidates[j]) })

	var cliques [][]int
	for _, c := range candidates {
		contained := false
		for _, k := range cliques {
			if isSubset(c, k) {
				contained = true
				break
			}
		}
		if !contained {
			cliques = append(cliques, c)
		}
	}
	sortCliques(cliques)
	return cliques, nil
}

// MaximalCliques enumerates the maximal cliques of any graph using
// Bron–Kerbosch with pivoting. Output ordering matches ChordalCliques.
func (g *Graph) MaximalCliques() [][]int {
	if g.Len() == 0 {
		return nil
	}
	var cliques [][]int
	var expand func(r, p, x []int)
	expand = func(r, p, x []int) {
		if len(p) == 0 && len(x) == 0 {
			c := append([]int(nil), r...)
			sort.Ints(c)
			cliques = append(cliques, c)
			return
		}
		pivot := g.choosePivot(p, x)
		for _, v := range append([]int(nil), p...) {
			if g.HasEdge(pivot, v) {
				continue
			}
			expand(append(r, v), g.keepNeighbours(p, v), g.keepNeighbours(x, v))
			p = remove(p, v)
			x = append(x, v)
		}
	}
	expand(nil, g.Nodes(), nil)
	sortCliques(cliques)
	return cliques
}

func (g *Graph) choosePivot(p, x []int) int {
	best, bestDeg := 0, -1
	for _, set := range [][]int{p, x} {
		for _, u := range set {
			deg := 0
			for _, v := range p {
				if g.HasEdge(u, v) {
					deg++
				}
			}
			if deg > bestDeg {
				best, bestDeg = u, deg
			}
		}
	}
	return best
}

func (g *Graph) keepNeighbours(set []int, v int) []int {
	var out []int
	for _, u := range set {
		if g.HasEdge(u, v) {
			out = append(out, u)
		}
	}
	return out
}

func remove(set []int, v int) []int {
	out := set[:0:0]
	for _, u := range set {
		if u != v {
			out = append(out, u)
		}
	}
	return out
}

// isSubset reports whether sorted a is contained in sorted b.
func isSubset(a, b []int) bool {
	if len(a) > len(b) {
		return false
	}
	j := 0
	for _, v := range a {
		for j < len(b) && b[j] < v {
			j++
		}
		if j == len(b) || b[j] != v {
			return false
		}
	}
	return true
}

func sortCliques(cliques [][]int) {
	sort.Slice(cliques, func(i, j int) bool {
		a, b := cliques[i], cliques[j]
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})
}
