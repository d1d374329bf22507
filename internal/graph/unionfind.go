package graph

import "sort"

// UnionFind is a disjoint-set forest over node IDs, with path halving and
// union by size.
type UnionFind struct {
	parent map[int]int
	size   map[int]int
}

// NewUnionFind creates an empty UnionFind.
func NewUnionFind() *UnionFind {
	return &UnionFind{parent: make(map[int]int), size: make(map[int]int)}
}

// Add makes x a singleton set unless it is already known.
func (uf *UnionFind) Add(x int) {
	if _, ok := uf.parent[x]; !ok {
		uf.parent[x] = x
		uf.size[x] = 1
	}
}

// Find returns the representative of the set holding x, adding x first
// when unknown.
func (uf *UnionFind) Find(x int) int {
	uf.Add(x)
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets holding x and y.
func (uf *UnionFind) Union(x, y int) {
	rx, ry := uf.Find(x), uf.Find(y)
	if rx == ry {
		return
	}
	if uf.size[rx] < uf.size[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
}

// Connected reports whether x and y are in the same set.
func (uf *UnionFind) Connected(x, y int) bool {
	return uf.Find(x) == uf.Find(y)
}

// Components returns every set sorted ascending, the sets ordered by their
// smallest member.
func (uf *UnionFind) Components() [][]int {
	byRoot := make(map[int][]int)
	for x := range uf.parent {
		r := uf.Find(x)
		byRoot[r] = append(byRoot[r], x)
	}
	out := make([][]int, 0, len(byRoot))
	for _, members := range byRoot {
		sort.Ints(members)
		out = append(out, members)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}
