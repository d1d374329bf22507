package graph

// SimplePaths returns every simple path made of exactly n nodes that starts
// at start, in depth-first order with neighbours visited ascending. A path of
// one node is the start itself. Returns nil if start is unknown or n < 1.
func (g *Graph) SimplePaths(start, n int) [][]int {
	if n < 1 || !g.HasNode(start) {
		return nil
	}
	var paths [][]int
	path := []int{start}
	onPath := map[int]bool{start: true}

	var walk func()
	walk = func() {
		if len(path) == n {
			paths = append(paths, append([]int(nil), path...))
			return
		}
		for _, next := range g.Neighbors(path[len(path)-1]) {
			if onPath[next] {
				continue
			}
			onPath[next] = true
			path = append(path, next)
			walk()
			path = path[:len(path)-1]
			onPath[next] = false
		}
	}
	walk()
	return paths
}

// IsPath reports whether the node sequence is a simple path: no repeated
// node and every consecutive pair adjacent.
func (g *Graph) IsPath(nodes []int) bool {
	seen := make(map[int]bool, len(nodes))
	for i, v := range nodes {
		if seen[v] || !g.HasNode(v) {
			return false
		}
		seen[v] = true
		if i > 0 && !g.HasEdge(nodes[i-1], v) {
			return false
		}
	}
	return true
}
