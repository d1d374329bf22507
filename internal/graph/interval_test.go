package graph

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/papapumpkin/agroplan/internal/planerr"
)

func randomIntervals(r *rand.Rand, n, horizon, maxLen int) []IntervalNode {
	items := make([]IntervalNode, n)
	for i := range items {
		start := r.IntN(horizon)
		items[i] = IntervalNode{ID: i, Start: start, End: start + r.IntN(maxLen+1)}
	}
	return items
}

func TestIntervalGraph_Examples(t *testing.T) {
	t.Parallel()
	items := []IntervalNode{
		{ID: 0, Start: -2, End: 3},
		{ID: 1, Start: 1, End: 4},
		{ID: 2, Start: 2, End: 3},
		{ID: 3, Start: 4, End: 6},
	}
	g, err := IntervalGraph(items, nil)
	if err != nil {
		t.Fatalf("IntervalGraph: %v", err)
	}
	want := []Edge{{0, 1}, {0, 2}, {1, 2}, {1, 3}}
	got := g.Edges()
	if len(got) != len(want) {
		t.Fatalf("Edges() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Edges()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestIntervalGraph_ClosedBounds(t *testing.T) {
	t.Parallel()
	// Touching endpoints overlap under closed-interval semantics.
	g, err := IntervalGraph([]IntervalNode{{ID: 1, Start: 1, End: 5}, {ID: 2, Start: 5, End: 9}}, nil)
	if err != nil {
		t.Fatalf("IntervalGraph: %v", err)
	}
	if !g.HasEdge(1, 2) {
		t.Error("[1,5] and [5,9] should overlap")
	}
}

func TestIntervalGraph_InvalidInterval(t *testing.T) {
	t.Parallel()
	_, err := IntervalGraph([]IntervalNode{{ID: 1, Start: 6, End: 5}}, nil)
	if !errors.Is(err, planerr.ErrInterval) {
		t.Errorf("got %v, want ErrInterval", err)
	}
}

func TestIntervalGraph_FilterOrder(t *testing.T) {
	t.Parallel()
	items := []IntervalNode{
		{ID: 10, Start: 5, End: 8},
		{ID: 20, Start: 1, End: 6},
	}
	var calls [][2]int
	g, err := IntervalGraph(items, func(i, j int) bool {
		calls = append(calls, [2]int{i, j})
		return true
	})
	if err != nil {
		t.Fatalf("IntervalGraph: %v", err)
	}
	if len(calls) != 1 || calls[0] != [2]int{20, 10} {
		t.Errorf("filter calls = %v, want [[20 10]] (sorted by start)", calls)
	}
	if !g.HasEdge(10, 20) {
		t.Error("expected edge between overlapping nodes")
	}
}

func TestIntervalGraph_FilterRejects(t *testing.T) {
	t.Parallel()
	items := []IntervalNode{{ID: 1, Start: 1, End: 5}, {ID: 2, Start: 2, End: 6}, {ID: 3, Start: 3, End: 7}}
	g, err := IntervalGraph(items, func(i, j int) bool { return i != 1 })
	if err != nil {
		t.Fatalf("IntervalGraph: %v", err)
	}
	if g.HasEdge(1, 2) || g.HasEdge(1, 3) {
		t.Error("filter should remove edges from node 1")
	}
	if !g.HasEdge(2, 3) {
		t.Error("edge 2-3 should remain")
	}
}

// TestIntervalGraph_MatchesBruteForce checks the edge relation against the
// symmetric definition b >= c && d >= a on random inputs.
func TestIntervalGraph_MatchesBruteForce(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewPCG(7, 11))
	for round := 0; round < 200; round++ {
		items := randomIntervals(r, 1+r.IntN(25), 60, 12)
		g, err := IntervalGraph(items, nil)
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		for x := range items {
			for y := x + 1; y < len(items); y++ {
				a, b := items[x], items[y]
				want := a.End >= b.Start && b.End >= a.Start
				if got := g.HasEdge(a.ID, b.ID); got != want {
					t.Fatalf("round %d: edge %v-%v = %v, want %v", round, a, b, got, want)
				}
			}
		}
	}
}

func TestFilteredGraph(t *testing.T) {
	t.Parallel()
	items := []IntervalNode{{ID: 1, Start: 1, End: 5}, {ID: 2, Start: 20, End: 24}}
	g, err := FilteredGraph(items, func(i, j int) bool { return true })
	if err != nil {
		t.Fatalf("FilteredGraph: %v", err)
	}
	if !g.HasEdge(1, 2) {
		t.Error("FilteredGraph should link non-overlapping nodes accepted by the filter")
	}
}

func TestChordalCliques_IntervalGraph(t *testing.T) {
	t.Parallel()
	items := []IntervalNode{
		{ID: 0, Start: 1, End: 5},
		{ID: 1, Start: 1, End: 5},
		{ID: 2, Start: 4, End: 8},
		{ID: 3, Start: 10, End: 12},
	}
	g, err := IntervalGraph(items, nil)
	if err != nil {
		t.Fatalf("IntervalGraph: %v", err)
	}
	cliques, err := g.ChordalCliques()
	if err != nil {
		t.Fatalf("ChordalCliques: %v", err)
	}
	want := [][]int{{0, 1, 2}, {3}}
	if len(cliques) != len(want) {
		t.Fatalf("cliques = %v, want %v", cliques, want)
	}
	for i := range want {
		if len(cliques[i]) != len(want[i]) {
			t.Fatalf("cliques = %v, want %v", cliques, want)
		}
		for k := range want[i] {
			if cliques[i][k] != want[i][k] {
				t.Errorf("cliques = %v, want %v", cliques, want)
			}
		}
	}
}

func TestChordalCliques_NotChordal(t *testing.T) {
	t.Parallel()
	// A 4-cycle has no chord.
	g := buildGraph(t, []int{1, 2, 3, 4}, [][2]int{{1, 2}, {2, 3}, {3, 4}, {4, 1}})
	if g.IsChordal() {
		t.Error("C4 reported chordal")
	}
	if _, err := g.ChordalCliques(); !errors.Is(err, ErrNotChordal) {
		t.Errorf("got %v, want ErrNotChordal", err)
	}
	if n := len(g.MaximalCliques()); n != 4 {
		t.Errorf("MaximalCliques on C4 found %d cliques, want 4", n)
	}
}

// TestChordalCliques_Completeness checks that for unfiltered interval graphs
// the pairs covered by the cliques are exactly the edges, and that the
// chordal decomposition agrees with Bron–Kerbosch.
func TestChordalCliques_Completeness(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewPCG(3, 5))
	for round := 0; round < 150; round++ {
		items := randomIntervals(r, 1+r.IntN(20), 40, 10)
		g, err := IntervalGraph(items, nil)
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		cliques, err := g.ChordalCliques()
		if err != nil {
			t.Fatalf("round %d: interval graph not chordal: %v", round, err)
		}

		covered := make(map[Edge]bool)
		for _, c := range cliques {
			for x := range c {
				for y := x + 1; y < len(c); y++ {
					e := Edge{A: c[x], B: c[y]}
					if !g.HasEdge(e.A, e.B) {
						t.Fatalf("round %d: clique %v contains non-edge %v", round, c, e)
					}
					covered[e] = true
				}
			}
		}
		if len(covered) != g.EdgeCount() {
			t.Fatalf("round %d: cliques cover %d pairs, graph has %d edges", round, len(covered), g.EdgeCount())
		}

		bk := g.MaximalCliques()
		if len(bk) != len(cliques) {
			t.Fatalf("round %d: chordal found %d cliques, Bron–Kerbosch %d", round, len(cliques), len(bk))
		}
		for i := range bk {
			if len(bk[i]) != len(cliques[i]) {
				t.Fatalf("round %d: clique %d differs: %v vs %v", round, i, cliques[i], bk[i])
			}
			for k := range bk[i] {
				if bk[i][k] != cliques[i][k] {
					t.Fatalf("round %d: clique %d differs: %v vs %v", round, i, cliques[i], bk[i])
				}
			}
		}
	}
}

func TestIntervalGraph_Idempotent(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewPCG(1, 2))
	items := randomIntervals(r, 30, 50, 8)
	a, err := IntervalGraph(items, nil)
	if err != nil {
		t.Fatalf("IntervalGraph: %v", err)
	}
	b, err := IntervalGraph(items, nil)
	if err != nil {
		t.Fatalf("IntervalGraph: %v", err)
	}
	if !a.Equal(b) {
		t.Error("building the same intervals twice produced different graphs")
	}
}
