package solver

import (
	"errors"
	"testing"

	"github.com/papapumpkin/agroplan/internal/planerr"
)

func values(m map[Var]int) Lookup {
	return func(v Var) (int, bool) {
		val, ok := m[v]
		return val, ok
	}
}

func TestDomain(t *testing.T) {
	t.Parallel()
	d := Values(3, 1, 3, 2)
	if d.Len() != 3 || !d.Contains(2) || d.Contains(4) {
		t.Errorf("Values(3, 1, 3, 2) = %v", d.Slice())
	}
	if r := Range(2, 4).Slice(); len(r) != 3 || r[0] != 2 || r[2] != 4 {
		t.Errorf("Range(2, 4) = %v", r)
	}
	if Range(4, 2).Len() != 0 {
		t.Error("reversed range should be empty")
	}
}

func TestSpecViolated(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		spec Spec
		vals map[Var]int
		want bool
	}{
		{"not equal unbound", NotEqual{0, 1}, map[Var]int{0: 1}, false},
		{"not equal clash", NotEqual{0, 1}, map[Var]int{0: 1, 1: 1}, true},
		{"equal", Equal{0, 1}, map[Var]int{0: 1, 1: 2}, true},
		{"all different partial clash", AllDifferent{[]Var{0, 1, 2}}, map[Var]int{0: 4, 2: 4}, true},
		{"all different ok", AllDifferent{[]Var{0, 1, 2}}, map[Var]int{0: 4, 1: 5, 2: 6}, false},
		{"all equal", AllEqual{[]Var{0, 1, 2}}, map[Var]int{0: 4, 2: 5}, true},
		{"increasing strict tie", Increasing{[]Var{0, 1}, true}, map[Var]int{0: 2, 1: 2}, true},
		{"increasing loose tie", Increasing{[]Var{0, 1}, false}, map[Var]int{0: 2, 1: 2}, false},
		{"member", Member{Var: 0, Set: []int{1, 2}}, map[Var]int{0: 3}, true},
		{"not member", Member{Var: 0, Set: []int{1, 2}, Negated: true}, map[Var]int{0: 2}, true},
		{"feasible table", Table{[]Var{0, 1}, [][]int{{1, 2}}, true}, map[Var]int{0: 1, 1: 2}, false},
		{"infeasible table", Table{[]Var{0, 1}, [][]int{{1, 2}}, false}, map[Var]int{0: 1, 1: 2}, true},
		{"table partial", Table{[]Var{0, 1}, [][]int{{1, 2}}, true}, map[Var]int{0: 9}, false},
		{"disjunction all false", Disjunction{[]Literal{{0, 1, false}, {2, 0, true}}}, map[Var]int{0: 1, 1: 1, 2: 3}, true},
		{"disjunction one true", Disjunction{[]Literal{{0, 1, false}, {2, 0, true}}}, map[Var]int{0: 1, 1: 1, 2: 1}, false},
		{"disjunction pending", Disjunction{[]Literal{{0, 1, false}, {2, 0, true}}}, map[Var]int{0: 1, 1: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.spec.Violated(values(tt.vals)); got != tt.want {
				t.Errorf("Violated() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHybridRow(t *testing.T) {
	t.Parallel()
	// Either the last column differs from the first, or the middle one
	// equals the first and the last equals the first.
	spec := HybridRow{
		Of: []Var{0, 1, 2},
		Rows: [][]Cell{
			{{Op: Any}, {Op: Any}, {Op: NeCol, Col: 0}},
			{{Op: Any}, {Op: EqCol, Col: 0}, {Op: EqCol, Col: 0}},
		},
	}
	tests := []struct {
		vals []int
		want bool
	}{
		{[]int{1, 2, 3}, true},
		{[]int{1, 2, 1}, false},
		{[]int{1, 1, 1}, true},
	}
	for _, tt := range tests {
		got := Holds(spec, func(v Var) int { return tt.vals[v] })
		if got != tt.want {
			t.Errorf("Holds(%v) = %v, want %v", tt.vals, got, tt.want)
		}
	}
}

func TestStrategies(t *testing.T) {
	t.Parallel()
	want := []string{"default", "first_fail", "input_order", "input_order_max", "most_constrained"}
	got := Strategies()
	if len(got) != len(want) {
		t.Fatalf("got %d strategies, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("Strategies()[%d] = %q, want %q", i, got[i].Name, name)
		}
	}
	if _, err := LookupStrategy("random_restart"); !errors.Is(err, planerr.ErrConfiguration) {
		t.Errorf("LookupStrategy(unknown) = %v, want ErrConfiguration", err)
	}
}
