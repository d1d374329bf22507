package model

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/papapumpkin/agroplan/internal/calendar"
	"github.com/papapumpkin/agroplan/internal/garden"
	"github.com/papapumpkin/agroplan/internal/planerr"
	"github.com/papapumpkin/agroplan/internal/rules"
	"github.com/papapumpkin/agroplan/internal/solver"
	"github.com/papapumpkin/agroplan/internal/solver/backtrack"
)

func pathGarden(t *testing.T, n int) *garden.Registry {
	t.Helper()
	beds := make([]garden.Bed, n)
	for i := range beds {
		beds[i] = garden.Bed{ID: i + 1, Adjacency: map[string][]int{"nearby": nil}}
		if i+1 < n {
			beds[i].Adjacency["nearby"] = []int{i + 2}
		}
	}
	reg, err := garden.NewRegistry(beds)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func completeGarden(t *testing.T, n int) *garden.Registry {
	t.Helper()
	beds := make([]garden.Bed, n)
	for i := range beds {
		var others []int
		for j := 1; j <= n; j++ {
			if j != i+1 {
				others = append(others, j)
			}
		}
		beds[i] = garden.Bed{ID: i + 1, Adjacency: map[string][]int{"nearby": others}}
	}
	reg, err := garden.NewRegistry(beds)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func threeA(t *testing.T) *calendar.Calendar {
	t.Helper()
	cal, err := calendar.Build([]calendar.CropDefinition{
		{Name: "A", Type: "F", Interval: calendar.Interval{Start: 1, End: 5}, Quantity: 3},
	}, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return cal
}

func newModel(t *testing.T, cal *calendar.Calendar, reg *garden.Registry, opts ...Option) *Model {
	t.Helper()
	m, err := New(cal, reg, backtrack.New(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func diluteSpecies(t *testing.T, m *Model) rules.Rule {
	t.Helper()
	r, err := rules.NewDiluteSpecies("dilute species", m.Problem(), "nearby")
	if err != nil {
		t.Fatalf("NewDiluteSpecies: %v", err)
	}
	return r
}

func TestSolve_DiluteSpeciesOnPath(t *testing.T) {
	t.Parallel()
	m := newModel(t, threeA(t), pathGarden(t, 6))
	r := diluteSpecies(t, m)
	if err := m.Init(r); err != nil {
		t.Fatalf("Init: %v", err)
	}
	p, err := m.Solve(context.Background())
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if diff := cmp.Diff([]int{1, 3, 5}, p.Beds()); diff != "" {
		t.Errorf("first solution mismatch (-want +got):\n%s", diff)
	}
	if ok, v := r.Check(p.Beds()); !ok {
		t.Errorf("solution violates the rule: %v", v)
	}
	vals, err := m.Values()
	if err != nil || !cmp.Equal(vals, p.Beds()) {
		t.Errorf("Values() = %v, %v", vals, err)
	}
}

func TestSolve_DiluteSpeciesOnTriangle(t *testing.T) {
	t.Parallel()
	m := newModel(t, threeA(t), completeGarden(t, 3))
	if err := m.Init(diluteSpecies(t, m)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := m.Solve(context.Background()); !errors.Is(err, ErrInfeasible) {
		t.Errorf("Solve() = %v, want ErrInfeasible", err)
	}
	if _, err := m.Values(); !errors.Is(err, solver.ErrNoSolution) {
		t.Errorf("Values() = %v, want ErrNoSolution", err)
	}
}

func TestSolutions_Enumerates(t *testing.T) {
	t.Parallel()
	m := newModel(t, threeA(t), pathGarden(t, 6))
	r := diluteSpecies(t, m)
	if err := m.Init(r); err != nil {
		t.Fatalf("Init: %v", err)
	}
	var got [][]int
	for p, err := range m.Solutions(context.Background()) {
		if err != nil {
			t.Fatalf("Solutions: %v", err)
		}
		got = append(got, p.Beds())
	}
	// Symmetry breaking leaves one ordering per set of beds.
	want := [][]int{{1, 3, 5}, {1, 3, 6}, {1, 4, 6}, {2, 4, 6}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("solutions mismatch (-want +got):\n%s", diff)
	}
	if _, err := m.Solve(context.Background()); !errors.Is(err, ErrExhausted) {
		t.Errorf("Solve() after enumeration = %v, want ErrExhausted", err)
	}
	if m.Found() != 4 {
		t.Errorf("Found() = %d, want 4", m.Found())
	}
}

func TestSolutions_Infeasible(t *testing.T) {
	t.Parallel()
	m := newModel(t, threeA(t), completeGarden(t, 3))
	if err := m.Init(diluteSpecies(t, m)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	n := 0
	for _, err := range m.Solutions(context.Background()) {
		n++
		if !errors.Is(err, ErrInfeasible) {
			t.Errorf("yielded %v, want ErrInfeasible", err)
		}
	}
	if n != 1 {
		t.Errorf("yielded %d times, want 1", n)
	}
}

func TestSolve_LimitReached(t *testing.T) {
	t.Parallel()
	m := newModel(t, threeA(t), pathGarden(t, 6), WithLimits(solver.Options{NodeLimit: 1}))
	if err := m.Init(diluteSpecies(t, m)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := m.Solve(context.Background()); !errors.Is(err, ErrLimitReached) {
		t.Errorf("Solve() = %v, want ErrLimitReached", err)
	}
}

func TestLifecycle(t *testing.T) {
	t.Parallel()
	m := newModel(t, threeA(t), pathGarden(t, 6))
	if _, err := m.Solve(context.Background()); !errors.Is(err, ErrNotInitialised) {
		t.Errorf("Solve() before Init = %v, want ErrNotInitialised", err)
	}
	if err := m.AddRule(diluteSpecies(t, m)); !errors.Is(err, ErrNotInitialised) {
		t.Errorf("AddRule() before Init = %v, want ErrNotInitialised", err)
	}
	if err := m.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := m.Init(); !errors.Is(err, ErrAlreadyInitialised) {
		t.Errorf("second Init() = %v, want ErrAlreadyInitialised", err)
	}
	if err := m.AddRule(diluteSpecies(t, m)); err != nil {
		t.Errorf("AddRule() after Init: %v", err)
	}
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()
	if _, err := New(threeA(t), pathGarden(t, 2), backtrack.New()); !errors.Is(err, planerr.ErrConfiguration) {
		t.Errorf("too few beds = %v, want ErrConfiguration", err)
	}
	if _, err := New(threeA(t), pathGarden(t, 3), backtrack.New(), WithStrategy("chaos")); !errors.Is(err, planerr.ErrConfiguration) {
		t.Errorf("unknown strategy = %v, want ErrConfiguration", err)
	}
}

func TestStats(t *testing.T) {
	t.Parallel()
	m := newModel(t, threeA(t), pathGarden(t, 6))
	if err := m.Init(diluteSpecies(t, m)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	stats := m.Stats()
	if len(stats) != 3 {
		t.Fatalf("got %d stat groups, want 3", len(stats))
	}
	want := []struct {
		name string
		n    int
		kind string
	}{
		{NonOverlap, 1, solver.KindAllDifferent},
		{SymmetryBreaking, 1, solver.KindIncreasing},
		{"dilute species", 3, solver.KindTable},
	}
	for i, w := range want {
		if stats[i].Rule != w.name || stats[i].Constraints != w.n || stats[i].Kinds[w.kind] != w.n {
			t.Errorf("stats[%d] = %+v, want %s with %d %s", i, stats[i], w.name, w.n, w.kind)
		}
	}
}

func TestShadeRestriction(t *testing.T) {
	t.Parallel()
	beds := []garden.Bed{
		{ID: 1, Metadata: map[string]string{"shade": "both"}},
		{ID: 2, Metadata: map[string]string{"shade": "none"}},
		{ID: 3, Metadata: map[string]string{"shade": "both"}},
		{ID: 4, Metadata: map[string]string{"shade": "summer"}},
	}
	reg, err := garden.NewRegistry(beds)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	cal, err := calendar.Build([]calendar.CropDefinition{
		{Name: "sorrel", Interval: calendar.Interval{Start: 1, End: 9}, Quantity: 1},
		{Name: "tomato", Interval: calendar.Interval{Start: 1, End: 9}, Quantity: 2},
	}, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, narrow := range []bool{false, true} {
		m := newModel(t, cal, reg, WithNarrowing(narrow))
		r, err := rules.NewCompatibleBeds("shade", m.Problem(),
			func(s calendar.Slot) bool { return s.Crop == "sorrel" },
			func(b garden.Bed) bool { return b.Metadata["shade"] == "both" },
			rules.Enforced)
		if err != nil {
			t.Fatalf("NewCompatibleBeds: %v", err)
		}
		if err := m.Init(r); err != nil {
			t.Fatalf("Init: %v", err)
		}
		n := 0
		for p, err := range m.Solutions(context.Background()) {
			if err != nil {
				t.Fatalf("narrow=%v: %v", narrow, err)
			}
			n++
			if bed := p.Beds()[0]; bed != 1 && bed != 3 {
				t.Errorf("narrow=%v: sorrel on bed %d", narrow, bed)
			}
		}
		// sorrel on 1 or 3, then an ordered pair of tomatoes among the 3 other beds.
		if n != 6 {
			t.Errorf("narrow=%v: %d solutions, want 6", narrow, n)
		}
		if narrow && len(m.Domains()[0]) != 2 {
			t.Errorf("narrowed domain = %v", m.Domains()[0])
		}
	}
}

func TestPastPlanFixed(t *testing.T) {
	t.Parallel()
	cal, err := calendar.Build(
		[]calendar.CropDefinition{{Name: "A", Type: "F", Interval: calendar.Interval{Start: 1, End: 5}, Quantity: 2}},
		nil,
		[]calendar.PastOccurrence{{Name: "leek", Type: "G", Interval: calendar.Interval{Start: -4, End: 2}, Beds: []int{1, 2}}},
	)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	m := newModel(t, cal, pathGarden(t, 4))
	if err := m.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	p, err := m.Solve(context.Background())
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if diff := cmp.Diff([]int{1, 2, 3, 4}, p.Beds()); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
	if !p.Rows[0].Past || p.Rows[2].Past {
		t.Error("past flags not carried to the plan")
	}
}

func TestBreakSymmetries(t *testing.T) {
	t.Parallel()
	cal, err := calendar.Build([]calendar.CropDefinition{
		{Name: "A", Interval: calendar.Interval{Start: 1, End: 5}, Quantity: 2},
		{Name: "B", Interval: calendar.Interval{Start: 1, End: 5}, Quantity: 2},
		{Name: "C", Interval: calendar.Interval{Start: 1, End: 5}, Quantity: 1},
	}, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	reg := pathGarden(t, 5)
	vars := []solver.Var{0, 1, 2, 3, 4}
	group := rules.NewGroupNeighbourhood("group B", [][]int{{2, 3}}, nil, rules.Enforced)

	got := BreakSymmetries(cal, vars, []rules.Rule{group})
	want := []solver.Spec{solver.Increasing{Of: []solver.Var{0, 1}, Strict: true}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BreakSymmetries() mismatch (-want +got):\n%s", diff)
	}

	m := newModel(t, cal, reg)
	if err := m.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := m.AddRule(group); !errors.Is(err, planerr.ErrConfiguration) {
		t.Errorf("AddRule(ordered group) after symmetry breaking = %v, want ErrConfiguration", err)
	}
}

func TestUnsatisfiableSubsets(t *testing.T) {
	t.Parallel()
	cal := threeA(t)
	reg := completeGarden(t, 3)
	p := rules.Problem{Calendar: cal, Garden: reg}
	dilute, err := rules.NewDiluteSpecies("dilute species", p, "nearby")
	if err != nil {
		t.Fatalf("NewDiluteSpecies: %v", err)
	}
	anywhere, err := rules.NewCompatibleBeds("anywhere", p,
		func(calendar.Slot) bool { return true },
		func(garden.Bed) bool { return true },
		rules.Enforced)
	if err != nil {
		t.Fatalf("NewCompatibleBeds: %v", err)
	}

	got, err := UnsatisfiableSubsets(context.Background(), cal, reg, []rules.Rule{anywhere, dilute}, 2,
		func() solver.Engine { return backtrack.New() })
	if err != nil {
		t.Fatalf("UnsatisfiableSubsets: %v", err)
	}
	if diff := cmp.Diff([][]string{{"dilute species"}}, got); diff != "" {
		t.Errorf("subsets mismatch (-want +got):\n%s", diff)
	}
}

func TestCombinations(t *testing.T) {
	t.Parallel()
	got := combinations(4, 2)
	want := [][]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("combinations mismatch (-want +got):\n%s", diff)
	}
	if !containsAny([]int{0, 2, 3}, [][]int{{2, 3}}) || containsAny([]int{0, 1}, [][]int{{1, 2}}) {
		t.Error("containsAny mismatch")
	}
}
