package backtrack

import (
	"context"
	"errors"
	"testing"

	"github.com/papapumpkin/agroplan/internal/solver"
)

func newVars(t *testing.T, e *Engine, n int, d solver.Domain) []solver.Var {
	t.Helper()
	vars := make([]solver.Var, n)
	for i := range vars {
		v, err := e.NewVar(d)
		if err != nil {
			t.Fatalf("NewVar: %v", err)
		}
		vars[i] = v
	}
	return vars
}

func post(t *testing.T, e *Engine, specs ...solver.Spec) {
	t.Helper()
	for _, s := range specs {
		if err := e.Post(s); err != nil {
			t.Fatalf("Post(%s): %v", s.Kind(), err)
		}
	}
}

func countSolutions(t *testing.T, e *Engine) int {
	t.Helper()
	n := 0
	for {
		st, err := e.Solve(context.Background(), solver.Options{})
		if err != nil {
			t.Fatalf("Solve: %v", err)
		}
		if st == solver.Unsatisfiable {
			return n
		}
		if st != solver.Satisfied {
			t.Fatalf("Solve() = %v without limits", st)
		}
		n++
	}
}

func TestEnumeration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		build func(vars []solver.Var) []solver.Spec
		want  int
	}{
		{"unconstrained", func([]solver.Var) []solver.Spec { return nil }, 27},
		{"all different", func(v []solver.Var) []solver.Spec { return []solver.Spec{solver.AllDifferent{Of: v}} }, 6},
		{"all equal", func(v []solver.Var) []solver.Spec { return []solver.Spec{solver.AllEqual{Of: v}} }, 3},
		{"strictly increasing", func(v []solver.Var) []solver.Spec {
			return []solver.Spec{solver.Increasing{Of: v, Strict: true}}
		}, 1},
		{"member", func(v []solver.Var) []solver.Spec {
			return []solver.Spec{solver.Member{Var: v[0], Set: []int{2}}, solver.Member{Var: v[1], Set: []int{1}, Negated: true}}
		}, 6},
		{"contradiction", func(v []solver.Var) []solver.Spec {
			return []solver.Spec{solver.Equal{A: v[0], B: v[1]}, solver.NotEqual{A: v[0], B: v[1]}}
		}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := New()
			vars := newVars(t, e, 3, solver.Range(1, 3))
			post(t, e, tt.build(vars)...)
			if got := countSolutions(t, e); got != tt.want {
				t.Errorf("found %d solutions, want %d", got, tt.want)
			}
		})
	}
}

func TestSolutionsSatisfySpecs(t *testing.T) {
	t.Parallel()
	e := New()
	vars := newVars(t, e, 3, solver.Range(1, 4))
	specs := []solver.Spec{
		solver.AllDifferent{Of: vars},
		solver.Table{Of: vars[:2], Tuples: [][]int{{1, 2}, {2, 1}, {3, 4}}, Feasible: true},
		solver.Disjunction{Literals: []solver.Literal{{A: vars[2], B: vars[0], Equal: false}}},
	}
	post(t, e, specs...)
	for {
		st, err := e.Solve(context.Background(), solver.Options{})
		if err != nil {
			t.Fatalf("Solve: %v", err)
		}
		if st != solver.Satisfied {
			break
		}
		value := func(v solver.Var) int {
			val, err := e.Value(v)
			if err != nil {
				t.Fatalf("Value: %v", err)
			}
			return val
		}
		for _, s := range specs {
			if !solver.Holds(s, value) {
				t.Errorf("solution violates %s", s.Kind())
			}
		}
	}
}

func TestValueBeforeSolve(t *testing.T) {
	t.Parallel()
	e := New()
	v := newVars(t, e, 1, solver.Values(5))[0]
	if _, err := e.Value(v); !errors.Is(err, solver.ErrNoSolution) {
		t.Errorf("Value() = %v, want ErrNoSolution", err)
	}
	if _, err := e.Value(9); !errors.Is(err, solver.ErrUnknownVar) {
		t.Errorf("Value(9) = %v, want ErrUnknownVar", err)
	}
}

func TestNodeLimitResumes(t *testing.T) {
	t.Parallel()
	e := New()
	vars := newVars(t, e, 4, solver.Range(1, 4))
	post(t, e, solver.AllDifferent{Of: vars}, solver.Member{Var: vars[3], Set: []int{1}})

	st, err := e.Solve(context.Background(), solver.Options{NodeLimit: 2})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if st != solver.Unknown {
		t.Fatalf("Solve() with tiny node limit = %v, want unknown", st)
	}
	st, err = e.Solve(context.Background(), solver.Options{})
	if err != nil || st != solver.Satisfied {
		t.Fatalf("resumed Solve() = %v, %v", st, err)
	}
	if v, _ := e.Value(vars[3]); v != 1 {
		t.Errorf("last var = %d, want 1", v)
	}
}

func TestCancelledContext(t *testing.T) {
	t.Parallel()
	e := New()
	newVars(t, e, 2, solver.Range(1, 2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st, err := e.Solve(ctx, solver.Options{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if st != solver.Unknown {
		t.Errorf("Solve(cancelled) = %v, want unknown", st)
	}
}

func TestHeuristics(t *testing.T) {
	t.Parallel()
	e := New()
	a, _ := e.NewVar(solver.Range(1, 5))
	b, _ := e.NewVar(solver.Values(3, 4))
	if err := e.SetSearch(solver.Heuristic{Vars: solver.FirstFail, Values: solver.MaxValue}, []solver.Var{a, b}); err != nil {
		t.Fatalf("SetSearch: %v", err)
	}
	st, err := e.Solve(context.Background(), solver.Options{})
	if err != nil || st != solver.Satisfied {
		t.Fatalf("Solve() = %v, %v", st, err)
	}
	va, _ := e.Value(a)
	vb, _ := e.Value(b)
	if va != 5 || vb != 4 {
		t.Errorf("first solution = (%d, %d), want (5, 4)", va, vb)
	}
	if err := e.Post(solver.NotEqual{A: a, B: b}); !errors.Is(err, ErrSearchStarted) {
		t.Errorf("Post after Solve = %v, want ErrSearchStarted", err)
	}
}

func TestEmptyDomain(t *testing.T) {
	t.Parallel()
	if _, err := New().NewVar(solver.Values()); !errors.Is(err, solver.ErrEmptyDomain) {
		t.Errorf("NewVar(empty) = %v, want ErrEmptyDomain", err)
	}
}

func TestStrategiesApply(t *testing.T) {
	t.Parallel()
	for _, info := range solver.Strategies() {
		e := New()
		vars := newVars(t, e, 3, solver.Range(1, 3))
		post(t, e, solver.AllDifferent{Of: vars})
		if err := info.Apply(e, vars); err != nil {
			t.Fatalf("%s: %v", info.Name, err)
		}
		if got := countSolutions(t, e); got != 6 {
			t.Errorf("%s: found %d solutions, want 6", info.Name, got)
		}
	}
}
