package model

import (
	"context"
	"errors"
	"sort"

	"github.com/papapumpkin/agroplan/internal/calendar"
	"github.com/papapumpkin/agroplan/internal/garden"
	"github.com/papapumpkin/agroplan/internal/rules"
	"github.com/papapumpkin/agroplan/internal/solver"
)

// EngineFactory returns a fresh engine.
type EngineFactory func() solver.Engine

// UnsatisfiableSubsets looks for the smallest sets of rules, up to maxSize
// rules, that make the calendar infeasible on their own. Supersets of a
// reported set are skipped. A single empty set is returned when the
// calendar is infeasible without any rule. Searches that hit a limit are
// ignored.
func UnsatisfiableSubsets(ctx context.Context, cal *calendar.Calendar, reg *garden.Registry, rs []rules.Rule,
	maxSize int, newEngine EngineFactory, opts ...Option) ([][]string, error) {
	infeasible := func(subset []rules.Rule) (bool, error) {
		m, err := New(cal, reg, newEngine(), opts...)
		if err != nil {
			return false, err
		}
		if err := m.Init(subset...); err != nil {
			if errors.Is(err, ErrInfeasible) {
				return true, nil
			}
			return false, err
		}
		_, err = m.Solve(ctx)
		switch {
		case errors.Is(err, ErrInfeasible):
			return true, nil
		case err == nil, errors.Is(err, ErrLimitReached):
			return false, nil
		default:
			return false, err
		}
	}

	if bad, err := infeasible(nil); err != nil || bad {
		if bad {
			return [][]string{{}}, nil
		}
		return nil, err
	}

	var found [][]int
	var out [][]string
	for size := 1; size <= maxSize && size <= len(rs); size++ {
		for _, combo := range combinations(len(rs), size) {
			if containsAny(combo, found) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return out, err
			}
			subset := make([]rules.Rule, len(combo))
			names := make([]string, len(combo))
			for i, idx := range combo {
				subset[i] = rs[idx]
				names[i] = rs[idx].Name()
			}
			bad, err := infeasible(subset)
			if err != nil {
				return out, err
			}
			if bad {
				found = append(found, combo)
				sort.Strings(names)
				out = append(out, names)
			}
		}
	}
	return out, nil
}

// combinations returns the k-subsets of 0..n-1 in lexicographic order.
func combinations(n, k int) [][]int {
	var out [][]int
	combo := make([]int, 0, k)
	var rec func(start int)
	rec = func(start int) {
		if len(combo) == k {
			out = append(out, append([]int(nil), combo...))
			return
		}
		for i := start; i < n; i++ {
			combo = append(combo, i)
			rec(i + 1)
			combo = combo[:len(combo)-1]
		}
	}
	rec(0)
	return out
}

// containsAny reports whether combo includes every member of one of sets.
func containsAny(combo []int, sets [][]int) bool {
	in := make(map[int]bool, len(combo))
	for _, i := range combo {
		in[i] = true
	}
	for _, s := range sets {
		all := true
		for _, i := range s {
			if !in[i] {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}
