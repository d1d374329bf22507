// Package verify checks a plan against the calendar it was built for and
// against a set of rules, without any solver.
package verify

import (
	"fmt"
	"time"

	"github.com/papapumpkin/agroplan/internal/plan"
	"github.com/papapumpkin/agroplan/internal/planerr"
	"github.com/papapumpkin/agroplan/internal/rules"
)

// Names of the checks run before the rules.
const (
	CheckBeds       = "beds"
	CheckPastPlan   = "past_plan"
	CheckNonOverlap = "non_overlap"
)

// Result contains the outcome of a verification.
type Result struct {
	Passed bool          // true if all checks passed
	Checks []CheckResult // one per built-in check, then one per rule
}

// CheckResult is the outcome of a single check.
type CheckResult struct {
	Name       string
	Passed     bool
	Violations []rules.Violation
	Elapsed    time.Duration
}

// FirstFailure returns the first failing check, or nil if all passed.
func (r *Result) FirstFailure() *CheckResult {
	for i := range r.Checks {
		if !r.Checks[i].Passed {
			return &r.Checks[i]
		}
	}
	return nil
}

// Violations returns every violation in check order.
func (r *Result) Violations() []rules.Violation {
	var out []rules.Violation
	for _, c := range r.Checks {
		out = append(out, c.Violations...)
	}
	return out
}

type check struct {
	name string
	fn   func(rules.Assignment) (bool, []rules.Violation)
}

// Plan runs every check, failing or not. It returns an error only when the
// plan does not describe the calendar's slots.
func Plan(p *plan.Plan, prob rules.Problem, rs ...rules.Rule) (*Result, error) {
	cal := prob.Calendar
	if len(p.Rows) != cal.Len() {
		return nil, fmt.Errorf("%w: plan has %d rows, calendar has %d slots", planerr.ErrConfiguration, len(p.Rows), cal.Len())
	}
	for i, row := range p.Rows {
		if s := cal.Slot(i); row.Slot != s.ID || row.Crop != s.Crop {
			return nil, fmt.Errorf("%w: plan row %d is %s slot %d, calendar has %s", planerr.ErrConfiguration, i, row.Crop, row.Slot, s.Crop)
		}
	}
	a := rules.Assignment(p.Beds())

	checks := []check{
		{CheckBeds, func(a rules.Assignment) (bool, []rules.Violation) { return knownBeds(prob, a) }},
		{CheckPastPlan, func(a rules.Assignment) (bool, []rules.Violation) { return pastBeds(prob, a) }},
		{CheckNonOverlap, func(a rules.Assignment) (bool, []rules.Violation) { return nonOverlap(prob, a) }},
	}
	for _, r := range rs {
		checks = append(checks, check{r.Name(), r.Check})
	}

	result := &Result{Passed: true}
	for _, c := range checks {
		start := time.Now()
		ok, violations := c.fn(a)
		result.Checks = append(result.Checks, CheckResult{
			Name:       c.name,
			Passed:     ok,
			Violations: violations,
			Elapsed:    time.Since(start),
		})
		if !ok {
			result.Passed = false
		}
	}
	return result, nil
}

func knownBeds(prob rules.Problem, a rules.Assignment) (bool, []rules.Violation) {
	var out []rules.Violation
	for slot, bed := range a {
		if !prob.Garden.Has(bed) {
			out = append(out, rules.Violation{Rule: CheckBeds, Slots: []int{slot}, Beds: []int{bed}, Message: "unknown bed"})
		}
	}
	return len(out) == 0, out
}

func pastBeds(prob rules.Problem, a rules.Assignment) (bool, []rules.Violation) {
	var out []rules.Violation
	for _, s := range prob.Calendar.Past() {
		if a.Bed(s.ID) != s.FixedBed {
			out = append(out, rules.Violation{Rule: CheckPastPlan, Slots: []int{s.ID}, Beds: []int{a.Bed(s.ID)},
				Message: fmt.Sprintf("past crop moved from bed %d", s.FixedBed)})
		}
	}
	return len(out) == 0, out
}

func nonOverlap(prob rules.Problem, a rules.Assignment) (bool, []rules.Violation) {
	var out []rules.Violation
	for _, e := range prob.Calendar.OverlappingPairs() {
		if a.Bed(e.A) == a.Bed(e.B) {
			out = append(out, rules.Violation{Rule: CheckNonOverlap, Slots: []int{e.A, e.B}, Beds: []int{a.Bed(e.A)},
				Message: "simultaneous crops on the same bed"})
		}
	}
	return len(out) == 0, out
}
