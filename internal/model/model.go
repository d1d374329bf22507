// Package model assembles the constraint model of a planning run: one
// variable per slot, non-overlap constraints per temporal clique, symmetry
// breaking and the compiled rules, posted to a solver.Engine.
package model

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/rs/zerolog"

	"github.com/papapumpkin/agroplan/internal/calendar"
	"github.com/papapumpkin/agroplan/internal/garden"
	"github.com/papapumpkin/agroplan/internal/plan"
	"github.com/papapumpkin/agroplan/internal/planerr"
	"github.com/papapumpkin/agroplan/internal/rules"
	"github.com/papapumpkin/agroplan/internal/solver"
)

var (
	// ErrInfeasible is returned when the model is proven to have no
	// solution.
	ErrInfeasible = errors.New("no solution exists")
	// ErrExhausted is returned once every solution has been enumerated.
	ErrExhausted = errors.New("no further solution")
	// ErrLimitReached is returned when the search stopped on a limit before
	// finding a solution or a proof.
	ErrLimitReached = errors.New("search limit reached")
	// ErrNotInitialised is returned when using a model before Init.
	ErrNotInitialised = errors.New("model not initialised")
	// ErrAlreadyInitialised is returned by a second Init call.
	ErrAlreadyInitialised = errors.New("model already initialised")
)

// Names of the constraint groups posted by the model itself.
const (
	NonOverlap       = "non_overlap"
	SymmetryBreaking = "symmetry_breaking"
)

// RuleStats counts the constraints posted for one rule.
type RuleStats struct {
	Rule        string
	Constraints int
	Kinds       map[string]int
	Elapsed     time.Duration
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Model) { m.log = log }
}

// WithStrategy selects a search strategy from the solver strategy table.
func WithStrategy(name string) Option {
	return func(m *Model) { m.strategy = name }
}

// WithLimits bounds every Solve call.
func WithLimits(opts solver.Options) Option {
	return func(m *Model) { m.limits = opts }
}

// WithNarrowing restricts slot domains with the rules implementing
// rules.DomainNarrower before posting anything.
func WithNarrowing(on bool) Option {
	return func(m *Model) { m.narrow = on }
}

// Model is a planning model bound to one engine. It is not safe for
// concurrent use.
type Model struct {
	cal    *calendar.Calendar
	reg    *garden.Registry
	engine solver.Engine
	log    zerolog.Logger

	strategy string
	limits   solver.Options
	narrow   bool

	vars        []solver.Var
	domains     rules.Domains
	rules       []rules.Rule
	stats       []RuleStats
	initialised bool
	broken      map[int]bool
	found       int
	current     []int
}

// New checks that the garden can host the calendar and returns an
// uninitialised model.
func New(cal *calendar.Calendar, reg *garden.Registry, engine solver.Engine, opts ...Option) (*Model, error) {
	if err := calendar.CheckBeds(cal, reg); err != nil {
		return nil, err
	}
	m := &Model{
		cal:      cal,
		reg:      reg,
		engine:   engine,
		log:      zerolog.Nop(),
		strategy: "default",
	}
	for _, opt := range opts {
		opt(m)
	}
	if _, err := solver.LookupStrategy(m.strategy); err != nil {
		return nil, err
	}
	return m, nil
}

// Problem returns the data rules are built from.
func (m *Model) Problem() rules.Problem {
	return rules.Problem{Calendar: m.cal, Garden: m.reg}
}

// Init creates the variables, posts non-overlap and symmetry-breaking
// constraints, then every rule, and configures the search strategy.
func (m *Model) Init(rs ...rules.Rule) error {
	if m.initialised {
		return ErrAlreadyInitialised
	}
	if err := m.initVariables(rs); err != nil {
		return err
	}
	m.initialised = true

	if err := m.post(NonOverlap, 0, m.nonOverlap()); err != nil {
		return err
	}
	m.broken = make(map[int]bool)
	for _, g := range SymmetricGroups(m.cal, rs) {
		for _, id := range g {
			m.broken[id] = true
		}
	}
	if err := m.post(SymmetryBreaking, 0, BreakSymmetries(m.cal, m.vars, rs)); err != nil {
		return err
	}
	for _, r := range rs {
		if err := m.AddRule(r); err != nil {
			return err
		}
	}

	apply, err := solver.LookupStrategy(m.strategy)
	if err != nil {
		return err
	}
	if err := apply(m.engine, m.futureVars()); err != nil {
		return fmt.Errorf("apply strategy %q: %w", m.strategy, err)
	}
	m.log.Info().
		Int("slots", m.cal.Len()).
		Int("future", m.cal.FutureCount()).
		Int("beds", m.reg.Len()).
		Int("rules", len(rs)).
		Str("strategy", m.strategy).
		Msg("model initialised")
	return nil
}

func (m *Model) initVariables(rs []rules.Rule) error {
	ids := m.reg.IDs()
	m.vars = make([]solver.Var, m.cal.Len())
	m.domains = make(rules.Domains, m.cal.Len())
	for _, s := range m.cal.Slots() {
		dom := ids
		if !s.Future {
			dom = []int{s.FixedBed}
		} else if m.narrow {
			for _, r := range rs {
				if n, ok := r.(rules.DomainNarrower); ok {
					dom = n.Narrow(s.ID, dom)
				}
			}
		}
		if len(dom) == 0 {
			return fmt.Errorf("%w: slot %d (%s %s) has no candidate bed", ErrInfeasible, s.ID, s.Crop, s.Interval)
		}
		v, err := m.engine.NewVar(solver.Values(dom...))
		if err != nil {
			return fmt.Errorf("slot %d: %w", s.ID, err)
		}
		m.vars[s.ID] = v
		m.domains[s.ID] = dom
	}
	return nil
}

func (m *Model) nonOverlap() []solver.Spec {
	var specs []solver.Spec
	for _, c := range m.cal.OverlapCliques() {
		if len(c) < 2 {
			continue
		}
		of := make([]solver.Var, len(c))
		for i, id := range c {
			of[i] = m.vars[id]
		}
		specs = append(specs, solver.AllDifferent{Of: of})
	}
	return specs
}

func (m *Model) futureVars() []solver.Var {
	var out []solver.Var
	for _, s := range m.cal.Slots() {
		if s.Future {
			out = append(out, m.vars[s.ID])
		}
	}
	return out
}

// AddRule compiles r and posts its constraints. The model must be
// initialised.
func (m *Model) AddRule(r rules.Rule) error {
	if !m.initialised {
		return ErrNotInitialised
	}
	if g, ok := r.(rules.OrderedGrouper); ok {
		for _, group := range g.OrderedGroups() {
			for _, id := range group {
				if m.broken[id] {
					return fmt.Errorf("%w: rule %q orders slot %d, already ordered by symmetry breaking; pass it to Init",
						planerr.ErrConfiguration, r.Name(), id)
				}
			}
		}
	}
	start := time.Now()
	specs, err := r.Compile(m.vars, m.domains)
	if err != nil {
		return fmt.Errorf("compile rule %q: %w", r.Name(), err)
	}
	if err := m.post(r.Name(), time.Since(start), specs); err != nil {
		return err
	}
	m.rules = append(m.rules, r)
	return nil
}

func (m *Model) post(name string, elapsed time.Duration, specs []solver.Spec) error {
	st := RuleStats{Rule: name, Constraints: len(specs), Kinds: make(map[string]int), Elapsed: elapsed}
	for _, s := range specs {
		if err := m.engine.Post(s); err != nil {
			return fmt.Errorf("post %s constraint of %q: %w", s.Kind(), name, err)
		}
		st.Kinds[s.Kind()]++
	}
	m.stats = append(m.stats, st)
	m.log.Debug().Str("rule", name).Int("constraints", len(specs)).Dur("elapsed", elapsed).Msg("constraints posted")
	return nil
}

// Rules returns the rules posted so far.
func (m *Model) Rules() []rules.Rule {
	return m.rules
}

// Stats returns the constraint counts per rule, in posting order.
func (m *Model) Stats() []RuleStats {
	return m.stats
}

// Domains returns the initial candidate beds of each slot.
func (m *Model) Domains() rules.Domains {
	return m.domains
}

// Solve advances the search to the next solution.
func (m *Model) Solve(ctx context.Context) (*plan.Plan, error) {
	if !m.initialised {
		return nil, ErrNotInitialised
	}
	start := time.Now()
	status, err := m.engine.Solve(ctx, m.limits)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	m.log.Info().Stringer("status", status).Dur("elapsed", time.Since(start)).Int("found", m.found).Msg("search step")

	switch status {
	case solver.Satisfied:
		beds, err := m.readValues()
		if err != nil {
			return nil, err
		}
		m.found++
		m.current = beds
		return plan.New(m.cal, beds)
	case solver.Unsatisfiable:
		m.current = nil
		if m.found == 0 {
			return nil, ErrInfeasible
		}
		return nil, ErrExhausted
	default:
		m.current = nil
		return nil, ErrLimitReached
	}
}

// Solutions enumerates solutions lazily. Iteration ends after the last
// solution; any other outcome, including ErrInfeasible, is yielded as an
// error and ends iteration.
func (m *Model) Solutions(ctx context.Context) iter.Seq2[*plan.Plan, error] {
	return func(yield func(*plan.Plan, error) bool) {
		for {
			p, err := m.Solve(ctx)
			if errors.Is(err, ErrExhausted) {
				return
			}
			if !yield(p, err) || err != nil {
				return
			}
		}
	}
}

// Found returns the number of solutions found so far.
func (m *Model) Found() int {
	return m.found
}

// Values returns the bed of every slot in the current solution.
func (m *Model) Values() ([]int, error) {
	if m.current == nil {
		return nil, solver.ErrNoSolution
	}
	return append([]int(nil), m.current...), nil
}

func (m *Model) readValues() ([]int, error) {
	beds := make([]int, len(m.vars))
	for i, v := range m.vars {
		val, err := m.engine.Value(v)
		if err != nil {
			return nil, fmt.Errorf("value of slot %d: %w", i, err)
		}
		beds[i] = val
	}
	return beds, nil
}
