package ruleset

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/papapumpkin/agroplan/internal/calendar"
	"github.com/papapumpkin/agroplan/internal/dataset"
	"github.com/papapumpkin/agroplan/internal/garden"
	"github.com/papapumpkin/agroplan/internal/planerr"
	"github.com/papapumpkin/agroplan/internal/rules"
)

// MatrixLoader reads a raw matrix from a resolved path.
type MatrixLoader func(path string) (*rules.Matrix[string], error)

// Build turns every definition into a rule, in name order.
func (d *Document) Build(p rules.Problem, opts rules.Options) ([]rules.Rule, error) {
	return d.BuildWith(p, opts, dataset.ReadMatrixFile)
}

// BuildWith is Build with a custom matrix loader.
func (d *Document) BuildWith(p rules.Problem, opts rules.Options, load MatrixLoader) ([]rules.Rule, error) {
	b := builder{doc: d, problem: p, opts: opts, load: load}
	out := make([]rules.Rule, 0, len(d.Rules))
	for _, name := range d.Names() {
		r, err := b.build(name, d.Rules[name])
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

type builder struct {
	doc     *Document
	problem rules.Problem
	opts    rules.Options
	load    MatrixLoader
}

func (b builder) build(name string, def Definition) (rules.Rule, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}
	mode, err := rules.ParseMode(modeOr(def.Mode, def.Kind))
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}
	p := b.problem

	switch def.Kind {
	case KindReturnDelays:
		m, err := b.intMatrix(name, def, mode)
		if err != nil {
			return nil, err
		}
		if mode != rules.Forbidden {
			return nil, fmt.Errorf("%w: rule %q: return delays are always forbidden", planerr.ErrConfiguration, name)
		}
		return rules.NewReturnDelays(name, p, m, b.opts, def.Reset)
	case KindPrecedences:
		m, err := b.intMatrix(name, def, mode)
		if err != nil {
			return nil, err
		}
		return rules.NewPrecedences(name, p, m, mode, b.opts)
	case KindSpatialInteractions:
		m, err := b.intMatrix(name, def, mode)
		if err != nil {
			return nil, err
		}
		return rules.NewSpatialInteractions(name, p, m, def.Adjacency, mode)
	case KindSpatialInteractionsSubintervals:
		raw, err := b.matrix(name, def)
		if err != nil {
			return nil, err
		}
		m, err := rules.ParseSubintervalMatrix(name, raw, mode)
		if err != nil {
			return nil, err
		}
		return rules.NewSpatialInteractionsSubintervals(name, p, m, def.Adjacency, mode)
	case KindDiluteSpecies:
		return rules.NewDiluteSpecies(name, p, def.Adjacency)
	case KindDiluteFamily:
		return rules.NewDiluteFamily(name, p, def.Adjacency, def.Category)
	case KindGroupCrops:
		return b.groupCrops(name, def, mode)
	case KindCompatibleBeds:
		crops := func(s calendar.Slot) bool { return matchAll(def.Crops, s.Attr) }
		beds := func(bed garden.Bed) bool { return matchAll(def.Beds, bed.Attr) }
		return rules.NewCompatibleBeds(name, p, crops, beds, mode)
	}
	return nil, fmt.Errorf("%w: rule %q: unknown kind %q", planerr.ErrConfiguration, name, def.Kind)
}

// modeOr returns the mode of a definition, defaulting group_crops to
// enforced and everything else to forbidden.
func modeOr(mode, kind string) string {
	if mode == "" && kind == KindGroupCrops {
		return "enforced"
	}
	return mode
}

func (b builder) groupCrops(name string, def Definition, mode rules.Mode) (rules.Rule, error) {
	r, err := rules.NewGroupCrops(name, b.problem, def.Adjacency, def.GroupBy, mode)
	if err != nil || len(def.Filter) == 0 {
		return r, err
	}
	grouper, ok := r.(rules.OrderedGrouper)
	if !ok {
		return r, nil
	}
	var kept [][]int
	for _, g := range grouper.OrderedGroups() {
		if matchAll(def.Filter, b.problem.Calendar.Slot(g[0]).Attr) {
			kept = append(kept, g)
		}
	}
	adj, err := b.problem.Garden.AdjacencyGraph(def.Adjacency)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}
	return rules.NewGroupNeighbourhood(name, kept, adj, mode), nil
}

// matrix returns the raw matrix of a definition, from its file or its
// inline cells.
func (b builder) matrix(name string, def Definition) (*rules.Matrix[string], error) {
	if def.Matrix == "" {
		m := rules.NewMatrix[string](def.Category)
		for _, c := range def.Cells {
			m.Set(c.Row, c.Col, c.Value)
		}
		return m, nil
	}
	path := def.Matrix
	if !filepath.IsAbs(path) && b.doc.Dir != "" {
		path = filepath.Join(b.doc.Dir, path)
	}
	m, err := b.load(path)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}
	if def.Category != "" {
		m.Category = def.Category
	}
	return m, nil
}

// intMatrix converts every cell to an integer. Booleans are accepted: true
// stands for -1 in a forbidden rule and 1 in an enforced one, false for 0.
func (b builder) intMatrix(name string, def Definition, mode rules.Mode) (*rules.Matrix[int], error) {
	raw, err := b.matrix(name, def)
	if err != nil {
		return nil, err
	}
	out := rules.NewMatrix[int](raw.Category)
	for _, pair := range raw.Pairs() {
		cell := raw.Cells[pair]
		if cell == "" {
			continue
		}
		v, err := strconv.Atoi(cell)
		if err != nil {
			flag, berr := strconv.ParseBool(cell)
			if berr != nil {
				return nil, fmt.Errorf("%w: rule %q cell (%s, %s): %q is neither an integer nor a boolean",
					planerr.ErrConfiguration, name, pair.Row, pair.Col, cell)
			}
			v = 0
			if flag {
				v = 1
				if mode == rules.Forbidden {
					v = -1
				}
			}
		}
		out.Set(pair.Row, pair.Col, v)
	}
	return out, nil
}
