package solver

import (
	"fmt"
	"slices"
	"strings"
)

// Spec kinds, reported by Spec.Kind.
const (
	KindNotEqual     = "not_equal"
	KindEqual        = "equal"
	KindAllDifferent = "all_different"
	KindAllEqual     = "all_equal"
	KindIncreasing   = "increasing"
	KindMember       = "member"
	KindNotMember    = "not_member"
	KindTable        = "table"
	KindHybridRow    = "hybrid_row"
	KindDisjunction  = "disjunction"
)

// Lookup returns the value bound to v, if any.
type Lookup func(v Var) (int, bool)

// Spec is a primitive constraint posted to an engine. Violated reports
// whether the values bound so far already break the constraint; once every
// variable in Vars is bound it is the exact negation of satisfaction.
type Spec interface {
	Kind() string
	Vars() []Var
	Violated(lookup Lookup) bool
}

// Holds evaluates s under a complete assignment.
func Holds(s Spec, value func(Var) int) bool {
	return !s.Violated(func(v Var) (int, bool) { return value(v), true })
}

// NotEqual requires A != B.
type NotEqual struct{ A, B Var }

func (s NotEqual) Kind() string { return KindNotEqual }
func (s NotEqual) Vars() []Var  { return []Var{s.A, s.B} }

func (s NotEqual) Violated(lookup Lookup) bool {
	a, okA := lookup(s.A)
	b, okB := lookup(s.B)
	return okA && okB && a == b
}

// Equal requires A == B.
type Equal struct{ A, B Var }

func (s Equal) Kind() string { return KindEqual }
func (s Equal) Vars() []Var  { return []Var{s.A, s.B} }

func (s Equal) Violated(lookup Lookup) bool {
	a, okA := lookup(s.A)
	b, okB := lookup(s.B)
	return okA && okB && a != b
}

// AllDifferent requires pairwise distinct values.
type AllDifferent struct{ Of []Var }

func (s AllDifferent) Kind() string { return KindAllDifferent }
func (s AllDifferent) Vars() []Var  { return s.Of }

func (s AllDifferent) Violated(lookup Lookup) bool {
	seen := make(map[int]bool, len(s.Of))
	for _, v := range s.Of {
		val, ok := lookup(v)
		if !ok {
			continue
		}
		if seen[val] {
			return true
		}
		seen[val] = true
	}
	return false
}

// AllEqual requires every variable to take the same value.
type AllEqual struct{ Of []Var }

func (s AllEqual) Kind() string { return KindAllEqual }
func (s AllEqual) Vars() []Var  { return s.Of }

func (s AllEqual) Violated(lookup Lookup) bool {
	first, have := 0, false
	for _, v := range s.Of {
		val, ok := lookup(v)
		if !ok {
			continue
		}
		if !have {
			first, have = val, true
			continue
		}
		if val != first {
			return true
		}
	}
	return false
}

// Increasing orders consecutive variables, strictly when Strict is set.
type Increasing struct {
	Of     []Var
	Strict bool
}

func (s Increasing) Kind() string { return KindIncreasing }
func (s Increasing) Vars() []Var  { return s.Of }

func (s Increasing) Violated(lookup Lookup) bool {
	for i := 0; i+1 < len(s.Of); i++ {
		a, okA := lookup(s.Of[i])
		b, okB := lookup(s.Of[i+1])
		if !okA || !okB {
			continue
		}
		if a > b || (s.Strict && a == b) {
			return true
		}
	}
	return false
}

// Member restricts Var to Set, or excludes Set when Negated.
type Member struct {
	Var     Var
	Set     []int
	Negated bool
}

func (s Member) Kind() string {
	if s.Negated {
		return KindNotMember
	}
	return KindMember
}

func (s Member) Vars() []Var { return []Var{s.Var} }

func (s Member) Violated(lookup Lookup) bool {
	val, ok := lookup(s.Var)
	if !ok {
		return false
	}
	return slices.Contains(s.Set, val) == s.Negated
}

// Table lists tuples over Of. With Feasible the assignment must equal one
// of them; otherwise it must equal none.
type Table struct {
	Of       []Var
	Tuples   [][]int
	Feasible bool
}

func (s Table) Kind() string { return KindTable }
func (s Table) Vars() []Var  { return s.Of }

func (s Table) Violated(lookup Lookup) bool {
	row := make([]int, len(s.Of))
	for i, v := range s.Of {
		val, ok := lookup(v)
		if !ok {
			return false
		}
		row[i] = val
	}
	found := slices.ContainsFunc(s.Tuples, func(t []int) bool { return slices.Equal(t, row) })
	return found != s.Feasible
}

// CellOp is the comparison a hybrid row cell applies to its column.
type CellOp int

const (
	// Any accepts every value.
	Any CellOp = iota
	// EqCol requires the column to equal column Col.
	EqCol
	// NeCol requires the column to differ from column Col.
	NeCol
)

// Cell is one entry of a hybrid row.
type Cell struct {
	Op  CellOp
	Col int
}

func (c Cell) String() string {
	switch c.Op {
	case EqCol:
		return fmt.Sprintf("=col(%d)", c.Col)
	case NeCol:
		return fmt.Sprintf("!=col(%d)", c.Col)
	default:
		return "*"
	}
}

// HybridRow is satisfied when at least one row matches: every cell of the
// row holds for the value in its column.
type HybridRow struct {
	Of   []Var
	Rows [][]Cell
}

func (s HybridRow) Kind() string { return KindHybridRow }
func (s HybridRow) Vars() []Var  { return s.Of }

func (s HybridRow) Violated(lookup Lookup) bool {
	vals := make([]int, len(s.Of))
	for i, v := range s.Of {
		val, ok := lookup(v)
		if !ok {
			return false
		}
		vals[i] = val
	}
	for _, row := range s.Rows {
		if rowMatches(row, vals) {
			return false
		}
	}
	return true
}

func rowMatches(row []Cell, vals []int) bool {
	for col, c := range row {
		switch c.Op {
		case EqCol:
			if vals[col] != vals[c.Col] {
				return false
			}
		case NeCol:
			if vals[col] == vals[c.Col] {
				return false
			}
		}
	}
	return true
}

func (s HybridRow) String() string {
	rows := make([]string, len(s.Rows))
	for i, row := range s.Rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = c.String()
		}
		rows[i] = "[" + strings.Join(cells, " ") + "]"
	}
	return fmt.Sprintf("hybrid_row(%v, %s)", s.Of, strings.Join(rows, " "))
}

// Literal compares two variables for equality or, when Equal is false,
// inequality.
type Literal struct {
	A, B  Var
	Equal bool
}

func (l Literal) eval(lookup Lookup) (holds, bound bool) {
	a, okA := lookup(l.A)
	b, okB := lookup(l.B)
	if !okA || !okB {
		return false, false
	}
	return (a == b) == l.Equal, true
}

// Disjunction holds when at least one literal holds.
type Disjunction struct {
	Literals []Literal
}

func (s Disjunction) Kind() string { return KindDisjunction }

func (s Disjunction) Vars() []Var {
	var out []Var
	for _, l := range s.Literals {
		for _, v := range []Var{l.A, l.B} {
			if !slices.Contains(out, v) {
				out = append(out, v)
			}
		}
	}
	return out
}

func (s Disjunction) Violated(lookup Lookup) bool {
	for _, l := range s.Literals {
		holds, bound := l.eval(lookup)
		if !bound || holds {
			return false
		}
	}
	return true
}
