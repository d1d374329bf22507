package rules

import (
	"fmt"
	"sort"

	"github.com/papapumpkin/agroplan/internal/calendar"
	"github.com/papapumpkin/agroplan/internal/planerr"
)

// Pair is an ordered (row, column) key of a matrix. The row belongs to the
// first slot in start order.
type Pair struct {
	Row, Col string
}

// Matrix maps ordered pairs of slot categories to values. Category names the
// slot attribute used as key, such as "crop_family" or "crop_name".
type Matrix[T any] struct {
	Category string
	Cells    map[Pair]T
}

// NewMatrix returns an empty matrix keyed by category.
func NewMatrix[T any](category string) *Matrix[T] {
	return &Matrix[T]{Category: category, Cells: make(map[Pair]T)}
}

// Set stores v at (row, col).
func (m *Matrix[T]) Set(row, col string, v T) {
	m.Cells[Pair{row, col}] = v
}

// Get returns the value at (row, col).
func (m *Matrix[T]) Get(row, col string) (T, bool) {
	v, ok := m.Cells[Pair{row, col}]
	return v, ok
}

// Lookup returns the cell with the category of a as row and that of b as
// column.
func (m *Matrix[T]) Lookup(a, b calendar.Slot) (T, bool) {
	return m.Get(a.Attr(m.Category), b.Attr(m.Category))
}

// Pairs returns the keys in sorted order.
func (m *Matrix[T]) Pairs() []Pair {
	out := make([]Pair, 0, len(m.Cells))
	for p := range m.Cells {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

// checkSign rejects entries of the wrong sign for mode: a forbidden rule
// reads negative entries, an enforced one positive entries.
func checkSign(name string, m *Matrix[int], mode Mode) error {
	for _, p := range m.Pairs() {
		v := m.Cells[p]
		if (mode == Forbidden && v > 0) || (mode == Enforced && v < 0) {
			return fmt.Errorf("%w: rule %q is %s but entry (%s, %s) is %d",
				planerr.ErrConfiguration, name, mode, p.Row, p.Col, v)
		}
	}
	return nil
}
