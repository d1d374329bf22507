package rules

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/papapumpkin/agroplan/internal/calendar"
	"github.com/papapumpkin/agroplan/internal/planerr"
)

var subintervalPattern = regexp.MustCompile(
	`^\s*([+-])\s*\[\s*(-?\d+)\s*,\s*(-?\d+)\s*\]\s*\[\s*(-?\d+)\s*,\s*(-?\d+)\s*\]\s*$`)

// Offsets selects part of a cultivation window. Non-negative offsets count
// weeks from the start (1 is the first week), negative ones from the end
// (-1 is the last week).
type Offsets struct {
	From, To int
}

// Resolve maps the offsets onto iv. ok is false when the selection is empty.
func (o Offsets) Resolve(iv calendar.Interval) (calendar.Interval, bool) {
	r := calendar.Interval{Start: resolveOffset(iv, o.From), End: resolveOffset(iv, o.To)}
	return r, r.Start <= r.End
}

func resolveOffset(iv calendar.Interval, o int) calendar.Week {
	if o >= 0 {
		return iv.Start + calendar.Week(max(0, o-1))
	}
	return iv.End + calendar.Week(min(0, o+1))
}

// Subinterval is a parsed matrix cell such as "-[1,3][1,-1]": the first
// slot's first three weeks against the second slot's whole cycle. The sign
// marks a negative (-) or positive (+) interaction.
type Subinterval struct {
	Negative bool
	First    Offsets
	Second   Offsets
}

// ParseSubinterval parses the "±[a,b][c,d]" cell syntax.
func ParseSubinterval(s string) (Subinterval, error) {
	m := subintervalPattern.FindStringSubmatch(s)
	if m == nil {
		return Subinterval{}, fmt.Errorf("%w: malformed sub-interval %q", planerr.ErrConfiguration, s)
	}
	n := make([]int, 4)
	for i := range n {
		v, err := strconv.Atoi(m[i+2])
		if err != nil {
			return Subinterval{}, fmt.Errorf("%w: sub-interval %q: %v", planerr.ErrConfiguration, s, err)
		}
		n[i] = v
	}
	return Subinterval{
		Negative: m[1] == "-",
		First:    Offsets{n[0], n[1]},
		Second:   Offsets{n[2], n[3]},
	}, nil
}

// Interacts reports whether the resolved sub-intervals of a and b intersect.
func (s Subinterval) Interacts(a, b calendar.Interval) bool {
	ra, okA := s.First.Resolve(a)
	rb, okB := s.Second.Resolve(b)
	return okA && okB && ra.Overlaps(rb)
}

func (s Subinterval) String() string {
	sign := "+"
	if s.Negative {
		sign = "-"
	}
	return fmt.Sprintf("%s[%d,%d][%d,%d]", sign, s.First.From, s.First.To, s.Second.From, s.Second.To)
}

// ParseSubintervalMatrix parses every cell of raw. Parsing happens once per
// cell; signs must match mode.
func ParseSubintervalMatrix(name string, raw *Matrix[string], mode Mode) (*Matrix[Subinterval], error) {
	out := NewMatrix[Subinterval](raw.Category)
	for _, p := range raw.Pairs() {
		cell := raw.Cells[p]
		if cell == "" {
			continue
		}
		s, err := ParseSubinterval(cell)
		if err != nil {
			return nil, fmt.Errorf("rule %q cell (%s, %s): %w", name, p.Row, p.Col, err)
		}
		if s.Negative != (mode == Forbidden) {
			return nil, fmt.Errorf("%w: rule %q is %s but cell (%s, %s) is %s",
				planerr.ErrConfiguration, name, mode, p.Row, p.Col, s)
		}
		out.Set(p.Row, p.Col, s)
	}
	return out, nil
}
