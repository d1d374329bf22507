// Package plan holds solved assignments of slots to beds and their
// delimited-text form.
package plan

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/papapumpkin/agroplan/internal/calendar"
)

// ErrMalformed is returned when reading a plan that does not follow the
// export format.
var ErrMalformed = errors.New("malformed plan")

// Header lists the exported columns.
var Header = []string{"slot_id", "group_id", "crop_name", "crop_type", "starting_week", "ending_week", "bed_id", "past"}

// Row is one assigned slot.
type Row struct {
	Slot  int
	Group int
	Crop  string
	Type  string
	Start calendar.Week
	End   calendar.Week
	Bed   int
	Past  bool
}

// Plan is a complete assignment, rows sorted by slot ID.
type Plan struct {
	Rows []Row
}

// New builds a plan from a calendar and the bed of each slot, indexed by
// slot ID.
func New(cal *calendar.Calendar, beds []int) (*Plan, error) {
	if len(beds) != cal.Len() {
		return nil, fmt.Errorf("%w: %d beds for %d slots", ErrMalformed, len(beds), cal.Len())
	}
	p := &Plan{Rows: make([]Row, cal.Len())}
	for i, s := range cal.Slots() {
		p.Rows[i] = Row{
			Slot:  s.ID,
			Group: s.Group,
			Crop:  s.Crop,
			Type:  s.Type,
			Start: s.Interval.Start,
			End:   s.Interval.End,
			Bed:   beds[i],
			Past:  !s.Future,
		}
	}
	return p, nil
}

// Beds returns the bed of each slot, indexed by slot ID.
func (p *Plan) Beds() []int {
	out := make([]int, len(p.Rows))
	for i, r := range p.Rows {
		out[i] = r.Bed
	}
	return out
}

// BedsUsed returns the distinct beds of the plan, ascending.
func (p *Plan) BedsUsed() []int {
	seen := make(map[int]bool)
	var out []int
	for _, r := range p.Rows {
		if !seen[r.Bed] {
			seen[r.Bed] = true
			out = append(out, r.Bed)
		}
	}
	sort.Ints(out)
	return out
}

// Write exports the plan with sep as field delimiter.
func (p *Plan) Write(w io.Writer, sep rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = sep
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range p.Rows {
		rec := []string{
			strconv.Itoa(r.Slot),
			strconv.Itoa(r.Group),
			r.Crop,
			r.Type,
			strconv.Itoa(int(r.Start)),
			strconv.Itoa(int(r.End)),
			strconv.Itoa(r.Bed),
			strconv.FormatBool(r.Past),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read imports a plan written by Write. Rows are sorted by slot ID and slot
// IDs must be 0..n-1.
func Read(r io.Reader, sep rune) (*Plan, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.Comment = '#'
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrMalformed)
	}
	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[name] = i
	}
	for _, name := range Header {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformed, name)
		}
	}

	p := &Plan{Rows: make([]Row, 0, len(records)-1)}
	for line, rec := range records[1:] {
		row, err := parseRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line+2, err)
		}
		p.Rows = append(p.Rows, row)
	}
	sort.Slice(p.Rows, func(i, j int) bool { return p.Rows[i].Slot < p.Rows[j].Slot })
	for i, row := range p.Rows {
		if row.Slot != i {
			return nil, fmt.Errorf("%w: slot IDs are not 0..%d", ErrMalformed, len(p.Rows)-1)
		}
	}
	return p, nil
}

func parseRow(rec []string, cols map[string]int) (Row, error) {
	ints := make(map[string]int, 5)
	for _, name := range []string{"slot_id", "group_id", "starting_week", "ending_week", "bed_id"} {
		v, err := strconv.Atoi(rec[cols[name]])
		if err != nil {
			return Row{}, fmt.Errorf("column %s: %w", name, err)
		}
		ints[name] = v
	}
	past, err := strconv.ParseBool(rec[cols["past"]])
	if err != nil {
		return Row{}, fmt.Errorf("column past: %w", err)
	}
	return Row{
		Slot:  ints["slot_id"],
		Group: ints["group_id"],
		Crop:  rec[cols["crop_name"]],
		Type:  rec[cols["crop_type"]],
		Start: calendar.Week(ints["starting_week"]),
		End:   calendar.Week(ints["ending_week"]),
		Bed:   ints["bed_id"],
		Past:  past,
	}, nil
}

// Separator returns the single rune of s, the configured delimiter.
func Separator(s string) (rune, error) {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("separator %q must be a single character", s)
	}
	return r, nil
}
