package dataset

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/papapumpkin/agroplan/internal/calendar"
	"github.com/papapumpkin/agroplan/internal/garden"
	"github.com/papapumpkin/agroplan/internal/rules"
)

// Column names shared by the readers.
const (
	ColBedID       = "bed_id"
	ColCropName    = "crop_name"
	ColCropType    = "crop_type"
	ColStart       = "starting_week"
	ColEnd         = "ending_week"
	ColQuantity    = "quantity"
	ColPastBeds    = "allocated_beds_ids"
	AdjacentPrefix = "adjacent:"
)

// ReadBeds reads the beds file. Columns named "adjacent:<kind>" hold comma
// separated neighbour IDs for that adjacency kind; other columns become bed
// metadata.
func ReadBeds(r io.Reader) ([]garden.Bed, error) {
	t, err := ReadTable(r)
	if err != nil {
		return nil, err
	}
	cols, err := t.Require(ColBedID)
	if err != nil {
		return nil, err
	}
	beds := make([]garden.Bed, 0, len(t.Rows))
	for _, rec := range t.Rows {
		id, err := strconv.Atoi(rec.Get(cols[0]))
		if err != nil {
			return nil, rec.Errorf("bed id %q is not an integer", rec.Get(cols[0]))
		}
		b := garden.Bed{ID: id, Adjacency: make(map[string][]int), Metadata: make(map[string]string)}
		for i, h := range t.Header {
			switch {
			case i == cols[0]:
			case strings.HasPrefix(h, AdjacentPrefix):
				kind := strings.TrimPrefix(h, AdjacentPrefix)
				ids, err := parseIDs(rec.Get(i))
				if err != nil {
					return nil, rec.Errorf("%s neighbours of bed %d: %v", kind, id, err)
				}
				b.Adjacency[kind] = ids
			default:
				b.Metadata[h] = rec.Get(i)
			}
		}
		beds = append(beds, b)
	}
	return beds, nil
}

// ReadCalendar reads the crop calendar. Columns beyond the five required
// ones become crop attributes.
func ReadCalendar(r io.Reader) ([]calendar.CropDefinition, error) {
	t, err := ReadTable(r)
	if err != nil {
		return nil, err
	}
	cols, err := t.Require(ColCropName, ColCropType, ColStart, ColEnd, ColQuantity)
	if err != nil {
		return nil, err
	}
	defs := make([]calendar.CropDefinition, 0, len(t.Rows))
	for _, rec := range t.Rows {
		iv, err := interval(rec, cols[2], cols[3])
		if err != nil {
			return nil, err
		}
		qty, err := strconv.Atoi(rec.Get(cols[4]))
		if err != nil {
			return nil, rec.Errorf("quantity %q is not an integer", rec.Get(cols[4]))
		}
		defs = append(defs, calendar.CropDefinition{
			Name:       rec.Get(cols[0]),
			Type:       rec.Get(cols[1]),
			Interval:   iv,
			Quantity:   qty,
			Attributes: attributes(t, rec, cols),
		})
	}
	return defs, nil
}

// ReadCropTypes reads the crop types file: one line per crop_type, every
// other column an attribute shared by the crops of that type.
func ReadCropTypes(r io.Reader) (calendar.CropTypeAttributes, error) {
	t, err := ReadTable(r)
	if err != nil {
		return nil, err
	}
	cols, err := t.Require(ColCropType)
	if err != nil {
		return nil, err
	}
	out := make(calendar.CropTypeAttributes, len(t.Rows))
	for _, rec := range t.Rows {
		typ := rec.Get(cols[0])
		if _, dup := out[typ]; dup {
			return nil, rec.Errorf("duplicate crop type %q", typ)
		}
		out[typ] = attributes(t, rec, cols)
	}
	return out, nil
}

// ReadPastPlan reads the realised cultivations. allocated_beds_ids lists
// the beds of each line, comma separated.
func ReadPastPlan(r io.Reader) ([]calendar.PastOccurrence, error) {
	t, err := ReadTable(r)
	if err != nil {
		return nil, err
	}
	cols, err := t.Require(ColCropName, ColCropType, ColStart, ColEnd, ColPastBeds)
	if err != nil {
		return nil, err
	}
	if q := t.Index(ColQuantity); q >= 0 {
		cols = append(cols, q)
	}
	past := make([]calendar.PastOccurrence, 0, len(t.Rows))
	for _, rec := range t.Rows {
		iv, err := interval(rec, cols[2], cols[3])
		if err != nil {
			return nil, err
		}
		beds, err := parseIDs(rec.Get(cols[4]))
		if err != nil {
			return nil, rec.Errorf("allocated beds: %v", err)
		}
		past = append(past, calendar.PastOccurrence{
			Name:       rec.Get(cols[0]),
			Type:       rec.Get(cols[1]),
			Interval:   iv,
			Beds:       beds,
			Attributes: attributes(t, rec, cols),
		})
	}
	return past, nil
}

// ReadMatrix reads a rule matrix. The top-left header cell names the slot
// attribute keying rows and columns; empty cells are left unset.
func ReadMatrix(r io.Reader) (*rules.Matrix[string], error) {
	t, err := ReadTable(r)
	if err != nil {
		return nil, err
	}
	if len(t.Header) < 2 || t.Header[0] == "" {
		return nil, (Record{Line: 1}).Errorf("matrix header must name the category then the columns")
	}
	m := rules.NewMatrix[string](t.Header[0])
	for _, rec := range t.Rows {
		row := rec.Get(0)
		if len(rec.Fields) > len(t.Header) {
			return nil, rec.Errorf("row %q has %d cells for %d columns", row, len(rec.Fields)-1, len(t.Header)-1)
		}
		for i := 1; i < len(t.Header); i++ {
			if v := rec.Get(i); v != "" {
				m.Set(row, t.Header[i], v)
			}
		}
	}
	return m, nil
}

func interval(rec Record, start, end int) (calendar.Interval, error) {
	s, err := calendar.ParseWeek(rec.Get(start))
	if err != nil {
		return calendar.Interval{}, rec.Errorf("starting week: %v", err)
	}
	e, err := calendar.ParseWeek(rec.Get(end))
	if err != nil {
		return calendar.Interval{}, rec.Errorf("ending week: %v", err)
	}
	iv := calendar.Interval{Start: s, End: e}
	if err := iv.Validate(); err != nil {
		return calendar.Interval{}, fmt.Errorf("line %d: %w", rec.Line, err)
	}
	return iv, nil
}

// attributes returns the fields outside skip, keyed by header name.
func attributes(t *Table, rec Record, skip []int) map[string]string {
	out := make(map[string]string)
	for i, h := range t.Header {
		if contains(skip, i) || h == "" {
			continue
		}
		if v := rec.Get(i); v != "" {
			out[h] = v
		}
	}
	return out
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func parseIDs(s string) ([]int, error) {
	items := splitList(strings.Trim(s, "[]"))
	out := make([]int, 0, len(items))
	for _, item := range items {
		id, err := strconv.Atoi(item)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
