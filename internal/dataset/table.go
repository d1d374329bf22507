// Package dataset reads the delimited input files of a planning run: beds,
// crop calendar, crop types, past plan and rule matrices.
//
// Every file is semicolon separated with a header line. Lines starting with
// '#' are comments; the leading ones of the form "# key: value" are kept as
// metadata.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/papapumpkin/agroplan/internal/planerr"
)

// Separator is the field delimiter of every dataset file.
const Separator = ';'

// Table is a parsed dataset file.
type Table struct {
	Meta   map[string]string
	Header []string
	Rows   []Record
}

// Record is one data line, with its line number for error messages.
type Record struct {
	Line   int
	Fields []string
}

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Require returns the positions of the named columns, failing on the first
// missing one.
func (t *Table) Require(names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, n := range names {
		out[i] = t.Index(n)
		if out[i] < 0 {
			return nil, fmt.Errorf("%w: missing column %q", planerr.ErrConfiguration, n)
		}
	}
	return out, nil
}

// Get returns the trimmed field at column i, or "" when the record is short.
func (r Record) Get(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return strings.TrimSpace(r.Fields[i])
}

// Errorf wraps planerr.ErrConfiguration with the record's line number.
func (r Record) Errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", planerr.ErrConfiguration, r.Line, fmt.Sprintf(format, args...))
}

// ReadTable parses a dataset file.
func ReadTable(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	t := &Table{Meta: make(map[string]string)}
	skipped := readMeta(data, t.Meta)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = Separator
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", planerr.ErrConfiguration, err)
		}
		line, _ := cr.FieldPos(0)
		if t.Header == nil {
			for i := range rec {
				rec[i] = strings.TrimSpace(rec[i])
			}
			t.Header = rec
			continue
		}
		if blank(rec) {
			continue
		}
		t.Rows = append(t.Rows, Record{Line: line, Fields: rec})
	}
	if t.Header == nil {
		return nil, fmt.Errorf("%w: missing header line after %d comment lines", planerr.ErrConfiguration, skipped)
	}
	return t, nil
}

// readMeta collects "# key: value" lines preceding the header and returns
// the number of leading comment lines.
func readMeta(data []byte, meta map[string]string) int {
	sc := bufio.NewScanner(bytes.NewReader(data))
	n := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			n++
			continue
		}
		if !strings.HasPrefix(line, "#") {
			break
		}
		n++
		key, value, ok := strings.Cut(strings.TrimSpace(line[1:]), ":")
		if ok && strings.TrimSpace(key) != "" {
			meta[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}
	return n
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// splitList splits a comma separated list, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
