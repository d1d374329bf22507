// Package ruleset reads declarative rule definitions from TOML or YAML and
// builds the corresponding rules.
//
// A document maps rule names to definitions:
//
//	[rotation]
//	kind = "return_delays"
//	matrix = "return_delays.csv"
//
//	[shade]
//	kind = "compatible_beds"
//	mode = "enforced"
//	crops = [{ attribute = "crop_name", op = "eq", value = "sorrel" }]
//	beds = [{ attribute = "shade", op = "in", values = ["both", "summer"] }]
package ruleset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/papapumpkin/agroplan/internal/planerr"
)

// Rule kinds.
const (
	KindReturnDelays                    = "return_delays"
	KindPrecedences                     = "precedences"
	KindSpatialInteractions             = "spatial_interactions"
	KindSpatialInteractionsSubintervals = "spatial_interactions_subintervals"
	KindDiluteSpecies                   = "dilute_species"
	KindDiluteFamily                    = "dilute_family"
	KindGroupCrops                      = "group_crops"
	KindCompatibleBeds                  = "compatible_beds"
)

// Kinds lists every supported rule kind.
var Kinds = []string{
	KindCompatibleBeds,
	KindDiluteFamily,
	KindDiluteSpecies,
	KindGroupCrops,
	KindPrecedences,
	KindReturnDelays,
	KindSpatialInteractions,
	KindSpatialInteractionsSubintervals,
}

// Definition is one named rule.
type Definition struct {
	Kind      string `toml:"kind" yaml:"kind"`
	Mode      string `toml:"mode" yaml:"mode"`
	Adjacency string `toml:"adjacency" yaml:"adjacency"`
	// Matrix is a matrix file path, relative to the document.
	Matrix string `toml:"matrix" yaml:"matrix"`
	// Cells is an inline matrix keyed by Category, used instead of Matrix.
	Cells    []Cell `toml:"cells" yaml:"cells"`
	Category string `toml:"category" yaml:"category"`
	GroupBy  string `toml:"group_by" yaml:"group_by"`
	// Reset lifts a return delay once another crop has occupied the bed in
	// between. Precedences always behave this way.
	Reset bool `toml:"reset" yaml:"reset"`

	Crops  []Condition `toml:"crops" yaml:"crops"`
	Beds   []Condition `toml:"beds" yaml:"beds"`
	Filter []Condition `toml:"filter" yaml:"filter"`
}

// Cell is one inline matrix entry.
type Cell struct {
	Row   string `toml:"row" yaml:"row"`
	Col   string `toml:"col" yaml:"col"`
	Value string `toml:"value" yaml:"value"`
}

// Document maps rule names to definitions.
type Document struct {
	// Dir resolves relative matrix paths.
	Dir   string
	Rules map[string]Definition
}

// Names returns the rule names in build order.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.Rules))
	for n := range d.Rules {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Load reads a document, choosing the format from the file extension.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule definitions: %w", err)
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	doc, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Dir = filepath.Dir(path)
	return doc, nil
}

// Parse decodes a document in "toml", "yaml" or "yml" format and validates
// every definition. Unknown fields are rejected.
func Parse(data []byte, format string) (*Document, error) {
	defs := make(map[string]Definition)
	switch format {
	case "toml":
		if err := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&defs); err != nil {
			return nil, fmt.Errorf("%w: parsing toml: %v", planerr.ErrConfiguration, err)
		}
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&defs); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: parsing yaml: %v", planerr.ErrConfiguration, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported rule definition format %q", planerr.ErrConfiguration, format)
	}
	doc := &Document{Rules: defs}
	for _, name := range doc.Names() {
		if err := defs[name].Validate(); err != nil {
			return nil, fmt.Errorf("rule %q: %w", name, err)
		}
	}
	return doc, nil
}

// Validate checks the fields required by the definition's kind.
func (d Definition) Validate() error {
	need := func(field, value string) error {
		if value == "" {
			return fmt.Errorf("%w: %s requires %q", planerr.ErrConfiguration, d.Kind, field)
		}
		return nil
	}
	var errs []error
	switch d.Kind {
	case KindReturnDelays, KindPrecedences:
		errs = append(errs, d.validateMatrix())
	case KindSpatialInteractions, KindSpatialInteractionsSubintervals:
		errs = append(errs, d.validateMatrix(), need("adjacency", d.Adjacency), need("mode", d.Mode))
	case KindDiluteSpecies, KindDiluteFamily, KindGroupCrops:
		errs = append(errs, need("adjacency", d.Adjacency))
	case KindCompatibleBeds:
		errs = append(errs, need("mode", d.Mode))
		if len(d.Crops) == 0 || len(d.Beds) == 0 {
			errs = append(errs, fmt.Errorf("%w: %s requires crops and beds conditions", planerr.ErrConfiguration, d.Kind))
		}
	case "":
		return fmt.Errorf("%w: missing kind", planerr.ErrConfiguration)
	default:
		return fmt.Errorf("%w: unknown kind %q", planerr.ErrConfiguration, d.Kind)
	}
	if d.Reset && d.Kind != KindReturnDelays && d.Kind != KindPrecedences {
		errs = append(errs, fmt.Errorf("%w: reset only applies to %s and %s", planerr.ErrConfiguration, KindReturnDelays, KindPrecedences))
	}
	if len(d.Filter) > 0 && d.Kind != KindGroupCrops {
		errs = append(errs, fmt.Errorf("%w: filter only applies to %s", planerr.ErrConfiguration, KindGroupCrops))
	}
	for _, set := range [][]Condition{d.Crops, d.Beds, d.Filter} {
		for _, c := range set {
			errs = append(errs, c.Validate())
		}
	}
	return errors.Join(errs...)
}

func (d Definition) validateMatrix() error {
	switch {
	case d.Matrix == "" && len(d.Cells) == 0:
		return fmt.Errorf("%w: %s requires a matrix file or inline cells", planerr.ErrConfiguration, d.Kind)
	case d.Matrix != "" && len(d.Cells) > 0:
		return fmt.Errorf("%w: matrix and cells are exclusive", planerr.ErrConfiguration)
	case len(d.Cells) > 0 && d.Category == "":
		return fmt.Errorf("%w: inline cells require a category", planerr.ErrConfiguration)
	}
	return nil
}
