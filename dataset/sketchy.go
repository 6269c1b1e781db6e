package dataset

import (
	"fmt"
	"strings"

	"github.com/carbocation/pfsurvey/table"
	"gopkg.in/guregu/null.v3"
)

// Default separators of Sketchy: between the values of the lineage and
// genotype labels, and between the values of the susceptibility label.
const (
	SketchySep      = "-"
	SketchyDrugsSep = ""
)

// SketchyColumns are the columns of the table built by Sketchy.
var SketchyColumns = []string{"lineage", "genotype", "susceptibility", KindFasta}

// SketchyField names the columns of one kind that go into a label. No columns
// means every column of the kind.
type SketchyField struct {
	Kind    string
	Columns []string
}

// SketchyConfig lists, per label, the fields joined into it in order. A label
// without fields is null for every sample.
type SketchyConfig struct {
	Lineage        []SketchyField
	Genotype       []SketchyField
	Susceptibility []SketchyField
}

// ParseSketchyFields reads fields written as "kind:col+col;kind", where a kind
// without columns takes all of them.
func ParseSketchyFields(s string) ([]SketchyField, error) {
	out := make([]SketchyField, 0)
	if strings.TrimSpace(s) == "" {
		return out, nil
	}

	for _, part := range strings.Split(s, ";") {
		kind, cols, _ := strings.Cut(strings.TrimSpace(part), ":")
		if kind == "" {
			return nil, fmt.Errorf("%w: field %q names no kind", ErrConfiguration, part)
		}

		f := SketchyField{Kind: kind}
		if cols != "" {
			f.Columns = strings.Split(cols, "+")
		}
		out = append(out, f)
	}

	return out, nil
}

// Sketchy builds one row per sample holding its lineage, genotype and
// susceptibility labels, with the path to its assembly, for building MinHash
// sketches. Within a kind only a sample's first row is used. The non-null
// values of a field are joined with the label's separator, as are the
// non-empty fields of a label. sep applies to the lineage and genotype
// labels, drugSep to the susceptibility label.
func (d *DataSet) Sketchy(cfg SketchyConfig, sep, drugSep string) (*table.Table, error) {
	lineage, err := d.sketchyLabels(cfg.Lineage, sep)
	if err != nil {
		return nil, err
	}
	genotype, err := d.sketchyLabels(cfg.Genotype, sep)
	if err != nil {
		return nil, err
	}
	susceptibility, err := d.sketchyLabels(cfg.Susceptibility, drugSep)
	if err != nil {
		return nil, err
	}
	fasta, err := d.tables[KindFasta].Lookup(KindFasta)
	if err != nil {
		return nil, err
	}

	out := table.New(SketchyColumns...)
	for _, id := range d.iids {
		row := []null.String{lineage[id], genotype[id], susceptibility[id], fasta[id]}
		if err := out.Append(id, row); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (d *DataSet) sketchyLabels(fields []SketchyField, sep string) (map[string]null.String, error) {
	parts := make(map[string][]string)
	for _, f := range fields {
		t, exists := d.tables[f.Kind]
		if !exists || isPathIndex(f.Kind) {
			return nil, fmt.Errorf("%w: no %s results to label with", ErrConfiguration, f.Kind)
		}

		columns := f.Columns
		if len(columns) == 0 {
			columns = t.Columns
		}
		positions := make([]int, len(columns))
		for i, c := range columns {
			if positions[i] = t.ColumnIndex(c); positions[i] < 0 {
				return nil, fmt.Errorf("%w: %s has no column %s", ErrConfiguration, f.Kind, c)
			}
		}

		seen := make(map[string]struct{})
		for i, row := range t.Rows {
			id := t.Index[i]
			if _, exists := seen[id]; exists {
				continue
			}
			seen[id] = struct{}{}

			values := make([]string, 0, len(positions))
			for _, p := range positions {
				if row[p].Valid {
					values = append(values, row[p].String)
				}
			}
			if len(values) > 0 {
				parts[id] = append(parts[id], strings.Join(values, sep))
			}
		}
	}

	out := make(map[string]null.String, len(parts))
	for id, p := range parts {
		out[id] = null.StringFrom(strings.Join(p, sep))
	}

	return out, nil
}
