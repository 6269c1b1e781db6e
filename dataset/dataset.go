// Package dataset holds the full set of result tables for a cohort: one table
// per analysis kind, the assembly and read file path indexes, and the derived
// list of every sample identifier seen in any of them.
package dataset

import (
	"errors"
	"fmt"
	"sort"

	"github.com/carbocation/pfsurvey/table"
	"github.com/maruel/natural"
)

// Reserved table names. KindIID is derived and is only ever written, never
// stored as a slot.
const (
	KindIID   = "iid"
	KindFasta = "fasta"
	KindFastq = "fastq"
)

var (
	ErrMissingInput  = errors.New("missing required input")
	ErrConfiguration = errors.New("invalid configuration")
	ErrOverlap       = errors.New("overlapping sample identifiers")
)

// DefaultComplete names the kinds intersected by Complete when none are given.
var DefaultComplete = []string{"kraken", "mlst"}

// RemovalSet maps an analysis kind to the identifiers flagged for removal at
// that kind's stage.
type RemovalSet map[string][]string

type DataSet struct {
	kinds  []string
	tables map[string]*table.Table
	iids   []string
}

// New returns a data set with empty path index tables followed by one empty
// slot per analysis kind, iterated in that order.
func New(kinds ...string) *DataSet {
	d := &DataSet{
		kinds:  make([]string, 0, len(kinds)+2),
		tables: make(map[string]*table.Table),
		iids:   make([]string, 0),
	}

	d.set(KindFasta, table.New(KindFasta))
	d.set(KindFastq, table.New("forward", "reverse"))
	for _, k := range kinds {
		d.set(k, table.New())
	}

	return d
}

func isPathIndex(kind string) bool {
	return kind == KindFasta || kind == KindFastq
}

func (d *DataSet) set(kind string, t *table.Table) {
	if _, exists := d.tables[kind]; !exists {
		d.kinds = append(d.kinds, kind)
	}
	d.tables[kind] = t
}

// Set stores t (which the data set now owns) under kind and refreshes the
// identifier list.
func (d *DataSet) Set(kind string, t *table.Table) error {
	if kind == KindIID {
		return fmt.Errorf("%w: %s is derived and cannot be set", ErrConfiguration, KindIID)
	}

	d.set(kind, t)
	d.Refresh()

	return nil
}

// Table returns a copy of kind's table.
func (d *DataSet) Table(kind string) (*table.Table, bool) {
	t, exists := d.tables[kind]
	if !exists {
		return nil, false
	}

	return t.Copy(), true
}

// Kinds lists every table slot, path indexes included, in insertion order.
func (d *DataSet) Kinds() []string {
	return append([]string{}, d.kinds...)
}

// AnalysisKinds lists the slots that hold analysis results.
func (d *DataSet) AnalysisKinds() []string {
	out := make([]string, 0, len(d.kinds))
	for _, k := range d.kinds {
		if !isPathIndex(k) {
			out = append(out, k)
		}
	}

	return out
}

// IIDs returns the sorted distinct identifiers across all tables.
func (d *DataSet) IIDs() []string {
	return append([]string{}, d.iids...)
}

// IIDTable renders the identifier list as a table.
func (d *DataSet) IIDTable() (*table.Table, error) {
	t := table.New(KindIID)
	for _, id := range d.iids {
		if err := t.AppendStrings(id, id); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// Refresh recomputes the identifier list as the union of every table's
// identifiers, in natural order (ERR2 sorts before ERR10).
func (d *DataSet) Refresh() {
	seen := make(map[string]struct{})
	iids := make([]string, 0)
	for _, k := range d.kinds {
		for _, id := range d.tables[k].Index {
			if _, exists := seen[id]; exists {
				continue
			}
			seen[id] = struct{}{}
			iids = append(iids, id)
		}
	}

	sort.SliceStable(iids, func(i, j int) bool { return natural.Less(iids[i], iids[j]) })
	d.iids = iids
}

// Empty reports whether no table holds any row.
func (d *DataSet) Empty() bool {
	for _, t := range d.tables {
		if !t.Empty() {
			return false
		}
	}

	return true
}

// Copy returns a detached deep copy.
func (d *DataSet) Copy() *DataSet {
	out := &DataSet{
		kinds:  append([]string{}, d.kinds...),
		tables: make(map[string]*table.Table, len(d.tables)),
		iids:   append([]string{}, d.iids...),
	}
	for k, t := range d.tables {
		out.tables[k] = t.Copy()
	}

	return out
}

// Add appends other's rows to d, table by table, taking the outer union of
// columns. Batches are expected to hold distinct samples: if any kind has an
// identifier in both operands, ErrOverlap is returned and d is unchanged.
func (d *DataSet) Add(other *DataSet) error {
	for _, k := range other.kinds {
		mine, exists := d.tables[k]
		if !exists {
			continue
		}
		ids := mine.IDSet()
		for _, id := range other.tables[k].IDs() {
			if _, dup := ids[id]; dup {
				return fmt.Errorf("%w: %s in %s", ErrOverlap, id, k)
			}
		}
	}

	for _, k := range other.kinds {
		theirs := other.tables[k]
		if mine, exists := d.tables[k]; exists {
			d.tables[k] = mine.Concat(theirs)
			continue
		}
		d.set(k, theirs.Copy())
	}

	d.Refresh()

	return nil
}

// Remove applies a removal set. For each kind named in rs, the listed
// identifiers are dropped, or with retain set, are the only ones kept. Kinds
// not named in rs are untouched; removals never propagate between kinds.
func (d *DataSet) Remove(rs RemovalSet, retain bool) {
	for _, k := range d.kinds {
		ids, exists := rs[k]
		if !exists {
			continue
		}

		set := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}

		if retain {
			d.tables[k] = d.tables[k].Keep(set)
		} else {
			d.tables[k] = d.tables[k].Drop(set)
		}
	}

	d.Refresh()
}

// Complete restricts every table to the samples present in all of the
// required kinds (DefaultComplete when none are given). A required kind that
// has no slot is ErrMissingInput.
func (d *DataSet) Complete(required []string) error {
	if len(required) == 0 {
		required = DefaultComplete
	}

	var intersect map[string]struct{}
	for _, k := range required {
		t, exists := d.tables[k]
		if !exists {
			return fmt.Errorf("%w: no %s results to intersect", ErrMissingInput, k)
		}

		ids := t.IDSet()
		if intersect == nil {
			intersect = ids
			continue
		}
		for id := range intersect {
			if _, exists := ids[id]; !exists {
				delete(intersect, id)
			}
		}
	}

	keep := make([]string, 0, len(intersect))
	for id := range intersect {
		keep = append(keep, id)
	}

	rs := make(RemovalSet, len(d.kinds))
	for _, k := range d.kinds {
		rs[k] = keep
	}
	d.Remove(rs, true)

	return nil
}

// ByIdentifierPresence reports, for every known sample and every analysis
// kind, whether the sample has at least one row in that kind's table.
func (d *DataSet) ByIdentifierPresence() table.Presence {
	kinds := d.AnalysisKinds()
	sets := make([]map[string]struct{}, len(kinds))
	for i, k := range kinds {
		sets[i] = d.tables[k].IDSet()
	}

	return table.NewPresence(d.iids, kinds, sets)
}
