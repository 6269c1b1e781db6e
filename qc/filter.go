// Package qc decides which samples are fit for downstream use. Each rule
// inspects one analysis table and proposes identifiers to remove; Filter
// combines them into a single removal set.
package qc

import (
	"fmt"
	"log"
	"sort"
	"strconv"

	"github.com/carbocation/pfsurvey/dataset"
	"github.com/carbocation/pfsurvey/table"
)

// Kinds inspected by the rules.
const (
	TaxonomyKind = "kraken"
	LineageKind  = "mlst"
)

// Unresolved is the sequence type reported when typing fails.
const Unresolved = "-"

// TopSpecies is how many species-rank hits are compared per sample.
const TopSpecies = 3

type Filter struct {
	// Purity is the minimum fraction of reads assigned to the top species.
	Purity float64

	// Contamination is the maximum fraction allowed for any other species
	// among the top hits.
	Contamination float64

	// Species, when set, must match the top hit. An integer is compared to
	// the taxon ID, anything else to the taxon name. Empty accepts any
	// species.
	Species string

	// GeneIdentity and GeneCoverage are validated and reported but no rule
	// removes samples on them.
	GeneIdentity float64
	GeneCoverage float64

	// CompleteLineage removes samples whose sequence type is unresolved.
	CompleteLineage bool
}

func DefaultFilter() Filter {
	return Filter{
		Purity:          0.8,
		Contamination:   0.02,
		GeneIdentity:    0.9,
		GeneCoverage:    0.8,
		CompleteLineage: true,
	}
}

func (f Filter) Validate() error {
	fractions := []struct {
		name  string
		value float64
	}{
		{"purity", f.Purity},
		{"contamination", f.Contamination},
		{"gene identity", f.GeneIdentity},
		{"gene coverage", f.GeneCoverage},
	}
	for _, v := range fractions {
		if v.value < 0 || v.value > 1 {
			return fmt.Errorf("%w: %s must be a fraction between 0 and 1, got %v", dataset.ErrConfiguration, v.name, v.value)
		}
	}

	return nil
}

// speciesColumn is the kraken column compared against Species.
func (f Filter) speciesColumn() string {
	if _, err := strconv.Atoi(f.Species); err == nil {
		return "taxid"
	}
	return "taxonomy"
}

// TaxonomicQC flags samples whose species-rank classification is impure,
// contaminated or of the wrong species. Each sample is listed once.
func (f Filter) TaxonomicQC(t *table.Table) ([]string, error) {
	if t.Empty() {
		return []string{}, nil
	}
	for _, col := range []string{"level", "percent"} {
		if !t.HasColumn(col) {
			return nil, fmt.Errorf("%w: %s table has no %s column", dataset.ErrConfiguration, TaxonomyKind, col)
		}
	}

	var uncertain, contaminated, misidentified int

	out := make([]string, 0)
	groups := t.GroupByID()
	for _, id := range groups.Keys {
		g := groups.Tables[id]

		hits := topHits(g, TopSpecies)
		if len(hits) == 0 {
			continue
		}

		flagged := false
		if hits[0].percent < f.Purity*100 {
			uncertain++
			flagged = true
		}
		for _, h := range hits[1:] {
			if h.percent > f.Contamination*100 {
				contaminated++
				flagged = true
				break
			}
		}
		if f.Species != "" {
			if top := g.Value(hits[0].row, f.speciesColumn()); !top.Valid || top.String != f.Species {
				misidentified++
				flagged = true
			}
		}

		if flagged {
			out = append(out, id)
		}
	}

	log.Printf("Taxonomic QC: %d uncertain, %d contaminated, %d misidentified\n", uncertain, contaminated, misidentified)

	return out, nil
}

type hit struct {
	row     int
	percent float64
}

// topHits returns up to n species-rank rows of g with the largest percent,
// largest first. Ties keep table order.
func topHits(g *table.Table, n int) []hit {
	hits := make([]hit, 0)
	for i := 0; i < g.Len(); i++ {
		if level := g.Value(i, "level"); !level.Valid || level.String != "S" {
			continue
		}
		p, ok := g.Float(i, "percent")
		if !ok {
			continue
		}
		hits = append(hits, hit{row: i, percent: p})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].percent > hits[j].percent })
	if len(hits) > n {
		hits = hits[:n]
	}

	return hits
}

// LineageQC flags samples with an unresolved sequence type when complete
// lineages are required.
func (f Filter) LineageQC(t *table.Table) ([]string, error) {
	if !f.CompleteLineage || t.Empty() {
		return []string{}, nil
	}
	col := t.ColumnIndex("sequence_type")
	if col < 0 {
		return nil, fmt.Errorf("%w: %s table has no sequence_type column", dataset.ErrConfiguration, LineageKind)
	}

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for i, row := range t.Rows {
		if !row[col].Valid || row[col].String != Unresolved {
			continue
		}
		if _, exists := seen[t.Index[i]]; exists {
			continue
		}
		seen[t.Index[i]] = struct{}{}
		out = append(out, t.Index[i])
	}

	return out, nil
}

// RemovalSet runs every rule against the kinds ds holds. Kinds without a
// rule get an empty list, so they are named but untouched.
func (f Filter) RemovalSet(ds *dataset.DataSet) (dataset.RemovalSet, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	rules := map[string]func(*table.Table) ([]string, error){
		TaxonomyKind: f.TaxonomicQC,
		LineageKind:  f.LineageQC,
	}

	rs := make(dataset.RemovalSet)
	for _, k := range ds.AnalysisKinds() {
		rule, exists := rules[k]
		if !exists {
			rs[k] = []string{}
			continue
		}

		t, _ := ds.Table(k)
		ids, err := rule(t)
		if err != nil {
			return nil, err
		}
		rs[k] = ids
	}

	return rs, nil
}

// Apply removes every flagged sample from ds and returns the removal set.
// Applying the same filter again removes nothing further.
func (f Filter) Apply(ds *dataset.DataSet) (dataset.RemovalSet, error) {
	rs, err := f.RemovalSet(ds)
	if err != nil {
		return nil, err
	}

	ds.Remove(rs, false)

	log.Printf("Cleaned %d genomes\n", len(Flatten(rs)))

	return rs, nil
}

// Flatten lists each identifier named anywhere in rs once, in lexical order.
func Flatten(rs dataset.RemovalSet) []string {
	seen := make(map[string]struct{})
	for _, ids := range rs {
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)

	return out
}
