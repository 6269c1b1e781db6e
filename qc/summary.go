package qc

import (
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	"github.com/carbocation/pfsurvey/dataset"
	"github.com/carbocation/pfsurvey/table"
	"github.com/montanaflynn/stats"
)

// GeneKindPrefix marks the gene screening kinds whose hits are checked
// against the gene thresholds.
const GeneKindPrefix = "abricate"

type Purity struct {
	Samples int
	Mean    float64
	Median  float64
	P5      float64
	Min     float64
}

type SequenceType struct {
	Type  string
	Count int
}

// Summary describes a cohort as the filter sees it. Nothing in it affects
// which samples are removed.
type Summary struct {
	Purity Purity

	// GenesBelow counts, per gene screening kind, hits under the gene
	// identity or coverage threshold.
	GenesBelow map[string]int

	// SequenceTypes lists the most common sequence types, most common first.
	SequenceTypes []SequenceType
}

// Summarize computes top-species purity statistics, gene hits below the gene
// thresholds, and up to top sequence types seen at least minCount times.
func (f Filter) Summarize(ds *dataset.DataSet, top, minCount int) (Summary, error) {
	s := Summary{GenesBelow: make(map[string]int)}

	if t, exists := ds.Table(TaxonomyKind); exists && !t.Empty() && t.HasColumn("level") && t.HasColumn("percent") {
		p, err := purity(t)
		if err != nil {
			return s, err
		}
		s.Purity = p
	}

	log.Printf("Gene thresholds: identity %.2f, coverage %.2f (informational)\n", f.GeneIdentity, f.GeneCoverage)
	for _, k := range ds.AnalysisKinds() {
		if !strings.HasPrefix(k, GeneKindPrefix) {
			continue
		}
		t, _ := ds.Table(k)
		s.GenesBelow[k] = f.genesBelow(t)
	}

	if t, exists := ds.Table(LineageKind); exists && t.HasColumn("sequence_type") {
		counts, err := t.ValueCounts("sequence_type")
		if err != nil {
			return s, err
		}
		s.SequenceTypes = topSequenceTypes(counts, top, minCount)
	}

	return s, nil
}

func purity(t *table.Table) (Purity, error) {
	data := make(stats.Float64Data, 0)
	groups := t.GroupByID()
	for _, id := range groups.Keys {
		hits := topHits(groups.Tables[id], 1)
		if len(hits) == 0 {
			continue
		}
		data = append(data, hits[0].percent)
	}

	p := Purity{Samples: data.Len()}
	if data.Len() < 1 {
		return p, nil
	}

	var err error
	if p.Mean, err = data.Mean(); err != nil {
		return p, err
	}
	if p.Median, err = data.Median(); err != nil {
		return p, err
	}
	// Nearest rank is defined for any number of samples
	if p.P5, err = data.PercentileNearestRank(5); err != nil {
		return p, err
	}
	if p.Min, err = data.Min(); err != nil {
		return p, err
	}

	return p, nil
}

// genesBelow counts hits whose identity or coverage, reported as a
// percentage, falls under the configured fraction.
func (f Filter) genesBelow(t *table.Table) int {
	if !t.HasColumn("identity") || !t.HasColumn("coverage") {
		return 0
	}

	n := 0
	for i := 0; i < t.Len(); i++ {
		identity, okI := t.Float(i, "identity")
		coverage, okC := t.Float(i, "coverage")
		if (okI && identity < f.GeneIdentity*100) || (okC && coverage < f.GeneCoverage*100) {
			n++
		}
	}

	return n
}

func topSequenceTypes(counts map[string]int, top, minCount int) []SequenceType {
	out := make([]SequenceType, 0, len(counts))
	for k, v := range counts {
		if v < minCount {
			continue
		}
		out = append(out, SequenceType{Type: k, Count: v})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	if top > 0 && len(out) > top {
		out = out[:top]
	}

	return out
}

func (s Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "Top species purity over %d samples: mean %.3f, median %.3f, 5th percentile %.3f, min %.3f\n",
		s.Purity.Samples, s.Purity.Mean, s.Purity.Median, s.Purity.P5, s.Purity.Min)

	kinds := make([]string, 0, len(s.GenesBelow))
	for k := range s.GenesBelow {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "%s: %d hits below gene thresholds\n", k, s.GenesBelow[k])
	}

	for _, st := range s.SequenceTypes {
		fmt.Fprintf(w, "ST%s\t%d\n", st.Type, st.Count)
	}
}
