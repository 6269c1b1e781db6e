// Package survey sequences discovery, parsing, aggregation, filtering and
// provenance tracking over the result tree of one survey pipeline run.
package survey

import (
	"context"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfsurvey/aggregate"
	"github.com/carbocation/pfsurvey/dataset"
	"github.com/carbocation/pfsurvey/parsers"
	"github.com/carbocation/pfsurvey/table"
)

// Parser turns one result file into a table fragment.
type Parser interface {
	ParseFile(ctx context.Context, path string, client *storage.Client) (*table.Table, error)
}

// Aggregator stacks the fragments of one kind, keyed by sample identifier.
type Aggregator interface {
	Aggregate(fragments map[string]*table.Table) (*table.Table, error)
}

// Filter proposes samples to remove from a data set.
type Filter interface {
	RemovalSet(ds *dataset.DataSet) (dataset.RemovalSet, error)
}

// Process describes where one analysis kind's results live and how they are
// read.
type Process struct {
	Kind string

	// Dir is the slash-separated directory, relative to the result root,
	// holding the kind's files.
	Dir string

	// Pattern selects files in Dir by base name.
	Pattern string

	// Remove lists the file name suffixes stripped to form the sample
	// identifier.
	Remove []string

	Parser     Parser
	Aggregator Aggregator
}

func mustFormat(layout string) parsers.Format {
	f, err := parsers.New(layout)
	if err != nil {
		panic(err)
	}
	return f
}

func abricate(kind, database string) Process {
	return Process{
		Kind:    kind,
		Dir:     "abricate/" + database,
		Pattern: "*.tab",
		Remove:  []string{".tab"},
		Parser:  mustFormat("abricate"),
		Aggregator: aggregate.Aggregator{
			Kind:      kind,
			Columns:   parsers.AbricateColumns,
			Transform: aggregate.StripAlleleSuffix("gene"),
		},
	}
}

// Processes returns the result layout of the survey pipeline, in the order
// kinds are collected.
func Processes() []Process {
	return []Process{
		{
			Kind:       "mykrobe_lineage",
			Dir:        "mykrobe",
			Pattern:    "*.json",
			Remove:     []string{".json"},
			Parser:     mustFormat("mykrobe_lineage"),
			Aggregator: aggregate.Aggregator{Kind: "mykrobe_lineage"},
		},
		{
			Kind:    "kraken",
			Dir:     "kraken",
			Pattern: "*.report",
			Remove:  []string{".report"},
			Parser:  mustFormat("kraken"),
			Aggregator: aggregate.Aggregator{
				Kind:      "kraken",
				Columns:   parsers.KrakenColumns,
				Transform: aggregate.TrimSpace("taxonomy"),
			},
		},
		{
			Kind:       "mlst",
			Dir:        "mlst",
			Pattern:    "*.tab",
			Remove:     []string{".tab"},
			Parser:     mustFormat("mlst"),
			Aggregator: aggregate.Aggregator{Kind: "mlst"},
		},
		{
			Kind:       "mash",
			Dir:        "mash",
			Pattern:    "*.mash.tab",
			Remove:     []string{".mash.tab"},
			Parser:     mustFormat("mash"),
			Aggregator: aggregate.Aggregator{Kind: "mash", Columns: parsers.MashColumns},
		},
		{
			Kind:       "mykrobe_phenotype",
			Dir:        "mykrobe",
			Pattern:    "*.json",
			Remove:     []string{".json"},
			Parser:     mustFormat("mykrobe_phenotype"),
			Aggregator: aggregate.Aggregator{Kind: "mykrobe_phenotype"},
		},
		{
			Kind:       "mykrobe_genotype",
			Dir:        "mykrobe",
			Pattern:    "*.json",
			Remove:     []string{".json"},
			Parser:     mustFormat("mykrobe_genotype"),
			Aggregator: aggregate.Aggregator{Kind: "mykrobe_genotype"},
		},
		abricate("abricate_resistance", "resfinder"),
		abricate("abricate_virulence", "vfdb"),
		abricate("abricate_plasmid", "plasmidfinder"),
		{
			Kind:       "kleborate",
			Dir:        "kleborate",
			Pattern:    "*.tab",
			Remove:     []string{".tab"},
			Parser:     mustFormat("kleborate"),
			Aggregator: aggregate.Aggregator{Kind: "kleborate"},
		},
	}
}

// Kinds lists the kinds of ps in order.
func Kinds(ps []Process) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Kind)
	}

	return out
}
