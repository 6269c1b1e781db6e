package parsers

import (
	"sort"
	"strings"
)

var (
	MlstColumns = []string{
		"file", "species", "sequence_type",
	}
	MashColumns = []string{
		"file", "ref", "dist", "p-value", "match",
	}
	KrakenColumns = []string{
		"percent", "reads", "direct", "level", "taxid", "taxonomy",
	}
	AbricateColumns = []string{
		"file", "sequence", "start", "end", "gene", "coverage_bases",
		"coverage_map", "gaps", "coverage", "identity", "database",
		"accession", "product",
	}
)

// Layouts maps a tool output name to its parser. Columns is nil for formats
// whose schema is read from the file itself (a header line, a variable number
// of allele columns, or the drugs named in a prediction report).
var Layouts = map[string]Format{
	"mlst": {
		Name:  "mlst",
		Parse: parseMlst,
	},
	"mash": {
		Name:    "mash",
		Columns: MashColumns,
		Parse:   parseMash,
	},
	"kraken": {
		Name:    "kraken",
		Columns: KrakenColumns,
		Parse:   parseKraken,
	},
	"abricate": {
		Name:    "abricate",
		Columns: AbricateColumns,
		Parse:   parseAbricate,
	},
	"kleborate": {
		Name:  "kleborate",
		Parse: parseKleborate,
	},
	"mykrobe_lineage": {
		Name:  "mykrobe_lineage",
		Parse: parseMykrobeLineage,
	},
	"mykrobe_phenotype": {
		Name:  "mykrobe_phenotype",
		Parse: parseMykrobePhenotype,
	},
	"mykrobe_genotype": {
		Name:  "mykrobe_genotype",
		Parse: parseMykrobeGenotype,
	},
}

func LayoutNames() string {
	names := make([]string, 0, len(Layouts))
	for m := range Layouts {
		names = append(names, m)
	}
	sort.Strings(names)

	return strings.Join(names, ", ")
}
