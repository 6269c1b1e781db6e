// linksurvey gathers the assemblies (and optionally reads) of collected or
// filtered survey samples into one directory, optionally selecting samples by
// a column value or splitting them into one directory per value.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfsurvey"
	_ "github.com/carbocation/pfsurvey/compileinfoprint"
	"github.com/carbocation/pfsurvey/dataset"
)

type config struct {
	data     string
	outdir   string
	naming   string
	kind     string
	column   string
	values   string
	minCount int
	sample   int
	groupBy  bool
	copy     bool
	reads    bool

	lineage        string
	genotype       string
	susceptibility string
}

func main() {
	var c config
	flag.StringVar(&c.data, "data", "", "Directory containing the tables written by collectsurvey or filtersurvey.")
	flag.StringVar(&c.outdir, "outdir", "pf-survey-files", "Output directory for the linked files.")
	flag.StringVar(&c.naming, "naming", "", "(Optional) CSV file with id and name columns used to rename the linked files. Samples missing from it are skipped.")
	flag.StringVar(&c.kind, "kind", "mlst", "Kind whose table holds -column.")
	flag.StringVar(&c.column, "column", "", "(Optional) Column of -kind used to select or group samples, e.g. sequence_type.")
	flag.StringVar(&c.values, "values", "", "(Optional) Comma-separated values of -column to keep.")
	flag.IntVar(&c.minCount, "min_count", 0, "(Optional) Keep values of -column seen more than this many times. Exclusive with -values.")
	flag.IntVar(&c.sample, "sample", 0, "(Optional) With -min_count, randomly keep at most this many samples per value.")
	flag.BoolVar(&c.groupBy, "group_by", false, "Pass this to link each value of -column into its own subdirectory.")
	flag.BoolVar(&c.copy, "copy", false, "Pass this to copy files instead of creating symbolic links.")
	flag.BoolVar(&c.reads, "reads", false, "Pass this to also link the read files.")
	flag.StringVar(&c.lineage, "sketchy_lineage", "", "(Optional) Fields forming the lineage label of sketchy.csv, as kind:col+col;kind. A kind alone takes all of its columns.")
	flag.StringVar(&c.genotype, "sketchy_genotype", "", "(Optional) Fields forming the genotype label of sketchy.csv.")
	flag.StringVar(&c.susceptibility, "sketchy_susceptibility", "", "(Optional) Fields forming the susceptibility label of sketchy.csv.")
	flag.Parse()

	if c.data == "" || ((c.values != "" || c.minCount > 0 || c.groupBy) && c.column == "") {
		flag.PrintDefaults()
		os.Exit(1)
	}

	var err error
	if c.data, err = pfsurvey.ExpandHome(c.data); err != nil {
		log.Fatalln(err)
	}
	if c.outdir, err = pfsurvey.ExpandHome(c.outdir); err != nil {
		log.Fatalln(err)
	}

	if err := run(c); err != nil {
		log.Fatalln(err)
	}

	log.Println("Quitting")
}

func run(c config) error {
	ds := dataset.New()
	if err := ds.Read(c.data); err != nil {
		return err
	}

	var naming map[string]string
	if c.naming != "" {
		var err error
		if naming, err = dataset.ReadNamingIndex(c.naming); err != nil {
			return err
		}
	}

	if c.column != "" {
		opts := dataset.SelectOptions{MinCount: c.minCount, Sample: c.sample}
		if c.values != "" {
			opts.Values = strings.Split(c.values, ",")
		}

		var err error
		if ds, err = ds.Select(c.kind, c.column, opts); err != nil {
			return err
		}
		log.Printf("Selected %d samples by %s %s\n", len(ds.IIDs()), c.kind, c.column)
	}

	if err := os.MkdirAll(c.outdir, 0755); err != nil {
		return err
	}
	presence, err := ds.ByIdentifierPresence().Table()
	if err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(c.outdir, "presence.csv"))
	if err != nil {
		return err
	}
	if err := presence.Write(f, ','); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if c.lineage != "" || c.genotype != "" || c.susceptibility != "" {
		if err := writeSketchy(ds, c); err != nil {
			return err
		}
	}

	if !c.groupBy {
		return link(ds, c.outdir, naming, c)
	}

	groupings, err := ds.GroupBy(c.kind, c.column, false)
	if err != nil {
		return err
	}
	for _, g := range groupings {
		if g.Kind != dataset.KindFasta {
			continue
		}
		for _, key := range g.Groups.Keys {
			sub := ds.Subset(g.Groups.Tables[key].IDs(), false)
			if err := link(sub, filepath.Join(c.outdir, key), naming, c); err != nil {
				return err
			}
		}
		log.Printf("Linked %d groups of %s %s\n", len(g.Groups.Keys), c.kind, c.column)
	}

	return nil
}

func link(ds *dataset.DataSet, dir string, naming map[string]string, c config) error {
	if err := ds.LinkSequenceFiles(dir, naming, !c.copy); err != nil {
		return err
	}

	if !c.reads {
		return nil
	}

	return ds.LinkReadFiles(dir, !c.copy)
}

func writeSketchy(ds *dataset.DataSet, c config) error {
	var cfg dataset.SketchyConfig
	var err error
	if cfg.Lineage, err = dataset.ParseSketchyFields(c.lineage); err != nil {
		return err
	}
	if cfg.Genotype, err = dataset.ParseSketchyFields(c.genotype); err != nil {
		return err
	}
	if cfg.Susceptibility, err = dataset.ParseSketchyFields(c.susceptibility); err != nil {
		return err
	}

	t, err := ds.Sketchy(cfg, dataset.SketchySep, dataset.SketchyDrugsSep)
	if err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(c.outdir, "sketchy.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	if err := t.Write(f, ','); err != nil {
		return err
	}
	log.Printf("Wrote sketch labels for %d samples\n", t.Len())

	return f.Close()
}
