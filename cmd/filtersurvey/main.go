// filtersurvey removes samples that fail taxonomic or lineage quality control
// from tables written by collectsurvey, optionally keeping only the samples
// that passed every required kind.
package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/carbocation/pfsurvey"
	_ "github.com/carbocation/pfsurvey/compileinfoprint"
	"github.com/carbocation/pfsurvey/dataset"
	"github.com/carbocation/pfsurvey/provenance"
	"github.com/carbocation/pfsurvey/qc"
	"github.com/carbocation/pfsurvey/survey"
)

func main() {
	var data, outdir, require, provenancePath string
	var notCompleteLineage, complete bool
	var top, minCount int

	defaults := qc.DefaultFilter()
	f := qc.DefaultFilter()

	flag.StringVar(&data, "data", "", "Directory containing the tables written by collectsurvey.")
	flag.StringVar(&outdir, "outdir", "pf-survey-filtered", "Output directory for the filtered tables.")
	flag.StringVar(&f.Species, "species", "Staphylococcus aureus", "Required top species: a taxon name, or a taxon ID if an integer. Empty to accept any species.")
	flag.Float64Var(&f.Purity, "purity", defaults.Purity, "Minimum fraction of reads assigned to the top species.")
	flag.Float64Var(&f.Contamination, "contamination", defaults.Contamination, "Maximum fraction of reads allowed for any other species among the top 3.")
	flag.Float64Var(&f.GeneCoverage, "gene_coverage", defaults.GeneCoverage, "Minimum coverage of screened genes. Reported only; no samples are removed on it.")
	flag.Float64Var(&f.GeneIdentity, "gene_identity", defaults.GeneIdentity, "Minimum identity of screened genes. Reported only; no samples are removed on it.")
	flag.BoolVar(&notCompleteLineage, "not_complete_lineage", false, "Pass this to keep samples whose sequence type could not be resolved.")
	flag.BoolVar(&complete, "complete", false, "Pass this to output only samples present in every required kind after filtering.")
	flag.StringVar(&require, "require", strings.Join(dataset.DefaultComplete, ","), "Comma-separated kinds that -complete intersects.")
	flag.IntVar(&top, "top", 10, "Number of most common sequence types to summarize.")
	flag.IntVar(&minCount, "min_count", 1, "Minimum number of samples for a sequence type to be summarized.")
	flag.StringVar(&provenancePath, "provenance", "", "(Optional) Path to a sqlite file that will log which samples survived each stage.")
	flag.Parse()

	if data == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	f.CompleteLineage = !notCompleteLineage

	var err error
	if data, err = pfsurvey.ExpandHome(data); err != nil {
		log.Fatalln(err)
	}
	if outdir, err = pfsurvey.ExpandHome(outdir); err != nil {
		log.Fatalln(err)
	}

	var required []string
	if complete {
		required = strings.Split(require, ",")
	}

	if err := run(data, outdir, provenancePath, f, complete, required, top, minCount); err != nil {
		log.Fatalln(err)
	}

	log.Println("Quitting")
}

func run(data, outdir, provenancePath string, f qc.Filter, complete bool, required []string, top, minCount int) error {
	if err := f.Validate(); err != nil {
		return err
	}

	s := survey.New(nil)

	ds, err := s.Read(data)
	if err != nil {
		return err
	}

	if summary, err := f.Summarize(ds, top, minCount); err != nil {
		log.Println("Could not summarize the cohort:", err)
	} else {
		summary.Print(os.Stdout)
	}

	filtered, err := s.Filter(ds, f)
	if err != nil {
		return err
	}

	if complete {
		if err := s.Complete(filtered, required); err != nil {
			return err
		}
	}

	if err := filtered.Write(outdir); err != nil {
		return err
	}
	log.Printf("Wrote %d samples to %s\n", len(filtered.IIDs()), outdir)

	if err := s.Tracker.PrintSteps(os.Stdout); err != nil {
		return err
	}

	if provenancePath == "" {
		return nil
	}

	provenancePath, err = pfsurvey.ExpandHome(provenancePath)
	if err != nil {
		return err
	}
	db, err := provenance.OpenDB(provenancePath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := s.Tracker.Save(db); err != nil {
		return err
	}
	log.Println("Saved provenance for run", s.Tracker.RunID, "to", provenancePath)

	return nil
}
