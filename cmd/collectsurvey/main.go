// collectsurvey parses the per-sample results of a survey pipeline run into
// one table per analysis kind. Results may be local or in Google Storage
// (gs://bucket/path), and batched runs (batch_*/analysis) are summed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfsurvey"
	_ "github.com/carbocation/pfsurvey/compileinfoprint"
	"github.com/carbocation/pfsurvey/dataset"
	"github.com/carbocation/pfsurvey/provenance"
	"github.com/carbocation/pfsurvey/survey"
)

func main() {
	var data, outdir, retain, fastaDir, fastqDir, provenancePath, stepsPath string
	var batch bool
	flag.StringVar(&data, "data", "", "Directory containing the result data from the pipeline. May be a gs:// path.")
	flag.StringVar(&outdir, "outdir", "pf-survey-result", "Output directory for the collected tables.")
	flag.BoolVar(&batch, "batch", false, "Pass this if data holds a batched run (a directory of batch_*/analysis directories).")
	flag.StringVar(&retain, "retain", "", "(Optional) Only parse result files whose name contains this string.")
	flag.StringVar(&fastaDir, "fasta_dir", survey.FastaDir, "Directory, relative to the results, holding assemblies. Empty to skip.")
	flag.StringVar(&fastqDir, "fastq_dir", survey.FastqDir, "Directory, relative to the results, holding trimmed reads. Empty to skip.")
	flag.StringVar(&provenancePath, "provenance", "", "(Optional) Path to a sqlite file that will log which samples survived each stage.")
	flag.StringVar(&stepsPath, "steps", "", "(Optional) Path to a CSV file that will hold the per-kind stage counts. Keep it outside of outdir.")
	flag.Parse()

	if data == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	var err error
	if data, err = pfsurvey.ExpandHome(data); err != nil {
		log.Fatalln(err)
	}
	if outdir, err = pfsurvey.ExpandHome(outdir); err != nil {
		log.Fatalln(err)
	}

	if err := run(data, outdir, retain, fastaDir, fastqDir, provenancePath, stepsPath, batch); err != nil {
		log.Fatalln(err)
	}

	log.Println("Quitting")
}

func run(data, outdir, retain, fastaDir, fastqDir, provenancePath, stepsPath string, batch bool) error {
	ctx := context.Background()

	var client *storage.Client
	if pfsurvey.IsGS(data) {
		if batch {
			return fmt.Errorf("batched runs are only collected from local directories, not %s", data)
		}

		var err error
		client, err = storage.NewClient(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
	}

	s := survey.New(client)
	s.Retain = retain
	s.FastaDir = fastaDir
	s.FastqDir = fastqDir

	var ds *dataset.DataSet
	var err error
	if batch {
		ds, err = s.CollectBatches(ctx, data, filepath.Join(outdir, "batch_data"))
	} else {
		ds, err = s.Collect(ctx, strings.TrimSuffix(data, "/"))
	}
	if err != nil {
		return err
	}

	s.Report.Print(os.Stderr)

	if err := ds.Write(outdir); err != nil {
		return err
	}
	log.Printf("Wrote %d samples to %s\n", len(ds.IIDs()), outdir)

	if err := s.Tracker.PrintSteps(os.Stdout); err != nil {
		return err
	}

	if stepsPath != "" {
		if err := writeSteps(s.Tracker, stepsPath); err != nil {
			return err
		}
	}

	if provenancePath == "" {
		return nil
	}

	return saveProvenance(s.Tracker, provenancePath)
}

func saveProvenance(tracker *provenance.Tracker, path string) error {
	path, err := pfsurvey.ExpandHome(path)
	if err != nil {
		return err
	}

	db, err := provenance.OpenDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := tracker.Save(db); err != nil {
		return err
	}
	log.Println("Saved provenance for run", tracker.RunID, "to", path)

	return nil
}

func writeSteps(tracker *provenance.Tracker, path string) error {
	path, err := pfsurvey.ExpandHome(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := tracker.WriteSteps(f); err != nil {
		return err
	}

	return f.Close()
}
