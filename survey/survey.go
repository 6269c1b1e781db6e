package survey

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfsurvey"
	"github.com/carbocation/pfsurvey/aggregate"
	"github.com/carbocation/pfsurvey/dataset"
	"github.com/carbocation/pfsurvey/provenance"
	"github.com/carbocation/pfsurvey/table"
)

// Default directories, relative to a result root, of the assemblies and
// trimmed reads.
const (
	FastaDir = "skesa"
	FastqDir = "trimmomatic"
)

// Survey runs the collection and filtering of one pipeline run. It is not safe
// for concurrent use.
type Survey struct {
	Processes []Process

	// Client reads gs:// results. Local paths need no client.
	Client *storage.Client

	// Retain, when set, keeps only result files whose base name contains it.
	Retain string

	FastaDir string
	FastqDir string

	Tracker *provenance.Tracker
	Report  Report
}

func New(client *storage.Client) *Survey {
	return &Survey{
		Processes: Processes(),
		Client:    client,
		FastaDir:  FastaDir,
		FastqDir:  FastqDir,
		Tracker:   provenance.New(),
		Report:    newReport(),
	}
}

// Discover lists every process's files under root.
func (s *Survey) Discover(ctx context.Context, root string) (map[string][]string, error) {
	files, err := Discover(ctx, root, s.Processes, s.Client)
	if err != nil {
		return nil, err
	}

	if s.Retain != "" {
		for k, v := range files {
			files[k] = pfsurvey.RetainFiles(v, s.Retain)
		}
	}

	for _, p := range s.Processes {
		s.Tracker.RecordFiles(p.Kind, len(files[p.Kind]))
	}

	return files, nil
}

// ParseAndAggregate parses each file of p and aggregates the fragments. Files
// that fail to parse are skipped and the kind is reported as degraded. No
// files yield an empty table. An aggregation failure is returned and the kind
// is reported as omitted.
func (s *Survey) ParseAndAggregate(ctx context.Context, p Process, files []string) (*table.Table, error) {
	if len(files) == 0 {
		s.Report.NoFiles = append(s.Report.NoFiles, p.Kind)
	}

	fragments := make(map[string]*table.Table, len(files))
	for _, file := range files {
		frag, err := p.Parser.ParseFile(ctx, file, s.Client)
		if err != nil {
			log.Println(err)
			s.Report.Degraded[p.Kind] = append(s.Report.Degraded[p.Kind], err)
			continue
		}

		fragments[pfsurvey.SampleID(file, p.Remove...)] = frag
	}

	ids := make([]string, 0, len(fragments))
	for id := range fragments {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if err := s.Tracker.Record(p.Kind, provenance.Parsed, ids); err != nil {
		return nil, err
	}

	out, err := p.Aggregator.Aggregate(fragments)
	if err != nil {
		log.Println("Could not process:", p.Kind)
		s.Report.Omitted[p.Kind] = err
		return nil, err
	}

	// Fragments without rows (e.g. no gene hits) leave no sample behind
	if err := s.Tracker.Record(p.Kind, provenance.Aggregated, out.IDs()); err != nil {
		return nil, err
	}
	if err := s.Tracker.Record(p.Kind, provenance.Processed, out.IDs()); err != nil {
		return nil, err
	}

	return out, nil
}

// Assemble builds a data set from per-kind tables. Kinds are stored in
// process order; nil tables (omitted kinds) get no slot.
func (s *Survey) Assemble(tables map[string]*table.Table) *dataset.DataSet {
	kinds := make([]string, 0, len(tables))
	for _, k := range Kinds(s.Processes) {
		if t, exists := tables[k]; exists && t != nil {
			kinds = append(kinds, k)
		}
	}
	extra := make([]string, 0)
	for k, t := range tables {
		if t == nil || contains(kinds, k) {
			continue
		}
		extra = append(extra, k)
	}
	sort.Strings(extra)
	kinds = append(kinds, extra...)

	ds := dataset.New(kinds...)
	for _, k := range kinds {
		if err := ds.Set(k, tables[k]); err != nil {
			// Only the derived identifier list is refused
			log.Println(err)
		}
	}

	return ds
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// Collect discovers, parses and aggregates every process under root, then
// indexes the assemblies and reads found there. Only a missing root is
// fatal; per-kind problems end up in s.Report.
func (s *Survey) Collect(ctx context.Context, root string) (*dataset.DataSet, error) {
	log.Println("Processing:", root)

	files, err := s.Discover(ctx, root)
	if err != nil {
		return nil, err
	}

	tables := make(map[string]*table.Table, len(s.Processes))
	for _, p := range s.Processes {
		t, err := s.ParseAndAggregate(ctx, p, files[p.Kind])
		if errors.Is(err, aggregate.ErrSchemaMismatch) {
			continue
		} else if err != nil {
			log.Printf("%s: %v\n", p.Kind, err)
			continue
		}
		tables[p.Kind] = t
	}

	if len(s.Report.NoFiles) > 0 {
		log.Printf("No result files for: %s\n", strings.Join(s.Report.NoFiles, ", "))
	}

	ds := s.Assemble(tables)

	if pfsurvey.IsGS(root) || (s.FastaDir == "" && s.FastqDir == "") {
		return ds, nil
	}
	if err := ds.AddFilePaths(root, s.FastaDir, s.FastqDir); err != nil {
		return nil, err
	}

	return ds, nil
}

// Filter returns a copy of ds with everything f flags removed, leaving ds
// alone. The surviving samples of every kind are recorded as cleaned, so a
// survey filters once.
func (s *Survey) Filter(ds *dataset.DataSet, f Filter) (*dataset.DataSet, error) {
	rs, err := f.RemovalSet(ds)
	if err != nil {
		return nil, err
	}

	out := ds.Copy()
	out.Remove(rs, false)

	removed := make(map[string]struct{})
	for _, ids := range rs {
		for _, id := range ids {
			removed[id] = struct{}{}
		}
	}
	log.Printf("Cleaned %d genomes\n", len(removed))

	if err := s.record(out, provenance.Cleaned); err != nil {
		return nil, err
	}

	return out, nil
}

// Complete restricts ds to the samples present in every required kind and
// records the result.
func (s *Survey) Complete(ds *dataset.DataSet, required []string) error {
	if err := ds.Complete(required); err != nil {
		return err
	}

	log.Printf("Total number of complete genomes: %d\n", len(ds.IIDs()))

	return s.record(ds, provenance.Complete)
}

func (s *Survey) record(ds *dataset.DataSet, stage provenance.Stage) error {
	for _, k := range ds.AnalysisKinds() {
		t, _ := ds.Table(k)
		if err := s.Tracker.Record(k, stage, t.IDs()); err != nil {
			return err
		}
	}

	return nil
}

// Read loads a previously collected data set, for filtering in a later run.
// Every kind's samples are recorded as processed.
func (s *Survey) Read(dir string) (*dataset.DataSet, error) {
	ds := dataset.New()
	if err := ds.Read(dir); err != nil {
		return nil, fmt.Errorf("reading collected results: %w", err)
	}

	if err := s.record(ds, provenance.Processed); err != nil {
		return nil, err
	}

	return ds, nil
}
