package survey

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"

	"github.com/carbocation/pfsurvey/dataset"
	"github.com/carbocation/pfsurvey/provenance"
	"github.com/carbocation/pfx"
	"github.com/maruel/natural"
)

// BatchGlob matches the batch directories of a batched run.
const BatchGlob = "batch_*"

// BatchDir is the directory inside each batch holding its results.
const BatchDir = "analysis"

// Batches lists the result directories of a batched run under root, in
// natural order.
func Batches(root string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(root, BatchGlob))
	if err != nil {
		return nil, pfx.Err(err)
	}
	sort.SliceStable(matches, func(i, j int) bool { return natural.Less(matches[i], matches[j]) })

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.Join(m, BatchDir))
	}

	return out, nil
}

// CollectBatches collects every batch under root and adds them together.
// When batchOut is set, each batch is also written to batchOut/<batch name>.
// Batches must hold distinct samples.
func (s *Survey) CollectBatches(ctx context.Context, root, batchOut string) (*dataset.DataSet, error) {
	dirs, err := Batches(root)
	if err != nil {
		return nil, err
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("%w: no %s directories in %s", dataset.ErrMissingInput, BatchGlob, root)
	}

	var combined *dataset.DataSet
	trackers := make([]*provenance.Tracker, 0, len(dirs))
	for _, dir := range dirs {
		batch := &Survey{
			Processes: s.Processes,
			Client:    s.Client,
			Retain:    s.Retain,
			FastaDir:  s.FastaDir,
			FastqDir:  s.FastqDir,
			Tracker:   provenance.New(),
			Report:    newReport(),
		}

		ds, err := batch.Collect(ctx, dir)
		if err != nil {
			return nil, err
		}
		trackers = append(trackers, batch.Tracker)
		s.Report.merge(batch.Report)

		name := filepath.Base(filepath.Dir(dir))
		log.Printf("%s: %d assemblies\n", name, fastaCount(ds))

		if batchOut != "" {
			if err := ds.Write(filepath.Join(batchOut, name)); err != nil {
				return nil, err
			}
		}

		if combined == nil {
			combined = ds
			continue
		}
		if err := combined.Add(ds); err != nil {
			return nil, fmt.Errorf("adding %s: %w", name, err)
		}
	}

	if err := s.Tracker.Combine(trackers...); err != nil {
		return nil, err
	}

	log.Printf("Combined %d batches: %d assemblies\n", len(dirs), fastaCount(combined))

	return combined, nil
}

func fastaCount(ds *dataset.DataSet) int {
	t, exists := ds.Table(dataset.KindFasta)
	if !exists {
		return 0
	}
	return t.Len()
}
