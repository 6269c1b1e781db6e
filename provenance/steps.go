package provenance

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"gopkg.in/guregu/null.v3"
)

// Step summarizes one kind's progress through the pipeline. Counts are the
// sizes of the latest snapshot per stage; stages never reached are null.
type Step struct {
	Kind       string
	Files      null.Int
	Parsed     null.Int
	Aggregated null.Int
	Processed  null.Int
	Cleaned    null.Int
	Complete   null.Int
}

type stepRow struct {
	Kind       string `csv:"kind"`
	Files      string `csv:"files"`
	Parsed     string `csv:"parsed"`
	Aggregated string `csv:"aggregated"`
	Processed  string `csv:"processed"`
	Cleaned    string `csv:"cleaned"`
	Complete   string `csv:"complete"`
}

func (t *Tracker) count(kind string, stage Stage) null.Int {
	ids, ok := t.Snapshot(kind, stage)
	if !ok {
		return null.Int{}
	}

	return null.IntFrom(int64(len(ids)))
}

// Steps returns one Step per tracked kind, in order of first record.
func (t *Tracker) Steps() []Step {
	out := make([]Step, 0, len(t.kinds))
	for _, k := range t.kinds {
		files := null.Int{}
		if n := t.records[k].files; n >= 0 {
			files = null.IntFrom(int64(n))
		}

		out = append(out, Step{
			Kind:       k,
			Files:      files,
			Parsed:     t.count(k, Parsed),
			Aggregated: t.count(k, Aggregated),
			Processed:  t.count(k, Processed),
			Cleaned:    t.count(k, Cleaned),
			Complete:   t.count(k, Complete),
		})
	}

	return out
}

func cell(v null.Int) string {
	if !v.Valid {
		return "null"
	}
	return strconv.FormatInt(v.Int64, 10)
}

func (s Step) row() stepRow {
	return stepRow{
		Kind:       s.Kind,
		Files:      cell(s.Files),
		Parsed:     cell(s.Parsed),
		Aggregated: cell(s.Aggregated),
		Processed:  cell(s.Processed),
		Cleaned:    cell(s.Cleaned),
		Complete:   cell(s.Complete),
	}
}

// PrintSteps writes the step summary as an aligned plain-text table.
func (t *Tracker) PrintSteps(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "kind\tfiles\tparsed\taggregated\tprocessed\tcleaned\tcomplete")
	for _, s := range t.Steps() {
		r := s.row()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", r.Kind, r.Files, r.Parsed, r.Aggregated, r.Processed, r.Cleaned, r.Complete)
	}

	return pfx.Err(tw.Flush())
}

// WriteSteps writes the step summary as CSV.
func (t *Tracker) WriteSteps(w io.Writer) error {
	steps := t.Steps()
	rows := make([]stepRow, 0, len(steps))
	for _, s := range steps {
		rows = append(rows, s.row())
	}

	return pfx.Err(gocsv.Marshal(&rows, w))
}
