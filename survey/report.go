package survey

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ErrNoFiles marks a kind for which discovery found nothing. The kind still
// gets an empty table.
var ErrNoFiles = errors.New("no result files found")

// Report collects the per-kind problems of a run. None of them stop the run.
type Report struct {
	// NoFiles lists kinds with nothing to parse.
	NoFiles []string

	// Degraded holds, per kind, the files that could not be parsed. Each
	// error is a *parsers.ParseError.
	Degraded map[string][]error

	// Omitted holds kinds whose fragments could not be aggregated.
	Omitted map[string]error
}

func newReport() Report {
	return Report{
		NoFiles:  make([]string, 0),
		Degraded: make(map[string][]error),
		Omitted:  make(map[string]error),
	}
}

// Err returns the problem recorded for kind, if any.
func (r Report) Err(kind string) error {
	if err, exists := r.Omitted[kind]; exists {
		return err
	}
	if errs := r.Degraded[kind]; len(errs) > 0 {
		return fmt.Errorf("%s: %d files could not be parsed: %w", kind, len(errs), errs[0])
	}
	for _, k := range r.NoFiles {
		if k == kind {
			return fmt.Errorf("%s: %w", kind, ErrNoFiles)
		}
	}

	return nil
}

// OK reports whether the run had no problems at all.
func (r Report) OK() bool {
	return len(r.NoFiles) == 0 && len(r.Degraded) == 0 && len(r.Omitted) == 0
}

// merge folds in the report of another run, such as another batch.
func (r *Report) merge(other Report) {
	for _, k := range other.NoFiles {
		found := false
		for _, v := range r.NoFiles {
			if v == k {
				found = true
				break
			}
		}
		if !found {
			r.NoFiles = append(r.NoFiles, k)
		}
	}
	for k, errs := range other.Degraded {
		r.Degraded[k] = append(r.Degraded[k], errs...)
	}
	for k, err := range other.Omitted {
		if _, exists := r.Omitted[k]; !exists {
			r.Omitted[k] = err
		}
	}
}

func (r Report) Print(w io.Writer) {
	if r.OK() {
		fmt.Fprintln(w, "All kinds collected without problems")
		return
	}

	if len(r.NoFiles) > 0 {
		fmt.Fprintf(w, "No files: %s\n", strings.Join(r.NoFiles, ", "))
	}

	degraded := make([]string, 0, len(r.Degraded))
	for k := range r.Degraded {
		degraded = append(degraded, k)
	}
	sort.Strings(degraded)
	for _, k := range degraded {
		fmt.Fprintf(w, "Degraded: %s (%d files skipped)\n", k, len(r.Degraded[k]))
		for _, err := range r.Degraded[k] {
			fmt.Fprintf(w, "\t%v\n", err)
		}
	}

	omitted := make([]string, 0, len(r.Omitted))
	for k := range r.Omitted {
		omitted = append(omitted, k)
	}
	sort.Strings(omitted)
	for _, k := range omitted {
		fmt.Fprintf(w, "Omitted: %s: %v\n", k, r.Omitted[k])
	}
}
