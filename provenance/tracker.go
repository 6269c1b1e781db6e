// Package provenance records which samples survived each stage of a survey
// run, for every analysis kind. A Tracker is append-only for the duration of
// a run.
package provenance

import (
	"errors"
	"fmt"
	"sort"

	"github.com/carbocation/pfsurvey/table"
	"github.com/google/uuid"
	"github.com/maruel/natural"
)

// ErrRecorded means a kind already has a snapshot at a stage.
var ErrRecorded = errors.New("stage already recorded")

type Stage int

const (
	Parsed Stage = iota
	Aggregated
	Processed
	Cleaned
	Complete
)

var stageNames = []string{"parsed", "aggregated", "processed", "cleaned", "complete"}

// Stages lists every stage in pipeline order.
func Stages() []Stage {
	return []Stage{Parsed, Aggregated, Processed, Cleaned, Complete}
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

func ParseStage(name string) (Stage, error) {
	for i, n := range stageNames {
		if n == name {
			return Stage(i), nil
		}
	}

	return 0, fmt.Errorf("unknown stage %q", name)
}

type record struct {
	files     int
	snapshots map[Stage][][]string
}

type Tracker struct {
	RunID string

	kinds   []string
	records map[string]*record
}

func New() *Tracker {
	return &Tracker{
		RunID:   uuid.New().String(),
		kinds:   make([]string, 0),
		records: make(map[string]*record),
	}
}

func (t *Tracker) get(kind string) *record {
	r, exists := t.records[kind]
	if !exists {
		r = &record{files: -1, snapshots: make(map[Stage][][]string)}
		t.records[kind] = r
		t.kinds = append(t.kinds, kind)
	}

	return r
}

// Record appends a snapshot of the identifiers that made it through stage.
// Each kind is recorded at most once per stage.
func (t *Tracker) Record(kind string, stage Stage, ids []string) error {
	r := t.get(kind)
	if len(r.snapshots[stage]) > 0 {
		return fmt.Errorf("%s %s: %w", kind, stage, ErrRecorded)
	}
	r.snapshots[stage] = append(r.snapshots[stage], append([]string{}, ids...))

	return nil
}

// RecordFiles notes how many result files were discovered for kind.
func (t *Tracker) RecordFiles(kind string, n int) {
	t.get(kind).files = n
}

// Combine records, for every kind and stage that any of others reached, one
// snapshot holding the concatenation of their latest snapshots. File counts
// are summed. This folds independently tracked batches into one run.
func (t *Tracker) Combine(others ...*Tracker) error {
	for _, o := range others {
		for _, k := range o.kinds {
			t.get(k)
		}
	}

	for _, k := range t.kinds {
		files := -1
		for _, o := range others {
			r, exists := o.records[k]
			if !exists || r.files < 0 {
				continue
			}
			if files < 0 {
				files = 0
			}
			files += r.files
		}
		if files >= 0 {
			t.records[k].files = files
		}

		for _, stage := range Stages() {
			var combined []string
			reached := false
			for _, o := range others {
				ids, ok := o.Snapshot(k, stage)
				if !ok {
					continue
				}
				reached = true
				combined = append(combined, ids...)
			}
			if !reached {
				continue
			}
			if err := t.Record(k, stage, combined); err != nil {
				return err
			}
		}
	}

	return nil
}

// Kinds lists the tracked kinds in order of first record.
func (t *Tracker) Kinds() []string {
	return append([]string{}, t.kinds...)
}

// Snapshot returns the snapshot of kind at stage.
func (t *Tracker) Snapshot(kind string, stage Stage) ([]string, bool) {
	r, exists := t.records[kind]
	if !exists {
		return nil, false
	}

	snaps := r.snapshots[stage]
	if len(snaps) == 0 {
		return nil, false
	}

	return append([]string{}, snaps[len(snaps)-1]...), true
}

// Latest returns kind's snapshot from its furthest recorded stage.
func (t *Tracker) Latest(kind string) ([]string, Stage, bool) {
	stages := Stages()
	for i := len(stages) - 1; i >= 0; i-- {
		if ids, ok := t.Snapshot(kind, stages[i]); ok {
			return ids, stages[i], true
		}
	}

	return nil, 0, false
}

// Survived reports whether id is in kind's snapshot at stage.
func (t *Tracker) Survived(id, kind string, stage Stage) bool {
	ids, ok := t.Snapshot(kind, stage)
	if !ok {
		return false
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}

	return false
}

// IDs returns every identifier seen in any snapshot, in natural order.
func (t *Tracker) IDs() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, k := range t.kinds {
		for _, snaps := range t.records[k].snapshots {
			for _, snap := range snaps {
				for _, id := range snap {
					if _, exists := seen[id]; exists {
						continue
					}
					seen[id] = struct{}{}
					out = append(out, id)
				}
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return natural.Less(out[i], out[j]) })

	return out
}

// Presence tests every known identifier against each kind's latest snapshot
// from its furthest recorded stage.
func (t *Tracker) Presence() table.Presence {
	return t.presence(func(kind string) []string {
		ids, _, _ := t.Latest(kind)
		return ids
	})
}

// PresenceAt tests every known identifier against each kind's latest
// snapshot at stage. Kinds that never reached stage are absent throughout.
func (t *Tracker) PresenceAt(stage Stage) table.Presence {
	return t.presence(func(kind string) []string {
		ids, _ := t.Snapshot(kind, stage)
		return ids
	})
}

func (t *Tracker) presence(snapshot func(kind string) []string) table.Presence {
	sets := make([]map[string]struct{}, len(t.kinds))
	for i, k := range t.kinds {
		ids := snapshot(k)
		sets[i] = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			sets[i][id] = struct{}{}
		}
	}

	return table.NewPresence(t.IDs(), t.kinds, sets)
}
