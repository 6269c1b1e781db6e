package provenance

import (
	"fmt"
	"strings"
	"time"

	"github.com/carbocation/pfsurvey/compileinfo"
	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS run (
	run_id TEXT PRIMARY KEY,
	created TEXT NOT NULL,
	build TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS kind (
	run_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	kind TEXT NOT NULL,
	files INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshot (
	run_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	stage TEXT NOT NULL,
	seq INTEGER NOT NULL,
	size INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS sample (
	run_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	stage TEXT NOT NULL,
	seq INTEGER NOT NULL,
	position INTEGER NOT NULL,
	sample_id TEXT NOT NULL
);`

type kindRow struct {
	Position int    `db:"position"`
	Kind     string `db:"kind"`
	Files    int    `db:"files"`
}

type sampleRow struct {
	Kind     string `db:"kind"`
	Stage    string `db:"stage"`
	Seq      int    `db:"seq"`
	SampleID string `db:"sample_id"`
}

type snapshotRow struct {
	Kind  string `db:"kind"`
	Stage string `db:"stage"`
	Seq   int    `db:"seq"`
	Size  int    `db:"size"`
}

// OpenDB opens (creating if needed) a sqlite provenance log at path.
func OpenDB(path string) (*sqlx.DB, error) {
	// URI filenames have to begin with 'file:'; see
	// https://www.sqlite.org/c3ref/open.html
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, pfx.Err(err)
	}

	return db, nil
}

// Save persists every snapshot of the run under t.RunID.
func (t *Tracker) Save(db *sqlx.DB) error {
	tx, err := db.Beginx()
	if err != nil {
		return pfx.Err(err)
	}

	if err := t.save(tx); err != nil {
		tx.Rollback()
		return err
	}

	return pfx.Err(tx.Commit())
}

func (t *Tracker) save(tx *sqlx.Tx) error {
	if _, err := tx.Exec("INSERT INTO run (run_id, created, build) VALUES (?, ?, ?)", t.RunID, time.Now().UTC().Format(time.RFC3339), compileinfo.Get().Short()); err != nil {
		return pfx.Err(err)
	}

	for i, k := range t.kinds {
		r := t.records[k]
		if _, err := tx.Exec("INSERT INTO kind (run_id, position, kind, files) VALUES (?, ?, ?, ?)", t.RunID, i, k, r.files); err != nil {
			return pfx.Err(err)
		}

		for _, stage := range Stages() {
			for seq, snap := range r.snapshots[stage] {
				if _, err := tx.Exec("INSERT INTO snapshot (run_id, kind, stage, seq, size) VALUES (?, ?, ?, ?, ?)", t.RunID, k, stage.String(), seq, len(snap)); err != nil {
					return pfx.Err(err)
				}
				for pos, id := range snap {
					if _, err := tx.Exec("INSERT INTO sample (run_id, kind, stage, seq, position, sample_id) VALUES (?, ?, ?, ?, ?, ?)", t.RunID, k, stage.String(), seq, pos, id); err != nil {
						return pfx.Err(err)
					}
				}
			}
		}
	}

	return nil
}

// Load rebuilds the tracker saved under runID.
func Load(db *sqlx.DB, runID string) (*Tracker, error) {
	kinds := []kindRow{}
	if err := db.Select(&kinds, "SELECT position, kind, files FROM kind WHERE run_id=? ORDER BY position ASC", runID); err != nil {
		return nil, pfx.Err(err)
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no provenance recorded for run %s", runID)
	}

	snaps := []snapshotRow{}
	if err := db.Select(&snaps, "SELECT kind, stage, seq, size FROM snapshot WHERE run_id=? ORDER BY kind, stage, seq ASC", runID); err != nil {
		return nil, pfx.Err(err)
	}

	samples := []sampleRow{}
	if err := db.Select(&samples, "SELECT kind, stage, seq, sample_id FROM sample WHERE run_id=? ORDER BY kind, stage, seq, position ASC", runID); err != nil {
		return nil, pfx.Err(err)
	}

	t := &Tracker{
		RunID:   runID,
		kinds:   make([]string, 0, len(kinds)),
		records: make(map[string]*record, len(kinds)),
	}
	for _, k := range kinds {
		t.get(k.Kind).files = k.Files
	}

	type key struct {
		kind  string
		stage string
		seq   int
	}
	members := make(map[key][]string)
	for _, s := range samples {
		k := key{s.Kind, s.Stage, s.Seq}
		members[k] = append(members[k], s.SampleID)
	}

	// Snapshot sequence numbers are dense per kind and stage, so appending in
	// seq order restores the recorded lists.
	for _, s := range snaps {
		stage, err := ParseStage(s.Stage)
		if err != nil {
			return nil, pfx.Err(err)
		}
		ids := members[key{s.Kind, s.Stage, s.Seq}]
		if len(ids) != s.Size {
			return nil, fmt.Errorf("run %s: %s %s snapshot %d has %d samples, expected %d", runID, s.Kind, s.Stage, s.Seq, len(ids), s.Size)
		}
		r := t.get(s.Kind)
		r.snapshots[stage] = append(r.snapshots[stage], append([]string{}, ids...))
	}

	return t, nil
}
