package dataset

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfsurvey"
	"github.com/carbocation/pfsurvey/table"
	"github.com/carbocation/pfx"
)

// Extension is appended to the kind name to form each table's file name
const Extension = ".csv"

// Write persists every table, plus the identifier list, as one comma-delimited
// file per kind inside dir.
func (d *DataSet) Write(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return pfx.Err(err)
	}

	write := func(kind string, t *table.Table) error {
		f, err := os.Create(filepath.Join(dir, kind+Extension))
		if err != nil {
			return pfx.Err(err)
		}

		if err := t.Write(f, ','); err != nil {
			f.Close()
			return fmt.Errorf("%s: %w", kind, err)
		}

		return pfx.Err(f.Close())
	}

	for _, k := range d.kinds {
		if err := write(k, d.tables[k]); err != nil {
			return err
		}
	}

	iid, err := d.IIDTable()
	if err != nil {
		return err
	}

	return write(KindIID, iid)
}

// Read loads every table file in dir into the slot named by its file name.
// Files may be comma- or tab-delimited. The identifier list is recomputed
// rather than read.
func (d *DataSet) Read(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrMissingInput, dir)
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*"+Extension))
	if err != nil {
		return pfx.Err(err)
	}

	for _, path := range paths {
		kind := strings.TrimSuffix(filepath.Base(path), Extension)
		if kind == KindIID {
			continue
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return pfx.Err(err)
		}

		delim := pfsurvey.DetermineDelimiterBytes(content, ',')
		t, err := table.Read(bytes.NewReader(content), delim)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		d.set(kind, t)
	}

	if len(paths) == 0 {
		log.Printf("No %s tables found in %s\n", Extension, dir)
	}

	d.Refresh()

	return nil
}
