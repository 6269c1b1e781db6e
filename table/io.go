package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/carbocation/pfx"
)

// Write emits the table as delimited text: a header of IndexLabel followed by
// the columns, then one line per row with the identifier first. Null cells are
// written as empty fields.
func (t *Table) Write(w io.Writer, delim rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim

	if err := cw.Write(append([]string{IndexLabel}, t.Columns...)); err != nil {
		return pfx.Err(err)
	}

	line := make([]string, len(t.Columns)+1)
	for i, row := range t.Rows {
		line[0] = t.Index[i]
		for j, c := range row {
			line[j+1] = Format(c)
		}
		if err := cw.Write(line); err != nil {
			return pfx.Err(err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// Read parses a table written by Write. The first column is taken as the
// identifier regardless of its header. An empty stream yields an empty table.
func Read(r io.Reader, delim rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return New(), nil
	} else if err != nil {
		return nil, pfx.Err(err)
	}
	if len(header) < 1 {
		return nil, fmt.Errorf("table header has no identifier column")
	}

	t := New(header[1:]...)
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, pfx.Err(fmt.Errorf("line %d: %w", line, err))
		}

		if err := t.AppendStrings(record[0], record[1:]...); err != nil {
			return nil, pfx.Err(fmt.Errorf("line %d: %w", line, err))
		}
	}

	return t, nil
}
