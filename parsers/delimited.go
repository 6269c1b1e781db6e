package parsers

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"

	"github.com/carbocation/pfx"
	"github.com/carbocation/pfsurvey/table"
)

// readTabbed reads every record of a tab-delimited tool output. Width checks
// are left to the callers since some layouts infer their width.
func readTabbed(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	records := make([][]string, 0)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, pfx.Err(err)
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, malformed(0, "no records")
	}

	return records, nil
}

// fixedWidth builds a fragment from records that must all have one field per
// column. firstLine is the 1-based file line of records[0].
func fixedWidth(columns []string, records [][]string, firstLine int) (*table.Table, error) {
	t := table.New(columns...)
	for i, record := range records {
		if len(record) != len(columns) {
			return nil, malformed(firstLine+i, "expected %d fields, found %d", len(columns), len(record))
		}
		if err := t.AppendStrings("", record...); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func parseMash(r io.Reader) (*table.Table, error) {
	records, err := readTabbed(r)
	if err != nil {
		return nil, err
	}

	return fixedWidth(MashColumns, records, 1)
}

func parseKraken(r io.Reader) (*table.Table, error) {
	records, err := readTabbed(r)
	if err != nil {
		return nil, err
	}

	t, err := fixedWidth(KrakenColumns, records, 1)
	if err != nil {
		return nil, err
	}

	// The percentage drives every purity decision downstream, so refuse
	// reports where it is not numeric
	for i := range t.Rows {
		if _, ok := t.Float(i, "percent"); !ok {
			return nil, malformed(i+1, "percent %q is not numeric", table.Format(t.Value(i, "percent")))
		}
	}

	return t, nil
}

// parseAbricate skips the tool's own header line ("#FILE\tSEQUENCE...") and
// applies our column names.
func parseAbricate(r io.Reader) (*table.Table, error) {
	records, err := readTabbed(r)
	if err != nil {
		return nil, err
	}

	return fixedWidth(AbricateColumns, records[1:], 2)
}

// parseMlst names the first three fields and numbers the remaining allele
// fields from 1, since their count depends on the typing scheme.
func parseMlst(r io.Reader) (*table.Table, error) {
	records, err := readTabbed(r)
	if err != nil {
		return nil, err
	}

	width := len(records[0])
	if width < len(MlstColumns) {
		return nil, malformed(1, "expected at least %d fields, found %d", len(MlstColumns), width)
	}

	columns := append([]string{}, MlstColumns...)
	for i := 1; i <= width-len(MlstColumns); i++ {
		columns = append(columns, strconv.Itoa(i))
	}

	return fixedWidth(columns, records, 1)
}

// parseKleborate takes its columns from the header line.
func parseKleborate(r io.Reader) (*table.Table, error) {
	records, err := readTabbed(r)
	if err != nil {
		return nil, err
	}

	return fixedWidth(records[0], records[1:], 2)
}
