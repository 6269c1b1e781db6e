package parsers

import (
	"io"
	"strings"

	"github.com/carbocation/pfsurvey/table"
	"gopkg.in/guregu/null.v3"
)

func firstKey(r io.Reader, key string) (interface{}, error) {
	doc, err := DecodeOrdered(r)
	if err != nil {
		return nil, err
	}

	found := FindKey(doc, key)
	if len(found) == 0 {
		return nil, malformed(0, "no %q entry in report", key)
	}

	return found[0], nil
}

// parseMykrobeLineage yields one row per lineage named in the first lineage
// entry of the report: the keys of an object, or the members of a list.
func parseMykrobeLineage(r io.Reader) (*table.Table, error) {
	entry, err := firstKey(r, "lineage")
	if err != nil {
		return nil, err
	}

	t := table.New("lineage")
	switch lineage := entry.(type) {
	case *Object:
		for _, k := range lineage.Keys {
			if err := t.AppendStrings("", k); err != nil {
				return nil, err
			}
		}
	case []interface{}:
		for _, item := range lineage {
			s, ok := scalarString(item)
			if !ok {
				return nil, malformed(0, "lineage list holds a non-scalar value")
			}
			if err := t.AppendStrings("", s); err != nil {
				return nil, err
			}
		}
	default:
		return nil, malformed(0, "lineage entry is neither an object nor a list")
	}

	return t, nil
}

type drugCall struct {
	Drug     string
	Predict  null.String
	CalledBy null.String
}

// susceptibility extracts, per drug and in report order, the predicted
// phenotype and the comma-joined variants or genes that called it.
func susceptibility(r io.Reader) ([]drugCall, error) {
	entry, err := firstKey(r, "susceptibility")
	if err != nil {
		return nil, err
	}

	drugs, ok := entry.(*Object)
	if !ok {
		return nil, malformed(0, "susceptibility entry is not an object")
	}

	out := make([]drugCall, 0, len(drugs.Keys))
	for _, drug := range drugs.Keys {
		call, ok := drugs.Values[drug].(*Object)
		if !ok {
			return nil, malformed(0, "susceptibility for %s is not an object", drug)
		}

		dc := drugCall{Drug: drug}

		predict, exists := call.Get("predict")
		if !exists {
			return nil, malformed(0, "susceptibility for %s has no prediction", drug)
		}
		if s, ok := scalarString(predict); ok {
			dc.Predict = table.Cell(s)
		}

		if calledBy, exists := call.Get("called_by"); exists {
			if cb, ok := calledBy.(*Object); ok && len(cb.Keys) > 0 {
				dc.CalledBy = null.StringFrom(strings.Join(cb.Keys, ","))
			}
		}

		out = append(out, dc)
	}

	return out, nil
}

// parseMykrobePhenotype yields a single row with one column per drug.
func parseMykrobePhenotype(r io.Reader) (*table.Table, error) {
	calls, err := susceptibility(r)
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, len(calls))
	row := make([]null.String, 0, len(calls))
	for _, c := range calls {
		columns = append(columns, c.Drug)
		row = append(row, c.Predict)
	}

	t := table.New(columns...)
	return t, t.Append("", row)
}

// parseMykrobeGenotype yields a single row with one column per drug holding
// the calling genotypes, null where the drug was not called.
func parseMykrobeGenotype(r io.Reader) (*table.Table, error) {
	calls, err := susceptibility(r)
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, len(calls))
	row := make([]null.String, 0, len(calls))
	for _, c := range calls {
		columns = append(columns, c.Drug)
		row = append(row, c.CalledBy)
	}

	t := table.New(columns...)
	return t, t.Append("", row)
}
