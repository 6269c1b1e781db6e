package table

import "strconv"

// Presence is a boolean matrix of samples (rows) by analysis kind (columns).
type Presence struct {
	IDs   []string
	Kinds []string
	Cells [][]bool
}

// NewPresence fills the matrix with one pass per kind: sets[k] holds the
// identifiers present for Kinds[k].
func NewPresence(ids, kinds []string, sets []map[string]struct{}) Presence {
	p := Presence{
		IDs:   append([]string{}, ids...),
		Kinds: append([]string{}, kinds...),
		Cells: make([][]bool, len(ids)),
	}
	for i := range p.Cells {
		p.Cells[i] = make([]bool, len(kinds))
	}

	for k := range kinds {
		for i, id := range ids {
			_, p.Cells[i][k] = sets[k][id]
		}
	}

	return p
}

// Get reports whether id is present for kind. The second value is false when
// either is not part of the matrix.
func (p Presence) Get(id, kind string) (present bool, known bool) {
	row, col := -1, -1
	for i, v := range p.IDs {
		if v == id {
			row = i
			break
		}
	}
	for k, v := range p.Kinds {
		if v == kind {
			col = k
			break
		}
	}
	if row < 0 || col < 0 {
		return false, false
	}

	return p.Cells[row][col], true
}

// Table renders the matrix as a table of "true"/"false" cells.
func (p Presence) Table() (*Table, error) {
	t := New(p.Kinds...)
	for i, id := range p.IDs {
		values := make([]string, len(p.Kinds))
		for k := range p.Kinds {
			values[k] = strconv.FormatBool(p.Cells[i][k])
		}
		if err := t.AppendStrings(id, values...); err != nil {
			return nil, err
		}
	}

	return t, nil
}
