package table

import (
	"fmt"

	"gopkg.in/guregu/null.v3"
)

// Groups partitions a table's rows by a key. Keys keeps first-seen order so
// that iteration is deterministic.
type Groups struct {
	Keys   []string
	Tables map[string]*Table
}

func newGroups() Groups {
	return Groups{
		Keys:   make([]string, 0),
		Tables: make(map[string]*Table),
	}
}

func (g *Groups) add(key string, t *Table, id string, row []null.String) {
	sub, exists := g.Tables[key]
	if !exists {
		sub = New(t.Columns...)
		g.Tables[key] = sub
		g.Keys = append(g.Keys, key)
	}
	sub.Index = append(sub.Index, id)
	sub.Rows = append(sub.Rows, append([]null.String{}, row...))
}

// GroupByID groups rows by sample identifier.
func (t *Table) GroupByID() Groups {
	g := newGroups()
	for i, row := range t.Rows {
		g.add(t.Index[i], t, t.Index[i], row)
	}

	return g
}

// GroupBy groups rows by the value of column. Rows with a null key belong to
// no group.
func (t *Table) GroupBy(column string) (Groups, error) {
	col := t.ColumnIndex(column)
	if col < 0 {
		return Groups{}, fmt.Errorf("no column named %s", column)
	}

	return t.GroupByKey(func(row int) null.String { return t.Rows[row][col] }), nil
}

// GroupByKey groups rows by an arbitrary per-row key.
func (t *Table) GroupByKey(key func(row int) null.String) Groups {
	g := newGroups()
	for i, row := range t.Rows {
		k := key(i)
		if !k.Valid {
			continue
		}
		g.add(k.String, t, t.Index[i], row)
	}

	return g
}
