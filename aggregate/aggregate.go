// Package aggregate merges the per-sample fragments of one analysis kind into
// a single cohort table.
package aggregate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/carbocation/pfsurvey/table"
)

// ErrSchemaMismatch means the fragments of a kind cannot be stacked into one
// table. It is fatal for that kind only.
var ErrSchemaMismatch = errors.New("fragment schema mismatch")

// Transform post-processes a fully aggregated table in place.
type Transform func(t *table.Table) error

// Aggregator stacks fragments for one kind. When Columns is set, every
// fragment must carry exactly those columns in that order; otherwise the
// result holds the outer union of the fragments' columns.
type Aggregator struct {
	Kind      string
	Columns   []string
	Transform Transform
}

// Aggregate tags each fragment's rows with its sample identifier and stacks
// the fragments in identifier order, so that the result does not depend on
// the order in which files were discovered. The transform, if any, runs once
// over the whole table. No fragments yield an empty table.
func (a Aggregator) Aggregate(fragments map[string]*table.Table) (*table.Table, error) {
	ids := make([]string, 0, len(fragments))
	for id, frag := range fragments {
		if frag == nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tagged := make([]*table.Table, 0, len(ids))
	for _, id := range ids {
		frag := fragments[id]
		if a.Columns != nil && !sameColumns(a.Columns, frag.Columns) {
			return nil, fmt.Errorf("%s: sample %s has columns %v, expected %v: %w", a.Kind, id, frag.Columns, a.Columns, ErrSchemaMismatch)
		}

		t := frag.Copy()
		t.Tag(id)
		tagged = append(tagged, t)
	}

	out := table.New(a.Columns...).Concat(tagged...)

	if a.Transform != nil {
		if err := a.Transform(out); err != nil {
			return nil, fmt.Errorf("%s: %w", a.Kind, err)
		}
	}

	return out, nil
}

func sameColumns(want, got []string) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}

	return true
}
