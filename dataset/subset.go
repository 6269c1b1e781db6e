package dataset

import (
	"fmt"
	"math/rand"

	"github.com/carbocation/pfsurvey/table"
	"gopkg.in/guregu/null.v3"
)

// Subset restricts every table to the given samples. A requested sample that
// a table lacks gets a single row of nulls there, so every table ends up with
// rows for exactly the requested samples. Unless inplace is set, d is left
// alone and a detached copy is returned.
func (d *DataSet) Subset(ids []string, inplace bool) *DataSet {
	sub := d
	if !inplace {
		sub = d.Copy()
	}

	want := make(map[string]struct{}, len(ids))
	ordered := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, exists := want[id]; exists {
			continue
		}
		want[id] = struct{}{}
		ordered = append(ordered, id)
	}

	for _, k := range sub.kinds {
		t := sub.tables[k].Keep(want)
		present := t.IDSet()
		for _, id := range ordered {
			if _, exists := present[id]; !exists {
				t.AppendNull(id)
			}
		}
		sub.tables[k] = t
	}

	sub.Refresh()

	return sub
}

// SelectOptions chooses between the selection policies of Select. Values and
// MinCount are mutually exclusive; Sample requires MinCount.
type SelectOptions struct {
	// Values keeps samples whose column value is one of these.
	Values []string

	// MinCount keeps samples whose column value occurs more than MinCount
	// times in the table. Zero disables the policy.
	MinCount int

	// Sample, with MinCount, randomly keeps at most this many samples per
	// retained value.
	Sample int

	// Rand drives sampling. When nil a fixed seed is used so that repeated
	// selections agree.
	Rand *rand.Rand
}

func (o SelectOptions) validate() error {
	if len(o.Values) > 0 && o.MinCount > 0 {
		return fmt.Errorf("%w: values and minimum count are mutually exclusive", ErrConfiguration)
	}
	if o.Sample > 0 && o.MinCount <= 0 {
		return fmt.Errorf("%w: sampling requires a minimum count", ErrConfiguration)
	}
	if o.MinCount < 0 || o.Sample < 0 {
		return fmt.Errorf("%w: minimum count and sample size must not be negative", ErrConfiguration)
	}

	return nil
}

// Select picks samples by the values of column in kind's table and returns
// the Subset of d holding them. With neither Values nor MinCount, every sample
// in kind's table is kept.
func (d *DataSet) Select(kind, column string, opts SelectOptions) (*DataSet, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	t, exists := d.tables[kind]
	if !exists {
		return nil, fmt.Errorf("%w: no %s results", ErrMissingInput, kind)
	}
	col := t.ColumnIndex(column)
	if col < 0 {
		return nil, fmt.Errorf("%w: %s has no column %s", ErrConfiguration, kind, column)
	}

	var ids []string

	switch {
	case len(opts.Values) > 0:
		allowed := make(map[string]struct{}, len(opts.Values))
		for _, v := range opts.Values {
			allowed[v] = struct{}{}
		}
		ids = t.Filter(func(row int) bool {
			c := t.Rows[row][col]
			_, ok := allowed[c.String]
			return c.Valid && ok
		}).IDs()

	case opts.MinCount > 0:
		counts, err := t.ValueCounts(column)
		if err != nil {
			return nil, err
		}
		sub := t.Filter(func(row int) bool {
			c := t.Rows[row][col]
			return c.Valid && counts[c.String] > opts.MinCount
		})

		if opts.Sample <= 0 {
			ids = sub.IDs()
			break
		}

		rng := opts.Rand
		if rng == nil {
			rng = rand.New(rand.NewSource(1))
		}

		groups, err := sub.GroupBy(column)
		if err != nil {
			return nil, err
		}
		ids = make([]string, 0)
		for _, key := range groups.Keys {
			members := groups.Tables[key].IDs()
			rng.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
			if len(members) > opts.Sample {
				members = members[:opts.Sample]
			}
			ids = append(ids, members...)
		}

	default:
		ids = t.IDs()
	}

	return d.Subset(ids, false), nil
}

// Grouping is one table's rows partitioned by an external classification.
type Grouping struct {
	Kind   string
	Groups table.Groups
}

// GroupBy partitions every table's rows by the value that kind's table holds
// in column for the same sample, e.g. every result grouped by sequence type.
// Rows whose sample has no value are left out. With setIndex, the looked-up
// column is also added to every other table in place.
func (d *DataSet) GroupBy(kind, column string, setIndex bool) ([]Grouping, error) {
	src, exists := d.tables[kind]
	if !exists {
		return nil, fmt.Errorf("%w: no %s results", ErrMissingInput, kind)
	}
	lookup, err := src.Lookup(column)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfiguration, err)
	}

	out := make([]Grouping, 0, len(d.kinds))
	for _, k := range d.kinds {
		t := d.tables[k]

		if k == kind {
			g, err := t.GroupBy(column)
			if err != nil {
				return nil, err
			}
			out = append(out, Grouping{Kind: k, Groups: g})
			continue
		}

		if setIndex {
			values := make([]null.String, t.Len())
			for i, id := range t.Index {
				values[i] = lookup[id]
			}
			if err := t.SetColumn(column, values); err != nil {
				return nil, err
			}
		}

		g := t.GroupByKey(func(row int) null.String { return lookup[t.Index[row]] })
		out = append(out, Grouping{Kind: k, Groups: g})
	}

	return out, nil
}
