package aggregate

import (
	"strings"

	"github.com/carbocation/pfsurvey/table"
	"gopkg.in/guregu/null.v3"
)

// StripAlleleSuffix reduces gene names such as "blaZ_32" to "blaZ": everything
// from the first underscore on is dropped.
func StripAlleleSuffix(column string) Transform {
	return mapColumn(column, func(s string) string {
		return strings.Split(s, "_")[0]
	})
}

// TrimSpace removes the indentation kraken uses to draw its taxonomy tree.
func TrimSpace(column string) Transform {
	return mapColumn(column, strings.TrimSpace)
}

// Chain runs transforms in order, stopping at the first failure.
func Chain(transforms ...Transform) Transform {
	return func(t *table.Table) error {
		for _, tr := range transforms {
			if err := tr(t); err != nil {
				return err
			}
		}
		return nil
	}
}

func mapColumn(column string, f func(string) string) Transform {
	return func(t *table.Table) error {
		if t.Empty() && !t.HasColumn(column) {
			return nil
		}

		return t.Map(column, func(c null.String) null.String {
			if !c.Valid {
				return c
			}
			return table.Cell(f(c.String))
		})
	}
}
