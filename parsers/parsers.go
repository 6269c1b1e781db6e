// Package parsers converts one pipeline result file into a table fragment
// with the tool's column schema. Parsers never see the sample identifier; the
// aggregator attaches it afterwards.
package parsers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfsurvey"
	"github.com/carbocation/pfsurvey/table"
)

// Func parses the content of one result file.
type Func func(r io.Reader) (*table.Table, error)

type Format struct {
	Name    string
	Columns []string
	Parse   Func
}

func New(layout string) (Format, error) {
	l, exists := Layouts[layout]
	if !exists {
		return Format{}, fmt.Errorf("Layout %s is not found. Valid layout names include: %s", layout, LayoutNames())
	}

	return l, nil
}

// ParseReader parses r. Any failure is returned as a *ParseError.
func (f Format) ParseReader(r io.Reader) (*table.Table, error) {
	t, err := f.Parse(r)
	if err != nil {
		return nil, f.wrap("", err)
	}

	return t, nil
}

// ParseFile opens path (local, or gs:// when client is set), decompresses it
// if needed and parses it. Any failure is returned as a *ParseError.
func (f Format) ParseFile(ctx context.Context, path string, client *storage.Client) (*table.Table, error) {
	rc, err := pfsurvey.Open(ctx, path, client)
	if err != nil {
		return nil, f.wrap(path, err)
	}
	defer rc.Close()

	t, err := f.Parse(rc)
	if err != nil {
		return nil, f.wrap(path, err)
	}

	return t, nil
}

func (f Format) wrap(path string, err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		out := *pe
		out.Path = path
		out.Format = f.Name
		return &out
	}

	return &ParseError{Path: path, Format: f.Name, Err: err}
}
