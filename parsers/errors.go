package parsers

import (
	"errors"
	"fmt"
)

// ErrMalformed is wrapped by every ParseError raised for content that does
// not match the expected layout (as opposed to I/O failures).
var ErrMalformed = errors.New("malformed record")

// ParseError reports a single result file that could not be parsed. Callers
// decide whether to skip the file or abandon the whole kind.
type ParseError struct {
	Path   string
	Format string
	Line   int // 1-based; 0 when the failure is not tied to a line
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: parsing %s line %d: %v", e.Format, e.Path, e.Line, e.Err)
	}

	return fmt.Sprintf("%s: parsing %s: %v", e.Format, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func malformed(line int, format string, args ...interface{}) error {
	return &ParseError{Line: line, Err: fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))}
}
