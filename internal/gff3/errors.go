package gff3

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedLine marks any line the parser cannot interpret.
	ErrMalformedLine = errors.New("malformed line")
	// ErrColumnCount is returned when a feature line does not have 9 columns.
	ErrColumnCount = errors.New("feature line must have 9 tab-separated columns")
	// ErrInvalidNumber is returned for a non-numeric start, end or score.
	ErrInvalidNumber = errors.New("invalid number")
)

// MalformedLineError reports an unparseable line with its 1-based number.
type MalformedLineError struct {
	Line int
	Text string
	Err  error
}

func (e *MalformedLineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("line %d: GFF3 parse error, cannot parse %q", e.Line, e.Text)
	}
	return fmt.Sprintf("line %d: GFF3 parse error, cannot parse %q: %v", e.Line, e.Text, e.Err)
}

func (e *MalformedLineError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedLine}
	}
	return []error{ErrMalformedLine, e.Err}
}
