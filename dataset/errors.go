package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrFileOpen is returned when the input cannot be opened or read.
	ErrFileOpen = errors.New("dataset: cannot open input")

	// ErrParse is returned when a row does not decode to exactly two real numbers.
	ErrParse = errors.New("dataset: parse failure")
)

// FileOpenError reports a failure to open or read the named input.
type FileOpenError struct {
	Path string
	Err  error
}

func (e *FileOpenError) Error() string {
	return fmt.Sprintf("dataset: open %q: %v", e.Path, e.Err)
}

// Unwrap exposes both the ErrFileOpen kind and the underlying cause.
func (e *FileOpenError) Unwrap() []error { return []error{ErrFileOpen, e.Err} }

// ParseError reports a malformed row.
type ParseError struct {
	Line int    // 1-based line number
	Text string // offending row
	Err  error  // underlying cause, may be nil
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dataset: line %d %q: %v", e.Line, e.Text, e.Err)
	}
	return fmt.Sprintf("dataset: line %d %q: expected two comma-separated numbers", e.Line, e.Text)
}

// Unwrap exposes both the ErrParse kind and the underlying cause.
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}

var (
	errFieldCount = errors.New("expected exactly two fields")
	errNotFinite  = errors.New("coordinate is not finite")
)
