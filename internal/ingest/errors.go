package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is matched by every ParseError
	ErrParse = errors.New("input is not tabular data")

	// ErrNoHeader means the input has no header row
	ErrNoHeader = errors.New("missing header row")

	// ErrUnsupportedFormat means the file extension has no reader
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// ParseError reports input that cannot be read as a table
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error on line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrParse) true for any ParseError
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func parseErr(line int, err error) *ParseError {
	return &ParseError{Line: line, Err: err}
}
