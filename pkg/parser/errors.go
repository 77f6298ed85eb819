package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceNotFound is returned when a log file does not exist.
	ErrSourceNotFound = errors.New("log file not found")

	// ErrLineTooLong is wrapped by the ParseError of a line above MaxLineSize.
	ErrLineTooLong = errors.New("line too long")

	// ErrStreamReset is returned by a stream whose parser started a newer stream.
	ErrStreamReset = errors.New("parser was reset by a newer stream")
)

// ParseError describes a line that could not be turned into an entry.
type ParseError struct {
	// Line is the 1-based line number, 0 when parsing a single line.
	Line    int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("Line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(err error, format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), Err: err}
}
