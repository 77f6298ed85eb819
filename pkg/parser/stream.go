package parser

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ccollicutt/accesslens/pkg/record"
)

// Stream yields entries from one input as it is read. It implements EntrySource.
type Stream struct {
	parser     *Parser
	reader     *bufio.Reader
	closer     io.Closer
	source     string
	generation uint64

	lineNum int
	err     error
}

// Source returns the file path of the stream, or "" for plain readers.
func (s *Stream) Source() string {
	return s.source
}

// Next returns the next entry. Blank lines and lines starting with '#' are
// skipped. Returns io.EOF when the input is exhausted. In strict mode the
// first bad line is returned as a *ParseError and the stream stops.
func (s *Stream) Next(ctx context.Context) (*record.LogEntry, error) {
	if s.err != nil {
		return nil, s.err
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !s.parser.current(s.generation) {
			s.err = ErrStreamReset
			return nil, s.err
		}

		raw, tooLong, err := s.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.err = io.EOF
			} else {
				s.err = fmt.Errorf("reading %s: %w", s.name(), err)
			}
			return nil, s.err
		}
		s.lineNum++

		if tooLong {
			perr := &ParseError{
				Line:    s.lineNum,
				Message: fmt.Sprintf("line exceeds %d bytes", MaxLineSize),
				Err:     ErrLineTooLong,
			}
			if err := s.reject(perr); err != nil {
				return nil, err
			}
			continue
		}

		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			s.parser.metrics.LineSkipped()
			continue
		}

		entry, format, err := ParseLineFormat(line)
		if err != nil {
			if err := s.reject(s.lineError(err)); err != nil {
				return nil, err
			}
			continue
		}

		s.parser.recordParsed(s.generation, format)
		return entry, nil
	}
}

// reject counts a bad line. Strict streams stop with perr; lenient ones log
// it and return nil.
func (s *Stream) reject(perr *ParseError) error {
	s.parser.recordError(s.generation, perr.Error())
	if s.parser.strict {
		s.err = perr
		return s.err
	}
	s.parser.logger.Debug().
		Str("source", s.name()).
		Int("line", perr.Line).
		Str("reason", perr.Message).
		Msg("skipping unparseable line")
	return nil
}

// readLine returns the next line without its terminator. A line longer than
// MaxLineSize is read to its end and discarded, and reported by the bool. Returns
// io.EOF only when no data is left.
func (s *Stream) readLine() (string, bool, error) {
	var (
		buf     []byte
		tooLong bool
	)
	for {
		chunk, err := s.reader.ReadSlice('\n')

		if !tooLong {
			n := len(buf) + len(chunk)
			if err == nil {
				n-- // terminator
			}
			if n > MaxLineSize {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}

		switch {
		case err == nil:
			return strings.TrimRight(string(buf), "\r\n"), tooLong, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(buf) == 0 && !tooLong {
				return "", false, io.EOF
			}
			return strings.TrimRight(string(buf), "\r\n"), tooLong, nil
		default:
			return "", false, err
		}
	}
}

// Close closes the underlying input when it is closable.
func (s *Stream) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

func (s *Stream) lineError(err error) *ParseError {
	if perr, ok := err.(*ParseError); ok {
		return &ParseError{Line: s.lineNum, Message: perr.Message, Err: perr.Err}
	}
	return &ParseError{Line: s.lineNum, Message: err.Error(), Err: err}
}

func (s *Stream) name() string {
	if s.source == "" {
		return "input"
	}
	return s.source
}
