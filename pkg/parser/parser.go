package parser

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ccollicutt/accesslens/pkg/metrics"
	"github.com/ccollicutt/accesslens/pkg/record"
)

const (
	initialLineBuffer = 64 * 1024

	// MaxLineSize is the longest line in bytes that is parsed. Longer lines
	// are drained and counted as parse errors.
	MaxLineSize = 1024 * 1024
)

// Parser parses access logs and tracks statistics for the most recent stream.
//
// In lenient mode (the default) unparseable lines are counted and skipped. In
// strict mode the first bad line aborts the stream with its ParseError.
type Parser struct {
	strict  bool
	logger  zerolog.Logger
	metrics *metrics.Collector

	mu         sync.Mutex
	stats      Stats
	generation uint64
}

// Option configures a Parser.
type Option func(*Parser)

// WithStrictMode makes the first unparseable line fail the stream.
func WithStrictMode(strict bool) Option {
	return func(p *Parser) {
		p.strict = strict
	}
}

// WithLogger sets the logger used for skipped lines.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// WithMetrics reports line outcomes to c.
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Parser) {
		p.metrics = c
	}
}

// New creates a lenient parser unless WithStrictMode is given.
func New(opts ...Option) *Parser {
	p := &Parser{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Strict reports whether the parser is in strict mode.
func (p *Parser) Strict() bool {
	return p.strict
}

// ParseLine parses a single line. Parser statistics are not affected.
func (p *Parser) ParseLine(line string) (*record.LogEntry, error) {
	return ParseLine(line)
}

// Stats returns a copy of the statistics of the current or most recent stream.
func (p *Parser) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.stats
	s.Errors = append([]string(nil), p.stats.Errors...)
	return s
}

// Stream starts a new stream over r. Statistics are reset, and any stream
// started earlier by this parser fails with ErrStreamReset on its next call.
func (p *Parser) Stream(r io.Reader) *Stream {
	p.mu.Lock()
	p.generation++
	p.stats = Stats{}
	gen := p.generation
	p.mu.Unlock()

	s := &Stream{parser: p, reader: bufio.NewReaderSize(r, initialLineBuffer), generation: gen}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// OpenFile checks that path exists and starts a stream over it.
// Gzip and snappy files are decoded by extension.
func (p *Parser) OpenFile(path string) (*Stream, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("checking log file %s: %w", path, err)
	}

	rc, err := OpenSource(path)
	if err != nil {
		return nil, err
	}
	s := p.Stream(rc)
	s.source = path
	return s, nil
}

// ParseFile parses the whole file at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (entries []*record.LogEntry, err error) {
	start := time.Now()
	defer func() {
		p.metrics.FileDone(err, time.Since(start))
	}()

	s, err := p.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	entries, err = Collect(ctx, s)
	if err != nil {
		return nil, err
	}

	p.logger.Debug().
		Str("file", path).
		Int("parsed", len(entries)).
		Int("errors", p.Stats().ErrorCount).
		Msg("parsed log file")
	return entries, nil
}

// ParseReader parses every entry from r.
func (p *Parser) ParseReader(ctx context.Context, r io.Reader) ([]*record.LogEntry, error) {
	return Collect(ctx, p.Stream(r))
}

func (p *Parser) current(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation == gen
}

func (p *Parser) recordParsed(gen uint64, f Format) {
	p.mu.Lock()
	if p.generation == gen {
		p.stats.ParsedCount++
	}
	p.mu.Unlock()
	p.metrics.LineParsed(f.String())
}

func (p *Parser) recordError(gen uint64, msg string) {
	p.mu.Lock()
	if p.generation == gen {
		p.stats.ErrorCount++
		if len(p.stats.Errors) < MaxStoredErrors {
			p.stats.Errors = append(p.stats.Errors, msg)
		}
	}
	p.mu.Unlock()
	p.metrics.LineFailed()
}
