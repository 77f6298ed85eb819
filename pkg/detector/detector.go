// Package detector identifies which access-log grammar a file is written in.
package detector

import (
	"bufio"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ccollicutt/accesslens/pkg/parser"
	"github.com/ccollicutt/accesslens/pkg/record"
)

// DefaultSampleSize is how many non-blank lines are read from a file.
const DefaultSampleSize = 100

const maxSampleLine = 1024 * 1024

// DetectionResult holds the result of analyzing a sample of log lines.
type DetectionResult struct {
	Matches        []FormatMatch // Grammars that matched, sorted by confidence descending
	SampledLines   int           // Number of lines sampled
	ParsedLines    int           // Lines the best grammar turned into valid entries
	UnmatchedLines int           // Lines no grammar matched
	Notes          []string      // Warnings about the sample
}

// FormatMatch represents a grammar that matched with its confidence score.
type FormatMatch struct {
	Format       *LogFormat
	Confidence   float64          // 0.0 to 1.0 (share of sampled lines matched)
	MatchCount   int              // Lines matched by the grammar
	InvalidCount int              // Matched lines rejected by validation
	SampleLine   string           // First valid line in this grammar
	SampleEntry  *record.LogEntry // Entry parsed from SampleLine
	FirstError   string           // First validation error, if any
}

// Detector samples log lines to identify their grammar.
type Detector struct {
	formats    []*LogFormat
	sampleSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample (default 100).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// New creates a new Detector with the default grammars.
func New(opts ...Option) *Detector {
	d := &Detector{
		formats:    DefaultFormats(),
		sampleSize: DefaultSampleSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile samples a log file and returns the detected grammars.
// Compressed files are read through the same decoders the parser uses.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	lines, err := d.sampleFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.DetectFromLines(lines), nil
}

type formatStats struct {
	match FormatMatch
}

// DetectFromLines analyzes a slice of log lines. Blank and comment lines
// are not counted.
func (d *Detector) DetectFromLines(lines []string) *DetectionResult {
	result := &DetectionResult{}

	stats := make(map[parser.Format]*formatStats)
	var aware, naive int
	offsets := make(map[int]bool)

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		result.SampledLines++

		entry, f, err := parser.ParseLineFormat(line)
		if f == parser.FormatUnknown {
			result.UnmatchedLines++
			continue
		}

		lf := lookup(d.formats, f)
		if lf == nil {
			result.UnmatchedLines++
			continue
		}
		s, ok := stats[f]
		if !ok {
			s = &formatStats{match: FormatMatch{Format: lf}}
			stats[f] = s
		}
		s.match.MatchCount++

		if err != nil {
			s.match.InvalidCount++
			if s.match.FirstError == "" {
				s.match.FirstError = err.Error()
			}
			continue
		}

		if s.match.SampleEntry == nil {
			s.match.SampleLine = line
			s.match.SampleEntry = entry
		}
		if off, ok := entry.Timestamp.OffsetSeconds(); ok {
			aware++
			offsets[off] = true
		} else {
			naive++
		}
	}

	if result.SampledLines == 0 {
		return result
	}

	ordered := make([]*formatStats, 0, len(stats))
	for _, s := range stats {
		s.match.Confidence = float64(s.match.MatchCount) / float64(result.SampledLines)
		ordered = append(ordered, s)
	}
	// Equal confidence prefers the more specific grammar.
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].match.Confidence != ordered[j].match.Confidence {
			return ordered[i].match.Confidence > ordered[j].match.Confidence
		}
		return ordered[i].match.Format.Format < ordered[j].match.Format.Format
	})
	for _, s := range ordered {
		result.Matches = append(result.Matches, s.match)
	}

	if best := result.BestMatch(); best != nil {
		result.ParsedLines = best.MatchCount - best.InvalidCount
	}

	result.Notes = notes(result, aware, naive, len(offsets))
	return result
}

func notes(r *DetectionResult, aware, naive, distinctOffsets int) []string {
	var out []string
	if len(r.Matches) > 1 {
		out = append(out, "Lines match more than one grammar; fields missing from shorter lines are left empty.")
	}
	if aware > 0 && naive > 0 {
		out = append(out, "Some timestamps carry a UTC offset and some do not; ordering across them is not reliable.")
	} else if naive > 0 {
		out = append(out, "Timestamps have no UTC offset; hourly buckets use the logged wall clock.")
	}
	if distinctOffsets > 1 {
		out = append(out, fmt.Sprintf("Timestamps use %d different UTC offsets.", distinctOffsets))
	}
	if r.UnmatchedLines > 0 {
		out = append(out, fmt.Sprintf("%d of %d sampled lines match no grammar and will be skipped in lenient mode.",
			r.UnmatchedLines, r.SampledLines))
	}
	return out
}

// sampleFile reads up to sampleSize non-blank, non-comment lines.
func (d *Detector) sampleFile(ctx context.Context, path string) ([]string, error) {
	rc, err := parser.OpenSource(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var lines []string
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSampleLine)

	for len(lines) < d.sampleSize && scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// BestMatch returns the highest confidence match, or nil if none found.
func (r *DetectionResult) BestMatch() *FormatMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasMatch returns true if at least one grammar matched.
func (r *DetectionResult) HasMatch() bool {
	return len(r.Matches) > 0
}

// StrictSafe reports whether every sampled line parsed, so strict mode
// would not abort on the sample.
func (r *DetectionResult) StrictSafe() bool {
	if r.SampledLines == 0 || r.UnmatchedLines > 0 {
		return false
	}
	for _, m := range r.Matches {
		if m.InvalidCount > 0 {
			return false
		}
	}
	return true
}
