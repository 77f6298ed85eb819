// Package parser turns access-log lines into records and streams them from log files.
package parser

import "encoding/json"

// Format identifies which access-log grammar matched a line.
type Format int

const (
	FormatUnknown Format = iota
	// FormatExtended is Combined plus a trailing response time field.
	FormatExtended
	// FormatCombined is Common plus quoted referrer and user agent.
	FormatCombined
	// FormatCommon is the Common Log Format (CLF).
	FormatCommon
)

// Formats returns the grammars in the order they are attempted.
func Formats() []Format {
	return []Format{FormatExtended, FormatCombined, FormatCommon}
}

func (f Format) String() string {
	switch f {
	case FormatExtended:
		return "extended"
	case FormatCombined:
		return "combined"
	case FormatCommon:
		return "common"
	default:
		return "unknown"
	}
}

// MaxStoredErrors is how many error messages Stats keeps per stream.
const MaxStoredErrors = 10

// Stats summarizes the outcome of the current or most recent stream.
type Stats struct {
	// ParsedCount is the number of lines turned into entries.
	ParsedCount int `json:"parsed_count"`

	// ErrorCount is the number of lines that failed to parse.
	ErrorCount int `json:"error_count"`

	// Errors holds the first MaxStoredErrors messages as "Line <n>: <message>".
	Errors []string `json:"errors"`
}

// SuccessRate is parsed/(parsed+errors), or 0 when nothing was processed.
func (s Stats) SuccessRate() float64 {
	total := s.ParsedCount + s.ErrorCount
	if total == 0 {
		return 0
	}
	return float64(s.ParsedCount) / float64(total)
}

// MarshalJSON includes the derived success rate.
func (s Stats) MarshalJSON() ([]byte, error) {
	errs := s.Errors
	if errs == nil {
		errs = []string{}
	}
	return json.Marshal(struct {
		ParsedCount int      `json:"parsed_count"`
		ErrorCount  int      `json:"error_count"`
		SuccessRate float64  `json:"success_rate"`
		Errors      []string `json:"errors"`
	}{s.ParsedCount, s.ErrorCount, s.SuccessRate(), errs})
}

// WithSource returns s with every stored message prefixed by "<source>: ".
func (s Stats) WithSource(source string) Stats {
	out := s
	out.Errors = make([]string, len(s.Errors))
	for i, msg := range s.Errors {
		out.Errors[i] = source + ": " + msg
	}
	return out
}

// Combine adds the counters of other to s. Stored messages keep s first and
// stay capped at MaxStoredErrors.
func (s Stats) Combine(other Stats) Stats {
	out := Stats{
		ParsedCount: s.ParsedCount + other.ParsedCount,
		ErrorCount:  s.ErrorCount + other.ErrorCount,
	}
	out.Errors = append(out.Errors, s.Errors...)
	for _, msg := range other.Errors {
		if len(out.Errors) >= MaxStoredErrors {
			break
		}
		out.Errors = append(out.Errors, msg)
	}
	if len(out.Errors) > MaxStoredErrors {
		out.Errors = out.Errors[:MaxStoredErrors]
	}
	return out
}
