package parser

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/ccollicutt/accesslens/pkg/record"
)

const (
	requestPrefix = `^(\S+) \S+ \S+ \[([^\]]+)\] "(\S+) (\S+) (\S+)" (\d+) (\d+|-)`
	agentSuffix   = ` "([^"]*)" "([^"]*)"`

	// unparsedPreviewLen bounds how much of an unmatched line ends up in an error.
	unparsedPreviewLen = 100
)

var grammars = map[Format]*regexp.Regexp{
	FormatCommon:   regexp.MustCompile(requestPrefix + `$`),
	FormatCombined: regexp.MustCompile(requestPrefix + agentSuffix + `$`),
	FormatExtended: regexp.MustCompile(requestPrefix + agentSuffix + ` (\d+)$`),
}

// MatchFormat returns the first grammar that matches line without building
// an entry, or FormatUnknown.
func MatchFormat(line string) Format {
	line = strings.TrimSpace(line)
	for _, f := range Formats() {
		if grammars[f].MatchString(line) {
			return f
		}
	}
	return FormatUnknown
}

// ParseLine parses a single access-log line. Grammars are tried in order
// Extended, Combined, Common and the first match wins.
func ParseLine(line string) (*record.LogEntry, error) {
	entry, _, err := ParseLineFormat(line)
	return entry, err
}

// ParseLineFormat is ParseLine that also reports which grammar matched.
func ParseLineFormat(line string) (*record.LogEntry, Format, error) {
	line = strings.TrimSpace(line)
	for _, f := range Formats() {
		m := grammars[f].FindStringSubmatch(line)
		if m == nil {
			continue
		}
		entry, err := buildEntry(f, m)
		return entry, f, err
	}

	preview := line
	if len(preview) > unparsedPreviewLen {
		preview = preview[:unparsedPreviewLen]
	}
	return nil, FormatUnknown, newParseError(nil, "unable to parse log line: %s...", preview)
}

func buildEntry(f Format, m []string) (*record.LogEntry, error) {
	status, err := strconv.Atoi(m[6])
	if err != nil {
		return nil, newParseError(err, "invalid status code: %s", m[6])
	}
	size, err := parseSize(m[7])
	if err != nil {
		return nil, err
	}

	fields := record.LogEntry{
		IPAddress:    m[1],
		Path:         m[4],
		Protocol:     m[5],
		StatusCode:   status,
		ResponseSize: size,
	}
	if f != FormatCommon {
		fields.Referrer = optionalField(m[8])
		fields.UserAgent = optionalField(m[9])
	}
	if f == FormatExtended {
		raw, err := strconv.ParseFloat(m[10], 64)
		if err != nil {
			return nil, newParseError(err, "invalid response time: %s", m[10])
		}
		// The logged value is divided by 1000 to get seconds.
		rt := raw / 1000.0
		fields.ResponseTime = &rt
	}

	ts, err := ParseTimestamp(m[2])
	if err != nil {
		return nil, newParseError(err, "%s", err.Error())
	}
	fields.Timestamp = ts

	method, err := record.ParseMethod(m[3])
	if err != nil {
		return nil, newParseError(err, "%s", err.Error())
	}
	fields.Method = method

	entry, err := record.New(fields)
	if err != nil {
		var verr *record.ValidationError
		if errors.As(err, &verr) {
			return nil, newParseError(err, "invalid log entry: %s", verr.Message)
		}
		return nil, newParseError(err, "%s", err.Error())
	}
	return entry, nil
}

func parseSize(s string) (int64, error) {
	if s == "-" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, newParseError(err, "invalid response size: %s", s)
	}
	return n, nil
}

func optionalField(s string) string {
	if s == "-" {
		return ""
	}
	return s
}
