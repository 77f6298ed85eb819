package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ccollicutt/accesslens/pkg/record"
)

const (
	// clfLayout is dd/Mon/YYYY:HH:MM:SS. A single-digit day is accepted.
	clfLayout = "2/Jan/2006:15:04:05"

	minOffsetSeconds = -12 * 3600
	maxOffsetSeconds = 14 * 3600
)

var (
	offsetPattern = regexp.MustCompile(`^[+-]\d{4}$`)
	datePattern   = regexp.MustCompile(`^\d{1,2}/[A-Za-z]{3}/\d{4}:\d{2}:\d{2}:\d{2}`)

	// ErrInvalidTimestamp is wrapped by every timestamp parsing failure.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// ParseTimestamp parses a CLF timestamp such as "10/Oct/2023:13:55:36 -0700".
//
// Text after the date that starts with '+' or '-', with or without a space in
// between, must be a valid ±HHMM offset between -1200 and +1400 and yields an
// aware timestamp. Without one the date is parsed as a naive timestamp and any
// other trailing text is ignored.
func ParseTimestamp(s string) (record.Timestamp, error) {
	datePart := datePattern.FindString(s)
	if datePart == "" {
		return record.Timestamp{}, invalidFormat(s)
	}

	rest := strings.TrimSpace(s[len(datePart):])
	if rest != "" && (rest[0] == '+' || rest[0] == '-') {
		return parseAware(s, datePart, rest)
	}

	t, err := time.Parse(clfLayout, datePart)
	if err != nil {
		return record.Timestamp{}, invalidFormat(s)
	}
	return record.NewNaiveTimestamp(t), nil
}

func parseAware(s, datePart, tz string) (record.Timestamp, error) {
	offset, ok := parseOffset(tz)
	if !ok {
		return record.Timestamp{}, timestampErrorf("invalid timezone format in timestamp %q, offset must be ±HHMM (e.g. +0000, -0500). Got: '%s'", s, tz)
	}
	if offset < minOffsetSeconds || offset > maxOffsetSeconds {
		return record.Timestamp{}, timestampErrorf("invalid timezone offset in timestamp %q, offset must be between -12:00 and +14:00 (got offset of %.2f hours)",
			s, float64(offset)/3600)
	}

	t, err := time.Parse(clfLayout, datePart)
	if err != nil {
		return record.Timestamp{}, invalidFormat(s)
	}
	zone := time.FixedZone("", offset)
	return record.NewAwareTimestamp(time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, zone)), nil
}

// parseOffset converts ±HHMM to seconds east of UTC.
func parseOffset(tz string) (int, bool) {
	if !offsetPattern.MatchString(tz) {
		return 0, false
	}
	hours, _ := strconv.Atoi(tz[1:3])
	minutes, _ := strconv.Atoi(tz[3:5])
	if minutes > 59 {
		return 0, false
	}
	seconds := hours*3600 + minutes*60
	if tz[0] == '-' {
		seconds = -seconds
	}
	return seconds, true
}

func invalidFormat(s string) error {
	return timestampErrorf("invalid timestamp format: %s (expected dd/Mon/YYYY:HH:MM:SS [±HHMM])", s)
}

type timestampError struct {
	msg string
}

func timestampErrorf(format string, args ...any) error {
	return &timestampError{msg: fmt.Sprintf(format, args...)}
}

func (e *timestampError) Error() string { return e.msg }

func (e *timestampError) Is(target error) bool { return target == ErrInvalidTimestamp }
