package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/accesslens/pkg/record"
)

const (
	commonLine   = `192.168.1.1 - - [10/Oct/2023:13:55:36 +0000] "GET /index.html HTTP/1.1" 200 1024`
	combinedLine = `10.0.0.5 - frank [10/Oct/2023:13:55:36 -0700] "POST /api/login HTTP/1.1" 401 512 "http://example.com/" "Mozilla/5.0 (X11; Linux x86_64)"`
	extendedLine = `172.16.0.9 - - [10/Oct/2023:14:00:01 +0000] "GET /slow HTTP/2.0" 503 - "-" "curl/8.0" 1500`
)

func TestParseLineFormat_Grammars(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		format Format
	}{
		{"common", commonLine, FormatCommon},
		{"combined", combinedLine, FormatCombined},
		{"extended", extendedLine, FormatExtended},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, format, err := ParseLineFormat(tt.line)
			require.NoError(t, err)
			require.NotNil(t, entry)
			assert.Equal(t, tt.format, format)
			assert.Equal(t, tt.format, MatchFormat(tt.line))
		})
	}
}

func TestParseLine_Common(t *testing.T) {
	entry, err := ParseLine(commonLine)
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.1", entry.IPAddress)
	assert.Equal(t, record.MethodGet, entry.Method)
	assert.Equal(t, "/index.html", entry.Path)
	assert.Equal(t, "HTTP/1.1", entry.Protocol)
	assert.Equal(t, 200, entry.StatusCode)
	assert.Equal(t, int64(1024), entry.ResponseSize)
	assert.Empty(t, entry.Referrer)
	assert.Empty(t, entry.UserAgent)
	assert.Nil(t, entry.ResponseTime)
	assert.Equal(t, "2023-10-10T13:55:36+00:00", entry.Timestamp.ISO())
}

func TestParseLine_Combined(t *testing.T) {
	entry, err := ParseLine(combinedLine)
	require.NoError(t, err)

	assert.Equal(t, record.MethodPost, entry.Method)
	assert.Equal(t, "http://example.com/", entry.Referrer)
	assert.Equal(t, "Mozilla/5.0 (X11; Linux x86_64)", entry.UserAgent)
	assert.True(t, entry.IsClientError())

	off, ok := entry.Timestamp.OffsetSeconds()
	require.True(t, ok)
	assert.Equal(t, -7*3600, off)
}

func TestParseLine_Extended(t *testing.T) {
	entry, err := ParseLine(extendedLine)
	require.NoError(t, err)

	require.NotNil(t, entry.ResponseTime)
	assert.InDelta(t, 1.5, *entry.ResponseTime, 1e-9)
	assert.Equal(t, int64(0), entry.ResponseSize, "dash size is zero")
	assert.Empty(t, entry.Referrer, "dash referrer is absent")
	assert.Equal(t, "curl/8.0", entry.UserAgent)
	assert.True(t, entry.IsServerError())
}

func TestParseLine_TrimsWhitespace(t *testing.T) {
	entry, err := ParseLine("  " + commonLine + "\r\n")
	require.NoError(t, err)
	assert.Equal(t, "/index.html", entry.Path)
}

func TestParseLine_EmptyQuotedAgent(t *testing.T) {
	line := `192.168.1.1 - - [10/Oct/2023:13:55:36 +0000] "GET / HTTP/1.1" 200 10 "" ""`
	entry, err := ParseLine(line)
	require.NoError(t, err)
	assert.Empty(t, entry.Referrer)
	assert.Empty(t, entry.UserAgent)
}

func TestParseLine_Unmatched(t *testing.T) {
	_, err := ParseLine("this is not an access log line")
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "unable to parse log line: this is not an access log line...", err.Error())
	assert.Equal(t, FormatUnknown, MatchFormat("nope"))
}

func TestParseLine_UnmatchedPreviewIsTruncated(t *testing.T) {
	line := strings.Repeat("x", 250)
	_, err := ParseLine(line)
	require.Error(t, err)
	assert.Equal(t, "unable to parse log line: "+strings.Repeat("x", 100)+"...", err.Error())
}

func TestParseLine_InvalidFields(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"hostname", `example.com - - [10/Oct/2023:13:55:36 +0000] "GET / HTTP/1.1" 200 10`},
		{"status out of range", `192.168.1.1 - - [10/Oct/2023:13:55:36 +0000] "GET / HTTP/1.1" 600 10`},
		{"unknown method", `192.168.1.1 - - [10/Oct/2023:13:55:36 +0000] "BREW / HTTP/1.1" 200 10`},
		{"bad timestamp", `192.168.1.1 - - [yesterday] "GET / HTTP/1.1" 200 10`},
		{"bad offset", `192.168.1.1 - - [10/Oct/2023:13:55:36 +1500] "GET / HTTP/1.1" 200 10`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := ParseLine(tt.line)
			require.Error(t, err)
			assert.Nil(t, entry)

			var perr *ParseError
			assert.True(t, errors.As(err, &perr))
		})
	}
}

func TestParseLine_ValidationErrorIsWrapped(t *testing.T) {
	_, err := ParseLine(`bad-ip - - [10/Oct/2023:13:55:36 +0000] "GET / HTTP/1.1" 200 10`)
	require.Error(t, err)

	var verr *record.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "ip_address", verr.Field)
}

func TestParseError_Message(t *testing.T) {
	err := &ParseError{Line: 7, Message: "boom"}
	assert.Equal(t, "Line 7: boom", err.Error())

	err = &ParseError{Message: "boom"}
	assert.Equal(t, "boom", err.Error())
}

func TestFormat_String(t *testing.T) {
	assert.Equal(t, "extended", FormatExtended.String())
	assert.Equal(t, "combined", FormatCombined.String())
	assert.Equal(t, "common", FormatCommon.String())
	assert.Equal(t, "unknown", FormatUnknown.String())
}
