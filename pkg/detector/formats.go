package detector

import "github.com/ccollicutt/accesslens/pkg/parser"

// LogFormat describes an access-log grammar the detector can recognize.
type LogFormat struct {
	Format      parser.Format
	Name        string   // Human-readable name
	Description string   // Field layout
	Example     string   // A line in this format
	Fields      []string // Fields captured per line
}

var commonFields = []string{
	"ip_address", "timestamp", "method", "path", "protocol", "status_code", "response_size",
}

// DefaultFormats returns the grammars to detect, most specific first.
func DefaultFormats() []*LogFormat {
	combinedFields := append(append([]string{}, commonFields...), "referrer", "user_agent")
	extendedFields := append(append([]string{}, combinedFields...), "response_time")

	return []*LogFormat{
		{
			Format:      parser.FormatExtended,
			Name:        "Extended (Combined + response time)",
			Description: `IP - - [ts] "METHOD PATH PROTO" STATUS SIZE "REFERRER" "USER-AGENT" RT`,
			Example:     `192.168.1.1 - - [10/Oct/2023:13:55:36 +0000] "GET /index.html HTTP/1.1" 200 2326 "-" "Mozilla/5.0" 150`,
			Fields:      extendedFields,
		},
		{
			Format:      parser.FormatCombined,
			Name:        "Combined Log Format",
			Description: `IP - - [ts] "METHOD PATH PROTO" STATUS SIZE "REFERRER" "USER-AGENT"`,
			Example:     `192.168.1.1 - - [10/Oct/2023:13:55:36 +0000] "GET /index.html HTTP/1.1" 200 2326 "https://example.com/" "Mozilla/5.0"`,
			Fields:      combinedFields,
		},
		{
			Format:      parser.FormatCommon,
			Name:        "Common Log Format (CLF)",
			Description: `IP - - [ts] "METHOD PATH PROTO" STATUS SIZE`,
			Example:     `192.168.1.1 - - [10/Oct/2023:13:55:36 +0000] "GET /index.html HTTP/1.1" 200 2326`,
			Fields:      append([]string{}, commonFields...),
		},
	}
}

// lookup returns the descriptor for f, or nil.
func lookup(formats []*LogFormat, f parser.Format) *LogFormat {
	for _, lf := range formats {
		if lf.Format == f {
			return lf
		}
	}
	return nil
}
