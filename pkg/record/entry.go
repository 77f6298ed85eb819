package record

import (
	"encoding/json"
	"regexp"
)

var ipv4Pattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)

// LogEntry is a single request parsed from a web server access log.
// Values are built once by New and treated as read-only afterwards.
type LogEntry struct {
	// IPAddress is the client address in dotted-quad form.
	IPAddress string

	// Timestamp is the request time as written in the log.
	Timestamp Timestamp

	Method   Method
	Path     string
	Protocol string

	// StatusCode is the HTTP response status (100-599).
	StatusCode int

	// ResponseSize is the response body size in bytes. "-" in the log is 0.
	ResponseSize int64

	// Referrer and UserAgent are empty when the log had "-" or nothing.
	Referrer  string
	UserAgent string

	// ResponseTime is the request duration in seconds, nil when not logged.
	ResponseTime *float64
}

// New validates fields and returns a copy of it as a new entry.
// No entry is returned when any field violates an invariant.
func New(fields LogEntry) (*LogEntry, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	entry := fields
	if fields.ResponseTime != nil {
		rt := *fields.ResponseTime
		entry.ResponseTime = &rt
	}
	return &entry, nil
}

// Validate checks the entry invariants.
func (e *LogEntry) Validate() error {
	if e.IPAddress == "" {
		return &ValidationError{Field: "ip_address", Message: "IP address is required"}
	}
	if !ipv4Pattern.MatchString(e.IPAddress) {
		return newValidationError("ip_address", "Invalid IP address format: %s", e.IPAddress)
	}
	if !e.Method.Valid() {
		return newValidationError("method", "Invalid HTTP method: %q", string(e.Method))
	}
	if e.StatusCode < 100 || e.StatusCode > 599 {
		return newValidationError("status_code", "Invalid HTTP status code: %d", e.StatusCode)
	}
	if e.ResponseSize < 0 {
		return &ValidationError{Field: "response_size", Message: "Response size cannot be negative"}
	}
	return nil
}

// IsError reports a 4xx or 5xx response.
func (e *LogEntry) IsError() bool {
	return e.StatusCode >= 400
}

// IsClientError reports a 4xx response.
func (e *LogEntry) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsServerError reports a 5xx response.
func (e *LogEntry) IsServerError() bool {
	return e.StatusCode >= 500
}

type entryJSON struct {
	IPAddress     string   `json:"ip_address"`
	Timestamp     string   `json:"timestamp"`
	Method        string   `json:"method"`
	Path          string   `json:"path"`
	Protocol      string   `json:"protocol"`
	StatusCode    int      `json:"status_code"`
	ResponseSize  int64    `json:"response_size"`
	Referrer      *string  `json:"referrer"`
	UserAgent     *string  `json:"user_agent"`
	ResponseTime  *float64 `json:"response_time"`
	IsError       bool     `json:"is_error"`
	IsServerError bool     `json:"is_server_error"`
	IsClientError bool     `json:"is_client_error"`
}

// MarshalJSON encodes the entry with its derived error flags.
// Absent optional fields are encoded as null.
func (e *LogEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		IPAddress:     e.IPAddress,
		Timestamp:     e.Timestamp.ISO(),
		Method:        string(e.Method),
		Path:          e.Path,
		Protocol:      e.Protocol,
		StatusCode:    e.StatusCode,
		ResponseSize:  e.ResponseSize,
		Referrer:      optional(e.Referrer),
		UserAgent:     optional(e.UserAgent),
		ResponseTime:  e.ResponseTime,
		IsError:       e.IsError(),
		IsServerError: e.IsServerError(),
		IsClientError: e.IsClientError(),
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
