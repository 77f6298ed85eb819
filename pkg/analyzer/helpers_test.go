package analyzer

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/accesslens/pkg/record"
)

var baseTime = time.Date(2023, 10, 10, 13, 0, 0, 0, time.UTC)

type entryOpt func(*record.LogEntry)

func withPath(p string) entryOpt       { return func(e *record.LogEntry) { e.Path = p } }
func withIP(ip string) entryOpt        { return func(e *record.LogEntry) { e.IPAddress = ip } }
func withStatus(code int) entryOpt     { return func(e *record.LogEntry) { e.StatusCode = code } }
func withSize(n int64) entryOpt        { return func(e *record.LogEntry) { e.ResponseSize = n } }
func withAgent(ua string) entryOpt     { return func(e *record.LogEntry) { e.UserAgent = ua } }
func withReferrer(ref string) entryOpt { return func(e *record.LogEntry) { e.Referrer = ref } }

func withTime(offset time.Duration) entryOpt {
	return func(e *record.LogEntry) { e.Timestamp = record.NewAwareTimestamp(baseTime.Add(offset)) }
}

func withResponseTime(rt float64) entryOpt {
	return func(e *record.LogEntry) { e.ResponseTime = &rt }
}

func newEntry(t *testing.T, opts ...entryOpt) *record.LogEntry {
	t.Helper()
	fields := record.LogEntry{
		IPAddress:    "10.0.0.1",
		Timestamp:    record.NewAwareTimestamp(baseTime),
		Method:       record.MethodGet,
		Path:         "/",
		Protocol:     "HTTP/1.1",
		StatusCode:   200,
		ResponseSize: 100,
	}
	for _, opt := range opts {
		opt(&fields)
	}
	entry, err := record.New(fields)
	require.NoError(t, err)
	return entry
}

func repeat(t *testing.T, n int, opts ...entryOpt) []*record.LogEntry {
	t.Helper()
	out := make([]*record.LogEntry, n)
	for i := range out {
		out[i] = newEntry(t, opts...)
	}
	return out
}

func ip(i int) string {
	return fmt.Sprintf("10.0.%d.%d", i/250, i%250+1)
}
