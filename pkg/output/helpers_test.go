package output

import (
	"testing"
	"time"

	"github.com/ccollicutt/accesslens/pkg/analyzer"
	"github.com/ccollicutt/accesslens/pkg/parser"
	"github.com/ccollicutt/accesslens/pkg/record"
)

var testLines = []string{
	`192.168.1.1 - - [10/Oct/2023:13:55:36 +0000] "GET /index.html HTTP/1.1" 200 2048 "-" "Mozilla/5.0" 120`,
	`192.168.1.1 - - [10/Oct/2023:13:56:01 +0000] "GET /index.html HTTP/1.1" 200 1024 "https://example.com/" "Mozilla/5.0" 80`,
	`10.0.0.7 - - [10/Oct/2023:14:10:00 +0000] "POST /api/login HTTP/1.1" 401 128 "-" "Googlebot/2.1" 1500`,
	`10.0.0.8 - - [11/Oct/2023:02:00:00 +0000] "GET /missing HTTP/1.1" 500 0`,
}

func testEntries(t *testing.T) []*record.LogEntry {
	t.Helper()
	entries := make([]*record.LogEntry, 0, len(testLines))
	for _, line := range testLines {
		e, err := parser.ParseLine(line)
		if err != nil {
			t.Fatalf("ParseLine(%q) error = %v", line, err)
		}
		entries = append(entries, e)
	}
	return entries
}

func createTestReport(t *testing.T) *Report {
	t.Helper()
	entries := testEntries(t)
	a := analyzer.New(entries)
	perf, ok := a.PerformanceMetrics()

	report := &Report{
		Analytics: a.GenerateReport(10),
		ParsingStats: parser.Stats{
			ParsedCount: 4,
			ErrorCount:  1,
			Errors:      []string{"Line 3: unable to parse log line: junk..."},
		},
		ProcessingTime: ProcessingTime{
			Parsing:   1500 * time.Millisecond,
			Analytics: 250 * time.Millisecond,
		},
		PerformanceRequested: true,
		Suspicious:           a.DetectSuspiciousActivity(analyzer.DefaultSuspiciousOptions()),
		Trends: &TrendSection{
			Window:       time.Hour,
			GapThreshold: time.Hour,
			Points:       analyzer.Trends(entries, time.Hour),
			Gaps:         analyzer.TrafficGaps(entries, time.Hour),
		},
		Details: &Details{
			ServerErrorRate: a.ServerErrorRate(),
			DailyTraffic:    a.DailyTraffic(),
			UserAgents:      a.UserAgents(10),
			Referrers:       a.Referrers(10),
			SlowRequests:    len(a.SlowRequests(1.0)),
			LargeResponses:  len(a.LargeResponses(1024 * 1024)),
		},
		Metadata: Metadata{
			Sources:    []string{"access.log"},
			AnalyzedAt: time.Date(2023, 10, 11, 3, 0, 0, 0, time.UTC),
		},
	}
	if ok {
		report.Performance = &perf
	}
	return report
}
