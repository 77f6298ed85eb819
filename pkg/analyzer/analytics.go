// Package analyzer computes traffic analytics over parsed access-log entries.
package analyzer

import (
	"fmt"
	"strings"

	"github.com/ccollicutt/accesslens/pkg/record"
)

const (
	// DefaultTopN is the ranking length used when none is given.
	DefaultTopN = 10

	// DefaultSlowRequestThreshold is in seconds.
	DefaultSlowRequestThreshold = 1.0

	// DefaultLargeResponseThreshold is in bytes.
	DefaultLargeResponseThreshold int64 = 1024 * 1024
)

// Analytics answers questions about a fixed set of entries. Every method is a
// pure function of that set and the input slice is never modified.
type Analytics struct {
	entries []*record.LogEntry
}

// New wraps entries for analysis.
func New(entries []*record.LogEntry) *Analytics {
	return &Analytics{entries: entries}
}

// TotalRequests returns the number of entries.
func (a *Analytics) TotalRequests() int {
	return len(a.entries)
}

// UniqueIPCount returns the number of distinct client addresses.
func (a *Analytics) UniqueIPCount() int {
	seen := make(map[string]struct{})
	for _, e := range a.entries {
		seen[e.IPAddress] = struct{}{}
	}
	return len(seen)
}

// ErrorRate returns the percentage of 4xx and 5xx responses.
func (a *Analytics) ErrorRate() float64 {
	return a.percent(func(e *record.LogEntry) bool { return e.IsError() })
}

// ServerErrorRate returns the percentage of 5xx responses.
func (a *Analytics) ServerErrorRate() float64 {
	return a.percent(func(e *record.LogEntry) bool { return e.IsServerError() })
}

func (a *Analytics) percent(match func(*record.LogEntry) bool) float64 {
	if len(a.entries) == 0 {
		return 0
	}
	n := 0
	for _, e := range a.entries {
		if match(e) {
			n++
		}
	}
	return float64(n) / float64(len(a.entries)) * 100
}

// AvgResponseSize returns the mean response size in bytes.
func (a *Analytics) AvgResponseSize() float64 {
	if len(a.entries) == 0 {
		return 0
	}
	var total int64
	for _, e := range a.entries {
		total += e.ResponseSize
	}
	return float64(total) / float64(len(a.entries))
}

// TopEndpoints ranks request paths.
func (a *Analytics) TopEndpoints(n int) Counts {
	return a.rank(n, func(e *record.LogEntry) string { return e.Path })
}

// TopIPs ranks client addresses.
func (a *Analytics) TopIPs(n int) Counts {
	return a.rank(n, func(e *record.LogEntry) string { return e.IPAddress })
}

// UserAgents ranks user agents, ignoring entries without one.
func (a *Analytics) UserAgents(n int) Counts {
	return a.rank(n, func(e *record.LogEntry) string { return e.UserAgent })
}

// Referrers ranks referrers, ignoring entries without one.
func (a *Analytics) Referrers(n int) Counts {
	return a.rank(n, func(e *record.LogEntry) string { return e.Referrer })
}

// rank tallies non-empty keys and returns the top n.
func (a *Analytics) rank(n int, key func(*record.LogEntry) string) Counts {
	t := newTally()
	for _, e := range a.entries {
		if k := key(e); k != "" {
			t.add(k)
		}
	}
	return t.top(n)
}

// StatusCodeDistribution counts entries per status code.
func (a *Analytics) StatusCodeDistribution() map[int]int {
	dist := make(map[int]int)
	for _, e := range a.entries {
		dist[e.StatusCode]++
	}
	return dist
}

// HourlyTraffic counts entries per hour of day, using each timestamp's own
// clock. All 24 keys "00:00" to "23:00" are present in ascending order.
func (a *Analytics) HourlyTraffic() Counts {
	var hours [24]int
	for _, e := range a.entries {
		hours[e.Timestamp.Hour()]++
	}
	out := make(Counts, 24)
	for h, n := range hours {
		out[h] = Count{Key: fmt.Sprintf("%02d:00", h), Count: n}
	}
	return out
}

// DailyTraffic counts entries per calendar date (YYYY-MM-DD), ascending.
// Only observed dates are included.
func (a *Analytics) DailyTraffic() Counts {
	t := newTally()
	for _, e := range a.entries {
		t.add(e.Timestamp.Format("2006-01-02"))
	}
	return t.sorted()
}

// ErrorEntries returns every 4xx and 5xx entry in input order.
func (a *Analytics) ErrorEntries() []*record.LogEntry {
	return a.filter(func(e *record.LogEntry) bool { return e.IsError() })
}

// SlowRequests returns entries whose response time exceeds threshold seconds.
// Entries without a response time are never slow.
func (a *Analytics) SlowRequests(threshold float64) []*record.LogEntry {
	return a.filter(func(e *record.LogEntry) bool {
		return e.ResponseTime != nil && *e.ResponseTime > threshold
	})
}

// LargeResponses returns entries whose size exceeds threshold bytes.
func (a *Analytics) LargeResponses(threshold int64) []*record.LogEntry {
	return a.filter(func(e *record.LogEntry) bool { return e.ResponseSize > threshold })
}

func (a *Analytics) filter(keep func(*record.LogEntry) bool) []*record.LogEntry {
	out := []*record.LogEntry{}
	for _, e := range a.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// botIndicators mark a user agent as automated when found case-insensitively.
var botIndicators = []string{"bot", "crawler", "spider", "scraper"}

// IsBotUserAgent reports whether ua looks like an automated client.
func IsBotUserAgent(ua string) bool {
	lower := strings.ToLower(ua)
	for _, ind := range botIndicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}
