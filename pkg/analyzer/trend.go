package analyzer

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/ccollicutt/accesslens/pkg/record"
)

// DefaultTrendWindow is the trend window used when none is given.
const DefaultTrendWindow = 60 * time.Minute

// TrendPoint aggregates the entries of one fixed-width window.
type TrendPoint struct {
	WindowStart  record.Timestamp
	RequestCount int
	ErrorCount   int
	ErrorRate    float64 // percent
	UniqueIPs    int
}

// MarshalJSON uses the "timestamp" key for the window start.
func (p TrendPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Timestamp    string  `json:"timestamp"`
		RequestCount int     `json:"request_count"`
		ErrorCount   int     `json:"error_count"`
		ErrorRate    float64 `json:"error_rate"`
		UniqueIPs    int     `json:"unique_ips"`
	}{p.WindowStart.ISO(), p.RequestCount, p.ErrorCount, p.ErrorRate, p.UniqueIPs})
}

// Trends splits entries into windows [start+k*w, start+(k+1)*w) where start is
// the earliest timestamp, up to the window holding the latest entry. Windows
// without entries are omitted. A non-positive window uses DefaultTrendWindow.
func Trends(entries []*record.LogEntry, window time.Duration) []TrendPoint {
	if window <= 0 {
		window = DefaultTrendWindow
	}
	sorted := sortByTime(entries)
	if len(sorted) == 0 {
		return []TrendPoint{}
	}

	start := sorted[0].Timestamp
	var (
		points  []TrendPoint
		current *TrendPoint
		ips     map[string]struct{}
		index   int64 = -1
	)

	flush := func() {
		if current == nil {
			return
		}
		current.UniqueIPs = len(ips)
		current.ErrorRate = float64(current.ErrorCount) / float64(current.RequestCount) * 100
		points = append(points, *current)
	}

	for _, e := range sorted {
		k := int64(e.Timestamp.Sub(start.Time) / window)
		if k != index {
			flush()
			index = k
			current = &TrendPoint{WindowStart: start.Add(time.Duration(k) * window)}
			ips = make(map[string]struct{})
		}
		current.RequestCount++
		if e.IsError() {
			current.ErrorCount++
		}
		ips[e.IPAddress] = struct{}{}
	}
	flush()

	return points
}

// Gap is a quiet period between two consecutive requests.
type Gap struct {
	Start    record.Timestamp `json:"start"`
	End      record.Timestamp `json:"end"`
	Duration time.Duration    `json:"-"`
}

// MarshalJSON adds the gap length in seconds.
func (g Gap) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start   record.Timestamp `json:"start"`
		End     record.Timestamp `json:"end"`
		Seconds float64          `json:"duration_seconds"`
	}{g.Start, g.End, g.Duration.Seconds()})
}

// TrafficGaps returns every interval between consecutive requests that is
// longer than maxGap, in time order.
func TrafficGaps(entries []*record.LogEntry, maxGap time.Duration) []Gap {
	sorted := sortByTime(entries)
	gaps := []Gap{}
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1].Timestamp
		curr := sorted[i].Timestamp
		if d := curr.Sub(prev.Time); d > maxGap {
			gaps = append(gaps, Gap{Start: prev, End: curr, Duration: d})
		}
	}
	return gaps
}

// sortByTime returns a stably sorted copy of entries.
func sortByTime(entries []*record.LogEntry) []*record.LogEntry {
	sorted := make([]*record.LogEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp.Time)
	})
	return sorted
}
