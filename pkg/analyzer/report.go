package analyzer

import (
	"encoding/json"
	"math"

	"github.com/ccollicutt/accesslens/pkg/record"
)

// Report is the aggregate snapshot of a set of entries.
type Report struct {
	TotalRequests          int
	UniqueIPs              int
	ErrorRate              float64 // percent
	AvgResponseSize        float64 // bytes
	TopEndpoints           Counts
	TopIPs                 Counts
	StatusCodeDistribution map[int]int
	HourlyTraffic          Counts
	ErrorLog               []*record.LogEntry
}

// ErrorCount returns the number of error entries in the report.
func (r *Report) ErrorCount() int {
	return len(r.ErrorLog)
}

// GenerateReport builds a Report with rankings of length topN.
func (a *Analytics) GenerateReport(topN int) *Report {
	return &Report{
		TotalRequests:          a.TotalRequests(),
		UniqueIPs:              a.UniqueIPCount(),
		ErrorRate:              a.ErrorRate(),
		AvgResponseSize:        a.AvgResponseSize(),
		TopEndpoints:           a.TopEndpoints(topN),
		TopIPs:                 a.TopIPs(topN),
		StatusCodeDistribution: a.StatusCodeDistribution(),
		HourlyTraffic:          a.HourlyTraffic(),
		ErrorLog:               a.ErrorEntries(),
	}
}

type reportJSON struct {
	TotalRequests          int         `json:"total_requests"`
	UniqueIPs              int         `json:"unique_ips"`
	ErrorRate              float64     `json:"error_rate"`
	AvgResponseSize        float64     `json:"avg_response_size"`
	TopEndpoints           Counts      `json:"top_endpoints"`
	TopIPs                 Counts      `json:"top_ips"`
	StatusCodeDistribution map[int]int `json:"status_code_distribution"`
	HourlyTraffic          Counts      `json:"hourly_traffic"`
	ErrorCount             int         `json:"error_count"`
}

// MarshalJSON encodes the summary view: rates rounded, error entries
// replaced by their count.
func (r *Report) MarshalJSON() ([]byte, error) {
	dist := r.StatusCodeDistribution
	if dist == nil {
		dist = map[int]int{}
	}
	return json.Marshal(reportJSON{
		TotalRequests:          r.TotalRequests,
		UniqueIPs:              r.UniqueIPs,
		ErrorRate:              round(r.ErrorRate, 4),
		AvgResponseSize:        round(r.AvgResponseSize, 2),
		TopEndpoints:           r.TopEndpoints,
		TopIPs:                 r.TopIPs,
		StatusCodeDistribution: dist,
		HourlyTraffic:          r.HourlyTraffic,
		ErrorCount:             r.ErrorCount(),
	})
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
