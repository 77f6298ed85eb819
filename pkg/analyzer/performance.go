package analyzer

import "sort"

// PerformanceMetrics summarizes response times in seconds.
type PerformanceMetrics struct {
	Avg    float64 `json:"avg_response_time"`
	Median float64 `json:"median_response_time"`
	P95    float64 `json:"p95_response_time"`
	P99    float64 `json:"p99_response_time"`
	Max    float64 `json:"max_response_time"`
	Min    float64 `json:"min_response_time"`

	// Samples is the number of entries that carried a response time.
	Samples int `json:"samples"`
}

// PerformanceMetrics computes response time statistics. ok is false when no
// entry has a response time.
func (a *Analytics) PerformanceMetrics() (metrics PerformanceMetrics, ok bool) {
	var times []float64
	for _, e := range a.entries {
		if e.ResponseTime != nil {
			times = append(times, *e.ResponseTime)
		}
	}
	if len(times) == 0 {
		return PerformanceMetrics{}, false
	}

	sort.Float64s(times)

	var sum float64
	for _, v := range times {
		sum += v
	}

	return PerformanceMetrics{
		Avg:     sum / float64(len(times)),
		Median:  median(times),
		P95:     percentile(times, 95),
		P99:     percentile(times, 99),
		Max:     times[len(times)-1],
		Min:     times[0],
		Samples: len(times),
	}, true
}

// median of sorted data; the mean of the two middle values for even lengths.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// percentile is a nearest-rank estimate over sorted data: index floor(p/100*n),
// clamped to the last element.
func percentile(sorted []float64, p int) float64 {
	idx := int(float64(p) / 100 * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}
