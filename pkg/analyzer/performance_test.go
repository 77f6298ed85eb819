package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/accesslens/pkg/record"
)

func TestPerformanceMetrics(t *testing.T) {
	var entries []*record.LogEntry
	for _, rt := range []float64{0.4, 0.1, 0.3, 0.2} {
		entries = append(entries, newEntry(t, withResponseTime(rt)))
	}
	entries = append(entries, newEntry(t))

	m, ok := New(entries).PerformanceMetrics()
	require.True(t, ok)

	assert.Equal(t, 4, m.Samples)
	assert.InDelta(t, 0.25, m.Avg, 1e-9)
	assert.InDelta(t, 0.25, m.Median, 1e-9, "even count averages the middle pair")
	assert.InDelta(t, 0.4, m.P95, 1e-9)
	assert.InDelta(t, 0.4, m.P99, 1e-9)
	assert.InDelta(t, 0.4, m.Max, 1e-9)
	assert.InDelta(t, 0.1, m.Min, 1e-9)
}

func TestPerformanceMetrics_NoTimedEntries(t *testing.T) {
	_, ok := New([]*record.LogEntry{newEntry(t)}).PerformanceMetrics()
	assert.False(t, ok)
}

func TestPercentile_NearestRank(t *testing.T) {
	data := make([]float64, 100)
	for i := range data {
		data[i] = float64(i + 1)
	}

	assert.Equal(t, 96.0, percentile(data, 95))
	assert.Equal(t, 100.0, percentile(data, 99))
	assert.Equal(t, 100.0, percentile(data, 100))
	assert.Equal(t, 1.0, percentile(data, 0))
	assert.Equal(t, 7.0, percentile([]float64{7}, 95))
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.0, median([]float64{1, 2, 3}))
	assert.Equal(t, 2.5, median([]float64{1, 2, 3, 4}))
}
