package analyzer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/accesslens/pkg/record"
)

func TestTrends_Empty(t *testing.T) {
	assert.Empty(t, Trends(nil, time.Hour))
}

func TestTrends_SingleEntry(t *testing.T) {
	points := Trends([]*record.LogEntry{newEntry(t, withStatus(500))}, time.Hour)
	require.Len(t, points, 1)
	assert.Equal(t, 1, points[0].RequestCount)
	assert.Equal(t, 1, points[0].ErrorCount)
	assert.Equal(t, 100.0, points[0].ErrorRate)
}

func TestTrends_TwoHourSpan(t *testing.T) {
	entries := []*record.LogEntry{
		newEntry(t, withTime(119*time.Minute), withIP("10.0.0.3")),
		newEntry(t, withTime(0)),
		newEntry(t, withTime(30*time.Minute), withStatus(404), withIP("10.0.0.2")),
		newEntry(t, withTime(59*time.Minute)),
		newEntry(t, withTime(60*time.Minute), withStatus(500)),
	}

	points := Trends(entries, 0)
	require.Len(t, points, 2)

	assert.True(t, points[0].WindowStart.Equal(baseTime))
	assert.Equal(t, 3, points[0].RequestCount)
	assert.Equal(t, 1, points[0].ErrorCount)
	assert.InDelta(t, 33.333, points[0].ErrorRate, 1e-3)
	assert.Equal(t, 2, points[0].UniqueIPs)

	assert.True(t, points[1].WindowStart.Equal(baseTime.Add(time.Hour)))
	assert.Equal(t, 2, points[1].RequestCount)
	assert.Equal(t, 1, points[1].ErrorCount)
	assert.Equal(t, 2, points[1].UniqueIPs)
}

func TestTrends_SkipsEmptyWindows(t *testing.T) {
	entries := []*record.LogEntry{
		newEntry(t, withTime(0)),
		newEntry(t, withTime(3*time.Hour+5*time.Minute)),
	}

	points := Trends(entries, time.Hour)
	require.Len(t, points, 2)
	assert.True(t, points[1].WindowStart.Equal(baseTime.Add(3*time.Hour)))
}

func TestTrends_LastEntryOnBoundaryIsKept(t *testing.T) {
	entries := []*record.LogEntry{
		newEntry(t, withTime(0)),
		newEntry(t, withTime(time.Hour)),
	}

	points := Trends(entries, time.Hour)
	require.Len(t, points, 2)
	assert.Equal(t, 1, points[1].RequestCount)
}

func TestTrendPoint_MarshalJSON(t *testing.T) {
	points := Trends([]*record.LogEntry{newEntry(t)}, time.Hour)

	data, err := json.Marshal(points[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp":"2023-10-10T13:00:00+00:00","request_count":1,"error_count":0,"error_rate":0,"unique_ips":1}`, string(data))
}

func TestTrafficGaps(t *testing.T) {
	entries := []*record.LogEntry{
		newEntry(t, withTime(0)),
		newEntry(t, withTime(5*time.Minute)),
		newEntry(t, withTime(50*time.Minute)),
		newEntry(t, withTime(55*time.Minute)),
	}

	gaps := TrafficGaps(entries, 10*time.Minute)
	require.Len(t, gaps, 1)
	assert.Equal(t, 45*time.Minute, gaps[0].Duration)
	assert.True(t, gaps[0].Start.Equal(baseTime.Add(5*time.Minute)))

	data, err := json.Marshal(gaps[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"duration_seconds":2700`)

	assert.Empty(t, TrafficGaps(entries[:1], time.Minute))
}
