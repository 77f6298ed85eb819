package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/accesslens/pkg/record"
)

func TestAnalytics_Empty(t *testing.T) {
	a := New(nil)

	assert.Equal(t, 0, a.TotalRequests())
	assert.Equal(t, 0, a.UniqueIPCount())
	assert.Equal(t, 0.0, a.ErrorRate())
	assert.Equal(t, 0.0, a.ServerErrorRate())
	assert.Equal(t, 0.0, a.AvgResponseSize())
	assert.Empty(t, a.TopEndpoints(5))
	assert.Empty(t, a.StatusCodeDistribution())
	assert.Empty(t, a.DailyTraffic())
	assert.Empty(t, a.ErrorEntries())

	hourly := a.HourlyTraffic()
	require.Len(t, hourly, 24)
	assert.Equal(t, 0, hourly.Total())

	_, ok := a.PerformanceMetrics()
	assert.False(t, ok)
}

func TestAnalytics_Basics(t *testing.T) {
	entries := []*record.LogEntry{
		newEntry(t, withIP("10.0.0.1"), withStatus(200), withSize(100)),
		newEntry(t, withIP("10.0.0.2"), withStatus(404), withSize(200)),
		newEntry(t, withIP("10.0.0.1"), withStatus(500), withSize(300)),
		newEntry(t, withIP("10.0.0.3"), withStatus(301), withSize(400)),
	}
	a := New(entries)

	assert.Equal(t, 4, a.TotalRequests())
	assert.Equal(t, 3, a.UniqueIPCount())
	assert.InDelta(t, 50.0, a.ErrorRate(), 1e-9)
	assert.InDelta(t, 25.0, a.ServerErrorRate(), 1e-9)
	assert.InDelta(t, 250.0, a.AvgResponseSize(), 1e-9)
	assert.Equal(t, map[int]int{200: 1, 404: 1, 500: 1, 301: 1}, a.StatusCodeDistribution())

	errs := a.ErrorEntries()
	require.Len(t, errs, 2)
	assert.Equal(t, 404, errs[0].StatusCode)
	assert.Equal(t, 500, errs[1].StatusCode)
}

func TestAnalytics_TopEndpointsTieBreak(t *testing.T) {
	entries := []*record.LogEntry{
		newEntry(t, withPath("/a")),
		newEntry(t, withPath("/a")),
		newEntry(t, withPath("/b")),
	}

	top := New(entries).TopEndpoints(2)
	assert.Equal(t, Counts{{"/a", 2}, {"/b", 1}}, top)
}

func TestAnalytics_TopIPsFirstSeenOrderOnTies(t *testing.T) {
	entries := []*record.LogEntry{
		newEntry(t, withIP("10.0.0.3")),
		newEntry(t, withIP("10.0.0.1")),
		newEntry(t, withIP("10.0.0.2")),
		newEntry(t, withIP("10.0.0.2")),
		newEntry(t, withIP("10.0.0.1")),
	}

	top := New(entries).TopIPs(10)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}, top.Keys())

	assert.Len(t, New(entries).TopIPs(1), 1)
	assert.Empty(t, New(entries).TopIPs(0))
}

func TestAnalytics_UserAgentsAndReferrers(t *testing.T) {
	entries := []*record.LogEntry{
		newEntry(t, withAgent("curl/8.0")),
		newEntry(t, withAgent("Mozilla/5.0"), withReferrer("https://example.com")),
		newEntry(t, withAgent("Mozilla/5.0")),
		newEntry(t),
	}
	a := New(entries)

	assert.Equal(t, Counts{{"Mozilla/5.0", 2}, {"curl/8.0", 1}}, a.UserAgents(10))
	assert.Equal(t, Counts{{"https://example.com", 1}}, a.Referrers(10))
}

func TestAnalytics_HourlyTraffic(t *testing.T) {
	zone := time.FixedZone("", -5*3600)
	local := record.NewAwareTimestamp(time.Date(2023, 10, 10, 23, 30, 0, 0, zone))
	naive := record.NewNaiveTimestamp(time.Date(2023, 10, 10, 7, 5, 0, 0, time.UTC))

	entries := []*record.LogEntry{
		newEntry(t, withTime(0)),
		newEntry(t, withTime(10*time.Minute)),
		newEntry(t, func(e *record.LogEntry) { e.Timestamp = local }),
		newEntry(t, func(e *record.LogEntry) { e.Timestamp = naive }),
	}

	hourly := New(entries).HourlyTraffic()
	require.Len(t, hourly, 24)
	assert.Equal(t, "00:00", hourly[0].Key)
	assert.Equal(t, "23:00", hourly[23].Key)

	count, _ := hourly.Get("13:00")
	assert.Equal(t, 2, count)
	count, _ = hourly.Get("23:00")
	assert.Equal(t, 1, count, "hour is taken from the entry's own offset")
	count, _ = hourly.Get("07:00")
	assert.Equal(t, 1, count)
}

func TestAnalytics_DailyTraffic(t *testing.T) {
	entries := []*record.LogEntry{
		newEntry(t, withTime(48*time.Hour)),
		newEntry(t, withTime(0)),
		newEntry(t, withTime(time.Hour)),
	}

	daily := New(entries).DailyTraffic()
	assert.Equal(t, Counts{{"2023-10-10", 2}, {"2023-10-12", 1}}, daily)
}

func TestAnalytics_SlowAndLarge(t *testing.T) {
	entries := []*record.LogEntry{
		newEntry(t, withResponseTime(0.5), withSize(10)),
		newEntry(t, withResponseTime(2.5), withSize(2*1024*1024)),
		newEntry(t, withSize(DefaultLargeResponseThreshold)),
	}
	a := New(entries)

	slow := a.SlowRequests(DefaultSlowRequestThreshold)
	require.Len(t, slow, 1)
	assert.Equal(t, 2.5, *slow[0].ResponseTime)

	large := a.LargeResponses(DefaultLargeResponseThreshold)
	require.Len(t, large, 1)
	assert.Equal(t, int64(2*1024*1024), large[0].ResponseSize)
}

func TestAnalytics_InputNotModified(t *testing.T) {
	entries := []*record.LogEntry{
		newEntry(t, withTime(time.Hour), withPath("/late")),
		newEntry(t, withTime(0), withPath("/early")),
	}

	New(entries).GenerateReport(10)
	Trends(entries, time.Minute)

	assert.Equal(t, "/late", entries[0].Path)
	assert.Equal(t, "/early", entries[1].Path)
}

func TestIsBotUserAgent(t *testing.T) {
	for _, ua := range []string{"Googlebot/2.1", "Some CRAWLER", "spider-x", "web scraper 1.0"} {
		assert.True(t, IsBotUserAgent(ua), ua)
	}
	assert.False(t, IsBotUserAgent("Mozilla/5.0"))
}
