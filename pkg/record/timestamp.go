package record

import (
	"fmt"
	"time"
)

const (
	isoNaiveLayout = "2006-01-02T15:04:05"
	isoAwareLayout = "2006-01-02T15:04:05-07:00"
)

// Timestamp is a log instant that may or may not carry a UTC offset.
//
// Aware timestamps hold a fixed zone built from the offset found in the log
// line. Naive timestamps hold the wall clock in UTC and report HasOffset false.
// Ordering between a naive and an aware value compares the stored instants;
// callers should not depend on it.
type Timestamp struct {
	time.Time
	aware bool
}

// NewAwareTimestamp returns a timestamp with the given offset attached.
func NewAwareTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t, aware: true}
}

// NewNaiveTimestamp returns a timestamp without offset information.
// The wall clock of t is kept and re-anchored in UTC.
func NewNaiveTimestamp(t time.Time) Timestamp {
	return Timestamp{
		Time: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC),
	}
}

// HasOffset reports whether the timestamp carried a UTC offset.
func (t Timestamp) HasOffset() bool {
	return t.aware
}

// OffsetSeconds returns the UTC offset in seconds. ok is false for naive timestamps.
func (t Timestamp) OffsetSeconds() (seconds int, ok bool) {
	if !t.aware {
		return 0, false
	}
	_, off := t.Zone()
	return off, true
}

// Add returns the timestamp shifted by d, keeping its offset variant.
func (t Timestamp) Add(d time.Duration) Timestamp {
	return Timestamp{Time: t.Time.Add(d), aware: t.aware}
}

// ISO renders the timestamp like an ISO 8601 datetime, with the offset only when known.
func (t Timestamp) ISO() string {
	if t.aware {
		return t.Format(isoAwareLayout)
	}
	return t.Format(isoNaiveLayout)
}

// String implements fmt.Stringer.
func (t Timestamp) String() string {
	return t.ISO()
}

// MarshalJSON encodes the timestamp as its ISO string.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", t.ISO())), nil
}
