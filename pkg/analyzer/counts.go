package analyzer

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// Count is one key of an ordered tally.
type Count struct {
	Key   string
	Count int
}

// Counts is an ordered tally. Rankings are sorted by count descending with
// ties in first-seen order; time buckets are sorted by key ascending.
// It marshals to a JSON object that keeps this order.
type Counts []Count

// Get returns the count for key.
func (c Counts) Get(key string) (int, bool) {
	for _, item := range c {
		if item.Key == key {
			return item.Count, true
		}
	}
	return 0, false
}

// Keys returns the keys in order.
func (c Counts) Keys() []string {
	keys := make([]string, len(c))
	for i, item := range c {
		keys[i] = item.Key
	}
	return keys
}

// Total sums all counts.
func (c Counts) Total() int {
	total := 0
	for _, item := range c {
		total += item.Count
	}
	return total
}

// MarshalJSON encodes the tally as an object, preserving order.
func (c Counts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(item.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(item.Count))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// tally counts keys and remembers the order they were first seen.
type tally struct {
	order  []string
	counts map[string]int
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

func (t *tally) add(key string) {
	if _, ok := t.counts[key]; !ok {
		t.order = append(t.order, key)
	}
	t.counts[key]++
}

// all returns every key in first-seen order.
func (t *tally) all() Counts {
	out := make(Counts, len(t.order))
	for i, key := range t.order {
		out[i] = Count{Key: key, Count: t.counts[key]}
	}
	return out
}

// top returns the n most frequent keys. Ties keep first-seen order.
func (t *tally) top(n int) Counts {
	if n <= 0 {
		return Counts{}
	}
	ranked := t.all()
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// sorted returns every key in ascending key order.
func (t *tally) sorted() Counts {
	out := t.all()
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key < out[j].Key
	})
	return out
}
