package analyzer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounts_MarshalKeepsOrder(t *testing.T) {
	c := Counts{{"/z", 3}, {"/a", 2}, {`/q"uote`, 1}}

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, `{"/z":3,"/a":2,"/q\"uote":1}`, string(data))

	data, err = json.Marshal(Counts(nil))
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestCounts_Helpers(t *testing.T) {
	c := Counts{{"a", 3}, {"b", 2}}

	n, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "b"}, c.Keys())
	assert.Equal(t, 5, c.Total())
}

func TestTally(t *testing.T) {
	tl := newTally()
	for _, k := range []string{"b", "a", "c", "a", "b", "d"} {
		tl.add(k)
	}

	assert.Equal(t, Counts{{"b", 2}, {"a", 2}, {"c", 1}, {"d", 1}}, tl.top(10))
	assert.Equal(t, Counts{{"b", 2}, {"a", 2}}, tl.top(2))
	assert.Equal(t, Counts{{"a", 2}, {"b", 2}, {"c", 1}, {"d", 1}}, tl.sorted())
}
