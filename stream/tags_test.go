package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TTCRadio/gnuradio/pmt"
)

func TestTagStoreOrdering(t *testing.T) {
	ts := NewTagStore()
	ts.Add(Tag{Offset: 10, Key: "b"})
	ts.Add(Tag{Offset: 5, Key: "a"})
	ts.Add(Tag{Offset: 20, Key: "c"})

	got := ts.Range(0, 100)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Key)
	assert.Equal(t, "b", got[1].Key)
	assert.Equal(t, "c", got[2].Key)
}

func TestTagStoreStableWithinOffset(t *testing.T) {
	ts := NewTagStore()
	ts.Add(Tag{Offset: 7, Key: "first"})
	ts.Add(Tag{Offset: 7, Key: "second"})
	ts.Add(Tag{Offset: 7, Key: "third"})

	got := ts.Range(7, 8)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"first", "second", "third"},
		[]string{got[0].Key, got[1].Key, got[2].Key})
}

func TestTagStoreRangeBounds(t *testing.T) {
	ts := NewTagStore()
	ts.Add(Tag{Offset: 5, Key: "lo"})
	ts.Add(Tag{Offset: 9, Key: "hi"})

	// Half-open: start inclusive, end exclusive.
	got := ts.Range(5, 9)
	require.Len(t, got, 1)
	assert.Equal(t, "lo", got[0].Key)

	assert.Empty(t, ts.Range(6, 9))
	assert.Empty(t, ts.Range(9, 9))
	assert.Empty(t, ts.Range(10, 5))
}

func TestTagStorePrune(t *testing.T) {
	ts := NewTagStore()
	for _, off := range []uint64{1, 3, 5, 7} {
		ts.Add(Tag{Offset: off, Value: pmt.Long(int64(off))})
	}

	removed := ts.Prune(5)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 2, ts.Len())

	got := ts.Range(0, 100)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(5), got[0].Offset)
	assert.Equal(t, uint64(7), got[1].Offset)

	assert.Equal(t, 0, ts.Prune(5))
}
