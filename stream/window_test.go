package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TTCRadio/gnuradio/errors"
	"github.com/TTCRadio/gnuradio/pmt"
)

func TestInputWindowViews(t *testing.T) {
	w := NewInputWindow([]byte{1, 2, 3, 4, 5, 6}, 2, 100, nil)

	assert.Equal(t, 3, w.Len())
	assert.Equal(t, 2, w.ElemSize())
	assert.Equal(t, uint64(100), w.AbsOffset())
	assert.Equal(t, []byte{3, 4}, w.Item(1))
}

func TestInputWindowTagQueries(t *testing.T) {
	ts := NewTagStore()
	ts.Add(Tag{Offset: 99, Key: "before"})
	ts.Add(Tag{Offset: 100, Key: "first"})
	ts.Add(Tag{Offset: 102, Key: "last"})
	ts.Add(Tag{Offset: 103, Key: "after"})

	w := NewInputWindow(make([]byte, 6), 2, 100, ts)

	inWindow := w.TagsInWindow(0, 3)
	require.Len(t, inWindow, 2)
	assert.Equal(t, "first", inWindow[0].Key)
	assert.Equal(t, "last", inWindow[1].Key)

	// Absolute and relative queries agree.
	assert.Equal(t, inWindow, w.TagsInRange(100, 103))

	// Negative relative start reaches history; clamping at stream origin.
	withHistory := w.TagsInWindow(-1, 3)
	require.Len(t, withHistory, 3)
	assert.Equal(t, "before", withHistory[0].Key)

	farBack := NewInputWindow(make([]byte, 2), 2, 1, ts)
	assert.NotPanics(t, func() { farBack.TagsInWindow(-10, 1) })
}

func TestOutputWindowAddTagBounds(t *testing.T) {
	w := NewOutputWindow(make([]byte, 8), 2, 50)
	require.Equal(t, 4, w.Len())

	require.NoError(t, w.AddTag(50, "start", pmt.Null(), "src"))
	require.NoError(t, w.AddTag(53, "end", pmt.Null(), "src"))

	err := w.AddTag(54, "past", pmt.Null(), "src")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTagOutOfRange)
	assert.True(t, errors.IsUsage(err))

	err = w.AddTag(49, "behind", pmt.Null(), "src")
	assert.ErrorIs(t, err, errors.ErrTagOutOfRange)

	pending := w.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "start", pending[0].Key)
	assert.Equal(t, uint64(53), pending[1].Offset)
}

func TestOutputWindowAddTagRel(t *testing.T) {
	w := NewOutputWindow(make([]byte, 4), 2, 10)

	require.NoError(t, w.AddTagRel(1, "k", pmt.Long(1), "src"))
	pending := w.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, uint64(11), pending[0].Offset)

	err := w.AddTagRel(-1, "neg", pmt.Null(), "src")
	assert.ErrorIs(t, err, errors.ErrTagOutOfRange)
}
