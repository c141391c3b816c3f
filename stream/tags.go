package stream

import (
	"sort"
	"sync"

	"github.com/TTCRadio/gnuradio/pmt"
)

// Tag is an immutable annotation attached to exactly one item position of one
// stream. Offset is absolute, so the annotation survives arbitrary buffering.
type Tag struct {
	Offset uint64    `json:"offset"`
	Key    string    `json:"key"`
	Value  pmt.Value `json:"value"`
	Source string    `json:"source,omitempty"`
}

// TagStore holds the tags of one stream edge in non-decreasing offset order.
// Tags are never mutated after insertion, only pruned once the consumer's
// read cursor has permanently advanced past them.
//
// The store itself does not know which offsets are being produced in the
// active work call; that validation belongs to the output window handed to
// the block.
type TagStore struct {
	mu   sync.RWMutex
	tags []Tag // sorted by Offset, insertion order preserved within an offset
}

// NewTagStore creates an empty tag store.
func NewTagStore() *TagStore {
	return &TagStore{}
}

// Add inserts a tag, keeping the store sorted by offset. Tags sharing an
// offset keep their insertion order.
func (ts *TagStore) Add(tag Tag) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	// Upper bound: first index with a strictly greater offset.
	i := sort.Search(len(ts.tags), func(i int) bool {
		return ts.tags[i].Offset > tag.Offset
	})

	ts.tags = append(ts.tags, Tag{})
	copy(ts.tags[i+1:], ts.tags[i:])
	ts.tags[i] = tag
}

// Range returns all tags with start <= Offset < end in ascending offset
// order. An empty range yields an empty slice, never an error.
func (ts *TagStore) Range(start, end uint64) []Tag {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	if start >= end {
		return nil
	}

	lo := sort.Search(len(ts.tags), func(i int) bool {
		return ts.tags[i].Offset >= start
	})
	hi := sort.Search(len(ts.tags), func(i int) bool {
		return ts.tags[i].Offset >= end
	})

	if lo == hi {
		return nil
	}
	out := make([]Tag, hi-lo)
	copy(out, ts.tags[lo:hi])
	return out
}

// Prune removes all tags with Offset < before and returns how many were
// removed. Callers must only pass cursors every consumer has advanced past.
func (ts *TagStore) Prune(before uint64) int {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	i := sort.Search(len(ts.tags), func(i int) bool {
		return ts.tags[i].Offset >= before
	})
	if i == 0 {
		return 0
	}

	remaining := len(ts.tags) - i
	copy(ts.tags, ts.tags[i:])
	for j := remaining; j < len(ts.tags); j++ {
		ts.tags[j] = Tag{} // release payloads
	}
	ts.tags = ts.tags[:remaining]
	return i
}

// Len returns the number of stored tags.
func (ts *TagStore) Len() int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return len(ts.tags)
}
