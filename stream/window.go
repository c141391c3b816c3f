package stream

import (
	"fmt"

	"github.com/TTCRadio/gnuradio/errors"
	"github.com/TTCRadio/gnuradio/pmt"
)

// InputWindow is the read-only view of one input stream for a single work
// invocation: exactly the negotiated number of contiguous items, starting at
// the stream's read cursor, plus range/window tag queries against the
// stream's tag store.
type InputWindow struct {
	data     []byte
	elemSize int
	base     uint64 // read cursor at call time
	tags     *TagStore
}

// NewInputWindow builds an input view over data for a work invocation. The
// byte length must be a whole number of elements.
func NewInputWindow(data []byte, elemSize int, base uint64, tags *TagStore) InputWindow {
	return InputWindow{data: data, elemSize: elemSize, base: base, tags: tags}
}

// Len returns the window length in items.
func (w InputWindow) Len() int { return len(w.data) / w.elemSize }

// ElemSize returns the element size in bytes.
func (w InputWindow) ElemSize() int { return w.elemSize }

// Bytes returns the raw window contents. Callers must treat it as read-only.
func (w InputWindow) Bytes() []byte { return w.data }

// Item returns the bytes of the i-th item in the window.
func (w InputWindow) Item(i int) []byte {
	return w.data[i*w.elemSize : (i+1)*w.elemSize]
}

// AbsOffset returns the absolute stream offset of the first window item.
func (w InputWindow) AbsOffset() uint64 { return w.base }

// TagsInRange returns all tags with absStart <= offset < absEnd for this
// stream, in ascending offset order.
func (w InputWindow) TagsInRange(absStart, absEnd uint64) []Tag {
	if w.tags == nil {
		return nil
	}
	return w.tags.Range(absStart, absEnd)
}

// TagsInWindow is TagsInRange with offsets relative to the read cursor of
// this work invocation. Negative relative starts clamp to offset zero.
func (w InputWindow) TagsInWindow(relStart, relEnd int64) []Tag {
	return w.TagsInRange(relToAbs(w.base, relStart), relToAbs(w.base, relEnd))
}

// OutputWindow is the write view of one output stream for a single work
// invocation: space for the negotiated number of items starting at the
// stream's write cursor. The block writes a prefix and reports its length as
// the work return value. Tags added here are held pending and committed by
// the scheduler together with the produced items.
type OutputWindow struct {
	data     []byte
	elemSize int
	base     uint64 // write cursor at call time
	pending  []Tag
}

// NewOutputWindow builds an output view with room for the offered items.
func NewOutputWindow(data []byte, elemSize int, base uint64) *OutputWindow {
	return &OutputWindow{data: data, elemSize: elemSize, base: base}
}

// Len returns the offered window length in items.
func (w *OutputWindow) Len() int { return len(w.data) / w.elemSize }

// ElemSize returns the element size in bytes.
func (w *OutputWindow) ElemSize() int { return w.elemSize }

// Bytes returns the writable window contents.
func (w *OutputWindow) Bytes() []byte { return w.data }

// Item returns the writable bytes of the i-th item in the window.
func (w *OutputWindow) Item(i int) []byte {
	return w.data[i*w.elemSize : (i+1)*w.elemSize]
}

// AbsOffset returns the absolute stream offset of the first window item.
func (w *OutputWindow) AbsOffset() uint64 { return w.base }

// AddTag attaches a tag at an absolute offset within the items being produced
// by this invocation. Offsets outside [AbsOffset, AbsOffset+Len) are a usage
// error reported to the caller, never silently accepted. The final bound
// against the actually-produced count is enforced when the scheduler commits
// the invocation.
func (w *OutputWindow) AddTag(abs uint64, key string, value pmt.Value, source string) error {
	if abs < w.base || abs >= w.base+uint64(w.Len()) {
		return errors.WrapUsage(
			fmt.Errorf("offset %d outside [%d, %d): %w",
				abs, w.base, w.base+uint64(w.Len()), errors.ErrTagOutOfRange),
			"OutputWindow", "AddTag", "offset validation")
	}
	w.pending = append(w.pending, Tag{Offset: abs, Key: key, Value: value, Source: source})
	return nil
}

// AddTagRel is AddTag with an offset relative to the start of the window.
func (w *OutputWindow) AddTagRel(rel int, key string, value pmt.Value, source string) error {
	if rel < 0 {
		return errors.WrapUsage(
			fmt.Errorf("relative offset %d: %w", rel, errors.ErrTagOutOfRange),
			"OutputWindow", "AddTagRel", "offset validation")
	}
	return w.AddTag(w.base+uint64(rel), key, value, source)
}

// Pending returns the tags added during this invocation, in insertion order.
func (w *OutputWindow) Pending() []Tag { return w.pending }

func relToAbs(base uint64, rel int64) uint64 {
	if rel < 0 {
		neg := uint64(-rel)
		if neg > base {
			return 0
		}
		return base - neg
	}
	return base + uint64(rel)
}
