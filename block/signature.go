package block

import (
	"fmt"

	"github.com/TTCRadio/gnuradio/errors"
)

// MaxUnbounded marks a signature with no upper stream-count limit.
const MaxUnbounded = -1

// Signature declares one side (input or output) of a block's stream
// interface: how many streams it accepts and the element size of each.
// Element sizes are opaque byte counts, not numeric types.
type Signature struct {
	MinStreams int   `json:"min_streams"`
	MaxStreams int   `json:"max_streams"` // MaxUnbounded for no limit
	ElemSizes  []int `json:"elem_sizes"`  // last entry repeats for higher indexes
}

// NewSignature builds a signature. When a block is wired with more streams
// than elemSizes entries, the last entry applies to the extra streams.
func NewSignature(minStreams, maxStreams int, elemSizes ...int) Signature {
	return Signature{MinStreams: minStreams, MaxStreams: maxStreams, ElemSizes: elemSizes}
}

// NullSignature declares a side with no streams (a source, sink, or
// message-only block).
func NullSignature() Signature {
	return Signature{MinStreams: 0, MaxStreams: 0}
}

// ElemSize returns the element size of stream i.
func (s Signature) ElemSize(i int) int {
	if len(s.ElemSizes) == 0 {
		return 0
	}
	if i >= len(s.ElemSizes) {
		return s.ElemSizes[len(s.ElemSizes)-1]
	}
	return s.ElemSizes[i]
}

// Validate checks internal consistency of the declared bounds.
func (s Signature) Validate() error {
	if s.MinStreams < 0 {
		return errors.WrapConstruction(
			fmt.Errorf("min streams %d", s.MinStreams),
			"Signature", "Validate", "bounds validation")
	}
	if s.MaxStreams != MaxUnbounded && s.MaxStreams < s.MinStreams {
		return errors.WrapConstruction(
			fmt.Errorf("max streams %d < min streams %d", s.MaxStreams, s.MinStreams),
			"Signature", "Validate", "bounds validation")
	}
	if s.MaxStreams != 0 && len(s.ElemSizes) == 0 {
		return errors.WrapConstruction(
			fmt.Errorf("no element sizes declared"),
			"Signature", "Validate", "element size validation")
	}
	for i, size := range s.ElemSizes {
		if size <= 0 {
			return errors.WrapConstruction(
				fmt.Errorf("stream %d element size %d", i, size),
				"Signature", "Validate", "element size validation")
		}
	}
	return nil
}

// CheckCount verifies that a wired stream count falls within [min,max].
// Out-of-range counts fail here, at construction/wiring time, never at the
// first work call.
func (s Signature) CheckCount(count int) error {
	if count < s.MinStreams || (s.MaxStreams != MaxUnbounded && count > s.MaxStreams) {
		return errors.WrapConstruction(
			fmt.Errorf("%d streams, bounds [%d, %d]: %w",
				count, s.MinStreams, s.MaxStreams, errors.ErrStreamCountOutOfRange),
			"Signature", "CheckCount", "stream count validation")
	}
	return nil
}
