package blocks

import (
	"encoding/binary"
	"math"

	"github.com/TTCRadio/gnuradio/stream"
)

// Float64Size is the element size in bytes for float64 sample streams.
const Float64Size = 8

func readFloat64(item []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(item))
}

func writeFloat64(item []byte, v float64) {
	binary.LittleEndian.PutUint64(item, math.Float64bits(v))
}

// Float64s decodes an input window of float64 samples.
func Float64s(w stream.InputWindow) []float64 {
	out := make([]float64, w.Len())
	for i := range out {
		out[i] = readFloat64(w.Item(i))
	}
	return out
}

// PutFloat64s encodes vals into the front of an output window. The window
// must have room for len(vals) items.
func PutFloat64s(w *stream.OutputWindow, vals []float64) {
	for i, v := range vals {
		writeFloat64(w.Item(i), v)
	}
}
