package block

import (
	"context"
	"errors"
	"fmt"

	grerrors "github.com/TTCRadio/gnuradio/errors"
	"github.com/TTCRadio/gnuradio/stream"
)

// ErrDone is returned from Work when a block has no more output and should
// stop being scheduled. It is the Go rendering of the negative-return
// sentinel and is not a failure.
var ErrDone = errors.New("block done")

// Block is the unit of stream-processing work.
//
// Work receives one read-only window per wired input stream and one write
// window per wired output stream, all sized by the scheduler's rate matching
// for this invocation. It writes a prefix of each output window and returns
// the number of items produced, which must not exceed the offered output
// length. A block with a non-1:1 rate implicitly consumes
// produced*Decim/Interp items from every input; the scheduler performs that
// accounting from the returned count, which is authoritative and final for
// the call.
//
// Returning (0, nil) means "no progress this call"; the scheduler applies
// its yield policy. Returning ErrDone stops the block permanently. Any other
// error, or a panic, is fatal to the graph run.
//
// Side effects permitted during Work: adding tags to output windows within
// the produced range, publishing to registered output ports, and mutating
// private state. Work is never invoked concurrently with itself or with the
// same block's message handlers.
type Block interface {
	// Name returns the diagnostic instance name.
	Name() string

	// InputSignature declares the input side of the stream interface.
	InputSignature() Signature

	// OutputSignature declares the output side of the stream interface.
	OutputSignature() Signature

	// Rate returns the block's rational rate. OneToOne for synchronized
	// blocks.
	Rate() Ratio

	// Work processes one negotiated window set.
	Work(ctx context.Context, inputs []stream.InputWindow, outputs []*stream.OutputWindow) (int, error)
}

// MessagePorter is implemented by blocks that carry message ports, usually
// by embedding Ports.
type MessagePorter interface {
	MessagePorts() *Ports
}

// TagPropagator is implemented by 1:1 blocks that want input tags copied to
// the matching output offsets when the scheduler commits an invocation.
// Blocks without it re-emit tags explicitly or not at all.
type TagPropagator interface {
	PropagateTags() bool
}

// OutputConstrainer is implemented by blocks whose produced count must be a
// multiple of a fixed quantum (e.g. a block emitting whole frames).
type OutputConstrainer interface {
	OutputMultiple() int
}

// Ratio is a block's rational rate: Interp output items per Decim input
// items. A 1:1 block is {1, 1}, a decimate-by-N block is {1, N}, an
// interpolate-by-N block is {N, 1}.
type Ratio struct {
	Interp int `json:"interp"`
	Decim  int `json:"decim"`
}

// OneToOne returns the synchronized 1:1 rate.
func OneToOne() Ratio { return Ratio{Interp: 1, Decim: 1} }

// DecimateBy returns the N-inputs-per-output rate.
func DecimateBy(n int) Ratio { return Ratio{Interp: 1, Decim: n} }

// InterpolateBy returns the N-outputs-per-input rate.
func InterpolateBy(n int) Ratio { return Ratio{Interp: n, Decim: 1} }

// Validate checks the ratio terms are positive.
func (r Ratio) Validate() error {
	if r.Interp <= 0 || r.Decim <= 0 {
		return grerrors.WrapConstruction(
			fmt.Errorf("ratio %d:%d", r.Interp, r.Decim),
			"Ratio", "Validate", "rate validation")
	}
	return nil
}

// InputItems returns the input consumption implied by producing
// outputItems. outputItems must be a multiple of Interp.
func (r Ratio) InputItems(outputItems int) int {
	return outputItems / r.Interp * r.Decim
}

// OutputItems returns the output production implied by consuming
// inputItems, rounded down to a whole number of rate quanta.
func (r Ratio) OutputItems(inputItems int) int {
	return inputItems / r.Decim * r.Interp
}

// AlignOutput rounds outputItems down to a multiple of Interp so the implied
// input consumption stays integral.
func (r Ratio) AlignOutput(outputItems int) int {
	return outputItems / r.Interp * r.Interp
}

// String renders the ratio for diagnostics.
func (r Ratio) String() string {
	return fmt.Sprintf("%d:%d", r.Interp, r.Decim)
}
