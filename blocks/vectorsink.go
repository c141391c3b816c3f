package blocks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/TTCRadio/gnuradio/block"
	"github.com/TTCRadio/gnuradio/errors"
	"github.com/TTCRadio/gnuradio/stream"
)

// VectorSinkConfig configures a VectorSink factory instance.
type VectorSinkConfig struct {
	Name string `json:"name"`
}

// VectorSink collects every float64 sample and tag it consumes. Accessors
// are safe to call after the scheduler run completes, or concurrently with
// it for progress inspection.
type VectorSink struct {
	name string

	mu     sync.Mutex
	values []float64
	tags   []stream.Tag
}

// NewVectorSink creates an accumulating sink.
func NewVectorSink(name string) (*VectorSink, error) {
	if name == "" {
		return nil, errors.WrapConstruction(errors.ErrInvalidConfig, "VectorSink", "NewVectorSink", "name validation")
	}
	return &VectorSink{name: name}, nil
}

// NewVectorSinkFromConfig is the registry factory for "vector_sink".
func NewVectorSinkFromConfig(rawConfig json.RawMessage) (block.Block, error) {
	var cfg VectorSinkConfig
	if err := json.Unmarshal(rawConfig, &cfg); err != nil {
		return nil, errors.WrapConstruction(err, "VectorSink", "NewVectorSinkFromConfig", "config parsing")
	}
	return NewVectorSink(cfg.Name)
}

func (s *VectorSink) Name() string { return s.name }

func (s *VectorSink) InputSignature() block.Signature {
	return block.NewSignature(1, 1, Float64Size)
}

func (s *VectorSink) OutputSignature() block.Signature { return block.NullSignature() }

func (s *VectorSink) Rate() block.Ratio { return block.OneToOne() }

func (s *VectorSink) Work(_ context.Context, inputs []stream.InputWindow, _ []*stream.OutputWindow) (int, error) {
	in := inputs[0]
	n := in.Len()
	if n == 0 {
		return 0, nil
	}

	tags := in.TagsInWindow(0, int64(n))

	s.mu.Lock()
	for i := 0; i < n; i++ {
		s.values = append(s.values, readFloat64(in.Item(i)))
	}
	s.tags = append(s.tags, tags...)
	s.mu.Unlock()

	return n, nil
}

// Values returns a copy of the samples consumed so far.
func (s *VectorSink) Values() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.values...)
}

// Tags returns a copy of the tags observed so far, in consumption order.
func (s *VectorSink) Tags() []stream.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]stream.Tag(nil), s.tags...)
}
