package blocks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/TTCRadio/gnuradio/block"
	"github.com/TTCRadio/gnuradio/errors"
	"github.com/TTCRadio/gnuradio/pmt"
	"github.com/TTCRadio/gnuradio/stream"
)

// SourceTag is a tag the source attaches at an absolute output offset.
type SourceTag struct {
	Offset uint64    `json:"offset"`
	Key    string    `json:"key"`
	Value  pmt.Value `json:"value"`
}

// VectorSourceConfig configures a VectorSource factory instance.
type VectorSourceConfig struct {
	Name   string      `json:"name"`
	Values []float64   `json:"values"`
	Repeat int         `json:"repeat"` // full passes over Values; <= 0 means 1
	Tags   []SourceTag `json:"tags"`
}

// Validate checks the configuration is complete.
func (c *VectorSourceConfig) Validate() error {
	if c.Name == "" {
		return errors.WrapConstruction(errors.ErrInvalidConfig, "VectorSource", "Validate", "name validation")
	}
	if len(c.Values) == 0 {
		return errors.WrapConstruction(
			fmt.Errorf("empty values: %w", errors.ErrInvalidConfig),
			"VectorSource", "Validate", "values validation")
	}
	return nil
}

// VectorSource emits a fixed float64 vector, optionally repeated, then
// reports done. Configured tags are attached when their offsets stream past.
type VectorSource struct {
	name   string
	values []float64
	tags   []SourceTag
	pos    int
	total  int
}

// VectorSourceOption configures a VectorSource at construction.
type VectorSourceOption func(*VectorSource)

// WithRepeat sets how many full passes over the vector to emit.
func WithRepeat(n int) VectorSourceOption {
	return func(s *VectorSource) {
		if n > 1 {
			s.total = len(s.values) * n
		}
	}
}

// WithSourceTags attaches tags at absolute output offsets.
func WithSourceTags(tags ...SourceTag) VectorSourceOption {
	return func(s *VectorSource) {
		s.tags = append(s.tags, tags...)
	}
}

// NewVectorSource creates a source emitting values once unless WithRepeat
// raises the pass count.
func NewVectorSource(name string, values []float64, opts ...VectorSourceOption) (*VectorSource, error) {
	cfg := VectorSourceConfig{Name: name, Values: values}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &VectorSource{
		name:   name,
		values: append([]float64(nil), values...),
		total:  len(values),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// NewVectorSourceFromConfig is the registry factory for "vector_source".
func NewVectorSourceFromConfig(rawConfig json.RawMessage) (block.Block, error) {
	var cfg VectorSourceConfig
	if err := json.Unmarshal(rawConfig, &cfg); err != nil {
		return nil, errors.WrapConstruction(err, "VectorSource", "NewVectorSourceFromConfig", "config parsing")
	}
	return NewVectorSource(cfg.Name, cfg.Values, WithRepeat(cfg.Repeat), WithSourceTags(cfg.Tags...))
}

func (s *VectorSource) Name() string { return s.name }

func (s *VectorSource) InputSignature() block.Signature { return block.NullSignature() }

func (s *VectorSource) OutputSignature() block.Signature {
	return block.NewSignature(1, 1, Float64Size)
}

func (s *VectorSource) Rate() block.Ratio { return block.OneToOne() }

func (s *VectorSource) Work(_ context.Context, _ []stream.InputWindow, outputs []*stream.OutputWindow) (int, error) {
	if s.pos >= s.total {
		return 0, block.ErrDone
	}

	out := outputs[0]
	n := out.Len()
	if remaining := s.total - s.pos; n > remaining {
		n = remaining
	}

	for i := 0; i < n; i++ {
		writeFloat64(out.Item(i), s.values[(s.pos+i)%len(s.values)])
	}

	// The source is the sole producer of its stream, so emitted-item count
	// and absolute offset coincide.
	lo, hi := uint64(s.pos), uint64(s.pos+n)
	for _, t := range s.tags {
		if t.Offset >= lo && t.Offset < hi {
			if err := out.AddTag(t.Offset, t.Key, t.Value, s.name); err != nil {
				return 0, err
			}
		}
	}

	s.pos += n
	return n, nil
}
