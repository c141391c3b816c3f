package blocks

import (
	"context"
	"encoding/json"

	"github.com/TTCRadio/gnuradio/block"
	"github.com/TTCRadio/gnuradio/errors"
	"github.com/TTCRadio/gnuradio/stream"
)

// AddConfig configures an Add factory instance.
type AddConfig struct {
	Name          string `json:"name"`
	PropagateTags bool   `json:"propagate_tags"`
}

// Add sums its input streams element-wise. Two or more inputs, one output,
// all float64, synchronized 1:1. Tag propagation from input offsets to the
// matching output offsets is opt-in.
type Add struct {
	name      string
	propagate bool
}

// NewAdd creates an element-wise adder.
func NewAdd(name string, propagateTags bool) (*Add, error) {
	if name == "" {
		return nil, errors.WrapConstruction(errors.ErrInvalidConfig, "Add", "NewAdd", "name validation")
	}
	return &Add{name: name, propagate: propagateTags}, nil
}

// NewAddFromConfig is the registry factory for "add".
func NewAddFromConfig(rawConfig json.RawMessage) (block.Block, error) {
	var cfg AddConfig
	if err := json.Unmarshal(rawConfig, &cfg); err != nil {
		return nil, errors.WrapConstruction(err, "Add", "NewAddFromConfig", "config parsing")
	}
	return NewAdd(cfg.Name, cfg.PropagateTags)
}

func (a *Add) Name() string { return a.name }

func (a *Add) InputSignature() block.Signature {
	return block.NewSignature(2, block.MaxUnbounded, Float64Size)
}

func (a *Add) OutputSignature() block.Signature {
	return block.NewSignature(1, 1, Float64Size)
}

func (a *Add) Rate() block.Ratio { return block.OneToOne() }

// PropagateTags implements block.TagPropagator.
func (a *Add) PropagateTags() bool { return a.propagate }

func (a *Add) Work(_ context.Context, inputs []stream.InputWindow, outputs []*stream.OutputWindow) (int, error) {
	out := outputs[0]
	n := out.Len()
	for _, in := range inputs {
		if in.Len() < n {
			n = in.Len()
		}
	}

	for i := 0; i < n; i++ {
		sum := 0.0
		for _, in := range inputs {
			sum += readFloat64(in.Item(i))
		}
		writeFloat64(out.Item(i), sum)
	}
	return n, nil
}
