package blocks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/TTCRadio/gnuradio/block"
	"github.com/TTCRadio/gnuradio/errors"
	"github.com/TTCRadio/gnuradio/stream"
)

// RepeatConfig configures a Repeat factory instance.
type RepeatConfig struct {
	Name   string `json:"name"`
	Factor int    `json:"factor"`
}

// Validate checks the configuration is complete.
func (c *RepeatConfig) Validate() error {
	if c.Name == "" {
		return errors.WrapConstruction(errors.ErrInvalidConfig, "Repeat", "Validate", "name validation")
	}
	if c.Factor < 1 {
		return errors.WrapConstruction(
			fmt.Errorf("factor %d: %w", c.Factor, errors.ErrInvalidConfig),
			"Repeat", "Validate", "factor validation")
	}
	return nil
}

// Repeat emits every input sample factor times. One float64 input, one
// float64 output, rate factor:1. Produced counts are constrained to whole
// repeat groups.
type Repeat struct {
	name   string
	factor int
}

// NewRepeat creates an emit-each-sample-N-times interpolator.
func NewRepeat(name string, factor int) (*Repeat, error) {
	cfg := RepeatConfig{Name: name, Factor: factor}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Repeat{name: name, factor: factor}, nil
}

// NewRepeatFromConfig is the registry factory for "repeat".
func NewRepeatFromConfig(rawConfig json.RawMessage) (block.Block, error) {
	var cfg RepeatConfig
	if err := json.Unmarshal(rawConfig, &cfg); err != nil {
		return nil, errors.WrapConstruction(err, "Repeat", "NewRepeatFromConfig", "config parsing")
	}
	return NewRepeat(cfg.Name, cfg.Factor)
}

func (r *Repeat) Name() string { return r.name }

func (r *Repeat) InputSignature() block.Signature {
	return block.NewSignature(1, 1, Float64Size)
}

func (r *Repeat) OutputSignature() block.Signature {
	return block.NewSignature(1, 1, Float64Size)
}

func (r *Repeat) Rate() block.Ratio { return block.InterpolateBy(r.factor) }

// OutputMultiple implements block.OutputConstrainer.
func (r *Repeat) OutputMultiple() int { return r.factor }

func (r *Repeat) Work(_ context.Context, inputs []stream.InputWindow, outputs []*stream.OutputWindow) (int, error) {
	in, out := inputs[0], outputs[0]

	groups := out.Len() / r.factor
	if groups > in.Len() {
		groups = in.Len()
	}

	for g := 0; g < groups; g++ {
		src := in.Item(g)
		for k := 0; k < r.factor; k++ {
			copy(out.Item(g*r.factor+k), src)
		}
	}
	return groups * r.factor, nil
}
