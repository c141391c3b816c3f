package blocks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/TTCRadio/gnuradio/block"
	"github.com/TTCRadio/gnuradio/errors"
	"github.com/TTCRadio/gnuradio/stream"
)

// DecimateConfig configures a Decimate factory instance.
type DecimateConfig struct {
	Name   string `json:"name"`
	Factor int    `json:"factor"`
}

// Validate checks the configuration is complete.
func (c *DecimateConfig) Validate() error {
	if c.Name == "" {
		return errors.WrapConstruction(errors.ErrInvalidConfig, "Decimate", "Validate", "name validation")
	}
	if c.Factor < 1 {
		return errors.WrapConstruction(
			fmt.Errorf("factor %d: %w", c.Factor, errors.ErrInvalidConfig),
			"Decimate", "Validate", "factor validation")
	}
	return nil
}

// Decimate keeps the first sample of every factor-sized input group. One
// float64 input, one float64 output, rate 1:factor.
type Decimate struct {
	name   string
	factor int
}

// NewDecimate creates a keep-one-in-N decimator.
func NewDecimate(name string, factor int) (*Decimate, error) {
	cfg := DecimateConfig{Name: name, Factor: factor}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Decimate{name: name, factor: factor}, nil
}

// NewDecimateFromConfig is the registry factory for "decimate".
func NewDecimateFromConfig(rawConfig json.RawMessage) (block.Block, error) {
	var cfg DecimateConfig
	if err := json.Unmarshal(rawConfig, &cfg); err != nil {
		return nil, errors.WrapConstruction(err, "Decimate", "NewDecimateFromConfig", "config parsing")
	}
	return NewDecimate(cfg.Name, cfg.Factor)
}

func (d *Decimate) Name() string { return d.name }

func (d *Decimate) InputSignature() block.Signature {
	return block.NewSignature(1, 1, Float64Size)
}

func (d *Decimate) OutputSignature() block.Signature {
	return block.NewSignature(1, 1, Float64Size)
}

func (d *Decimate) Rate() block.Ratio { return block.DecimateBy(d.factor) }

func (d *Decimate) Work(_ context.Context, inputs []stream.InputWindow, outputs []*stream.OutputWindow) (int, error) {
	in, out := inputs[0], outputs[0]

	n := out.Len()
	if fromInput := in.Len() / d.factor; fromInput < n {
		n = fromInput
	}

	for i := 0; i < n; i++ {
		copy(out.Item(i), in.Item(i*d.factor))
	}
	return n, nil
}
