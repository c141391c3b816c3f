// Package graph assembles flowgraphs from declarative definitions: blocks
// built through the factory registry, stream and message connections wired
// into a scheduler.
package graph

import (
	"encoding/json"
	"fmt"

	"github.com/TTCRadio/gnuradio/errors"
)

// BlockSpec names one block instance and the factory that builds it.
type BlockSpec struct {
	Name     string          `json:"name"`
	Factory  string          `json:"factory"`
	Config   json.RawMessage `json:"config,omitempty"`
	MaxChunk int             `json:"max_chunk,omitempty"`
}

// StreamConnection wires an output stream to an input stream.
type StreamConnection struct {
	Src      string `json:"src"`
	SrcPort  int    `json:"src_port"`
	Dst      string `json:"dst"`
	DstPort  int    `json:"dst_port"`
	BufItems int    `json:"buf_items,omitempty"` // <= 0 uses the scheduler default
}

// MessageConnection wires a named message output port to a named message
// input port.
type MessageConnection struct {
	Src     string `json:"src"`
	SrcPort string `json:"src_port"`
	Dst     string `json:"dst"`
	DstPort string `json:"dst_port"`
}

// Definition is a complete declarative flowgraph.
type Definition struct {
	Name     string              `json:"name"`
	Blocks   []BlockSpec         `json:"blocks"`
	Streams  []StreamConnection  `json:"streams,omitempty"`
	Messages []MessageConnection `json:"messages,omitempty"`
}

// ParseDefinition decodes a JSON flowgraph definition and validates it
// structurally.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, errors.WrapConstruction(err, "graph", "ParseDefinition", "definition parsing")
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks the definition references are internally consistent:
// unique block names, factories named, connections referring to declared
// blocks. Signature and element-size checks happen at build time.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return errors.WrapConstruction(errors.ErrInvalidConfig, "Definition", "Validate", "graph name validation")
	}
	if len(d.Blocks) == 0 {
		return errors.WrapConstruction(
			fmt.Errorf("no blocks: %w", errors.ErrInvalidConfig),
			"Definition", "Validate", "block list validation")
	}

	names := make(map[string]bool, len(d.Blocks))
	for _, b := range d.Blocks {
		if b.Name == "" || b.Factory == "" {
			return errors.WrapConstruction(
				fmt.Errorf("block %q factory %q: %w", b.Name, b.Factory, errors.ErrInvalidConfig),
				"Definition", "Validate", "block spec validation")
		}
		if names[b.Name] {
			return errors.WrapConstruction(
				fmt.Errorf("duplicate block name %q: %w", b.Name, errors.ErrInvalidConfig),
				"Definition", "Validate", "block name validation")
		}
		names[b.Name] = true
	}

	for _, c := range d.Streams {
		if !names[c.Src] || !names[c.Dst] {
			return errors.WrapConstruction(
				fmt.Errorf("stream %s:%d -> %s:%d references unknown block: %w",
					c.Src, c.SrcPort, c.Dst, c.DstPort, errors.ErrInvalidConfig),
				"Definition", "Validate", "stream connection validation")
		}
	}
	for _, c := range d.Messages {
		if !names[c.Src] || !names[c.Dst] {
			return errors.WrapConstruction(
				fmt.Errorf("message %s:%s -> %s:%s references unknown block: %w",
					c.Src, c.SrcPort, c.Dst, c.DstPort, errors.ErrInvalidConfig),
				"Definition", "Validate", "message connection validation")
		}
		if c.SrcPort == "" || c.DstPort == "" {
			return errors.WrapConstruction(
				fmt.Errorf("message %s -> %s with unnamed port: %w", c.Src, c.Dst, errors.ErrInvalidConfig),
				"Definition", "Validate", "message port validation")
		}
	}
	return nil
}
