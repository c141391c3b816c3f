package blocks

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/TTCRadio/gnuradio/block"
	"github.com/TTCRadio/gnuradio/errors"
	"github.com/TTCRadio/gnuradio/stream"
)

// EchoConfig configures an Echo factory instance.
type EchoConfig struct {
	Name  string `json:"name"`
	Limit int64  `json:"limit"` // stop republishing after this many; <= 0 means unlimited
}

// Echo is a message-only block that republishes every message delivered on
// "in" to its "out" port, up to an optional limit. Useful for exercising
// message round trips between blocks.
type Echo struct {
	block.Ports

	name    string
	limit   int64
	relayed atomic.Int64
}

// NewEcho creates a message relay. limit <= 0 relays without bound.
func NewEcho(name string, limit int64) (*Echo, error) {
	if name == "" {
		return nil, errors.WrapConstruction(errors.ErrInvalidConfig, "Echo", "NewEcho", "name validation")
	}

	e := &Echo{name: name, limit: limit}
	e.SetOwner(name)
	if err := e.RegisterIn("in"); err != nil {
		return nil, err
	}
	if err := e.RegisterOut("out"); err != nil {
		return nil, err
	}
	if err := e.SetHandler("in", e.onMessage); err != nil {
		return nil, err
	}
	return e, nil
}

// NewEchoFromConfig is the registry factory for "echo".
func NewEchoFromConfig(rawConfig json.RawMessage) (block.Block, error) {
	var cfg EchoConfig
	if err := json.Unmarshal(rawConfig, &cfg); err != nil {
		return nil, errors.WrapConstruction(err, "Echo", "NewEchoFromConfig", "config parsing")
	}
	return NewEcho(cfg.Name, cfg.Limit)
}

func (e *Echo) onMessage(_ context.Context, msg block.Message) error {
	if e.limit > 0 && e.relayed.Load() >= e.limit {
		return nil
	}
	e.relayed.Add(1)
	return e.Publish("out", msg.Value)
}

// Relayed returns how many messages have been republished.
func (e *Echo) Relayed() int64 { return e.relayed.Load() }

func (e *Echo) Name() string { return e.name }

func (e *Echo) InputSignature() block.Signature { return block.NullSignature() }

func (e *Echo) OutputSignature() block.Signature { return block.NullSignature() }

func (e *Echo) Rate() block.Ratio { return block.OneToOne() }

// Work is never scheduled for a block with no stream connections.
func (e *Echo) Work(_ context.Context, _ []stream.InputWindow, _ []*stream.OutputWindow) (int, error) {
	return 0, nil
}
