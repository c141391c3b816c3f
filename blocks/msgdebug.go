package blocks

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/TTCRadio/gnuradio/block"
	"github.com/TTCRadio/gnuradio/errors"
	"github.com/TTCRadio/gnuradio/stream"
)

// MessageDebugConfig configures a MessageDebug factory instance.
type MessageDebugConfig struct {
	Name string `json:"name"`
}

// MessageDebug is a message-only block that logs and records every message
// delivered to its "print" port. Messages sent to its "store" port are
// queued without a handler for the owner to Drain.
type MessageDebug struct {
	block.Ports

	name   string
	logger *slog.Logger

	mu       sync.Mutex
	received []block.Message
}

// MessageDebugOption configures a MessageDebug at construction.
type MessageDebugOption func(*MessageDebug)

// WithDebugLogger sets the structured logger. Defaults to slog.Default().
func WithDebugLogger(logger *slog.Logger) MessageDebugOption {
	return func(d *MessageDebug) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewMessageDebug creates a message sink with "print" (handled) and "store"
// (queue-and-drain) input ports.
func NewMessageDebug(name string, opts ...MessageDebugOption) (*MessageDebug, error) {
	if name == "" {
		return nil, errors.WrapConstruction(errors.ErrInvalidConfig, "MessageDebug", "NewMessageDebug", "name validation")
	}

	d := &MessageDebug{name: name, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	d.SetOwner(name)
	if err := d.RegisterIn("print"); err != nil {
		return nil, err
	}
	if err := d.RegisterIn("store"); err != nil {
		return nil, err
	}
	if err := d.SetHandler("print", d.onPrint); err != nil {
		return nil, err
	}
	return d, nil
}

// NewMessageDebugFromConfig is the registry factory for "message_debug".
func NewMessageDebugFromConfig(rawConfig json.RawMessage) (block.Block, error) {
	var cfg MessageDebugConfig
	if err := json.Unmarshal(rawConfig, &cfg); err != nil {
		return nil, errors.WrapConstruction(err, "MessageDebug", "NewMessageDebugFromConfig", "config parsing")
	}
	return NewMessageDebug(cfg.Name)
}

func (d *MessageDebug) onPrint(_ context.Context, msg block.Message) error {
	d.logger.Info("message received",
		"block", d.name,
		"from", msg.From,
		"port", msg.Port,
		"value", msg.Value.String())

	d.mu.Lock()
	d.received = append(d.received, msg)
	d.mu.Unlock()
	return nil
}

// Received returns a copy of the messages handled on "print", in delivery
// order.
func (d *MessageDebug) Received() []block.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]block.Message(nil), d.received...)
}

func (d *MessageDebug) Name() string { return d.name }

func (d *MessageDebug) InputSignature() block.Signature { return block.NullSignature() }

func (d *MessageDebug) OutputSignature() block.Signature { return block.NullSignature() }

func (d *MessageDebug) Rate() block.Ratio { return block.OneToOne() }

// Work is never scheduled for a block with no stream connections.
func (d *MessageDebug) Work(_ context.Context, _ []stream.InputWindow, _ []*stream.OutputWindow) (int, error) {
	return 0, nil
}
