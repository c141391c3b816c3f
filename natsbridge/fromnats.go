package natsbridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/TTCRadio/gnuradio/block"
	"github.com/TTCRadio/gnuradio/errors"
	"github.com/TTCRadio/gnuradio/stream"
)

// FromNATS is a message-only block that republishes traffic from a NATS
// subject on its "out" port. Subscribe the destination inboxes through the
// scheduler, then call Start.
type FromNATS struct {
	block.Ports

	name    string
	subject string
	conn    *nats.Conn
	logger  *slog.Logger

	mu  sync.Mutex
	sub *nats.Subscription
}

// FromNATSOption configures a FromNATS at construction.
type FromNATSOption func(*FromNATS)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) FromNATSOption {
	return func(f *FromNATS) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFromNATS creates a message ingress bridge for the given subject.
func NewFromNATS(name, subject string, conn *nats.Conn, opts ...FromNATSOption) (*FromNATS, error) {
	if name == "" || subject == "" {
		return nil, errors.WrapConstruction(errors.ErrInvalidConfig, "FromNATS", "NewFromNATS", "config validation")
	}
	if conn == nil {
		return nil, errors.WrapConstruction(
			fmt.Errorf("nil connection: %w", errors.ErrInvalidConfig),
			"FromNATS", "NewFromNATS", "connection validation")
	}

	f := &FromNATS{name: name, subject: subject, conn: conn, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	f.SetOwner(name)
	if err := f.RegisterOut("out"); err != nil {
		return nil, err
	}
	return f, nil
}

// Start subscribes to the subject. Decode failures are logged and dropped;
// the bridge stays up.
func (f *FromNATS) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sub != nil {
		return errors.WrapConstruction(errors.ErrAlreadyStarted, "FromNATS", "Start", "lifecycle check")
	}

	sub, err := f.conn.Subscribe(f.subject, f.onNATSMessage)
	if err != nil {
		return errors.WrapTransient(err, "FromNATS", "Start",
			fmt.Sprintf("subscribe to %q", f.subject))
	}
	f.sub = sub
	return nil
}

// Stop unsubscribes from the subject.
func (f *FromNATS) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sub == nil {
		return errors.WrapConstruction(errors.ErrNotStarted, "FromNATS", "Stop", "lifecycle check")
	}
	err := f.sub.Unsubscribe()
	f.sub = nil
	if err != nil {
		return errors.WrapTransient(err, "FromNATS", "Stop", "unsubscribe")
	}
	return nil
}

func (f *FromNATS) onNATSMessage(msg *nats.Msg) {
	env, err := DecodeEnvelope(msg.Data)
	if err != nil {
		f.logger.Warn("dropping undecodable message",
			"block", f.name, "subject", f.subject, "error", err)
		return
	}
	if err := f.Publish("out", env.Value); err != nil {
		f.logger.Warn("dropping bridged message",
			"block", f.name, "subject", f.subject, "error", err)
	}
}

func (f *FromNATS) Name() string { return f.name }

func (f *FromNATS) InputSignature() block.Signature { return block.NullSignature() }

func (f *FromNATS) OutputSignature() block.Signature { return block.NullSignature() }

func (f *FromNATS) Rate() block.Ratio { return block.OneToOne() }

// Work is never scheduled for a block with no stream connections.
func (f *FromNATS) Work(_ context.Context, _ []stream.InputWindow, _ []*stream.OutputWindow) (int, error) {
	return 0, nil
}
