package natsbridge

import (
	"context"
	"fmt"

	"github.com/TTCRadio/gnuradio/block"
	"github.com/TTCRadio/gnuradio/errors"
	"github.com/TTCRadio/gnuradio/stream"
)

// Publisher is the outbound NATS surface ToNATS needs. *nats.Conn satisfies
// it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// ToNATS is a message-only block that forwards every message delivered on
// its "in" port to a NATS subject.
type ToNATS struct {
	block.Ports

	name    string
	subject string
	conn    Publisher
}

// NewToNATS creates a message egress bridge to the given subject.
func NewToNATS(name, subject string, conn Publisher) (*ToNATS, error) {
	if name == "" || subject == "" {
		return nil, errors.WrapConstruction(errors.ErrInvalidConfig, "ToNATS", "NewToNATS", "config validation")
	}
	if conn == nil {
		return nil, errors.WrapConstruction(
			fmt.Errorf("nil connection: %w", errors.ErrInvalidConfig),
			"ToNATS", "NewToNATS", "connection validation")
	}

	t := &ToNATS{name: name, subject: subject, conn: conn}
	t.SetOwner(name)
	if err := t.RegisterIn("in"); err != nil {
		return nil, err
	}
	if err := t.SetHandler("in", t.onMessage); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *ToNATS) onMessage(_ context.Context, msg block.Message) error {
	data, err := EncodeEnvelope(Envelope{
		From:     msg.From,
		PostedAt: msg.PostedAt,
		Value:    msg.Value,
	})
	if err != nil {
		return err
	}
	if err := t.conn.Publish(t.subject, data); err != nil {
		return errors.WrapTransient(err, "ToNATS", "onMessage",
			fmt.Sprintf("publish to %q", t.subject))
	}
	return nil
}

func (t *ToNATS) Name() string { return t.name }

func (t *ToNATS) InputSignature() block.Signature { return block.NullSignature() }

func (t *ToNATS) OutputSignature() block.Signature { return block.NullSignature() }

func (t *ToNATS) Rate() block.Ratio { return block.OneToOne() }

// Work is never scheduled for a block with no stream connections.
func (t *ToNATS) Work(_ context.Context, _ []stream.InputWindow, _ []*stream.OutputWindow) (int, error) {
	return 0, nil
}
