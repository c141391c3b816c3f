package natsbridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TTCRadio/gnuradio/block"
	grerrors "github.com/TTCRadio/gnuradio/errors"
	"github.com/TTCRadio/gnuradio/pmt"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	posted := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	env := Envelope{
		From:     "detector",
		PostedAt: posted,
		Value: pmt.Dict(
			pmt.Pair{Key: "freq", Val: pmt.Double(101.5e6)},
			pmt.Pair{Key: "count", Val: pmt.Long(7)},
		),
	}

	data, err := EncodeEnvelope(env)
	require.NoError(t, err)

	got, err := DecodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, "detector", got.From)
	assert.True(t, got.PostedAt.Equal(posted))
	require.True(t, got.Value.Equal(env.Value), "typed value survives the wire")
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{"value": "not an envelope value"`))
	require.Error(t, err)
	assert.True(t, grerrors.IsTransient(err))
}

type capturingPublisher struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (c *capturingPublisher) Publish(subject string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.subjects = append(c.subjects, subject)
	c.payloads = append(c.payloads, append([]byte(nil), data...))
	return nil
}

func TestToNATSForwardsMessages(t *testing.T) {
	pub := &capturingPublisher{}
	bridge, err := NewToNATS("egress", "radio.out", pub)
	require.NoError(t, err)

	inbox, ok := bridge.Inbox("in")
	require.True(t, ok)
	handler := inbox.Handler()
	require.NotNil(t, handler)

	msg := block.Message{
		From:     "upstream",
		Port:     "in",
		Value:    pmt.String("hello"),
		PostedAt: time.Now().UTC(),
	}
	require.NoError(t, handler(context.Background(), msg))

	require.Len(t, pub.payloads, 1)
	assert.Equal(t, "radio.out", pub.subjects[0])

	env, err := DecodeEnvelope(pub.payloads[0])
	require.NoError(t, err)
	assert.Equal(t, "upstream", env.From)
	got, ok := env.Value.AsString()
	require.True(t, ok)
	assert.Equal(t, "hello", got)
}

func TestToNATSPublishFailureIsTransient(t *testing.T) {
	pub := &capturingPublisher{err: errors.New("connection draining")}
	bridge, err := NewToNATS("egress", "radio.out", pub)
	require.NoError(t, err)

	inbox, _ := bridge.Inbox("in")
	err = inbox.Handler()(context.Background(), block.Message{Value: pmt.Long(1)})
	require.Error(t, err)
	assert.True(t, grerrors.IsTransient(err))
}

func TestToNATSConstructionValidation(t *testing.T) {
	_, err := NewToNATS("", "subj", &capturingPublisher{})
	assert.Error(t, err)

	_, err = NewToNATS("name", "", &capturingPublisher{})
	assert.Error(t, err)

	_, err = NewToNATS("name", "subj", nil)
	require.Error(t, err)
	assert.True(t, grerrors.IsConstruction(err))
}

func TestFromNATSConstructionValidation(t *testing.T) {
	_, err := NewFromNATS("ingress", "radio.in", nil)
	require.Error(t, err)
	assert.True(t, grerrors.IsConstruction(err))
}

func TestFromNATSDeliversDecodedValues(t *testing.T) {
	conn := &nats.Conn{}
	bridge, err := NewFromNATS("ingress", "radio.in", conn)
	require.NoError(t, err)

	sink := block.Ports{}
	sink.SetOwner("sink")
	require.NoError(t, sink.RegisterIn("rx"))
	inbox, ok := sink.Inbox("rx")
	require.True(t, ok)
	require.NoError(t, bridge.Subscribe("out", inbox))

	data, err := EncodeEnvelope(Envelope{From: "remote", Value: pmt.Double(2.5)})
	require.NoError(t, err)
	bridge.onNATSMessage(&nats.Msg{Subject: "radio.in", Data: data})

	msg, ok := inbox.Pop()
	require.True(t, ok)
	assert.Equal(t, "ingress", msg.From)
	v, ok := msg.Value.AsDouble()
	require.True(t, ok)
	assert.Equal(t, 2.5, v)
}

func TestFromNATSDropsUndecodableMessages(t *testing.T) {
	conn := &nats.Conn{}
	bridge, err := NewFromNATS("ingress", "radio.in", conn)
	require.NoError(t, err)

	sink := block.Ports{}
	sink.SetOwner("sink")
	require.NoError(t, sink.RegisterIn("rx"))
	inbox, _ := sink.Inbox("rx")
	require.NoError(t, bridge.Subscribe("out", inbox))

	bridge.onNATSMessage(&nats.Msg{Subject: "radio.in", Data: []byte("not json")})

	_, ok := inbox.Pop()
	assert.False(t, ok, "undecodable payloads never reach subscribers")
}

func TestRegisterBridgeFactories(t *testing.T) {
	registry := block.NewRegistry()
	require.NoError(t, Register(registry, &nats.Conn{}))

	blk, err := registry.Create("to_nats", []byte(`{"name":"egress","subject":"radio.out"}`))
	require.NoError(t, err)
	assert.Equal(t, "egress", blk.Name())

	blk, err = registry.Create("from_nats", []byte(`{"name":"ingress","subject":"radio.in"}`))
	require.NoError(t, err)
	assert.Equal(t, "ingress", blk.Name())

	_, err = registry.Create("to_nats", []byte(`{"subject":"radio.out"}`))
	require.Error(t, err, "name is required")

	err = Register(block.NewRegistry(), nil)
	require.Error(t, err)
	assert.True(t, grerrors.IsConstruction(err))
}

func TestFromNATSStopBeforeStart(t *testing.T) {
	bridge, err := NewFromNATS("ingress", "radio.in", &nats.Conn{})
	require.NoError(t, err)

	err = bridge.Stop()
	require.Error(t, err)
	assert.ErrorIs(t, err, grerrors.ErrNotStarted)
}
