package natsbridge

import (
	"encoding/json"
	"time"

	"github.com/TTCRadio/gnuradio/errors"
	"github.com/TTCRadio/gnuradio/pmt"
)

// Envelope is the wire form of a bridged message. The value keeps its
// tagged-union JSON encoding so type information survives the round trip.
type Envelope struct {
	From     string    `json:"from"`
	PostedAt time.Time `json:"posted_at"`
	Value    pmt.Value `json:"value"`
}

// EncodeEnvelope marshals an envelope for publication.
func EncodeEnvelope(env Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, errors.WrapUsage(err, "natsbridge", "EncodeEnvelope", "envelope encoding")
	}
	return data, nil
}

// DecodeEnvelope unmarshals a received envelope.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, errors.WrapTransient(err, "natsbridge", "DecodeEnvelope", "envelope decoding")
	}
	return env, nil
}
