package natsbridge

import (
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/TTCRadio/gnuradio/block"
	"github.com/TTCRadio/gnuradio/errors"
)

// BridgeConfig is the factory configuration shared by both bridge blocks.
type BridgeConfig struct {
	Name    string `json:"name"`
	Subject string `json:"subject"`
}

// Register adds the "to_nats" and "from_nats" factories to the registry,
// bound to the given connection. Call after the connection is established so
// graphs referencing the bridges can be built.
func Register(registry *block.Registry, conn *nats.Conn) error {
	if conn == nil {
		return errors.WrapConstruction(
			errors.ErrInvalidConfig, "natsbridge", "Register", "connection validation")
	}

	err := registry.RegisterFactory("to_nats", &block.Registration{
		Name:        "to_nats",
		Type:        "message",
		Description: "Publishes delivered messages to a NATS subject",
		Version:     "1.0.0",
		Factory: func(raw json.RawMessage) (block.Block, error) {
			var cfg BridgeConfig
			if err := json.Unmarshal(raw, &cfg); err != nil {
				return nil, errors.WrapConstruction(err, "natsbridge", "to_nats", "config parsing")
			}
			return NewToNATS(cfg.Name, cfg.Subject, conn)
		},
	})
	if err != nil {
		return err
	}

	return registry.RegisterFactory("from_nats", &block.Registration{
		Name:        "from_nats",
		Type:        "message",
		Description: "Republishes traffic from a NATS subject on its out port",
		Version:     "1.0.0",
		Factory: func(raw json.RawMessage) (block.Block, error) {
			var cfg BridgeConfig
			if err := json.Unmarshal(raw, &cfg); err != nil {
				return nil, errors.WrapConstruction(err, "natsbridge", "from_nats", "config parsing")
			}
			return NewFromNATS(cfg.Name, cfg.Subject, conn)
		},
	})
}
