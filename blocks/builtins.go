package blocks

import (
	"github.com/TTCRadio/gnuradio/block"
)

// RegisterBuiltins registers every block factory in this package with the
// given registry.
func RegisterBuiltins(registry *block.Registry) error {
	builtins := []struct {
		name         string
		registration *block.Registration
	}{
		{"vector_source", &block.Registration{
			Name:        "vector_source",
			Type:        "source",
			Description: "Emits a fixed float64 vector, optionally repeated",
			Version:     "1.0.0",
			Factory:     NewVectorSourceFromConfig,
		}},
		{"vector_sink", &block.Registration{
			Name:        "vector_sink",
			Type:        "sink",
			Description: "Accumulates consumed float64 samples and tags",
			Version:     "1.0.0",
			Factory:     NewVectorSinkFromConfig,
		}},
		{"add", &block.Registration{
			Name:        "add",
			Type:        "processor",
			Description: "Element-wise sum of two or more float64 streams",
			Version:     "1.0.0",
			Factory:     NewAddFromConfig,
		}},
		{"decimate", &block.Registration{
			Name:        "decimate",
			Type:        "processor",
			Description: "Keeps the first sample of every N-sample group",
			Version:     "1.0.0",
			Factory:     NewDecimateFromConfig,
		}},
		{"repeat", &block.Registration{
			Name:        "repeat",
			Type:        "processor",
			Description: "Emits each input sample N times",
			Version:     "1.0.0",
			Factory:     NewRepeatFromConfig,
		}},
		{"message_debug", &block.Registration{
			Name:        "message_debug",
			Type:        "message",
			Description: "Logs and records delivered messages",
			Version:     "1.0.0",
			Factory:     NewMessageDebugFromConfig,
		}},
		{"echo", &block.Registration{
			Name:        "echo",
			Type:        "message",
			Description: "Republishes delivered messages on its out port",
			Version:     "1.0.0",
			Factory:     NewEchoFromConfig,
		}},
	}

	for _, b := range builtins {
		if err := registry.RegisterFactory(b.name, b.registration); err != nil {
			return err
		}
	}
	return nil
}
