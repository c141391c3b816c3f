package graph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TTCRadio/gnuradio/block"
	"github.com/TTCRadio/gnuradio/blocks"
	"github.com/TTCRadio/gnuradio/errors"
	"github.com/TTCRadio/gnuradio/health"
)

func builtinsRegistry(t *testing.T) *block.Registry {
	t.Helper()
	registry := block.NewRegistry()
	require.NoError(t, blocks.RegisterBuiltins(registry))
	return registry
}

func TestParseDefinition(t *testing.T) {
	def, err := ParseDefinition([]byte(`{
		"name": "passthrough",
		"blocks": [
			{"name": "src", "factory": "vector_source", "config": {"name": "src", "values": [1, 2]}},
			{"name": "snk", "factory": "vector_sink", "config": {"name": "snk"}}
		],
		"streams": [{"src": "src", "src_port": 0, "dst": "snk", "dst_port": 0}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, "passthrough", def.Name)
	assert.Len(t, def.Blocks, 2)
	assert.Len(t, def.Streams, 1)
}

func TestParseDefinitionRejectsMalformedJSON(t *testing.T) {
	_, err := ParseDefinition([]byte(`{"name": `))
	require.Error(t, err)
	assert.True(t, errors.IsConstruction(err))
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name string
		def  Definition
	}{
		{"missing graph name", Definition{Blocks: []BlockSpec{{Name: "a", Factory: "add"}}}},
		{"no blocks", Definition{Name: "g"}},
		{"unnamed block", Definition{Name: "g", Blocks: []BlockSpec{{Factory: "add"}}}},
		{"missing factory", Definition{Name: "g", Blocks: []BlockSpec{{Name: "a"}}}},
		{"duplicate block name", Definition{Name: "g", Blocks: []BlockSpec{
			{Name: "a", Factory: "add"}, {Name: "a", Factory: "add"},
		}}},
		{"stream to unknown block", Definition{Name: "g",
			Blocks:  []BlockSpec{{Name: "a", Factory: "add"}},
			Streams: []StreamConnection{{Src: "a", Dst: "ghost"}},
		}},
		{"message with unnamed port", Definition{Name: "g",
			Blocks:   []BlockSpec{{Name: "a", Factory: "echo"}, {Name: "b", Factory: "echo"}},
			Messages: []MessageConnection{{Src: "a", SrcPort: "out", Dst: "b"}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.def.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
		})
	}
}

func TestNewBuilderRequiresRegistry(t *testing.T) {
	_, err := NewBuilder(nil)
	require.Error(t, err)
	assert.True(t, errors.IsConstruction(err))
}

func TestBuildUnknownFactory(t *testing.T) {
	builder, err := NewBuilder(builtinsRegistry(t))
	require.NoError(t, err)

	_, err = builder.Build(&Definition{
		Name:   "g",
		Blocks: []BlockSpec{{Name: "a", Factory: "no_such_block"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownFactory)
}

func TestBuildAndRunEndToEnd(t *testing.T) {
	builder, err := NewBuilder(builtinsRegistry(t))
	require.NoError(t, err)

	def, err := ParseDefinition([]byte(`{
		"name": "decimated",
		"blocks": [
			{"name": "src", "factory": "vector_source",
			 "config": {"name": "src", "values": [0, 1, 2, 3, 4, 5, 6, 7]}},
			{"name": "dec", "factory": "decimate", "config": {"name": "dec", "factor": 2}},
			{"name": "snk", "factory": "vector_sink", "config": {"name": "snk"}}
		],
		"streams": [
			{"src": "src", "src_port": 0, "dst": "dec", "dst_port": 0},
			{"src": "dec", "src_port": 0, "dst": "snk", "dst_port": 0, "buf_items": 16}
		]
	}`))
	require.NoError(t, err)

	g, err := builder.Build(def)
	require.NoError(t, err)
	assert.Equal(t, "decimated", g.Name())

	require.NoError(t, g.Run(context.Background()))

	blk, ok := g.Block("snk")
	require.True(t, ok)
	sink, ok := blk.(*blocks.VectorSink)
	require.True(t, ok)
	assert.Equal(t, []float64{0, 2, 4, 6}, sink.Values())
}

func TestBuildWiresMessageConnections(t *testing.T) {
	builder, err := NewBuilder(builtinsRegistry(t))
	require.NoError(t, err)

	def, err := ParseDefinition([]byte(`{
		"name": "relay",
		"blocks": [
			{"name": "echo", "factory": "echo", "config": {"name": "echo", "limit": 1}},
			{"name": "dbg", "factory": "message_debug", "config": {"name": "dbg"}}
		],
		"messages": [{"src": "echo", "src_port": "out", "dst": "dbg", "dst_port": "print"}]
	}`))
	require.NoError(t, err)

	_, err = builder.Build(def)
	require.NoError(t, err)
}

func TestUpdateHealth(t *testing.T) {
	builder, err := NewBuilder(builtinsRegistry(t))
	require.NoError(t, err)

	def, err := ParseDefinition([]byte(`{
		"name": "tiny",
		"blocks": [
			{"name": "src", "factory": "vector_source", "config": {"name": "src", "values": [1]}},
			{"name": "snk", "factory": "vector_sink", "config": {"name": "snk"}}
		],
		"streams": [{"src": "src", "src_port": 0, "dst": "snk", "dst_port": 0}]
	}`))
	require.NoError(t, err)

	g, err := builder.Build(def)
	require.NoError(t, err)
	require.NoError(t, g.Run(context.Background()))

	monitor := health.NewMonitor()
	g.UpdateHealth(monitor)
	assert.Equal(t, 2, monitor.Count())

	status, ok := monitor.Get("src")
	require.True(t, ok)
	assert.True(t, status.IsHealthy())
}

func TestStopUnstartedGraph(t *testing.T) {
	builder, err := NewBuilder(builtinsRegistry(t))
	require.NoError(t, err)

	g, err := builder.Build(&Definition{
		Name:   "idle",
		Blocks: []BlockSpec{{Name: "dbg", Factory: "message_debug", Config: []byte(`{"name":"dbg"}`)}},
	})
	require.NoError(t, err)

	err = g.Stop(time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotStarted)
}
