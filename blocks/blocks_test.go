package blocks

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TTCRadio/gnuradio/block"
	"github.com/TTCRadio/gnuradio/pmt"
	"github.com/TTCRadio/gnuradio/stream"
)

func inputWindow(base uint64, vals ...float64) stream.InputWindow {
	data := make([]byte, len(vals)*Float64Size)
	for i, v := range vals {
		writeFloat64(data[i*Float64Size:(i+1)*Float64Size], v)
	}
	return stream.NewInputWindow(data, Float64Size, base, nil)
}

func outputWindow(base uint64, items int) *stream.OutputWindow {
	return stream.NewOutputWindow(make([]byte, items*Float64Size), Float64Size, base)
}

func outputValues(t *testing.T, w *stream.OutputWindow, n int) []float64 {
	t.Helper()
	out := make([]float64, n)
	for i := range out {
		out[i] = readFloat64(w.Item(i))
	}
	return out
}

func TestVectorSourceEmitsThenDone(t *testing.T) {
	src, err := NewVectorSource("src", []float64{1, 2, 3})
	require.NoError(t, err)

	out := outputWindow(0, 8)
	n, err := src.Work(context.Background(), nil, []*stream.OutputWindow{out})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []float64{1, 2, 3}, outputValues(t, out, 3))

	_, err = src.Work(context.Background(), nil, []*stream.OutputWindow{outputWindow(3, 8)})
	assert.ErrorIs(t, err, block.ErrDone)
}

func TestVectorSourceRepeatAndSmallWindows(t *testing.T) {
	src, err := NewVectorSource("src", []float64{1, 2}, WithRepeat(2))
	require.NoError(t, err)

	var got []float64
	base := uint64(0)
	for {
		out := outputWindow(base, 3)
		n, err := src.Work(context.Background(), nil, []*stream.OutputWindow{out})
		if err == block.ErrDone {
			break
		}
		require.NoError(t, err)
		got = append(got, outputValues(t, out, n)...)
		base += uint64(n)
	}
	assert.Equal(t, []float64{1, 2, 1, 2}, got)
}

func TestVectorSourceTags(t *testing.T) {
	src, err := NewVectorSource("src", []float64{1, 2, 3, 4},
		WithSourceTags(
			SourceTag{Offset: 0, Key: "start", Value: pmt.Bool(true)},
			SourceTag{Offset: 2, Key: "mid", Value: pmt.Long(2)},
		))
	require.NoError(t, err)

	out := outputWindow(0, 4)
	n, err := src.Work(context.Background(), nil, []*stream.OutputWindow{out})
	require.NoError(t, err)
	require.Equal(t, 4, n)

	pending := out.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, uint64(0), pending[0].Offset)
	assert.Equal(t, "mid", pending[1].Key)
	assert.Equal(t, "src", pending[1].Source)
}

func TestVectorSinkCollectsValuesAndTags(t *testing.T) {
	sink, err := NewVectorSink("sink")
	require.NoError(t, err)

	ts := stream.NewTagStore()
	ts.Add(stream.Tag{Offset: 1, Key: "k", Value: pmt.Long(7)})

	data := make([]byte, 3*Float64Size)
	for i, v := range []float64{10, 20, 30} {
		writeFloat64(data[i*Float64Size:(i+1)*Float64Size], v)
	}
	in := stream.NewInputWindow(data, Float64Size, 0, ts)

	n, err := sink.Work(context.Background(), []stream.InputWindow{in}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.Equal(t, []float64{10, 20, 30}, sink.Values())
	tags := sink.Tags()
	require.Len(t, tags, 1)
	assert.Equal(t, uint64(1), tags[0].Offset)
}

func TestAddSumsInputs(t *testing.T) {
	add, err := NewAdd("add", false)
	require.NoError(t, err)

	inputs := []stream.InputWindow{
		inputWindow(0, 1, 2, 3),
		inputWindow(0, 10, 20, 30),
	}
	out := outputWindow(0, 3)

	n, err := add.Work(context.Background(), inputs, []*stream.OutputWindow{out})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []float64{11, 22, 33}, outputValues(t, out, 3))
}

func TestAddSignatureAllowsManyInputs(t *testing.T) {
	add, err := NewAdd("add", true)
	require.NoError(t, err)

	assert.NoError(t, add.InputSignature().CheckCount(2))
	assert.NoError(t, add.InputSignature().CheckCount(7))
	assert.Error(t, add.InputSignature().CheckCount(1))
	assert.True(t, add.PropagateTags())
}

func TestDecimateKeepsFirstOfEachGroup(t *testing.T) {
	dec, err := NewDecimate("dec", 2)
	require.NoError(t, err)
	assert.Equal(t, block.DecimateBy(2), dec.Rate())

	in := inputWindow(0, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	out := outputWindow(0, 5)

	n, err := dec.Work(context.Background(), []stream.InputWindow{in}, []*stream.OutputWindow{out})
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []float64{0, 2, 4, 6, 8}, outputValues(t, out, 5))
}

func TestDecimateRejectsBadFactor(t *testing.T) {
	_, err := NewDecimate("dec", 0)
	assert.Error(t, err)
}

func TestRepeatEmitsWholeGroups(t *testing.T) {
	rep, err := NewRepeat("rep", 3)
	require.NoError(t, err)
	assert.Equal(t, block.InterpolateBy(3), rep.Rate())
	assert.Equal(t, 3, rep.OutputMultiple())

	in := inputWindow(0, 1, 2)
	out := outputWindow(0, 6)

	n, err := rep.Work(context.Background(), []stream.InputWindow{in}, []*stream.OutputWindow{out})
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, []float64{1, 1, 1, 2, 2, 2}, outputValues(t, out, 6))
}

func TestMessageDebugRecordsHandledMessages(t *testing.T) {
	dbg, err := NewMessageDebug("dbg")
	require.NoError(t, err)

	inbox, ok := dbg.MessagePorts().Inbox("print")
	require.True(t, ok)
	handler := inbox.Handler()
	require.NotNil(t, handler)

	require.NoError(t, handler(context.Background(), block.Message{
		From:  "tester",
		Port:  "print",
		Value: pmt.String("hello"),
	}))

	received := dbg.Received()
	require.Len(t, received, 1)
	got, _ := received[0].Value.AsString()
	assert.Equal(t, "hello", got)

	// "store" runs in queue-and-drain mode.
	store, ok := dbg.MessagePorts().Inbox("store")
	require.True(t, ok)
	assert.Nil(t, store.Handler())
}

func TestEchoRepublishesUpToLimit(t *testing.T) {
	echo, err := NewEcho("echo", 2)
	require.NoError(t, err)

	var sink block.Ports
	sink.SetOwner("sink")
	require.NoError(t, sink.RegisterIn("in"))
	inbox, _ := sink.Inbox("in")
	require.NoError(t, echo.MessagePorts().Subscribe("out", inbox))

	echoIn, _ := echo.MessagePorts().Inbox("in")
	handler := echoIn.Handler()
	require.NotNil(t, handler)

	for i := int64(1); i <= 4; i++ {
		require.NoError(t, handler(context.Background(), block.Message{Value: pmt.Long(i)}))
	}

	assert.Equal(t, int64(2), echo.Relayed())
	assert.Equal(t, 2, inbox.Len())
}

func TestRegisterBuiltinsAndFactories(t *testing.T) {
	registry := block.NewRegistry()
	require.NoError(t, RegisterBuiltins(registry))

	assert.Equal(t,
		[]string{"add", "decimate", "echo", "message_debug", "repeat", "vector_sink", "vector_source"},
		registry.ListFactories())

	// Double registration fails cleanly.
	assert.Error(t, RegisterBuiltins(registry))

	blk, err := registry.Create("vector_source", json.RawMessage(`{"name":"s","values":[1,2],"repeat":2}`))
	require.NoError(t, err)
	assert.Equal(t, "s", blk.Name())

	_, err = registry.Create("vector_source", json.RawMessage(`{"name":"s","values":[]}`))
	assert.Error(t, err)

	_, err = registry.Create("decimate", json.RawMessage(`{"name":"d","factor":4}`))
	require.NoError(t, err)
}
