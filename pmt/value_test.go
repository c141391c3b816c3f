package pmt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarAccessors(t *testing.T) {
	b, ok := Bool(true).AsBool()
	require.True(t, ok)
	assert.True(t, b)

	l, ok := Long(-42).AsLong()
	require.True(t, ok)
	assert.Equal(t, int64(-42), l)

	d, ok := Double(2.5).AsDouble()
	require.True(t, ok)
	assert.Equal(t, 2.5, d)

	s, ok := String("burst").AsString()
	require.True(t, ok)
	assert.Equal(t, "burst", s)
}

func TestLongConvertsToDouble(t *testing.T) {
	d, ok := Long(7).AsDouble()
	require.True(t, ok)
	assert.Equal(t, 7.0, d)
}

func TestAccessorKindMismatch(t *testing.T) {
	_, ok := String("x").AsLong()
	assert.False(t, ok)

	_, ok = Null().AsBool()
	assert.False(t, ok)

	_, ok = Double(1.5).AsLong()
	assert.False(t, ok, "double must not silently truncate to long")
}

func TestBlobCopiesInput(t *testing.T) {
	raw := []byte{1, 2, 3}
	v := Blob(raw)
	raw[0] = 99

	got, ok := v.AsBlob()
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, got)
}

func TestVectorAndDict(t *testing.T) {
	vec := Vector(Long(1), String("two"))
	items, ok := vec.AsVector()
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, KindLong, items[0].Kind())

	d := Dict(
		Pair{Key: "freq", Val: Double(915e6)},
		Pair{Key: "id", Val: Long(3)},
	)
	freq, ok := d.Lookup("freq")
	require.True(t, ok)
	got, _ := freq.AsDouble()
	assert.Equal(t, 915e6, got)

	_, ok = d.Lookup("missing")
	assert.False(t, ok)
}

func TestEqual(t *testing.T) {
	assert.True(t, Long(5).Equal(Long(5)))
	assert.False(t, Long(5).Equal(Double(5)))
	assert.True(t, Null().Equal(Null()))
	assert.True(t,
		Dict(Pair{Key: "a", Val: Long(1)}).Equal(Dict(Pair{Key: "a", Val: Long(1)})))
	assert.False(t,
		Vector(Long(1)).Equal(Vector(Long(2))))
}

func TestJSONRoundTrip(t *testing.T) {
	original := Dict(
		Pair{Key: "burst", Val: Bool(true)},
		Pair{Key: "samples", Val: Vector(Long(1), Double(0.5))},
		Pair{Key: "payload", Val: Blob([]byte{0xDE, 0xAD})},
	)

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Value
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, original.Equal(decoded))
}

func TestJSONNull(t *testing.T) {
	data, err := json.Marshal(Null())
	require.NoError(t, err)

	var decoded Value
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, KindNull, decoded.Kind())
}

func TestUnmarshalRejectsUnknownKind(t *testing.T) {
	var decoded Value
	err := json.Unmarshal([]byte(`{"t":200,"v":1}`), &decoded)
	assert.Error(t, err)
}
