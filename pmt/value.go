// Package pmt provides the polymorphic value type carried by stream tags and
// message ports. A Value is an immutable tagged union over a small set of
// kinds: null, boolean, integer, double, string, opaque blob, ordered vector,
// and ordered key/value dictionary. The numeric kind discriminant is part of
// the wire form so values survive JSON round-trips without losing type
// information.
package pmt

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/TTCRadio/gnuradio/errors"
)

// Kind is the numeric type discriminant of a Value.
type Kind uint8

// Value kinds. The numeric values are stable and appear in serialized form.
const (
	KindNull Kind = iota
	KindBool
	KindLong
	KindDouble
	KindString
	KindBlob
	KindVector
	KindDict
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindLong:
		return "long"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindBlob:
		return "blob"
	case KindVector:
		return "vector"
	case KindDict:
		return "dict"
	default:
		return "unknown"
	}
}

// Pair is one ordered entry of a dictionary Value.
type Pair struct {
	Key string
	Val Value
}

// Value is an immutable variant. The zero Value is the null value.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	blob []byte
	vec  []Value
	dict []Pair
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Long returns an integer value.
func Long(i int64) Value { return Value{kind: KindLong, i: i} }

// Double returns a floating-point value.
func Double(f float64) Value { return Value{kind: KindDouble, f: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Blob returns an opaque byte value. The bytes are copied so later mutation
// of the argument cannot reach the stored value.
func Blob(p []byte) Value {
	cp := make([]byte, len(p))
	copy(cp, p)
	return Value{kind: KindBlob, blob: cp}
}

// Vector returns an ordered sequence value.
func Vector(vs ...Value) Value {
	cp := make([]Value, len(vs))
	copy(cp, vs)
	return Value{kind: KindVector, vec: cp}
}

// Dict returns an ordered key/value dictionary value.
func Dict(pairs ...Pair) Value {
	cp := make([]Pair, len(pairs))
	copy(cp, pairs)
	return Value{kind: KindDict, dict: cp}
}

// Kind returns the type discriminant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload. The second return is false when the
// value is not a bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsLong returns the integer payload.
func (v Value) AsLong() (int64, bool) { return v.i, v.kind == KindLong }

// AsDouble returns the floating-point payload. Long values convert.
func (v Value) AsDouble() (float64, bool) {
	switch v.kind {
	case KindDouble:
		return v.f, true
	case KindLong:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// AsString returns the string payload.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsBlob returns a copy of the blob payload.
func (v Value) AsBlob() ([]byte, bool) {
	if v.kind != KindBlob {
		return nil, false
	}
	cp := make([]byte, len(v.blob))
	copy(cp, v.blob)
	return cp, true
}

// AsVector returns a copy of the element slice.
func (v Value) AsVector() ([]Value, bool) {
	if v.kind != KindVector {
		return nil, false
	}
	cp := make([]Value, len(v.vec))
	copy(cp, v.vec)
	return cp, true
}

// AsDict returns a copy of the ordered pairs.
func (v Value) AsDict() ([]Pair, bool) {
	if v.kind != KindDict {
		return nil, false
	}
	cp := make([]Pair, len(v.dict))
	copy(cp, v.dict)
	return cp, true
}

// Lookup returns the value bound to key in a dictionary. The second return
// is false when the value is not a dict or the key is absent. The last
// binding wins when a key repeats.
func (v Value) Lookup(key string) (Value, bool) {
	if v.kind != KindDict {
		return Value{}, false
	}
	found := Value{}
	ok := false
	for _, p := range v.dict {
		if p.Key == key {
			found, ok = p.Val, true
		}
	}
	return found, ok
}

// Equal reports deep equality of two values, including kind.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindLong:
		return v.i == o.i
	case KindDouble:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindBlob:
		return bytes.Equal(v.blob, o.blob)
	case KindVector:
		if len(v.vec) != len(o.vec) {
			return false
		}
		for i := range v.vec {
			if !v.vec[i].Equal(o.vec[i]) {
				return false
			}
		}
		return true
	case KindDict:
		if len(v.dict) != len(o.dict) {
			return false
		}
		for i := range v.dict {
			if v.dict[i].Key != o.dict[i].Key || !v.dict[i].Val.Equal(o.dict[i].Val) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders the value for diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindLong:
		return fmt.Sprintf("%d", v.i)
	case KindDouble:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindBlob:
		return fmt.Sprintf("blob[%d]", len(v.blob))
	case KindVector:
		parts := make([]string, len(v.vec))
		for i, e := range v.vec {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	case KindDict:
		parts := make([]string, len(v.dict))
		for i, p := range v.dict {
			parts[i] = p.Key + "=" + p.Val.String()
		}
		return "{" + strings.Join(parts, " ") + "}"
	default:
		return "unknown"
	}
}

// wireValue is the serialized form: numeric kind discriminant plus payload.
type wireValue struct {
	Kind Kind            `json:"t"`
	Data json.RawMessage `json:"v,omitempty"`
}

type wirePair struct {
	Key string `json:"k"`
	Val Value  `json:"v"`
}

// MarshalJSON encodes the value with its kind discriminant.
func (v Value) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.kind {
	case KindNull:
		return json.Marshal(wireValue{Kind: KindNull})
	case KindBool:
		payload = v.b
	case KindLong:
		payload = v.i
	case KindDouble:
		payload = v.f
	case KindString:
		payload = v.s
	case KindBlob:
		payload = base64.StdEncoding.EncodeToString(v.blob)
	case KindVector:
		payload = v.vec
	case KindDict:
		pairs := make([]wirePair, len(v.dict))
		for i, p := range v.dict {
			pairs[i] = wirePair{Key: p.Key, Val: p.Val}
		}
		payload = pairs
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "Value", "MarshalJSON", "payload encoding")
	}
	return json.Marshal(wireValue{Kind: v.kind, Data: data})
}

// UnmarshalJSON decodes a value from its discriminated wire form.
func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return errors.Wrap(err, "Value", "UnmarshalJSON", "wrapper decoding")
	}

	switch w.Kind {
	case KindNull:
		*v = Null()
		return nil
	case KindBool:
		var b bool
		if err := json.Unmarshal(w.Data, &b); err != nil {
			return errors.Wrap(err, "Value", "UnmarshalJSON", "bool decoding")
		}
		*v = Bool(b)
		return nil
	case KindLong:
		var i int64
		if err := json.Unmarshal(w.Data, &i); err != nil {
			return errors.Wrap(err, "Value", "UnmarshalJSON", "long decoding")
		}
		*v = Long(i)
		return nil
	case KindDouble:
		var f float64
		if err := json.Unmarshal(w.Data, &f); err != nil {
			return errors.Wrap(err, "Value", "UnmarshalJSON", "double decoding")
		}
		*v = Double(f)
		return nil
	case KindString:
		var s string
		if err := json.Unmarshal(w.Data, &s); err != nil {
			return errors.Wrap(err, "Value", "UnmarshalJSON", "string decoding")
		}
		*v = String(s)
		return nil
	case KindBlob:
		var s string
		if err := json.Unmarshal(w.Data, &s); err != nil {
			return errors.Wrap(err, "Value", "UnmarshalJSON", "blob decoding")
		}
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return errors.Wrap(err, "Value", "UnmarshalJSON", "blob base64 decoding")
		}
		*v = Value{kind: KindBlob, blob: raw}
		return nil
	case KindVector:
		var vs []Value
		if err := json.Unmarshal(w.Data, &vs); err != nil {
			return errors.Wrap(err, "Value", "UnmarshalJSON", "vector decoding")
		}
		*v = Value{kind: KindVector, vec: vs}
		return nil
	case KindDict:
		var pairs []wirePair
		if err := json.Unmarshal(w.Data, &pairs); err != nil {
			return errors.Wrap(err, "Value", "UnmarshalJSON", "dict decoding")
		}
		d := make([]Pair, len(pairs))
		for i, p := range pairs {
			d[i] = Pair{Key: p.Key, Val: p.Val}
		}
		*v = Value{kind: KindDict, dict: d}
		return nil
	default:
		return errors.WrapUsage(
			fmt.Errorf("kind %d", w.Kind),
			"Value", "UnmarshalJSON", "unknown kind discriminant")
	}
}
