package hquery

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-json-experiment/json"
)

// Kind identifies which alternative a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
)

// Value is the tagged variant used throughout the engine for documents,
// record fields, filter values, and query literals: null, bool, int64,
// float64, string, an ordered list of Value, or a string-keyed map of
// Value.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	m    map[string]Value
}

// Null returns the null Value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a bool in a Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an int64 in a Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a float64 in a Value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Str wraps a string in a Value.
func Str(s string) Value { return Value{kind: KindString, s: s} }

// List wraps an ordered slice of Value.
func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// Map wraps a string-keyed map of Value.
func Map(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindMap, m: m}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

func (v Value) AsMap() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

// Get returns the child of a map-valued Value by key, reporting false if
// v is not a map or the key is absent.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	child, ok := v.m[key]
	return child, ok
}

// Equal reports deep, typed equality between two Values. This is the
// equality used by SQL WHERE conditions (§4.5); non-index filter
// comparison uses the separate case-folded string compare in normStr.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		// int/float cross-compare the way a literal like `42` can match a
		// stored float and vice versa.
		vf, vok := v.AsFloat()
		of, ook := other.AsFloat()
		if vok && ook && v.kind != KindString && other.kind != KindString {
			return vf == of
		}
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(other.m) {
			return false
		}
		for k, a := range v.m {
			b, ok := other.m[k]
			if !ok || !a.Equal(b) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders a Value's bit-exact string form, used for index key
// comparison (§4.2) and for unflattener index-segment naming (§4.6).
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ",") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ":" + v.m[k].String()
		}
		return "{" + strings.Join(parts, ",") + "}"
	}
	return ""
}

// normStr produces the case-folded, trimmed string form used by non-index
// filter comparison (§4.2) and by boolean term matching (§4.3). Per the
// design notes this normalization is deliberately localised in one place
// and must never be reused for SQL WHERE's typed equality.
func normStr(v Value) string {
	return strings.ToLower(strings.TrimSpace(v.String()))
}

// FromAny converts a decoded any (as produced by encoding/json or
// go-json-experiment/json unmarshaling into interface{}) into a Value.
func FromAny(in any) Value {
	switch t := in.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case string:
		return Str(t)
	case float64:
		if t == float64(int64(t)) {
			return Int(int64(t))
		}
		return Float(t)
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	case json.RawValue:
		v, err := ParseJSON(t)
		if err != nil {
			return Null()
		}
		return v
	case []any:
		items := make([]Value, len(t))
		for i, x := range t {
			items[i] = FromAny(x)
		}
		return List(items...)
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, x := range t {
			m[k] = FromAny(x)
		}
		return Map(m)
	default:
		return Str(fmt.Sprint(t))
	}
}

// ToAny converts a Value back into a plain any tree, suitable for
// marshaling with go-json-experiment/json.
func ToAny(v Value) any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = ToAny(item)
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			out[k] = ToAny(item)
		}
		return out
	}
	return nil
}

// ParseJSON decodes raw JSON bytes into a Value using the project's JSON
// engine, github.com/go-json-experiment/json.
func ParseJSON(data []byte) (Value, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrJSONDecode, err)
	}
	return FromAny(raw), nil
}

// MarshalJSON renders a Value back to JSON bytes.
func MarshalJSON(v Value) ([]byte, error) {
	data, err := json.Marshal(ToAny(v))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJSONEncode, err)
	}
	return data, nil
}
