package hquery_test

import (
	"testing"

	"github.com/kaptinlin/hquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a    hquery.Value
		b    hquery.Value
		want bool
	}{
		{"ints equal", hquery.Int(3), hquery.Int(3), true},
		{"int float cross compare", hquery.Int(3), hquery.Float(3.0), true},
		{"strings differ", hquery.Str("a"), hquery.Str("b"), false},
		{"null equals null", hquery.Null(), hquery.Null(), true},
		{"null not string", hquery.Null(), hquery.Str(""), false},
		{"lists equal", hquery.List(hquery.Int(1), hquery.Int(2)), hquery.List(hquery.Int(1), hquery.Int(2)), true},
		{"lists differ length", hquery.List(hquery.Int(1)), hquery.List(hquery.Int(1), hquery.Int(2)), false},
		{
			"maps equal",
			hquery.Map(map[string]hquery.Value{"a": hquery.Int(1)}),
			hquery.Map(map[string]hquery.Value{"a": hquery.Int(1)}),
			true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Equal(tc.b))
		})
	}
}

func TestValueStringIndexKey(t *testing.T) {
	assert.Equal(t, "42", hquery.Int(42).String())
	assert.Equal(t, "true", hquery.Bool(true).String())
	assert.Equal(t, "hello", hquery.Str("hello").String())
}

func TestFromAnyToAnyRoundtrip(t *testing.T) {
	in := map[string]any{
		"name": "Ada",
		"age":  float64(36),
		"tags": []any{"eng", "math"},
	}
	v := hquery.FromAny(in)
	out := hquery.ToAny(v)
	assert.Equal(t, in["name"], out.(map[string]any)["name"])

	age, ok := v.Get("age")
	require.True(t, ok)
	i, ok := age.AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(36), i)
}

func TestParseAndMarshalJSON(t *testing.T) {
	v, err := hquery.ParseJSON([]byte(`{"a":1,"b":["x","y"]}`))
	require.NoError(t, err)

	a, ok := v.Get("a")
	require.True(t, ok)
	i, ok := a.AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(1), i)

	data, err := hquery.MarshalJSON(v)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"a":1`)
}
