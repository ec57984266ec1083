package evalserial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeParseRoundTripsPrimitives(t *testing.T) {
	for _, v := range []interface{}{"hello", true, false, 42.5, nil} {
		wv, err := Serialize(v)
		require.NoError(t, err)
		got, err := Parse(wv)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestSerializeParseRoundTripsSpecialFloats(t *testing.T) {
	cases := []float64{math.NaN(), math.Inf(1), math.Inf(-1), math.Copysign(0, -1)}
	for _, f := range cases {
		wv, err := Serialize(f)
		require.NoError(t, err)
		got, err := Parse(wv)
		require.NoError(t, err)
		gotF, ok := got.(float64)
		require.True(t, ok)
		if math.IsNaN(f) {
			assert.True(t, math.IsNaN(gotF))
		} else {
			assert.Equal(t, math.Signbit(f), math.Signbit(gotF))
			assert.True(t, f == gotF || (math.IsInf(f, 0) && math.IsInf(gotF, 0)))
		}
	}
}

func TestSerializeParseRoundTripsNestedObjectsAndArrays(t *testing.T) {
	value := map[string]interface{}{
		"name": "cat",
		"tags": []interface{}{"a", "b", 3.0},
		"nested": map[string]interface{}{
			"ok": true,
		},
	}
	wv, err := Serialize(value)
	require.NoError(t, err)

	got, err := Parse(wv)
	require.NoError(t, err)
	assert.Equal(t, value, got)
}

func TestSerializeHandlesSelfReferencingPointerWithoutInfiniteRecursion(t *testing.T) {
	type node struct {
		Name string
		Next *node
	}
	n := &node{Name: "a"}
	n.Next = n // cycle

	_, err := Serialize(n)
	require.NoError(t, err)
}
