package constant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableInterningDeduplicates(t *testing.T) {
	tbl := New()

	a := tbl.AddInteger(42)
	b := tbl.AddInteger(42)
	c := tbl.AddInteger(7)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, 2, tbl.IntegerCount())

	v, ok := tbl.GetInteger(a)
	require.True(t, ok)
	assert.EqualValues(t, 42, v)
}

func TestStringPoolAdjacentFusion(t *testing.T) {
	tbl := New()

	foo := tbl.PushStrToStringPool([]byte("foo"))
	bar := tbl.PushStrToStringPool([]byte("bar"))

	require.Equal(t, foo.End, bar.Start, "pushes must be physically adjacent for fusion to apply")

	fused := PoolRange{Start: foo.Start, End: bar.End}
	assert.Equal(t, "foobar", tbl.GetStringPoolRange(fused))

	idx := tbl.AddPooledString(fused)
	s, ok := tbl.GetString(idx)
	require.True(t, ok)
	assert.Equal(t, "foobar", s)
}

func TestAddPooledStringDeduplicatesByRange(t *testing.T) {
	tbl := New()
	r := tbl.PushStrToStringPool([]byte("hello"))

	a := tbl.AddPooledString(r)
	b := tbl.AddPooledString(r)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, tbl.StringCount())
}

func TestAddFloatHandlesNaN(t *testing.T) {
	tbl := New()
	nan := tbl.AddFloat(nanValue())
	_ = tbl.AddFloat(nanValue())

	assert.Equal(t, 2, tbl.FloatCount(), "distinct NaN constants are never deduplicated against each other")
	v, ok := tbl.GetFloat(nan)
	require.True(t, ok)
	assert.True(t, v != v)
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}
