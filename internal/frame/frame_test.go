package frame_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Halkenhaeusser/labs/internal/frame"
	"github.com/Halkenhaeusser/labs/internal/stats"
)

func sample(t *testing.T) *frame.Frame {
	t.Helper()
	f, err := frame.New(
		[]string{"carrier", "delay"},
		[][]any{
			{"AA", 4.0},
			{"UA", nil},
			{"DL", int64(12)},
			{"B6", -3.0},
		},
	)
	require.NoError(t, err)
	return f
}

func TestNewRejectsRaggedRows(t *testing.T) {
	_, err := frame.New([]string{"a", "b"}, [][]any{{1}})
	assert.Error(t, err)
}

func TestHeadTail(t *testing.T) {
	f := sample(t)
	assert.Equal(t, 4, f.NRow())
	assert.Equal(t, 2, f.NCol())

	h := f.Head(2)
	assert.Equal(t, 2, h.NRow())
	assert.Equal(t, "AA", h.Rows()[0][0])

	tl := f.Tail(2)
	assert.Equal(t, 2, tl.NRow())
	assert.Equal(t, "B6", tl.Rows()[1][0])

	// Out-of-range requests clamp.
	assert.Equal(t, 4, f.Head(10).NRow())
	assert.Equal(t, 0, f.Tail(-1).NRow())
}

func TestFloat64ColumnCoercion(t *testing.T) {
	f := sample(t)

	xs, err := f.Float64Column("delay")
	require.NoError(t, err)
	require.Len(t, xs, 4)
	assert.Equal(t, 4.0, xs[0])
	assert.True(t, math.IsNaN(xs[1]), "NULL should coerce to NaN")
	assert.Equal(t, 12.0, xs[2])

	_, err = f.Float64Column("carrier")
	assert.Error(t, err)

	_, err = f.Float64Column("missing")
	assert.Error(t, err)
}

func TestMapFloatColumnsSkipsText(t *testing.T) {
	f := sample(t)
	means := f.MapFloatColumns(stats.Mean)
	require.Len(t, means, 1)
	assert.InDelta(t, (4.0+12.0-3.0)/3, means["delay"], 1e-12)
}

func TestSyntheticDeterministic(t *testing.T) {
	a := frame.Synthetic(5, 3, 42)
	b := frame.Synthetic(5, 3, 42)
	assert.Equal(t, a.Rows(), b.Rows())
	assert.Equal(t, []string{"a", "b", "c"}, a.Columns())
	assert.Equal(t, 5, a.NRow())
}
