package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ZeroFilled(t *testing.T) {
	x := New(Shape{2, 3})

	require.True(t, x.Shape().Equal(Shape{2, 3}))
	require.Equal(t, 6, x.NumElements())
	for _, v := range x.Data() {
		assert.Equal(t, 0.0, v)
	}
}

func TestNew_InvalidShapePanics(t *testing.T) {
	require.Panics(t, func() { New(Shape{2, 0}) })
	require.Panics(t, func() { New(Shape{-1}) })
}

func TestFromSlice(t *testing.T) {
	x, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	require.NoError(t, err)

	assert.Equal(t, 1.0, x.At(0, 0))
	assert.Equal(t, 6.0, x.At(1, 2))

	// Length mismatch is an error, not a panic.
	_, err = FromSlice([]float64{1, 2}, Shape{2, 3})
	require.Error(t, err)
}

func TestFromSlice_CopiesData(t *testing.T) {
	src := []float64{1, 2, 3}
	x, err := FromSlice(src, Shape{3})
	require.NoError(t, err)

	src[0] = 99
	assert.Equal(t, 1.0, x.At(0))
}

func TestAtSet(t *testing.T) {
	x := New(Shape{2, 2, 2})
	x.Set(7, 1, 0, 1)

	assert.Equal(t, 7.0, x.At(1, 0, 1))
	assert.Equal(t, 7.0, x.Data()[5])

	require.Panics(t, func() { x.At(2, 0, 0) })
	require.Panics(t, func() { x.At(0, 0) })
}

func TestClone_Independent(t *testing.T) {
	x, err := FromSlice([]float64{1, 2, 3}, Shape{3})
	require.NoError(t, err)

	y := x.Clone()
	y.Set(42, 0)

	assert.Equal(t, 1.0, x.At(0))
	assert.Equal(t, 42.0, y.At(0))
}

func TestReshape_SharesData(t *testing.T) {
	x, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	require.NoError(t, err)

	y := x.Reshape(3, 2)
	require.True(t, y.Shape().Equal(Shape{3, 2}))

	y.Set(99, 0, 0)
	assert.Equal(t, 99.0, x.At(0, 0))

	require.Panics(t, func() { x.Reshape(4, 2) })
}

func TestElementwiseOps(t *testing.T) {
	a, err := FromSlice([]float64{1, 2, 3, 4}, Shape{2, 2})
	require.NoError(t, err)
	b, err := FromSlice([]float64{10, 20, 30, 40}, Shape{2, 2})
	require.NoError(t, err)

	assert.Equal(t, []float64{11, 22, 33, 44}, a.Add(b).Data())
	assert.Equal(t, []float64{9, 18, 27, 36}, b.Sub(a).Data())
	assert.Equal(t, []float64{10, 40, 90, 160}, a.Mul(b).Data())
	assert.Equal(t, []float64{2, 4, 6, 8}, a.Scale(2).Data())
	assert.Equal(t, 10.0, a.Sum())

	// Operands are untouched.
	assert.Equal(t, []float64{1, 2, 3, 4}, a.Data())

	c := Ones(Shape{4})
	require.Panics(t, func() { a.Add(c) })
}

func TestCreationHelpers(t *testing.T) {
	assert.Equal(t, []float64{1, 1, 1}, Ones(Shape{3}).Data())
	assert.Equal(t, []float64{2.5, 2.5}, Full(Shape{2}, 2.5).Data())

	r := Randn(Shape{100})
	seen := make(map[float64]bool)
	for _, v := range r.Data() {
		seen[v] = true
	}
	// Normal draws should essentially never collide.
	assert.Greater(t, len(seen), 90)
}

func TestEqual(t *testing.T) {
	a, err := FromSlice([]float64{1, 2}, Shape{2})
	require.NoError(t, err)
	b, err := FromSlice([]float64{1, 2}, Shape{2})
	require.NoError(t, err)
	c, err := FromSlice([]float64{1, 2}, Shape{1, 2})
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))

	b.Set(3, 1)
	assert.False(t, a.Equal(b))
}

func TestPad1D(t *testing.T) {
	x, err := FromSlice([]float64{1, 2, 3, 4}, Shape{1, 2, 2})
	require.NoError(t, err)

	padded := Pad1D(x, 1)
	require.True(t, padded.Shape().Equal(Shape{1, 2, 4}))
	assert.Equal(t, []float64{0, 1, 2, 0, 0, 3, 4, 0}, padded.Data())

	// Round trip.
	assert.True(t, Unpad1D(padded, 1).Equal(x))

	// pad=0 is a copy.
	assert.True(t, Pad1D(x, 0).Equal(x))

	require.Panics(t, func() { Pad1D(New(Shape{2, 2}), 1) })
	require.Panics(t, func() { Unpad1D(x, 1) }) // width 2 - 2 = 0
}

func TestPad2D(t *testing.T) {
	x, err := FromSlice([]float64{1, 2, 3, 4}, Shape{1, 1, 2, 2})
	require.NoError(t, err)

	padded := Pad2D(x, 1)
	require.True(t, padded.Shape().Equal(Shape{1, 1, 4, 4}))
	assert.Equal(t, []float64{
		0, 0, 0, 0,
		0, 1, 2, 0,
		0, 3, 4, 0,
		0, 0, 0, 0,
	}, padded.Data())

	assert.True(t, Unpad2D(padded, 1).Equal(x))
	assert.True(t, Pad2D(x, 0).Equal(x))
}

func TestShape(t *testing.T) {
	s := Shape{2, 3, 4}

	assert.Equal(t, 24, s.NumElements())
	assert.Equal(t, []int{12, 4, 1}, s.ComputeStrides())
	assert.True(t, s.Equal(Shape{2, 3, 4}))
	assert.False(t, s.Equal(Shape{2, 3}))

	clone := s.Clone()
	clone[0] = 9
	assert.Equal(t, 2, s[0])

	require.Error(t, Shape{1, 0}.Validate())
	require.NoError(t, s.Validate())
}
