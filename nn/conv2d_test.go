package nn

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scannet-ml/scannet/internal/gradcheck"
	"github.com/scannet-ml/scannet/tensor"
)

func TestConv2DStride1_Creation(t *testing.T) {
	conv := NewConv2DStride1(1, 6, 5, nil, nil)

	require.True(t, conv.Weight().Tensor().Shape().Equal(tensor.Shape{6, 1, 5, 5}))
	require.True(t, conv.Bias().Tensor().Shape().Equal(tensor.Shape{6}))
	assert.Len(t, conv.Parameters(), 2)
}

func TestConv2DStride1_ForwardValues(t *testing.T) {
	// 1 -> 1 channel, 2x2 kernel.
	conv := NewConv2DStride1(1, 1, 2, fixedInit(t, []float64{1, 2, 3, 4}), nil)

	// Input: [1, 1, 3, 3] with values 1-9.
	input := mustTensor(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, tensor.Shape{1, 1, 3, 3})
	output := conv.Forward(input)

	// [0,0]: 1*1 + 2*2 + 3*4 + 4*5 = 37
	// [0,1]: 1*2 + 2*3 + 3*5 + 4*6 = 47
	// [1,0]: 1*4 + 2*5 + 3*7 + 4*8 = 67
	// [1,1]: 1*5 + 2*6 + 3*8 + 4*9 = 77
	require.True(t, output.Shape().Equal(tensor.Shape{1, 1, 2, 2}))
	assert.Equal(t, []float64{37, 47, 67, 77}, output.Data())
}

func TestConv2DStride1_BackwardValues(t *testing.T) {
	conv := NewConv2DStride1(1, 1, 2, fixedInit(t, []float64{1, 2, 3, 4}), nil)

	input := mustTensor(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, tensor.Shape{1, 1, 3, 3})
	conv.Forward(input)

	inputGrad := conv.Backward(tensor.Ones(tensor.Shape{1, 1, 2, 2}))

	// dLdW[kh,kw] = sum over the four output positions of the input window.
	assert.Equal(t, []float64{1 + 2 + 4 + 5, 2 + 3 + 5 + 6, 4 + 5 + 7 + 8, 5 + 6 + 8 + 9},
		conv.Weight().Grad().Data())
	assert.Equal(t, []float64{4}, conv.Bias().Grad().Data())

	// dLdA = full correlation with the flipped 2x2 kernel.
	require.True(t, inputGrad.Shape().Equal(input.Shape()))
	assert.Equal(t, []float64{
		1, 1 + 2, 2,
		1 + 3, 1 + 2 + 3 + 4, 2 + 4,
		3, 3 + 4, 4,
	}, inputGrad.Data())
}

func TestConv2DStride1_ForwardShape(t *testing.T) {
	conv := NewConv2DStride1(1, 6, 5, nil, nil)
	out := conv.Forward(tensor.Randn(tensor.Shape{2, 1, 28, 28}))

	// (28 - 5) + 1 = 24 on both axes.
	require.True(t, out.Shape().Equal(tensor.Shape{2, 6, 24, 24}))
}

func TestConv2DStride1_ShapeErrors(t *testing.T) {
	conv := NewConv2DStride1(2, 1, 3, nil, nil)

	require.Panics(t, func() { conv.Forward(tensor.Randn(tensor.Shape{1, 3, 8, 8})) })
	require.Panics(t, func() { conv.Forward(tensor.Randn(tensor.Shape{1, 2, 8})) })
	require.Panics(t, func() { conv.Forward(tensor.Randn(tensor.Shape{1, 2, 2, 8})) })
}

func TestConv2DStride1_CallOrder(t *testing.T) {
	conv := NewConv2DStride1(1, 1, 2, nil, nil)
	grad := tensor.Ones(tensor.Shape{1, 1, 3, 3})

	require.Panics(t, func() { conv.Backward(grad) })

	conv.Forward(tensor.Randn(tensor.Shape{1, 1, 4, 4}))
	conv.Backward(grad)
	require.Panics(t, func() { conv.Backward(grad) })
}

func TestConv2DStride1_GradientCheck(t *testing.T) {
	conv := NewConv2DStride1(2, 2, 2, nil, nil)
	input := tensor.Randn(tensor.Shape{2, 2, 4, 4})
	upstream := tensor.Randn(tensor.Shape{2, 2, 3, 3})

	loss := func() float64 {
		return conv.Forward(input).Mul(upstream).Sum()
	}

	conv.Forward(input)
	inputGrad := conv.Backward(upstream)

	approx := cmpopts.EquateApprox(1e-5, 1e-7)

	numInput := gradcheck.Numerical(input, 1e-6, loss)
	if diff := cmp.Diff(numInput.Data(), inputGrad.Data(), approx); diff != "" {
		t.Errorf("dLdA mismatch vs numerical gradient (-num +analytic):\n%s", diff)
	}

	numWeight := gradcheck.Numerical(conv.Weight().Tensor(), 1e-6, loss)
	if diff := cmp.Diff(numWeight.Data(), conv.Weight().Grad().Data(), approx); diff != "" {
		t.Errorf("dLdW mismatch vs numerical gradient (-num +analytic):\n%s", diff)
	}

	numBias := gradcheck.Numerical(conv.Bias().Tensor(), 1e-6, loss)
	if diff := cmp.Diff(numBias.Data(), conv.Bias().Grad().Data(), approx); diff != "" {
		t.Errorf("dLdb mismatch vs numerical gradient (-num +analytic):\n%s", diff)
	}
}

func TestConv2D_OutputSize(t *testing.T) {
	for _, tc := range []struct {
		size, kernel, stride, padding int
		want                          int
	}{
		{28, 5, 1, 0, 24},
		{28, 5, 2, 2, 14},
		{7, 3, 3, 2, 3},
	} {
		conv := NewConv2D(1, 1, tc.kernel, tc.stride, tc.padding, nil, nil)
		out := conv.Forward(tensor.Randn(tensor.Shape{1, 1, tc.size, tc.size}))

		require.True(t, out.Shape().Equal(tensor.Shape{1, 1, tc.want, tc.want}),
			"size=%d k=%d s=%d p=%d: got %v", tc.size, tc.kernel, tc.stride, tc.padding, out.Shape())
	}
}

func TestConv2D_PaddingRoundTrip(t *testing.T) {
	conv := NewConv2D(1, 2, 3, 2, 1, nil, nil)
	input := tensor.Randn(tensor.Shape{2, 1, 7, 7})

	output := conv.Forward(input)
	inputGrad := conv.Backward(tensor.Ones(output.Shape()))

	require.True(t, inputGrad.Shape().Equal(input.Shape()))
}

func TestConv2D_GradientCheck(t *testing.T) {
	conv := NewConv2D(1, 2, 3, 2, 1, nil, nil)
	input := tensor.Randn(tensor.Shape{1, 1, 6, 6})

	output := conv.Forward(input)
	upstream := tensor.Randn(output.Shape())

	loss := func() float64 {
		return conv.Forward(input).Mul(upstream).Sum()
	}

	conv.Forward(input)
	inputGrad := conv.Backward(upstream)

	approx := cmpopts.EquateApprox(1e-5, 1e-7)

	numInput := gradcheck.Numerical(input, 1e-6, loss)
	if diff := cmp.Diff(numInput.Data(), inputGrad.Data(), approx); diff != "" {
		t.Errorf("dLdA mismatch vs numerical gradient (-num +analytic):\n%s", diff)
	}

	weight := conv.Stride1().Weight()
	numWeight := gradcheck.Numerical(weight.Tensor(), 1e-6, loss)
	if diff := cmp.Diff(numWeight.Data(), weight.Grad().Data(), approx); diff != "" {
		t.Errorf("dLdW mismatch vs numerical gradient (-num +analytic):\n%s", diff)
	}
}
