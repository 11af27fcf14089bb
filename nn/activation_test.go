package nn

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scannet-ml/scannet/internal/gradcheck"
	"github.com/scannet-ml/scannet/tensor"
)

func TestIdentity(t *testing.T) {
	id := NewIdentity()
	x := mustTensor(t, []float64{-1, 0, 2}, tensor.Shape{1, 3})

	assert.Same(t, x, id.Forward(x))
	assert.Same(t, x, id.Backward(x))
}

func TestReLU(t *testing.T) {
	relu := NewReLU()

	input := mustTensor(t, []float64{-2, -0.5, 0, 1, 3}, tensor.Shape{1, 5})
	output := relu.Forward(input)
	assert.Equal(t, []float64{0, 0, 0, 1, 3}, output.Data())

	grad := mustTensor(t, []float64{10, 10, 10, 10, 10}, tensor.Shape{1, 5})
	inputGrad := relu.Backward(grad)
	assert.Equal(t, []float64{0, 0, 0, 10, 10}, inputGrad.Data())
}

func TestReLU_CallOrder(t *testing.T) {
	relu := NewReLU()
	grad := tensor.Ones(tensor.Shape{1, 2})

	require.Panics(t, func() { relu.Backward(grad) })

	relu.Forward(tensor.Ones(tensor.Shape{1, 2}))
	relu.Backward(grad)
	require.Panics(t, func() { relu.Backward(grad) })

	relu.Forward(tensor.Ones(tensor.Shape{1, 2}))
	require.Panics(t, func() { relu.Backward(tensor.Ones(tensor.Shape{1, 3})) })
}

func TestSigmoid(t *testing.T) {
	sig := NewSigmoid()

	input := mustTensor(t, []float64{0, 100, -100}, tensor.Shape{1, 3})
	output := sig.Forward(input)

	assert.InDelta(t, 0.5, output.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, output.At(0, 1), 1e-12)
	assert.InDelta(t, 0.0, output.At(0, 2), 1e-12)

	// d/dx at 0 is 0.25.
	inputGrad := sig.Backward(tensor.Ones(tensor.Shape{1, 3}))
	assert.InDelta(t, 0.25, inputGrad.At(0, 0), 1e-12)

	require.Panics(t, func() { sig.Backward(tensor.Ones(tensor.Shape{1, 3})) })
}

func TestTanh(t *testing.T) {
	th := NewTanh()

	input := mustTensor(t, []float64{0, 1, -1}, tensor.Shape{1, 3})
	output := th.Forward(input)

	assert.InDelta(t, 0.0, output.At(0, 0), 1e-12)
	assert.InDelta(t, math.Tanh(1), output.At(0, 1), 1e-12)

	inputGrad := th.Backward(tensor.Ones(tensor.Shape{1, 3}))
	assert.InDelta(t, 1.0, inputGrad.At(0, 0), 1e-12)
	assert.InDelta(t, 1-math.Tanh(1)*math.Tanh(1), inputGrad.At(0, 1), 1e-12)

	require.Panics(t, func() { th.Backward(tensor.Ones(tensor.Shape{1, 3})) })
}

func TestSoftmax_Forward(t *testing.T) {
	sm := NewSoftmax()

	input := mustTensor(t, []float64{
		1, 1, 1, 1,
		0, 0, 1000, 0,
	}, tensor.Shape{2, 4})
	output := sm.Forward(input)

	// Uniform logits give a uniform distribution; a huge logit wins
	// without overflowing.
	for i := 0; i < 4; i++ {
		assert.InDelta(t, 0.25, output.At(0, i), 1e-12)
	}
	assert.InDelta(t, 1.0, output.At(1, 2), 1e-12)

	for r := 0; r < 2; r++ {
		sum := 0.0
		for i := 0; i < 4; i++ {
			sum += output.At(r, i)
		}
		assert.InDelta(t, 1.0, sum, 1e-12)
	}
}

func TestSoftmax_GradientCheck(t *testing.T) {
	sm := NewSoftmax()
	input := tensor.Randn(tensor.Shape{3, 5})
	upstream := tensor.Randn(tensor.Shape{3, 5})

	loss := func() float64 {
		return sm.Forward(input).Mul(upstream).Sum()
	}

	sm.Forward(input)
	inputGrad := sm.Backward(upstream)

	num := gradcheck.Numerical(input, 1e-6, loss)
	if diff := cmp.Diff(num.Data(), inputGrad.Data(), cmpopts.EquateApprox(1e-5, 1e-7)); diff != "" {
		t.Errorf("softmax jacobian mismatch vs numerical gradient (-num +analytic):\n%s", diff)
	}
}

func TestActivations_GradientCheck(t *testing.T) {
	for name, layer := range map[string]Layer{
		"relu":    NewReLU(),
		"sigmoid": NewSigmoid(),
		"tanh":    NewTanh(),
	} {
		// Shift away from 0 so ReLU's kink does not break the central
		// difference.
		input := tensor.Randn(tensor.Shape{2, 6}).Add(tensor.Full(tensor.Shape{2, 6}, 0.5))
		upstream := tensor.Randn(tensor.Shape{2, 6})

		loss := func() float64 {
			return layer.Forward(input).Mul(upstream).Sum()
		}

		layer.Forward(input)
		inputGrad := layer.Backward(upstream)

		num := gradcheck.Numerical(input, 1e-6, loss)
		if diff := cmp.Diff(num.Data(), inputGrad.Data(), cmpopts.EquateApprox(1e-5, 1e-7)); diff != "" {
			t.Errorf("%s mismatch vs numerical gradient (-num +analytic):\n%s", name, diff)
		}
	}
}
