package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/scannet-ml/scannet/tensor"
)

// Identity passes its input through unchanged. It exists so that a
// convolution stage without a nonlinearity still fits the layer sequence.
type Identity struct{}

// NewIdentity creates an Identity activation.
func NewIdentity() *Identity {
	return &Identity{}
}

// Forward returns the input unchanged.
func (i *Identity) Forward(input *tensor.Tensor) *tensor.Tensor {
	return input
}

// Backward returns the gradient unchanged.
func (i *Identity) Backward(grad *tensor.Tensor) *tensor.Tensor {
	return grad
}

// ReLU applies f(x) = max(0, x) elementwise.
type ReLU struct {
	input *tensor.Tensor
}

// NewReLU creates a ReLU activation.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward applies max(0, x) and caches the input for the backward pass.
func (r *ReLU) Forward(input *tensor.Tensor) *tensor.Tensor {
	output := tensor.New(input.Shape().Clone())
	in := input.Data()
	out := output.Data()
	for i, v := range in {
		if v > 0 {
			out[i] = v
		}
	}
	r.input = input
	return output
}

// Backward passes the gradient through where the cached input was positive.
func (r *ReLU) Backward(grad *tensor.Tensor) *tensor.Tensor {
	if r.input == nil {
		panic("relu: backward called without a preceding forward")
	}
	if !grad.Shape().Equal(r.input.Shape()) {
		panic(fmt.Sprintf("relu: gradient shape %v != input shape %v",
			grad.Shape(), r.input.Shape()))
	}
	output := tensor.New(grad.Shape().Clone())
	in := r.input.Data()
	g := grad.Data()
	out := output.Data()
	for i, v := range in {
		if v > 0 {
			out[i] = g[i]
		}
	}
	r.input = nil
	return output
}

// Sigmoid applies σ(x) = 1 / (1 + exp(-x)) elementwise.
type Sigmoid struct {
	output *tensor.Tensor
}

// NewSigmoid creates a Sigmoid activation.
func NewSigmoid() *Sigmoid {
	return &Sigmoid{}
}

// Forward applies the sigmoid and caches the output for the backward pass.
func (s *Sigmoid) Forward(input *tensor.Tensor) *tensor.Tensor {
	output := tensor.New(input.Shape().Clone())
	in := input.Data()
	out := output.Data()
	for i, v := range in {
		out[i] = 1 / (1 + math.Exp(-v))
	}
	s.output = output
	return output
}

// Backward multiplies the gradient by σ(x)·(1−σ(x)).
func (s *Sigmoid) Backward(grad *tensor.Tensor) *tensor.Tensor {
	if s.output == nil {
		panic("sigmoid: backward called without a preceding forward")
	}
	output := tensor.New(grad.Shape().Clone())
	a := s.output.Data()
	g := grad.Data()
	out := output.Data()
	for i := range g {
		out[i] = g[i] * a[i] * (1 - a[i])
	}
	s.output = nil
	return output
}

// Tanh applies the hyperbolic tangent elementwise.
type Tanh struct {
	output *tensor.Tensor
}

// NewTanh creates a Tanh activation.
func NewTanh() *Tanh {
	return &Tanh{}
}

// Forward applies tanh and caches the output for the backward pass.
func (t *Tanh) Forward(input *tensor.Tensor) *tensor.Tensor {
	output := tensor.New(input.Shape().Clone())
	in := input.Data()
	out := output.Data()
	for i, v := range in {
		out[i] = math.Tanh(v)
	}
	t.output = output
	return output
}

// Backward multiplies the gradient by 1 − tanh(x)².
func (t *Tanh) Backward(grad *tensor.Tensor) *tensor.Tensor {
	if t.output == nil {
		panic("tanh: backward called without a preceding forward")
	}
	output := tensor.New(grad.Shape().Clone())
	a := t.output.Data()
	g := grad.Data()
	out := output.Data()
	for i := range g {
		out[i] = g[i] * (1 - a[i]*a[i])
	}
	t.output = nil
	return output
}

// Softmax applies a numerically stable softmax along the last axis.
//
// Leading axes are treated as batch dimensions. The backward pass applies
// the softmax Jacobian per batch row:
//
//	dLdZ_j = A_j * (dLdA_j - Σ_i dLdA_i * A_i)
type Softmax struct {
	output *tensor.Tensor
}

// NewSoftmax creates a Softmax activation.
func NewSoftmax() *Softmax {
	return &Softmax{}
}

// Forward applies softmax along the last axis and caches the output.
func (s *Softmax) Forward(input *tensor.Tensor) *tensor.Tensor {
	shape := input.Shape()
	if len(shape) == 0 {
		panic("softmax: scalar input")
	}

	classes := shape[len(shape)-1]
	rows := input.NumElements() / classes

	output := tensor.New(shape.Clone())
	in := input.Data()
	out := output.Data()

	for r := 0; r < rows; r++ {
		row := in[r*classes : (r+1)*classes]
		outRow := out[r*classes : (r+1)*classes]

		// Shift by the row max for numerical stability.
		maxVal := floats.Max(row)
		sum := 0.0
		for i, v := range row {
			outRow[i] = math.Exp(v - maxVal)
			sum += outRow[i]
		}
		floats.Scale(1/sum, outRow)
	}

	s.output = output
	return output
}

// Backward applies the softmax Jacobian per batch row.
func (s *Softmax) Backward(grad *tensor.Tensor) *tensor.Tensor {
	if s.output == nil {
		panic("softmax: backward called without a preceding forward")
	}
	if !grad.Shape().Equal(s.output.Shape()) {
		panic(fmt.Sprintf("softmax: gradient shape %v != output shape %v",
			grad.Shape(), s.output.Shape()))
	}

	shape := grad.Shape()
	classes := shape[len(shape)-1]
	rows := grad.NumElements() / classes

	output := tensor.New(shape.Clone())
	a := s.output.Data()
	g := grad.Data()
	out := output.Data()

	for r := 0; r < rows; r++ {
		aRow := a[r*classes : (r+1)*classes]
		gRow := g[r*classes : (r+1)*classes]
		outRow := out[r*classes : (r+1)*classes]

		dot := floats.Dot(gRow, aRow)
		for i := range outRow {
			outRow[i] = aRow[i] * (gRow[i] - dot)
		}
	}

	s.output = nil
	return output
}
