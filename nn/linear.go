package nn

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/scannet-ml/scannet/tensor"
)

// Linear implements a fully connected layer: y = x @ W^T + b.
//
// Input shape:  [batch, in_features]
// Weight shape: [out_features, in_features]
// Bias shape:   [out_features]
// Output shape: [batch, out_features]
type Linear struct {
	inFeatures  int
	outFeatures int

	weight *Parameter
	bias   *Parameter

	input *tensor.Tensor
}

// NewLinear creates a Linear layer.
//
// weightInit and biasInit may be nil, in which case the weight is Xavier
// uniform initialized and the bias is zero-initialized.
func NewLinear(inFeatures, outFeatures int, weightInit, biasInit InitFunc) *Linear {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("linear: invalid features in=%d, out=%d", inFeatures, outFeatures))
	}

	if weightInit == nil {
		weightInit = Xavier(inFeatures, outFeatures)
	}
	if biasInit == nil {
		biasInit = Zeros
	}

	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("linear.weight", weightInit(tensor.Shape{outFeatures, inFeatures})),
		bias:        NewParameter("linear.bias", biasInit(tensor.Shape{outFeatures})),
	}
}

// Forward computes y = x @ W^T + b and caches the input.
func (l *Linear) Forward(input *tensor.Tensor) *tensor.Tensor {
	s := input.Shape()
	if len(s) != 2 {
		panic(fmt.Sprintf("linear: expected 2D input [batch, features], got shape %v", s))
	}
	if s[1] != l.inFeatures {
		panic(fmt.Sprintf("linear: input features %d != expected %d", s[1], l.inFeatures))
	}

	n := s[0]
	output := tensor.New(tensor.Shape{n, l.outFeatures})

	x := mat.NewDense(n, l.inFeatures, input.Data())
	w := mat.NewDense(l.outFeatures, l.inFeatures, l.weight.Tensor().Data())
	y := mat.NewDense(n, l.outFeatures, output.Data())
	y.Mul(x, w.T())

	bias := l.bias.Tensor().Data()
	out := output.Data()
	for row := 0; row < n; row++ {
		floats.Add(out[row*l.outFeatures:(row+1)*l.outFeatures], bias)
	}

	l.input = input
	return output
}

// Backward computes dLdW = dLdZ^T @ A, dLdb = column sums of dLdZ, and
// returns dLdA = dLdZ @ W.
//
// The weight and bias gradients are overwritten on the layer's parameters.
// The input cache is consumed.
func (l *Linear) Backward(grad *tensor.Tensor) *tensor.Tensor {
	if l.input == nil {
		panic("linear: backward called without a preceding forward")
	}

	n := l.input.Shape()[0]
	expected := tensor.Shape{n, l.outFeatures}
	if !grad.Shape().Equal(expected) {
		panic(fmt.Sprintf("linear: gradient shape %v != expected %v", grad.Shape(), expected))
	}

	a := mat.NewDense(n, l.inFeatures, l.input.Data())
	g := mat.NewDense(n, l.outFeatures, grad.Data())
	w := mat.NewDense(l.outFeatures, l.inFeatures, l.weight.Tensor().Data())

	weightGrad := tensor.New(tensor.Shape{l.outFeatures, l.inFeatures})
	dw := mat.NewDense(l.outFeatures, l.inFeatures, weightGrad.Data())
	dw.Mul(g.T(), a)

	biasGrad := tensor.New(tensor.Shape{l.outFeatures})
	bg := biasGrad.Data()
	gd := grad.Data()
	for row := 0; row < n; row++ {
		floats.Add(bg, gd[row*l.outFeatures:(row+1)*l.outFeatures])
	}

	inputGrad := tensor.New(tensor.Shape{n, l.inFeatures})
	da := mat.NewDense(n, l.inFeatures, inputGrad.Data())
	da.Mul(g, w)

	l.weight.SetGrad(weightGrad)
	l.bias.SetGrad(biasGrad)
	l.input = nil
	return inputGrad
}

// Parameters returns the weight and bias parameters.
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

// Weight returns the weight parameter [out_features, in_features].
func (l *Linear) Weight() *Parameter {
	return l.weight
}

// Bias returns the bias parameter [out_features].
func (l *Linear) Bias() *Parameter {
	return l.bias
}

// String returns a string representation of the layer.
func (l *Linear) String() string {
	return fmt.Sprintf("Linear(in_features=%d, out_features=%d)", l.inFeatures, l.outFeatures)
}
