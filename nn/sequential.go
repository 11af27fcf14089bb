package nn

import (
	"fmt"

	"github.com/scannet-ml/scannet/tensor"
)

// Sequential chains layers: each layer's output is the next layer's input.
// Backward traverses the layers in reverse order.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewConv1D(24, 8, 8, 4, 0, nil, nil),
//	    nn.NewReLU(),
//	    nn.NewFlatten(),
//	)
//	output := model.Forward(input)
//	inputGrad := model.Backward(lossGrad)
type Sequential struct {
	layers []Layer
}

// NewSequential creates a Sequential container over the given layers.
func NewSequential(layers ...Layer) *Sequential {
	return &Sequential{layers: layers}
}

// Forward threads the input through all layers in order.
func (s *Sequential) Forward(input *tensor.Tensor) *tensor.Tensor {
	output := input
	for _, layer := range s.layers {
		output = layer.Forward(output)
	}
	return output
}

// Backward threads the gradient through all layers in reverse order and
// returns the gradient with respect to the first layer's input.
func (s *Sequential) Backward(grad *tensor.Tensor) *tensor.Tensor {
	for i := len(s.layers) - 1; i >= 0; i-- {
		grad = s.layers[i].Backward(grad)
	}
	return grad
}

// Parameters returns the trainable parameters of all layers, in layer
// order.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, layer := range s.layers {
		if t, ok := layer.(Trainable); ok {
			params = append(params, t.Parameters()...)
		}
	}
	return params
}

// Add appends a layer to the sequence.
func (s *Sequential) Add(layer Layer) {
	s.layers = append(s.layers, layer)
}

// Len returns the number of layers in the sequence.
func (s *Sequential) Len() int {
	return len(s.layers)
}

// Layer returns the layer at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential) Layer(index int) Layer {
	if index < 0 || index >= len(s.layers) {
		panic(fmt.Sprintf("sequential: layer index %d out of bounds [0, %d)", index, len(s.layers)))
	}
	return s.layers[index]
}
