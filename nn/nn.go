// Package nn implements neural network layers with hand-derived backward
// passes.
//
// This package provides building blocks for constructing small feed-forward
// networks:
//   - Layer interface: the common forward/backward capability
//   - Parameter: weights and biases with a gradient slot
//   - Conv1DStride1, Conv2DStride1: unit-stride convolution primitives
//   - Conv1D, Conv2D: arbitrary stride via pad + stride-1 + downsample
//   - Upsample/Downsample: zero-insertion and every-k-th selection resampling
//   - Activations: Identity, ReLU, Sigmoid, Tanh, Softmax
//   - Flatten, Linear, BatchNorm1D
//   - Loss functions: MSE, CrossEntropy
//   - Sequential: container for stacking layers
//
// There is no autodiff tape: every layer computes its own gradients, caching
// whatever it needs from the forward pass in a single slot that the next
// Backward call consumes.
package nn

import "github.com/scannet-ml/scannet/tensor"

// Layer is the common capability of every network stage.
//
// Forward consumes the previous stage's output. Backward consumes the
// gradient of the loss with respect to this stage's output and returns the
// gradient with respect to its input. Layers that cache forward state
// require a strict forward-then-backward call order and panic when Backward
// is invoked without a preceding Forward.
type Layer interface {
	Forward(input *tensor.Tensor) *tensor.Tensor
	Backward(grad *tensor.Tensor) *tensor.Tensor
}

// Trainable is implemented by layers that carry parameters.
type Trainable interface {
	Layer

	// Parameters returns all trainable parameters of the layer.
	Parameters() []*Parameter
}
