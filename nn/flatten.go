package nn

import (
	"fmt"

	"github.com/scannet-ml/scannet/tensor"
)

// Flatten reshapes [batch, channels, spatial...] into [batch, features],
// bridging convolution stages and dense stages.
//
// The forward input shape is cached so the backward pass can restore it.
type Flatten struct {
	inputShape tensor.Shape
}

// NewFlatten creates a Flatten layer.
func NewFlatten() *Flatten {
	return &Flatten{}
}

// Forward reshapes the input to [batch, features].
func (f *Flatten) Forward(input *tensor.Tensor) *tensor.Tensor {
	s := input.Shape()
	if len(s) < 2 {
		panic(fmt.Sprintf("flatten: expected at least 2D input, got shape %v", s))
	}
	f.inputShape = s.Clone()
	return input.Reshape(s[0], input.NumElements()/s[0])
}

// Backward restores the gradient to the cached forward input shape.
func (f *Flatten) Backward(grad *tensor.Tensor) *tensor.Tensor {
	if f.inputShape == nil {
		panic("flatten: backward called without a preceding forward")
	}
	out := grad.Reshape(f.inputShape...)
	f.inputShape = nil
	return out
}
