package nn

import (
	"fmt"

	"github.com/scannet-ml/scannet/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// Parameters pair a tensor with a gradient slot. The gradient is overwritten
// by each Backward call on the owning layer, never accumulated, so it must
// be recomputed before any optimizer step that reads it.
type Parameter struct {
	name   string
	tensor *tensor.Tensor
	grad   *tensor.Tensor
}

// NewParameter creates a new trainable parameter.
//
// The gradient slot starts empty and is filled by the first backward pass.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return &Parameter{name: name, tensor: t}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Tensor {
	return p.tensor
}

// Grad returns the gradient tensor, or nil before the first backward pass.
func (p *Parameter) Grad() *tensor.Tensor {
	return p.grad
}

// SetGrad overwrites the gradient tensor.
func (p *Parameter) SetGrad(grad *tensor.Tensor) {
	p.grad = grad
}

// ZeroGrad clears the gradient tensor.
func (p *Parameter) ZeroGrad() {
	p.grad = nil
}

// SetData copies new values into the parameter tensor.
//
// Panics if the shapes do not match. The parameter keeps its identity, so
// gradients written by later backward passes land on the same Parameter.
func (p *Parameter) SetData(t *tensor.Tensor) {
	if !p.tensor.Shape().Equal(t.Shape()) {
		panic(fmt.Sprintf("nn: parameter %q shape mismatch: have %v, got %v",
			p.name, p.tensor.Shape(), t.Shape()))
	}
	copy(p.tensor.Data(), t.Data())
}
