package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Add returns the elementwise sum t + other as a new tensor.
func (t *Tensor) Add(other *Tensor) *Tensor {
	t.checkSameShape("Add", other)
	out := t.Clone()
	floats.Add(out.data, other.data)
	return out
}

// Sub returns the elementwise difference t - other as a new tensor.
func (t *Tensor) Sub(other *Tensor) *Tensor {
	t.checkSameShape("Sub", other)
	out := t.Clone()
	floats.Sub(out.data, other.data)
	return out
}

// Mul returns the elementwise product t * other as a new tensor.
func (t *Tensor) Mul(other *Tensor) *Tensor {
	t.checkSameShape("Mul", other)
	out := t.Clone()
	floats.Mul(out.data, other.data)
	return out
}

// Scale returns t multiplied by a scalar as a new tensor.
func (t *Tensor) Scale(c float64) *Tensor {
	out := t.Clone()
	floats.Scale(c, out.data)
	return out
}

// Sum returns the sum of all elements.
func (t *Tensor) Sum() float64 {
	return floats.Sum(t.data)
}

func (t *Tensor) checkSameShape(op string, other *Tensor) {
	if !t.shape.Equal(other.shape) {
		panic(fmt.Sprintf("tensor: %s shape mismatch: %v vs %v", op, t.shape, other.shape))
	}
}
