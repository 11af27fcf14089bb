package tensor

import "gonum.org/v1/gonum/stat/distuv"

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape) *Tensor {
	return New(shape)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return Full(shape, 1)
}

// Full creates a tensor filled with a specific value.
func Full(shape Shape, value float64) *Tensor {
	t := New(shape)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// Randn creates a tensor with values drawn from the standard normal
// distribution N(0, 1).
func Randn(shape Shape) *Tensor {
	t := New(shape)
	n := distuv.UnitNormal
	for i := range t.data {
		t.data[i] = n.Rand()
	}
	return t
}
