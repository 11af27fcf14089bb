package nn

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/scannet-ml/scannet/tensor"
)

// InitFunc produces an initialized tensor for a parameter of the given
// shape. Layer constructors accept nil InitFuncs and fall back to their
// documented defaults.
type InitFunc func(shape tensor.Shape) *tensor.Tensor

// Zeros initializes a parameter to all zeros. This is the default bias
// initializer.
func Zeros(shape tensor.Shape) *tensor.Tensor {
	return tensor.New(shape)
}

// Normal returns an initializer drawing from N(mu, sigma²).
func Normal(mu, sigma float64) InitFunc {
	dist := distuv.Normal{Mu: mu, Sigma: sigma}
	return func(shape tensor.Shape) *tensor.Tensor {
		t := tensor.New(shape)
		data := t.Data()
		for i := range data {
			data[i] = dist.Rand()
		}
		return t
	}
}

// ScaledNormal returns an initializer drawing from N(0, 1) scaled by
// 1/sqrt(fanIn). This is the default weight initializer for convolution
// layers.
func ScaledNormal(fanIn int) InitFunc {
	return Normal(0, 1/math.Sqrt(float64(fanIn)))
}

// Xavier returns a Glorot uniform initializer:
// U(-sqrt(6/(fanIn+fanOut)), sqrt(6/(fanIn+fanOut))).
//
// This is the default weight initializer for Linear layers.
func Xavier(fanIn, fanOut int) InitFunc {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	dist := distuv.Uniform{Min: -bound, Max: bound}
	return func(shape tensor.Shape) *tensor.Tensor {
		t := tensor.New(shape)
		data := t.Data()
		for i := range data {
			data[i] = dist.Rand()
		}
		return t
	}
}
