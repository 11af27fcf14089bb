package nn

import (
	"fmt"
	"math"

	"github.com/scannet-ml/scannet/tensor"
)

// BatchNorm1D normalizes each feature over the batch dimension, then applies
// a learned per-feature scale and shift.
//
// Input shape: [batch, features]
//
// In training mode the batch statistics are used and folded into running
// estimates; in eval mode the running estimates are used instead.
type BatchNorm1D struct {
	features int
	eps      float64
	momentum float64

	gamma *Parameter // per-feature scale
	beta  *Parameter // per-feature shift

	runningMean *tensor.Tensor
	runningVar  *tensor.Tensor

	training bool

	// Forward caches consumed by Backward.
	input      *tensor.Tensor
	normalized *tensor.Tensor
	mean       []float64
	variance   []float64
}

// NewBatchNorm1D creates a batch normalization layer over the given number
// of features. momentum weights the running statistics update:
// running = momentum*running + (1-momentum)*batch.
func NewBatchNorm1D(features int, momentum float64) *BatchNorm1D {
	if features <= 0 {
		panic(fmt.Sprintf("batchnorm: invalid feature count %d", features))
	}
	if momentum < 0 || momentum >= 1 {
		panic(fmt.Sprintf("batchnorm: invalid momentum %v", momentum))
	}
	return &BatchNorm1D{
		features:    features,
		eps:         1e-8,
		momentum:    momentum,
		gamma:       NewParameter("batchnorm.gamma", tensor.Ones(tensor.Shape{features})),
		beta:        NewParameter("batchnorm.beta", tensor.New(tensor.Shape{features})),
		runningMean: tensor.New(tensor.Shape{features}),
		runningVar:  tensor.Ones(tensor.Shape{features}),
		training:    true,
	}
}

// Train switches the layer to training mode (batch statistics).
func (b *BatchNorm1D) Train() {
	b.training = true
}

// Eval switches the layer to inference mode (running statistics).
func (b *BatchNorm1D) Eval() {
	b.training = false
}

// Forward normalizes the input and applies gamma and beta.
func (b *BatchNorm1D) Forward(input *tensor.Tensor) *tensor.Tensor {
	s := input.Shape()
	if len(s) != 2 {
		panic(fmt.Sprintf("batchnorm: expected 2D input [batch, features], got shape %v", s))
	}
	if s[1] != b.features {
		panic(fmt.Sprintf("batchnorm: input features %d != expected %d", s[1], b.features))
	}

	n := s[0]
	in := input.Data()
	gamma := b.gamma.Tensor().Data()
	beta := b.beta.Tensor().Data()

	mean := make([]float64, b.features)
	variance := make([]float64, b.features)
	for row := 0; row < n; row++ {
		for f := 0; f < b.features; f++ {
			mean[f] += in[row*b.features+f]
		}
	}
	for f := range mean {
		mean[f] /= float64(n)
	}
	for row := 0; row < n; row++ {
		for f := 0; f < b.features; f++ {
			d := in[row*b.features+f] - mean[f]
			variance[f] += d * d
		}
	}
	for f := range variance {
		variance[f] /= float64(n)
	}

	normalized := tensor.New(s.Clone())
	output := tensor.New(s.Clone())
	nz := normalized.Data()
	out := output.Data()

	if b.training {
		for row := 0; row < n; row++ {
			for f := 0; f < b.features; f++ {
				i := row*b.features + f
				nz[i] = (in[i] - mean[f]) / math.Sqrt(variance[f]+b.eps)
				out[i] = gamma[f]*nz[i] + beta[f]
			}
		}

		rm := b.runningMean.Data()
		rv := b.runningVar.Data()
		for f := 0; f < b.features; f++ {
			rm[f] = b.momentum*rm[f] + (1-b.momentum)*mean[f]
			rv[f] = b.momentum*rv[f] + (1-b.momentum)*variance[f]
		}
	} else {
		rm := b.runningMean.Data()
		rv := b.runningVar.Data()
		for row := 0; row < n; row++ {
			for f := 0; f < b.features; f++ {
				i := row*b.features + f
				nz[i] = (in[i] - rm[f]) / math.Sqrt(rv[f]+b.eps)
				out[i] = gamma[f]*nz[i] + beta[f]
			}
		}
	}

	b.input = input
	b.normalized = normalized
	b.mean = mean
	b.variance = variance
	return output
}

// Backward computes the gradients with respect to gamma, beta, and the
// input, using the batch statistics cached by the forward pass.
func (b *BatchNorm1D) Backward(grad *tensor.Tensor) *tensor.Tensor {
	if b.input == nil {
		panic("batchnorm: backward called without a preceding forward")
	}

	s := b.input.Shape()
	if !grad.Shape().Equal(s) {
		panic(fmt.Sprintf("batchnorm: gradient shape %v != input shape %v", grad.Shape(), s))
	}

	n := s[0]
	nf := float64(n)
	nz := b.normalized.Data()
	g := grad.Data()
	gamma := b.gamma.Tensor().Data()

	gammaGrad := tensor.New(tensor.Shape{b.features})
	betaGrad := tensor.New(tensor.Shape{b.features})
	gg := gammaGrad.Data()
	bg := betaGrad.Data()
	for row := 0; row < n; row++ {
		for f := 0; f < b.features; f++ {
			i := row*b.features + f
			gg[f] += g[i] * nz[i]
			bg[f] += g[i]
		}
	}

	output := tensor.New(s.Clone())
	out := output.Data()
	for f := 0; f < b.features; f++ {
		invStd := 1 / math.Sqrt(b.variance[f]+b.eps)

		// Per-feature sums over the batch of dLdNZ and dLdNZ*NZ.
		sumG := 0.0
		sumGNZ := 0.0
		for row := 0; row < n; row++ {
			i := row*b.features + f
			dNZ := g[i] * gamma[f]
			sumG += dNZ
			sumGNZ += dNZ * nz[i]
		}

		for row := 0; row < n; row++ {
			i := row*b.features + f
			dNZ := g[i] * gamma[f]
			out[i] = invStd * (dNZ - sumG/nf - nz[i]*sumGNZ/nf)
		}
	}

	b.gamma.SetGrad(gammaGrad)
	b.beta.SetGrad(betaGrad)
	b.input = nil
	b.normalized = nil
	return output
}

// Parameters returns the gamma and beta parameters.
func (b *BatchNorm1D) Parameters() []*Parameter {
	return []*Parameter{b.gamma, b.beta}
}

// String returns a string representation of the layer.
func (b *BatchNorm1D) String() string {
	return fmt.Sprintf("BatchNorm1D(features=%d, momentum=%v)", b.features, b.momentum)
}
