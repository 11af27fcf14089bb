package nn

import (
	"fmt"
	"math"

	"github.com/scannet-ml/scannet/tensor"
)

// MSELoss computes mean squared error over all elements:
//
//	L = Σ (A - Y)² / numElements
//
// Forward caches its operands; Backward consumes them and returns dLdA.
type MSELoss struct {
	predictions *tensor.Tensor
	targets     *tensor.Tensor
}

// NewMSELoss creates an MSE loss function.
func NewMSELoss() *MSELoss {
	return &MSELoss{}
}

// Forward computes the scalar loss and caches the operands for Backward.
func (m *MSELoss) Forward(predictions, targets *tensor.Tensor) float64 {
	if !predictions.Shape().Equal(targets.Shape()) {
		panic(fmt.Sprintf("mse: predictions shape %v != targets shape %v",
			predictions.Shape(), targets.Shape()))
	}

	diff := predictions.Sub(targets)
	loss := diff.Mul(diff).Sum() / float64(predictions.NumElements())

	m.predictions = predictions
	m.targets = targets
	return loss
}

// Backward returns dLdA = 2(A - Y) / numElements and consumes the cache.
func (m *MSELoss) Backward() *tensor.Tensor {
	if m.predictions == nil {
		panic("mse: backward called without a preceding forward")
	}

	grad := m.predictions.Sub(m.targets).Scale(2 / float64(m.predictions.NumElements()))
	m.predictions = nil
	m.targets = nil
	return grad
}

// CrossEntropyLoss computes softmax cross-entropy against one-hot targets,
// averaged over the batch:
//
//	L = -Σ Y·log(softmax(A)) / batch
//
// Input shape: [batch, classes] for both operands.
type CrossEntropyLoss struct {
	softmax *tensor.Tensor
	targets *tensor.Tensor
}

// NewCrossEntropyLoss creates a cross-entropy loss function.
func NewCrossEntropyLoss() *CrossEntropyLoss {
	return &CrossEntropyLoss{}
}

// Forward computes the scalar loss and caches the softmax output and
// targets for Backward.
func (c *CrossEntropyLoss) Forward(predictions, targets *tensor.Tensor) float64 {
	s := predictions.Shape()
	if len(s) != 2 {
		panic(fmt.Sprintf("crossentropy: expected 2D input [batch, classes], got shape %v", s))
	}
	if !s.Equal(targets.Shape()) {
		panic(fmt.Sprintf("crossentropy: predictions shape %v != targets shape %v",
			s, targets.Shape()))
	}

	n, classes := s[0], s[1]
	softmax := tensor.New(s.Clone())
	in := predictions.Data()
	sm := softmax.Data()
	y := targets.Data()

	loss := 0.0
	for row := 0; row < n; row++ {
		inRow := in[row*classes : (row+1)*classes]
		smRow := sm[row*classes : (row+1)*classes]

		maxVal := math.Inf(-1)
		for _, v := range inRow {
			if v > maxVal {
				maxVal = v
			}
		}
		sum := 0.0
		for i, v := range inRow {
			smRow[i] = math.Exp(v - maxVal)
			sum += smRow[i]
		}
		for i := range smRow {
			smRow[i] /= sum
		}

		for i := range smRow {
			if y[row*classes+i] != 0 {
				loss -= y[row*classes+i] * math.Log(smRow[i])
			}
		}
	}

	c.softmax = softmax
	c.targets = targets
	return loss / float64(n)
}

// Backward returns dLdA = (softmax(A) - Y) / batch and consumes the cache.
func (c *CrossEntropyLoss) Backward() *tensor.Tensor {
	if c.softmax == nil {
		panic("crossentropy: backward called without a preceding forward")
	}

	n := c.softmax.Shape()[0]
	grad := c.softmax.Sub(c.targets).Scale(1 / float64(n))
	c.softmax = nil
	c.targets = nil
	return grad
}
