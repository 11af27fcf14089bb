// Package models composes nn layers into ready-made networks.
package models

import (
	"github.com/scannet-ml/scannet/nn"
	"github.com/scannet-ml/scannet/tensor"
)

// Scanning-MLP geometry: an MLP applied to a sliding window over the time
// axis, expressed as three 1D convolution stages. The first stage scans the
// window (kernel 8, stride 4); the remaining stages are 1x1 convolutions,
// i.e. the MLP's hidden layers applied at every scanned position.
const (
	scanInChannels = 24
	scanHidden1    = 8
	scanHidden2    = 16
	scanOutputs    = 4
	scanKernel     = 8
	scanStride     = 4
)

// SimpleScanningMLP is a three-stage scanning MLP over 24-channel 1D input.
//
//	Conv1D(24 -> 8, kernel 8, stride 4) -> ReLU
//	Conv1D(8 -> 16, kernel 1, stride 1) -> ReLU
//	Conv1D(16 -> 4, kernel 1, stride 1) -> Flatten
//
// For input [batch, 24, 128] the output is [batch, 124] (31 scanned
// positions times 4 outputs).
type SimpleScanningMLP struct {
	conv1  *nn.Conv1D
	conv2  *nn.Conv1D
	conv3  *nn.Conv1D
	layers *nn.Sequential
}

// NewSimpleScanningMLP creates the scanning MLP with default-initialized
// weights and zero biases.
func NewSimpleScanningMLP() *SimpleScanningMLP {
	conv1 := nn.NewConv1D(scanInChannels, scanHidden1, scanKernel, scanStride, 0, nil, nil)
	conv2 := nn.NewConv1D(scanHidden1, scanHidden2, 1, 1, 0, nil, nil)
	conv3 := nn.NewConv1D(scanHidden2, scanOutputs, 1, 1, 0, nil, nil)

	return &SimpleScanningMLP{
		conv1: conv1,
		conv2: conv2,
		conv3: conv3,
		layers: nn.NewSequential(
			conv1, nn.NewReLU(),
			conv2, nn.NewReLU(),
			conv3, nn.NewFlatten(),
		),
	}
}

// InitWeights assigns three externally supplied weight tensors to the three
// convolution stages' stride-1 primitives. Biases are not reassigned and
// keep their zero initialization.
//
// Expected shapes: w1 [8, 24, 8], w2 [16, 8, 1], w3 [4, 16, 1]. Panics on a
// shape mismatch.
func (m *SimpleScanningMLP) InitWeights(w1, w2, w3 *tensor.Tensor) {
	m.conv1.Stride1().Weight().SetData(w1)
	m.conv2.Stride1().Weight().SetData(w2)
	m.conv3.Stride1().Weight().SetData(w3)
}

// Forward threads the input through the layer sequence.
//
// Input: [batch, 24, width]
// Output: [batch, 4 * scannedPositions]
func (m *SimpleScanningMLP) Forward(input *tensor.Tensor) *tensor.Tensor {
	return m.layers.Forward(input)
}

// Backward threads the gradient through the layers in reverse order and
// returns the gradient with respect to the network input.
func (m *SimpleScanningMLP) Backward(grad *tensor.Tensor) *tensor.Tensor {
	return m.layers.Backward(grad)
}

// Parameters returns the parameters of the three convolution stages.
func (m *SimpleScanningMLP) Parameters() []*nn.Parameter {
	return m.layers.Parameters()
}

// Layers returns the underlying layer sequence.
func (m *SimpleScanningMLP) Layers() *nn.Sequential {
	return m.layers
}

// DistributedScanningMLP is the distributed-scanning variant of
// SimpleScanningMLP. Both variants share the same composition and the same
// forward/backward semantics; no weight sharing scheme is applied.
type DistributedScanningMLP struct {
	*SimpleScanningMLP
}

// NewDistributedScanningMLP creates the distributed scanning MLP.
func NewDistributedScanningMLP() *DistributedScanningMLP {
	return &DistributedScanningMLP{SimpleScanningMLP: NewSimpleScanningMLP()}
}
