package nn

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/scannet-ml/scannet/tensor"
)

// Conv1DStride1 is a unit-stride, no-padding 1D convolution layer.
//
// Computes the cross-correlation (no kernel flipping) of a weight tensor
// against every receptive-field window of the input, summed over input
// channels, plus a per-channel bias.
//
// Input shape:  [batch, in_channels, width]
// Weight shape: [out_channels, in_channels, kernel_size]
// Bias shape:   [out_channels]
// Output shape: [batch, out_channels, width - kernel_size + 1]
type Conv1DStride1 struct {
	inChannels  int
	outChannels int
	kernelSize  int

	weight *Parameter
	bias   *Parameter

	// Single-slot input cache. Forward primes it, Backward consumes and
	// clears it, so forward/backward must alternate strictly.
	input *tensor.Tensor
}

// NewConv1DStride1 creates a unit-stride 1D convolution layer.
//
// weightInit and biasInit may be nil, in which case the weight is drawn
// from N(0, 1) scaled by 1/sqrt(in_channels*kernel_size) and the bias is
// zero-initialized.
func NewConv1DStride1(inChannels, outChannels, kernelSize int, weightInit, biasInit InitFunc) *Conv1DStride1 {
	if inChannels <= 0 || outChannels <= 0 {
		panic(fmt.Sprintf("conv1d: invalid channels in=%d, out=%d", inChannels, outChannels))
	}
	if kernelSize <= 0 {
		panic(fmt.Sprintf("conv1d: invalid kernel size %d", kernelSize))
	}

	if weightInit == nil {
		weightInit = ScaledNormal(inChannels * kernelSize)
	}
	if biasInit == nil {
		biasInit = Zeros
	}

	weight := weightInit(tensor.Shape{outChannels, inChannels, kernelSize})
	bias := biasInit(tensor.Shape{outChannels})

	return &Conv1DStride1{
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelSize:  kernelSize,
		weight:      NewParameter("conv1d.weight", weight),
		bias:        NewParameter("conv1d.bias", bias),
	}
}

// Forward computes the cross-correlation of the input with the weight
// kernel and caches the input for the backward pass.
//
// Input: [batch, in_channels, width]
// Output: [batch, out_channels, width - kernel_size + 1]
func (c *Conv1DStride1) Forward(input *tensor.Tensor) *tensor.Tensor {
	s := input.Shape()
	if len(s) != 3 {
		panic(fmt.Sprintf("conv1d: expected 3D input [N,C,W], got %dD", len(s)))
	}
	if s[1] != c.inChannels {
		panic(fmt.Sprintf("conv1d: input channels %d != expected %d", s[1], c.inChannels))
	}

	n, w := s[0], s[2]
	k := c.kernelSize
	wOut := w - k + 1
	if wOut <= 0 {
		panic(fmt.Sprintf("conv1d: input width %d smaller than kernel size %d", w, k))
	}

	output := tensor.New(tensor.Shape{n, c.outChannels, wOut})

	in := input.Data()
	wt := c.weight.Tensor().Data()
	bias := c.bias.Tensor().Data()
	out := output.Data()

	for batch := 0; batch < n; batch++ {
		inBatch := in[batch*c.inChannels*w : (batch+1)*c.inChannels*w]
		outBatch := out[batch*c.outChannels*wOut : (batch+1)*c.outChannels*wOut]

		for cOut := 0; cOut < c.outChannels; cOut++ {
			kernel := wt[cOut*c.inChannels*k : (cOut+1)*c.inChannels*k]

			for ow := 0; ow < wOut; ow++ {
				sum := bias[cOut]
				for cIn := 0; cIn < c.inChannels; cIn++ {
					window := inBatch[cIn*w+ow : cIn*w+ow+k]
					sum += floats.Dot(kernel[cIn*k:(cIn+1)*k], window)
				}
				outBatch[cOut*wOut+ow] = sum
			}
		}
	}

	c.input = input
	return output
}

// Backward computes the gradients of the loss with respect to the weight,
// bias, and cached input.
//
// The weight and bias gradients are overwritten on the layer's parameters
// (read them via Weight().Grad() and Bias().Grad()); the input gradient is
// returned. The input cache is consumed: calling Backward twice for one
// Forward panics.
func (c *Conv1DStride1) Backward(grad *tensor.Tensor) *tensor.Tensor {
	if c.input == nil {
		panic("conv1d: backward called without a preceding forward")
	}

	s := c.input.Shape()
	n, w := s[0], s[2]
	k := c.kernelSize
	wOut := w - k + 1

	expected := tensor.Shape{n, c.outChannels, wOut}
	if !grad.Shape().Equal(expected) {
		panic(fmt.Sprintf("conv1d: gradient shape %v != expected %v", grad.Shape(), expected))
	}

	in := c.input.Data()
	wt := c.weight.Tensor().Data()
	g := grad.Data()

	// Weight gradient: cross-correlation of the cached input with the
	// upstream gradient, summed over batch and output positions.
	weightGrad := tensor.New(tensor.Shape{c.outChannels, c.inChannels, k})
	wg := weightGrad.Data()
	for cOut := 0; cOut < c.outChannels; cOut++ {
		for cIn := 0; cIn < c.inChannels; cIn++ {
			for kw := 0; kw < k; kw++ {
				sum := 0.0
				for batch := 0; batch < n; batch++ {
					inRow := in[batch*c.inChannels*w+cIn*w:]
					gRow := g[batch*c.outChannels*wOut+cOut*wOut:]
					for ow := 0; ow < wOut; ow++ {
						sum += inRow[ow+kw] * gRow[ow]
					}
				}
				wg[cOut*c.inChannels*k+cIn*k+kw] = sum
			}
		}
	}

	// Bias gradient: sum of the upstream gradient over batch and output
	// positions, per output channel.
	biasGrad := tensor.New(tensor.Shape{c.outChannels})
	bg := biasGrad.Data()
	for batch := 0; batch < n; batch++ {
		for cOut := 0; cOut < c.outChannels; cOut++ {
			row := g[batch*c.outChannels*wOut+cOut*wOut : batch*c.outChannels*wOut+(cOut+1)*wOut]
			bg[cOut] += floats.Sum(row)
		}
	}

	// Input gradient: distribute every upstream gradient element across the
	// receptive field that produced it. Equivalent to a full correlation of
	// the gradient with the spatially flipped kernel.
	inputGrad := tensor.New(s.Clone())
	ig := inputGrad.Data()
	for batch := 0; batch < n; batch++ {
		igBatch := ig[batch*c.inChannels*w : (batch+1)*c.inChannels*w]
		gBatch := g[batch*c.outChannels*wOut : (batch+1)*c.outChannels*wOut]

		for ow := 0; ow < wOut; ow++ {
			for cOut := 0; cOut < c.outChannels; cOut++ {
				gradVal := gBatch[cOut*wOut+ow]
				kernel := wt[cOut*c.inChannels*k : (cOut+1)*c.inChannels*k]

				for cIn := 0; cIn < c.inChannels; cIn++ {
					igRow := igBatch[cIn*w+ow : cIn*w+ow+k]
					floats.AddScaled(igRow, gradVal, kernel[cIn*k:(cIn+1)*k])
				}
			}
		}
	}

	c.weight.SetGrad(weightGrad)
	c.bias.SetGrad(biasGrad)
	c.input = nil
	return inputGrad
}

// Parameters returns the weight and bias parameters.
func (c *Conv1DStride1) Parameters() []*Parameter {
	return []*Parameter{c.weight, c.bias}
}

// Weight returns the weight parameter [out_channels, in_channels, kernel_size].
func (c *Conv1DStride1) Weight() *Parameter {
	return c.weight
}

// Bias returns the bias parameter [out_channels].
func (c *Conv1DStride1) Bias() *Parameter {
	return c.bias
}

// String returns a string representation of the layer.
func (c *Conv1DStride1) String() string {
	return fmt.Sprintf("Conv1DStride1(in_channels=%d, out_channels=%d, kernel_size=%d)",
		c.inChannels, c.outChannels, c.kernelSize)
}

// Conv1D is a 1D convolution layer with arbitrary stride and symmetric
// zero-padding.
//
// Strided convolution is computed in three stages: pad the input, run the
// unit-stride primitive densely, then keep every stride-th output element.
// The backward pass inverts the stages: zero-insert the gradient back to
// stride-1 density, run the primitive's backward, and strip the padding.
//
// Output spatial size: (width + 2*padding - kernel_size)/stride + 1.
type Conv1D struct {
	stride  int
	padding int

	conv       *Conv1DStride1
	downsample *Downsample1D
}

// NewConv1D creates a strided 1D convolution layer.
//
// weightInit and biasInit may be nil; see NewConv1DStride1 for the defaults.
func NewConv1D(inChannels, outChannels, kernelSize, stride, padding int, weightInit, biasInit InitFunc) *Conv1D {
	if stride <= 0 {
		panic(fmt.Sprintf("conv1d: invalid stride %d", stride))
	}
	if padding < 0 {
		panic(fmt.Sprintf("conv1d: invalid padding %d", padding))
	}
	return &Conv1D{
		stride:     stride,
		padding:    padding,
		conv:       NewConv1DStride1(inChannels, outChannels, kernelSize, weightInit, biasInit),
		downsample: NewDownsample1D(stride),
	}
}

// Forward pads the input, runs the stride-1 primitive, and downsamples.
//
// Input: [batch, in_channels, width]
// Output: [batch, out_channels, (width + 2*padding - kernel_size)/stride + 1]
func (c *Conv1D) Forward(input *tensor.Tensor) *tensor.Tensor {
	padded := tensor.Pad1D(input, c.padding)
	dense := c.conv.Forward(padded)
	return c.downsample.Forward(dense)
}

// Backward upsamples the gradient to stride-1 density, runs the primitive's
// backward pass, and strips the padding from the resulting input gradient.
func (c *Conv1D) Backward(grad *tensor.Tensor) *tensor.Tensor {
	dense := c.downsample.Backward(grad)
	padGrad := c.conv.Backward(dense)
	return tensor.Unpad1D(padGrad, c.padding)
}

// Parameters returns the underlying primitive's weight and bias.
func (c *Conv1D) Parameters() []*Parameter {
	return c.conv.Parameters()
}

// Stride1 returns the underlying unit-stride primitive.
func (c *Conv1D) Stride1() *Conv1DStride1 {
	return c.conv
}

// String returns a string representation of the layer.
func (c *Conv1D) String() string {
	return fmt.Sprintf("Conv1D(in_channels=%d, out_channels=%d, kernel_size=%d, stride=%d, padding=%d)",
		c.conv.inChannels, c.conv.outChannels, c.conv.kernelSize, c.stride, c.padding)
}
