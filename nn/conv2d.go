package nn

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/scannet-ml/scannet/tensor"
)

// Conv2DStride1 is a unit-stride, no-padding 2D convolution layer with a
// square kernel.
//
// Input shape:  [batch, in_channels, height, width]
// Weight shape: [out_channels, in_channels, kernel_size, kernel_size]
// Bias shape:   [out_channels]
// Output shape: [batch, out_channels, height - kernel_size + 1, width - kernel_size + 1]
type Conv2DStride1 struct {
	inChannels  int
	outChannels int
	kernelSize  int

	weight *Parameter
	bias   *Parameter

	// Single-slot input cache, same contract as Conv1DStride1.
	input *tensor.Tensor
}

// NewConv2DStride1 creates a unit-stride 2D convolution layer.
//
// weightInit and biasInit may be nil, in which case the weight is drawn
// from N(0, 1) scaled by 1/sqrt(in_channels*kernel_size²) and the bias is
// zero-initialized.
func NewConv2DStride1(inChannels, outChannels, kernelSize int, weightInit, biasInit InitFunc) *Conv2DStride1 {
	if inChannels <= 0 || outChannels <= 0 {
		panic(fmt.Sprintf("conv2d: invalid channels in=%d, out=%d", inChannels, outChannels))
	}
	if kernelSize <= 0 {
		panic(fmt.Sprintf("conv2d: invalid kernel size %d", kernelSize))
	}

	if weightInit == nil {
		weightInit = ScaledNormal(inChannels * kernelSize * kernelSize)
	}
	if biasInit == nil {
		biasInit = Zeros
	}

	weight := weightInit(tensor.Shape{outChannels, inChannels, kernelSize, kernelSize})
	bias := biasInit(tensor.Shape{outChannels})

	return &Conv2DStride1{
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelSize:  kernelSize,
		weight:      NewParameter("conv2d.weight", weight),
		bias:        NewParameter("conv2d.bias", bias),
	}
}

// Forward computes the cross-correlation of the input with the weight
// kernel and caches the input for the backward pass.
func (c *Conv2DStride1) Forward(input *tensor.Tensor) *tensor.Tensor {
	s := input.Shape()
	if len(s) != 4 {
		panic(fmt.Sprintf("conv2d: expected 4D input [N,C,H,W], got %dD", len(s)))
	}
	if s[1] != c.inChannels {
		panic(fmt.Sprintf("conv2d: input channels %d != expected %d", s[1], c.inChannels))
	}

	n, h, w := s[0], s[2], s[3]
	k := c.kernelSize
	hOut := h - k + 1
	wOut := w - k + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("conv2d: input size %dx%d smaller than kernel size %d", h, w, k))
	}

	output := tensor.New(tensor.Shape{n, c.outChannels, hOut, wOut})

	in := input.Data()
	wt := c.weight.Tensor().Data()
	bias := c.bias.Tensor().Data()
	out := output.Data()

	for batch := 0; batch < n; batch++ {
		inBatch := in[batch*c.inChannels*h*w : (batch+1)*c.inChannels*h*w]
		outBatch := out[batch*c.outChannels*hOut*wOut : (batch+1)*c.outChannels*hOut*wOut]

		for cOut := 0; cOut < c.outChannels; cOut++ {
			kernel := wt[cOut*c.inChannels*k*k : (cOut+1)*c.inChannels*k*k]

			for oh := 0; oh < hOut; oh++ {
				for ow := 0; ow < wOut; ow++ {
					sum := bias[cOut]
					for cIn := 0; cIn < c.inChannels; cIn++ {
						plane := inBatch[cIn*h*w : (cIn+1)*h*w]
						kPlane := kernel[cIn*k*k : (cIn+1)*k*k]
						for kh := 0; kh < k; kh++ {
							row := plane[(oh+kh)*w+ow : (oh+kh)*w+ow+k]
							sum += floats.Dot(kPlane[kh*k:(kh+1)*k], row)
						}
					}
					outBatch[cOut*hOut*wOut+oh*wOut+ow] = sum
				}
			}
		}
	}

	c.input = input
	return output
}

// Backward computes the gradients of the loss with respect to the weight,
// bias, and cached input. Same contract as Conv1DStride1.Backward.
func (c *Conv2DStride1) Backward(grad *tensor.Tensor) *tensor.Tensor {
	if c.input == nil {
		panic("conv2d: backward called without a preceding forward")
	}

	s := c.input.Shape()
	n, h, w := s[0], s[2], s[3]
	k := c.kernelSize
	hOut := h - k + 1
	wOut := w - k + 1

	expected := tensor.Shape{n, c.outChannels, hOut, wOut}
	if !grad.Shape().Equal(expected) {
		panic(fmt.Sprintf("conv2d: gradient shape %v != expected %v", grad.Shape(), expected))
	}

	in := c.input.Data()
	wt := c.weight.Tensor().Data()
	g := grad.Data()

	// Weight gradient: for every output-channel/input-channel/kernel-offset
	// triple, accumulate input-window x upstream-gradient products over
	// batch and output positions.
	weightGrad := tensor.New(tensor.Shape{c.outChannels, c.inChannels, k, k})
	wg := weightGrad.Data()
	for cOut := 0; cOut < c.outChannels; cOut++ {
		for cIn := 0; cIn < c.inChannels; cIn++ {
			for kh := 0; kh < k; kh++ {
				for kw := 0; kw < k; kw++ {
					sum := 0.0
					for batch := 0; batch < n; batch++ {
						plane := in[batch*c.inChannels*h*w+cIn*h*w:]
						gPlane := g[batch*c.outChannels*hOut*wOut+cOut*hOut*wOut:]
						for oh := 0; oh < hOut; oh++ {
							for ow := 0; ow < wOut; ow++ {
								sum += plane[(oh+kh)*w+ow+kw] * gPlane[oh*wOut+ow]
							}
						}
					}
					wg[cOut*c.inChannels*k*k+cIn*k*k+kh*k+kw] = sum
				}
			}
		}
	}

	// Bias gradient: sum over batch and both spatial axes, per output
	// channel.
	biasGrad := tensor.New(tensor.Shape{c.outChannels})
	bg := biasGrad.Data()
	for batch := 0; batch < n; batch++ {
		for cOut := 0; cOut < c.outChannels; cOut++ {
			start := batch*c.outChannels*hOut*wOut + cOut*hOut*wOut
			bg[cOut] += floats.Sum(g[start : start+hOut*wOut])
		}
	}

	// Input gradient: distribute every upstream gradient element across its
	// receptive field.
	inputGrad := tensor.New(s.Clone())
	ig := inputGrad.Data()
	for batch := 0; batch < n; batch++ {
		igBatch := ig[batch*c.inChannels*h*w : (batch+1)*c.inChannels*h*w]
		gBatch := g[batch*c.outChannels*hOut*wOut : (batch+1)*c.outChannels*hOut*wOut]

		for oh := 0; oh < hOut; oh++ {
			for ow := 0; ow < wOut; ow++ {
				for cOut := 0; cOut < c.outChannels; cOut++ {
					gradVal := gBatch[cOut*hOut*wOut+oh*wOut+ow]
					kernel := wt[cOut*c.inChannels*k*k : (cOut+1)*c.inChannels*k*k]

					for cIn := 0; cIn < c.inChannels; cIn++ {
						igPlane := igBatch[cIn*h*w : (cIn+1)*h*w]
						kPlane := kernel[cIn*k*k : (cIn+1)*k*k]
						for kh := 0; kh < k; kh++ {
							igRow := igPlane[(oh+kh)*w+ow : (oh+kh)*w+ow+k]
							floats.AddScaled(igRow, gradVal, kPlane[kh*k:(kh+1)*k])
						}
					}
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
func (c *Conv2DStride1) Parameters() []*Parameter {
	return []*Parameter{c.weight, c.bias}
}

// Weight returns the weight parameter
// [out_channels, in_channels, kernel_size, kernel_size].
func (c *Conv2DStride1) Weight() *Parameter {
	return c.weight
}

// Bias returns the bias parameter [out_channels].
func (c *Conv2DStride1) Bias() *Parameter {
	return c.bias
}

// String returns a string representation of the layer.
func (c *Conv2DStride1) String() string {
	return fmt.Sprintf("Conv2DStride1(in_channels=%d, out_channels=%d, kernel_size=%d)",
		c.inChannels, c.outChannels, c.kernelSize)
}

// Conv2D is a 2D convolution layer with arbitrary stride and symmetric
// zero-padding, built as pad + stride-1 primitive + downsample. See Conv1D
// for the staging.
//
// Output spatial size per axis: (size + 2*padding - kernel_size)/stride + 1.
type Conv2D struct {
	stride  int
	padding int

	conv       *Conv2DStride1
	downsample *Downsample2D
}

// NewConv2D creates a strided 2D convolution layer.
//
// weightInit and biasInit may be nil; see NewConv2DStride1 for the defaults.
func NewConv2D(inChannels, outChannels, kernelSize, stride, padding int, weightInit, biasInit InitFunc) *Conv2D {
	if stride <= 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %d", stride))
	}
	if padding < 0 {
		panic(fmt.Sprintf("conv2d: invalid padding %d", padding))
	}
	return &Conv2D{
		stride:     stride,
		padding:    padding,
		conv:       NewConv2DStride1(inChannels, outChannels, kernelSize, weightInit, biasInit),
		downsample: NewDownsample2D(stride),
	}
}

// Forward pads the input, runs the stride-1 primitive, and downsamples.
func (c *Conv2D) Forward(input *tensor.Tensor) *tensor.Tensor {
	padded := tensor.Pad2D(input, c.padding)
	dense := c.conv.Forward(padded)
	return c.downsample.Forward(dense)
}

// Backward upsamples the gradient to stride-1 density, runs the primitive's
// backward pass, and strips the padding from the resulting input gradient.
func (c *Conv2D) Backward(grad *tensor.Tensor) *tensor.Tensor {
	dense := c.downsample.Backward(grad)
	padGrad := c.conv.Backward(dense)
	return tensor.Unpad2D(padGrad, c.padding)
}

// Parameters returns the underlying primitive's weight and bias.
func (c *Conv2D) Parameters() []*Parameter {
	return c.conv.Parameters()
}

// Stride1 returns the underlying unit-stride primitive.
func (c *Conv2D) Stride1() *Conv2DStride1 {
	return c.conv
}

// String returns a string representation of the layer.
func (c *Conv2D) String() string {
	return fmt.Sprintf("Conv2D(in_channels=%d, out_channels=%d, kernel_size=%d, stride=%d, padding=%d)",
		c.conv.inChannels, c.conv.outChannels, c.conv.kernelSize, c.stride, c.padding)
}
