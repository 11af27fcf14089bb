package nn

import (
	"fmt"

	"github.com/scannet-ml/scannet/tensor"
)

// Upsample1D inserts factor-1 zeros between neighboring elements along the
// width axis.
//
// Input shape:  [batch, channels, width]
// Output shape: [batch, channels, factor*(width-1) + 1]
//
// Backward keeps every factor-th gradient element, dropping the positions
// that were zero-filled.
type Upsample1D struct {
	factor int
}

// NewUpsample1D creates an upsampling layer with the given factor.
func NewUpsample1D(factor int) *Upsample1D {
	if factor <= 0 {
		panic(fmt.Sprintf("upsample1d: invalid factor %d", factor))
	}
	return &Upsample1D{factor: factor}
}

// Forward zero-fills between input elements.
func (u *Upsample1D) Forward(input *tensor.Tensor) *tensor.Tensor {
	s := input.Shape()
	if len(s) != 3 {
		panic(fmt.Sprintf("upsample1d: expected 3D input [N,C,W], got %dD", len(s)))
	}

	n, c, w := s[0], s[1], s[2]
	wOut := u.factor*(w-1) + 1
	output := tensor.New(tensor.Shape{n, c, wOut})

	in := input.Data()
	out := output.Data()
	for i := 0; i < n*c; i++ {
		for j := 0; j < w; j++ {
			out[i*wOut+j*u.factor] = in[i*w+j]
		}
	}
	return output
}

// Backward selects every factor-th gradient element.
func (u *Upsample1D) Backward(grad *tensor.Tensor) *tensor.Tensor {
	s := grad.Shape()
	if len(s) != 3 {
		panic(fmt.Sprintf("upsample1d: expected 3D gradient [N,C,W], got %dD", len(s)))
	}

	n, c, w := s[0], s[1], s[2]
	wOut := (w-1)/u.factor + 1
	output := tensor.New(tensor.Shape{n, c, wOut})

	g := grad.Data()
	out := output.Data()
	for i := 0; i < n*c; i++ {
		for j := 0; j < wOut; j++ {
			out[i*wOut+j] = g[i*w+j*u.factor]
		}
	}
	return output
}

// Downsample1D keeps every factor-th element along the width axis, starting
// at offset 0.
//
// Input shape:  [batch, channels, width]
// Output shape: [batch, channels, (width-1)/factor + 1]
//
// Backward zero-inserts the gradient back to the cached input width, so the
// layer must see a Forward before each Backward.
type Downsample1D struct {
	factor     int
	inputWidth int
}

// NewDownsample1D creates a downsampling layer with the given factor.
func NewDownsample1D(factor int) *Downsample1D {
	if factor <= 0 {
		panic(fmt.Sprintf("downsample1d: invalid factor %d", factor))
	}
	return &Downsample1D{factor: factor}
}

// Forward keeps every factor-th element and records the input width for the
// backward pass.
func (d *Downsample1D) Forward(input *tensor.Tensor) *tensor.Tensor {
	s := input.Shape()
	if len(s) != 3 {
		panic(fmt.Sprintf("downsample1d: expected 3D input [N,C,W], got %dD", len(s)))
	}

	n, c, w := s[0], s[1], s[2]
	wOut := (w-1)/d.factor + 1
	output := tensor.New(tensor.Shape{n, c, wOut})

	in := input.Data()
	out := output.Data()
	for i := 0; i < n*c; i++ {
		for j := 0; j < wOut; j++ {
			out[i*wOut+j] = in[i*w+j*d.factor]
		}
	}

	d.inputWidth = w
	return output
}

// Backward reconstructs a dense gradient at the original input width by
// inserting zeros between the kept positions.
func (d *Downsample1D) Backward(grad *tensor.Tensor) *tensor.Tensor {
	if d.inputWidth == 0 {
		panic("downsample1d: backward called without a preceding forward")
	}

	s := grad.Shape()
	if len(s) != 3 {
		panic(fmt.Sprintf("downsample1d: expected 3D gradient [N,C,W], got %dD", len(s)))
	}

	n, c, w := s[0], s[1], s[2]
	wOut := d.inputWidth
	output := tensor.New(tensor.Shape{n, c, wOut})

	g := grad.Data()
	out := output.Data()
	for i := 0; i < n*c; i++ {
		for j := 0; j < w; j++ {
			out[i*wOut+j*d.factor] = g[i*w+j]
		}
	}
	return output
}

// Upsample2D inserts factor-1 zeros between neighboring elements along both
// spatial axes.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, factor*(height-1) + 1, factor*(width-1) + 1]
type Upsample2D struct {
	factor int
}

// NewUpsample2D creates a 2D upsampling layer with the given factor.
func NewUpsample2D(factor int) *Upsample2D {
	if factor <= 0 {
		panic(fmt.Sprintf("upsample2d: invalid factor %d", factor))
	}
	return &Upsample2D{factor: factor}
}

// Forward zero-fills between input elements on both axes.
func (u *Upsample2D) Forward(input *tensor.Tensor) *tensor.Tensor {
	s := input.Shape()
	if len(s) != 4 {
		panic(fmt.Sprintf("upsample2d: expected 4D input [N,C,H,W], got %dD", len(s)))
	}

	n, c, h, w := s[0], s[1], s[2], s[3]
	hOut := u.factor*(h-1) + 1
	wOut := u.factor*(w-1) + 1
	output := tensor.New(tensor.Shape{n, c, hOut, wOut})

	in := input.Data()
	out := output.Data()
	for i := 0; i < n*c; i++ {
		for row := 0; row < h; row++ {
			for col := 0; col < w; col++ {
				out[i*hOut*wOut+row*u.factor*wOut+col*u.factor] = in[i*h*w+row*w+col]
			}
		}
	}
	return output
}

// Backward selects every factor-th gradient element on both axes.
func (u *Upsample2D) Backward(grad *tensor.Tensor) *tensor.Tensor {
	s := grad.Shape()
	if len(s) != 4 {
		panic(fmt.Sprintf("upsample2d: expected 4D gradient [N,C,H,W], got %dD", len(s)))
	}

	n, c, h, w := s[0], s[1], s[2], s[3]
	hOut := (h-1)/u.factor + 1
	wOut := (w-1)/u.factor + 1
	output := tensor.New(tensor.Shape{n, c, hOut, wOut})

	g := grad.Data()
	out := output.Data()
	for i := 0; i < n*c; i++ {
		for row := 0; row < hOut; row++ {
			for col := 0; col < wOut; col++ {
				out[i*hOut*wOut+row*wOut+col] = g[i*h*w+row*u.factor*w+col*u.factor]
			}
		}
	}
	return output
}

// Downsample2D keeps every factor-th element along both spatial axes,
// starting at offset (0, 0).
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, (height-1)/factor + 1, (width-1)/factor + 1]
type Downsample2D struct {
	factor      int
	inputHeight int
	inputWidth  int
}

// NewDownsample2D creates a 2D downsampling layer with the given factor.
func NewDownsample2D(factor int) *Downsample2D {
	if factor <= 0 {
		panic(fmt.Sprintf("downsample2d: invalid factor %d", factor))
	}
	return &Downsample2D{factor: factor}
}

// Forward keeps every factor-th element on both axes and records the input
// size for the backward pass.
func (d *Downsample2D) Forward(input *tensor.Tensor) *tensor.Tensor {
	s := input.Shape()
	if len(s) != 4 {
		panic(fmt.Sprintf("downsample2d: expected 4D input [N,C,H,W], got %dD", len(s)))
	}

	n, c, h, w := s[0], s[1], s[2], s[3]
	hOut := (h-1)/d.factor + 1
	wOut := (w-1)/d.factor + 1
	output := tensor.New(tensor.Shape{n, c, hOut, wOut})

	in := input.Data()
	out := output.Data()
	for i := 0; i < n*c; i++ {
		for row := 0; row < hOut; row++ {
			for col := 0; col < wOut; col++ {
				out[i*hOut*wOut+row*wOut+col] = in[i*h*w+row*d.factor*w+col*d.factor]
			}
		}
	}

	d.inputHeight = h
	d.inputWidth = w
	return output
}

// Backward reconstructs a dense gradient at the original input size by
// inserting zeros between the kept positions.
func (d *Downsample2D) Backward(grad *tensor.Tensor) *tensor.Tensor {
	if d.inputHeight == 0 || d.inputWidth == 0 {
		panic("downsample2d: backward called without a preceding forward")
	}

	s := grad.Shape()
	if len(s) != 4 {
		panic(fmt.Sprintf("downsample2d: expected 4D gradient [N,C,H,W], got %dD", len(s)))
	}

	n, c, h, w := s[0], s[1], s[2], s[3]
	hOut := d.inputHeight
	wOut := d.inputWidth
	output := tensor.New(tensor.Shape{n, c, hOut, wOut})

	g := grad.Data()
	out := output.Data()
	for i := 0; i < n*c; i++ {
		for row := 0; row < h; row++ {
			for col := 0; col < w; col++ {
				out[i*hOut*wOut+row*d.factor*wOut+col*d.factor] = g[i*h*w+row*w+col]
			}
		}
	}
	return output
}
