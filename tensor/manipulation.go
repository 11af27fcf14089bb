package tensor

import "fmt"

// Pad1D returns a copy of t with pad zeros added to both ends of the width
// axis.
//
// Input shape: [batch, channels, width]
// Output shape: [batch, channels, width + 2*pad]
func Pad1D(t *Tensor, pad int) *Tensor {
	s := t.Shape()
	if len(s) != 3 {
		panic(fmt.Sprintf("tensor: Pad1D expects 3D input [N,C,W], got shape %v", s))
	}
	if pad < 0 {
		panic(fmt.Sprintf("tensor: Pad1D negative padding %d", pad))
	}

	n, c, w := s[0], s[1], s[2]
	wOut := w + 2*pad
	out := New(Shape{n, c, wOut})

	for i := 0; i < n*c; i++ {
		src := t.data[i*w : (i+1)*w]
		dst := out.data[i*wOut+pad : i*wOut+pad+w]
		copy(dst, src)
	}
	return out
}

// Unpad1D strips pad elements from both ends of the width axis, inverting
// Pad1D.
//
// Input shape: [batch, channels, width]
// Output shape: [batch, channels, width - 2*pad]
func Unpad1D(t *Tensor, pad int) *Tensor {
	s := t.Shape()
	if len(s) != 3 {
		panic(fmt.Sprintf("tensor: Unpad1D expects 3D input [N,C,W], got shape %v", s))
	}
	if pad < 0 {
		panic(fmt.Sprintf("tensor: Unpad1D negative padding %d", pad))
	}

	n, c, w := s[0], s[1], s[2]
	wOut := w - 2*pad
	if wOut <= 0 {
		panic(fmt.Sprintf("tensor: Unpad1D padding %d too large for width %d", pad, w))
	}

	out := New(Shape{n, c, wOut})
	for i := 0; i < n*c; i++ {
		src := t.data[i*w+pad : i*w+pad+wOut]
		dst := out.data[i*wOut : (i+1)*wOut]
		copy(dst, src)
	}
	return out
}

// Pad2D returns a copy of t with pad zeros added on every side of the two
// spatial axes.
//
// Input shape: [batch, channels, height, width]
// Output shape: [batch, channels, height + 2*pad, width + 2*pad]
func Pad2D(t *Tensor, pad int) *Tensor {
	s := t.Shape()
	if len(s) != 4 {
		panic(fmt.Sprintf("tensor: Pad2D expects 4D input [N,C,H,W], got shape %v", s))
	}
	if pad < 0 {
		panic(fmt.Sprintf("tensor: Pad2D negative padding %d", pad))
	}

	n, c, h, w := s[0], s[1], s[2], s[3]
	hOut := h + 2*pad
	wOut := w + 2*pad
	out := New(Shape{n, c, hOut, wOut})

	for i := 0; i < n*c; i++ {
		srcPlane := t.data[i*h*w : (i+1)*h*w]
		dstPlane := out.data[i*hOut*wOut : (i+1)*hOut*wOut]
		for row := 0; row < h; row++ {
			src := srcPlane[row*w : (row+1)*w]
			dst := dstPlane[(row+pad)*wOut+pad : (row+pad)*wOut+pad+w]
			copy(dst, src)
		}
	}
	return out
}

// Unpad2D strips pad elements from every side of the two spatial axes,
// inverting Pad2D.
//
// Input shape: [batch, channels, height, width]
// Output shape: [batch, channels, height - 2*pad, width - 2*pad]
func Unpad2D(t *Tensor, pad int) *Tensor {
	s := t.Shape()
	if len(s) != 4 {
		panic(fmt.Sprintf("tensor: Unpad2D expects 4D input [N,C,H,W], got shape %v", s))
	}
	if pad < 0 {
		panic(fmt.Sprintf("tensor: Unpad2D negative padding %d", pad))
	}

	n, c, h, w := s[0], s[1], s[2], s[3]
	hOut := h - 2*pad
	wOut := w - 2*pad
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("tensor: Unpad2D padding %d too large for spatial size %dx%d", pad, h, w))
	}

	out := New(Shape{n, c, hOut, wOut})
	for i := 0; i < n*c; i++ {
		srcPlane := t.data[i*h*w : (i+1)*h*w]
		dstPlane := out.data[i*hOut*wOut : (i+1)*hOut*wOut]
		for row := 0; row < hOut; row++ {
			src := srcPlane[(row+pad)*w+pad : (row+pad)*w+pad+wOut]
			dst := dstPlane[row*wOut : (row+1)*wOut]
			copy(dst, src)
		}
	}
	return out
}
