// Package tensor provides the minimal n-dimensional float64 array substrate
// used by the nn layers: shape bookkeeping, creation helpers, elementwise
// arithmetic, and zero-padding for the spatial axes of convolution inputs.
package tensor
