// Package weights loads tensors from numpy .npy and .npz files, the
// interchange format for externally produced (pretrained or reference)
// weights.
//
// Arrays must be float64 ("<f8") and C-ordered; anything else is reported
// as an error rather than converted.
package weights

import (
	"fmt"
	"os"

	"github.com/sbinet/npyio"
	"github.com/sbinet/npyio/npz"

	"github.com/scannet-ml/scannet/tensor"
)

// LoadNPY reads a single float64 array from an .npy file.
func LoadNPY(path string) (*tensor.Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("while opening weight file: %w", err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("while reading npy header from %s: %w", path, err)
	}

	var data []float64
	if err := r.Read(&data); err != nil {
		return nil, fmt.Errorf("while reading float64 array from %s: %w", path, err)
	}

	return toTensor(data, r.Header.Descr.Shape, path)
}

// LoadNPZ reads every float64 array from an .npz archive, keyed by member
// name.
func LoadNPZ(path string) (map[string]*tensor.Tensor, error) {
	r, err := npz.Open(path)
	if err != nil {
		return nil, fmt.Errorf("while opening weight archive: %w", err)
	}
	defer r.Close()

	out := make(map[string]*tensor.Tensor)
	for _, name := range r.Keys() {
		var data []float64
		if err := r.Read(name, &data); err != nil {
			return nil, fmt.Errorf("while reading %s from %s: %w", name, path, err)
		}

		t, err := toTensor(data, r.Header(name).Descr.Shape, path)
		if err != nil {
			return nil, fmt.Errorf("while converting %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

func toTensor(data []float64, dims []int, path string) (*tensor.Tensor, error) {
	shape := make(tensor.Shape, len(dims))
	copy(shape, dims)
	if len(shape) == 0 {
		// Scalar array: represent as a one-element vector.
		shape = tensor.Shape{1}
	}

	t, err := tensor.FromSlice(data, shape)
	if err != nil {
		return nil, fmt.Errorf("array in %s does not match its header shape: %w", path, err)
	}
	return t, nil
}
