// Package gradcheck estimates gradients numerically via central
// differences, for checking hand-derived backward passes in tests.
package gradcheck

import "github.com/scannet-ml/scannet/tensor"

// Numerical estimates d(loss)/dx for every element of x.
//
// loss must recompute the scalar loss from scratch on each call, reading the
// current contents of x (x is perturbed in place and restored). The result
// has the same shape as x.
func Numerical(x *tensor.Tensor, eps float64, loss func() float64) *tensor.Tensor {
	grad := tensor.New(x.Shape().Clone())
	data := x.Data()
	g := grad.Data()

	for i := range data {
		orig := data[i]

		data[i] = orig + eps
		plus := loss()

		data[i] = orig - eps
		minus := loss()

		data[i] = orig
		g[i] = (plus - minus) / (2 * eps)
	}
	return grad
}
