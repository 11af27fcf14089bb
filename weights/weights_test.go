package weights

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/sbinet/npyio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/scannet-ml/scannet/tensor"
)

func writeNPY(t *testing.T, path string, val interface{}) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, npyio.Write(f, val))
}

func TestLoadNPY_Matrix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.npy")
	writeNPY(t, path, mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6}))

	got, err := LoadNPY(path)
	require.NoError(t, err)

	require.True(t, got.Shape().Equal(tensor.Shape{2, 3}))
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, got.Data())
}

func TestLoadNPY_Vector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "b.npy")
	writeNPY(t, path, []float64{0.5, -1.5, 2})

	got, err := LoadNPY(path)
	require.NoError(t, err)

	require.True(t, got.Shape().Equal(tensor.Shape{3}))
	assert.Equal(t, []float64{0.5, -1.5, 2}, got.Data())
}

func TestLoadNPY_MissingFile(t *testing.T) {
	_, err := LoadNPY(filepath.Join(t.TempDir(), "nope.npy"))
	require.Error(t, err)
}

func TestLoadNPZ(t *testing.T) {
	// An npz archive is a zip of npy members.
	path := filepath.Join(t.TempDir(), "weights.npz")
	f, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	members := map[string][]float64{
		"w1.npy": {1, 2, 3, 4},
		"w2.npy": {5, 6},
	}
	for name, data := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		require.NoError(t, npyio.Write(w, data))
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	got, err := LoadNPZ(path)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Contains(t, got, "w1.npy")
	require.Contains(t, got, "w2.npy")
	assert.Equal(t, []float64{1, 2, 3, 4}, got["w1.npy"].Data())
	assert.Equal(t, []float64{5, 6}, got["w2.npy"].Data())
}

func TestLoadNPZ_MissingFile(t *testing.T) {
	_, err := LoadNPZ(filepath.Join(t.TempDir(), "nope.npz"))
	require.Error(t, err)
}
