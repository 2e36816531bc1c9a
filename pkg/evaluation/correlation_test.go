package evaluation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"parcelsurf/pkg/errors"
)

func TestParcelCorrelation(t *testing.T) {
	labels := []int{0, 0, 1, 1, 2, -2}
	ts := mat.NewDense(6, 4, []float64{
		1, 2, 3, 4,
		1, 2, 3, 4,
		2, 4, 6, 8,
		0, 0, 0, 0,
		4, 3, 2, 1,
		100, -100, 100, -100,
	})

	pc, err := quietEvaluator().ParcelCorrelation(labels, ts)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, pc.Parcels)
	assert.Empty(t, pc.Diagnostics)

	want := [][]float64{
		{1, 1, -1},
		{1, 1, -1},
		{-1, -1, 1},
	}
	for i := range want {
		for j := range want[i] {
			assert.InDelta(t, want[i][j], pc.Matrix.At(i, j), 1e-12, "entry %d,%d", i, j)
		}
	}
}

func TestParcelCorrelationDegenerateParcel(t *testing.T) {
	labels := []int{0, 0, 1, 2}
	ts := mat.NewDense(4, 3, []float64{
		1, 2, 3,
		3, 2, 1, // parcel 0 mean is flat
		1, 5, 2,
		1, math.NaN(), 2,
	})

	pc, err := quietEvaluator().ParcelCorrelation(labels, ts)
	require.NoError(t, err)
	require.NotEmpty(t, pc.Diagnostics)
	for _, d := range pc.Diagnostics {
		assert.True(t, errors.Is(d, errors.ErrCodeNumericDegeneracy))
	}

	assert.Equal(t, 0.0, pc.Matrix.At(0, 0))
	assert.Equal(t, 0.0, pc.Matrix.At(2, 2))
	assert.InDelta(t, 1.0, pc.Matrix.At(1, 1), 1e-12)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.False(t, math.IsNaN(pc.Matrix.At(i, j)))
		}
	}
}

func TestParcelCorrelationErrors(t *testing.T) {
	e := quietEvaluator()
	_, err := e.ParcelCorrelation([]int{0}, mat.NewDense(2, 3, nil))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidShape))

	_, err = e.ParcelCorrelation([]int{-1, -1}, mat.NewDense(2, 3, nil))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}
