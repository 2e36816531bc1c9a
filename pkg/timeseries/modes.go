package timeseries

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"parcelsurf/pkg/errors"
)

// Modes is the result of a spatial-mode decomposition
type Modes struct {
	// Vectors holds one spatial mode per column, one kept row per row
	Vectors *mat.Dense

	// Values holds the singular value of each mode, in decreasing order
	Values []float64

	// Kept lists the input rows that survived the variance threshold
	Kept []int
}

// SpatialModes decomposes a time-series matrix into spatial modes.
//
// Rows whose population variance does not exceed minVariance are dropped, the
// remaining rows are z-scored and factorised with a thin SVD. The first
// nModes left singular vectors are returned; fewer when the rank allows fewer.
func SpatialModes(ts mat.Matrix, nModes int, minVariance float64) (*Modes, error) {
	r, c := ts.Dims()
	if r == 0 || c == 0 {
		return nil, errors.Shape("empty time-series matrix %dx%d", r, c)
	}
	if nModes < 1 {
		return nil, errors.Config("mode count must be at least 1, got %d", nModes)
	}

	var kept []int
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, ts)
		_, std := stat.PopMeanStdDev(row, nil)
		if std*std > minVariance {
			kept = append(kept, i)
		}
	}
	if len(kept) == 0 {
		return nil, errors.Config("no row has variance above %v", minVariance)
	}

	normalized, _, err := Normalize(Rows(ts, kept))
	if err != nil {
		return nil, err
	}

	var svd mat.SVD
	if ok := svd.Factorize(normalized, mat.SVDThin); !ok {
		return nil, errors.Degenerate("singular value decomposition did not converge")
	}
	var u mat.Dense
	svd.UTo(&u)
	values := svd.Values(nil)

	_, rank := u.Dims()
	if nModes > rank {
		nModes = rank
	}

	return &Modes{
		Vectors: mat.DenseCopyOf(u.Slice(0, len(kept), 0, nModes)),
		Values:  values[:nModes],
		Kept:    kept,
	}, nil
}
